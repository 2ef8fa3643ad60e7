// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package byml

import (
	"sort"

	"github.com/nxtoolkit/nxbin/nxerr"
)

// Type is a BYML node-type byte.
type Type byte

// Node-type bytes, per the on-disk layout.
const (
	TypeHash32               Type = 0x20
	TypeHash64               Type = 0x21
	TypeString               Type = 0xA0
	TypeBinary               Type = 0xA1
	TypeFile                 Type = 0xA2
	TypeArray                Type = 0xC0
	TypeHash                 Type = 0xC1
	typeStringTable          Type = 0xC2
	TypeRelocatedStringTable Type = 0xC5
	TypeBool                 Type = 0xD0
	TypeInt32                Type = 0xD1
	TypeFloat32              Type = 0xD2
	TypeUInt32               Type = 0xD3
	TypeInt64                Type = 0xD4
	TypeUInt64                Type = 0xD5
	TypeFloat64              Type = 0xD6
	TypeNull                 Type = 0xFF
)

func (t Type) String() string {
	switch t {
	case TypeHash32:
		return "Hash32"
	case TypeHash64:
		return "Hash64"
	case TypeString:
		return "String"
	case TypeBinary:
		return "Binary"
	case TypeFile:
		return "File"
	case TypeArray:
		return "Array"
	case TypeHash:
		return "Hash"
	case TypeRelocatedStringTable:
		return "RelocatedStringTable"
	case TypeBool:
		return "Bool"
	case TypeInt32:
		return "Int32"
	case TypeFloat32:
		return "Float32"
	case TypeUInt32:
		return "UInt32"
	case TypeInt64:
		return "Int64"
	case TypeUInt64:
		return "UInt64"
	case TypeFloat64:
		return "Float64"
	case TypeNull:
		return "Null"
	}
	return "Unknown"
}

// isInline reports whether a value of this type is stored directly in its
// parent's 4-byte payload slot rather than out-of-line by offset.
func (t Type) isInline() bool {
	switch t {
	case TypeString, TypeBool, TypeInt32, TypeFloat32, TypeUInt32, TypeNull:
		return true
	}
	return false
}

func (t Type) isContainer() bool {
	switch t {
	case TypeArray, TypeHash, TypeHash32, TypeHash64:
		return true
	}
	return false
}

// File is a named, aligned byte blob, the extended File node payload.
type File struct {
	Alignment uint32
	Data      []byte
}

// Node is a BYML value: a tagged sum over Null, String, Array, Hash, Bool,
// Int32, Float32, UInt32, Int64, UInt64, Float64, and the extended
// Hash32, Hash64, Binary, and File.
type Node struct {
	typ Type

	str    string
	arr    []*Node
	hash   *Hash
	hash32 *Hash32
	hash64 *Hash64
	bin    []byte
	file   File
	b      bool
	i32    int32
	f32    float32
	u32    uint32
	i64    int64
	u64    uint64
	f64    float64
}

// Type returns the node's variant.
func (n *Node) Type() Type { return n.typ }

// NewNull returns the Null node.
func NewNull() *Node { return &Node{typ: TypeNull} }

// NewString returns a String node.
func NewString(s string) *Node { return &Node{typ: TypeString, str: s} }

// NewArray returns an Array node containing items, in order.
func NewArray(items ...*Node) *Node { return &Node{typ: TypeArray, arr: items} }

// NewHash returns an empty Hash node.
func NewHash() *Node { return &Node{typ: TypeHash, hash: newHash()} }

// NewHash32 returns an empty extended Hash32 node.
func NewHash32() *Node { return &Node{typ: TypeHash32, hash32: newHash32()} }

// NewHash64 returns an empty extended Hash64 node.
func NewHash64() *Node { return &Node{typ: TypeHash64, hash64: newHash64()} }

// NewBool, NewInt32, NewFloat32, NewUInt32, NewInt64, NewUInt64, and
// NewFloat64 construct the corresponding scalar node.
func NewBool(b bool) *Node          { return &Node{typ: TypeBool, b: b} }
func NewInt32(v int32) *Node        { return &Node{typ: TypeInt32, i32: v} }
func NewFloat32(v float32) *Node    { return &Node{typ: TypeFloat32, f32: v} }
func NewUInt32(v uint32) *Node      { return &Node{typ: TypeUInt32, u32: v} }
func NewInt64(v int64) *Node        { return &Node{typ: TypeInt64, i64: v} }
func NewUInt64(v uint64) *Node      { return &Node{typ: TypeUInt64, u64: v} }
func NewFloat64(v float64) *Node    { return &Node{typ: TypeFloat64, f64: v} }
func NewBinary(b []byte) *Node      { return &Node{typ: TypeBinary, bin: b} }
func NewFile(align uint32, data []byte) *Node {
	return &Node{typ: TypeFile, file: File{Alignment: align, Data: data}}
}

func typeErr(want Type, got Type) error {
	return nxerr.NewTypeError(want.String(), got.String())
}

// AsString returns the node's string, or a TypeError if it isn't a String.
func (n *Node) AsString() (string, error) {
	if n.typ != TypeString {
		return "", typeErr(TypeString, n.typ)
	}
	return n.str, nil
}

// AsArray returns the node's elements, or a TypeError if it isn't an Array.
func (n *Node) AsArray() ([]*Node, error) {
	if n.typ != TypeArray {
		return nil, typeErr(TypeArray, n.typ)
	}
	return n.arr, nil
}

// AsHash returns the node's Hash, or a TypeError if it isn't a Hash.
func (n *Node) AsHash() (*Hash, error) {
	if n.typ != TypeHash {
		return nil, typeErr(TypeHash, n.typ)
	}
	return n.hash, nil
}

// AsHash32 returns the node's Hash32, or a TypeError if it isn't one.
func (n *Node) AsHash32() (*Hash32, error) {
	if n.typ != TypeHash32 {
		return nil, typeErr(TypeHash32, n.typ)
	}
	return n.hash32, nil
}

// AsHash64 returns the node's Hash64, or a TypeError if it isn't one.
func (n *Node) AsHash64() (*Hash64, error) {
	if n.typ != TypeHash64 {
		return nil, typeErr(TypeHash64, n.typ)
	}
	return n.hash64, nil
}

// AsBool, AsInt32, AsFloat32, AsUInt32, AsInt64, AsUInt64, AsFloat64, and
// AsBinary return the node's scalar value, or a TypeError on mismatch.
func (n *Node) AsBool() (bool, error) {
	if n.typ != TypeBool {
		return false, typeErr(TypeBool, n.typ)
	}
	return n.b, nil
}

func (n *Node) AsInt32() (int32, error) {
	if n.typ != TypeInt32 {
		return 0, typeErr(TypeInt32, n.typ)
	}
	return n.i32, nil
}

func (n *Node) AsFloat32() (float32, error) {
	if n.typ != TypeFloat32 {
		return 0, typeErr(TypeFloat32, n.typ)
	}
	return n.f32, nil
}

func (n *Node) AsUInt32() (uint32, error) {
	if n.typ != TypeUInt32 {
		return 0, typeErr(TypeUInt32, n.typ)
	}
	return n.u32, nil
}

func (n *Node) AsInt64() (int64, error) {
	if n.typ != TypeInt64 {
		return 0, typeErr(TypeInt64, n.typ)
	}
	return n.i64, nil
}

func (n *Node) AsUInt64() (uint64, error) {
	if n.typ != TypeUInt64 {
		return 0, typeErr(TypeUInt64, n.typ)
	}
	return n.u64, nil
}

func (n *Node) AsFloat64() (float64, error) {
	if n.typ != TypeFloat64 {
		return 0, typeErr(TypeFloat64, n.typ)
	}
	return n.f64, nil
}

func (n *Node) AsBinary() ([]byte, error) {
	if n.typ != TypeBinary {
		return nil, typeErr(TypeBinary, n.typ)
	}
	return n.bin, nil
}

func (n *Node) AsFile() (File, error) {
	if n.typ != TypeFile {
		return File{}, typeErr(TypeFile, n.typ)
	}
	return n.file, nil
}

// GetInt accepts Int32 or UInt32 (reinterpreted).
func (n *Node) GetInt() (int32, error) {
	switch n.typ {
	case TypeInt32:
		return n.i32, nil
	case TypeUInt32:
		return int32(n.u32), nil
	}
	return 0, typeErr(TypeInt32, n.typ)
}

// GetUInt accepts Int32 or UInt32, but rejects a negative Int32.
func (n *Node) GetUInt() (uint32, error) {
	switch n.typ {
	case TypeUInt32:
		return n.u32, nil
	case TypeInt32:
		if n.i32 < 0 {
			return 0, nxerr.NewTypeError("non-negative Int32", "negative Int32")
		}
		return uint32(n.i32), nil
	}
	return 0, typeErr(TypeUInt32, n.typ)
}

// GetInt64 widens from Int32, UInt32, or Int64.
func (n *Node) GetInt64() (int64, error) {
	switch n.typ {
	case TypeInt64:
		return n.i64, nil
	case TypeInt32:
		return int64(n.i32), nil
	case TypeUInt32:
		return int64(n.u32), nil
	}
	return 0, typeErr(TypeInt64, n.typ)
}

// GetUInt64 widens from Int32, UInt32, UInt64, or Int64, but rejects a
// negative Int32 or Int64.
func (n *Node) GetUInt64() (uint64, error) {
	switch n.typ {
	case TypeUInt64:
		return n.u64, nil
	case TypeUInt32:
		return uint64(n.u32), nil
	case TypeInt32:
		if n.i32 < 0 {
			return 0, nxerr.NewTypeError("non-negative Int32", "negative Int32")
		}
		return uint64(n.i32), nil
	case TypeInt64:
		if n.i64 < 0 {
			return 0, nxerr.NewTypeError("non-negative Int64", "negative Int64")
		}
		return uint64(n.i64), nil
	}
	return 0, typeErr(TypeUInt64, n.typ)
}

// Hash is a String-keyed dictionary whose iteration order is always
// key-sorted ascending, per spec.md's determinism requirement for BYML
// Hash emission.
type Hash struct {
	m map[string]*Node
}

func newHash() *Hash { return &Hash{m: map[string]*Node{}} }

// Set inserts or replaces the value at key.
func (h *Hash) Set(key string, v *Node) { h.m[key] = v }

// Get returns the value at key, if present.
func (h *Hash) Get(key string) (*Node, bool) {
	v, ok := h.m[key]
	return v, ok
}

// Len returns the number of entries.
func (h *Hash) Len() int { return len(h.m) }

// Keys returns every key, sorted ascending.
func (h *Hash) Keys() []string {
	keys := make([]string, 0, len(h.m))
	for k := range h.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Hash32 is a uint32-keyed dictionary (extended mode), sorted ascending by
// key on iteration.
type Hash32 struct {
	m map[uint32]*Node
}

func newHash32() *Hash32 { return &Hash32{m: map[uint32]*Node{}} }

func (h *Hash32) Set(key uint32, v *Node) { h.m[key] = v }

func (h *Hash32) Get(key uint32) (*Node, bool) {
	v, ok := h.m[key]
	return v, ok
}

func (h *Hash32) Len() int { return len(h.m) }

func (h *Hash32) Keys() []uint32 {
	keys := make([]uint32, 0, len(h.m))
	for k := range h.m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Hash64 is a uint64-keyed dictionary (extended mode), sorted ascending by
// key on iteration.
type Hash64 struct {
	m map[uint64]*Node
}

func newHash64() *Hash64 { return &Hash64{m: map[uint64]*Node{}} }

func (h *Hash64) Set(key uint64, v *Node) { h.m[key] = v }

func (h *Hash64) Get(key uint64) (*Node, bool) {
	v, ok := h.m[key]
	return v, ok
}

func (h *Hash64) Len() int { return len(h.m) }

func (h *Hash64) Keys() []uint64 {
	keys := make([]uint64, 0, len(h.m))
	for k := range h.m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
