// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package byml

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.chromium.org/luci/common/data/stringset"

	"github.com/nxtoolkit/nxbin/binaryio"
	"github.com/nxtoolkit/nxbin/nxerr"
)

// Serialize encodes root as a BYML document of the given version and byte
// order. Non-container, non-null roots are rejected per spec.md §4.4 ("the
// root node is Null or a container").
//
// Write order is a bottom-up depth-first traversal (children emitted
// before the parent that references them) rather than the top-down,
// patch-the-parent-after-the-fact order the format's own writer uses;
// both produce a byte-valid document with the same logical tree, and
// P5 (BYML binary round-trip) only requires the parsed result to match,
// not reference byte-for-byte layout.
func Serialize(root *Node, order binaryio.Order, version uint16) ([]byte, error) {
	if root.typ != TypeNull && !root.typ.isContainer() {
		return nil, nxerr.NewInvalidData("byml root node has non-container type %v", root.typ)
	}

	strs := stringset.New(0)
	keys := stringset.New(0)
	collect(root, strs, keys)

	sortedStrs := sortedSlice(strs)
	sortedKeys := sortedSlice(keys)

	e := &encoder{
		keyIndex: indexOf(sortedKeys),
		strIndex: indexOf(sortedStrs),
		dedup:    map[string]uint32{},
	}

	bw := binaryio.NewWriter(order)
	e.bw = bw

	bw.WriteBytes(magicFor(order))
	bw.WriteU16(version)
	hashKeyOffsetPatch := bw.Pos()
	bw.WriteU32(0)
	stringOffsetPatch := bw.Pos()
	bw.WriteU32(0)
	rootOffsetPatch := bw.Pos()
	bw.WriteU32(0)

	var hashKeyTableOffset, stringTableOffset uint32
	if len(sortedKeys) > 0 {
		hashKeyTableOffset = uint32(bw.Pos())
		writeStringTable(bw, sortedKeys)
	}
	if len(sortedStrs) > 0 {
		stringTableOffset = uint32(bw.Pos())
		writeStringTable(bw, sortedStrs)
	}

	var rootOffset uint32
	if root.typ != TypeNull {
		var err error
		rootOffset, err = e.writeOutOfLine(root)
		if err != nil {
			return nil, err
		}
	}

	bw.Align(4)
	bw.Patch(hashKeyOffsetPatch, func(w *binaryio.Writer) { w.WriteU32(hashKeyTableOffset) })
	bw.Patch(stringOffsetPatch, func(w *binaryio.Writer) { w.WriteU32(stringTableOffset) })
	bw.Patch(rootOffsetPatch, func(w *binaryio.Writer) { w.WriteU32(rootOffset) })

	return bw.Bytes(), nil
}

func sortedSlice(s stringset.Set) []string {
	out := s.ToSlice()
	sort.Strings(out)
	return out
}

func indexOf(sorted []string) map[string]int {
	m := make(map[string]int, len(sorted))
	for i, s := range sorted {
		m[s] = i
	}
	return m
}

func collect(n *Node, strs, keys stringset.Set) {
	switch n.typ {
	case TypeString:
		strs.Add(n.str)
	case TypeArray:
		for _, c := range n.arr {
			collect(c, strs, keys)
		}
	case TypeHash:
		for _, k := range n.hash.Keys() {
			keys.Add(k)
			v, _ := n.hash.Get(k)
			collect(v, strs, keys)
		}
	case TypeHash32:
		for _, k := range n.hash32.Keys() {
			v, _ := n.hash32.Get(k)
			collect(v, strs, keys)
		}
	case TypeHash64:
		for _, k := range n.hash64.Keys() {
			v, _ := n.hash64.Get(k)
			collect(v, strs, keys)
		}
	}
}

func writeStringTable(bw *binaryio.Writer, strs []string) {
	tableStart := bw.Pos()
	bw.WriteU8(byte(typeStringTable))
	bw.WriteU24(uint32(len(strs)))

	offsetPatchAt := make([]int, len(strs)+1)
	for i := range offsetPatchAt {
		offsetPatchAt[i] = bw.Pos()
		bw.WriteU32(0)
	}
	for i, s := range strs {
		rel := uint32(bw.Pos() - tableStart)
		bw.Patch(offsetPatchAt[i], func(w *binaryio.Writer) { w.WriteU32(rel) })
		bw.WriteCString(s)
	}
	relEnd := uint32(bw.Pos() - tableStart)
	bw.Patch(offsetPatchAt[len(strs)], func(w *binaryio.Writer) { w.WriteU32(relEnd) })
}

// encoder holds the state threaded through the recursive write: the
// assigned string/key table indices and the value→offset dedup index
// spec.md §4.4 calls for.
type encoder struct {
	bw       *binaryio.Writer
	keyIndex map[string]int
	strIndex map[string]int
	dedup    map[string]uint32
}

func (e *encoder) inlinePayload(n *Node) (uint32, error) {
	switch n.typ {
	case TypeString:
		idx, ok := e.strIndex[n.str]
		if !ok {
			return 0, nxerr.NewInvalidData("string %q missing from string table", n.str)
		}
		return uint32(idx), nil
	case TypeBool:
		if n.b {
			return 1, nil
		}
		return 0, nil
	case TypeInt32:
		return uint32(n.i32), nil
	case TypeFloat32:
		return math.Float32bits(n.f32), nil
	case TypeUInt32:
		return n.u32, nil
	case TypeNull:
		return 0, nil
	}
	return 0, nxerr.NewInvalidData("byml type %v is not inline", n.typ)
}

func (e *encoder) writeValue(n *Node) (Type, uint32, error) {
	if n.typ.isInline() {
		p, err := e.inlinePayload(n)
		return n.typ, p, err
	}
	off, err := e.writeOutOfLine(n)
	return n.typ, off, err
}

func (e *encoder) writeOutOfLine(n *Node) (uint32, error) {
	key := canonicalKey(n)
	if off, ok := e.dedup[key]; ok {
		return off, nil
	}

	var offset uint32
	var err error
	switch n.typ {
	case TypeInt64:
		offset = uint32(e.bw.Pos())
		e.bw.WriteU64(uint64(n.i64))
	case TypeUInt64:
		offset = uint32(e.bw.Pos())
		e.bw.WriteU64(n.u64)
	case TypeFloat64:
		offset = uint32(e.bw.Pos())
		e.bw.WriteU64(math.Float64bits(n.f64))
	case TypeBinary:
		offset = uint32(e.bw.Pos())
		e.bw.WriteU32(uint32(len(n.bin)))
		e.bw.WriteBytes(n.bin)
	case TypeFile:
		offset = uint32(e.bw.Pos())
		e.bw.WriteU32(uint32(len(n.file.Data)))
		e.bw.WriteU32(n.file.Alignment)
		e.bw.WriteBytes(n.file.Data)
	case TypeArray:
		offset, err = e.writeArrayBody(n)
	case TypeHash:
		offset, err = e.writeHashBody(n)
	case TypeHash32:
		offset, err = e.writeHash32Body(n)
	case TypeHash64:
		offset, err = e.writeHash64Body(n)
	default:
		return 0, &nxerr.Unsupported{Feature: "serializing byml node type " + n.typ.String()}
	}
	if err != nil {
		return 0, err
	}
	e.dedup[key] = offset
	return offset, nil
}

func (e *encoder) writeArrayBody(n *Node) (uint32, error) {
	types := make([]Type, len(n.arr))
	payloads := make([]uint32, len(n.arr))
	for i, c := range n.arr {
		t, p, err := e.writeValue(c)
		if err != nil {
			return 0, err
		}
		types[i], payloads[i] = t, p
	}

	offset := uint32(e.bw.Pos())
	e.bw.WriteU8(byte(TypeArray))
	if err := e.bw.WriteU24(uint32(len(n.arr))); err != nil {
		return 0, err
	}
	for _, t := range types {
		e.bw.WriteU8(byte(t))
	}
	e.bw.Align(4)
	for _, p := range payloads {
		e.bw.WriteU32(p)
	}
	return offset, nil
}

func (e *encoder) writeHashBody(n *Node) (uint32, error) {
	keys := n.hash.Keys()
	type entry struct {
		keyIdx  uint32
		typ     Type
		payload uint32
	}
	entries := make([]entry, len(keys))
	for i, k := range keys {
		v, _ := n.hash.Get(k)
		t, p, err := e.writeValue(v)
		if err != nil {
			return 0, err
		}
		idx, ok := e.keyIndex[k]
		if !ok {
			return 0, nxerr.NewInvalidData("hash key %q missing from hash key table", k)
		}
		entries[i] = entry{uint32(idx), t, p}
	}

	offset := uint32(e.bw.Pos())
	e.bw.WriteU8(byte(TypeHash))
	if err := e.bw.WriteU24(uint32(len(entries))); err != nil {
		return 0, err
	}
	for _, en := range entries {
		if err := e.bw.WriteU24(en.keyIdx); err != nil {
			return 0, err
		}
		e.bw.WriteU8(byte(en.typ))
		e.bw.WriteU32(en.payload)
	}
	return offset, nil
}

func (e *encoder) writeHash32Body(n *Node) (uint32, error) {
	keys := n.hash32.Keys()
	offset := uint32(e.bw.Pos())
	e.bw.WriteU8(byte(TypeHash32))
	if err := e.bw.WriteU24(uint32(len(keys))); err != nil {
		return 0, err
	}
	for _, k := range keys {
		v, _ := n.hash32.Get(k)
		t, p, err := e.writeValue(v)
		if err != nil {
			return 0, err
		}
		e.bw.WriteU32(k)
		e.bw.WriteU8(byte(t))
		e.bw.WriteU32(p)
	}
	return offset, nil
}

func (e *encoder) writeHash64Body(n *Node) (uint32, error) {
	keys := n.hash64.Keys()
	offset := uint32(e.bw.Pos())
	e.bw.WriteU8(byte(TypeHash64))
	if err := e.bw.WriteU24(uint32(len(keys))); err != nil {
		return 0, err
	}
	for _, k := range keys {
		v, _ := n.hash64.Get(k)
		t, p, err := e.writeValue(v)
		if err != nil {
			return 0, err
		}
		e.bw.WriteU64(k)
		e.bw.WriteU8(byte(t))
		e.bw.WriteU32(p)
	}
	return offset, nil
}

// canonicalKey builds a structural key for the value→offset dedup index,
// recursively encoding containers by their children's own canonical keys
// rather than by identity.
func canonicalKey(n *Node) string {
	var b strings.Builder
	writeCanonicalKey(&b, n)
	return b.String()
}

func writeCanonicalKey(b *strings.Builder, n *Node) {
	fmt.Fprintf(b, "%d:", n.typ)
	switch n.typ {
	case TypeString:
		b.WriteString(n.str)
	case TypeBool:
		fmt.Fprintf(b, "%v", n.b)
	case TypeInt32:
		fmt.Fprintf(b, "%d", n.i32)
	case TypeFloat32:
		fmt.Fprintf(b, "%x", math.Float32bits(n.f32))
	case TypeUInt32:
		fmt.Fprintf(b, "%d", n.u32)
	case TypeInt64:
		fmt.Fprintf(b, "%d", n.i64)
	case TypeUInt64:
		fmt.Fprintf(b, "%d", n.u64)
	case TypeFloat64:
		fmt.Fprintf(b, "%x", math.Float64bits(n.f64))
	case TypeBinary:
		b.Write(n.bin)
	case TypeFile:
		fmt.Fprintf(b, "%d:", n.file.Alignment)
		b.Write(n.file.Data)
	case TypeArray:
		b.WriteByte('[')
		for _, c := range n.arr {
			writeCanonicalKey(b, c)
			b.WriteByte(',')
		}
		b.WriteByte(']')
	case TypeHash:
		b.WriteByte('{')
		for _, k := range n.hash.Keys() {
			v, _ := n.hash.Get(k)
			b.WriteString(k)
			b.WriteByte('=')
			writeCanonicalKey(b, v)
			b.WriteByte(',')
		}
		b.WriteByte('}')
	case TypeHash32:
		b.WriteByte('{')
		for _, k := range n.hash32.Keys() {
			v, _ := n.hash32.Get(k)
			fmt.Fprintf(b, "%d=", k)
			writeCanonicalKey(b, v)
			b.WriteByte(',')
		}
		b.WriteByte('}')
	case TypeHash64:
		b.WriteByte('{')
		for _, k := range n.hash64.Keys() {
			v, _ := n.hash64.Get(k)
			fmt.Fprintf(b, "%d=", k)
			writeCanonicalKey(b, v)
			b.WriteByte(',')
		}
		b.WriteByte('}')
	}
}
