// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package aamp

import (
	"github.com/nxtoolkit/nxbin/nxerr"
	"github.com/nxtoolkit/nxbin/nxhash"
	"github.com/nxtoolkit/nxbin/valuemodel"
)

// Type is an AAMP parameter-type byte.
type Type byte

// The 21 parameter variants, in the order the reference format assigns
// them.
const (
	TypeBool         Type = 0
	TypeF32          Type = 1
	TypeInt          Type = 2
	TypeVec2         Type = 3
	TypeVec3         Type = 4
	TypeVec4         Type = 5
	TypeColor        Type = 6
	TypeString32     Type = 7
	TypeString64     Type = 8
	TypeCurve1       Type = 9
	TypeCurve2       Type = 10
	TypeCurve3       Type = 11
	TypeCurve4       Type = 12
	TypeBufferInt    Type = 13
	TypeBufferF32    Type = 14
	TypeString256    Type = 15
	TypeQuat         Type = 16
	TypeU32          Type = 17
	TypeBufferU32    Type = 18
	TypeBufferBinary Type = 19
	TypeStringRef    Type = 20
)

func (t Type) String() string {
	names := [...]string{
		"Bool", "F32", "Int", "Vec2", "Vec3", "Vec4", "Color", "String32",
		"String64", "Curve1", "Curve2", "Curve3", "Curve4", "BufferInt",
		"BufferF32", "String256", "Quat", "U32", "BufferU32", "BufferBinary",
		"StringRef",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return "Unknown"
}

// isBuffer reports whether t's payload carries a leading u32 element
// count (spec.md §4.5: "a u32 count at payload_offset − 4").
func (t Type) isBuffer() bool {
	switch t {
	case TypeBufferInt, TypeBufferF32, TypeBufferU32, TypeBufferBinary:
		return true
	}
	return false
}

// Parameter is one leaf value in an AAMP tree.
type Parameter struct {
	typ Type

	b      bool
	f32    float32
	i32    int32
	u32    uint32
	vec2   valuemodel.Vector2f
	vec3   valuemodel.Vector3f
	vec4   valuemodel.Vector4f
	color  valuemodel.Color4f
	quat   valuemodel.Quatf
	str32  valuemodel.FixedSafeString
	str64  valuemodel.FixedSafeString
	str256 valuemodel.FixedSafeString
	curves []valuemodel.Curve
	bufI32 []int32
	bufF32 []float32
	bufU32 []uint32
	bufBin []byte
	str    string
}

func (p *Parameter) Type() Type { return p.typ }

func NewBool(v bool) *Parameter      { return &Parameter{typ: TypeBool, b: v} }
func NewF32(v float32) *Parameter    { return &Parameter{typ: TypeF32, f32: v} }
func NewInt(v int32) *Parameter      { return &Parameter{typ: TypeInt, i32: v} }
func NewU32(v uint32) *Parameter     { return &Parameter{typ: TypeU32, u32: v} }
func NewVec2(v valuemodel.Vector2f) *Parameter  { return &Parameter{typ: TypeVec2, vec2: v} }
func NewVec3(v valuemodel.Vector3f) *Parameter  { return &Parameter{typ: TypeVec3, vec3: v} }
func NewVec4(v valuemodel.Vector4f) *Parameter  { return &Parameter{typ: TypeVec4, vec4: v} }
func NewColor(v valuemodel.Color4f) *Parameter  { return &Parameter{typ: TypeColor, color: v} }
func NewQuat(v valuemodel.Quatf) *Parameter     { return &Parameter{typ: TypeQuat, quat: v} }
func NewStringRef(s string) *Parameter          { return &Parameter{typ: TypeStringRef, str: s} }

func NewString32(s string) *Parameter {
	return &Parameter{typ: TypeString32, str32: valuemodel.NewFixedSafeString(valuemodel.String32Capacity, s)}
}

func NewString64(s string) *Parameter {
	return &Parameter{typ: TypeString64, str64: valuemodel.NewFixedSafeString(valuemodel.String64Capacity, s)}
}

func NewString256(s string) *Parameter {
	return &Parameter{typ: TypeString256, str256: valuemodel.NewFixedSafeString(valuemodel.String256Capacity, s)}
}

// NewCurve returns a CurveN parameter, N = len(curves) ∈ {1,2,3,4}.
func NewCurve(curves ...valuemodel.Curve) (*Parameter, error) {
	var t Type
	switch len(curves) {
	case 1:
		t = TypeCurve1
	case 2:
		t = TypeCurve2
	case 3:
		t = TypeCurve3
	case 4:
		t = TypeCurve4
	default:
		return nil, nxerr.NewInvalidData("aamp curve parameter must have 1-4 curves, got %d", len(curves))
	}
	return &Parameter{typ: t, curves: curves}, nil
}

func NewBufferInt(v []int32) *Parameter   { return &Parameter{typ: TypeBufferInt, bufI32: v} }
func NewBufferF32(v []float32) *Parameter { return &Parameter{typ: TypeBufferF32, bufF32: v} }
func NewBufferU32(v []uint32) *Parameter  { return &Parameter{typ: TypeBufferU32, bufU32: v} }
func NewBufferBinary(v []byte) *Parameter { return &Parameter{typ: TypeBufferBinary, bufBin: v} }

func typeErr(want, got Type) error { return nxerr.NewTypeError(want.String(), got.String()) }

func (p *Parameter) AsBool() (bool, error) {
	if p.typ != TypeBool {
		return false, typeErr(TypeBool, p.typ)
	}
	return p.b, nil
}

func (p *Parameter) AsF32() (float32, error) {
	if p.typ != TypeF32 {
		return 0, typeErr(TypeF32, p.typ)
	}
	return p.f32, nil
}

func (p *Parameter) AsInt() (int32, error) {
	if p.typ != TypeInt {
		return 0, typeErr(TypeInt, p.typ)
	}
	return p.i32, nil
}

func (p *Parameter) AsU32() (uint32, error) {
	if p.typ != TypeU32 {
		return 0, typeErr(TypeU32, p.typ)
	}
	return p.u32, nil
}

func (p *Parameter) AsVec2() (valuemodel.Vector2f, error) {
	if p.typ != TypeVec2 {
		return valuemodel.Vector2f{}, typeErr(TypeVec2, p.typ)
	}
	return p.vec2, nil
}

func (p *Parameter) AsVec3() (valuemodel.Vector3f, error) {
	if p.typ != TypeVec3 {
		return valuemodel.Vector3f{}, typeErr(TypeVec3, p.typ)
	}
	return p.vec3, nil
}

func (p *Parameter) AsVec4() (valuemodel.Vector4f, error) {
	if p.typ != TypeVec4 {
		return valuemodel.Vector4f{}, typeErr(TypeVec4, p.typ)
	}
	return p.vec4, nil
}

func (p *Parameter) AsColor() (valuemodel.Color4f, error) {
	if p.typ != TypeColor {
		return valuemodel.Color4f{}, typeErr(TypeColor, p.typ)
	}
	return p.color, nil
}

func (p *Parameter) AsQuat() (valuemodel.Quatf, error) {
	if p.typ != TypeQuat {
		return valuemodel.Quatf{}, typeErr(TypeQuat, p.typ)
	}
	return p.quat, nil
}

func (p *Parameter) AsString32() (string, error) {
	if p.typ != TypeString32 {
		return "", typeErr(TypeString32, p.typ)
	}
	return p.str32.String(), nil
}

func (p *Parameter) AsString64() (string, error) {
	if p.typ != TypeString64 {
		return "", typeErr(TypeString64, p.typ)
	}
	return p.str64.String(), nil
}

func (p *Parameter) AsString256() (string, error) {
	if p.typ != TypeString256 {
		return "", typeErr(TypeString256, p.typ)
	}
	return p.str256.String(), nil
}

func (p *Parameter) AsStringRef() (string, error) {
	if p.typ != TypeStringRef {
		return "", typeErr(TypeStringRef, p.typ)
	}
	return p.str, nil
}

func (p *Parameter) AsCurves() ([]valuemodel.Curve, error) {
	switch p.typ {
	case TypeCurve1, TypeCurve2, TypeCurve3, TypeCurve4:
		return p.curves, nil
	}
	return nil, typeErr(TypeCurve1, p.typ)
}

func (p *Parameter) AsBufferInt() ([]int32, error) {
	if p.typ != TypeBufferInt {
		return nil, typeErr(TypeBufferInt, p.typ)
	}
	return p.bufI32, nil
}

func (p *Parameter) AsBufferF32() ([]float32, error) {
	if p.typ != TypeBufferF32 {
		return nil, typeErr(TypeBufferF32, p.typ)
	}
	return p.bufF32, nil
}

func (p *Parameter) AsBufferU32() ([]uint32, error) {
	if p.typ != TypeBufferU32 {
		return nil, typeErr(TypeBufferU32, p.typ)
	}
	return p.bufU32, nil
}

func (p *Parameter) AsBufferBinary() ([]byte, error) {
	if p.typ != TypeBufferBinary {
		return nil, typeErr(TypeBufferBinary, p.typ)
	}
	return p.bufBin, nil
}

// paramEntry is one named slot in a ParameterObject, keyed by the CRC32
// of its declared name. Name may be empty if the document was parsed
// from bytes without a NameTable that could recover it.
type paramEntry struct {
	hash  uint32
	name  string
	value *Parameter
}

// ParameterObject is an insertion-ordered, name_crc32-keyed collection of
// Parameters (spec.md §5's "Ordered maps" note: "implement as either a
// vector-of-pairs with a side index").
type ParameterObject struct {
	order   []uint32
	entries map[uint32]*paramEntry
}

func NewParameterObject() *ParameterObject {
	return &ParameterObject{entries: map[uint32]*paramEntry{}}
}

// Set inserts or replaces the parameter named name.
func (o *ParameterObject) Set(name string, v *Parameter) {
	o.SetHash(nxhash.CRC32(name), v)
	o.entries[nxhash.CRC32(name)].name = name
}

// SetHash inserts or replaces the parameter keyed by a raw name hash
// (used when the name itself isn't known, only its CRC32).
func (o *ParameterObject) SetHash(hash uint32, v *Parameter) {
	if e, ok := o.entries[hash]; ok {
		e.value = v
		return
	}
	e := &paramEntry{hash: hash, value: v}
	o.entries[hash] = e
	o.order = append(o.order, hash)
}

func (o *ParameterObject) Get(name string) (*Parameter, bool) {
	return o.GetHash(nxhash.CRC32(name))
}

func (o *ParameterObject) GetHash(hash uint32) (*Parameter, bool) {
	e, ok := o.entries[hash]
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (o *ParameterObject) Len() int { return len(o.order) }

// Entry is one (hash, optional name, value) triple, returned in
// insertion order.
type Entry struct {
	Hash  uint32
	Name  string
	Value *Parameter
}

func (o *ParameterObject) Entries() []Entry {
	out := make([]Entry, len(o.order))
	for i, h := range o.order {
		e := o.entries[h]
		out[i] = Entry{Hash: e.hash, Name: e.name, Value: e.value}
	}
	return out
}

type objectEntry struct {
	hash  uint32
	name  string
	value *ParameterObject
}

type listEntry struct {
	hash  uint32
	name  string
	value *ParameterList
}

// ParameterList is an insertion-ordered tree node: a name_crc32-keyed
// collection of child lists and a name_crc32-keyed collection of objects.
type ParameterList struct {
	listOrder []uint32
	lists     map[uint32]*listEntry

	objOrder []uint32
	objs     map[uint32]*objectEntry
}

func NewParameterList() *ParameterList {
	return &ParameterList{lists: map[uint32]*listEntry{}, objs: map[uint32]*objectEntry{}}
}

func (l *ParameterList) SetList(name string, v *ParameterList) {
	l.SetListHash(nxhash.CRC32(name), v)
	l.lists[nxhash.CRC32(name)].name = name
}

func (l *ParameterList) SetListHash(hash uint32, v *ParameterList) {
	if e, ok := l.lists[hash]; ok {
		e.value = v
		return
	}
	e := &listEntry{hash: hash, value: v}
	l.lists[hash] = e
	l.listOrder = append(l.listOrder, hash)
}

func (l *ParameterList) GetList(name string) (*ParameterList, bool) {
	return l.GetListHash(nxhash.CRC32(name))
}

func (l *ParameterList) GetListHash(hash uint32) (*ParameterList, bool) {
	e, ok := l.lists[hash]
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (l *ParameterList) SetObject(name string, v *ParameterObject) {
	l.SetObjectHash(nxhash.CRC32(name), v)
	l.objs[nxhash.CRC32(name)].name = name
}

func (l *ParameterList) SetObjectHash(hash uint32, v *ParameterObject) {
	if e, ok := l.objs[hash]; ok {
		e.value = v
		return
	}
	e := &objectEntry{hash: hash, value: v}
	l.objs[hash] = e
	l.objOrder = append(l.objOrder, hash)
}

func (l *ParameterList) GetObject(name string) (*ParameterObject, bool) {
	return l.GetObjectHash(nxhash.CRC32(name))
}

func (l *ParameterList) GetObjectHash(hash uint32) (*ParameterObject, bool) {
	e, ok := l.objs[hash]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// ListEntry and ObjectEntry mirror Entry for ParameterList's two
// insertion-ordered collections.
type ListEntry struct {
	Hash  uint32
	Name  string
	Value *ParameterList
}

type ObjectEntry struct {
	Hash  uint32
	Name  string
	Value *ParameterObject
}

func (l *ParameterList) Lists() []ListEntry {
	out := make([]ListEntry, len(l.listOrder))
	for i, h := range l.listOrder {
		e := l.lists[h]
		out[i] = ListEntry{Hash: e.hash, Name: e.name, Value: e.value}
	}
	return out
}

func (l *ParameterList) Objects() []ObjectEntry {
	out := make([]ObjectEntry, len(l.objOrder))
	for i, h := range l.objOrder {
		e := l.objs[h]
		out[i] = ObjectEntry{Hash: e.hash, Name: e.name, Value: e.value}
	}
	return out
}

// ParameterIO is a complete AAMP document: a data version (the format
// version is always 2 and is not stored here), a declared type string (conventionally "xml"), and the param_root list.
type ParameterIO struct {
	Version     uint32
	Type        string
	RootList    *ParameterList
}

func NewParameterIO() *ParameterIO {
	return &ParameterIO{Version: 0, Type: "xml", RootList: NewParameterList()}
}
