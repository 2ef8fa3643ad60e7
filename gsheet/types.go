// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package gsheet implements Grezzo datasheets ("gsht" resources), the
// fifth sibling format alongside yaz0/sarc/byml/aamp in original_source.
// A datasheet pairs a schema (a tree of typed Fields) with a flat table
// of Rows built from that schema, laid out as a pointer-linked binary
// blob rather than AAMP's/BYML's offset-table-plus-section layout.
package gsheet

import "github.com/nxtoolkit/nxbin/nxerr"

// FieldType is the scalar kind a Field holds, per gsheet.h's Field::Type.
type FieldType uint8

const (
	FieldStruct FieldType = 0
	FieldBool   FieldType = 1
	FieldInt    FieldType = 2
	FieldFloat  FieldType = 3
	FieldString FieldType = 4
)

func (t FieldType) String() string {
	switch t {
	case FieldStruct:
		return "struct"
	case FieldBool:
		return "bool"
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	case FieldString:
		return "string"
	default:
		return "unknown"
	}
}

// FieldFlag is a bitmask over a Field's modifiers, per gsheet.h's
// Field::Flag.
type FieldFlag uint16

const (
	FlagNullable FieldFlag = 1 << 0
	FlagArray    FieldFlag = 1 << 1
	FlagKey      FieldFlag = 1 << 2
	FlagEnum     FieldFlag = 1 << 4
)

// Field describes one entry of a datasheet's schema: its name, declared
// type, and (for Struct fields) its own sub-schema. OffsetInValue,
// InlineSize, and DataSize are normally left zero by callers and filled
// in by LayoutFields before serialization; Parse fills them in from the
// binary instead.
type Field struct {
	Name     string
	TypeName string
	Type     FieldType
	Depth    uint8
	Flags    FieldFlag

	OffsetInValue uint16
	InlineSize    uint16
	DataSize      uint16

	SubFields []*Field
}

// IsArray reports whether the field holds a variable-length sequence of
// its base type rather than a single value.
func (f *Field) IsArray() bool { return f.Flags&FlagArray != 0 }

// IsNullable reports whether the field may be absent.
func (f *Field) IsNullable() bool { return f.Flags&FlagNullable != 0 }

// IsKey reports whether this root field is the sheet's lookup key.
func (f *Field) IsKey() bool { return f.Flags&FlagKey != 0 }

// Row is one value of a datasheet, keyed by field name in insertion
// order. Unlike AAMP's CRC32-keyed containers, gsheet fields carry their
// names directly in the binary, so Row keys on the plain string.
type Row struct {
	order  []string
	values map[string]Value
}

// NewRow returns an empty Row.
func NewRow() *Row {
	return &Row{values: map[string]Value{}}
}

// Set assigns v to name, appending name to the iteration order on first
// use.
func (r *Row) Set(name string, v Value) {
	if _, ok := r.values[name]; !ok {
		r.order = append(r.order, name)
	}
	r.values[name] = v
}

// Get returns the value stored for name, or the zero Value and false if
// absent.
func (r *Row) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Names returns the fields set on r, in insertion order.
func (r *Row) Names() []string { return r.order }

// Value is a tagged union over a single Field's worth of data: one of
// the four scalar kinds, a nested Row (FieldStruct), any of those as a
// slice (an array field), or null (an absent nullable field).
type Value struct {
	null  bool
	array bool
	typ   FieldType

	b bool
	i int32
	f float32
	s string
	r *Row

	bArr []bool
	iArr []int32
	fArr []float32
	sArr []string
	rArr []*Row
}

// NewNull returns an absent value of the given scalar kind, for a
// nullable field.
func NewNull(t FieldType) Value { return Value{null: true, typ: t} }

// NewBool wraps a bool value.
func NewBool(v bool) Value { return Value{typ: FieldBool, b: v} }

// NewInt wraps an int32 value.
func NewInt(v int32) Value { return Value{typ: FieldInt, i: v} }

// NewFloat wraps a float32 value.
func NewFloat(v float32) Value { return Value{typ: FieldFloat, f: v} }

// NewString wraps a string value.
func NewString(v string) Value { return Value{typ: FieldString, s: v} }

// NewStruct wraps a nested Row value.
func NewStruct(v *Row) Value { return Value{typ: FieldStruct, r: v} }

// NewBoolArray wraps a []bool value.
func NewBoolArray(v []bool) Value { return Value{typ: FieldBool, array: true, bArr: v} }

// NewIntArray wraps a []int32 value.
func NewIntArray(v []int32) Value { return Value{typ: FieldInt, array: true, iArr: v} }

// NewFloatArray wraps a []float32 value.
func NewFloatArray(v []float32) Value { return Value{typ: FieldFloat, array: true, fArr: v} }

// NewStringArray wraps a []string value.
func NewStringArray(v []string) Value { return Value{typ: FieldString, array: true, sArr: v} }

// NewStructArray wraps a []*Row value.
func NewStructArray(v []*Row) Value { return Value{typ: FieldStruct, array: true, rArr: v} }

// IsNull reports whether v is an absent nullable value.
func (v Value) IsNull() bool { return v.null }

// Type reports v's scalar kind.
func (v Value) Type() FieldType { return v.typ }

// IsArray reports whether v holds a slice rather than a single value.
func (v Value) IsArray() bool { return v.array }

func typeErr(want FieldType, v Value) error {
	return nxerr.NewTypeError(want.String(), v.typ.String())
}

// AsBool returns v's bool payload.
func (v Value) AsBool() (bool, error) {
	if v.typ != FieldBool || v.array {
		return false, typeErr(FieldBool, v)
	}
	return v.b, nil
}

// AsInt returns v's int32 payload.
func (v Value) AsInt() (int32, error) {
	if v.typ != FieldInt || v.array {
		return 0, typeErr(FieldInt, v)
	}
	return v.i, nil
}

// AsFloat returns v's float32 payload.
func (v Value) AsFloat() (float32, error) {
	if v.typ != FieldFloat || v.array {
		return 0, typeErr(FieldFloat, v)
	}
	return v.f, nil
}

// AsString returns v's string payload.
func (v Value) AsString() (string, error) {
	if v.typ != FieldString || v.array {
		return "", typeErr(FieldString, v)
	}
	return v.s, nil
}

// AsStruct returns v's nested Row payload.
func (v Value) AsStruct() (*Row, error) {
	if v.typ != FieldStruct || v.array {
		return nil, typeErr(FieldStruct, v)
	}
	return v.r, nil
}

// AsBoolArray returns v's []bool payload.
func (v Value) AsBoolArray() ([]bool, error) {
	if v.typ != FieldBool || !v.array {
		return nil, typeErr(FieldBool, v)
	}
	return v.bArr, nil
}

// AsIntArray returns v's []int32 payload.
func (v Value) AsIntArray() ([]int32, error) {
	if v.typ != FieldInt || !v.array {
		return nil, typeErr(FieldInt, v)
	}
	return v.iArr, nil
}

// AsFloatArray returns v's []float32 payload.
func (v Value) AsFloatArray() ([]float32, error) {
	if v.typ != FieldFloat || !v.array {
		return nil, typeErr(FieldFloat, v)
	}
	return v.fArr, nil
}

// AsStringArray returns v's []string payload.
func (v Value) AsStringArray() ([]string, error) {
	if v.typ != FieldString || !v.array {
		return nil, typeErr(FieldString, v)
	}
	return v.sArr, nil
}

// AsStructArray returns v's []*Row payload.
func (v Value) AsStructArray() ([]*Row, error) {
	if v.typ != FieldStruct || !v.array {
		return nil, typeErr(FieldStruct, v)
	}
	return v.rArr, nil
}

func (v Value) arrayLen() int {
	switch v.typ {
	case FieldBool:
		return len(v.bArr)
	case FieldInt:
		return len(v.iArr)
	case FieldFloat:
		return len(v.fArr)
	case FieldString:
		return len(v.sArr)
	case FieldStruct:
		return len(v.rArr)
	default:
		return 0
	}
}

// Sheet is a full Grezzo datasheet: a named, hashed schema (RootFields)
// plus the Rows conforming to it.
type Sheet struct {
	Alignment  uint8
	Hash       uint32
	Name       string
	RootFields []*Field
	Rows       []*Row
}

// NewSheet returns an empty Sheet with the default 8-byte alignment
// gsheet.h's ResHeader declares.
func NewSheet() *Sheet {
	return &Sheet{Alignment: 8}
}

// KeyField returns the root field flagged IsKey, or nil if none is set.
func (s *Sheet) KeyField() *Field {
	for _, f := range s.RootFields {
		if f.IsKey() {
			return f
		}
	}
	return nil
}

// RowByIntKey returns the row whose key field (which must be a
// FieldInt) equals k.
func (s *Sheet) RowByIntKey(k int32) (*Row, bool) {
	kf := s.KeyField()
	if kf == nil || kf.Type != FieldInt {
		return nil, false
	}
	for _, row := range s.Rows {
		v, ok := row.Get(kf.Name)
		if !ok {
			continue
		}
		if i, err := v.AsInt(); err == nil && i == k {
			return row, true
		}
	}
	return nil, false
}

// RowByStringKey returns the row whose key field (which must be a
// FieldString) equals k.
func (s *Sheet) RowByStringKey(k string) (*Row, bool) {
	kf := s.KeyField()
	if kf == nil || kf.Type != FieldString {
		return nil, false
	}
	for _, row := range s.Rows {
		v, ok := row.Get(kf.Name)
		if !ok {
			continue
		}
		if str, err := v.AsString(); err == nil && str == k {
			return row, true
		}
	}
	return nil, false
}
