// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package gsheet

// headerSize, fieldRecordSize mirror gsheet.h's static_assert(sizeof(...)
// == 0x30): ResHeader and ResField are each 48 bytes on a 64-bit build
// with 8-byte pointers. This module represents every "pointer" as an
// absolute byte offset from the start of the serialized buffer (0 meaning
// null) rather than a real address, since Go values have no stable
// address across a round-trip; see DESIGN.md for why this, and not a
// byte-exact replica of oead's object-registration write order, is this
// package's binary contract.
const (
	headerSize      = 0x30
	fieldRecordSize = 0x30

	stringArrayElemSize = 16 // {ptr u64, size u32, pad u32}, matching gsheet.h's String.
)

var gsheetMagic = [4]byte{'g', 's', 'h', 't'}

func alignUp(n int, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

// fieldAlign returns the natural alignment of a field's inline slot.
func fieldAlign(f *Field) int {
	switch {
	case f.IsArray(), f.Type == FieldString, f.IsNullable():
		return 8 // array/string inline slots, and nullable pointer slots, are 8 bytes wide
	case f.Type == FieldBool:
		return 1
	default:
		return 4
	}
}

// LayoutFields assigns OffsetInValue, InlineSize, and DataSize to every
// field in fields (recursing into struct sub-fields), following the
// rules gsheet.cpp's GetValueSize/GetNumFields helpers describe: arrays
// and strings always reserve a 16-byte inline slot (pointer, count/size,
// padding); non-array nullable fields reserve an 8-byte pointer; plain
// inline fields (bool/int/float/non-nullable struct) reserve exactly
// their natural size. It returns the total, alignment-padded stride of
// one row built from fields.
func LayoutFields(fields []*Field, alignment uint8) uint16 {
	cursor := 0
	for _, f := range fields {
		// naturalSize is a single value's size ignoring the array/nullable
		// wrapper: a nested struct's own stride, or the scalar's width.
		var naturalSize int
		switch f.Type {
		case FieldStruct:
			naturalSize = int(LayoutFields(f.SubFields, alignment))
		case FieldBool:
			naturalSize = 1
		case FieldInt, FieldFloat:
			naturalSize = 4
		case FieldString:
			naturalSize = stringArrayElemSize
		}

		var inlineSize, dataSize int
		switch {
		case f.IsArray():
			inlineSize = stringArrayElemSize // {ptr, count, pad}
			if f.Type == FieldBool || f.Type == FieldInt || f.Type == FieldFloat {
				dataSize = 4 // uniform 4-byte element stride for scalar arrays
			} else {
				dataSize = naturalSize // struct: nested stride; string: 16-byte String record
			}
		case f.Type == FieldString:
			inlineSize, dataSize = stringArrayElemSize, stringArrayElemSize
		case f.IsNullable():
			inlineSize, dataSize = 8, naturalSize
		default:
			inlineSize, dataSize = naturalSize, naturalSize
		}

		align := fieldAlign(f)
		offset := alignUp(cursor, align)
		f.OffsetInValue = uint16(offset)
		f.InlineSize = uint16(inlineSize)
		f.DataSize = uint16(dataSize)
		cursor = offset + inlineSize
	}
	return uint16(alignUp(cursor, int(alignment)))
}

// CountFields returns the total number of fields in the tree rooted at
// fields, including nested struct sub-fields, matching gsheet.cpp's
// GetNumFields.
func CountFields(fields []*Field) int {
	n := 0
	for _, f := range fields {
		n++
		n += CountFields(f.SubFields)
	}
	return n
}
