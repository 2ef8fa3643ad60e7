// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package gsheet

import (
	"go.chromium.org/luci/common/errors"

	"github.com/nxtoolkit/nxbin/binaryio"
	"github.com/nxtoolkit/nxbin/nxerr"
)

// Parse decodes a datasheet produced by Serialize.
func Parse(buf []byte) (*Sheet, error) {
	if len(buf) < headerSize {
		return nil, nxerr.NewInvalidData("gsheet buffer too short for header: %d bytes", len(buf))
	}
	if string(buf[:4]) != string(gsheetMagic[:]) {
		return nil, nxerr.NewInvalidData("bad gsheet magic %q", buf[:4])
	}

	r := binaryio.NewReader(buf, binaryio.LittleEndian)
	d := &decoder{r: r}

	if err := r.Seek(4); err != nil {
		return nil, err
	}
	version, err := r.ReadI32()
	if err != nil {
		return nil, errors.Annotate(err, "reading version").Err()
	}
	if version != 1 {
		return nil, nxerr.NewInvalidData("unsupported gsheet version %d (want 1)", version)
	}
	hash, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if _, err := r.ReadU8(); err != nil { // bool_size
		return nil, err
	}
	if _, err := r.ReadU8(); err != nil { // pointer_size
		return nil, err
	}
	alignment, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	if _, err := r.ReadU8(); err != nil { // padding
		return nil, err
	}
	nameOff, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	numRootFields, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if _, err := r.ReadU32(); err != nil { // num_fields (total); recomputed on re-serialize
		return nil, err
	}
	valuesOff, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	numValues, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	valueSize, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	name, err := d.readCStringAt(int(nameOff))
	if err != nil {
		return nil, errors.Annotate(err, "reading sheet name").Err()
	}

	rootFields := make([]*Field, numRootFields)
	for i := range rootFields {
		f, err := d.readFieldNode(headerSize + i*fieldRecordSize)
		if err != nil {
			return nil, errors.Annotate(err, "reading root field %d", i).Err()
		}
		rootFields[i] = f
	}

	rows := make([]*Row, numValues)
	for i := range rows {
		base := int(valuesOff) + i*int(valueSize)
		row, err := d.readRow(rootFields, base)
		if err != nil {
			return nil, errors.Annotate(err, "reading row %d", i).Err()
		}
		rows[i] = row
	}

	return &Sheet{
		Alignment:  alignment,
		Hash:       hash,
		Name:       name,
		RootFields: rootFields,
		Rows:       rows,
	}, nil
}

type decoder struct {
	r *binaryio.Reader
}

func (d *decoder) readCStringAt(off int) (string, error) {
	if off == 0 {
		return "", nil
	}
	if err := d.r.Seek(off); err != nil {
		return "", err
	}
	return d.r.ReadCString(-1)
}

func (d *decoder) readFieldNode(addr int) (*Field, error) {
	if err := d.r.Seek(addr); err != nil {
		return nil, err
	}
	nameOff, err := d.r.ReadU64()
	if err != nil {
		return nil, err
	}
	typeNameOff, err := d.r.ReadU64()
	if err != nil {
		return nil, err
	}
	typ, err := d.r.ReadU8()
	if err != nil {
		return nil, err
	}
	depth, err := d.r.ReadU8()
	if err != nil {
		return nil, err
	}
	flags, err := d.r.ReadU16()
	if err != nil {
		return nil, err
	}
	offsetInValue, err := d.r.ReadU16()
	if err != nil {
		return nil, err
	}
	inlineSize, err := d.r.ReadU16()
	if err != nil {
		return nil, err
	}
	dataSize, err := d.r.ReadU16()
	if err != nil {
		return nil, err
	}
	numSubFields, err := d.r.ReadU16()
	if err != nil {
		return nil, err
	}
	if _, err := d.r.ReadU32(); err != nil { // padding
		return nil, err
	}
	childAddr, err := d.r.ReadU64()
	if err != nil {
		return nil, err
	}
	if _, err := d.r.ReadU64(); err != nil { // parent sentinel, not reconstructed
		return nil, err
	}

	name, err := d.readCStringAt(int(nameOff))
	if err != nil {
		return nil, errors.Annotate(err, "reading field name").Err()
	}
	typeName, err := d.readCStringAt(int(typeNameOff))
	if err != nil {
		return nil, errors.Annotate(err, "reading field type name").Err()
	}

	f := &Field{
		Name:          name,
		TypeName:      typeName,
		Type:          FieldType(typ),
		Depth:         depth,
		Flags:         FieldFlag(flags),
		OffsetInValue: offsetInValue,
		InlineSize:    inlineSize,
		DataSize:      dataSize,
	}

	if numSubFields > 0 {
		if childAddr == 0 {
			return nil, nxerr.NewInvalidData("field %q declares %d sub-fields but has no fields pointer", name, numSubFields)
		}
		f.SubFields = make([]*Field, numSubFields)
		for i := range f.SubFields {
			sub, err := d.readFieldNode(int(childAddr) + i*fieldRecordSize)
			if err != nil {
				return nil, err
			}
			f.SubFields[i] = sub
		}
	}

	return f, nil
}

func (d *decoder) readRow(fields []*Field, base int) (*Row, error) {
	row := NewRow()
	for _, f := range fields {
		val, err := d.readFieldValue(f, base+int(f.OffsetInValue))
		if err != nil {
			return nil, errors.Annotate(err, "reading field %q", f.Name).Err()
		}
		row.Set(f.Name, val)
	}
	return row, nil
}

func (d *decoder) readFieldValue(f *Field, pos int) (Value, error) {
	switch {
	case f.IsArray():
		return d.readArrayValue(f, pos)
	case f.Type == FieldString:
		return d.readStringValue(f, pos)
	case f.IsNullable():
		if err := d.r.Seek(pos); err != nil {
			return Value{}, err
		}
		ptr, err := d.r.ReadU64()
		if err != nil {
			return Value{}, err
		}
		if ptr == 0 {
			return NewNull(f.Type), nil
		}
		return d.readScalarOrStruct(f, int(ptr))
	default:
		return d.readScalarOrStruct(f, pos)
	}
}

func (d *decoder) readScalarOrStruct(f *Field, pos int) (Value, error) {
	switch f.Type {
	case FieldStruct:
		row, err := d.readRow(f.SubFields, pos)
		if err != nil {
			return Value{}, err
		}
		return NewStruct(row), nil
	case FieldBool:
		if err := d.r.Seek(pos); err != nil {
			return Value{}, err
		}
		b, err := d.r.ReadBool()
		return NewBool(b), err
	case FieldInt:
		if err := d.r.Seek(pos); err != nil {
			return Value{}, err
		}
		v, err := d.r.ReadI32()
		return NewInt(v), err
	case FieldFloat:
		if err := d.r.Seek(pos); err != nil {
			return Value{}, err
		}
		v, err := d.r.ReadF32()
		return NewFloat(v), err
	default:
		return Value{}, nxerr.NewInvalidData("unknown field type %d", f.Type)
	}
}

func (d *decoder) readStringValue(f *Field, pos int) (Value, error) {
	if err := d.r.Seek(pos); err != nil {
		return Value{}, err
	}
	ptr, err := d.r.ReadU64()
	if err != nil {
		return Value{}, err
	}
	size, err := d.r.ReadU32()
	if err != nil {
		return Value{}, err
	}
	if ptr == 0 {
		if f.IsNullable() {
			return NewNull(FieldString), nil
		}
		return NewString(""), nil
	}
	s, err := d.readFixedString(int(ptr), int(size))
	if err != nil {
		return Value{}, err
	}
	return NewString(s), nil
}

func (d *decoder) readFixedString(off, size int) (string, error) {
	if err := d.r.Seek(off); err != nil {
		return "", err
	}
	b, err := d.r.ReadBytes(size)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) readArrayValue(f *Field, pos int) (Value, error) {
	if err := d.r.Seek(pos); err != nil {
		return Value{}, err
	}
	ptr, err := d.r.ReadU64()
	if err != nil {
		return Value{}, err
	}
	count, err := d.r.ReadU32()
	if err != nil {
		return Value{}, err
	}
	if ptr == 0 || count == 0 {
		return emptyArray(f.Type), nil
	}
	stride := int(f.DataSize)
	base := int(ptr)

	switch f.Type {
	case FieldStruct:
		rows := make([]*Row, count)
		for i := range rows {
			row, err := d.readRow(f.SubFields, base+i*stride)
			if err != nil {
				return Value{}, err
			}
			rows[i] = row
		}
		return NewStructArray(rows), nil
	case FieldString:
		strs := make([]string, count)
		for i := range strs {
			elemBase := base + i*stride
			if err := d.r.Seek(elemBase); err != nil {
				return Value{}, err
			}
			sOff, err := d.r.ReadU64()
			if err != nil {
				return Value{}, err
			}
			sLen, err := d.r.ReadU32()
			if err != nil {
				return Value{}, err
			}
			s, err := d.readFixedString(int(sOff), int(sLen))
			if err != nil {
				return Value{}, err
			}
			strs[i] = s
		}
		return NewStringArray(strs), nil
	case FieldBool:
		bs := make([]bool, count)
		for i := range bs {
			if err := d.r.Seek(base + i*stride); err != nil {
				return Value{}, err
			}
			b, err := d.r.ReadBool()
			if err != nil {
				return Value{}, err
			}
			bs[i] = b
		}
		return NewBoolArray(bs), nil
	case FieldInt:
		is := make([]int32, count)
		for i := range is {
			if err := d.r.Seek(base + i*stride); err != nil {
				return Value{}, err
			}
			v, err := d.r.ReadI32()
			if err != nil {
				return Value{}, err
			}
			is[i] = v
		}
		return NewIntArray(is), nil
	case FieldFloat:
		fs := make([]float32, count)
		for i := range fs {
			if err := d.r.Seek(base + i*stride); err != nil {
				return Value{}, err
			}
			v, err := d.r.ReadF32()
			if err != nil {
				return Value{}, err
			}
			fs[i] = v
		}
		return NewFloatArray(fs), nil
	default:
		return Value{}, nxerr.NewInvalidData("unknown array field type %d", f.Type)
	}
}

func emptyArray(t FieldType) Value {
	switch t {
	case FieldStruct:
		return NewStructArray(nil)
	case FieldBool:
		return NewBoolArray(nil)
	case FieldInt:
		return NewIntArray(nil)
	case FieldFloat:
		return NewFloatArray(nil)
	case FieldString:
		return NewStringArray(nil)
	default:
		return Value{array: true, typ: t}
	}
}
