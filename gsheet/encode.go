// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package gsheet

import (
	"go.chromium.org/luci/common/errors"

	"github.com/nxtoolkit/nxbin/binaryio"
)

// pendingWrite is a deferred out-of-line payload: an array, string, or
// nullable field whose content can't be placed until the row block (or
// an enclosing array's element block) it lives in has been fully
// reserved. Processing these breadth-first, one layer at a time, is what
// lets every payload be appended at the writer's current high-water mark
// without ever colliding with an allocation from an earlier layer; see
// gsheet.cpp's RegisterObject/WriteObjectPointers for the equivalent
// two-pass idea in the original, reused here as a single work queue
// instead of a global object registry.
type pendingWrite struct {
	ptrSlot int
	field   *Field
	val     Value
}

// Serialize encodes sheet to its binary form.
func Serialize(sheet *Sheet) ([]byte, error) {
	w := binaryio.NewWriter(binaryio.LittleEndian)
	w.WriteBytes(make([]byte, headerSize))

	if err := writeFieldTree(w, sheet.RootFields); err != nil {
		return nil, errors.Annotate(err, "writing field tree").Err()
	}

	nameOff := writeCString(w, sheet.Name)

	stride := LayoutFields(sheet.RootFields, sheet.Alignment)
	valuesAddr := w.Len()
	w.WriteBytes(make([]byte, int(stride)*len(sheet.Rows)))

	var queue []pendingWrite
	for i, row := range sheet.Rows {
		base := valuesAddr + i*int(stride)
		writeInlineRow(w, sheet.RootFields, base, row, &queue)
	}
	for len(queue) > 0 {
		job := queue[0]
		queue = queue[1:]
		if err := resolvePendingWrite(w, job, &queue); err != nil {
			return nil, errors.Annotate(err, "resolving out-of-line field %q", job.field.Name).Err()
		}
	}

	w.Patch(0, func(w *binaryio.Writer) {
		w.WriteBytes(gsheetMagic[:])
		w.WriteI32(1) // version
		w.WriteU32(sheet.Hash)
		w.WriteU8(1) // bool_size
		w.WriteU8(8) // pointer_size
		w.WriteU8(sheet.Alignment)
		w.WriteU8(0) // padding
		w.WriteU64(uint64(nameOff))
		w.WriteU32(uint32(len(sheet.RootFields)))
		w.WriteU32(uint32(CountFields(sheet.RootFields)))
		w.WriteU64(uint64(valuesAddr))
		w.WriteU32(uint32(len(sheet.Rows)))
		w.WriteU32(uint32(stride))
	})

	return w.Bytes(), nil
}

func writeCString(w *binaryio.Writer, s string) int {
	off := w.Len()
	w.Seek(off)
	w.WriteBytes([]byte(s))
	w.WriteU8(0)
	return off
}

// writeFieldTree lays out fields (and, recursively, their sub-fields) in
// BFS order starting at the writer's current position (expected to be
// headerSize, i.e. immediately after the header, matching gsheet.h's
// "fields begin right after ResHeader" layout) so that each field's
// children occupy one contiguous run — letting a single (first-child
// address, count) pair address an arbitrary number of siblings, the same
// trick aamp's list/object layout relies on.
func writeFieldTree(w *binaryio.Writer, roots []*Field) error {
	type queued struct {
		f    *Field
		addr int
	}
	start := w.Len()
	w.Seek(start)

	var order []*Field
	var addrs []int
	addr := start
	assign := func(fs []*Field) int {
		first := addr
		for _, f := range fs {
			order = append(order, f)
			addrs = append(addrs, addr)
			addr += fieldRecordSize
		}
		return first
	}
	firstChildAddr := make(map[*Field]int)
	var queue []*Field
	assign(roots)
	queue = append(queue, roots...)
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if len(f.SubFields) > 0 {
			firstChildAddr[f] = assign(f.SubFields)
			queue = append(queue, f.SubFields...)
		}
	}

	w.WriteBytes(make([]byte, len(order)*fieldRecordSize))

	type pendingStrings struct {
		nameSlot, typeNameSlot int
		name, typeName         string
	}
	var strs []pendingStrings
	for i, f := range order {
		a := addrs[i]
		childAddr := firstChildAddr[f]
		w.Seek(a + 16)
		w.WriteU8(uint8(f.Type))
		w.WriteU8(f.Depth)
		w.WriteU16(uint16(f.Flags))
		w.WriteU16(f.OffsetInValue)
		w.WriteU16(f.InlineSize)
		w.WriteU16(f.DataSize)
		w.WriteU16(uint16(len(f.SubFields)))
		w.WriteU32(0) // padding
		w.WriteU64(uint64(childAddr))
		w.WriteU64(0xdeadbeefdeadbeef) // parent: placeholder sentinel; Parse skips it
		strs = append(strs, pendingStrings{nameSlot: a, typeNameSlot: a + 8, name: f.Name, typeName: f.TypeName})
	}
	for _, ps := range strs {
		nameOff := writeCString(w, ps.name)
		typeNameOff := writeCString(w, ps.typeName)
		w.Patch(ps.nameSlot, func(w *binaryio.Writer) { w.WriteU64(uint64(nameOff)) })
		w.Patch(ps.typeNameSlot, func(w *binaryio.Writer) { w.WriteU64(uint64(typeNameOff)) })
	}

	return nil
}

func writeInlineRow(w *binaryio.Writer, fields []*Field, base int, row *Row, queue *[]pendingWrite) {
	for _, f := range fields {
		val, ok := row.Get(f.Name)
		if !ok {
			val = NewNull(f.Type)
		}
		writeFieldInline(w, f, base, val, queue)
	}
}

func writeFieldInline(w *binaryio.Writer, f *Field, base int, val Value, queue *[]pendingWrite) {
	pos := base + int(f.OffsetInValue)
	switch {
	case f.IsArray():
		count := 0
		if !val.IsNull() {
			count = val.arrayLen()
		}
		w.Seek(pos + 8)
		w.WriteU32(uint32(count))
		w.WriteU32(0)
		w.Seek(pos)
		w.WriteU64(0)
		if count > 0 {
			*queue = append(*queue, pendingWrite{ptrSlot: pos, field: f, val: val})
		}
	case f.Type == FieldString:
		if val.IsNull() && f.IsNullable() {
			w.Seek(pos)
			w.WriteU64(0)
			w.Seek(pos + 8)
			w.WriteU32(0)
			w.WriteU32(0)
			return
		}
		s, _ := val.AsString()
		w.Seek(pos + 8)
		w.WriteU32(uint32(len(s)))
		w.WriteU32(0)
		w.Seek(pos)
		w.WriteU64(0)
		*queue = append(*queue, pendingWrite{ptrSlot: pos, field: f, val: val})
	case f.IsNullable():
		w.Seek(pos)
		w.WriteU64(0)
		if !val.IsNull() {
			*queue = append(*queue, pendingWrite{ptrSlot: pos, field: f, val: val})
		}
	default:
		writeScalarOrStructInline(w, f, pos, val, queue)
	}
}

func writeScalarOrStructInline(w *binaryio.Writer, f *Field, pos int, val Value, queue *[]pendingWrite) {
	switch f.Type {
	case FieldStruct:
		row, _ := val.AsStruct()
		if row == nil {
			row = NewRow()
		}
		writeInlineRow(w, f.SubFields, pos, row, queue)
	case FieldBool:
		b, _ := val.AsBool()
		w.Seek(pos)
		w.WriteBool(b)
	case FieldInt:
		i, _ := val.AsInt()
		w.Seek(pos)
		w.WriteI32(i)
	case FieldFloat:
		fl, _ := val.AsFloat()
		w.Seek(pos)
		w.WriteF32(fl)
	}
}

func resolvePendingWrite(w *binaryio.Writer, job pendingWrite, queue *[]pendingWrite) error {
	f := job.field

	if f.IsArray() {
		elemStride := int(f.DataSize)
		n := job.val.arrayLen()
		payloadOffset := w.Len()
		w.Seek(payloadOffset)
		w.WriteBytes(make([]byte, elemStride*n))
		w.Patch(job.ptrSlot, func(w *binaryio.Writer) { w.WriteU64(uint64(payloadOffset)) })

		switch f.Type {
		case FieldStruct:
			rows, err := job.val.AsStructArray()
			if err != nil {
				return err
			}
			for i, row := range rows {
				writeInlineRow(w, f.SubFields, payloadOffset+i*elemStride, row, queue)
			}
		case FieldString:
			strs, err := job.val.AsStringArray()
			if err != nil {
				return err
			}
			for i, s := range strs {
				elemBase := payloadOffset + i*elemStride
				strOff := writeCString(w, s)
				w.Seek(elemBase)
				w.WriteU64(uint64(strOff))
				w.Seek(elemBase + 8)
				w.WriteU32(uint32(len(s)))
				w.WriteU32(0)
			}
		case FieldBool:
			bs, err := job.val.AsBoolArray()
			if err != nil {
				return err
			}
			for i, b := range bs {
				w.Seek(payloadOffset + i*elemStride)
				w.WriteBool(b)
			}
		case FieldInt:
			is, err := job.val.AsIntArray()
			if err != nil {
				return err
			}
			for i, v := range is {
				w.Seek(payloadOffset + i*elemStride)
				w.WriteI32(v)
			}
		case FieldFloat:
			fs, err := job.val.AsFloatArray()
			if err != nil {
				return err
			}
			for i, v := range fs {
				w.Seek(payloadOffset + i*elemStride)
				w.WriteF32(v)
			}
		}
		return nil
	}

	if f.Type == FieldString {
		s, err := job.val.AsString()
		if err != nil {
			return err
		}
		strOff := writeCString(w, s)
		w.Patch(job.ptrSlot, func(w *binaryio.Writer) { w.WriteU64(uint64(strOff)) })
		return nil
	}

	// Non-array nullable struct/bool/int/float.
	payloadOffset := w.Len()
	w.Seek(payloadOffset)
	w.WriteBytes(make([]byte, f.DataSize))
	w.Patch(job.ptrSlot, func(w *binaryio.Writer) { w.WriteU64(uint64(payloadOffset)) })
	writeScalarOrStructInline(w, f, payloadOffset, job.val, queue)
	return nil
}
