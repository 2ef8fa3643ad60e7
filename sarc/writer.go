// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sarc

import (
	"sort"

	"github.com/nxtoolkit/nxbin/binaryio"
	"github.com/nxtoolkit/nxbin/nxerr"
	"github.com/nxtoolkit/nxbin/nxhash"
)

// Writer builds a SARC archive incrementally. Restoring
// original_source's emplace-as-you-go construction style (spec.md §4.3
// only describes the final write algorithm's output), it exposes
// Add/Remove rather than requiring every file up front.
type Writer struct {
	order      binaryio.Order
	multiplier uint32
	mode       Mode
	minAlign   int
	extAlign   map[string]int

	names []string
	byName map[string]int
	data  [][]byte
}

// NewWriter returns an empty Writer that will emit an archive in the
// given byte order with the default minimum alignment (4) and hash
// multiplier (0x65).
func NewWriter(order binaryio.Order) *Writer {
	return &Writer{
		order:      order,
		multiplier: nxhash.DefaultSarcMultiplier,
		mode:       ModeNew,
		minAlign:   4,
		extAlign:   builtinExtensionAlignment(order),
		byName:     map[string]int{},
	}
}

// SetMinAlignment overrides the default minimum per-file alignment
// (spec.md §4.3: "the configured minimum (default 4, must be
// power-of-two)").
func (w *Writer) SetMinAlignment(align int) error {
	if !isPow2(align) {
		return nxerr.NewInvalidData("minimum alignment %d is not a power of two", align)
	}
	w.minAlign = align
	return nil
}

// SetMode selects ModeNew or ModeLegacy alignment-detection behavior.
func (w *Writer) SetMode(m Mode) { w.mode = m }

// SetHashMultiplier overrides the SARC name-hash multiplier (defaults to
// 0x65).
func (w *Writer) SetHashMultiplier(m uint32) { w.multiplier = m }

// WithExtensionAlignment adds or overrides one entry in the
// extension→alignment table (spec.md §4.3's aglenv-sourced table);
// loading the full table from nxres is the caller's responsibility, via
// nxres.LoadExtensionAlignments and a loop of calls to this method.
func (w *Writer) WithExtensionAlignment(ext string, align int) {
	w.extAlign[ext] = align
}

// Add inserts or replaces the file named name. Names must be unique;
// calling Add twice with the same name replaces the previous data.
func (w *Writer) Add(name string, data []byte) {
	if i, ok := w.byName[name]; ok {
		w.data[i] = data
		return
	}
	w.byName[name] = len(w.names)
	w.names = append(w.names, name)
	w.data = append(w.data, data)
}

// Remove deletes the file named name, if present.
func (w *Writer) Remove(name string) {
	i, ok := w.byName[name]
	if !ok {
		return
	}
	last := len(w.names) - 1
	w.names[i], w.names[last] = w.names[last], w.names[i]
	w.data[i], w.data[last] = w.data[last], w.data[i]
	w.byName[w.names[i]] = i
	w.names = w.names[:last]
	w.data = w.data[:last]
	delete(w.byName, name)
}

type writerEntry struct {
	name      string
	hash      uint32
	data      []byte
	align     int
	dataBegin int
	dataEnd   int
}

// Write serializes the archive per spec.md §4.3: entries sorted by
// hash(name), a SFAT/SFNT table, and a data section aligned so that
// every file satisfies its inferred per-file alignment.
func (w *Writer) Write() ([]byte, error) {
	if len(w.names) >= 0x4000 {
		return nil, nxerr.NewInvalidData("sarc archive has %d files, exceeding the 0x4000 limit", len(w.names))
	}

	entries := make([]writerEntry, len(w.names))
	for i, name := range w.names {
		entries[i] = writerEntry{
			name:  name,
			hash:  nxhash.SarcNameHash(name, w.multiplier),
			data:  w.data[i],
			align: fileAlignment(w.mode, w.order, name, w.data[i], w.extAlign, w.minAlign),
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].hash < entries[j].hash })

	archAlign := 4
	cursor := 0
	for i := range entries {
		archAlign = lcm(archAlign, entries[i].align)
		cursor = alignUpInt(cursor, entries[i].align)
		entries[i].dataBegin = cursor
		cursor += len(entries[i].data)
		entries[i].dataEnd = cursor
	}

	bw := binaryio.NewWriter(w.order)
	bw.WriteBytes([]byte("SARC"))
	bw.WriteU16(headerSize)
	bw.WriteU16(bomFor(w.order))
	fileSizeOffset := bw.Pos()
	bw.WriteU32(0) // file_size, patched below
	dataOffsetOffset := bw.Pos()
	bw.WriteU32(0) // data_offset, patched below
	bw.WriteU16(sarcVersion)
	bw.WriteBytes(make([]byte, 2))

	bw.WriteBytes([]byte("SFAT"))
	bw.WriteU16(sfatHdrSize)
	bw.WriteU16(uint16(len(entries)))
	bw.WriteU32(w.multiplier)

	nameOffsetPatchAt := make([]int, len(entries))
	for i, e := range entries {
		bw.WriteU32(e.hash)
		nameOffsetPatchAt[i] = bw.Pos()
		bw.WriteU32(0) // rel_name_optional_offset, patched once the name table is written
		bw.WriteU32(uint32(e.dataBegin))
		bw.WriteU32(uint32(e.dataEnd))
	}

	bw.WriteBytes([]byte("SFNT"))
	bw.WriteU16(sfntHdrSize)
	bw.WriteBytes(make([]byte, 2))

	nameTableStart := bw.Pos()
	for i, e := range entries {
		if e.name == "" {
			continue
		}
		wordOffset := (bw.Pos() - nameTableStart) / 4
		bw.Patch(nameOffsetPatchAt[i], func(bw *binaryio.Writer) {
			bw.WriteU32(0x01000000 | uint32(wordOffset))
		})
		bw.WriteCString(e.name)
		bw.Align(4)
	}

	bw.Align(archAlign)
	dataOffset := bw.Pos()
	for _, e := range entries {
		bw.Seek(dataOffset + e.dataBegin)
		bw.WriteBytes(e.data)
	}

	fileSize := bw.Len()
	bw.Patch(fileSizeOffset, func(bw *binaryio.Writer) { bw.WriteU32(uint32(fileSize)) })
	bw.Patch(dataOffsetOffset, func(bw *binaryio.Writer) { bw.WriteU32(uint32(dataOffset)) })

	return bw.Bytes(), nil
}

func alignUpInt(pos, align int) int {
	if align <= 1 {
		return pos
	}
	return (pos + align - 1) &^ (align - 1)
}
