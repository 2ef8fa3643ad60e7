// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sarc

import (
	"sort"

	"go.chromium.org/luci/common/errors"

	"github.com/nxtoolkit/nxbin/binaryio"
	"github.com/nxtoolkit/nxbin/nxerr"
	"github.com/nxtoolkit/nxbin/nxhash"
)

// File is one entry in a parsed archive. Data borrows directly from the
// buffer Parse was given; it is only valid for the lifetime of that
// buffer.
type File struct {
	// Name is empty if the entry had no SFNT name (hashed-only entry).
	Name string
	Hash uint32
	Data []byte

	// dataBegin is the entry's data_begin field (offset relative to
	// DataOffset), retained only to support MinAlignment's GCD inference.
	dataBegin uint32
}

// Archive is a parsed, read-only SARC. Entries are kept in on-disk order,
// which spec.md §3 requires to be ascending by Hash.
type Archive struct {
	Order      binaryio.Order
	Multiplier uint32
	DataOffset uint32

	files []File
}

// NumFiles returns the number of entries.
func (a *Archive) NumFiles() int { return len(a.files) }

// FileAt returns the entry at index, or an error if index is out of
// range (spec.md §4.3: "Lookup by index requires index < num_files").
func (a *Archive) FileAt(index int) (File, error) {
	if index < 0 || index >= len(a.files) {
		return File{}, nxerr.NewInvalidData("sarc file index %d out of range [0, %d)", index, len(a.files))
	}
	return a.files[index], nil
}

// Files returns all entries, in on-disk (hash-sorted) order.
func (a *Archive) Files() []File { return a.files }

// Get looks up a file by name via binary search over the hash-sorted
// table, returning (data, true) on a hit.
func (a *Archive) Get(name string) ([]byte, bool) {
	h := nxhash.SarcNameHash(name, a.Multiplier)
	i := sort.Search(len(a.files), func(i int) bool { return a.files[i].Hash >= h })
	if i < len(a.files) && a.files[i].Hash == h {
		return a.files[i].Data, true
	}
	return nil, false
}

// Parse validates a SARC header and decodes its SFAT/SFNT/data
// sections.
func Parse(buf []byte) (*Archive, error) {
	if len(buf) < headerSize {
		return nil, nxerr.NewInvalidData("sarc buffer too short for header: %d bytes", len(buf))
	}

	// The BOM lives at a fixed offset regardless of endianness, so peek it
	// with a neutral reader before picking the real Order.
	probe := binaryio.NewReader(buf, binaryio.BigEndian)
	if _, err := probe.Seek(0x08); err != nil {
		return nil, err
	}
	bomRaw, err := probe.ReadU16()
	if err != nil {
		return nil, errors.Annotate(err, "reading sarc BOM").Err()
	}
	order, ok := orderForBOM(bomRaw)
	if !ok {
		return nil, nxerr.NewInvalidData("bad sarc BOM %#x", bomRaw)
	}

	r := binaryio.NewReader(buf, order)
	magic, err := r.ReadBytes(4)
	if err != nil || string(magic) != "SARC" {
		return nil, nxerr.NewInvalidData("bad sarc magic %q", magic)
	}
	hdrSize, err := r.ReadU16()
	if err != nil {
		return nil, errors.Annotate(err, "reading sarc header size").Err()
	}
	if hdrSize != headerSize {
		return nil, nxerr.NewInvalidData("unexpected sarc header size %#x", hdrSize)
	}
	if _, err := r.ReadU16(); err != nil { // BOM, already consumed above
		return nil, errors.Annotate(err, "reading sarc BOM (second pass)").Err()
	}
	fileSize, err := r.ReadU32()
	if err != nil {
		return nil, errors.Annotate(err, "reading sarc file size").Err()
	}
	if int(fileSize) > len(buf) {
		return nil, nxerr.NewInvalidData("sarc file_size %d exceeds buffer length %d", fileSize, len(buf))
	}
	dataOffset, err := r.ReadU32()
	if err != nil {
		return nil, errors.Annotate(err, "reading sarc data offset").Err()
	}
	version, err := r.ReadU16()
	if err != nil {
		return nil, errors.Annotate(err, "reading sarc version").Err()
	}
	if version != sarcVersion {
		return nil, nxerr.NewInvalidData("unsupported sarc version %#x", version)
	}
	if _, err := r.ReadBytes(2); err != nil { // reserved
		return nil, errors.Annotate(err, "reading sarc reserved bytes").Err()
	}

	sfatMagic, err := r.ReadBytes(4)
	if err != nil || string(sfatMagic) != "SFAT" {
		return nil, nxerr.NewInvalidData("bad sfat magic %q", sfatMagic)
	}
	sfatHdrSz, err := r.ReadU16()
	if err != nil || sfatHdrSz != sfatHdrSize {
		return nil, nxerr.NewInvalidData("unexpected sfat header size %#x", sfatHdrSz)
	}
	numFiles, err := r.ReadU16()
	if err != nil {
		return nil, errors.Annotate(err, "reading sarc num_files").Err()
	}
	if numFiles >= 0x4000 {
		return nil, nxerr.NewInvalidData("sarc num_files %d exceeds the 0x4000 limit", numFiles)
	}
	multiplier, err := r.ReadU32()
	if err != nil {
		return nil, errors.Annotate(err, "reading sarc hash multiplier").Err()
	}

	type rawEntry struct {
		hash          uint32
		nameOffsetRaw uint32
		dataBegin     uint32
		dataEnd       uint32
	}
	entries := make([]rawEntry, numFiles)
	for i := range entries {
		h, err := r.ReadU32()
		if err != nil {
			return nil, errors.Annotate(err, "reading sfat entry %d hash", i).Err()
		}
		nameOff, err := r.ReadU32()
		if err != nil {
			return nil, errors.Annotate(err, "reading sfat entry %d name offset", i).Err()
		}
		begin, err := r.ReadU32()
		if err != nil {
			return nil, errors.Annotate(err, "reading sfat entry %d data begin", i).Err()
		}
		end, err := r.ReadU32()
		if err != nil {
			return nil, errors.Annotate(err, "reading sfat entry %d data end", i).Err()
		}
		entries[i] = rawEntry{h, nameOff, begin, end}
		if i > 0 && entries[i].hash < entries[i-1].hash {
			return nil, nxerr.NewInvalidData("sfat entries not sorted ascending by hash at index %d", i)
		}
	}

	sfntMagic, err := r.ReadBytes(4)
	if err != nil || string(sfntMagic) != "SFNT" {
		return nil, nxerr.NewInvalidData("bad sfnt magic %q", sfntMagic)
	}
	sfntHdrSz, err := r.ReadU16()
	if err != nil || sfntHdrSz != sfntHdrSize {
		return nil, nxerr.NewInvalidData("unexpected sfnt header size %#x", sfntHdrSz)
	}
	if _, err := r.ReadBytes(2); err != nil { // reserved
		return nil, errors.Annotate(err, "reading sfnt reserved bytes").Err()
	}
	nameTableStart := r.Pos()

	files := make([]File, numFiles)
	for i, e := range entries {
		var name string
		if e.nameOffsetRaw>>24 != 0 {
			off := nameTableStart + int(e.nameOffsetRaw&0xFFFFFF)*4
			if err := r.Seek(off); err != nil {
				return nil, errors.Annotate(err, "seeking to sfnt name for entry %d", i).Err()
			}
			name, err = r.ReadCString(-1)
			if err != nil {
				return nil, errors.Annotate(err, "reading sfnt name for entry %d", i).Err()
			}
		}
		begin := int(dataOffset) + int(e.dataBegin)
		end := int(dataOffset) + int(e.dataEnd)
		if begin < 0 || end < begin || end > len(buf) {
			return nil, nxerr.NewInvalidData("entry %d data range [%d, %d) out of bounds", i, begin, end)
		}
		files[i] = File{Name: name, Hash: e.hash, Data: buf[begin:end], dataBegin: e.dataBegin}
	}

	return &Archive{Order: order, Multiplier: multiplier, DataOffset: dataOffset, files: files}, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }

// MinAlignment infers the minimum write-time alignment that produced
// this archive: the GCD of (DataOffset + entry.data_begin) over all
// entries, and the constant 4; if that GCD is not a power of two, the
// inference falls back to 4 (spec.md §4.3 "Minimum alignment inference").
func (a *Archive) MinAlignment() int {
	g := 4
	for _, f := range a.files {
		g = gcd(g, int(a.DataOffset)+int(f.dataBegin))
	}
	if g == 0 || !isPow2(g) {
		return 4
	}
	return g
}
