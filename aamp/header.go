// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package aamp

import (
	"go.chromium.org/luci/common/errors"

	"github.com/nxtoolkit/nxbin/binaryio"
	"github.com/nxtoolkit/nxbin/nxerr"
	"github.com/nxtoolkit/nxbin/nxhash"
)

const headerSize = 0x30

const formatVersion uint32 = 2

const (
	flagLittleEndian uint32 = 1 << 0
	flagUTF8         uint32 = 1 << 1
)

// paramRootHash is CRC32("param_root"); every AAMP document's root list is
// required to carry this name (spec.md §4.5, verified by P12).
var paramRootHash = nxhash.CRC32("param_root")

var magicBytes = [4]byte{'A', 'A', 'M', 'P'}

type header struct {
	fileSize         uint32
	dataVersion      uint32
	offsetToPio      uint32
	numLists         uint32
	numObjects       uint32
	numParameters    uint32
	dataSectionSize  uint32
	stringSectionSize uint32
}

func readHeader(r *binaryio.Reader) (header, error) {
	magic, err := r.ReadBytes(4)
	if err != nil {
		return header{}, errors.Annotate(err, "reading aamp magic").Err()
	}
	if string(magic) != "AAMP" {
		return header{}, nxerr.NewInvalidData("bad aamp magic %q", magic)
	}
	version, err := r.ReadU32()
	if err != nil {
		return header{}, errors.Annotate(err, "reading aamp format_version").Err()
	}
	if version != formatVersion {
		return header{}, nxerr.NewInvalidData("unsupported aamp format_version %d, only 2 is supported", version)
	}
	flags, err := r.ReadU32()
	if err != nil {
		return header{}, errors.Annotate(err, "reading aamp flags").Err()
	}
	if flags&flagLittleEndian == 0 {
		return header{}, nxerr.NewInvalidData("aamp flags missing little-endian bit")
	}
	if flags&flagUTF8 == 0 {
		return header{}, nxerr.NewInvalidData("aamp flags missing utf-8 bit")
	}

	var h header
	fields := []*uint32{
		&h.fileSize, &h.dataVersion, &h.offsetToPio, &h.numLists,
		&h.numObjects, &h.numParameters, &h.dataSectionSize, &h.stringSectionSize,
	}
	for _, f := range fields {
		v, err := r.ReadU32()
		if err != nil {
			return header{}, errors.Annotate(err, "reading aamp header field").Err()
		}
		*f = v
	}
	if _, err := r.ReadU32(); err != nil { // unk_section_size, always 0
		return header{}, errors.Annotate(err, "reading aamp unk_section_size").Err()
	}
	return h, nil
}

func writeHeader(w *binaryio.Writer, h header) {
	w.WriteBytes(magicBytes[:])
	w.WriteU32(formatVersion)
	w.WriteU32(flagLittleEndian | flagUTF8)
	w.WriteU32(h.fileSize)
	w.WriteU32(h.dataVersion)
	w.WriteU32(h.offsetToPio)
	w.WriteU32(h.numLists)
	w.WriteU32(h.numObjects)
	w.WriteU32(h.numParameters)
	w.WriteU32(h.dataSectionSize)
	w.WriteU32(h.stringSectionSize)
	w.WriteU32(0) // unk_section_size
}
