// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package yaz0

import (
	"go.chromium.org/luci/common/errors"

	"github.com/nxtoolkit/nxbin/binaryio"
	"github.com/nxtoolkit/nxbin/nxerr"
)

// Magic is the 4-byte signature every Yaz0 stream starts with.
const Magic = "Yaz0"

// HeaderSize is the fixed size of the Yaz0 header.
const HeaderSize = 16

// DefaultAlignment is used for Header.DataAlignment when a caller doesn't
// have a more specific requirement to record.
const DefaultAlignment = 0

// Header is the 16-byte, always-big-endian Yaz0 header: magic "Yaz0" (4),
// uncompressed_size (4), data_alignment (4), and 4 reserved bytes.
type Header struct {
	UncompressedSize uint32
	DataAlignment    uint32
}

// Write writes the 16-byte header.
func (h Header) Write(w *binaryio.Writer) {
	w.WriteBytes([]byte(Magic))
	w.WriteU32(h.UncompressedSize)
	w.WriteU32(h.DataAlignment)
	w.WriteBytes(make([]byte, 4))
}

// ReadHeader reads and validates a Yaz0 header, always in big-endian
// regardless of the reader's declared order (spec.md §6: "Yaz0 is always
// big-endian").
func ReadHeader(buf []byte) (Header, error) {
	r := binaryio.NewReader(buf, binaryio.BigEndian)
	magic, err := r.ReadBytes(4)
	if err != nil {
		return Header{}, errors.Annotate(err, "reading yaz0 magic").Err()
	}
	if string(magic) != Magic {
		return Header{}, nxerr.NewInvalidData("bad yaz0 magic %q", magic)
	}
	size, err := r.ReadU32()
	if err != nil {
		return Header{}, errors.Annotate(err, "reading yaz0 uncompressed size").Err()
	}
	align, err := r.ReadU32()
	if err != nil {
		return Header{}, errors.Annotate(err, "reading yaz0 data alignment").Err()
	}
	if _, err := r.ReadBytes(4); err != nil {
		return Header{}, errors.Annotate(err, "reading yaz0 reserved bytes").Err()
	}
	return Header{UncompressedSize: size, DataAlignment: align}, nil
}

// IsYaz0 reports whether buf starts with the Yaz0 magic.
func IsYaz0(buf []byte) bool {
	return len(buf) >= 4 && string(buf[:4]) == Magic
}
