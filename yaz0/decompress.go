// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package yaz0

import (
	"go.chromium.org/luci/common/errors"

	"github.com/nxtoolkit/nxbin/nxerr"
)

// Decompress parses the Yaz0 header from buf and decodes exactly
// UncompressedSize bytes, validating every reader and writer access.
// A malformed stream (truncated input, a back-reference whose distance
// reaches before the start of the output, a copy that would overrun the
// output) surfaces as an *nxerr.InvalidData.
func Decompress(buf []byte) ([]byte, error) {
	h, err := ReadHeader(buf)
	if err != nil {
		return nil, errors.Annotate(err, "decompressing yaz0 stream").Err()
	}
	out := make([]byte, h.UncompressedSize)
	if err := decode(buf[HeaderSize:], out, true); err != nil {
		return nil, errors.Annotate(err, "decompressing yaz0 stream body").Err()
	}
	return out, nil
}

// DecompressUnsafe is like Decompress but reports no error for a
// malformed body; it must only be used on input already known to be
// well-formed (e.g. re-decompressing something this package itself just
// compressed). A truncated body ends decoding early, and a back-reference
// copy is clamped so it never reads or writes outside the output buffer —
// undefined *values* may result from malformed input, but never an
// out-of-bounds access.
func DecompressUnsafe(buf []byte) ([]byte, error) {
	h, err := ReadHeader(buf)
	if err != nil {
		return nil, errors.Annotate(err, "decompressing yaz0 stream (unsafe)").Err()
	}
	out := make([]byte, h.UncompressedSize)
	decode(buf[HeaderSize:], out, false)
	return out, nil
}

// decode runs the group/chunk state machine described in spec.md §4.2.
// When safe is true, every access to src and every back-reference is
// validated and a violation returns an *nxerr.InvalidData. When safe is
// false, running out of src ends decoding early without an error, and
// back-reference copies are clamped to the bounds of dst rather than
// erroring (a back-reference before any output exists ends decoding).
func decode(src, dst []byte, safe bool) error {
	si, di := 0, 0

	readSrc := func() (byte, bool) {
		if si >= len(src) {
			return 0, false
		}
		b := src[si]
		si++
		return b, true
	}

	for di < len(dst) {
		groupHeader, ok := readSrc()
		if !ok {
			if safe {
				return nxerr.NewInvalidData("truncated stream: missing group header at output offset %d", di)
			}
			return nil
		}

		for bit := 0; bit < 8 && di < len(dst); bit++ {
			if groupHeader&(0x80>>uint(bit)) != 0 {
				b, ok := readSrc()
				if !ok {
					if safe {
						return nxerr.NewInvalidData("truncated stream: missing literal at output offset %d", di)
					}
					return nil
				}
				dst[di] = b
				di++
				continue
			}

			b0, ok0 := readSrc()
			b1, ok1 := readSrc()
			if !ok0 || !ok1 {
				if safe {
					return nxerr.NewInvalidData("truncated stream: missing back-reference bytes at output offset %d", di)
				}
				return nil
			}

			var dist, length int
			if b0>>4 != 0 {
				length = int(b0>>4) + 2
				dist = (int(b0&0xF)<<8 | int(b1)) + 1
			} else {
				b2, ok2 := readSrc()
				if !ok2 {
					if safe {
						return nxerr.NewInvalidData("truncated stream: missing 3-byte back-reference tail at output offset %d", di)
					}
					return nil
				}
				dist = (int(b0&0xF)<<8 | int(b1)) + 1
				length = int(b2) + 0x12
			}

			if safe {
				if dist > di {
					return nxerr.NewInvalidData("back-reference distance %d exceeds output written so far (%d)", dist, di)
				}
				if di+length > len(dst) {
					return nxerr.NewInvalidData("back-reference of length %d at output offset %d overruns output of size %d", length, di, len(dst))
				}
			} else {
				if di == 0 {
					return nil
				}
				if dist > di {
					dist = 1
				}
				if di+length > len(dst) {
					length = len(dst) - di
				}
			}

			copyFrom := di - dist
			for i := 0; i < length; i++ {
				dst[di] = dst[copyFrom+i]
				di++
			}
		}
	}

	return nil
}
