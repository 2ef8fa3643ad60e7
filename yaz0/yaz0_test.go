// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package yaz0

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestYaz0RoundTrip(t *testing.T) {
	t.Parallel()

	Convey("Yaz0 round trip", t, func() {
		inputs := [][]byte{
			nil,
			[]byte("a"),
			[]byte("Hello, world!\n"),
			[]byte(strings.Repeat("Hello, world!\n", 1000)),
			bytes.Repeat([]byte{0xAB, 0xCD, 0xEF}, 5000),
		}

		for _, in := range inputs {
			for level := 6; level <= 9; level++ {
				compressed := Compress(in, level)

				h, err := ReadHeader(compressed)
				So(err, ShouldBeNil)
				So(h.UncompressedSize, ShouldEqual, uint32(len(in)))

				safe, err := Decompress(compressed)
				So(err, ShouldBeNil)
				So(safe, ShouldResemble, in)

				unsafeOut, err := DecompressUnsafe(compressed)
				So(err, ShouldBeNil)
				So(unsafeOut, ShouldResemble, safe)
			}
		}
	})
}

func TestYaz0Scenario(t *testing.T) {
	t.Parallel()

	Convey("S1: compress then decompress 1000 repeats of a line", t, func() {
		in := []byte(strings.Repeat("Hello, world!\n", 1000))
		compressed := Compress(in, 7)

		h, err := ReadHeader(compressed)
		So(err, ShouldBeNil)
		So(h.UncompressedSize, ShouldEqual, uint32(14000))

		out, err := Decompress(compressed)
		So(err, ShouldBeNil)
		So(out, ShouldResemble, in)
	})
}

func TestYaz0RejectsMalformedInput(t *testing.T) {
	t.Parallel()

	Convey("Decompress rejects bad magic", t, func() {
		_, err := Decompress([]byte("NOPE0000000000000000"))
		So(err, ShouldNotBeNil)
	})

	Convey("Decompress rejects truncated body", t, func() {
		in := []byte(strings.Repeat("x", 64))
		compressed := Compress(in, 6)
		truncated := compressed[:len(compressed)-4]
		_, err := Decompress(truncated)
		So(err, ShouldNotBeNil)
	})

	Convey("Decompress rejects a back-reference reaching before the start", t, func() {
		buf := compressHeaderBytes(4)
		// group header 0x00: next chunk is a back-reference. 0x00 0x00 0x00 is
		// the three-byte form: distance-1 = 0 (distance 1) and length 0x12,
		// which is invalid before any output has been written.
		buf = append(buf, 0x00, 0x00, 0x00)
		_, err := Decompress(buf)
		So(err, ShouldNotBeNil)
	})
}

// compressHeaderBytes builds a raw Yaz0 header for uncompressedSize with
// no particular alignment, for use by malformed-stream tests that need to
// hand-construct a body.
func compressHeaderBytes(uncompressedSize uint32) []byte {
	buf := []byte("Yaz0")
	buf = append(buf,
		byte(uncompressedSize>>24), byte(uncompressedSize>>16), byte(uncompressedSize>>8), byte(uncompressedSize),
		0, 0, 0, 0,
		0, 0, 0, 0,
	)
	return buf
}
