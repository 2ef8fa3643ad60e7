// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package binaryio

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestReader(t *testing.T) {
	t.Parallel()

	Convey("Reader", t, func() {
		Convey("big endian PODs", func() {
			r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0xFF}, BigEndian)
			v32, err := r.ReadU32()
			So(err, ShouldBeNil)
			So(v32, ShouldEqual, 0x01020304)
			v8, err := r.ReadU8()
			So(err, ShouldBeNil)
			So(v8, ShouldEqual, 0xFF)
		})

		Convey("little endian PODs", func() {
			r := NewReader([]byte{0x01, 0x02, 0x03, 0x04}, LittleEndian)
			v32, err := r.ReadU32()
			So(err, ShouldBeNil)
			So(v32, ShouldEqual, 0x04030201)
		})

		Convey("u24", func() {
			Convey("big endian", func() {
				r := NewReader([]byte{0x01, 0x02, 0x03}, BigEndian)
				v, err := r.ReadU24()
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 0x010203)
			})
			Convey("little endian", func() {
				r := NewReader([]byte{0x01, 0x02, 0x03}, LittleEndian)
				v, err := r.ReadU24()
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 0x030201)
			})
		})

		Convey("short read returns InvalidData, not a panic", func() {
			r := NewReader([]byte{0x01, 0x02}, BigEndian)
			_, err := r.ReadU32()
			So(err, ShouldNotBeNil)
		})

		Convey("TryBytes never errors", func() {
			r := NewReader([]byte{0x01}, BigEndian)
			_, ok := r.TryBytes(4)
			So(ok, ShouldBeFalse)
		})

		Convey("CString", func() {
			Convey("unbounded terminated", func() {
				r := NewReader([]byte("hello\x00world"), BigEndian)
				s, err := r.ReadCString(-1)
				So(err, ShouldBeNil)
				So(s, ShouldEqual, "hello")
				So(r.Pos(), ShouldEqual, 6)
			})
			Convey("unbounded unterminated is an error", func() {
				r := NewReader([]byte("hello"), BigEndian)
				_, err := r.ReadCString(-1)
				So(err, ShouldNotBeNil)
			})
			Convey("fixed capacity, no embedded NUL fills the field", func() {
				r := NewReader([]byte("0123456789"), BigEndian)
				s, err := r.ReadCString(8)
				So(err, ShouldBeNil)
				So(s, ShouldEqual, "01234567")
				So(r.Pos(), ShouldEqual, 8)
			})
			Convey("fixed capacity with embedded NUL truncates", func() {
				r := NewReader([]byte("ab\x00cdefgh"), BigEndian)
				s, err := r.ReadCString(8)
				So(err, ShouldBeNil)
				So(s, ShouldEqual, "ab")
				So(r.Pos(), ShouldEqual, 3)
			})
		})

		Convey("SeekAligned", func() {
			r := NewReader(make([]byte, 16), BigEndian)
			So(r.Seek(3), ShouldBeNil)
			So(r.SeekAligned(4), ShouldBeNil)
			So(r.Pos(), ShouldEqual, 4)
		})

		Convey("float round-trip bits", func() {
			w := NewWriter(LittleEndian)
			w.WriteF32(3.5)
			w.WriteF64(-2.25)
			r := NewReader(w.Bytes(), LittleEndian)
			f32, err := r.ReadF32()
			So(err, ShouldBeNil)
			So(f32, ShouldEqual, float32(3.5))
			f64, err := r.ReadF64()
			So(err, ShouldBeNil)
			So(f64, ShouldEqual, -2.25)
		})
	})
}
