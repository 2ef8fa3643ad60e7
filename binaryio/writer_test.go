// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package binaryio

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWriter(t *testing.T) {
	t.Parallel()

	Convey("Writer", t, func() {
		Convey("grows on out-of-order writes", func() {
			w := NewWriter(BigEndian)
			So(w.Seek(4), ShouldBeNil)
			w.WriteU32(0xDEADBEEF)
			So(w.Len(), ShouldEqual, 8)
			So(w.Bytes()[:4], ShouldResemble, []byte{0, 0, 0, 0})
		})

		Convey("Align pads with zeros up to the boundary", func() {
			w := NewWriter(BigEndian)
			w.WriteU8(1)
			w.Align(4)
			So(w.Bytes(), ShouldResemble, []byte{1, 0, 0, 0})
		})

		Convey("Patch restores the cursor", func() {
			w := NewWriter(BigEndian)
			w.WriteU32(0)
			w.WriteU32(0)
			w.Patch(0, func(w *Writer) { w.WriteU32(42) })
			So(w.Pos(), ShouldEqual, 8)
			r := NewReader(w.Bytes(), BigEndian)
			v, _ := r.ReadU32()
			So(v, ShouldEqual, 42)
		})

		Convey("PatchOffset writes cursor-minus-base", func() {
			w := NewWriter(BigEndian)
			w.WriteU32(0) // placeholder pointer
			base := w.Pos()
			w.WriteBytes([]byte{1, 2, 3, 4, 5})
			So(w.PatchOffset(0, base, 4), ShouldBeNil)
			r := NewReader(w.Bytes(), BigEndian)
			v, _ := r.ReadU32()
			So(v, ShouldEqual, 5)
		})

		Convey("u24 round trip", func() {
			for _, order := range []Order{BigEndian, LittleEndian} {
				w := NewWriter(order)
				So(w.WriteU24(0xABCDEF), ShouldBeNil)
				r := NewReader(w.Bytes(), order)
				v, err := r.ReadU24()
				So(err, ShouldBeNil)
				So(v, ShouldEqual, uint32(0xABCDEF))
			}
		})

		Convey("u24 rejects values that don't fit", func() {
			w := NewWriter(BigEndian)
			So(w.WriteU24(0x01000000), ShouldNotBeNil)
		})

		Convey("CString round trip", func() {
			w := NewWriter(BigEndian)
			w.WriteCString("hello")
			r := NewReader(w.Bytes(), BigEndian)
			s, err := r.ReadCString(-1)
			So(err, ShouldBeNil)
			So(s, ShouldEqual, "hello")
		})
	})
}
