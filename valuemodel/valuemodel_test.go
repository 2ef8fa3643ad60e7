// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package valuemodel

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/nxtoolkit/nxbin/binaryio"
)

func TestFixedSafeString(t *testing.T) {
	t.Parallel()

	Convey("FixedSafeString", t, func() {
		Convey("truncates on assignment", func() {
			f := NewFixedSafeString(4, "hello")
			So(f.String(), ShouldEqual, "hel")
		})

		Convey("round trips through binary", func() {
			f := NewFixedSafeString(String32Capacity, "Bone_03")
			w := binaryio.NewWriter(binaryio.LittleEndian)
			f.Write(w)
			So(w.Len(), ShouldEqual, String32Capacity)

			r := binaryio.NewReader(w.Bytes(), binaryio.LittleEndian)
			got, err := ReadFixedSafeString(r, String32Capacity)
			So(err, ShouldBeNil)
			So(got.String(), ShouldEqual, "Bone_03")
		})
	})
}

func TestCurve(t *testing.T) {
	t.Parallel()

	Convey("Curve", t, func() {
		c := Curve{A: 1, B: 2}
		for i := range c.Floats {
			c.Floats[i] = float32(i)
		}

		w := binaryio.NewWriter(binaryio.LittleEndian)
		c.Write(w)
		So(w.Len(), ShouldEqual, CurveSize)

		r := binaryio.NewReader(w.Bytes(), binaryio.LittleEndian)
		got, err := ReadCurve(r)
		So(err, ShouldBeNil)
		So(got, ShouldResemble, c)
	})
}

func TestVectors(t *testing.T) {
	t.Parallel()

	Convey("Vector3f round trip", t, func() {
		v := Vector3f{1, 2, 3}
		w := binaryio.NewWriter(binaryio.BigEndian)
		v.Write(w)
		r := binaryio.NewReader(w.Bytes(), binaryio.BigEndian)
		got, err := ReadVector3f(r)
		So(err, ShouldBeNil)
		So(got, ShouldResemble, v)
	})
}
