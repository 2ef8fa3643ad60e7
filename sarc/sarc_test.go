// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sarc

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/nxtoolkit/nxbin/binaryio"
)

func TestSarcRoundTrip(t *testing.T) {
	t.Parallel()

	Convey("SARC round trip", t, func() {
		w := NewWriter(binaryio.LittleEndian)
		w.Add("a.txt", []byte("A"))
		w.Add("b.bin", []byte("hello world"))
		w.Add("c.dat", []byte{})

		buf, err := w.Write()
		So(err, ShouldBeNil)

		a, err := Parse(buf)
		So(err, ShouldBeNil)
		So(a.NumFiles(), ShouldEqual, 3)

		Convey("entries are sorted ascending by hash", func() {
			for i := 1; i < a.NumFiles(); i++ {
				prev, _ := a.FileAt(i - 1)
				cur, _ := a.FileAt(i)
				So(prev.Hash, ShouldBeLessThanOrEqualTo, cur.Hash)
			}
		})

		Convey("lookup by name returns the original bytes", func() {
			data, ok := a.Get("b.bin")
			So(ok, ShouldBeTrue)
			So(string(data), ShouldEqual, "hello world")
		})

		Convey("the same set of (name, bytes) comes back", func() {
			got := map[string]string{}
			for _, f := range a.Files() {
				got[f.Name] = string(f.Data)
			}
			So(got, ShouldResemble, map[string]string{
				"a.txt": "A",
				"b.bin": "hello world",
				"c.dat": "",
			})
		})
	})
}

func TestSarcAlignmentInvariant(t *testing.T) {
	t.Parallel()

	Convey("P4: every file begins at an offset satisfying its own alignment", t, func() {
		w := NewWriter(binaryio.LittleEndian)
		w.Add("a.txt", []byte("A"))
		w.Add("b.bksky", []byte("B"))
		w.Add("c.gtx", []byte("some texture bytes"))

		buf, err := w.Write()
		So(err, ShouldBeNil)

		a, err := Parse(buf)
		So(err, ShouldBeNil)

		for _, f := range a.Files() {
			align := fileAlignment(ModeNew, a.Order, f.Name, f.Data, builtinExtensionAlignment(a.Order), 4)
			pos := dataPos(buf, a, f)
			So(pos%align, ShouldEqual, 0)
		}
	})
}

func dataPos(buf []byte, a *Archive, f File) int {
	return int(a.DataOffset) + int(f.dataBegin)
}

func TestSarcScenarioS2(t *testing.T) {
	t.Parallel()

	Convey("S2: two files, one bksky-mapped, in little-endian New mode", t, func() {
		w := NewWriter(binaryio.LittleEndian)
		w.Add("a.txt", []byte("A"))
		w.Add("b.bksky", []byte("B"))

		buf, err := w.Write()
		So(err, ShouldBeNil)

		a, err := Parse(buf)
		So(err, ShouldBeNil)

		data, ok := a.Get("b.bksky")
		So(ok, ShouldBeTrue)
		So(string(data), ShouldEqual, "B")

		So(a.DataOffset, ShouldBeGreaterThanOrEqualTo, uint32(0x20+2*0x10+0x8))
	})
}

func TestSarcMinAlignmentInference(t *testing.T) {
	t.Parallel()

	Convey("MinAlignment returns a power of two dividing every entry's absolute offset", t, func() {
		w := NewWriter(binaryio.BigEndian)
		w.Add("a.bin", []byte("abcde"))
		w.Add("b.bin", []byte("abcdefg"))
		w.Add("c.bin", []byte("xyz"))
		buf, err := w.Write()
		So(err, ShouldBeNil)

		a, err := Parse(buf)
		So(err, ShouldBeNil)

		inferred := a.MinAlignment()
		So(isPow2(inferred), ShouldBeTrue)
		for _, f := range a.files {
			So((int(a.DataOffset)+int(f.dataBegin))%inferred, ShouldEqual, 0)
		}
	})

	Convey("a larger configured minimum aligns every entry to it", t, func() {
		w := NewWriter(binaryio.BigEndian)
		So(w.SetMinAlignment(0x20), ShouldBeNil)
		w.Add("a.bin", []byte("abcde"))
		w.Add("b.bin", []byte("abcdefg"))
		buf, err := w.Write()
		So(err, ShouldBeNil)

		a, err := Parse(buf)
		So(err, ShouldBeNil)

		for _, f := range a.files {
			So((int(a.DataOffset)+int(f.dataBegin))%0x20, ShouldEqual, 0)
		}
	})
}

func TestSarcChecksumTrailer(t *testing.T) {
	t.Parallel()

	Convey("AppendTrailer / VerifyTrailer round trip", t, func() {
		w := NewWriter(binaryio.LittleEndian)
		w.Add("a.txt", []byte("A"))
		buf, err := w.Write()
		So(err, ShouldBeNil)

		withTrailer, err := AppendTrailer(buf, ChecksumSHA2_256)
		So(err, ShouldBeNil)

		body, scheme, err := VerifyTrailer(withTrailer)
		So(err, ShouldBeNil)
		So(scheme, ShouldEqual, ChecksumSHA2_256)
		So(body, ShouldResemble, buf)
	})

	Convey("VerifyTrailer detects corruption", t, func() {
		w := NewWriter(binaryio.LittleEndian)
		w.Add("a.txt", []byte("A"))
		buf, err := w.Write()
		So(err, ShouldBeNil)

		withTrailer, err := AppendTrailer(buf, ChecksumBLAKE2b)
		So(err, ShouldBeNil)
		withTrailer[0] ^= 0xFF

		_, _, err = VerifyTrailer(withTrailer)
		So(err, ShouldNotBeNil)
	})
}
