// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package byml

import (
	"encoding/binary"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/nxtoolkit/nxbin/binaryio"
)

func TestBymlNullRoundTrip(t *testing.T) {
	t.Parallel()

	Convey("S3: a null document is 16 bytes with every offset zero", t, func() {
		buf, err := Serialize(NewNull(), binaryio.LittleEndian, 2)
		So(err, ShouldBeNil)
		So(buf, ShouldResemble, []byte{
			'Y', 'B', 2, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
		})

		root, err := Parse(buf)
		So(err, ShouldBeNil)
		So(root.Type(), ShouldEqual, TypeNull)
	})
}

func TestBymlScalarRoundTrip(t *testing.T) {
	t.Parallel()

	Convey("P5: a hash of scalars round-trips through binary", t, func() {
		h := NewHash()
		hash, _ := h.AsHash()
		hash.Set("name", NewString("link"))
		hash.Set("hp", NewInt32(999))
		hash.Set("flag", NewBool(true))
		hash.Set("weight", NewFloat32(63.5))
		hash.Set("big", NewInt64(-1))
		hash.Set("huge", NewUInt64(1 << 40))

		buf, err := Serialize(h, binaryio.BigEndian, 3)
		So(err, ShouldBeNil)

		got, err := Parse(buf)
		So(err, ShouldBeNil)
		So(got.Type(), ShouldEqual, TypeHash)

		gotHash, err := got.AsHash()
		So(err, ShouldBeNil)

		name, err := mustGet(gotHash, "name")
		So(err, ShouldBeNil)
		s, err := name.AsString()
		So(err, ShouldBeNil)
		So(s, ShouldEqual, "link")

		hp, err := mustGet(gotHash, "hp")
		So(err, ShouldBeNil)
		hpv, err := hp.AsInt32()
		So(err, ShouldBeNil)
		So(hpv, ShouldEqual, 999)

		big, err := mustGet(gotHash, "big")
		So(err, ShouldBeNil)
		bigv, err := big.AsInt64()
		So(err, ShouldBeNil)
		So(bigv, ShouldEqual, -1)

		huge, err := mustGet(gotHash, "huge")
		So(err, ShouldBeNil)
		hugev, err := huge.AsUInt64()
		So(err, ShouldBeNil)
		So(hugev, ShouldEqual, uint64(1)<<40)
	})
}

func mustGet(h *Hash, key string) (*Node, error) {
	v, ok := h.Get(key)
	if !ok {
		return nil, errors.New("missing key " + key)
	}
	return v, nil
}

func TestBymlHashKeyOrdering(t *testing.T) {
	t.Parallel()

	Convey("S4: hash-key table is sorted ascending, entries ordered by key index", t, func() {
		h := NewHash()
		hash, _ := h.AsHash()
		hash.Set("b", NewInt32(1))
		hash.Set("a", NewInt32(2))

		buf, err := Serialize(h, binaryio.LittleEndian, 2)
		So(err, ShouldBeNil)

		d := &decoder{buf: buf, order: binaryio.LittleEndian}
		tableKeys, err := d.readStringTableAt(binary.LittleEndian.Uint32(buf[4:8]))
		So(err, ShouldBeNil)
		So(tableKeys, ShouldResemble, []string{"a", "b"})

		// Hash node: 4-byte header, then 8-byte entries whose first byte is
		// the low byte of the little-endian u24 key index.
		rootOff := binary.LittleEndian.Uint32(buf[12:16])
		So(buf[rootOff], ShouldEqual, byte(TypeHash))
		So(buf[rootOff+4], ShouldEqual, byte(0))
		So(buf[rootOff+12], ShouldEqual, byte(1))

		got, err := Parse(buf)
		So(err, ShouldBeNil)
		gotHash, err := got.AsHash()
		So(err, ShouldBeNil)

		So(gotHash.Keys(), ShouldResemble, []string{"a", "b"})
	})
}

func TestBymlArrayRoundTrip(t *testing.T) {
	t.Parallel()

	Convey("an array of mixed scalar and container nodes round-trips", t, func() {
		arr := NewArray(
			NewInt32(1),
			NewString("two"),
			NewArray(NewBool(true), NewBool(false)),
			NewFloat64(3.25),
		)

		buf, err := Serialize(arr, binaryio.BigEndian, 2)
		So(err, ShouldBeNil)

		got, err := Parse(buf)
		So(err, ShouldBeNil)

		items, err := got.AsArray()
		So(err, ShouldBeNil)
		So(items, ShouldHaveLength, 4)

		v0, err := items[0].AsInt32()
		So(err, ShouldBeNil)
		So(v0, ShouldEqual, 1)

		v1, err := items[1].AsString()
		So(err, ShouldBeNil)
		So(v1, ShouldEqual, "two")

		nested, err := items[2].AsArray()
		So(err, ShouldBeNil)
		So(nested, ShouldHaveLength, 2)

		v3, err := items[3].AsFloat64()
		So(err, ShouldBeNil)
		So(v3, ShouldEqual, 3.25)
	})
}

func TestBymlGetters(t *testing.T) {
	t.Parallel()

	Convey("GetInt/GetUInt/GetInt64/GetUInt64 convert across related types", t, func() {
		u := NewUInt32(42)
		v, err := u.GetInt()
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 42)

		i := NewInt32(-1)
		_, err = i.GetUInt()
		So(err, ShouldNotBeNil)

		i64, err := NewUInt32(7).GetInt64()
		So(err, ShouldBeNil)
		So(i64, ShouldEqual, 7)

		_, err = NewInt64(-5).GetUInt64()
		So(err, ShouldNotBeNil)
	})
}

func TestBymlYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	Convey("P6: a document round-trips through YAML after one normalization pass", t, func() {
		h := NewHash()
		hash, _ := h.AsHash()
		hash.Set("list", NewArray(NewInt32(1), NewInt32(2)))
		hash.Set("label", NewString("hello"))
		hash.Set("scale", NewUInt32(5))
		hash.Set("precise", NewFloat64(1.5))

		text, err := ToYAML(h)
		So(err, ShouldBeNil)

		back, err := FromYAML(text)
		So(err, ShouldBeNil)

		text2, err := ToYAML(back)
		So(err, ShouldBeNil)
		So(string(text2), ShouldEqual, string(text))
	})
}
