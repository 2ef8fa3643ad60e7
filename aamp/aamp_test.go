// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package aamp

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/nxtoolkit/nxbin/binaryio"
	"github.com/nxtoolkit/nxbin/nxhash"
	"github.com/nxtoolkit/nxbin/valuemodel"
)

func simpleIO() *ParameterIO {
	pio := NewParameterIO()
	pio.Version = 0
	obj := NewParameterObject()
	obj.Set("Name", NewString32("Link"))
	obj.Set("HP", NewInt(999))
	obj.Set("Scale", NewVec3(valuemodel.Vector3f{X: 1, Y: 1, Z: 1}))
	pio.RootList.SetObject("A", obj)
	return pio
}

func TestAampBinaryRoundTrip(t *testing.T) {
	t.Parallel()

	Convey("P7: a ParameterIO round-trips through binary as a typed tree", t, func() {
		pio := simpleIO()

		buf, err := Serialize(pio)
		So(err, ShouldBeNil)

		got, err := Parse(buf)
		So(err, ShouldBeNil)
		So(got.Version, ShouldEqual, pio.Version)
		So(got.Type, ShouldEqual, pio.Type)

		objs := got.RootList.Objects()
		So(objs, ShouldHaveLength, 1)
		So(objs[0].Hash, ShouldEqual, nxhash.CRC32("A"))

		obj := objs[0].Value
		name, ok := obj.GetHash(nxhash.CRC32("Name"))
		So(ok, ShouldBeTrue)
		s, err := name.AsString32()
		So(err, ShouldBeNil)
		So(s, ShouldEqual, "Link")

		hp, ok := obj.GetHash(nxhash.CRC32("HP"))
		So(ok, ShouldBeTrue)
		hpv, err := hp.AsInt()
		So(err, ShouldBeNil)
		So(hpv, ShouldEqual, 999)

		scale, ok := obj.GetHash(nxhash.CRC32("Scale"))
		So(ok, ShouldBeTrue)
		sv, err := scale.AsVec3()
		So(err, ShouldBeNil)
		So(sv, ShouldResemble, valuemodel.Vector3f{X: 1, Y: 1, Z: 1})
	})
}

func TestAampNestedListsRoundTrip(t *testing.T) {
	t.Parallel()

	Convey("lists nested under the root recurse correctly", t, func() {
		pio := NewParameterIO()
		child := NewParameterList()
		leafObj := NewParameterObject()
		leafObj.Set("Value", NewU32(7))
		child.SetObject("Leaf", leafObj)
		pio.RootList.SetList("Child", child)

		buf, err := Serialize(pio)
		So(err, ShouldBeNil)

		got, err := Parse(buf)
		So(err, ShouldBeNil)

		gotChild, ok := got.RootList.GetListHash(nxhash.CRC32("Child"))
		So(ok, ShouldBeTrue)

		gotLeaf, ok := gotChild.GetObjectHash(nxhash.CRC32("Leaf"))
		So(ok, ShouldBeTrue)

		v, ok := gotLeaf.GetHash(nxhash.CRC32("Value"))
		So(ok, ShouldBeTrue)
		u, err := v.AsU32()
		So(err, ShouldBeNil)
		So(u, ShouldEqual, uint32(7))
	})
}

func TestAampDataDedup(t *testing.T) {
	t.Parallel()

	Convey("P8/S5: two BufferInt parameters sharing contents dedup in the data section", t, func() {
		pio := NewParameterIO()
		obj := NewParameterObject()
		obj.Set("BufferA", NewBufferInt([]int32{1, 2, 3}))
		obj.Set("BufferB", NewBufferInt([]int32{1, 2, 3}))
		pio.RootList.SetObject("A", obj)

		buf, err := Serialize(pio)
		So(err, ShouldBeNil)

		distinctPio := NewParameterIO()
		distinctObj := NewParameterObject()
		distinctObj.Set("BufferA", NewBufferInt([]int32{1, 2, 3}))
		distinctObj.Set("BufferB", NewBufferInt([]int32{4, 5, 6}))
		distinctPio.RootList.SetObject("A", distinctObj)

		distinctBuf, err := Serialize(distinctPio)
		So(err, ShouldBeNil)

		// Same structure and element counts, but no shared payload: the
		// deduped version must be strictly smaller.
		So(len(buf), ShouldBeLessThan, len(distinctBuf))

		got, err := Parse(buf)
		So(err, ShouldBeNil)
		gotObj, ok := got.RootList.GetObjectHash(nxhash.CRC32("A"))
		So(ok, ShouldBeTrue)

		a, _ := gotObj.GetHash(nxhash.CRC32("BufferA"))
		b, _ := gotObj.GetHash(nxhash.CRC32("BufferB"))
		av, err := a.AsBufferInt()
		So(err, ShouldBeNil)
		bv, err := b.AsBufferInt()
		So(err, ShouldBeNil)
		So(av, ShouldResemble, []int32{1, 2, 3})
		So(bv, ShouldResemble, []int32{1, 2, 3})
	})
}

func TestAampStringDedup(t *testing.T) {
	t.Parallel()

	Convey("P9: distinct StringRef parameters sharing a value pool to one string-section entry", t, func() {
		pio := NewParameterIO()
		obj := NewParameterObject()
		obj.Set("RefA", NewStringRef("shared_value"))
		obj.Set("RefB", NewStringRef("shared_value"))
		pio.RootList.SetObject("A", obj)

		buf, err := Serialize(pio)
		So(err, ShouldBeNil)

		// "shared_value" plus its NUL is 13 bytes, padded to 16: one entry.
		h, err := readHeader(binaryio.NewReader(buf, binaryio.LittleEndian))
		So(err, ShouldBeNil)
		So(h.stringSectionSize, ShouldEqual, 16)

		got, err := Parse(buf)
		So(err, ShouldBeNil)
		gotObj, _ := got.RootList.GetObjectHash(nxhash.CRC32("A"))
		a, _ := gotObj.GetHash(nxhash.CRC32("RefA"))
		b, _ := gotObj.GetHash(nxhash.CRC32("RefB"))
		av, _ := a.AsStringRef()
		bv, _ := b.AsStringRef()
		So(av, ShouldEqual, "shared_value")
		So(bv, ShouldEqual, "shared_value")
	})
}

func TestAampYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	Convey("AAMP documents round-trip through the YAML bridge", t, func() {
		pio := simpleIO()

		text, err := ToYAML(pio)
		So(err, ShouldBeNil)

		back, err := FromYAML(text)
		So(err, ShouldBeNil)
		So(back.Version, ShouldEqual, pio.Version)
		So(back.Type, ShouldEqual, pio.Type)

		text2, err := ToYAML(back)
		So(err, ShouldBeNil)
		So(string(text2), ShouldEqual, string(text))
	})
}

func TestNameTableLookup(t *testing.T) {
	t.Parallel()

	Convey("P11: lookup(hash, 3, CRC32(\"Bone\")) recovers \"Bone_03\"", t, func() {
		table := NewNameTable()
		table.AddName("Bone")

		name, ok := table.Lookup(nxhash.CRC32("Bone_03"), 3, nxhash.CRC32("Bone"))
		So(ok, ShouldBeTrue)
		So(name, ShouldEqual, "Bone_03")
	})

	Convey("a direct hit in the known table short-circuits the guess", t, func() {
		table := NewNameTable()
		table.AddName("TerrorLevel")

		name, ok := table.Lookup(nxhash.CRC32("TerrorLevel"), 0, 0)
		So(ok, ShouldBeTrue)
		So(name, ShouldEqual, "TerrorLevel")
	})
}

func TestParamRootHashSelfConsistency(t *testing.T) {
	t.Parallel()

	Convey("CRC32(\"param_root\") is stable and matches the root list's required name hash", t, func() {
		So(paramRootHash, ShouldEqual, nxhash.CRC32("param_root"))
	})
}
