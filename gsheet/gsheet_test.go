// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package gsheet

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func messageSheet() *Sheet {
	fields := []*Field{
		{Name: "Handle", Type: FieldInt, Flags: FlagKey},
		{Name: "Message", Type: FieldString},
		{Name: "Tags", Type: FieldString, Flags: FlagArray},
	}
	LayoutFields(fields, 8)

	sheet := NewSheet()
	sheet.Hash = 0xC0FFEE
	sheet.Name = "EventFlowMsg"
	sheet.RootFields = fields

	row1 := NewRow()
	row1.Set("Handle", NewInt(1))
	row1.Set("Message", NewString("Hello, Hyrule!"))
	row1.Set("Tags", NewStringArray([]string{"greeting", "intro"}))

	row2 := NewRow()
	row2.Set("Handle", NewInt(2))
	row2.Set("Message", NewString(""))
	row2.Set("Tags", NewStringArray(nil))

	sheet.Rows = []*Row{row1, row2}
	return sheet
}

func TestGsheetRoundTrip(t *testing.T) {
	t.Parallel()

	Convey("a flat sheet with scalar, string, and array fields round-trips", t, func() {
		sheet := messageSheet()

		buf, err := Serialize(sheet)
		So(err, ShouldBeNil)

		got, err := Parse(buf)
		So(err, ShouldBeNil)
		So(got.Name, ShouldEqual, "EventFlowMsg")
		So(got.Hash, ShouldEqual, uint32(0xC0FFEE))
		So(got.Rows, ShouldHaveLength, 2)

		h, err := mustGet(got.Rows[0], "Handle").AsInt()
		So(err, ShouldBeNil)
		So(h, ShouldEqual, int32(1))

		msg, err := mustGet(got.Rows[0], "Message").AsString()
		So(err, ShouldBeNil)
		So(msg, ShouldEqual, "Hello, Hyrule!")

		tags, err := mustGet(got.Rows[0], "Tags").AsStringArray()
		So(err, ShouldBeNil)
		So(tags, ShouldResemble, []string{"greeting", "intro"})

		msg2, err := mustGet(got.Rows[1], "Message").AsString()
		So(err, ShouldBeNil)
		So(msg2, ShouldEqual, "")
	})

	Convey("the int key field resolves a row by lookup", t, func() {
		sheet := messageSheet()
		buf, err := Serialize(sheet)
		So(err, ShouldBeNil)

		got, err := Parse(buf)
		So(err, ShouldBeNil)

		row, ok := got.RowByIntKey(2)
		So(ok, ShouldBeTrue)
		msg, _ := mustGet(row, "Message").AsString()
		So(msg, ShouldEqual, "")
	})
}

func TestGsheetNestedStructFields(t *testing.T) {
	t.Parallel()

	Convey("a struct field (inline) and a nullable struct field round-trip", t, func() {
		posFields := []*Field{
			{Name: "X", Type: FieldFloat},
			{Name: "Y", Type: FieldFloat},
		}
		fields := []*Field{
			{Name: "Name", Type: FieldString, Flags: FlagKey},
			{Name: "Position", Type: FieldStruct, SubFields: posFields},
			{Name: "SpawnPoint", Type: FieldStruct, Flags: FlagNullable, SubFields: []*Field{
				{Name: "X", Type: FieldFloat},
				{Name: "Y", Type: FieldFloat},
			}},
		}
		LayoutFields(fields, 8)

		sheet := NewSheet()
		sheet.Name = "Actors"
		sheet.RootFields = fields

		pos := NewRow()
		pos.Set("X", NewFloat(1.5))
		pos.Set("Y", NewFloat(-2.5))

		row := NewRow()
		row.Set("Name", NewString("Link"))
		row.Set("Position", NewStruct(pos))
		row.Set("SpawnPoint", NewNull(FieldStruct))
		sheet.Rows = []*Row{row}

		buf, err := Serialize(sheet)
		So(err, ShouldBeNil)

		got, err := Parse(buf)
		So(err, ShouldBeNil)

		posVal, err := mustGet(got.Rows[0], "Position").AsStruct()
		So(err, ShouldBeNil)
		x, _ := mustGet(posVal, "X").AsFloat()
		So(x, ShouldEqual, float32(1.5))

		spawn := mustGet(got.Rows[0], "SpawnPoint")
		So(spawn.IsNull(), ShouldBeTrue)
	})
}

func TestGsheetStructArray(t *testing.T) {
	t.Parallel()

	Convey("an array of structs round-trips, each element independently addressable", t, func() {
		itemFields := []*Field{
			{Name: "ItemName", Type: FieldString},
			{Name: "Count", Type: FieldInt},
		}
		fields := []*Field{
			{Name: "ShopName", Type: FieldString, Flags: FlagKey},
			{Name: "Items", Type: FieldStruct, Flags: FlagArray, SubFields: itemFields},
		}
		LayoutFields(fields, 8)

		sheet := NewSheet()
		sheet.Name = "Shops"
		sheet.RootFields = fields

		item1 := NewRow()
		item1.Set("ItemName", NewString("Apple"))
		item1.Set("Count", NewInt(3))
		item2 := NewRow()
		item2.Set("ItemName", NewString("Sword"))
		item2.Set("Count", NewInt(1))

		row := NewRow()
		row.Set("ShopName", NewString("General Store"))
		row.Set("Items", NewStructArray([]*Row{item1, item2}))
		sheet.Rows = []*Row{row}

		buf, err := Serialize(sheet)
		So(err, ShouldBeNil)

		got, err := Parse(buf)
		So(err, ShouldBeNil)

		items, err := mustGet(got.Rows[0], "Items").AsStructArray()
		So(err, ShouldBeNil)
		So(items, ShouldHaveLength, 2)

		name1, _ := mustGet(items[0], "ItemName").AsString()
		So(name1, ShouldEqual, "Apple")
		count2, _ := mustGet(items[1], "Count").AsInt()
		So(count2, ShouldEqual, int32(1))
	})
}

func mustGet(row *Row, name string) Value {
	v, ok := row.Get(name)
	if !ok {
		panic("missing field: " + name)
	}
	return v
}
