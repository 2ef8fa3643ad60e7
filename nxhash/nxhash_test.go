// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package nxhash

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCRC32(t *testing.T) {
	t.Parallel()

	Convey("CRC32", t, func() {
		Convey("param_root literal vector", func() {
			So(CRC32("param_root"), ShouldEqual, uint32(0x2D2D4F70))
		})
	})
}

func TestSarcNameHash(t *testing.T) {
	t.Parallel()

	Convey("SarcNameHash", t, func() {
		Convey("empty name hashes to zero", func() {
			So(SarcNameHash("", DefaultSarcMultiplier), ShouldEqual, uint32(0))
		})

		Convey("is order sensitive", func() {
			So(SarcNameHash("ab", DefaultSarcMultiplier),
				ShouldNotEqual, SarcNameHash("ba", DefaultSarcMultiplier))
		})
	})
}
