// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sarc

import "github.com/nxtoolkit/nxbin/binaryio"

// On-disk layout constants (spec.md §4.3).
const (
	headerSize  = 0x14
	sfatHdrSize = 0x0C
	sfatEntSize = 0x10
	sfntHdrSize = 0x08

	sarcVersion uint16 = 0x0100
)

// BOM values that select an archive's endianness.
const (
	bomBig    uint16 = 0xFEFF
	bomLittle uint16 = 0xFFFE
)

func bomFor(order binaryio.Order) uint16 {
	if order == binaryio.BigEndian {
		return bomBig
	}
	return bomLittle
}

func orderForBOM(bom uint16) (binaryio.Order, bool) {
	switch bom {
	case bomBig:
		return binaryio.BigEndian, true
	case bomLittle:
		return binaryio.LittleEndian, true
	default:
		return binaryio.LittleEndian, false
	}
}
