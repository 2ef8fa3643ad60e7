// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package byml

import "github.com/nxtoolkit/nxbin/binaryio"

const headerSize = 16

// VersionMin and VersionMax bound the baseline-conformant version range
// (spec.md §4.4: "Validate version ∈ {2,3,4}").
const (
	VersionMin = 2
	VersionMax = 4
)

// ExtendedVersionMin and ExtendedVersionMax bound the optional MK8-family
// extended range.
const (
	ExtendedVersionMin = 1
	ExtendedVersionMax = 10
)

func magicFor(order binaryio.Order) []byte {
	if order == binaryio.BigEndian {
		return []byte("BY")
	}
	return []byte("YB")
}

func orderForMagic(magic []byte) (binaryio.Order, bool) {
	switch string(magic) {
	case "BY":
		return binaryio.BigEndian, true
	case "YB":
		return binaryio.LittleEndian, true
	}
	return binaryio.BigEndian, false
}

// validVersion reports whether version is acceptable, given whether
// extended (MK8-family) documents are permitted.
func validVersion(version uint16, extended bool) bool {
	if extended {
		return version >= ExtendedVersionMin && version <= ExtendedVersionMax
	}
	return version >= VersionMin && version <= VersionMax
}
