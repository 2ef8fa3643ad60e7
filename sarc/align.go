// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sarc

import (
	"encoding/binary"
	"strings"

	"github.com/nxtoolkit/nxbin/binaryio"
)

// Mode selects which alignment-detection heuristics a Writer applies
// (spec.md §4.3 "Alignment policy (write)").
type Mode int

const (
	// ModeNew only forces nested-SARC alignment when that nested archive
	// isn't otherwise produced by a BOTW resource factory path (which
	// this library, having no factory concept of its own, always assumes
	// is the case — see ModeLegacy for the unconditional form).
	ModeNew Mode = iota
	// ModeLegacy matches the older engine's behavior: nested SARC files
	// are always forced to 0x2000 alignment, and format detection always
	// runs (not just for non-resource-factory files).
	ModeLegacy
)

// builtinExtensionAlignment is the hard-coded part of the extension
// table spec.md §4.3 describes; callers can extend or override it with
// WithExtensionAlignment or by supplying the aglenv_file_info.json-backed
// table from nxres.
func builtinExtensionAlignment(order binaryio.Order) map[string]int {
	m := map[string]int{
		"ksky":   8,
		"bksky":  8,
		"gtx":    0x2000,
		"sharcb": 0x1000,
		"sharc":  0x1000,
		"baglmf": 0x80,
	}
	if order == binaryio.BigEndian {
		m["bffnt"] = 0x2000
	} else {
		m["bffnt"] = 0x1000
	}
	return m
}

func extOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// detectNewBinaryHeaderAlignment implements the "New binary file header"
// heuristic: a valid BOM at offset 0x0C and a file_size:u32 at 0x1C equal
// to the file's length.
func detectNewBinaryHeaderAlignment(data []byte) (int, bool) {
	if len(data) < 0x20 {
		return 0, false
	}
	bom := binary.BigEndian.Uint16(data[0x0C:])
	var order binaryio.Order
	switch bom {
	case bomBig:
		order = binaryio.BigEndian
	case bomLittle:
		order = binaryio.LittleEndian
	default:
		return 0, false
	}
	var fileSize uint32
	if order == binaryio.BigEndian {
		fileSize = binary.BigEndian.Uint32(data[0x1C:])
	} else {
		fileSize = binary.LittleEndian.Uint32(data[0x1C:])
	}
	if int(fileSize) != len(data) {
		return 0, false
	}
	return 1 << data[0x0E], true
}

// detectBFLIMFooterAlignment implements the "BFLIM footer" heuristic: the
// last 0x28 bytes start with "FLIM" and carry a big-endian u16 alignment
// at end-0x08.
func detectBFLIMFooterAlignment(data []byte) (int, bool) {
	const footerSize = 0x28
	if len(data) < footerSize {
		return 0, false
	}
	footer := data[len(data)-footerSize:]
	if string(footer[:4]) != "FLIM" {
		return 0, false
	}
	align := binary.BigEndian.Uint16(data[len(data)-0x08:])
	return int(align), true
}

// detectFormatAlignment runs the format-sniffing heuristics against a
// file's contents; it never consults the name or extension.
func detectFormatAlignment(data []byte) (int, bool) {
	if a, ok := detectNewBinaryHeaderAlignment(data); ok {
		return a, true
	}
	if a, ok := detectBFLIMFooterAlignment(data); ok {
		return a, true
	}
	return 0, false
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}

// fileAlignment computes the LCM of the configured minimum, any
// extension-mapped requirement, and any format-detected requirement, per
// spec.md §4.3.
func fileAlignment(mode Mode, order binaryio.Order, name string, data []byte, extAlign map[string]int, minAlign int) int {
	align := minAlign
	if a, ok := extAlign[extOf(name)]; ok {
		align = lcm(align, a)
	}

	if mode == ModeLegacy && IsSarc(data) {
		align = lcm(align, 0x2000)
	}

	if mode == ModeLegacy {
		if a, ok := detectFormatAlignment(data); ok {
			align = lcm(align, a)
		}
	} else {
		// ModeNew: this library has no BOTW resource-factory concept of its
		// own, so it always treats files as "non-resource-factory" and runs
		// format detection unconditionally, same as ModeLegacy, except it
		// doesn't force nested-SARC alignment.
		if a, ok := detectFormatAlignment(data); ok {
			align = lcm(align, a)
		}
	}

	return align
}

// IsSarc reports whether data looks like the start of a SARC archive.
func IsSarc(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "SARC"
}
