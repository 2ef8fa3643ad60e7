// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package nxres is the embedded resource bundle spec.md §6 describes:
// the BOTW name lists AAMP's default NameTable seeds itself from, and
// the aglenv extension→alignment table SARC's writer consults. A real
// BOTW dump ships tens of thousands of names; this bundle carries a
// small grounded sample so the loader, the NameTable lookup algorithm,
// and the alignment wiring all have real data to exercise. Absence or
// thinness of this data degrades name recovery and alignment inference
// but never breaks binary round-trip (spec.md §6).
package nxres

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
)

//go:embed data/botw_hashed_names.txt
var hashedNamesRaw []byte

//go:embed data/botw_numbered_names.txt
var numberedNamesRaw []byte

//go:embed data/aglenv_file_info.json
var aglenvRaw []byte

// HashedNames returns the one-name-per-line known name list.
func HashedNames() []string {
	return splitLines(hashedNamesRaw)
}

// NumberedNameTemplates returns the printf-style ("%d") templates used
// to guess numbered sibling names (spec.md §4.6 step 3).
func NumberedNameTemplates() []string {
	return splitLines(numberedNamesRaw)
}

func splitLines(raw []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// AglenvEntry is one {ext, bext, align} record from aglenv_file_info.json.
type AglenvEntry struct {
	Ext   string `json:"ext"`
	BExt  string `json:"bext"`
	Align uint32 `json:"align"`
}

// LoadExtensionAlignments parses aglenv_file_info.json into a map of
// (unprefixed) file extension to SARC-writer minimum alignment, the form
// sarc.Writer.WithExtensionAlignment consumes.
func LoadExtensionAlignments() (map[string]uint32, error) {
	var entries []AglenvEntry
	if err := json.Unmarshal(aglenvRaw, &entries); err != nil {
		return nil, err
	}
	out := make(map[string]uint32, len(entries))
	for _, e := range entries {
		out[e.Ext] = e.Align
	}
	return out, nil
}
