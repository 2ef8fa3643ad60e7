// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package sarc reads and writes the SARC archive format: a 0x14-byte
// header, a name-hash-sorted SFAT file table, an SFNT name table, and a
// data region. See spec.md §4.3 for the exact on-disk layout and the
// write-time alignment policy.
//
// Parse produces a read-only Archive view whose File.Data slices borrow
// directly from the input buffer — they're valid for as long as the
// input is. Writer builds an archive incrementally (Add/Remove) and
// Write() produces a fresh, independently-owned byte slice.
package sarc
