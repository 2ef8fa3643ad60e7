// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package nxhash implements the two name-hash algorithms these formats
// use: the CRC-32 (polynomial 0xEDB88320) AAMP keys parameter names with,
// and the simple multiplicative hash SARC sorts its file table by.
package nxhash

import "hash/crc32"

// CRC32 returns the CRC-32 (IEEE 802.3 polynomial, 0xEDB88320 reflected)
// of s, which is the name hash AAMP uses for every ParameterList,
// ParameterObject, and Parameter name. The stdlib's crc32.IEEETable is
// exactly this polynomial; no third-party implementation does anything
// different for this well-known, fully-specified algorithm, so this is
// the one place this module reaches for hash/crc32 directly rather than
// an ecosystem package.
func CRC32(s string) uint32 {
	return crc32.ChecksumIEEE([]byte(s))
}

// CRC32Bytes is CRC32 over a byte slice, for callers that already have
// one (e.g. re-hashing a name read out of a binary buffer without an
// intermediate string allocation).
func CRC32Bytes(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// DefaultSarcMultiplier is the hash multiplier every SARC archive in
// practice uses; spec.md §3 calls this out as the model's default.
const DefaultSarcMultiplier uint32 = 0x65

// SarcNameHash computes SARC's file-name hash: hash = 0, then for each
// byte c, hash = hash*multiplier + c, wrapping modulo 2**32. The archive
// header carries its own multiplier (SARC's on-disk layout lets a writer
// choose one other than the default, though nothing in practice does),
// so this takes it as a parameter rather than hard-coding
// DefaultSarcMultiplier.
func SarcNameHash(name string, multiplier uint32) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*multiplier + uint32(name[i])
	}
	return h
}
