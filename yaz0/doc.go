// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package yaz0 implements the Yaz0 stream container: a 16-byte big-endian
// header (magic, uncompressed size, data alignment, reserved) followed by
// an LZ77-like group-coded stream. See spec.md §4.2 for the exact bit
// layout of groups and back-references.
//
// Decompress performs full bounds checking on every reader and writer
// access and returns an *nxerr.InvalidData on a malformed stream.
// DecompressUnsafe reports no error for a malformed body and must only be
// run on input already known to be well-formed: a truncated stream ends
// decoding early, and a back-reference copy is clamped so it never reads
// or writes outside the output buffer, so a corrupt stream can at worst
// leave garbage in that buffer, never outside it.
package yaz0
