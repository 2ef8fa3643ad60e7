// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package binaryio provides the cursor-based reader and writer that every
// format package in this module builds on: a byte slice (or extending
// buffer) plus a cursor and a declared endianness, with helpers for the
// handful of encodings that recur across Yaz0/SARC/BYML/AAMP — aligned
// seeks, the 24-bit integer layouts both formats use, NUL-terminated
// strings, and a patch-back helper for offsets that are only known once
// their target has been written.
package binaryio
