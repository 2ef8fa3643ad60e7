// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package nxbin collects the binary container and parameter formats used by
// a game data pipeline: Yaz0 (LZ-style stream compression), SARC (file
// archive), BYML (typed tree document), and AAMP (named parameter archive).
// Each format lives in its own leaf package and is usable independently:
//
//   - yaz0: compressor/decompressor for the Yaz0 container.
//   - sarc: reader and writer for the SARC archive format.
//   - byml: parser/serializer and YAML bridge for the BYML tree document.
//   - aamp: parser/serializer, YAML bridge, and name-recovery table for the
//     AAMP parameter archive.
//   - gsheet: reader/writer for the Grezzo datasheet format (a typed
//     schema plus a row table) that ships alongside the other four
//     formats.
//
// binaryio, nxhash, valuemodel, and nxres are shared support packages: a
// cursor-based reader/writer, the two name-hash algorithms the formats use,
// the value types AAMP parameters carry, and the embedded resource bundle
// (BOTW name lists, extension-alignment table). aamp's NameTable loads the
// name lists; sarc does not import nxres, and the alignment table reaches
// sarc.Writer only when a caller passes its entries in.
//
// Every format follows the same shape: parse turns a byte slice into an
// in-memory tree, and serialize turns that tree back into bytes. A parsed
// SARC archive's file data borrows from the input slice.
// BYML and AAMP additionally expose a YAML text representation of the same
// tree. None of the packages do their own file I/O, network I/O, or
// background work; callers supply byte slices and io.Writers and get back
// either a tree or an error.
//
// TODO(nxbin): wire a streaming parse path if a caller ever needs documents
// that don't fit in RAM; today every parser requires the whole input up
// front, matching the reference implementation this module is ported from.
package nxbin
