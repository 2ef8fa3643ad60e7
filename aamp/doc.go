// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package aamp reads, writes, and YAML-bridges AAMP parameter archives:
// CRC32-keyed trees of ParameterList/ParameterObject/Parameter, version 2,
// little-endian, UTF-8 only.
package aamp
