// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package nxerr defines the small error taxonomy shared by every format
// package in this module: InvalidData, TypeError, Unsupported, and
// Arithmetic. Callers that need to distinguish error classes (rather than
// just logging the annotated message) should use errors.As against these
// types; everything else should flow through
// go.chromium.org/luci/common/errors the way the rest of this module
// does.
package nxerr

import "fmt"

// InvalidData reports a malformed binary input: bad magic, truncation, an
// out-of-range offset, or a disallowed version.
type InvalidData struct {
	Reason string
}

func (e *InvalidData) Error() string { return fmt.Sprintf("invalid data: %s", e.Reason) }

// NewInvalidData builds an *InvalidData with a formatted reason.
func NewInvalidData(format string, args ...interface{}) *InvalidData {
	return &InvalidData{Reason: fmt.Sprintf(format, args...)}
}

// TypeError reports that a value accessor was called against the wrong
// tagged-union variant.
type TypeError struct {
	Want, Got string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: wanted %s, got %s", e.Want, e.Got)
}

// NewTypeError builds a *TypeError.
func NewTypeError(want, got string) *TypeError {
	return &TypeError{Want: want, Got: got}
}

// Unsupported reports a format feature this implementation declines to
// handle, such as BYML path-table nodes.
type Unsupported struct {
	Feature string
}

func (e *Unsupported) Error() string { return fmt.Sprintf("unsupported: %s", e.Feature) }

// Arithmetic reports that an offset or count could not be represented in
// the target compact encoding (e.g. AAMP's u16*4 / u24*4 offset fields).
type Arithmetic struct {
	Reason string
}

func (e *Arithmetic) Error() string { return fmt.Sprintf("arithmetic: %s", e.Reason) }

// NewArithmetic builds an *Arithmetic with a formatted reason.
func NewArithmetic(format string, args ...interface{}) *Arithmetic {
	return &Arithmetic{Reason: fmt.Sprintf(format, args...)}
}
