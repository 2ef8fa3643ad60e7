// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package valuemodel holds the value types AAMP parameters carry:
// fixed-size float tuples, the Curve record, and the fixed-capacity safe
// string AAMP embeds at three different sizes. It defines no numeric
// wrapper types; BYML and AAMP tell integer kinds such as U32 and S32
// apart by their own node and parameter type tags.
package valuemodel

import (
	"go.chromium.org/luci/common/errors"

	"github.com/nxtoolkit/nxbin/binaryio"
)

// Vector2f is a fixed pair of binary32 components.
type Vector2f struct{ X, Y float32 }

// Vector3f is a fixed triple of binary32 components.
type Vector3f struct{ X, Y, Z float32 }

// Vector4f is a fixed quadruple of binary32 components.
type Vector4f struct{ X, Y, Z, W float32 }

// Color4f is an {r,g,b,a} binary32 color.
type Color4f struct{ R, G, B, A float32 }

// Quatf is an {a,b,c,d} binary32 quaternion. Per spec.md's open questions,
// this module never applies quaternion-interpolation semantics to it; it
// is carried as an opaque 4-float tuple.
type Quatf struct{ A, B, C, D float32 }

// CurveFloats is the number of trailing binary32 samples a Curve carries.
const CurveFloats = 30

// Curve is {a:u32, b:u32, floats:[30]binary32}, a fixed 0x80-byte record.
// Per spec.md's open questions, float-scaling semantics on the curve
// samples are never applied; this module treats them as an identity
// transform (the samples are stored and returned exactly as parsed).
type Curve struct {
	A, B   uint32
	Floats [CurveFloats]float32
}

// CurveSize is the fixed on-disk size of a Curve: 4 + 4 + 30*4 = 0x80 bytes.
const CurveSize = 4 + 4 + CurveFloats*4

func readVec(r *binaryio.Reader, n int) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		v, err := r.ReadF32()
		if err != nil {
			return nil, errors.Annotate(err, "reading float %d of %d", i, n).Err()
		}
		out[i] = v
	}
	return out, nil
}

// ReadVector2f reads a Vector2f.
func ReadVector2f(r *binaryio.Reader) (Vector2f, error) {
	v, err := readVec(r, 2)
	if err != nil {
		return Vector2f{}, err
	}
	return Vector2f{v[0], v[1]}, nil
}

// ReadVector3f reads a Vector3f.
func ReadVector3f(r *binaryio.Reader) (Vector3f, error) {
	v, err := readVec(r, 3)
	if err != nil {
		return Vector3f{}, err
	}
	return Vector3f{v[0], v[1], v[2]}, nil
}

// ReadVector4f reads a Vector4f.
func ReadVector4f(r *binaryio.Reader) (Vector4f, error) {
	v, err := readVec(r, 4)
	if err != nil {
		return Vector4f{}, err
	}
	return Vector4f{v[0], v[1], v[2], v[3]}, nil
}

// ReadColor4f reads a Color4f.
func ReadColor4f(r *binaryio.Reader) (Color4f, error) {
	v, err := readVec(r, 4)
	if err != nil {
		return Color4f{}, err
	}
	return Color4f{v[0], v[1], v[2], v[3]}, nil
}

// ReadQuatf reads a Quatf.
func ReadQuatf(r *binaryio.Reader) (Quatf, error) {
	v, err := readVec(r, 4)
	if err != nil {
		return Quatf{}, err
	}
	return Quatf{v[0], v[1], v[2], v[3]}, nil
}

// ReadCurve reads a Curve.
func ReadCurve(r *binaryio.Reader) (Curve, error) {
	var c Curve
	var err error
	if c.A, err = r.ReadU32(); err != nil {
		return Curve{}, errors.Annotate(err, "reading curve.a").Err()
	}
	if c.B, err = r.ReadU32(); err != nil {
		return Curve{}, errors.Annotate(err, "reading curve.b").Err()
	}
	floats, err := readVec(r, CurveFloats)
	if err != nil {
		return Curve{}, errors.Annotate(err, "reading curve floats").Err()
	}
	copy(c.Floats[:], floats)
	return c, nil
}

func writeVec(w *binaryio.Writer, v []float32) {
	for _, f := range v {
		w.WriteF32(f)
	}
}

// Write writes v2.
func (v Vector2f) Write(w *binaryio.Writer) { writeVec(w, []float32{v.X, v.Y}) }

// Write writes v3.
func (v Vector3f) Write(w *binaryio.Writer) { writeVec(w, []float32{v.X, v.Y, v.Z}) }

// Write writes v4.
func (v Vector4f) Write(w *binaryio.Writer) { writeVec(w, []float32{v.X, v.Y, v.Z, v.W}) }

// Write writes c.
func (c Color4f) Write(w *binaryio.Writer) { writeVec(w, []float32{c.R, c.G, c.B, c.A}) }

// Write writes q.
func (q Quatf) Write(w *binaryio.Writer) { writeVec(w, []float32{q.A, q.B, q.C, q.D}) }

// Write writes c.
func (c Curve) Write(w *binaryio.Writer) {
	w.WriteU32(c.A)
	w.WriteU32(c.B)
	for _, f := range c.Floats {
		w.WriteF32(f)
	}
}

// FixedSafeString is an N-capacity UTF-8 string with a fixed storage size,
// truncating on assignment. AAMP uses capacities 32, 64, and 256
// (String32Capacity/String64Capacity/String256Capacity below); other
// capacities are valid for callers building their own fixed strings.
type FixedSafeString struct {
	cap   int
	value string
}

// Capacities AAMP parameters are specified to use (spec.md §3).
const (
	String32Capacity  = 32
	String64Capacity  = 64
	String256Capacity = 256
)

// NewFixedSafeString returns a FixedSafeString with the given storage
// capacity, truncating s to fit (capacity - 1 bytes, reserving room for
// the NUL terminator the binary encoding always writes).
func NewFixedSafeString(capacity int, s string) FixedSafeString {
	f := FixedSafeString{cap: capacity}
	f.Set(s)
	return f
}

// Cap returns the fixed storage capacity.
func (f FixedSafeString) Cap() int { return f.cap }

// String returns the current value.
func (f FixedSafeString) String() string { return f.value }

// Set truncates s to the string's capacity (reserving one byte for the
// NUL terminator) and stores it.
func (f *FixedSafeString) Set(s string) {
	max := f.cap - 1
	if max < 0 {
		max = 0
	}
	if len(s) > max {
		s = s[:max]
	}
	f.value = s
}

// ReadFixedSafeString reads a FixedSafeString of the given capacity: up
// to capacity bytes, truncated at the first embedded NUL.
func ReadFixedSafeString(r *binaryio.Reader, capacity int) (FixedSafeString, error) {
	s, err := r.ReadCString(capacity)
	if err != nil {
		return FixedSafeString{}, errors.Annotate(err, "reading fixed safe string (capacity %d)", capacity).Err()
	}
	return FixedSafeString{cap: capacity, value: s}, nil
}

// Write writes exactly Cap() bytes: the string's bytes followed by
// NUL-padding.
func (f FixedSafeString) Write(w *binaryio.Writer) {
	b := make([]byte, f.cap)
	copy(b, f.value)
	w.WriteBytes(b)
}
