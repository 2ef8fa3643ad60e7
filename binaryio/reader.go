// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package binaryio

import (
	"encoding/binary"
	"math"

	"go.chromium.org/luci/common/errors"

	"github.com/nxtoolkit/nxbin/nxerr"
)

// Order is the byte order a Reader or Writer operates in. Unlike
// encoding/binary.ByteOrder, it's a plain enum so format headers (which
// encode their own endianness as a BOM byte) can select it with a simple
// comparison instead of carrying an interface value around.
type Order bool

// The two orders a Reader/Writer can be constructed with.
const (
	LittleEndian Order = false
	BigEndian    Order = true
)

func (o Order) stdlib() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Reader is a cursor over a borrowed byte slice. It never copies the input;
// callers that need an owned copy of a read value (e.g. a string or a
// sub-slice that will outlive the input) must copy it themselves.
type Reader struct {
	buf   []byte
	pos   int
	Order Order
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte, order Order) *Reader {
	return &Reader{buf: buf, Order: order}
}

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// Pos returns the current cursor position.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Bytes returns the full underlying buffer (not just the unread tail).
func (r *Reader) Bytes() []byte { return r.buf }

// Seek moves the cursor to an absolute position. It's a bounds error to
// seek past the end of the buffer; seeking exactly to len(buf) is allowed
// (it just means "at EOF").
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.buf) {
		return nxerr.NewInvalidData("seek to %d out of range [0, %d]", pos, len(r.buf))
	}
	r.pos = pos
	return nil
}

// SeekAligned moves the cursor forward to the next multiple of align
// (which must be a power of two), or leaves it in place if already
// aligned.
func (r *Reader) SeekAligned(align int) error {
	return r.Seek(alignUp(r.pos, align))
}

func alignUp(pos, align int) int {
	return (pos + align - 1) &^ (align - 1)
}

// TryBytes returns the next n bytes without advancing the cursor, or
// (nil, false) if fewer than n bytes remain. This is the "optional" form
// spec.md calls for: it never errors, it just reports absence.
func (r *Reader) TryBytes(n int) ([]byte, bool) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, false
	}
	return r.buf[r.pos : r.pos+n], true
}

// ReadBytes reads and returns the next n bytes, advancing the cursor. It
// returns an *nxerr.InvalidData if fewer than n bytes remain.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, ok := r.TryBytes(n)
	if !ok {
		return nil, nxerr.NewInvalidData("short read: wanted %d bytes at %d, have %d", n, r.pos, r.Remaining())
	}
	r.pos += n
	return b, nil
}

// MustReadBytes reads n bytes without a bounds check. The caller opts into
// this explicitly; it panics (via a slice-bounds panic) rather than
// silently misbehaving, but it performs no validation of its own and must
// only be used on input already known to be well-formed.
func (r *Reader) MustReadBytes(n int) []byte {
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

// PeekAt reads n bytes at an absolute offset without touching the cursor.
func (r *Reader) PeekAt(pos, n int) ([]byte, bool) {
	if pos < 0 || n < 0 || pos+n > len(r.buf) {
		return nil, false
	}
	return r.buf[pos : pos+n], true
}

func readPOD[T any](r *Reader, size int, decode func([]byte, binary.ByteOrder) T) (T, error) {
	var zero T
	b, err := r.ReadBytes(size)
	if err != nil {
		return zero, errors.Annotate(err, "reading %d-byte value", size).Err()
	}
	return decode(b, r.Order.stdlib()), nil
}

// ReadU8 reads a single unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadI8 reads a single signed byte.
func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

// ReadBool reads a single byte and reports whether it's non-zero.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadU8()
	return v != 0, err
}

// ReadU16 reads an unsigned 16-bit integer in the reader's declared order,
// byte-swapping as needed.
func (r *Reader) ReadU16() (uint16, error) {
	return readPOD(r, 2, func(b []byte, o binary.ByteOrder) uint16 { return o.Uint16(b) })
}

// ReadI16 reads a signed 16-bit integer.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadU32 reads an unsigned 32-bit integer.
func (r *Reader) ReadU32() (uint32, error) {
	return readPOD(r, 4, func(b []byte, o binary.ByteOrder) uint32 { return o.Uint32(b) })
}

// ReadI32 reads a signed 32-bit integer.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadU64 reads an unsigned 64-bit integer.
func (r *Reader) ReadU64() (uint64, error) {
	return readPOD(r, 8, func(b []byte, o binary.ByteOrder) uint64 { return o.Uint64(b) })
}

// ReadI64 reads a signed 64-bit integer.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// ReadF32 reads an IEEE-754 binary32 float.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

// ReadF64 reads an IEEE-754 binary64 float.
func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	return math.Float64frombits(v), err
}

// ReadU24 reads a 24-bit unsigned integer laid out per the reader's
// declared order: three consecutive bytes, most-significant first in
// BigEndian, least-significant first in LittleEndian. This is the layout
// both BYML (hash-node key indices, string-table counts) and AAMP (the
// data_rel_offset field) use.
func (r *Reader) ReadU24() (uint32, error) {
	b, err := r.ReadBytes(3)
	if err != nil {
		return 0, errors.Annotate(err, "reading u24").Err()
	}
	if r.Order == BigEndian {
		return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

// ReadCString reads a NUL-terminated string. If maxLen >= 0, at most
// maxLen bytes are scanned for the terminator (the string is truncated to
// that length if no NUL is found within it); this is the form
// FixedSafeString<N> parsing uses. If maxLen < 0, the scan is unbounded
// and a missing terminator is an *nxerr.InvalidData.
func (r *Reader) ReadCString(maxLen int) (string, error) {
	search := r.buf[r.pos:]
	if maxLen >= 0 && maxLen < len(search) {
		search = search[:maxLen]
	}
	idx := -1
	for i, c := range search {
		if c == 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		if maxLen >= 0 {
			// FixedSafeString<N> semantics: no embedded NUL found within the
			// fixed capacity means the string fills the whole field.
			s := string(search)
			r.pos += len(search)
			return s, nil
		}
		return "", nxerr.NewInvalidData("unterminated string at offset %d", r.pos)
	}
	s := string(search[:idx])
	r.pos += idx + 1
	return s, nil
}

// ReadNInto calls readOne count times and returns the values it read, in
// order, as a new slice; the first error stops the read.
func ReadNInto[T any](r *Reader, count int, readOne func(*Reader) (T, error)) ([]T, error) {
	out := make([]T, count)
	for i := 0; i < count; i++ {
		v, err := readOne(r)
		if err != nil {
			return nil, errors.Annotate(err, "reading element %d of %d", i, count).Err()
		}
		out[i] = v
	}
	return out, nil
}
