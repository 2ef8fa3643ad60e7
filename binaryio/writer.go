// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package binaryio

import (
	"math"

	"github.com/nxtoolkit/nxbin/nxerr"
)

// Writer is an extends-on-write byte buffer with a cursor, mirroring
// Reader. Writes past the current end of the buffer first zero-extend it
// (grow_buffer in spec.md §4.1) so that out-of-order writes — common in
// these formats, where a header field is patched back in after its
// target has been emitted — behave like writing into a sparse file.
type Writer struct {
	buf   []byte
	pos   int
	Order Order
}

// NewWriter returns an empty Writer in the given byte order.
func NewWriter(order Order) *Writer {
	return &Writer{Order: order}
}

// Bytes returns the buffer written so far.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the current buffer length (the high-water mark, not the
// cursor position).
func (w *Writer) Len() int { return len(w.buf) }

// Pos returns the current cursor position.
func (w *Writer) Pos() int { return w.pos }

// Seek moves the cursor to an absolute position. Seeking past the current
// end of the buffer is allowed; grow_buffer is not invoked until the next
// write.
func (w *Writer) Seek(pos int) error {
	if pos < 0 {
		return nxerr.NewInvalidData("seek to negative offset %d", pos)
	}
	w.pos = pos
	return nil
}

// Align writes zero bytes until the cursor sits on a multiple of align
// (which must be a power of two).
func (w *Writer) Align(align int) {
	target := alignUp(w.pos, align)
	if target > w.pos {
		w.WriteBytes(make([]byte, target-w.pos))
	}
}

// grow zero-extends the buffer so that it's at least n bytes long.
func (w *Writer) grow(n int) {
	if n <= len(w.buf) {
		return
	}
	w.buf = append(w.buf, make([]byte, n-len(w.buf))...)
}

// WriteBytes writes b at the cursor and advances it.
func (w *Writer) WriteBytes(b []byte) {
	w.grow(w.pos + len(b))
	copy(w.buf[w.pos:], b)
	w.pos += len(b)
}

// WriteU8 writes a single unsigned byte.
func (w *Writer) WriteU8(v uint8) { w.WriteBytes([]byte{v}) }

// WriteI8 writes a single signed byte.
func (w *Writer) WriteI8(v int8) { w.WriteU8(uint8(v)) }

// WriteBool writes a single byte, 1 for true and 0 for false.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
}

// WriteU16 writes an unsigned 16-bit integer in the writer's declared
// order.
func (w *Writer) WriteU16(v uint16) {
	b := make([]byte, 2)
	w.Order.stdlib().PutUint16(b, v)
	w.WriteBytes(b)
}

// WriteI16 writes a signed 16-bit integer.
func (w *Writer) WriteI16(v int16) { w.WriteU16(uint16(v)) }

// WriteU32 writes an unsigned 32-bit integer.
func (w *Writer) WriteU32(v uint32) {
	b := make([]byte, 4)
	w.Order.stdlib().PutUint32(b, v)
	w.WriteBytes(b)
}

// WriteI32 writes a signed 32-bit integer.
func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

// WriteU64 writes an unsigned 64-bit integer.
func (w *Writer) WriteU64(v uint64) {
	b := make([]byte, 8)
	w.Order.stdlib().PutUint64(b, v)
	w.WriteBytes(b)
}

// WriteI64 writes a signed 64-bit integer.
func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) }

// WriteF32 writes an IEEE-754 binary32 float.
func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }

// WriteF64 writes an IEEE-754 binary64 float.
func (w *Writer) WriteF64(v float64) { w.WriteU64(math.Float64bits(v)) }

// WriteU24 writes a 24-bit unsigned integer in the writer's declared
// order layout (see Reader.ReadU24). v must fit in 24 bits.
func (w *Writer) WriteU24(v uint32) error {
	if v > 0xFFFFFF {
		return nxerr.NewArithmetic("value %#x does not fit in 24 bits", v)
	}
	var b [3]byte
	if w.Order == BigEndian {
		b[0], b[1], b[2] = byte(v>>16), byte(v>>8), byte(v)
	} else {
		b[0], b[1], b[2] = byte(v), byte(v>>8), byte(v>>16)
	}
	w.WriteBytes(b[:])
	return nil
}

// WriteCString writes s followed by a single NUL terminator.
func (w *Writer) WriteCString(s string) {
	w.WriteBytes([]byte(s))
	w.WriteU8(0)
}

// Patch runs fn with the cursor at offset, then restores the cursor to
// wherever it was before the call. This is the write_current_offset_at /
// "back-patch a header field" idiom every format's serializer uses: the
// header is written with placeholder zeros, the body is emitted, and then
// Patch revisits the placeholder once its true value is known.
func (w *Writer) Patch(offset int, fn func(*Writer)) {
	saved := w.pos
	w.pos = offset
	fn(w)
	w.pos = saved
}

// PatchOffset writes (w.Pos() - base) as a typed integer at ptrOffset,
// without moving the cursor. size must be 1, 2, 4, or 8.
func (w *Writer) PatchOffset(ptrOffset, base, size int) error {
	delta := w.pos - base
	if delta < 0 {
		return nxerr.NewArithmetic("negative offset: cursor %d before base %d", w.pos, base)
	}
	w.Patch(ptrOffset, func(w *Writer) {
		switch size {
		case 1:
			w.WriteU8(uint8(delta))
		case 2:
			w.WriteU16(uint16(delta))
		case 4:
			w.WriteU32(uint32(delta))
		case 8:
			w.WriteU64(uint64(delta))
		}
	})
	if size != 1 && size != 2 && size != 4 && size != 8 {
		return nxerr.NewArithmetic("unsupported patch width %d", size)
	}
	return nil
}
