// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sarc

import (
	"bytes"
	"compress/flate"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"

	"go.chromium.org/luci/common/errors"
)

// ChecksumScheme is an optional integrity trailer a Writer can append
// after a SARC archive's data section. It is not part of the SARC format
// itself (readers that don't know about it simply stop at file_size, as
// they always have); it exists for callers who want the same
// pluggable-digest trailer the teacher format uses, adapted directly
// from sar/sardata/checksum.go.
type ChecksumScheme byte

// Supported trailer digests.
const (
	ChecksumSHA2_256 ChecksumScheme = iota + 1
	ChecksumSHA2_512
	ChecksumBLAKE2s
	ChecksumBLAKE2b
	ChecksumSHA3_256
	ChecksumSHA3_512

	// ChecksumNULL writes a trailer with a zero-length digest, bypassing
	// verification while keeping the trailer's shape uniform.
	ChecksumNULL ChecksumScheme = 255
)

// Valid returns nil iff the scheme is one of the constants above.
func (c ChecksumScheme) Valid() error {
	switch c {
	case ChecksumSHA2_256, ChecksumSHA2_512, ChecksumBLAKE2s, ChecksumBLAKE2b,
		ChecksumSHA3_256, ChecksumSHA3_512, ChecksumNULL:
		return nil
	}
	return errors.Reason("unknown sarc checksum scheme %#x", byte(c)).Err()
}

type nullHash struct{}

func (nullHash) Reset()                      {}
func (nullHash) BlockSize() int              { return 0 }
func (nullHash) Size() int                   { return 0 }
func (nullHash) Sum(buf []byte) []byte       { return buf }
func (nullHash) Write(p []byte) (int, error) { return len(p), nil }

// Hash returns the hash.Hash implementing this scheme.
func (c ChecksumScheme) Hash() hash.Hash {
	switch c {
	case ChecksumSHA2_256:
		return sha256.New()
	case ChecksumSHA2_512:
		return sha512.New()
	case ChecksumBLAKE2s:
		h, _ := blake2s.New256(nil)
		return h
	case ChecksumBLAKE2b:
		h, _ := blake2b.New512(nil)
		return h
	case ChecksumSHA3_256:
		return sha3.New256()
	case ChecksumSHA3_512:
		return sha3.New512()
	case ChecksumNULL:
		return nullHash{}
	}
	panic(c.Valid())
}

// AppendTrailer appends {scheme, digest bytes, digest length byte} after
// archive (the bytes Writer.Write returned). The trailer's format and the
// "read the last byte to learn the digest length" trick are taken
// verbatim from sar/sardata/checksum.go's ChecksumScheme.Writer, renamed
// for this package.
func AppendTrailer(archive []byte, scheme ChecksumScheme) ([]byte, error) {
	if err := scheme.Valid(); err != nil {
		return nil, err
	}
	h := scheme.Hash()
	if _, err := h.Write(archive); err != nil {
		return nil, errors.Annotate(err, "hashing sarc archive for trailer").Err()
	}
	digest := h.Sum(nil)
	if len(digest) > 255 {
		return nil, errors.Reason("checksum %(scheme)v produces a digest over 255 bytes").
			D("scheme", scheme).Err()
	}
	out := make([]byte, 0, len(archive)+len(digest)+2)
	out = append(out, archive...)
	out = append(out, byte(scheme))
	out = append(out, digest...)
	out = append(out, byte(len(digest)))
	return out, nil
}

// ErrMismatchedChecksum is returned by VerifyTrailer when the trailing
// digest doesn't match the archive body.
type ErrMismatchedChecksum struct {
	Scheme          ChecksumScheme
	Nominal, Actual []byte
}

func (e *ErrMismatchedChecksum) Error() string {
	return fmt.Sprintf("mismatched sarc trailer checksum (%v): %x expected %x", e.Scheme, e.Nominal, e.Actual)
}

// VerifyTrailer parses the trailer AppendTrailer wrote and verifies it
// against the archive bytes it covers, returning the archive body
// (without the trailer) on success.
func VerifyTrailer(buf []byte) (archive []byte, scheme ChecksumScheme, err error) {
	if len(buf) < 2 {
		return nil, 0, errors.Reason("buffer too short to contain a checksum trailer").Err()
	}
	digestLen := int(buf[len(buf)-1])
	if len(buf) < digestLen+2 {
		return nil, 0, errors.Reason("buffer too short for declared digest length %(n)d").
			D("n", digestLen).Err()
	}
	scheme = ChecksumScheme(buf[len(buf)-digestLen-2])
	if err := scheme.Valid(); err != nil {
		return nil, 0, err
	}
	nominal := buf[len(buf)-digestLen-1 : len(buf)-1]
	body := buf[:len(buf)-digestLen-2]

	if scheme == ChecksumNULL {
		return body, scheme, nil
	}

	h := scheme.Hash()
	if _, err := h.Write(body); err != nil {
		return nil, 0, errors.Annotate(err, "hashing sarc archive body").Err()
	}
	actual := h.Sum(nil)
	if !bytes.Equal(actual, nominal) {
		return nil, scheme, &ErrMismatchedChecksum{Scheme: scheme, Nominal: nominal, Actual: actual}
	}
	return body, scheme, nil
}

// WithTrailerCompression returns a flate.Writer wrapping w at the given
// level, for callers that want to compress a manifest of per-file
// digests alongside the trailer rather than the whole archive (the
// trailer above always hashes the archive uncompressed). This mirrors
// create.go's WithCompression option, wired to the one teacher
// dependency (compress/flate) that has no other home in this module
// since Yaz0 is a bespoke format DEFLATE can't reuse.
func WithTrailerCompression(w io.Writer, level int) (io.WriteCloser, error) {
	return flate.NewWriter(w, level)
}
