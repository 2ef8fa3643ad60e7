// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package byml

import (
	"math"

	"go.chromium.org/luci/common/errors"

	"github.com/nxtoolkit/nxbin/binaryio"
	"github.com/nxtoolkit/nxbin/nxerr"
)

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

type parseConfig struct {
	extended bool
}

// WithExtendedVersions permits the MK8-family extended version range
// (1..10) instead of the baseline 2..4 range. The extended node types
// (Hash32, Hash64, Binary, File) are decoded whether or not this option
// is set.
func WithExtendedVersions() ParseOption {
	return func(c *parseConfig) { c.extended = true }
}

type decoder struct {
	buf      []byte
	order    binaryio.Order
	hashKeys []string
	strings  []string
}

// Parse validates a BYML header and decodes its tree from root_node_offset.
func Parse(buf []byte, opts ...ParseOption) (*Node, error) {
	cfg := &parseConfig{}
	for _, o := range opts {
		o(cfg)
	}

	if len(buf) < headerSize {
		return nil, nxerr.NewInvalidData("byml buffer too short for header: %d bytes", len(buf))
	}

	magic := buf[:2]
	order, ok := orderForMagic(magic)
	if !ok {
		return nil, nxerr.NewInvalidData("bad byml magic %q", magic)
	}

	r := binaryio.NewReader(buf, order)
	if _, err := r.ReadBytes(2); err != nil { // magic, already inspected
		return nil, err
	}
	version, err := r.ReadU16()
	if err != nil {
		return nil, errors.Annotate(err, "reading byml version").Err()
	}
	if !validVersion(version, cfg.extended) {
		return nil, nxerr.NewInvalidData("unsupported byml version %d", version)
	}
	hashKeyTableOffset, err := r.ReadU32()
	if err != nil {
		return nil, errors.Annotate(err, "reading byml hash key table offset").Err()
	}
	stringTableOffset, err := r.ReadU32()
	if err != nil {
		return nil, errors.Annotate(err, "reading byml string table offset").Err()
	}
	rootNodeOffset, err := r.ReadU32()
	if err != nil {
		return nil, errors.Annotate(err, "reading byml root node offset").Err()
	}

	d := &decoder{buf: buf, order: order}
	if d.hashKeys, err = d.readStringTableAt(hashKeyTableOffset); err != nil {
		return nil, errors.Annotate(err, "reading byml hash key table").Err()
	}
	if d.strings, err = d.readStringTableAt(stringTableOffset); err != nil {
		return nil, errors.Annotate(err, "reading byml string table").Err()
	}

	if rootNodeOffset == 0 {
		return NewNull(), nil
	}
	root, err := d.readNodeAt(rootNodeOffset)
	if err != nil {
		return nil, errors.Annotate(err, "reading byml root node").Err()
	}
	if !root.typ.isContainer() {
		return nil, nxerr.NewInvalidData("byml root node has non-container type %v", root.typ)
	}
	return root, nil
}

func (d *decoder) readStringTableAt(offset uint32) ([]string, error) {
	if offset == 0 {
		return nil, nil
	}
	r := binaryio.NewReader(d.buf, d.order)
	if err := r.Seek(int(offset)); err != nil {
		return nil, err
	}
	typByte, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	if Type(typByte) != typeStringTable {
		return nil, nxerr.NewInvalidData("expected string table header 0xC2 at %d, got %#x", offset, typByte)
	}
	count, err := r.ReadU24()
	if err != nil {
		return nil, errors.Annotate(err, "reading string table count").Err()
	}
	tableOffsets := make([]uint32, count+1)
	for i := range tableOffsets {
		v, err := r.ReadU32()
		if err != nil {
			return nil, errors.Annotate(err, "reading string table offset %d", i).Err()
		}
		tableOffsets[i] = v
	}
	strs := make([]string, count)
	for i := uint32(0); i < count; i++ {
		if err := r.Seek(int(offset) + int(tableOffsets[i])); err != nil {
			return nil, errors.Annotate(err, "seeking to string table entry %d", i).Err()
		}
		s, err := r.ReadCString(-1)
		if err != nil {
			return nil, errors.Annotate(err, "reading string table entry %d", i).Err()
		}
		strs[i] = s
	}
	return strs, nil
}

func (d *decoder) readNodeAt(offset uint32) (*Node, error) {
	r := binaryio.NewReader(d.buf, d.order)
	if err := r.Seek(int(offset)); err != nil {
		return nil, err
	}
	typByte, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	switch Type(typByte) {
	case TypeArray:
		return d.readArrayBody(r)
	case TypeHash:
		return d.readHashBody(r)
	case TypeHash32:
		return d.readHash32Body(r)
	case TypeHash64:
		return d.readHash64Body(r)
	}
	return nil, nxerr.NewInvalidData("unexpected byml node type %#x at offset %d", typByte, offset)
}

func (d *decoder) readArrayBody(r *binaryio.Reader) (*Node, error) {
	count, err := r.ReadU24()
	if err != nil {
		return nil, errors.Annotate(err, "reading array count").Err()
	}
	types := make([]Type, count)
	for i := range types {
		b, err := r.ReadU8()
		if err != nil {
			return nil, errors.Annotate(err, "reading array element type %d", i).Err()
		}
		types[i] = Type(b)
	}
	if err := r.SeekAligned(4); err != nil {
		return nil, err
	}
	items := make([]*Node, count)
	for i := range items {
		payload, err := r.ReadU32()
		if err != nil {
			return nil, errors.Annotate(err, "reading array payload %d", i).Err()
		}
		n, err := d.decodeValue(types[i], payload)
		if err != nil {
			return nil, errors.Annotate(err, "decoding array element %d", i).Err()
		}
		items[i] = n
	}
	return NewArray(items...), nil
}

func (d *decoder) readHashBody(r *binaryio.Reader) (*Node, error) {
	count, err := r.ReadU24()
	if err != nil {
		return nil, errors.Annotate(err, "reading hash count").Err()
	}
	h := newHash()
	for i := uint32(0); i < count; i++ {
		keyIdx, err := r.ReadU24()
		if err != nil {
			return nil, errors.Annotate(err, "reading hash entry %d key index", i).Err()
		}
		typByte, err := r.ReadU8()
		if err != nil {
			return nil, errors.Annotate(err, "reading hash entry %d type", i).Err()
		}
		payload, err := r.ReadU32()
		if err != nil {
			return nil, errors.Annotate(err, "reading hash entry %d payload", i).Err()
		}
		if int(keyIdx) >= len(d.hashKeys) {
			return nil, nxerr.NewInvalidData("hash entry %d key index %d out of range [0, %d)", i, keyIdx, len(d.hashKeys))
		}
		v, err := d.decodeValue(Type(typByte), payload)
		if err != nil {
			return nil, errors.Annotate(err, "decoding hash entry %d", i).Err()
		}
		h.Set(d.hashKeys[keyIdx], v)
	}
	return &Node{typ: TypeHash, hash: h}, nil
}

func (d *decoder) readHash32Body(r *binaryio.Reader) (*Node, error) {
	count, err := r.ReadU24()
	if err != nil {
		return nil, errors.Annotate(err, "reading hash32 count").Err()
	}
	h := newHash32()
	for i := uint32(0); i < count; i++ {
		key, err := r.ReadU32()
		if err != nil {
			return nil, errors.Annotate(err, "reading hash32 entry %d key", i).Err()
		}
		typByte, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		payload, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		v, err := d.decodeValue(Type(typByte), payload)
		if err != nil {
			return nil, errors.Annotate(err, "decoding hash32 entry %d", i).Err()
		}
		h.Set(key, v)
	}
	return &Node{typ: TypeHash32, hash32: h}, nil
}

func (d *decoder) readHash64Body(r *binaryio.Reader) (*Node, error) {
	count, err := r.ReadU24()
	if err != nil {
		return nil, errors.Annotate(err, "reading hash64 count").Err()
	}
	h := newHash64()
	for i := uint32(0); i < count; i++ {
		key, err := r.ReadU64()
		if err != nil {
			return nil, errors.Annotate(err, "reading hash64 entry %d key", i).Err()
		}
		typByte, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		payload, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		v, err := d.decodeValue(Type(typByte), payload)
		if err != nil {
			return nil, errors.Annotate(err, "decoding hash64 entry %d", i).Err()
		}
		h.Set(key, v)
	}
	return &Node{typ: TypeHash64, hash64: h}, nil
}

func (d *decoder) readU64At(offset uint32) (uint64, error) {
	r := binaryio.NewReader(d.buf, d.order)
	if err := r.Seek(int(offset)); err != nil {
		return 0, err
	}
	return r.ReadU64()
}

func (d *decoder) readBinaryAt(offset uint32) (*Node, error) {
	r := binaryio.NewReader(d.buf, d.order)
	if err := r.Seek(int(offset)); err != nil {
		return nil, err
	}
	size, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytes(int(size))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return NewBinary(out), nil
}

func (d *decoder) readFileAt(offset uint32) (*Node, error) {
	r := binaryio.NewReader(d.buf, d.order)
	if err := r.Seek(int(offset)); err != nil {
		return nil, err
	}
	size, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	align, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytes(int(size))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return NewFile(align, out), nil
}

func (d *decoder) decodeValue(t Type, payload uint32) (*Node, error) {
	switch t {
	case TypeString:
		if int(payload) >= len(d.strings) {
			return nil, nxerr.NewInvalidData("string index %d out of range [0, %d)", payload, len(d.strings))
		}
		return NewString(d.strings[payload]), nil
	case TypeBool:
		return NewBool(payload != 0), nil
	case TypeInt32:
		return NewInt32(int32(payload)), nil
	case TypeFloat32:
		return NewFloat32(math.Float32frombits(payload)), nil
	case TypeUInt32:
		return NewUInt32(payload), nil
	case TypeNull:
		return NewNull(), nil
	case TypeInt64:
		u, err := d.readU64At(payload)
		if err != nil {
			return nil, err
		}
		return NewInt64(int64(u)), nil
	case TypeUInt64:
		u, err := d.readU64At(payload)
		if err != nil {
			return nil, err
		}
		return NewUInt64(u), nil
	case TypeFloat64:
		u, err := d.readU64At(payload)
		if err != nil {
			return nil, err
		}
		return NewFloat64(math.Float64frombits(u)), nil
	case TypeArray, TypeHash, TypeHash32, TypeHash64:
		return d.readNodeAt(payload)
	case TypeBinary:
		return d.readBinaryAt(payload)
	case TypeFile:
		return d.readFileAt(payload)
	}
	return nil, &nxerr.Unsupported{Feature: "byml node type " + t.String()}
}
