// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package aamp

import (
	"go.chromium.org/luci/common/errors"

	"github.com/nxtoolkit/nxbin/binaryio"
	"github.com/nxtoolkit/nxbin/nxerr"
	"github.com/nxtoolkit/nxbin/valuemodel"
)

// Parse decodes a complete AAMP v2 document from buf.
func Parse(buf []byte) (*ParameterIO, error) {
	r := binaryio.NewReader(buf, binaryio.LittleEndian)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	if err := r.Seek(headerSize); err != nil {
		return nil, errors.Annotate(err, "seeking to aamp type string").Err()
	}
	typ, err := r.ReadCString(-1)
	if err != nil {
		return nil, errors.Annotate(err, "reading aamp type string").Err()
	}

	d := &decoder{r: r}
	rootAddr := headerSize + int(h.offsetToPio)
	rootList, rootHash, err := d.readList(rootAddr)
	if err != nil {
		return nil, errors.Annotate(err, "reading aamp root list").Err()
	}
	if rootHash != paramRootHash {
		return nil, nxerr.NewInvalidData("aamp root list name hash %#x != CRC32(\"param_root\") %#x", rootHash, paramRootHash)
	}

	return &ParameterIO{Version: h.dataVersion, Type: typ, RootList: rootList}, nil
}

type decoder struct {
	r *binaryio.Reader
}

func (d *decoder) seekU32(addr int) (uint32, error) {
	if err := d.r.Seek(addr); err != nil {
		return 0, err
	}
	return d.r.ReadU32()
}

func (d *decoder) readList(addr int) (*ParameterList, uint32, error) {
	if err := d.r.Seek(addr); err != nil {
		return nil, 0, errors.Annotate(err, "seeking to ResParameterList at %#x", addr).Err()
	}
	name, err := d.r.ReadU32()
	if err != nil {
		return nil, 0, err
	}
	listsCount, err := d.r.ReadU16()
	if err != nil {
		return nil, 0, err
	}
	listsRelWords, err := d.r.ReadU16()
	if err != nil {
		return nil, 0, err
	}
	objsCount, err := d.r.ReadU16()
	if err != nil {
		return nil, 0, err
	}
	objsRelWords, err := d.r.ReadU16()
	if err != nil {
		return nil, 0, err
	}

	l := NewParameterList()

	childListsAddr := addr + int(listsRelWords)*4
	for i := 0; i < int(listsCount); i++ {
		child, childHash, err := d.readList(childListsAddr + i*12)
		if err != nil {
			return nil, 0, errors.Annotate(err, "reading child list %d", i).Err()
		}
		l.SetListHash(childHash, child)
	}

	childObjsAddr := addr + int(objsRelWords)*4
	for i := 0; i < int(objsCount); i++ {
		obj, objHash, err := d.readObject(childObjsAddr + i*8)
		if err != nil {
			return nil, 0, errors.Annotate(err, "reading object %d", i).Err()
		}
		l.SetObjectHash(objHash, obj)
	}

	return l, name, nil
}

func (d *decoder) readObject(addr int) (*ParameterObject, uint32, error) {
	if err := d.r.Seek(addr); err != nil {
		return nil, 0, errors.Annotate(err, "seeking to ResParameterObj at %#x", addr).Err()
	}
	name, err := d.r.ReadU32()
	if err != nil {
		return nil, 0, err
	}
	paramsCount, err := d.r.ReadU16()
	if err != nil {
		return nil, 0, err
	}
	paramsRelWords, err := d.r.ReadU16()
	if err != nil {
		return nil, 0, err
	}

	o := NewParameterObject()
	paramsAddr := addr + int(paramsRelWords)*4
	for i := 0; i < int(paramsCount); i++ {
		p, pHash, err := d.readParameter(paramsAddr + i*8)
		if err != nil {
			return nil, 0, errors.Annotate(err, "reading parameter %d", i).Err()
		}
		o.SetHash(pHash, p)
	}
	return o, name, nil
}

func (d *decoder) readParameter(addr int) (*Parameter, uint32, error) {
	if err := d.r.Seek(addr); err != nil {
		return nil, 0, errors.Annotate(err, "seeking to ResParameter at %#x", addr).Err()
	}
	name, err := d.r.ReadU32()
	if err != nil {
		return nil, 0, err
	}
	typByte, err := d.r.ReadU8()
	if err != nil {
		return nil, 0, err
	}
	relWords, err := d.r.ReadU24()
	if err != nil {
		return nil, 0, err
	}

	payloadAddr := addr + int(relWords)*4
	p, err := d.readPayload(Type(typByte), payloadAddr)
	if err != nil {
		return nil, 0, errors.Annotate(err, "reading payload for parameter %#x", name).Err()
	}
	return p, name, nil
}

func (d *decoder) readPayload(t Type, addr int) (*Parameter, error) {
	if t.isBuffer() {
		count, err := d.seekU32(addr - 4)
		if err != nil {
			return nil, errors.Annotate(err, "reading buffer count").Err()
		}
		if err := d.r.Seek(addr); err != nil {
			return nil, err
		}
		switch t {
		case TypeBufferInt:
			out := make([]int32, count)
			for i := range out {
				v, err := d.r.ReadI32()
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return NewBufferInt(out), nil
		case TypeBufferF32:
			out := make([]float32, count)
			for i := range out {
				v, err := d.r.ReadF32()
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return NewBufferF32(out), nil
		case TypeBufferU32:
			out := make([]uint32, count)
			for i := range out {
				v, err := d.r.ReadU32()
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return NewBufferU32(out), nil
		case TypeBufferBinary:
			b, err := d.r.ReadBytes(int(count))
			if err != nil {
				return nil, err
			}
			return NewBufferBinary(append([]byte(nil), b...)), nil
		}
	}

	if err := d.r.Seek(addr); err != nil {
		return nil, err
	}

	switch t {
	case TypeBool:
		v, err := d.r.ReadU32()
		return NewBool(v != 0), err
	case TypeF32:
		v, err := d.r.ReadF32()
		return NewF32(v), err
	case TypeInt:
		v, err := d.r.ReadI32()
		return NewInt(v), err
	case TypeU32:
		v, err := d.r.ReadU32()
		return NewU32(v), err
	case TypeVec2:
		v, err := valuemodel.ReadVector2f(d.r)
		return NewVec2(v), err
	case TypeVec3:
		v, err := valuemodel.ReadVector3f(d.r)
		return NewVec3(v), err
	case TypeVec4:
		v, err := valuemodel.ReadVector4f(d.r)
		return NewVec4(v), err
	case TypeColor:
		v, err := valuemodel.ReadColor4f(d.r)
		return NewColor(v), err
	case TypeQuat:
		v, err := valuemodel.ReadQuatf(d.r)
		return NewQuat(v), err
	case TypeString32:
		s, err := valuemodel.ReadFixedSafeString(d.r, valuemodel.String32Capacity)
		if err != nil {
			return nil, err
		}
		return NewString32(s.String()), nil
	case TypeString64:
		s, err := valuemodel.ReadFixedSafeString(d.r, valuemodel.String64Capacity)
		if err != nil {
			return nil, err
		}
		return NewString64(s.String()), nil
	case TypeString256:
		s, err := valuemodel.ReadFixedSafeString(d.r, valuemodel.String256Capacity)
		if err != nil {
			return nil, err
		}
		return NewString256(s.String()), nil
	case TypeStringRef:
		s, err := d.r.ReadCString(-1)
		if err != nil {
			return nil, err
		}
		return NewStringRef(s), nil
	case TypeCurve1, TypeCurve2, TypeCurve3, TypeCurve4:
		n := map[Type]int{TypeCurve1: 1, TypeCurve2: 2, TypeCurve3: 3, TypeCurve4: 4}[t]
		curves := make([]valuemodel.Curve, n)
		for i := range curves {
			c, err := valuemodel.ReadCurve(d.r)
			if err != nil {
				return nil, err
			}
			curves[i] = c
		}
		return NewCurve(curves...)
	}
	return nil, &nxerr.Unsupported{Feature: "aamp parameter type " + t.String()}
}
