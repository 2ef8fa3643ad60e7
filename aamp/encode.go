// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package aamp

import (
	"github.com/nxtoolkit/nxbin/binaryio"
	"github.com/nxtoolkit/nxbin/nxerr"
	"github.com/nxtoolkit/nxbin/valuemodel"
)

type listNode struct {
	list *ParameterList
	hash uint32
}

type objNode struct {
	obj  *ParameterObject
	hash uint32
}

type paramKeyT struct {
	obj *ParameterObject
	idx int
}

// Serialize lays out pio as an AAMP v2 document: header, NUL-terminated
// type string, the list header structures in breadth-first order, the
// object header structures in depth-first order, the parameter header
// structures in object order, then a deduplicated data section and string
// section. See
// collectQueueOrder for the payload emission order.
func Serialize(pio *ParameterIO) ([]byte, error) {
	listOrder, listIndex := layoutLists(pio.RootList)
	objOrder, objIndex, entriesOf := layoutObjects(pio.RootList)

	paramIndex := map[paramKeyT]int{}
	var paramOrder []struct {
		obj   *ParameterObject
		entry Entry
	}
	for _, on := range objOrder {
		for i, e := range entriesOf[on.obj] {
			paramIndex[paramKeyT{on.obj, i}] = len(paramOrder)
			paramOrder = append(paramOrder, struct {
				obj   *ParameterObject
				entry Entry
			}{on.obj, e})
		}
	}
	numParams := len(paramOrder)

	listRegionStart := alignUp4(headerSize + len(pio.Type) + 1)
	objRegionStart := listRegionStart + 12*len(listOrder)
	paramRegionStart := objRegionStart + 8*len(objOrder)
	dataSectionStart := paramRegionStart + 8*numParams

	addrList := func(i int) int { return listRegionStart + 12*i }
	addrObj := func(i int) int { return objRegionStart + 8*i }
	addrParam := func(i int) int { return paramRegionStart + 8*i }

	listListsCount := make([]uint16, len(listOrder))
	listListsRelWords := make([]uint32, len(listOrder))
	listObjsCount := make([]uint16, len(listOrder))
	listObjsRelWords := make([]uint32, len(listOrder))

	for i, ln := range listOrder {
		children := ln.list.Lists()
		listListsCount[i] = uint16(len(children))
		if len(children) > 0 {
			rel, err := relWords(addrList(listIndex[children[0].Value]), addrList(i), 0xFFFF)
			if err != nil {
				return nil, err
			}
			listListsRelWords[i] = rel
		}
		objs := ln.list.Objects()
		listObjsCount[i] = uint16(len(objs))
		if len(objs) > 0 {
			rel, err := relWords(addrObj(objIndex[objs[0].Value]), addrList(i), 0xFFFF)
			if err != nil {
				return nil, err
			}
			listObjsRelWords[i] = rel
		}
	}

	objParamsCount := make([]uint16, len(objOrder))
	objParamsRelWords := make([]uint32, len(objOrder))
	for i, on := range objOrder {
		entries := entriesOf[on.obj]
		objParamsCount[i] = uint16(len(entries))
		if len(entries) > 0 {
			rel, err := relWords(addrParam(paramIndex[paramKeyT{on.obj, 0}]), addrObj(i), 0xFFFF)
			if err != nil {
				return nil, err
			}
			objParamsRelWords[i] = rel
		}
	}

	visitOrder := collectQueueOrder(pio.RootList)
	var dataQueue, stringQueue []paramKeyT
	for _, obj := range visitOrder {
		for i, e := range entriesOf[obj] {
			if e.Value.Type() == TypeStringRef {
				stringQueue = append(stringQueue, paramKeyT{obj, i})
			} else {
				dataQueue = append(dataQueue, paramKeyT{obj, i})
			}
		}
	}

	paramDataRelWords := make([]uint32, numParams)
	var dataBuf []byte
	dataDedup := map[string]int{}
	for _, key := range dataQueue {
		gi := paramIndex[key]
		payload, err := encodeDataPayload(entriesOf[key.obj][key.idx].Value)
		if err != nil {
			return nil, err
		}
		prefix := 0
		if entriesOf[key.obj][key.idx].Value.Type().isBuffer() {
			prefix = 4 // data_rel_offset points past the u32 element count
		}
		rel, err := placePayload(payload, prefix, dataDedup, &dataBuf, dataSectionStart, addrParam(gi))
		if err != nil {
			return nil, err
		}
		paramDataRelWords[gi] = rel
	}

	stringSectionStart := dataSectionStart + len(dataBuf)
	var stringBuf []byte
	stringDedup := map[string]int{}
	for _, key := range stringQueue {
		gi := paramIndex[key]
		s, _ := entriesOf[key.obj][key.idx].Value.AsStringRef()
		payload := append([]byte(s), 0)
		rel, err := placePayload(payload, 0, stringDedup, &stringBuf, stringSectionStart, addrParam(gi))
		if err != nil {
			return nil, err
		}
		paramDataRelWords[gi] = rel
	}

	w := binaryio.NewWriter(binaryio.LittleEndian)
	w.WriteBytes(make([]byte, headerSize))
	w.WriteCString(pio.Type)
	w.Align(4)

	for i, ln := range listOrder {
		w.WriteU32(ln.hash)
		w.WriteU16(listListsCount[i])
		w.WriteU16(uint16(listListsRelWords[i]))
		w.WriteU16(listObjsCount[i])
		w.WriteU16(uint16(listObjsRelWords[i]))
	}
	for i, on := range objOrder {
		w.WriteU32(on.hash)
		w.WriteU16(objParamsCount[i])
		w.WriteU16(uint16(objParamsRelWords[i]))
	}
	for gi, pn := range paramOrder {
		w.WriteU32(pn.entry.Hash)
		w.WriteU8(byte(pn.entry.Value.Type()))
		if err := w.WriteU24(paramDataRelWords[gi]); err != nil {
			return nil, err
		}
	}
	w.WriteBytes(dataBuf)
	w.WriteBytes(stringBuf)

	h := header{
		fileSize:          uint32(w.Len()),
		dataVersion:       pio.Version,
		offsetToPio:       uint32(listRegionStart - headerSize),
		numLists:          uint32(len(listOrder)),
		numObjects:        uint32(len(objOrder)),
		numParameters:     uint32(numParams),
		dataSectionSize:   uint32(len(dataBuf)),
		stringSectionSize: uint32(len(stringBuf)),
	}
	w.Patch(0, func(w *binaryio.Writer) { writeHeader(w, h) })

	return w.Bytes(), nil
}

func alignUp4(n int) int { return (n + 3) &^ 3 }

func relWords(target, base, maxWords int) (uint32, error) {
	delta := target - base
	if delta < 0 || delta%4 != 0 {
		return 0, nxerr.NewArithmetic("offset %d - %d is not a positive 4-byte-aligned delta", target, base)
	}
	words := delta / 4
	if words > maxWords {
		return 0, nxerr.NewArithmetic("offset delta %d exceeds the %d-word compact field", delta, maxWords)
	}
	return uint32(words), nil
}

// placePayload interns payload into dedup/buf (appending and 4-byte
// padding it if not already present) and returns the rel-words value to
// store in the ResParameter at selfAddr, per spec.md §4.5's range-based
// dedup rule. The stored offset points prefix bytes into the payload (4
// for buffers, whose u32 element count precedes the elements). This
// implementation simplifies the "within (1<<24)*4 bytes of the current
// parent offset" search to a single most-recent-write index per distinct
// payload, since any realistic document's data/string sections fit
// comfortably inside the 64 MiB reach of the scaled 24-bit field.
func placePayload(payload []byte, prefix int, dedup map[string]int, buf *[]byte, sectionStart, selfAddr int) (uint32, error) {
	key := string(payload)
	if addr, ok := dedup[key]; ok {
		if rel, err := relWords(addr+prefix, selfAddr, 0xFFFFFF); err == nil {
			return rel, nil
		}
	}
	addr := sectionStart + len(*buf)
	dedup[key] = addr
	*buf = append(*buf, payload...)
	for len(*buf)%4 != 0 {
		*buf = append(*buf, 0)
	}
	return relWords(addr+prefix, selfAddr, 0xFFFFFF)
}

func layoutLists(root *ParameterList) ([]listNode, map[*ParameterList]int) {
	var order []listNode
	index := map[*ParameterList]int{}
	queue := []listNode{{root, paramRootHash}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		index[cur.list] = len(order)
		order = append(order, cur)
		for _, le := range cur.list.Lists() {
			queue = append(queue, listNode{le.Value, le.Hash})
		}
	}
	return order, index
}

func layoutObjects(root *ParameterList) ([]objNode, map[*ParameterObject]int, map[*ParameterObject][]Entry) {
	var order []objNode
	index := map[*ParameterObject]int{}
	entriesOf := map[*ParameterObject][]Entry{}

	var visit func(l *ParameterList)
	visit = func(l *ParameterList) {
		for _, oe := range l.Objects() {
			index[oe.Value] = len(order)
			order = append(order, objNode{oe.Value, oe.Hash})
			entriesOf[oe.Value] = oe.Value.Entries()
		}
		for _, le := range l.Lists() {
			visit(le.Value)
		}
	}
	visit(root)
	return order, index, entriesOf
}

// collectQueueOrder walks the tree per spec.md §4.5 step 3's interleave
// rule and returns the objects in the order their parameters should be
// appended to the data/string sections (independent of the header
// region's own object order). Root objects are drained up to 7 at a
// time before recursion, unless the first one is named "DemoAIActionIdx"
// (the BOTW AIProgram heuristic spec.md calls out by name), in which
// case the root list is treated like any other list.
func collectQueueOrder(root *ParameterList) []*ParameterObject {
	var out []*ParameterObject

	var visit func(l *ParameterList, isRoot bool)
	visit = func(l *ParameterList, isRoot bool) {
		objs := l.Objects()
		idx := 0

		rootBatch := isRoot && !(len(objs) > 0 && objs[0].Name == "DemoAIActionIdx")
		if rootBatch {
			for idx < len(objs) && idx < 7 {
				out = append(out, objs[idx].Value)
				idx++
			}
		}

		children := l.Lists()
		for ci, le := range children {
			visit(le.Value, false)
			if (ci+1)%2 == 0 && idx < len(objs) {
				out = append(out, objs[idx].Value)
				idx++
			}
		}

		for idx < len(objs) {
			out = append(out, objs[idx].Value)
			idx++
		}
	}
	visit(root, true)
	return out
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func encodeDataPayload(p *Parameter) ([]byte, error) {
	bw := binaryio.NewWriter(binaryio.LittleEndian)
	switch p.Type() {
	case TypeBool:
		v, _ := p.AsBool()
		bw.WriteU32(boolToU32(v))
	case TypeF32:
		v, _ := p.AsF32()
		bw.WriteF32(v)
	case TypeInt:
		v, _ := p.AsInt()
		bw.WriteI32(v)
	case TypeU32:
		v, _ := p.AsU32()
		bw.WriteU32(v)
	case TypeVec2:
		v, _ := p.AsVec2()
		v.Write(bw)
	case TypeVec3:
		v, _ := p.AsVec3()
		v.Write(bw)
	case TypeVec4:
		v, _ := p.AsVec4()
		v.Write(bw)
	case TypeColor:
		v, _ := p.AsColor()
		v.Write(bw)
	case TypeQuat:
		v, _ := p.AsQuat()
		v.Write(bw)
	case TypeString32:
		v, _ := p.AsString32()
		valuemodel.NewFixedSafeString(valuemodel.String32Capacity, v).Write(bw)
	case TypeString64:
		v, _ := p.AsString64()
		valuemodel.NewFixedSafeString(valuemodel.String64Capacity, v).Write(bw)
	case TypeString256:
		v, _ := p.AsString256()
		valuemodel.NewFixedSafeString(valuemodel.String256Capacity, v).Write(bw)
	case TypeCurve1, TypeCurve2, TypeCurve3, TypeCurve4:
		curves, _ := p.AsCurves()
		for _, c := range curves {
			c.Write(bw)
		}
	case TypeBufferInt:
		v, _ := p.AsBufferInt()
		bw.WriteU32(uint32(len(v)))
		for _, x := range v {
			bw.WriteI32(x)
		}
	case TypeBufferF32:
		v, _ := p.AsBufferF32()
		bw.WriteU32(uint32(len(v)))
		for _, x := range v {
			bw.WriteF32(x)
		}
	case TypeBufferU32:
		v, _ := p.AsBufferU32()
		bw.WriteU32(uint32(len(v)))
		for _, x := range v {
			bw.WriteU32(x)
		}
	case TypeBufferBinary:
		v, _ := p.AsBufferBinary()
		bw.WriteU32(uint32(len(v)))
		bw.WriteBytes(v)
	default:
		return nil, &nxerr.Unsupported{Feature: "encoding aamp parameter type " + p.Type().String() + " to the data section"}
	}
	return bw.Bytes(), nil
}
