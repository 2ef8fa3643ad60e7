// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package aamp

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/nxtoolkit/nxbin/nxerr"
	"github.com/nxtoolkit/nxbin/nxhash"
	"github.com/nxtoolkit/nxbin/valuemodel"
)

// ToYAML renders pio as spec.md §4.7's AAMP dialect: a plain mapping with
// version/type/param_root keys, param_root carrying the !list tag and
// recursing through !obj-tagged objects and the scalar parameter tags.
func ToYAML(pio *ParameterIO) ([]byte, error) {
	root, err := listYAMLNode(pio.RootList, nil)
	if err != nil {
		return nil, err
	}
	doc := &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalarYAMLNode("!!str", "version"),
			scalarYAMLNode("!!int", strconv.FormatUint(uint64(pio.Version), 10)),
			scalarYAMLNode("!!str", "type"),
			scalarYAMLNode("!!str", pio.Type),
			scalarYAMLNode("!!str", "param_root"),
			root,
		},
	}
	return yaml.Marshal(doc)
}

// FromYAML parses the inverse of ToYAML. Because only name hashes, not
// names, are persisted in the !obj/!list keys when an entry carries no
// name (ToYAML does not consult a NameTable), a round trip through
// ToYAML/FromYAML on a
// document built with only hashes loses the human-readable key text but
// never the hash itself.
func FromYAML(data []byte) (*ParameterIO, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nxerr.NewInvalidData("empty aamp yaml document")
	}
	root := doc.Content[0]

	pio := NewParameterIO()
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "version":
			v, err := strconv.ParseUint(val.Value, 10, 32)
			if err != nil {
				return nil, err
			}
			pio.Version = uint32(v)
		case "type":
			pio.Type = val.Value
		case "param_root":
			l, err := listFromYAMLNode(val)
			if err != nil {
				return nil, err
			}
			pio.RootList = l
		}
	}
	return pio, nil
}

func scalarYAMLNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// keyText renders the map key used for a ParameterList/ParameterObject's
// child when its name is known, or a zero-padded hex hash otherwise.
func keyText(name string, hash uint32) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("0x%08X", hash)
}

// keyHash parses keyText's output back into a hash, re-hashing if it
// isn't already in the "0x########" form.
func keyHash(key string) uint32 {
	var v uint32
	if _, err := fmt.Sscanf(key, "0x%08X", &v); err == nil {
		return v
	}
	return nxhash.CRC32(key)
}

func listYAMLNode(l *ParameterList, selfName *string) (*yaml.Node, error) {
	content := []*yaml.Node{}
	for _, le := range l.Lists() {
		child, err := listYAMLNode(le.Value, nil)
		if err != nil {
			return nil, err
		}
		content = append(content, scalarYAMLNode("!!str", keyText(le.Name, le.Hash)), child)
	}
	for _, oe := range l.Objects() {
		child, err := objectYAMLNode(oe.Value)
		if err != nil {
			return nil, err
		}
		content = append(content, scalarYAMLNode("!!str", keyText(oe.Name, oe.Hash)), child)
	}
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!list", Content: content}, nil
}

func objectYAMLNode(o *ParameterObject) (*yaml.Node, error) {
	content := []*yaml.Node{}
	for _, e := range o.Entries() {
		child, err := parameterYAMLNode(e.Value)
		if err != nil {
			return nil, err
		}
		content = append(content, scalarYAMLNode("!!str", keyText(e.Name, e.Hash)), child)
	}
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!obj", Content: content}, nil
}

func floatsSeq(tag string, floats []float32) *yaml.Node {
	content := make([]*yaml.Node, len(floats))
	for i, f := range floats {
		content[i] = scalarYAMLNode("!!float", strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: tag, Content: content, Style: yaml.FlowStyle}
}

func intsSeq(tag string, ints []int32) *yaml.Node {
	content := make([]*yaml.Node, len(ints))
	for i, v := range ints {
		content[i] = scalarYAMLNode("!!int", strconv.FormatInt(int64(v), 10))
	}
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: tag, Content: content, Style: yaml.FlowStyle}
}

func uintsSeq(tag string, ints []uint32) *yaml.Node {
	content := make([]*yaml.Node, len(ints))
	for i, v := range ints {
		content[i] = scalarYAMLNode("!!int", strconv.FormatUint(uint64(v), 10))
	}
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: tag, Content: content, Style: yaml.FlowStyle}
}

func curveYAMLNode(c valuemodel.Curve) *yaml.Node {
	floats := make([]*yaml.Node, len(c.Floats))
	for i, f := range c.Floats {
		floats[i] = scalarYAMLNode("!!float", strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalarYAMLNode("!!str", "a"), scalarYAMLNode("!!int", strconv.FormatUint(uint64(c.A), 10)),
			scalarYAMLNode("!!str", "b"), scalarYAMLNode("!!int", strconv.FormatUint(uint64(c.B), 10)),
			scalarYAMLNode("!!str", "floats"), {Kind: yaml.SequenceNode, Content: floats, Style: yaml.FlowStyle},
		},
	}
}

func parameterYAMLNode(p *Parameter) (*yaml.Node, error) {
	switch p.Type() {
	case TypeBool:
		v, _ := p.AsBool()
		return scalarYAMLNode("!!bool", strconv.FormatBool(v)), nil
	case TypeF32:
		v, _ := p.AsF32()
		return scalarYAMLNode("!!float", strconv.FormatFloat(float64(v), 'g', -1, 32)), nil
	case TypeInt:
		v, _ := p.AsInt()
		return scalarYAMLNode("!!int", strconv.FormatInt(int64(v), 10)), nil
	case TypeU32:
		v, _ := p.AsU32()
		return scalarYAMLNode("!u", strconv.FormatUint(uint64(v), 10)), nil
	case TypeStringRef:
		v, _ := p.AsStringRef()
		return scalarYAMLNode("!!str", v), nil
	case TypeString32:
		v, _ := p.AsString32()
		return scalarYAMLNode("!str32", v), nil
	case TypeString64:
		v, _ := p.AsString64()
		return scalarYAMLNode("!str64", v), nil
	case TypeString256:
		v, _ := p.AsString256()
		return scalarYAMLNode("!str256", v), nil
	case TypeVec2:
		v, _ := p.AsVec2()
		return floatsSeq("!vec2", []float32{v.X, v.Y}), nil
	case TypeVec3:
		v, _ := p.AsVec3()
		return floatsSeq("!vec3", []float32{v.X, v.Y, v.Z}), nil
	case TypeVec4:
		v, _ := p.AsVec4()
		return floatsSeq("!vec4", []float32{v.X, v.Y, v.Z, v.W}), nil
	case TypeColor:
		v, _ := p.AsColor()
		return floatsSeq("!color", []float32{v.R, v.G, v.B, v.A}), nil
	case TypeQuat:
		v, _ := p.AsQuat()
		return floatsSeq("!quat", []float32{v.A, v.B, v.C, v.D}), nil
	case TypeCurve1, TypeCurve2, TypeCurve3, TypeCurve4:
		curves, _ := p.AsCurves()
		content := make([]*yaml.Node, len(curves))
		for i, c := range curves {
			content[i] = curveYAMLNode(c)
		}
		return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!curve", Content: content}, nil
	case TypeBufferInt:
		v, _ := p.AsBufferInt()
		return intsSeq("!buffer_int", v), nil
	case TypeBufferF32:
		v, _ := p.AsBufferF32()
		return floatsSeq("!buffer_f32", v), nil
	case TypeBufferU32:
		v, _ := p.AsBufferU32()
		return uintsSeq("!buffer_u32", v), nil
	case TypeBufferBinary:
		v, _ := p.AsBufferBinary()
		return scalarYAMLNode("!buffer_binary", base64.StdEncoding.EncodeToString(v)), nil
	}
	return nil, &nxerr.Unsupported{Feature: "rendering aamp parameter type " + p.Type().String() + " to YAML"}
}

func listFromYAMLNode(node *yaml.Node) (*ParameterList, error) {
	l := NewParameterList()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		hash := keyHash(key.Value)
		switch val.Tag {
		case "!list":
			child, err := listFromYAMLNode(val)
			if err != nil {
				return nil, err
			}
			l.SetListHash(hash, child)
			if key.Value != fmt.Sprintf("0x%08X", hash) {
				l.lists[hash].name = key.Value
			}
		case "!obj":
			child, err := objectFromYAMLNode(val)
			if err != nil {
				return nil, err
			}
			l.SetObjectHash(hash, child)
			if key.Value != fmt.Sprintf("0x%08X", hash) {
				l.objs[hash].name = key.Value
			}
		default:
			return nil, nxerr.NewInvalidData("aamp list child %q has neither !list nor !obj tag", key.Value)
		}
	}
	return l, nil
}

func objectFromYAMLNode(node *yaml.Node) (*ParameterObject, error) {
	o := NewParameterObject()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		hash := keyHash(key.Value)
		p, err := parameterFromYAMLNode(val)
		if err != nil {
			return nil, err
		}
		o.SetHash(hash, p)
		if key.Value != fmt.Sprintf("0x%08X", hash) {
			o.entries[hash].name = key.Value
		}
	}
	return o, nil
}

func readFloatsSeq(node *yaml.Node) []float32 {
	out := make([]float32, len(node.Content))
	for i, c := range node.Content {
		v, _ := strconv.ParseFloat(c.Value, 32)
		out[i] = float32(v)
	}
	return out
}

func parameterFromYAMLNode(node *yaml.Node) (*Parameter, error) {
	switch node.Tag {
	case "!!bool":
		v, err := strconv.ParseBool(node.Value)
		if err != nil {
			return nil, err
		}
		return NewBool(v), nil
	case "!!float":
		v, err := strconv.ParseFloat(node.Value, 32)
		if err != nil {
			return nil, err
		}
		return NewF32(float32(v)), nil
	case "!!int":
		v, err := strconv.ParseInt(node.Value, 10, 32)
		if err != nil {
			return nil, err
		}
		return NewInt(int32(v)), nil
	case "!u":
		v, err := strconv.ParseUint(node.Value, 10, 32)
		if err != nil {
			return nil, err
		}
		return NewU32(uint32(v)), nil
	case "!!str", "":
		return NewStringRef(node.Value), nil
	case "!str32":
		return NewString32(node.Value), nil
	case "!str64":
		return NewString64(node.Value), nil
	case "!str256":
		return NewString256(node.Value), nil
	case "!vec2":
		f := readFloatsSeq(node)
		return NewVec2(valuemodel.Vector2f{X: f[0], Y: f[1]}), nil
	case "!vec3":
		f := readFloatsSeq(node)
		return NewVec3(valuemodel.Vector3f{X: f[0], Y: f[1], Z: f[2]}), nil
	case "!vec4":
		f := readFloatsSeq(node)
		return NewVec4(valuemodel.Vector4f{X: f[0], Y: f[1], Z: f[2], W: f[3]}), nil
	case "!color":
		f := readFloatsSeq(node)
		return NewColor(valuemodel.Color4f{R: f[0], G: f[1], B: f[2], A: f[3]}), nil
	case "!quat":
		f := readFloatsSeq(node)
		return NewQuat(valuemodel.Quatf{A: f[0], B: f[1], C: f[2], D: f[3]}), nil
	case "!curve":
		curves := make([]valuemodel.Curve, len(node.Content))
		for i, cn := range node.Content {
			var c valuemodel.Curve
			for j := 0; j+1 < len(cn.Content); j += 2 {
				k, v := cn.Content[j], cn.Content[j+1]
				switch k.Value {
				case "a":
					n, _ := strconv.ParseUint(v.Value, 10, 32)
					c.A = uint32(n)
				case "b":
					n, _ := strconv.ParseUint(v.Value, 10, 32)
					c.B = uint32(n)
				case "floats":
					copy(c.Floats[:], readFloatsSeq(v))
				}
			}
			curves[i] = c
		}
		return NewCurve(curves...)
	case "!buffer_int":
		out := make([]int32, len(node.Content))
		for i, c := range node.Content {
			v, _ := strconv.ParseInt(c.Value, 10, 32)
			out[i] = int32(v)
		}
		return NewBufferInt(out), nil
	case "!buffer_f32":
		return NewBufferF32(readFloatsSeq(node)), nil
	case "!buffer_u32":
		out := make([]uint32, len(node.Content))
		for i, c := range node.Content {
			v, _ := strconv.ParseUint(c.Value, 10, 32)
			out[i] = uint32(v)
		}
		return NewBufferU32(out), nil
	case "!buffer_binary":
		b, err := base64.StdEncoding.DecodeString(node.Value)
		if err != nil {
			return nil, err
		}
		return NewBufferBinary(b), nil
	}
	return nil, nxerr.NewInvalidData("unrecognized aamp yaml tag %q", node.Tag)
}
