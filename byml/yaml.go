// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package byml

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nxtoolkit/nxbin/nxerr"
)

// ToYAML renders root using the local-tag YAML dialect spec.md §4.7
// describes: untagged scalars for String/Bool/Int32/Float32, and !u/!l/!ul/
// !f64/!!binary/!h32/!h64/!file for the rest.
func ToYAML(root *Node) ([]byte, error) {
	return yaml.Marshal(root)
}

// FromYAML parses the inverse of ToYAML.
func FromYAML(data []byte) (*Node, error) {
	n := &Node{}
	if err := yaml.Unmarshal(data, n); err != nil {
		return nil, err
	}
	return n, nil
}

func toYAMLNode(v interface{}) (*yaml.Node, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) > 0 {
		return doc.Content[0], nil
	}
	return &doc, nil
}

func scalarYAMLNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// MarshalYAML implements yaml.Marshaler.
func (n *Node) MarshalYAML() (interface{}, error) {
	switch n.typ {
	case TypeNull:
		return nil, nil
	case TypeString:
		return n.str, nil
	case TypeBool:
		return n.b, nil
	case TypeInt32:
		return n.i32, nil
	case TypeFloat32:
		s := strconv.FormatFloat(float64(n.f32), 'g', -1, 32)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0" // keep integral values from reading back as Int32
		}
		return scalarYAMLNode("!!float", s), nil
	case TypeUInt32:
		return scalarYAMLNode("!u", strconv.FormatUint(uint64(n.u32), 10)), nil
	case TypeInt64:
		return scalarYAMLNode("!l", strconv.FormatInt(n.i64, 10)), nil
	case TypeUInt64:
		return scalarYAMLNode("!ul", strconv.FormatUint(n.u64, 10)), nil
	case TypeFloat64:
		return scalarYAMLNode("!f64", strconv.FormatFloat(n.f64, 'g', -1, 64)), nil
	case TypeBinary:
		return scalarYAMLNode("!!binary", base64.StdEncoding.EncodeToString(n.bin)), nil
	case TypeFile:
		return n.fileYAMLNode()
	case TypeArray:
		return n.arr, nil
	case TypeHash:
		return n.hashYAMLNode()
	case TypeHash32:
		return n.hash32YAMLNode()
	case TypeHash64:
		return n.hash64YAMLNode()
	}
	return nil, &nxerr.Unsupported{Feature: "rendering byml node type " + n.typ.String() + " to YAML"}
}

func (n *Node) hashYAMLNode() (*yaml.Node, error) {
	keys := n.hash.Keys()
	content := make([]*yaml.Node, 0, 2*len(keys))
	for _, k := range keys {
		v, _ := n.hash.Get(k)
		valNode, err := toYAMLNode(v)
		if err != nil {
			return nil, err
		}
		content = append(content, scalarYAMLNode("!!str", k), valNode)
	}
	return &yaml.Node{Kind: yaml.MappingNode, Content: content}, nil
}

func (n *Node) hash32YAMLNode() (*yaml.Node, error) {
	keys := n.hash32.Keys()
	content := make([]*yaml.Node, 0, 2*len(keys))
	for _, k := range keys {
		v, _ := n.hash32.Get(k)
		valNode, err := toYAMLNode(v)
		if err != nil {
			return nil, err
		}
		content = append(content, scalarYAMLNode("!!int", strconv.FormatUint(uint64(k), 10)), valNode)
	}
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!h32", Content: content}, nil
}

func (n *Node) hash64YAMLNode() (*yaml.Node, error) {
	keys := n.hash64.Keys()
	content := make([]*yaml.Node, 0, 2*len(keys))
	for _, k := range keys {
		v, _ := n.hash64.Get(k)
		valNode, err := toYAMLNode(v)
		if err != nil {
			return nil, err
		}
		content = append(content, scalarYAMLNode("!!int", strconv.FormatUint(k, 10)), valNode)
	}
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!h64", Content: content}, nil
}

func (n *Node) fileYAMLNode() (*yaml.Node, error) {
	content := []*yaml.Node{
		scalarYAMLNode("!!str", "alignment"),
		scalarYAMLNode("!!int", strconv.FormatUint(uint64(n.file.Alignment), 10)),
		scalarYAMLNode("!!str", "data"),
		scalarYAMLNode("!!binary", base64.StdEncoding.EncodeToString(n.file.Data)),
	}
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!file", Content: content}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Node) UnmarshalYAML(node *yaml.Node) error {
	switch node.Tag {
	case "!!null":
		*n = *NewNull()
		return nil
	case "!!str":
		*n = *NewString(node.Value)
		return nil
	case "!!bool":
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			return err
		}
		*n = *NewBool(b)
		return nil
	case "!!int":
		v, err := strconv.ParseInt(node.Value, 10, 32)
		if err != nil {
			return err
		}
		*n = *NewInt32(int32(v))
		return nil
	case "!!float":
		v, err := strconv.ParseFloat(node.Value, 32)
		if err != nil {
			return err
		}
		*n = *NewFloat32(float32(v))
		return nil
	case "!u":
		v, err := strconv.ParseUint(node.Value, 10, 32)
		if err != nil {
			return err
		}
		*n = *NewUInt32(uint32(v))
		return nil
	case "!l":
		v, err := strconv.ParseInt(node.Value, 10, 64)
		if err != nil {
			return err
		}
		*n = *NewInt64(v)
		return nil
	case "!ul":
		v, err := strconv.ParseUint(node.Value, 10, 64)
		if err != nil {
			return err
		}
		*n = *NewUInt64(v)
		return nil
	case "!f64":
		v, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return err
		}
		*n = *NewFloat64(v)
		return nil
	case "!!binary":
		data, err := base64.StdEncoding.DecodeString(node.Value)
		if err != nil {
			return err
		}
		*n = *NewBinary(data)
		return nil
	case "!!seq":
		items := make([]*Node, len(node.Content))
		for i, c := range node.Content {
			items[i] = &Node{}
			if err := items[i].UnmarshalYAML(c); err != nil {
				return fmt.Errorf("byml array element %d: %w", i, err)
			}
		}
		*n = *NewArray(items...)
		return nil
	case "!!map":
		h := newHash()
		for i := 0; i+1 < len(node.Content); i += 2 {
			v := &Node{}
			if err := v.UnmarshalYAML(node.Content[i+1]); err != nil {
				return fmt.Errorf("byml hash key %q: %w", node.Content[i].Value, err)
			}
			h.Set(node.Content[i].Value, v)
		}
		*n = Node{typ: TypeHash, hash: h}
		return nil
	case "!h32":
		h := newHash32()
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, err := strconv.ParseUint(node.Content[i].Value, 10, 32)
			if err != nil {
				return err
			}
			v := &Node{}
			if err := v.UnmarshalYAML(node.Content[i+1]); err != nil {
				return err
			}
			h.Set(uint32(k), v)
		}
		*n = Node{typ: TypeHash32, hash32: h}
		return nil
	case "!h64":
		h := newHash64()
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, err := strconv.ParseUint(node.Content[i].Value, 10, 64)
			if err != nil {
				return err
			}
			v := &Node{}
			if err := v.UnmarshalYAML(node.Content[i+1]); err != nil {
				return err
			}
			h.Set(k, v)
		}
		*n = Node{typ: TypeHash64, hash64: h}
		return nil
	case "!file":
		var align uint64
		var data []byte
		for i := 0; i+1 < len(node.Content); i += 2 {
			switch node.Content[i].Value {
			case "alignment":
				v, err := strconv.ParseUint(node.Content[i+1].Value, 10, 32)
				if err != nil {
					return err
				}
				align = v
			case "data":
				d, err := base64.StdEncoding.DecodeString(node.Content[i+1].Value)
				if err != nil {
					return err
				}
				data = d
			}
		}
		*n = *NewFile(uint32(align), data)
		return nil
	}
	return nxerr.NewInvalidData("unrecognized byml yaml tag %q", node.Tag)
}
