// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package nxres

import "github.com/golang/protobuf/proto"

// NameEntryProto is one persisted (hash, name) guess.
type NameEntryProto struct {
	Hash uint32 `protobuf:"varint,1,opt,name=hash,proto3" json:"hash,omitempty"`
	Name string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
}

func (m *NameEntryProto) Reset()         { *m = NameEntryProto{} }
func (m *NameEntryProto) String() string { return proto.CompactTextString(m) }
func (*NameEntryProto) ProtoMessage()    {}

// NameListProto is the on-disk form of a NameTable's owned (guessed)
// entries: spec.md §4.6's lookup algorithm memoizes guesses so repeated
// lookups are O(1); persisting that table across runs avoids recomputing
// every guess each time a tool starts up against the same game dump.
type NameListProto struct {
	Entries []*NameEntryProto `protobuf:"bytes,1,rep,name=entries,proto3" json:"entries,omitempty"`
}

func (m *NameListProto) Reset()         { *m = NameListProto{} }
func (m *NameListProto) String() string { return proto.CompactTextString(m) }
func (*NameListProto) ProtoMessage()    {}

// MarshalNameList encodes a NameListProto to its wire form.
func MarshalNameList(m *NameListProto) ([]byte, error) { return proto.Marshal(m) }

// UnmarshalNameList decodes a NameListProto from its wire form.
func UnmarshalNameList(b []byte) (*NameListProto, error) {
	var m NameListProto
	if err := proto.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
