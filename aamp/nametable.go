// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package aamp

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nxtoolkit/nxbin/nxhash"
	"github.com/nxtoolkit/nxbin/nxres"
)

// NameTable recovers human-readable names for AAMP's CRC32 keys, per
// spec.md §4.6. It holds four cooperating dictionaries: a borrowed
// known-name map seeded from nxres's embedded BOTW name list, an owned
// map of runtime guesses, an ordered list of numbered-name templates,
// and a per-document "extra" table built from a ParameterIO's own
// string-valued parameters before emission.
type NameTable struct {
	mu     sync.Mutex
	known  map[uint32]string
	owned  map[uint32]string
	extra  map[uint32]string
	tmpls  []string
}

// NewNameTable returns an empty table; callers typically call LoadBOTW
// to seed known and tmpls from the embedded resource bundle.
func NewNameTable() *NameTable {
	return &NameTable{
		known: map[uint32]string{},
		owned: map[uint32]string{},
		extra: map[uint32]string{},
	}
}

// LoadBOTW seeds the known-name and numbered-template dictionaries from
// nxres's embedded lists.
func (t *NameTable) LoadBOTW() {
	for _, name := range nxres.HashedNames() {
		t.known[nxhash.CRC32(name)] = name
	}
	t.tmpls = append(t.tmpls, nxres.NumberedNameTemplates()...)
}

var (
	defaultTable     *NameTable
	defaultTableOnce sync.Once
)

// Default returns the process-wide, lazily initialized NameTable
// spec.md §5 describes. Concurrent lookups are safe: every read of the
// name maps and every insert into the owned map takes the table's mutex.
func Default() *NameTable {
	defaultTableOnce.Do(func() {
		defaultTable = NewNameTable()
		defaultTable.LoadBOTW()
	})
	return defaultTable
}

// AddName inserts name into the owned table directly, without going
// through a guess.
func (t *NameTable) AddName(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.owned[nxhash.CRC32(name)] = name
}

// AddNameReference inserts a (hash, name) pair the caller has already
// confirmed into the owned table — e.g. a name recovered some other way
// than CRC32 forward-hashing.
func (t *NameTable) AddNameReference(hash uint32, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.owned[hash] = name
}

// BuildExtraTable walks pio collecting every string-valued parameter
// (StringRef and the three FixedSafeString sizes) into the per-document
// extra table, keyed by CRC32 of the string's own content. This is what
// lets NameTable resolve the key of an object whose name hash happens to
// equal the CRC32 of a string value stored elsewhere in the same
// document (spec.md §4.6).
func (t *NameTable) BuildExtraTable(pio *ParameterIO) {
	t.extra = map[uint32]string{}
	var walkList func(l *ParameterList)
	walkObj := func(o *ParameterObject) {
		for _, e := range o.Entries() {
			var s string
			switch e.Value.Type() {
			case TypeStringRef:
				s, _ = e.Value.AsStringRef()
			case TypeString32:
				s, _ = e.Value.AsString32()
			case TypeString64:
				s, _ = e.Value.AsString64()
			case TypeString256:
				s, _ = e.Value.AsString256()
			default:
				continue
			}
			t.extra[nxhash.CRC32(s)] = s
		}
	}
	walkList = func(l *ParameterList) {
		for _, oe := range l.Objects() {
			walkObj(oe.Value)
		}
		for _, le := range l.Lists() {
			walkList(le.Value)
		}
	}
	walkList(pio.RootList)
}

func (t *NameTable) direct(hash uint32) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.owned[hash]; ok {
		return n, true
	}
	if n, ok := t.known[hash]; ok {
		return n, true
	}
	if n, ok := t.extra[hash]; ok {
		return n, true
	}
	return "", false
}

// stripSuffix returns p with one trailing "List", "es", or "s" removed
// (first match wins), or p unchanged if none apply.
func stripSuffix(p string) string {
	for _, suf := range []string{"List", "es", "s"} {
		if strings.HasSuffix(p, suf) && len(p) > len(suf) {
			return p[:len(p)-len(suf)]
		}
	}
	return p
}

var candidateForms = []string{"%s%d", "%s_%d", "%s%02d", "%s_%02d", "%s%03d", "%s_%03d"}

// Lookup implements spec.md §4.6's core lookup(hash, index_in_parent,
// parent_hash) operation.
func (t *NameTable) Lookup(hash uint32, indexInParent int, parentHash uint32) (string, bool) {
	if n, ok := t.direct(hash); ok {
		return n, true
	}

	if parent, ok := t.direct(parentHash); ok {
		prefixes := []string{parent, "Children", stripSuffix(parent)}
		for _, prefix := range prefixes {
			for _, i := range [2]int{indexInParent, indexInParent + 1} {
				for _, form := range candidateForms {
					candidate := fmt.Sprintf(form, prefix, i)
					if nxhash.CRC32(candidate) == hash {
						t.AddNameReference(hash, candidate)
						return candidate, true
					}
				}
			}
		}
	}

	for _, tmpl := range t.tmpls {
		for i := 0; i < indexInParent+2; i++ {
			candidate := fmt.Sprintf(tmpl, i)
			if nxhash.CRC32(candidate) == hash {
				t.AddNameReference(hash, candidate)
				return candidate, true
			}
		}
	}

	return "", false
}
