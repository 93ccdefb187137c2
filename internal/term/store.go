// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package term

import (
	"hash/fnv"
	"math/big"

	"github.com/consensys/go-smt-bv/pkg/util/collection/hash"
	"github.com/consensys/go-smt-bv/pkg/util/collection/set"
)

// idHash adapts an ID so it can be combined via hash.Array, giving the
// Store a collision-tolerant hash-consing table in the same style as the
// rest of the retrieved pack builds its hash-sets: hash first, then resolve
// collisions with a real equality check rather than trusting the hash alone.
type idHash ID

func (h idHash) Equals(o idHash) bool { return h == o }
func (h idHash) Hash() uint64         { return uint64(h) }

// Store is the process-global, hash-consed term DAG. It is not safe for
// concurrent use: the store is
// mutated only by the single driver thread.
type Store struct {
	// nodes holds the canonical (always-positive) representation of every
	// interned term, indexed by nodeIndex(id).
	nodes []node
	// index maps a node's combined hash to the canonical IDs of every
	// interned node sharing that hash, so Intern compares a new node in
	// full only against the nodes whose hash matches.
	index map[uint64][]ID
}

// NewStore constructs an empty term store.
func NewStore() *Store {
	return &Store{
		nodes: make([]node, 0, 256),
		index: make(map[uint64][]ID, 256),
	}
}

func nodeIndex(canonical ID) int { return int(canonical/2) - 1 }
func nodeID(index int) ID        { return ID((index + 1) * 2) }

// Intern returns the stable ID for the given node, reusing an existing one
// if an identical node (same kind, type, children and payload) has already
// been interned. Deterministic: the same inputs always produce the same ID
// within the lifetime of a store (modulo an intervening GC renumbering).
func (s *Store) Intern(kind Kind, typ Type, children []ID, payload Payload) ID {
	h := nodeHash(kind, typ, children, payload)

	for _, candidate := range s.index[h] {
		n := s.nodes[nodeIndex(candidate)]
		if nodeEquals(n, kind, typ, children, payload) {
			return candidate
		}
	}

	s.nodes = append(s.nodes, node{kind: kind, typ: typ, children: children, payload: payload})
	id := nodeID(len(s.nodes) - 1)
	s.index[h] = append(s.index[h], id)

	return id
}

// KindOf returns the constructor kind of a term, irrespective of polarity.
func (s *Store) KindOf(id ID) Kind {
	return s.nodes[nodeIndex(id.canonical())].kind
}

// TypeOf returns the sort of a term.
func (s *Store) TypeOf(id ID) Type {
	return s.nodes[nodeIndex(id.canonical())].typ
}

// WidthOf returns the bit-vector width of a term; 0 for a boolean term.
func (s *Store) WidthOf(id ID) uint32 {
	return s.TypeOf(id).Width
}

// ChildrenOf returns the child terms of a node. Negation does not affect
// children: a negated term shares its positive counterpart's children.
func (s *Store) ChildrenOf(id ID) []ID {
	return s.nodes[nodeIndex(id.canonical())].children
}

// PayloadOf returns the kind-specific payload of a term.
func (s *Store) PayloadOf(id ID) Payload {
	return s.nodes[nodeIndex(id.canonical())].payload
}

// IsNegated reports whether id is the negated presentation of its
// underlying positive term.
func (s *Store) IsNegated(id ID) bool {
	return id.IsNegated()
}

// Negate returns the term with the opposite polarity of id. Constant time,
// never allocates a new node.
func (s *Store) Negate(id ID) ID {
	return id.Negate()
}

// Len reports the number of distinct canonical nodes currently interned.
func (s *Store) Len() int {
	return len(s.nodes)
}

// GC performs mark-and-compact garbage collection over the store, keeping
// only nodes reachable from roots (and their children, transitively). It
// returns a remapping from old canonical IDs to new ones; callers holding
// IDs outside the store (assertion-stack name bindings, normalizer memo
// tables) must translate their own references through this map, or drop
// entries whose old ID is absent from it.
func (s *Store) GC(roots []ID) map[ID]ID {
	reachable := make(map[ID]bool, len(s.nodes))

	var mark func(id ID)
	mark = func(id ID) {
		c := id.canonical()
		if c == InvalidID || reachable[c] {
			return
		}

		reachable[c] = true

		for _, child := range s.nodes[nodeIndex(c)].children {
			mark(child)
		}
	}

	// Callers (the assertion stack's named assertions, the declaration
	// environment, the normalizer's memo tables) each contribute their own
	// root list, so the combined roots slice routinely repeats the same
	// canonical ID many times over; deduplicating before marking keeps the
	// traversal order deterministic regardless of how the caller assembled
	// its root list.
	rootSet := set.NewSortedSet[ID]()
	for _, r := range roots {
		rootSet.Insert(r.canonical())
	}

	for _, r := range rootSet.Elements() {
		mark(r)
	}

	var (
		newNodes = make([]node, 0, len(reachable))
		remap    = make(map[ID]ID, len(reachable))
	)

	for i, n := range s.nodes {
		old := nodeID(i)
		if !reachable[old] {
			continue
		}

		newNodes = append(newNodes, n)
		remap[old] = nodeID(len(newNodes) - 1)
	}

	for i := range newNodes {
		children := newNodes[i].children
		for j, c := range children {
			children[j] = remapID(remap, c)
		}
	}

	s.nodes = newNodes
	s.index = make(map[uint64][]ID, len(newNodes))

	for i, n := range s.nodes {
		id := nodeID(i)
		h := nodeHash(n.kind, n.typ, n.children, n.payload)
		s.index[h] = append(s.index[h], id)
	}

	return remap
}

func remapID(remap map[ID]ID, id ID) ID {
	neg := id.IsNegated()
	newCanonical, ok := remap[id.canonical()]

	if !ok {
		return InvalidID
	}

	if neg {
		return newCanonical.Negate()
	}

	return newCanonical
}

func nodeHash(kind Kind, typ Type, children []ID, payload Payload) uint64 {
	ids := make([]idHash, len(children))
	for i, c := range children {
		ids[i] = idHash(c)
	}

	h := fnv.New64a()

	_, _ = h.Write([]byte{byte(kind)})

	if typ.Boolean {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0, byte(typ.Width), byte(typ.Width >> 8), byte(typ.Width >> 16), byte(typ.Width >> 24)})
	}

	combined := hash.NewArray(ids).Hash()

	_, _ = h.Write([]byte(payload.Symbol))
	_, _ = h.Write([]byte{byte(payload.BitIndex), byte(payload.BitIndex >> 8)})

	if payload.Bits != nil {
		_, _ = h.Write(payload.Bits.Bytes())
	}

	for _, c := range payload.Coeffs {
		if c != nil {
			_, _ = h.Write(c.Bytes())
		}
	}

	return h.Sum64() ^ combined
}

func nodeEquals(n node, kind Kind, typ Type, children []ID, payload Payload) bool {
	if n.kind != kind || n.typ != typ || len(n.children) != len(children) {
		return false
	}

	for i := range children {
		if n.children[i] != children[i] {
			return false
		}
	}

	if n.payload.Symbol != payload.Symbol || n.payload.BitIndex != payload.BitIndex {
		return false
	}

	if !bigIntEquals(n.payload.Bits, payload.Bits) {
		return false
	}

	if len(n.payload.Coeffs) != len(payload.Coeffs) {
		return false
	}

	for i := range payload.Coeffs {
		if !bigIntEquals(n.payload.Coeffs[i], payload.Coeffs[i]) {
			return false
		}
	}

	return true
}

func bigIntEquals(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Cmp(b) == 0
}
