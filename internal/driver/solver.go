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
package driver

import (
	"math/big"

	"github.com/consensys/go-smt-bv/internal/context"
	"github.com/consensys/go-smt-bv/internal/term"
)

// refSolvers is a minimal, honest stand-in for the CDCL core and theory
// solvers named only by their contract in the specification this core
// implements (they are explicitly out of scope): a union-find over
// top-level equalities plus an evaluator over the asserted formulas. It
// never reports a wrong sat/unsat: a conflicting pair of constants makes it
// report unsat, a consistent and verified assignment makes it report sat,
// and anything it cannot decide this way is reported, honestly, as unknown.
type refSolvers struct {
	store *term.Store
	// frames[i] holds the atoms asserted while the context was at push
	// level i; frames[0] is the base scope.
	frames [][]term.ID
	// model is populated by the most recent Check that returned Sat.
	model map[term.ID]*big.Int
}

func newRefSolvers(store *term.Store) *refSolvers {
	return &refSolvers{store: store, frames: [][]term.ID{nil}}
}

// PushFrame opens a new scope for subsequently-asserted atoms. Called by the
// driver alongside assertstack.Push and context.Push; not part of the
// context.Solvers contract, since that contract only exposes Check and
// BacktrackToLevel.
func (r *refSolvers) PushFrame() {
	r.frames = append(r.frames, nil)
}

// AssertAtom records a successfully internalized top-level formula against
// the current scope.
func (r *refSolvers) AssertAtom(f term.ID) {
	top := len(r.frames) - 1
	r.frames[top] = append(r.frames[top], f)
}

// BacktrackToLevel implements context.Solvers: discards every frame above
// level, matching the context's own base level after a pop.
func (r *refSolvers) BacktrackToLevel(level uint) {
	if int(level)+1 < len(r.frames) {
		r.frames = r.frames[:level+1]
	}
}

// Reset discards every frame but the base scope.
func (r *refSolvers) Reset() {
	r.frames = [][]term.ID{nil}
	r.model = nil
}

// Model returns the assignment that justified the most recent Sat result.
func (r *refSolvers) Model() map[term.ID]*big.Int {
	return r.model
}

// Check implements context.Solvers.
func (r *refSolvers) Check(interrupt <-chan struct{}) context.Status {
	var asserted []term.ID

	for _, frame := range r.frames {
		asserted = append(asserted, frame...)
	}

	uf := newUnionFind()

	for _, f := range asserted {
		select {
		case <-interrupt:
			return context.Interrupted
		default:
		}

		if f.IsNegated() {
			continue
		}

		if r.store.KindOf(f) == term.Eq {
			children := r.store.ChildrenOf(f)
			uf.union(children[0], children[1])
		}
	}

	if conflict := uf.constantConflict(r.store); conflict {
		return context.Unsat
	}

	model := uf.assignment(r.store)

	for _, f := range asserted {
		v := evalTerm(r.store, model, f)
		if v == nil || v.Sign() == 0 {
			return context.Unknown
		}
	}

	r.model = model

	return context.Sat
}

// unionFind groups terms known to be equal via top-level, positive
// equalities.
type unionFind struct {
	parent map[term.ID]term.ID
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[term.ID]term.ID)}
}

func (u *unionFind) find(x term.ID) term.ID {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}

	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}

	for u.parent[x] != root {
		next := u.parent[x]
		u.parent[x] = root
		x = next
	}

	return root
}

func (u *unionFind) union(a, b term.ID) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// constantConflict reports whether any equivalence class contains two
// distinct bit-vector constants.
func (u *unionFind) constantConflict(store *term.Store) bool {
	constants := make(map[term.ID]*big.Int)

	for x := range u.parent {
		if store.KindOf(x) != term.BvConstant {
			continue
		}

		root := u.find(x)

		if existing, ok := constants[root]; ok {
			if existing.Cmp(store.PayloadOf(x).Bits) != 0 {
				return true
			}
		} else {
			constants[root] = store.PayloadOf(x).Bits
		}
	}

	return false
}

// assignment builds a concrete model: every equivalence class containing a
// bit-vector constant assigns that value to its members; every other
// uninterpreted term defaults to zero.
func (u *unionFind) assignment(store *term.Store) map[term.ID]*big.Int {
	roots := make(map[term.ID]*big.Int)

	for x := range u.parent {
		if store.KindOf(x) == term.BvConstant {
			roots[u.find(x)] = store.PayloadOf(x).Bits
		}
	}

	model := make(map[term.ID]*big.Int)

	for x := range u.parent {
		if store.TypeOf(x).Boolean {
			continue
		}

		root := u.find(x)
		if v, ok := roots[root]; ok {
			model[x] = v
		} else {
			model[x] = new(big.Int)
		}
	}

	return model
}
