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

// Package bvnorm canonicalizes bit-vector terms modulo a target width,
// separating the evaluable (trail-determined) part of a term from its
// variable part and rewriting sign-extension and negated-bit patterns into
// arithmetic so the theory solver can reason about them polynomially.
package bvnorm

import (
	"math/big"

	"github.com/consensys/go-smt-bv/internal/term"
)

// Trail is the subset of the boolean core's trail that the normalizer
// consults to decide whether a bit is currently evaluable. The concrete
// CDCL core and theory solvers are out of scope for this package; this
// interface is the contract the normalizer needs from them.
type Trail interface {
	// Eval returns the constant value of t (a boolean or width-1
	// bit-vector term) under the current assignment, and whether it is
	// currently determined at all.
	Eval(t term.ID) (value *big.Int, ok bool)
}

// AnalysisRecord is the per-(term, width) memoized decomposition described
// in the data model: a leading evaluable suffix, a contiguous central slice
// of a single base term, and the rewritten constant-only, variable-only and
// fully-normalized forms.
type AnalysisRecord struct {
	Suffix  uint32
	Length  uint32
	Start   uint32
	Base    term.ID // term.InvalidID if no bit_select base was found
	Eval    term.ID
	Var     term.ID
	Norm    term.ID
	Intros  bool
	NoBueno bool
}

type memoKey struct {
	Term  term.ID
	Width uint32
}

// Normalizer implements normalize/analyse over a shared term store. A
// Normalizer instance owns its memo tables exclusively; Reset clears them
// (e.g. when the term store itself is garbage-collected, since memoized
// IDs would otherwise dangle).
type Normalizer struct {
	store             *term.Store
	trail             Trail
	normMemo          map[memoKey]term.ID
	analyseMemo       map[memoKey]AnalysisRecord
	normInProgress    map[memoKey]bool
	analyseInProgress map[memoKey]bool
	baseSideTbl       map[term.ID]map[uint32]term.ID // per-base pre-normalization cache
}

// NewNormalizer constructs a normalizer over the given term store,
// consulting trail to determine which bits are currently evaluable.
func NewNormalizer(store *term.Store, trail Trail) *Normalizer {
	return &Normalizer{
		store:             store,
		trail:             trail,
		normMemo:          make(map[memoKey]term.ID),
		analyseMemo:       make(map[memoKey]AnalysisRecord),
		normInProgress:    make(map[memoKey]bool),
		analyseInProgress: make(map[memoKey]bool),
		baseSideTbl:       make(map[term.ID]map[uint32]term.ID),
	}
}

// Reset clears every memo table, for use after a term-store GC or a trail
// reset invalidates previously cached decompositions.
func (n *Normalizer) Reset() {
	n.normMemo = make(map[memoKey]term.ID)
	n.analyseMemo = make(map[memoKey]AnalysisRecord)
	n.normInProgress = make(map[memoKey]bool)
	n.analyseInProgress = make(map[memoKey]bool)
	n.baseSideTbl = make(map[term.ID]map[uint32]term.ID)
}

// SetTrail rebinds the trail the normalizer consults for evaluability.
// Callers must Reset afterwards: a cached decomposition computed against
// the old trail's assignments is no longer sound.
func (n *Normalizer) SetTrail(trail Trail) {
	n.trail = trail
}

// isEvaluable reports whether t (boolean or width-1 term) currently
// evaluates to a constant, per the attached trail.
func (n *Normalizer) isEvaluable(t term.ID) (*big.Int, bool) {
	if n.trail == nil {
		return nil, false
	}

	return n.trail.Eval(t)
}

// extract builds a term of width w holding bits [lo, lo+w) of t, using
// bit_select/bv_array since no dedicated extract kind exists in the term
// store's closed kind set.
func (n *Normalizer) extract(t term.ID, lo, w uint32) term.ID {
	if w == n.store.WidthOf(t) && lo == 0 {
		return t
	}

	bits := make([]term.ID, w)
	for i := uint32(0); i < w; i++ {
		bits[i] = n.store.BitSelectTerm(t, lo+i)
	}

	return n.store.BvArrayTerm(bits)
}
