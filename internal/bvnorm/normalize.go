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
package bvnorm

import "github.com/consensys/go-smt-bv/internal/term"

// Normalize produces a canonical term of width w that evaluates identically
// to t's low w bits under any model. w must satisfy 1 <= w <= bitwidth(t).
// The only failure path is memory exhaustion; malformed input is a
// programming error, caught by the panics below rather than a returned
// error (mirroring the "no failure path" contract in the data model).
func (n *Normalizer) Normalize(t term.ID, w uint32) term.ID {
	if w == 0 {
		panic("bvnorm: width must be >= 1")
	}

	if n.store.IsNegated(t) {
		return n.store.Negate(n.Normalize(n.store.Negate(t), w))
	}

	key := memoKey{t, w}
	if cached, ok := n.normMemo[key]; ok {
		return cached
	}

	if n.normInProgress[key] {
		// Guards the open question in the design notes: analyse's
		// sign-extension rewriting must never re-enter itself on the
		// same (term, width).
		panic("bvnorm: re-entrant normalize on same (term, width)")
	}

	n.normInProgress[key] = true
	defer delete(n.normInProgress, key)

	result := n.normalizeUncached(t, w)
	n.normMemo[key] = result

	return result
}

func (n *Normalizer) normalizeUncached(t term.ID, w uint32) term.ID {
	kind := n.store.KindOf(t)

	// Fast paths: the boolean constants have no bits and are returned as
	// they are; bit-vector literals truncate directly from their payload;
	// simple variables already known to the trail truncate from their
	// trail value; anything else just truncates structurally.
	switch kind {
	case term.Constant:
		return t
	case term.BvConstant:
		return n.store.BvConstant(w, n.store.PayloadOf(t).Bits)
	case term.Uninterpreted:
		if v, ok := n.isEvaluable(t); ok {
			return n.store.BvConstant(w, v)
		}

		return n.extract(t, 0, w)
	}

	switch kind {
	case term.BvPoly:
		return n.normalizePoly(t, w)
	case term.Eq, term.Or, term.Ite, term.BvGe, term.BvSge, term.BvDiv, term.BvRem:
		return n.normalizeComposite(t, w, kind)
	case term.BitSelect:
		return n.normalizeBitSelect(t, w)
	case term.BvArray:
		rec := n.Analyse(t, w)
		return rec.Norm
	default:
		return n.extract(t, 0, w)
	}
}

func (n *Normalizer) normalizePoly(t term.ID, w uint32) term.ID {
	var (
		vars     = n.store.ChildrenOf(t)
		coeffs   = n.store.PayloadOf(t).Coeffs
		newVars  = make([]term.ID, len(vars))
	)

	for i, v := range vars {
		if v == term.InvalidID {
			newVars[i] = term.InvalidID
			continue
		}

		newVars[i] = n.Normalize(v, w)
	}

	return n.store.BvPolyTerm(w, newVars, coeffs)
}

func (n *Normalizer) normalizeComposite(t term.ID, w uint32, kind term.Kind) term.ID {
	children := n.store.ChildrenOf(t)
	newChildren := make([]term.ID, len(children))

	for i, c := range children {
		cw := n.store.WidthOf(c)
		if cw == 0 {
			// boolean argument (e.g. ite's condition): nothing to
			// truncate; it is kept as it is, without normalizing it.
			newChildren[i] = c
			continue
		}

		newChildren[i] = n.Normalize(c, cw)
	}

	typ := n.store.TypeOf(t)

	return n.store.Intern(kind, typ, newChildren, n.store.PayloadOf(t))
}

func (n *Normalizer) normalizeBitSelect(t term.ID, w uint32) term.ID {
	base := n.store.ChildrenOf(t)[0]
	idx := n.store.PayloadOf(t).BitIndex
	newBase := n.Normalize(base, idx+1)

	return n.store.BitSelectTerm(newBase, idx)
}
