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

import (
	"math/big"

	"github.com/bits-and-blooms/bitset"

	"github.com/consensys/go-smt-bv/internal/term"
)

// Analyse returns the richer per-(term, width) decomposition that
// conflict-explanation clients need: the leading evaluable suffix, the
// contiguous central slice of a single base term (with sign-extension and
// negated-polarity patterns collapsed into arithmetic), and the trailing
// evaluable bits.
func (n *Normalizer) Analyse(t term.ID, w uint32) AnalysisRecord {
	key := memoKey{t, w}
	if cached, ok := n.analyseMemo[key]; ok {
		return cached
	}

	if n.analyseInProgress[key] {
		panic("bvnorm: re-entrant analyse on same (term, width)")
	}

	n.analyseInProgress[key] = true
	defer delete(n.analyseInProgress, key)

	rec := n.analyseUncached(t, w)
	n.analyseMemo[key] = rec

	return rec
}

func (n *Normalizer) analyseUncached(t term.ID, w uint32) AnalysisRecord {
	if n.store.KindOf(t) != term.BvArray {
		return n.analyseGeneric(t, w)
	}

	return n.analyseBitArray(t, w)
}

// analyseGeneric handles any non-bit_array term by falling back to treating
// it as a single opaque base spanning the whole target width, or as a
// constant if the trail already evaluates it.
func (n *Normalizer) analyseGeneric(t term.ID, w uint32) AnalysisRecord {
	if v, ok := n.isEvaluable(t); ok {
		evalTerm := n.store.BvConstant(w, v)
		return AnalysisRecord{Suffix: w, Eval: evalTerm, Var: zero(n.store, w), Norm: evalTerm}
	}

	norm := n.Normalize(t, w)

	return AnalysisRecord{
		Length: w,
		Base:   t,
		Eval:   zero(n.store, w),
		Var:    norm,
		Norm:   norm,
	}
}

// analyseBitArray implements the subtle core described in the data model:
// suffix detection, contiguous-base detection, sign-extension collapse, and
// negated-polarity rewriting.
func (n *Normalizer) analyseBitArray(t term.ID, w uint32) AnalysisRecord {
	bits := n.store.ChildrenOf(t)
	if uint32(len(bits)) < w {
		w = uint32(len(bits))
	}

	mask := evaluableMask(n, bits, w)

	suffix := uint32(0)
	for suffix < w {
		if !mask.Test(uint(suffix)) {
			break
		}

		suffix++
	}

	if suffix == w {
		v := evalBitRange(n, bits, 0, w)
		evalTerm := n.store.BvConstant(w, v)

		return AnalysisRecord{Suffix: w, Eval: evalTerm, Var: zero(n.store, w), Norm: evalTerm}
	}

	base, start, negPolarity, ok := n.asBitSelect(bits[suffix])
	if !ok {
		return AnalysisRecord{Suffix: suffix, NoBueno: true, Norm: n.extract(t, 0, w)}
	}

	// Contiguous-slice detection: each successive non-evaluable bit must
	// select the next index of the same base, with matching polarity.
	length := uint32(1)
	k := suffix + 1

	for k < w {
		b2, idx2, neg2, ok2 := n.asBitSelect(bits[k])
		if !ok2 || b2 != base || neg2 != negPolarity || idx2 != start+length {
			break
		}

		length++
		k++
	}

	shortLength := length
	lastBit := bits[suffix+length-1]

	// Sign-extension detection: a tail of exact repeats of the last
	// central bit is the hallmark of a sign-extended representation.
	for k < w && bits[k] == lastBit {
		length++
		k++
	}

	signExtLen := length - shortLength
	tailStart := suffix + length

	for i := tailStart; i < w; i++ {
		if !mask.Test(uint(i)) {
			return AnalysisRecord{Suffix: suffix, Length: length, Start: start, Base: base, NoBueno: true, Norm: n.extract(t, 0, w)}
		}
	}

	evalValue := new(big.Int)

	for i := uint32(0); i < suffix; i++ {
		setBitIfTrue(n, evalValue, bits[i], i)
	}

	for i := tailStart; i < w; i++ {
		setBitIfTrue(n, evalValue, bits[i], i)
	}

	baseSlice := n.preNormalizedBase(base, start+shortLength)
	baseSlice = n.extract(baseSlice, start, shortLength)

	if negPolarity {
		// ¬x = (−x) − 1 bitwise <=> −(x+1); collapse the negated
		// central bits into arithmetic on the positive base.
		plusOne := polyAddConst(n.store, shortLength, baseSlice, big.NewInt(1))
		baseSlice = polyNegate(n.store, shortLength, plusOne)
	}

	var varCentral term.ID

	if signExtLen > 0 {
		half := new(big.Int).Lsh(big.NewInt(1), uint(shortLength-1))
		plusHalf := polyAddConst(n.store, shortLength, baseSlice, half)
		halfConst := n.store.BvConstant(shortLength, half)
		extended := reinterpret(n.store, plusHalf, length)
		extendedHalf := reinterpret(n.store, halfConst, length)
		varCentral = polySub(n.store, length, extended, extendedHalf)
	} else {
		varCentral = reinterpret(n.store, baseSlice, length)
	}

	intros := negPolarity || signExtLen > 0

	evalTerm := n.store.BvConstant(w, evalValue)
	shiftCoeff := new(big.Int).Lsh(big.NewInt(1), uint(suffix))
	norm := n.store.BvPolyTerm(w, []term.ID{varCentral, term.InvalidID}, []*big.Int{shiftCoeff, evalValue})

	if suffix == 0 && evalValue.Sign() == 0 && signExtLen == 0 && length == w {
		// The slice spans the whole width with nothing evaluable around
		// it: the slice itself is already the normal form.
		norm = baseSlice
	}

	return AnalysisRecord{
		Suffix: suffix,
		Length: length,
		Start:  start,
		Base:   base,
		Eval:   evalTerm,
		Var:    varCentral,
		Norm:   norm,
		Intros: intros,
	}
}

// asBitSelect checks whether b (after stripping its own polarity) selects a
// single bit of some base term, returning that base, the selected index,
// and whether b itself is negated.
func (n *Normalizer) asBitSelect(b term.ID) (base term.ID, idx uint32, negated bool, ok bool) {
	negated = n.store.IsNegated(b)

	positive := b
	if negated {
		positive = n.store.Negate(b)
	}

	if n.store.KindOf(positive) != term.BitSelect {
		return term.InvalidID, 0, false, false
	}

	children := n.store.ChildrenOf(positive)

	return children[0], n.store.PayloadOf(positive).BitIndex, negated, true
}

// preNormalizedBase maintains the small fixed-capacity side table of
// per-base pre-normalized forms: when the same base is analysed at
// different maximum bit indices across an array, this ensures every
// bit_select over it resolves against one consistent normalized form.
func (n *Normalizer) preNormalizedBase(base term.ID, upTo uint32) term.ID {
	cached, ok := n.baseSideTbl[base]
	if !ok {
		cached = make(map[uint32]term.ID)
		n.baseSideTbl[base] = cached
	}

	if t, ok := cached[upTo]; ok {
		return t
	}

	norm := n.Normalize(base, upTo)
	cached[upTo] = norm

	return norm
}

func setBitIfTrue(n *Normalizer, acc *big.Int, bit term.ID, pos uint32) {
	v, ok := n.isEvaluable(bit)
	if ok && v != nil && v.Sign() != 0 {
		acc.SetBit(acc, int(pos), 1)
	}
}

func evalBitRange(n *Normalizer, bits []term.ID, lo, hi uint32) *big.Int {
	acc := new(big.Int)

	for i := lo; i < hi; i++ {
		setBitIfTrue(n, acc, bits[i], i)
	}

	return acc
}

func zero(store *term.Store, w uint32) term.ID {
	return store.BvConstant(w, big.NewInt(0))
}

// evaluableMask computes, once per analyseBitArray call, which of the first
// w array bits the trail can currently evaluate. The suffix scan and the
// trailing-evaluable check both test against this single bitmap rather than
// re-querying the trail per bit per loop.
func evaluableMask(n *Normalizer, bits []term.ID, w uint32) *bitset.BitSet {
	mask := bitset.New(uint(w))

	for i := uint32(0); i < w; i++ {
		if _, ok := n.isEvaluable(bits[i]); ok {
			mask.Set(uint(i))
		}
	}

	return mask
}
