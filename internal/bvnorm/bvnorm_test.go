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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consensys/go-smt-bv/internal/term"
)

// emptyTrail evaluates nothing, as if every variable were still free.
type emptyTrail struct{}

func (emptyTrail) Eval(term.ID) (*big.Int, bool) { return nil, false }

func TestNormalizeIdempotent(t *testing.T) {
	store := term.NewStore()
	n := NewNormalizer(store, emptyTrail{})

	x := store.Uninterpreted("x", term.BvType(8))

	once := n.Normalize(x, 4)
	twice := n.Normalize(once, 4)

	assert.Equal(t, once, twice, "normalize(normalize(t, w), w) must equal normalize(t, w)")
}

func TestNormalizeFullWidthIsIdentity(t *testing.T) {
	store := term.NewStore()
	n := NewNormalizer(store, emptyTrail{})

	x := store.Uninterpreted("x", term.BvType(8))

	got := n.Normalize(x, 8)
	assert.Equal(t, x, got, "normalize at full width must be the identity")
}

func TestNormalizeConstantTruncates(t *testing.T) {
	store := term.NewStore()
	n := NewNormalizer(store, emptyTrail{})

	c := store.BvConstant(8, big.NewInt(0xAB))
	got := n.Normalize(c, 4)

	want := store.BvConstant(4, big.NewInt(0xB))
	assert.Equal(t, want, got, "constant truncation must reduce modulo 2^w")
}

func TestAnalyseFullyEvaluable(t *testing.T) {
	store := term.NewStore()

	trail := constTrail{values: map[term.ID]*big.Int{}}
	tru := store.TrueTerm()
	fls := store.FalseTerm()
	trail.values[tru] = big.NewInt(1)
	trail.values[fls] = big.NewInt(0)

	arr := store.BvArrayTerm([]term.ID{tru, fls, tru})

	n := NewNormalizer(store, trail)
	rec := n.Analyse(arr, 3)

	assert.Equal(t, uint32(3), rec.Suffix, "expected fully evaluable array to report suffix == width")
}

type constTrail struct {
	values map[term.ID]*big.Int
}

func (c constTrail) Eval(t term.ID) (*big.Int, bool) {
	v, ok := c.values[t]
	return v, ok
}

func TestAnalyseContiguousBase(t *testing.T) {
	store := term.NewStore()
	n := NewNormalizer(store, emptyTrail{})

	base := store.Uninterpreted("base", term.BvType(8))
	b0 := store.BitSelectTerm(base, 0)
	b1 := store.BitSelectTerm(base, 1)
	b2 := store.BitSelectTerm(base, 2)

	arr := store.BvArrayTerm([]term.ID{b0, b1, b2})

	rec := n.Analyse(arr, 3)

	require.False(t, rec.NoBueno, "expected a clean contiguous slice, got NoBueno")
	assert.Equal(t, base, rec.Base)
	assert.Equal(t, uint32(0), rec.Start)
	assert.Equal(t, uint32(3), rec.Length)
}

// TestAnalyseSignExtensionCollapse exercises the sign-extension branch of
// analyseBitArray (a trailing run of repeats of the last central bit), and
// checks the resulting record against direct evaluation rather than just
// its structural fields: for every assignment to the free base variable,
// eval_M of the reconstructed Norm must equal eval_M of the original array.
func TestAnalyseSignExtensionCollapse(t *testing.T) {
	store := term.NewStore()

	base := store.Uninterpreted("base", term.BvType(3))
	tru := store.TrueTerm()

	b1 := store.BitSelectTerm(base, 1)
	b2 := store.BitSelectTerm(base, 2)

	// bits[0] is evaluable (suffix), bits[1..2] select a contiguous,
	// non-evaluable central slice of base, and bits[3] repeats the last
	// central bit verbatim, the hallmark of a sign-extended encoding.
	arr := store.BvArrayTerm([]term.ID{tru, b1, b2, b2})

	trail := constTrail{values: map[term.ID]*big.Int{tru: big.NewInt(1)}}
	n := NewNormalizer(store, trail)

	rec := n.Analyse(arr, 4)

	require.False(t, rec.NoBueno)
	assert.Equal(t, uint32(1), rec.Suffix)
	assert.Equal(t, uint32(1), rec.Start)
	assert.Equal(t, uint32(3), rec.Length, "expected the sign-extension repeat to extend the central slice")
	assert.True(t, rec.Intros, "sign-extension must be flagged as an introduced rewrite")

	for baseVal := int64(0); baseVal < 8; baseVal++ {
		want := evalUnderModel(store, trail, base, big.NewInt(baseVal), arr)
		got := evalUnderModel(store, trail, base, big.NewInt(baseVal), rec.Norm)
		assert.Equalf(t, want, got, "eval_M(Norm) must match eval_M(original) for base=%d", baseVal)
	}
}

// TestAnalyseNegatedPolarity exercises the negated bit_select rewrite: every
// central bit is the negation of a base bit_select, collapsed into an
// arithmetic negation rather than left as per-bit logic.
func TestAnalyseNegatedPolarity(t *testing.T) {
	store := term.NewStore()

	base := store.Uninterpreted("base", term.BvType(2))

	nb0 := store.Negate(store.BitSelectTerm(base, 0))
	nb1 := store.Negate(store.BitSelectTerm(base, 1))

	arr := store.BvArrayTerm([]term.ID{nb0, nb1})

	trail := emptyTrail{}
	n := NewNormalizer(store, trail)

	rec := n.Analyse(arr, 2)

	require.False(t, rec.NoBueno)
	assert.Equal(t, base, rec.Base)
	assert.Equal(t, uint32(0), rec.Start)
	assert.Equal(t, uint32(2), rec.Length)
	assert.True(t, rec.Intros, "negated polarity must be flagged as an introduced rewrite")

	for baseVal := int64(0); baseVal < 4; baseVal++ {
		want := evalUnderModel(store, trail, base, big.NewInt(baseVal), arr)
		got := evalUnderModel(store, trail, base, big.NewInt(baseVal), rec.Norm)
		assert.Equalf(t, want, got, "eval_M(Norm) must match eval_M(original) for base=%d", baseVal)
	}
}

// evalUnderModel evaluates t, the way eval_M does in the data model: trail
// assignments take precedence, base's own bits come from baseVal, and every
// other node is interpreted structurally (BvPoly as a linear combination,
// BvArray as a bit concatenation, BitSelect against whichever base term it
// names). It only understands the node shapes the normalizer itself
// produces, which is all this package's tests ever need to check.
func evalUnderModel(store *term.Store, trail Trail, base term.ID, baseVal *big.Int, t term.ID) *big.Int {
	if store.IsNegated(t) {
		v := evalUnderModel(store, trail, base, baseVal, store.Negate(t))
		return new(big.Int).Xor(v, big.NewInt(1))
	}

	if v, ok := trail.Eval(t); ok {
		return v
	}

	if t == base {
		return new(big.Int).Set(baseVal)
	}

	switch store.KindOf(t) {
	case term.Constant, term.BvConstant:
		return new(big.Int).Set(store.PayloadOf(t).Bits)

	case term.BitSelect:
		children := store.ChildrenOf(t)
		if children[0] != base {
			panic("evalUnderModel: bit_select over an unmodeled base term")
		}

		idx := store.PayloadOf(t).BitIndex
		bit := new(big.Int).Rsh(baseVal, uint(idx))
		bit.And(bit, big.NewInt(1))

		return bit

	case term.BvPoly:
		children := store.ChildrenOf(t)
		coeffs := store.PayloadOf(t).Coeffs

		sum := new(big.Int)

		for i, c := range children {
			if c == term.InvalidID {
				sum.Add(sum, coeffs[i])
				continue
			}

			v := evalUnderModel(store, trail, base, baseVal, c)
			sum.Add(sum, new(big.Int).Mul(coeffs[i], v))
		}

		mod := new(big.Int).Lsh(big.NewInt(1), uint(store.WidthOf(t)))

		return sum.Mod(sum, mod)

	case term.BvArray:
		children := store.ChildrenOf(t)
		sum := new(big.Int)

		for i, c := range children {
			bit := evalUnderModel(store, trail, base, baseVal, c)
			if bit.Sign() != 0 {
				sum.SetBit(sum, i, 1)
			}
		}

		return sum

	default:
		panic("evalUnderModel: unsupported term kind in test")
	}
}
