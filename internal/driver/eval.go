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

	"github.com/consensys/go-smt-bv/internal/term"
)

var (
	big0 = new(big.Int)
	big1 = big.NewInt(1)
)

// evalTerm evaluates t under model, a partial assignment of bit-vector and
// boolean terms to their (already width-reduced) values. Boolean terms
// evaluate to 0 or 1. A free uninterpreted term missing from model defaults
// to zero.
func evalTerm(store *term.Store, model map[term.ID]*big.Int, t term.ID) *big.Int {
	neg := t.IsNegated()
	v := evalPositive(store, model, t)

	if v == nil {
		return nil
	}

	if neg && store.TypeOf(t).Boolean {
		if v.Sign() == 0 {
			return big1
		}

		return big0
	}

	return v
}

func evalPositive(store *term.Store, model map[term.ID]*big.Int, t term.ID) *big.Int {
	switch store.KindOf(t) {
	case term.Constant, term.BvConstant:
		return store.PayloadOf(t).Bits
	case term.Uninterpreted:
		if v, ok := model[t]; ok {
			return v
		}

		return new(big.Int)
	case term.BvArray:
		children := store.ChildrenOf(t)
		sum := new(big.Int)

		for i, c := range children {
			bit := evalTerm(store, model, c)
			if bit == nil {
				return nil
			}

			if bit.Sign() != 0 {
				sum.SetBit(sum, i, 1)
			}
		}

		return sum
	case term.BvPoly:
		children := store.ChildrenOf(t)
		coeffs := store.PayloadOf(t).Coeffs
		width := store.WidthOf(t)
		sum := new(big.Int)

		for i, c := range children {
			if c == term.InvalidID {
				sum.Add(sum, coeffs[i])
				continue
			}

			v := evalTerm(store, model, c)
			if v == nil {
				return nil
			}

			monomial := new(big.Int).Mul(coeffs[i], v)
			sum.Add(sum, monomial)
		}

		return reduceWidth(sum, width)
	case term.BitSelect:
		base := store.ChildrenOf(t)[0]
		v := evalTerm(store, model, base)

		if v == nil {
			return nil
		}

		if v.Bit(int(store.PayloadOf(t).BitIndex)) == 1 {
			return big1
		}

		return big0
	case term.Eq:
		children := store.ChildrenOf(t)
		a := evalTerm(store, model, children[0])
		b := evalTerm(store, model, children[1])

		if a == nil || b == nil {
			return nil
		}

		if a.Cmp(b) == 0 {
			return big1
		}

		return big0
	case term.Or:
		for _, c := range store.ChildrenOf(t) {
			v := evalTerm(store, model, c)
			if v == nil {
				return nil
			}

			if v.Sign() != 0 {
				return big1
			}
		}

		return big0
	case term.BvGe:
		return boolToInt(compareUnsigned(store, model, t) >= 0)
	case term.BvSge:
		return boolToInt(compareSigned(store, model, t) >= 0)
	case term.BvDiv:
		return divRem(store, model, t, false)
	case term.BvRem:
		return divRem(store, model, t, true)
	case term.Ite:
		children := store.ChildrenOf(t)
		cond := evalTerm(store, model, children[0])

		if cond == nil {
			return nil
		}

		if cond.Sign() != 0 {
			return evalTerm(store, model, children[1])
		}

		return evalTerm(store, model, children[2])
	default:
		// Apply, Forall and Exists are rejected by the internalizer before
		// a formula ever reaches the solver; Not is never built, since
		// negation is carried by the ID's polarity bit.
		return nil
	}
}

func compareUnsigned(store *term.Store, model map[term.ID]*big.Int, t term.ID) int {
	children := store.ChildrenOf(t)
	a := evalTerm(store, model, children[0])
	b := evalTerm(store, model, children[1])

	if a == nil || b == nil {
		return 0
	}

	return a.Cmp(b)
}

func compareSigned(store *term.Store, model map[term.ID]*big.Int, t term.ID) int {
	children := store.ChildrenOf(t)
	width := store.WidthOf(children[0])
	a := evalTerm(store, model, children[0])
	b := evalTerm(store, model, children[1])

	if a == nil || b == nil {
		return 0
	}

	return toSigned(a, width).Cmp(toSigned(b, width))
}

func toSigned(v *big.Int, width uint32) *big.Int {
	if width == 0 {
		return v
	}

	signed := new(big.Int).Set(v)

	if v.Bit(int(width)-1) == 1 {
		mod := new(big.Int).Lsh(big1, uint(width))
		signed.Sub(signed, mod)
	}

	return signed
}

// divRem implements SMT-LIB's division-by-zero convention: bvudiv by zero is
// all ones, bvurem by zero is the dividend itself.
func divRem(store *term.Store, model map[term.ID]*big.Int, t term.ID, rem bool) *big.Int {
	children := store.ChildrenOf(t)
	width := store.WidthOf(t)
	a := evalTerm(store, model, children[0])
	b := evalTerm(store, model, children[1])

	if a == nil || b == nil {
		return nil
	}

	if b.Sign() == 0 {
		if rem {
			return a
		}

		allOnes := new(big.Int).Sub(new(big.Int).Lsh(big1, uint(width)), big1)

		return allOnes
	}

	q, r := new(big.Int), new(big.Int)
	q.QuoRem(a, b, r)

	if rem {
		return r
	}

	return q
}

func reduceWidth(v *big.Int, width uint32) *big.Int {
	mod := new(big.Int).Lsh(big1, uint(width))
	return new(big.Int).Mod(v, mod)
}

func boolToInt(b bool) *big.Int {
	if b {
		return big1
	}

	return big0
}
