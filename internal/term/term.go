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

// Package term implements the hash-consed term DAG shared by every other
// component of the solver core: the BV normalizer, the internalizer and the
// assertion stack all refer to terms purely by their stable ID.
package term

import "math/big"

// Kind identifies the closed set of term constructors this solver core
// understands.
type Kind uint8

// The closed set of term kinds.
const (
	Constant Kind = iota
	Uninterpreted
	BvConstant
	BvArray // concatenation of boolean bits
	BvPoly  // bit-vector polynomial
	BitSelect
	Apply
	Ite
	Eq
	Not
	Or
	BvGe
	BvSge
	BvDiv
	BvRem
	Forall
	Exists
)

//nolint:revive
func (k Kind) String() string {
	names := [...]string{
		"constant", "uninterpreted", "bv_constant", "bv_array", "bv_poly",
		"bit_select", "apply", "ite", "eq", "not", "or", "bv_ge", "bv_sge",
		"bv_div", "bv_rem", "forall", "exists",
	}

	if int(k) < len(names) {
		return names[k]
	}

	return "unknown"
}

// Type is the sort of a term: either Boolean, or a bit-vector of a given
// width.
type Type struct {
	Boolean bool
	Width   uint32
}

// BoolType is the unique boolean sort.
var BoolType = Type{Boolean: true}

// BvType constructs the bit-vector sort of the given width.
func BvType(width uint32) Type {
	return Type{Boolean: false, Width: width}
}

// Payload carries kind-specific data that isn't expressed as a child term.
// Only the fields relevant to a node's Kind are populated; see the
// constructors in store.go for which fields go with which kind.
type Payload struct {
	// Symbol holds the name of an Uninterpreted constant/function, or a
	// bound variable.
	Symbol string
	// Bits holds the value of a BvConstant, as an unsigned integer modulo
	// 2^width.
	Bits *big.Int
	// BitIndex holds the selected bit index of a BitSelect term.
	BitIndex uint32
	// Coeffs holds the per-child monomial coefficients of a BvPoly term,
	// parallel to Children; Children[i] is multiplied by Coeffs[i]. A nil
	// Children[i] (represented by the zero ID) denotes the constant
	// monomial, whose coefficient is the polynomial's constant offset.
	Coeffs []*big.Int
}

// ID is a stable term identifier. The low bit is a polarity flag: odd IDs
// are the logical negation of the even ID one less than them. This makes
// negation a constant-time bit-flip that never allocates, matching the
// "positive term plus optional negation flag" canonical form.
type ID uint32

// InvalidID is never returned by Intern.
const InvalidID ID = 0

// IsNegated reports whether this ID carries the negation flag.
func (id ID) IsNegated() bool {
	return id&1 == 1
}

// Negate flips the polarity flag of this ID. Constant time, no allocation.
func (id ID) Negate() ID {
	return id ^ 1
}

// canonical strips the polarity flag, giving the index into the store's node
// table.
func (id ID) canonical() ID {
	return id &^ 1
}

// node is the interned, canonical (non-negated) representation of a term.
type node struct {
	kind     Kind
	typ      Type
	children []ID
	payload  Payload
}
