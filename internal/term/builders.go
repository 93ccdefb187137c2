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

import "math/big"

// TrueTerm interns the boolean constant true.
func (s *Store) TrueTerm() ID {
	return s.Intern(Constant, BoolType, nil, Payload{Bits: big.NewInt(1)})
}

// FalseTerm interns the boolean constant false.
func (s *Store) FalseTerm() ID {
	return s.Intern(Constant, BoolType, nil, Payload{Bits: big.NewInt(0)})
}

// BvConstant interns a bit-vector literal of the given width. value is
// reduced modulo 2^width before interning so equal residues always share
// one ID.
func (s *Store) BvConstant(width uint32, value *big.Int) ID {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	reduced := new(big.Int).Mod(value, mod)

	return s.Intern(BvConstant, BvType(width), nil, Payload{Bits: reduced})
}

// Uninterpreted interns a declared constant or 0-ary function symbol.
func (s *Store) Uninterpreted(name string, typ Type) ID {
	return s.Intern(Uninterpreted, typ, nil, Payload{Symbol: name})
}

// BitSelectTerm interns bit_select(base, index), a single-bit boolean term.
func (s *Store) BitSelectTerm(base ID, index uint32) ID {
	return s.Intern(BitSelect, BoolType, []ID{base}, Payload{BitIndex: index})
}

// BvArrayTerm interns a concatenation of boolean bit terms, indexed low bit
// first, i.e. bits[0] is bit 0 of the resulting bit-vector.
func (s *Store) BvArrayTerm(bits []ID) ID {
	return s.Intern(BvArray, BvType(uint32(len(bits))), bits, Payload{})
}

// BvPolyTerm interns a bit-vector polynomial sum(coeffs[i] * vars[i]) +
// constant, where a vars[i] equal to InvalidID denotes the constant
// monomial itself.
func (s *Store) BvPolyTerm(width uint32, vars []ID, coeffs []*big.Int) ID {
	return s.Intern(BvPoly, BvType(width), vars, Payload{Coeffs: coeffs})
}

// EqTerm interns an equality atom between two terms of the same sort.
func (s *Store) EqTerm(lhs, rhs ID) ID {
	return s.Intern(Eq, BoolType, []ID{lhs, rhs}, Payload{})
}

// OrTerm interns an n-ary disjunction.
func (s *Store) OrTerm(args []ID) ID {
	return s.Intern(Or, BoolType, args, Payload{})
}

// IteTerm interns an if-then-else term; the result sort matches branch.
func (s *Store) IteTerm(cond, then, branch ID, typ Type) ID {
	return s.Intern(Ite, typ, []ID{cond, then, branch}, Payload{})
}

// CompareTerm interns a bit-vector comparison atom (bv_ge or bv_sge).
func (s *Store) CompareTerm(kind Kind, lhs, rhs ID) ID {
	return s.Intern(kind, BoolType, []ID{lhs, rhs}, Payload{})
}

// ArithTerm interns a bit-vector arithmetic operator term (bv_div, bv_rem).
func (s *Store) ArithTerm(kind Kind, width uint32, lhs, rhs ID) ID {
	return s.Intern(kind, BvType(width), []ID{lhs, rhs}, Payload{})
}
