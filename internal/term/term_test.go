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
	"math/big"
	"testing"
)

func TestInternIsDeterministic(t *testing.T) {
	s := NewStore()

	x1 := s.Uninterpreted("x", BvType(4))
	x2 := s.Uninterpreted("x", BvType(4))

	if x1 != x2 {
		t.Errorf("expected structurally identical interns to share an id: %v != %v", x1, x2)
	}
}

func TestInternDistinguishesWidth(t *testing.T) {
	s := NewStore()

	x4 := s.Uninterpreted("x", BvType(4))
	x8 := s.Uninterpreted("x", BvType(8))

	if x4 == x8 {
		t.Errorf("expected different widths to produce distinct ids")
	}
}

func TestNegateIsInvolution(t *testing.T) {
	s := NewStore()

	b := s.Uninterpreted("b", BoolType)
	nb := s.Negate(b)
	nnb := s.Negate(nb)

	if nnb != b {
		t.Errorf("negate(negate(b)) != b")
	}

	if !s.IsNegated(nb) {
		t.Errorf("expected negated form to report IsNegated")
	}
}

func TestNegationSharesChildren(t *testing.T) {
	s := NewStore()

	x := s.Uninterpreted("x", BvType(4))
	y := s.Uninterpreted("y", BvType(4))
	eq := s.EqTerm(x, y)
	neq := s.Negate(eq)

	cEq := s.ChildrenOf(eq)
	cNeq := s.ChildrenOf(neq)

	if len(cEq) != len(cNeq) || cEq[0] != cNeq[0] || cEq[1] != cNeq[1] {
		t.Errorf("expected negated term to share children with its positive form")
	}
}

func TestBvConstantReducesModulo(t *testing.T) {
	s := NewStore()

	c1 := s.BvConstant(4, big.NewInt(3))
	c2 := s.BvConstant(4, big.NewInt(19)) // 19 mod 16 == 3

	if c1 != c2 {
		t.Errorf("expected constants congruent mod 2^w to share an id")
	}
}

func TestGCPreservesReachable(t *testing.T) {
	s := NewStore()

	x := s.Uninterpreted("x", BvType(4))
	y := s.Uninterpreted("y", BvType(4))
	eq := s.EqTerm(x, y)

	_ = y // y becomes unreachable once we only root eq's... actually eq references both

	before := s.Len()

	remap := s.GC([]ID{eq})

	if _, ok := remap[eq.canonical()]; !ok {
		t.Errorf("expected root term to survive GC")
	}

	if s.Len() > before {
		t.Errorf("GC should never grow the store")
	}
}

func TestGCDropsUnreachable(t *testing.T) {
	s := NewStore()

	x := s.Uninterpreted("x", BvType(4))
	_ = s.Uninterpreted("dangling", BvType(4))

	remap := s.GC([]ID{x})

	if len(remap) != 1 {
		t.Errorf("expected only the rooted term to survive, got %d nodes", len(remap))
	}
}
