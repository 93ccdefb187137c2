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
package internalizer

import (
	"math/big"
	"testing"

	"github.com/consensys/go-smt-bv/internal/term"
)

func TestUnsupportedLogicRejected(t *testing.T) {
	store := term.NewStore()
	in := New(store, "QF_UFNRA", DefaultLimits())

	if _, err := in.Assert(store.TrueTerm()); err == nil {
		t.Fatal("expected an unsupported-logic error")
	} else if ierr, ok := err.(*Error); !ok || ierr.Kind != UnsupportedLogic {
		t.Errorf("expected UnsupportedLogic, got %v", err)
	}
}

func TestTriviallyUnsatDetected(t *testing.T) {
	store := term.NewStore()
	in := New(store, "QF_BV", DefaultLimits())

	code, err := in.Assert(store.FalseTerm())
	if err != nil {
		t.Fatal(err)
	}

	if code != TriviallyUnsat {
		t.Errorf("expected TriviallyUnsat, got %v", code)
	}
}

func TestOkAssertAllocatesAtoms(t *testing.T) {
	store := term.NewStore()
	in := New(store, "QF_BV", DefaultLimits())

	x := store.Uninterpreted("x", term.BvType(4))
	c := store.BvConstant(4, big.NewInt(3))
	eq := store.EqTerm(x, c)

	code, err := in.Assert(eq)
	if err != nil {
		t.Fatal(err)
	}

	if code != Ok {
		t.Errorf("expected Ok, got %v", code)
	}

	if _, ok := in.AtomOf(eq); !ok {
		t.Errorf("expected the top-level equality to have an allocated atom")
	}
}

func TestQuantifierRejected(t *testing.T) {
	store := term.NewStore()
	in := New(store, "QF_BV", DefaultLimits())

	body := store.TrueTerm()
	forall := store.Intern(term.Forall, term.BoolType, []term.ID{body}, term.Payload{})

	if _, err := in.Assert(forall); err == nil {
		t.Fatal("expected an unsupported-construct error")
	} else if ierr, ok := err.(*Error); !ok || ierr.Kind != UnsupportedConstruct {
		t.Errorf("expected UnsupportedConstruct, got %v", err)
	}
}

func TestNonConstantDivisorRejected(t *testing.T) {
	store := term.NewStore()
	in := New(store, "QF_BV", DefaultLimits())

	x := store.Uninterpreted("x", term.BvType(8))
	y := store.Uninterpreted("y", term.BvType(8))
	div := store.ArithTerm(term.BvDiv, 8, x, y)

	if _, err := in.Assert(div); err == nil {
		t.Fatal("expected a divisor-not-constant error")
	} else if ierr, ok := err.(*Error); !ok || ierr.Kind != DivisorNotConstant {
		t.Errorf("expected DivisorNotConstant, got %v", err)
	}
}

func TestTypeMismatchRejected(t *testing.T) {
	store := term.NewStore()
	in := New(store, "QF_BV", DefaultLimits())

	x := store.Uninterpreted("x", term.BvType(8))
	y := store.Uninterpreted("y", term.BvType(4))
	eq := store.EqTerm(x, y)

	if _, err := in.Assert(eq); err == nil {
		t.Fatal("expected a type-mismatch error")
	} else if ierr, ok := err.(*Error); !ok || ierr.Kind != TypeMismatch {
		t.Errorf("expected TypeMismatch, got %v", err)
	}
}

func TestBvSizeExceededRejected(t *testing.T) {
	store := term.NewStore()
	in := New(store, "QF_BV", Limits{MaxBvWidth: 8, MaxArity: 8, MaxDegree: 8, MaxAtoms: 1024})

	x := store.Uninterpreted("x", term.BvType(16))

	if _, err := in.Assert(store.EqTerm(x, x)); err == nil {
		t.Fatal("expected a bv-size-exceeded error")
	} else if ierr, ok := err.(*Error); !ok || ierr.Kind != BVSizeExceeded {
		t.Errorf("expected BVSizeExceeded, got %v", err)
	}
}
