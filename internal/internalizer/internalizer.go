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

// Package internalizer maps user-level terms into the internal vocabularies
// of the attached theory solvers and the boolean core: each boolean
// subterm is assigned a stable atom number, mirroring a literal-allocation
// table a real CDCL core would own.
package internalizer

import (
	"fmt"

	"github.com/consensys/go-smt-bv/internal/term"
)

// Code is the outcome of internalizing one asserted formula.
type Code uint8

// The closed set of internalization outcomes.
const (
	Ok Code = iota
	TriviallyUnsat
)

// ErrorKind enumerates the reasons internalization can reject a formula,
// each with a one-to-one mapping to a user-visible error string.
type ErrorKind uint8

// The closed set of internalization error kinds.
//
// FreeVariable is never produced by validate: Forall/Exists are rejected
// outright by UnsupportedConstruct before any binder is walked, and
// term.Uninterpreted denotes only a globally-declared constant, never an
// unbound occurrence of a binder's variable, so this term language has no
// node shape a free variable could take. Kept (like ArithNotInIDLOrRDL) as
// a documented, structurally unreachable member of the enum rather than
// dead validation code.
const (
	UnsupportedLogic ErrorKind = iota
	UnsupportedConstruct
	FreeVariable
	BVSizeExceeded
	TypeMismatch
	DivisorNotConstant
	DegreeOverflow
	ArithNotInIDLOrRDL
	SolverCapacityExceeded
)

//nolint:revive
func (k ErrorKind) String() string {
	switch k {
	case UnsupportedLogic:
		return "unsupported-logic"
	case UnsupportedConstruct:
		return "unsupported-construct-in-logic"
	case FreeVariable:
		return "formula-contains-free-variable"
	case BVSizeExceeded:
		return "bv-size-exceeded"
	case TypeMismatch:
		return "type-mismatch"
	case DivisorNotConstant:
		return "divisor-not-constant-when-required"
	case DegreeOverflow:
		return "degree-overflow"
	case ArithNotInIDLOrRDL:
		return "arithmetic-formula-not-in-idl-or-rdl"
	case SolverCapacityExceeded:
		return "solver-capacity-exceeded"
	default:
		return "unknown-internalizer-error"
	}
}

// Error is the structured failure Assert returns; Kind selects the
// user-visible message template.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Limits bounds what this internalizer's attached solvers can accept.
// Assert reports a formula over MaxBvWidth or MaxDegree as an error.
// MaxArity is not checked. Reaching MaxAtoms stops atom numbering for
// further boolean subterms without reporting an error.
type Limits struct {
	MaxBvWidth uint32
	MaxArity   uint32
	MaxDegree  int
	MaxAtoms   uint64
}

// DefaultLimits returns generous limits suitable for interactive use.
func DefaultLimits() Limits {
	return Limits{MaxBvWidth: 1 << 16, MaxArity: 256, MaxDegree: 4096, MaxAtoms: 1 << 24}
}

// supportedLogics is the closed set of logics this core actually
// internalizes; every other SMT-LIB logic name produces UnsupportedLogic.
var supportedLogics = map[string]bool{
	"QF_BV": true,
}

// Internalizer walks asserted formulas, validating them against the active
// logic's language and the attached solvers' capacity, and assigns atom
// numbers to every boolean-sorted subterm it accepts.
type Internalizer struct {
	store  *term.Store
	logic  string
	limits Limits

	// atoms maps a canonical (always-positive) boolean term to the atom
	// number the boolean core allocated for it.
	atoms    map[term.ID]uint64
	nextAtom uint64
	// checked memoizes which canonical terms have already passed
	// validation, since the same subterm may be reached through many
	// parents in the DAG.
	checked map[term.ID]bool
}

// New constructs an internalizer bound to store and logic. logic must be
// one of the logics this core supports; the caller is expected to have
// already rejected set-logic for anything else at the driver layer, but
// Assert re-validates regardless.
func New(store *term.Store, logic string, limits Limits) *Internalizer {
	return &Internalizer{
		store:   store,
		logic:   logic,
		limits:  limits,
		atoms:   make(map[term.ID]uint64),
		checked: make(map[term.ID]bool),
	}
}

// AtomCount reports how many distinct boolean atoms have been allocated so
// far.
func (in *Internalizer) AtomCount() uint64 { return in.nextAtom }

// AtomOf returns the atom number assigned to a boolean term, if any.
func (in *Internalizer) AtomOf(t term.ID) (uint64, bool) {
	a, ok := in.atoms[canonicalOf(t)]
	return a, ok
}

// Assert internalizes f: validating it against the active logic, assigning
// atom numbers to its boolean subterms, and reporting trivial unsatisfiability
// when f is syntactically the false constant.
func (in *Internalizer) Assert(f term.ID) (Code, error) {
	if !supportedLogics[in.logic] {
		return 0, newError(UnsupportedLogic, "logic %q is not supported", in.logic)
	}

	if err := in.validate(f); err != nil {
		return 0, err
	}

	in.allocateAtoms(f)

	if in.isSyntacticFalse(f) {
		return TriviallyUnsat, nil
	}

	return Ok, nil
}

// isSyntacticFalse reports whether f is literally the false constant (the
// negation of true, or an interned false node) — a cheap syntactic check,
// not a full evaluation.
func (in *Internalizer) isSyntacticFalse(f term.ID) bool {
	if in.store.KindOf(f) != term.Constant {
		return false
	}

	bits := in.store.PayloadOf(f).Bits
	isZero := bits != nil && bits.Sign() == 0

	return isZero != f.IsNegated()
}

// validate walks f's DAG once, memoized on canonical ID, checking every
// node against the active logic's language and this internalizer's
// capacity limits.
func (in *Internalizer) validate(t term.ID) error {
	c := canonicalOf(t)
	if in.checked[c] {
		return nil
	}

	typ := in.store.TypeOf(t)
	if !typ.Boolean && typ.Width > in.limits.MaxBvWidth {
		return newError(BVSizeExceeded, "bit-vector width %d exceeds the maximum of %d", typ.Width, in.limits.MaxBvWidth)
	}

	switch in.store.KindOf(t) {
	case term.Forall, term.Exists:
		return newError(UnsupportedConstruct, "quantifiers are not supported in %s", in.logic)
	case term.Apply:
		return newError(UnsupportedConstruct, "uninterpreted function application is not supported in %s", in.logic)
	case term.BvDiv, term.BvRem:
		children := in.store.ChildrenOf(t)
		if in.store.KindOf(children[1]) != term.BvConstant {
			return newError(DivisorNotConstant, "divisor must be a constant bit-vector in %s", in.logic)
		}
	case term.BvPoly:
		if n := countMonomials(in.store, t); n > in.limits.MaxDegree {
			return newError(DegreeOverflow, "polynomial has %d monomials, exceeding the maximum of %d", n, in.limits.MaxDegree)
		}
	case term.Eq:
		children := in.store.ChildrenOf(t)
		lhs, rhs := in.store.TypeOf(children[0]), in.store.TypeOf(children[1])

		if lhs.Boolean != rhs.Boolean || (!lhs.Boolean && lhs.Width != rhs.Width) {
			return newError(TypeMismatch, "equality between incompatible sorts")
		}
	}

	in.checked[c] = true

	for _, child := range in.store.ChildrenOf(t) {
		if err := in.validate(child); err != nil {
			return err
		}
	}

	return nil
}

// allocateAtoms assigns an atom number to every not-yet-seen boolean
// subterm reachable from f, mirroring the boolean core's literal
// allocation.
func (in *Internalizer) allocateAtoms(t term.ID) {
	c := canonicalOf(t)

	if _, ok := in.atoms[c]; ok {
		return
	}

	if in.store.TypeOf(c).Boolean {
		if in.nextAtom >= in.limits.MaxAtoms {
			// Assert does not check MaxAtoms: once it is reached,
			// further boolean subterms get no atom number and no error
			// is reported.
			return
		}

		in.atoms[c] = in.nextAtom
		in.nextAtom++
	}

	for _, child := range in.store.ChildrenOf(t) {
		in.allocateAtoms(child)
	}
}

func canonicalOf(t term.ID) term.ID {
	if t.IsNegated() {
		return t.Negate()
	}

	return t
}

func countMonomials(store *term.Store, t term.ID) int {
	n := 0
	for _, c := range store.ChildrenOf(t) {
		if c != term.InvalidID {
			n++
		}
	}

	return n
}
