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

// Package assertstack tracks, per push/pop scope, the declarations and
// named facts created so a pop can retract exactly what its matching push
// saw created after it.
package assertstack

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/consensys/go-smt-bv/internal/term"
	"github.com/consensys/go-smt-bv/pkg/util/collection/stack"
)

// NameCategory distinguishes the three kinds of owned name the stack tracks.
type NameCategory uint8

// The three name categories a declaration can belong to.
const (
	TermName NameCategory = iota
	TypeName
	NamedBoolName
)

// ReleaseFunc is invoked once per retracted name, after its entry has been
// popped from the name stack and its declaration counter decremented. It
// implements the reference-count release named in the data model: the same
// string may be bound elsewhere (here, the driver's declaration
// environment), and that binding must be torn down in lockstep with the
// name stack's own retraction. A non-nil error does not abort retraction —
// every name in the popped frame is still processed — but is aggregated via
// multierr.Append and surfaced to the caller of Pop.
type ReleaseFunc func(name string, category NameCategory) error

// name is an owned entry in the name stack: a declaration that must be
// retracted when the stack pops past the frame it was declared in. refs
// counts additional references from the term store's own symbol table,
// since the same string may be held there too.
type name struct {
	value    string
	category NameCategory
	refs     uint32
}

// NamedTerm is a (term, owned name) pair, used to produce get-assignment
// output and to track candidate unsat-core labels.
type NamedTerm struct {
	Term term.ID
	Name string
}

// frame is the scope stack record captured at the moment of push.
type frame struct {
	multiplicity   uint
	termDeclCount  uint
	typeDeclCount  uint
	namedBoolCount uint
	namedAssert    uint
}

// Stack is the assertion stack: a sequence of scope frames, an owned name
// stack, and the named-assertion records used by get-assignment and
// unsat-core tracking.
type Stack struct {
	frames []frame
	names  *stack.Stack[name]
	// named holds every (term, name) pair currently visible, in insertion
	// order; entries past a popped scope's saved count are retracted.
	named []NamedTerm
	// deferredPushesAfterUnsat counts pushes requested while the owning
	// context's status is unsat, since the context's own base level is
	// not advanced while the owning context is unsat.
	deferredPushesAfterUnsat uint
	// gcThreshold triggers a garbage-collection cycle once accumulated
	// deletions since the last GC exceed it.
	gcThreshold  uint
	deletedSince uint
	// counts mirror the context's current declaration counters; the
	// Driver/Context keep these synchronized via IncTermDecl etc.
	termDeclCount  uint
	typeDeclCount  uint
	namedBoolCount uint
	namedAssert    uint
	// release is called once per name as it is retracted; nil means no
	// external binding needs tearing down.
	release ReleaseFunc
}

// SetReleaseHook installs the callback Pop invokes for every name it
// retracts, so an owner of the same string outside this package (here, the
// driver's declaration environment) can release its own binding in
// lockstep. Passing nil disables the hook.
func (s *Stack) SetReleaseHook(fn ReleaseFunc) {
	s.release = fn
}

// New constructs an empty assertion stack with the default GC threshold
// named in the data model (1000 accumulated deletions).
func New() *Stack {
	return &Stack{
		names:       stack.NewStack[name](),
		gcThreshold: 1000,
	}
}

// TotalLevels returns the sum of every frame's multiplicity, i.e. the
// number of push levels currently open.
func (s *Stack) TotalLevels() uint {
	total := uint(0)
	for _, f := range s.frames {
		total += f.multiplicity
	}

	return total
}

// DeferredPushesAfterUnsat returns the number of pushes accumulated while
// the context was unsat.
func (s *Stack) DeferredPushesAfterUnsat() uint {
	return s.deferredPushesAfterUnsat
}

// DeclareTerm records a new term-level declaration (declare-fun, define-fun)
// under name n, owned by the current scope.
func (s *Stack) DeclareTerm(n string) {
	s.names.Push(name{value: n, category: TermName, refs: 1})
	s.termDeclCount++
}

// DeclareType records a new sort declaration.
func (s *Stack) DeclareType(n string) {
	s.names.Push(name{value: n, category: TypeName, refs: 1})
	s.typeDeclCount++
}

// DeclareNamedBool records a boolean constant introduced solely to carry a
// :named label (the get-assignment bookkeeping).
func (s *Stack) DeclareNamedBool(n string, t term.ID) {
	s.names.Push(name{value: n, category: NamedBoolName, refs: 1})
	s.namedBoolCount++
	s.named = append(s.named, NamedTerm{Term: t, Name: n})
	s.namedAssert++
}

// NamedAssertions returns every (term, name) pair currently visible, in
// insertion order.
func (s *Stack) NamedAssertions() []NamedTerm {
	return s.named
}

// Push adds a single frame capturing the current declaration counts, with
// multiplicity n (valid: n >= 1). unsat reports whether the owning
// context's status is currently unsat, in which case the push is deferred
// rather than advancing the context's base level.
func (s *Stack) Push(n uint, unsat bool) error {
	if n < 1 {
		return fmt.Errorf("push requires a positive multiplicity, got %d", n)
	}

	if unsat {
		s.deferredPushesAfterUnsat += n
		return nil
	}

	s.frames = append(s.frames, frame{
		multiplicity:   n,
		termDeclCount:  s.termDeclCount,
		typeDeclCount:  s.typeDeclCount,
		namedBoolCount: s.namedBoolCount,
		namedAssert:    s.namedAssert,
	})

	return nil
}

// Pop pops frames summing to >= n multiplicity, retracting names and named
// assertions whose indices fall at or beyond the deepest popped frame's
// saved counts. If more levels than requested were popped, a single frame
// restoring the remainder is re-pushed. globalDeclarations, when true,
// disables retraction of term/type declarations (names persist across pop).
func (s *Stack) Pop(n uint, globalDeclarations bool) error {
	if n < 1 {
		return fmt.Errorf("pop requires a positive multiplicity, got %d", n)
	}

	if s.deferredPushesAfterUnsat > 0 {
		consumed := min(n, s.deferredPushesAfterUnsat)
		s.deferredPushesAfterUnsat -= consumed
		n -= consumed

		if n == 0 {
			return nil
		}
	}

	if n > s.TotalLevels() {
		return fmt.Errorf("pop %d exceeds the current stack depth %d", n, s.TotalLevels())
	}

	var (
		popped uint
		target frame
	)

	for popped < n {
		f := s.frames[len(s.frames)-1]
		s.frames = s.frames[:len(s.frames)-1]
		popped += f.multiplicity
		target = f
	}

	var retractErr error

	if !globalDeclarations {
		retractErr = s.retract(target)
	}

	if popped > n {
		s.frames = append(s.frames, frame{
			multiplicity:   popped - n,
			termDeclCount:  target.termDeclCount,
			typeDeclCount:  target.typeDeclCount,
			namedBoolCount: target.namedBoolCount,
			namedAssert:    target.namedAssert,
		})
	}

	return retractErr
}

// liveCount returns the stack's current running count for cat, the
// counter retract compares against a frame's saved snapshot to decide
// whether a name at the top of the name stack still belongs to a retracted
// scope.
func (s *Stack) liveCount(cat NameCategory) uint {
	switch cat {
	case TermName:
		return s.termDeclCount
	case TypeName:
		return s.typeDeclCount
	default:
		return s.namedBoolCount
	}
}

func (s *Stack) decrementLive(cat NameCategory) {
	switch cat {
	case TermName:
		s.termDeclCount--
	case TypeName:
		s.typeDeclCount--
	default:
		s.namedBoolCount--
	}
}

func savedCount(f frame, cat NameCategory) uint {
	switch cat {
	case TermName:
		return f.termDeclCount
	case TypeName:
		return f.typeDeclCount
	default:
		return f.namedBoolCount
	}
}

// retract pops every name stack entry back to target's saved counts,
// releasing each one's reference-counted binding via the installed hook
// (if any) and aggregating any release errors with multierr.Append, the
// way the teacher aggregates non-fatal issues via the same library.
func (s *Stack) retract(target frame) error {
	deleted := uint(0)

	var errs error

	for s.names.Len() > 0 {
		top := s.names.Peek(0)

		if s.liveCount(top.category) <= savedCount(target, top.category) {
			break
		}

		s.names.Pop()
		s.decrementLive(top.category)
		deleted++

		if s.release != nil {
			if err := s.release(top.value, top.category); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}

	if uint(len(s.named)) > target.namedAssert {
		s.named = s.named[:target.namedAssert]
	}

	s.namedBoolCount = target.namedBoolCount
	s.namedAssert = target.namedAssert

	s.deletedSince += deleted

	return errs
}

// ShouldGarbageCollect reports whether accumulated deletions since the last
// GC cycle exceed the threshold.
func (s *Stack) ShouldGarbageCollect() bool {
	return s.deletedSince > s.gcThreshold
}

// NotifyGarbageCollected resets the deletion counter after a GC cycle runs.
func (s *Stack) NotifyGarbageCollected() {
	s.deletedSince = 0
}
