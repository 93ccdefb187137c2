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

// Package context implements the solver's context state machine:
// idle/searching/sat/unsat/unknown/interrupted/error, and the mode
// discipline (one-shot vs incremental) that governs which commands are
// legal in each state.
package context

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Status is one of the seven states a Context may be in.
type Status uint8

// The closed set of context states.
const (
	Idle Status = iota
	Searching
	Sat
	Unsat
	Unknown
	Interrupted
	Error
)

//nolint:revive
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	case Unknown:
		return "unknown"
	case Interrupted:
		return "interrupted"
	case Error:
		return "error"
	default:
		return "unknown-status"
	}
}

// Mode fixes whether a Context permits push/pop and multiple check-sats.
type Mode uint8

// The two supported modes.
const (
	OneShot Mode = iota
	Incremental
)

// Solvers is the set of theory-solver operations the context drives during
// check-sat; the concrete CDCL core and theory solvers are out of scope
// this is the contract the state machine consumes from them.
type Solvers interface {
	// Check runs the decision procedure to completion or until
	// interrupted, returning the resulting status (Sat, Unsat, or
	// Unknown).
	Check(interrupt <-chan struct{}) Status
	// BacktrackToLevel restores theory-solver state to the given push
	// level, discarding anything asserted above it.
	BacktrackToLevel(level uint)
}

// Context is the mutable object aggregating the active logic, status, and
// the theory-solver handles it owns exclusively.
type Context struct {
	logic     string
	mode      Mode
	status    Status
	baseLevel uint
	solvers   Solvers
	// checkedOnce tracks whether check-sat has already run once, which
	// one-shot mode uses to reject any further assert/check/push/pop.
	checkedOnce bool
}

// New constructs a context bound to logic, initializing it to idle.
func New(logic string, mode Mode, solvers Solvers) *Context {
	return &Context{logic: logic, mode: mode, status: Idle, solvers: solvers}
}

// Logic returns the active logic code this context was bound to.
func (c *Context) Logic() string { return c.logic }

// Mode returns whether this context is one-shot or incremental.
func (c *Context) Mode() Mode { return c.mode }

// Status returns the context's current state.
func (c *Context) Status() Status { return c.status }

// BaseLevel returns the stack level below which the context cannot be
// popped.
func (c *Context) BaseLevel() uint { return c.baseLevel }

// Assert transitions the context on an assert event. trivialUnsat is
// supplied by the caller (the internalizer having already detected the
// formula reduces to false); assert is legal only from idle, sat, or
// unknown, per the assert/check/push/pop transition table below.
func (c *Context) Assert(trivialUnsat bool) error {
	switch c.status {
	case Idle:
		// adds phi; may detect trivial unsat
	case Sat, Unknown:
		log.Debug("assert after sat/unknown: discarding cached model, returning to idle")
		c.status = Idle
	case Unsat:
		// ignored: assert from unsat has no effect
		return nil
	case Searching, Interrupted:
		return fmt.Errorf("assert is illegal while the context is %s", c.status)
	case Error:
		return fmt.Errorf("context is in the error state")
	}

	if c.mode == OneShot && c.checkedOnce {
		return fmt.Errorf("assert after check-sat is illegal in one-shot mode")
	}

	if trivialUnsat {
		c.status = Unsat
	}

	return nil
}

// Check invokes the theory solvers via the attached Solvers contract,
// transitioning through Searching and landing on Sat, Unsat, Unknown, or
// Interrupted.
func (c *Context) Check(interrupt <-chan struct{}) (Status, error) {
	if c.status == Unsat {
		// An assert already reduced the context to false: the answer
		// stands without a search.
		c.checkedOnce = true
		return Unsat, nil
	}

	if c.status != Idle {
		return c.status, fmt.Errorf("check-sat is illegal while the context is %s", c.status)
	}

	if c.mode == OneShot && c.checkedOnce {
		return c.status, fmt.Errorf("check-sat already ran once in one-shot mode")
	}

	c.status = Searching
	c.checkedOnce = true

	result := c.solvers.Check(interrupt)
	c.status = result

	return c.status, nil
}

// Interrupt transitions the context to Interrupted from any state. It is
// the one transition legal regardless of current status.
func (c *Context) Interrupt() {
	c.status = Interrupted
}

// Push advances the context's base level, unless the context is unsat (in
// which case the caller records a deferred push instead and must not call
// Push here) or in one-shot mode.
func (c *Context) Push(n uint) error {
	if c.mode == OneShot {
		return fmt.Errorf("push is illegal in one-shot mode")
	}

	switch c.status {
	case Sat, Unknown:
		c.status = Idle
	case Unsat:
		return fmt.Errorf("push while unsat must be deferred by the caller, not applied to the context")
	case Searching, Interrupted, Error:
		return fmt.Errorf("push is illegal while the context is %s", c.status)
	}

	c.baseLevel += n

	return nil
}

// Pop retreats the context's base level by n, clearing Unsat only if the
// popped range crosses the level that caused it.
func (c *Context) Pop(n uint, crossedUnsatLevel bool) error {
	if c.mode == OneShot {
		return fmt.Errorf("pop is illegal in one-shot mode")
	}

	if n > c.baseLevel {
		return fmt.Errorf("pop %d exceeds base level %d", n, c.baseLevel)
	}

	switch c.status {
	case Searching, Interrupted, Error:
		return fmt.Errorf("pop is illegal while the context is %s", c.status)
	}

	c.baseLevel -= n
	c.solvers.BacktrackToLevel(c.baseLevel)

	if c.status == Unsat && crossedUnsatLevel {
		c.status = Idle
	} else if c.status != Unsat {
		c.status = Idle
	}

	return nil
}

// Reset returns the context to its pristine idle state, discarding
// everything but leaving global options to the
// caller to reapply.
func (c *Context) Reset() {
	c.status = Idle
	c.baseLevel = 0
	c.checkedOnce = false
}
