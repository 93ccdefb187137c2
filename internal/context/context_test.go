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
package context

import "testing"

type fakeSolvers struct {
	result Status
}

func (f fakeSolvers) Check(<-chan struct{}) Status { return f.result }
func (fakeSolvers) BacktrackToLevel(uint)           {}

func TestTrivialSat(t *testing.T) {
	c := New("QF_BV", Incremental, fakeSolvers{result: Sat})

	if err := c.Assert(false); err != nil {
		t.Fatal(err)
	}

	status, err := c.Check(nil)
	if err != nil {
		t.Fatal(err)
	}

	if status != Sat {
		t.Errorf("expected sat, got %s", status)
	}
}

func TestTrivialUnsat(t *testing.T) {
	c := New("QF_BV", Incremental, fakeSolvers{result: Sat})

	if err := c.Assert(true); err != nil {
		t.Fatal(err)
	}

	if c.Status() != Unsat {
		t.Errorf("expected unsat after trivially-unsat assert, got %s", c.Status())
	}
}

func TestStatusMonotonicityUntilPop(t *testing.T) {
	c := New("QF_BV", Incremental, fakeSolvers{result: Unsat})

	if err := c.Push(1); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Check(nil); err != nil {
		t.Fatal(err)
	}

	if c.Status() != Unsat {
		t.Fatalf("expected unsat, got %s", c.Status())
	}

	// Pushing while unsat must be deferred by the caller, not applied here.
	if err := c.Push(1); err == nil {
		t.Errorf("expected push while unsat to be rejected for the caller to defer")
	}

	if err := c.Pop(1, true); err != nil {
		t.Fatal(err)
	}

	if c.Status() != Idle {
		t.Errorf("expected pop crossing the unsat level to clear to idle, got %s", c.Status())
	}
}

func TestOneShotRejectsPush(t *testing.T) {
	c := New("QF_BV", OneShot, fakeSolvers{result: Sat})

	if err := c.Push(1); err == nil {
		t.Errorf("expected one-shot mode to reject push")
	}
}

func TestOneShotRejectsSecondCheck(t *testing.T) {
	c := New("QF_BV", OneShot, fakeSolvers{result: Sat})

	if _, err := c.Check(nil); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Check(nil); err == nil {
		t.Errorf("expected one-shot mode to reject a second check-sat")
	}
}

func TestInterruptFromAnyState(t *testing.T) {
	c := New("QF_BV", Incremental, fakeSolvers{result: Sat})
	c.Interrupt()

	if c.Status() != Interrupted {
		t.Errorf("expected interrupt to transition to interrupted, got %s", c.Status())
	}
}
