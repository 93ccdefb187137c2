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
package assertstack

import "testing"

func TestScopeBalance(t *testing.T) {
	s := New()

	s.DeclareTerm("x")

	if err := s.Push(1, false); err != nil {
		t.Fatal(err)
	}

	s.DeclareTerm("y")
	s.DeclareTerm("z")

	if s.termDeclCount != 3 {
		t.Fatalf("expected 3 term declarations, got %d", s.termDeclCount)
	}

	if err := s.Pop(1, false); err != nil {
		t.Fatal(err)
	}

	if s.termDeclCount != 1 {
		t.Errorf("expected term_decl_count to return to 1 after pop, got %d", s.termDeclCount)
	}
}

func TestPopDeeperThanStackErrors(t *testing.T) {
	s := New()

	if err := s.Pop(1, false); err == nil {
		t.Errorf("expected popping an empty stack to error")
	}
}

func TestPushMultiplicityAndPartialPop(t *testing.T) {
	s := New()

	if err := s.Push(3, false); err != nil {
		t.Fatal(err)
	}

	if s.TotalLevels() != 3 {
		t.Fatalf("expected total_levels == 3, got %d", s.TotalLevels())
	}

	if err := s.Pop(1, false); err != nil {
		t.Fatal(err)
	}

	if s.TotalLevels() != 2 {
		t.Errorf("expected total_levels == 2 after popping 1 of 3, got %d", s.TotalLevels())
	}
}

func TestDeferredPushAfterUnsat(t *testing.T) {
	s := New()

	if err := s.Push(2, true); err != nil {
		t.Fatal(err)
	}

	if s.DeferredPushesAfterUnsat() != 2 {
		t.Fatalf("expected 2 deferred pushes, got %d", s.DeferredPushesAfterUnsat())
	}

	if s.TotalLevels() != 0 {
		t.Errorf("a deferred push must not advance total_levels")
	}

	if err := s.Pop(1, false); err != nil {
		t.Fatal(err)
	}

	if s.DeferredPushesAfterUnsat() != 1 {
		t.Errorf("expected pop to consume deferred pushes first, got %d remaining", s.DeferredPushesAfterUnsat())
	}
}

func TestGlobalDeclarationsSkipRetraction(t *testing.T) {
	s := New()

	s.DeclareTerm("x")

	if err := s.Push(1, false); err != nil {
		t.Fatal(err)
	}

	s.DeclareTerm("y")

	if err := s.Pop(1, true); err != nil {
		t.Fatal(err)
	}

	if s.termDeclCount != 2 {
		t.Errorf("expected global-declarations to retain names across pop, got count %d", s.termDeclCount)
	}
}
