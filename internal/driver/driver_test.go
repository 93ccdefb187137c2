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
	"bytes"
	"strings"
	"testing"

	"github.com/consensys/go-smt-bv/internal/context"
	"github.com/consensys/go-smt-bv/internal/sexp"
	"github.com/consensys/go-smt-bv/internal/smtlib"
)

// run dispatches every command in script against a fresh driver, returning
// the regular channel's accumulated output, one response per line.
func run(t *testing.T, mode context.Mode, script string) []string {
	t.Helper()

	d := New(mode)

	var out, diag bytes.Buffer
	d.SetChannels(&out, &diag)

	src := sexp.NewSource("test", []byte(script))

	cmds, serr := smtlib.ParseAll(src)
	if serr != nil {
		t.Fatalf("parse error: %v", serr)
	}

	for _, cmd := range cmds {
		cont, err := d.Dispatch(cmd)
		if err != nil {
			t.Fatalf("dispatch error: %v", err)
		}

		if !cont {
			break
		}
	}

	text := strings.TrimRight(out.String(), "\n")
	if text == "" {
		return nil
	}

	return strings.Split(text, "\n")
}

func TestTrivialUnsatScenario(t *testing.T) {
	lines := run(t, context.OneShot, `
		(set-logic QF_BV)
		(assert false)
		(check-sat)
	`)

	if len(lines) != 1 || lines[0] != "unsat" {
		t.Fatalf("expected [unsat], got %v", lines)
	}
}

func TestSatisfyingAssignmentViaGetValue(t *testing.T) {
	lines := run(t, context.Incremental, `
		(set-option :produce-models true)
		(set-logic QF_BV)
		(declare-fun x () (_ BitVec 4))
		(assert (= x #b0011))
		(check-sat)
		(get-value (x))
	`)

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", lines)
	}

	if lines[0] != "sat" {
		t.Fatalf("expected sat, got %q", lines[0])
	}

	if lines[1] != "((x #b0011))" {
		t.Fatalf("expected get-value to report x = #b0011, got %q", lines[1])
	}
}

func TestPushPopRollback(t *testing.T) {
	lines := run(t, context.Incremental, `
		(set-logic QF_BV)
		(declare-fun x () (_ BitVec 4))
		(push 1)
		(assert (= x #b0000))
		(assert (= x #b0001))
		(check-sat)
		(pop 1)
		(assert (= x #b0010))
		(check-sat)
	`)

	if len(lines) != 2 {
		t.Fatalf("expected 2 check-sat results, got %v", lines)
	}

	if lines[0] != "unsat" {
		t.Fatalf("expected unsat from the conflicting pushed equalities, got %q", lines[0])
	}

	if lines[1] != "sat" {
		t.Fatalf("expected sat after popping back to a single equality, got %q", lines[1])
	}
}

func TestNamedAssertionInGetAssignment(t *testing.T) {
	lines := run(t, context.Incremental, `
		(set-option :produce-assignments true)
		(set-logic QF_BV)
		(declare-fun x () (_ BitVec 4))
		(assert (! (= x #b0000) :named P))
		(check-sat)
		(get-assignment)
	`)

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", lines)
	}

	if lines[0] != "sat" {
		t.Fatalf("expected sat, got %q", lines[0])
	}

	if lines[1] != "((P true))" {
		t.Fatalf("expected the named assertion P to be true, got %q", lines[1])
	}
}

func TestGlobalDeclarationsPrecondition(t *testing.T) {
	lines := run(t, context.Incremental, `
		(set-logic QF_BV)
		(set-option :global-declarations true)
	`)

	if len(lines) != 1 || !strings.HasPrefix(lines[0], "(error") {
		t.Fatalf("expected an error rejecting global-declarations after set-logic, got %v", lines)
	}
}

func TestDefineFunMacroExpansion(t *testing.T) {
	lines := run(t, context.Incremental, `
		(set-logic QF_BV)
		(declare-fun x () (_ BitVec 4))
		(define-fun double ((a (_ BitVec 4))) (_ BitVec 4) (bvadd a a))
		(assert (= (double x) (bvadd x x)))
		(check-sat)
	`)

	if len(lines) != 1 || lines[0] != "sat" {
		t.Fatalf("expected sat via macro expansion, got %v", lines)
	}
}

func TestPrintSuccess(t *testing.T) {
	lines := run(t, context.Incremental, `
		(set-option :print-success true)
		(set-logic QF_BV)
		(declare-fun x () (_ BitVec 4))
	`)

	if len(lines) != 3 {
		t.Fatalf("expected three success responses, got %v", lines)
	}

	for _, line := range lines {
		if line != "success" {
			t.Fatalf("expected every response to be success, got %v", lines)
		}
	}
}
