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
package smtlib

import "github.com/consensys/go-smt-bv/internal/sexp"

// CommandKind identifies which of the recognized SMT-LIB commands a
// ParsedCommand carries.
type CommandKind uint8

// The closed set of recognized commands.
const (
	SetLogic CommandKind = iota
	SetOption
	GetOption
	SetInfo
	GetInfo
	DeclareSort
	DefineSort
	DeclareFun
	DefineFun
	Assert
	Push
	Pop
	CheckSat
	GetValue
	GetAssignment
	GetModel
	Reset
	Echo
	Exit
)

//nolint:revive
func (k CommandKind) String() string {
	names := [...]string{
		"set-logic", "set-option", "get-option", "set-info", "get-info",
		"declare-sort", "define-sort", "declare-fun", "define-fun",
		"assert", "push", "pop", "check-sat", "get-value",
		"get-assignment", "get-model", "reset", "echo", "exit",
	}

	if int(k) < len(names) {
		return names[k]
	}

	return "unknown-command"
}

// FunSignature is a declare-fun or define-fun's parameter/result shape.
type FunSignature struct {
	Params []Param
	Result Sort
}

// Param is one formal parameter of a define-fun.
type Param struct {
	Name string
	Sort Sort
}

// ParsedCommand is the parser's output: one recognized command plus its raw
// argument S-expressions, positioned for error reporting via the owning
// Source. Term-level arguments (assert's formula, define-fun's body) are
// kept as raw S-expressions; building them into term.IDs is the caller's
// job; it requires a term.Store and name environment this package does not
// own.
type ParsedCommand struct {
	Kind CommandKind

	// set-logic
	Logic string

	// set-option / get-option / set-info / get-info
	Keyword string
	Value   sexp.SExp

	// declare-sort / define-sort
	SortName  string
	SortArity uint32

	// declare-fun / define-fun
	FunName string
	FunSig  FunSignature
	FunBody sexp.SExp // define-fun only

	// assert
	Formula sexp.SExp

	// push / pop
	Multiplicity uint

	// get-value
	Terms []sexp.SExp

	// echo
	Text string
}
