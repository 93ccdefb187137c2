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
	"fmt"

	"github.com/consensys/go-smt-bv/internal/assertstack"
	"github.com/consensys/go-smt-bv/internal/sexp"
	"github.com/consensys/go-smt-bv/internal/smtlib"
	"github.com/consensys/go-smt-bv/internal/term"
)

type declConst struct {
	id   term.ID
	sort smtlib.Sort
}

type declMacro struct {
	params []smtlib.Param
	body   sexp.SExp
}

// declEnv implements smtlib.Environment and smtlib.MacroEnvironment over the
// names the driver has declared or defined so far. The table has no push
// levels of its own: names leave it on pop through Release, which the
// assertion stack calls as its release hook (wired in resetCore).
type declEnv struct {
	consts map[string]declConst
	macros map[string]declMacro
	order  []string
}

func newDeclEnv() *declEnv {
	return &declEnv{
		consts: make(map[string]declConst),
		macros: make(map[string]declMacro),
	}
}

func (e *declEnv) AddConst(name string, id term.ID, sort smtlib.Sort) {
	if _, exists := e.consts[name]; !exists {
		e.order = append(e.order, name)
	}

	e.consts[name] = declConst{id: id, sort: sort}
}

func (e *declEnv) RemoveConst(name string) {
	delete(e.consts, name)

	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

func (e *declEnv) AddMacro(name string, params []smtlib.Param, body sexp.SExp) {
	e.macros[name] = declMacro{params: params, body: body}
}

func (e *declEnv) RemoveMacro(name string) {
	delete(e.macros, name)
}

func (e *declEnv) Lookup(name string) (term.ID, smtlib.Sort, bool) {
	c, ok := e.consts[name]
	if !ok {
		return term.InvalidID, smtlib.Sort{}, false
	}

	return c.id, c.sort, true
}

func (e *declEnv) LookupMacro(name string) ([]smtlib.Param, sexp.SExp, bool) {
	m, ok := e.macros[name]
	if !ok {
		return nil, nil, false
	}

	return m.params, m.body, true
}

// ConstNames returns every currently-declared constant name, in declaration
// order, for get-model output.
func (e *declEnv) ConstNames() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)

	return out
}

func (e *declEnv) ConstSort(name string) (smtlib.Sort, bool) {
	c, ok := e.consts[name]
	return c.sort, ok
}

// Release implements assertstack.ReleaseFunc: the callback the assertion
// stack's retraction logic invokes once a reference-counted name has been
// fully released. Sort names (category TypeName) have no binding here —
// this environment only tracks term-level constants and macros, not
// declare-sort/define-sort arities — so those are skipped. A TermName or
// NamedBoolName release that finds no binding signals the two parallel
// bookkeeping structures (the assertion stack's name stack and this
// environment) have gone out of sync.
func (e *declEnv) Release(name string, category assertstack.NameCategory) error {
	if category == assertstack.TypeName {
		return nil
	}

	_, hasConst := e.consts[name]
	_, hasMacro := e.macros[name]

	if !hasConst && !hasMacro {
		return fmt.Errorf("declaration environment: retracted name %q has no binding to release", name)
	}

	if hasConst {
		e.RemoveConst(name)
	}

	if hasMacro {
		e.RemoveMacro(name)
	}

	return nil
}
