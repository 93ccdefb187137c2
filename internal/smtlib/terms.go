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

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/consensys/go-smt-bv/internal/sexp"
	"github.com/consensys/go-smt-bv/internal/term"
)

// Environment resolves a declared or bound identifier to its term and sort.
// The driver's declaration table and a define-fun's local parameters both
// implement this during term construction.
type Environment interface {
	Lookup(name string) (term.ID, Sort, bool)
}

// MacroEnvironment extends Environment with define-fun macro expansion: a
// driver tracking define-fun bindings implements this so applications of a
// defined name expand inline rather than being rejected as an unrecognized
// operator.
type MacroEnvironment interface {
	Environment
	LookupMacro(name string) ([]Param, sexp.SExp, bool)
}

// mapEnv is the simplest Environment: a flat name table, used to extend an
// outer environment with a define-fun's formal parameters.
type mapEnv struct {
	outer Environment
	local map[string]struct {
		id   term.ID
		sort Sort
	}
}

func newMapEnv(outer Environment) *mapEnv {
	return &mapEnv{outer: outer, local: make(map[string]struct {
		id   term.ID
		sort Sort
	})}
}

func (e *mapEnv) bind(name string, id term.ID, sort Sort) {
	e.local[name] = struct {
		id   term.ID
		sort Sort
	}{id, sort}
}

func (e *mapEnv) Lookup(name string) (term.ID, Sort, bool) {
	if v, ok := e.local[name]; ok {
		return v.id, v.sort, true
	}

	if e.outer != nil {
		return e.outer.Lookup(name)
	}

	return term.InvalidID, Sort{}, false
}

// BuildTerm translates a single SMT-LIB term S-expression into a term.ID.
// If s is a top-level `(! phi :named n)` annotation, name is n; otherwise
// name is empty.
func BuildTerm(store *term.Store, env Environment, s sexp.SExp) (id term.ID, name string, err error) {
	if l := s.AsList(); l != nil && l.Len() >= 3 && l.MatchSymbols(1, "!") {
		for i := 2; i+1 < l.Len(); i += 2 {
			kw := l.Get(i).AsSymbol()
			if kw != nil && kw.Value == ":named" {
				if nameSym := l.Get(i + 1).AsSymbol(); nameSym != nil {
					name = nameSym.Value
				}
			}
		}

		id, err = buildTerm(store, env, l.Get(1))

		return id, name, err
	}

	id, err = buildTerm(store, env, s)

	return id, "", err
}

func buildTerm(store *term.Store, env Environment, s sexp.SExp) (term.ID, error) {
	if sym := s.AsSymbol(); sym != nil {
		return buildSymbol(store, env, sym.Value)
	}

	l := s.AsList()
	if l == nil || l.Len() == 0 {
		return term.InvalidID, fmt.Errorf("empty term")
	}

	if indexed := l.Get(0).AsList(); indexed != nil && indexed.Len() >= 2 && indexed.MatchSymbols(1, "_") {
		return buildIndexedApplication(store, env, indexed, l.Elements[1:])
	}

	if head := l.Get(0).AsSymbol(); head != nil {
		return buildApplication(store, env, head.Value, l)
	}

	return term.InvalidID, fmt.Errorf("invalid term head %q", l.String(false))
}

// buildIndexedApplication handles terms whose head is itself an indexed
// identifier, e.g. ((_ extract 3 0) x) or ((_ zero_extend 4) x).
func buildIndexedApplication(store *term.Store, env Environment, indexed *sexp.List, args []sexp.SExp) (term.ID, error) {
	opSym := indexed.Get(1).AsSymbol()
	if opSym == nil {
		return term.InvalidID, fmt.Errorf("malformed indexed identifier %q", indexed.String(false))
	}

	switch opSym.Value {
	case "extract":
		if indexed.Len() != 4 {
			return term.InvalidID, fmt.Errorf("malformed extract")
		}

		return buildExtract(store, env, indexed, args)
	case "sign_extend", "zero_extend":
		if indexed.Len() != 3 {
			return term.InvalidID, fmt.Errorf("malformed %s", opSym.Value)
		}

		return buildExtend(store, env, opSym.Value, indexed, args)
	case "bv":
		// (_ bvN w) should only appear as a bare literal, not applied to
		// further arguments.
		return term.InvalidID, fmt.Errorf("(_ bv...) literal is not a function")
	default:
		return term.InvalidID, fmt.Errorf("unrecognized indexed identifier %q", opSym.Value)
	}
}

func buildSymbol(store *term.Store, env Environment, value string) (term.ID, error) {
	switch value {
	case "true":
		return store.TrueTerm(), nil
	case "false":
		return store.FalseTerm(), nil
	}

	if bits, width, ok := parseBvLiteral(value); ok {
		return store.BvConstant(width, bits), nil
	}

	if id, _, ok := env.Lookup(value); ok {
		return id, nil
	}

	return term.InvalidID, fmt.Errorf("unbound identifier %q", value)
}

// parseBvLiteral recognizes "#bXXXX" (binary) and "#xXXXX" (hexadecimal)
// bit-vector literals.
func parseBvLiteral(value string) (*big.Int, uint32, bool) {
	switch {
	case strings.HasPrefix(value, "#b"):
		digits := value[2:]

		v, ok := new(big.Int).SetString(digits, 2)
		if !ok {
			return nil, 0, false
		}

		return v, uint32(len(digits)), true
	case strings.HasPrefix(value, "#x"):
		digits := value[2:]

		v, ok := new(big.Int).SetString(digits, 16)
		if !ok {
			return nil, 0, false
		}

		return v, uint32(len(digits) * 4), true
	}

	return nil, 0, false
}

func buildApplication(store *term.Store, env Environment, head string, l *sexp.List) (term.ID, error) {
	args := l.Elements[1:]

	// (_ bvN w) indexed bit-vector literal.
	if head == "_" && len(args) == 2 {
		if sym := args[0].AsSymbol(); sym != nil && strings.HasPrefix(sym.Value, "bv") {
			v, ok := new(big.Int).SetString(sym.Value[2:], 10)
			widthSym := args[1].AsSymbol()

			if ok && widthSym != nil {
				width, werr := strconv.ParseUint(widthSym.Value, 10, 32)
				if werr == nil {
					return store.BvConstant(uint32(width), v), nil
				}
			}
		}
	}

	if head == "extract" || head == "sign_extend" || head == "zero_extend" {
		return term.InvalidID, fmt.Errorf("%s must be written with its index as the application head, e.g. ((_ %s ...) x)", head, head)
	}

	children := make([]term.ID, len(args))

	for i, a := range args {
		c, err := buildTerm(store, env, a)
		if err != nil {
			return term.InvalidID, err
		}

		children[i] = c
	}

	switch head {
	case "not":
		return store.Negate(children[0]), nil
	case "=":
		return store.EqTerm(children[0], children[1]), nil
	case "or":
		return store.OrTerm(children), nil
	case "and":
		negated := make([]term.ID, len(children))
		for i, c := range children {
			negated[i] = store.Negate(c)
		}

		return store.Negate(store.OrTerm(negated)), nil
	case "=>":
		return store.OrTerm([]term.ID{store.Negate(children[0]), children[1]}), nil
	case "ite":
		return store.IteTerm(children[0], children[1], children[2], store.TypeOf(children[1])), nil
	case "bvuge":
		return store.CompareTerm(term.BvGe, children[0], children[1]), nil
	case "bvule":
		return store.CompareTerm(term.BvGe, children[1], children[0]), nil
	case "bvugt":
		return store.Negate(store.CompareTerm(term.BvGe, children[1], children[0])), nil
	case "bvult":
		return store.Negate(store.CompareTerm(term.BvGe, children[0], children[1])), nil
	case "bvsge":
		return store.CompareTerm(term.BvSge, children[0], children[1]), nil
	case "bvsle":
		return store.CompareTerm(term.BvSge, children[1], children[0]), nil
	case "bvsgt":
		return store.Negate(store.CompareTerm(term.BvSge, children[1], children[0])), nil
	case "bvslt":
		return store.Negate(store.CompareTerm(term.BvSge, children[0], children[1])), nil
	case "bvudiv":
		return store.ArithTerm(term.BvDiv, store.WidthOf(children[0]), children[0], children[1]), nil
	case "bvurem":
		return store.ArithTerm(term.BvRem, store.WidthOf(children[0]), children[0], children[1]), nil
	case "bvadd":
		return buildPolySum(store, children, false), nil
	case "bvsub":
		return buildPolySum(store, children, true), nil
	case "bvneg":
		return buildNegate(store, children[0]), nil
	case "bvnot":
		return buildBvNot(store, children[0]), nil
	case "concat":
		return buildConcat(store, children)
	default:
		if me, ok := env.(MacroEnvironment); ok {
			if params, body, found := me.LookupMacro(head); found {
				return buildMacroApplication(store, env, params, body, children)
			}
		}

		return term.InvalidID, fmt.Errorf("unrecognized operator %q", head)
	}
}

func buildExtract(store *term.Store, env Environment, l0 *sexp.List, args []sexp.SExp) (term.ID, error) {
	hiSym, loSym := l0.Get(2).AsSymbol(), l0.Get(3).AsSymbol()
	if hiSym == nil || loSym == nil || len(args) != 1 {
		return term.InvalidID, fmt.Errorf("malformed extract")
	}

	hi, err1 := strconv.ParseUint(hiSym.Value, 10, 32)
	lo, err2 := strconv.ParseUint(loSym.Value, 10, 32)

	if err1 != nil || err2 != nil || hi < lo {
		return term.InvalidID, fmt.Errorf("malformed extract bounds")
	}

	base, err := buildTerm(store, env, args[0])
	if err != nil {
		return term.InvalidID, err
	}

	bits := make([]term.ID, hi-lo+1)
	for i := range bits {
		bits[i] = store.BitSelectTerm(base, uint32(lo)+uint32(i))
	}

	return store.BvArrayTerm(bits), nil
}

func buildExtend(store *term.Store, env Environment, kind string, l0 *sexp.List, args []sexp.SExp) (term.ID, error) {
	nSym := l0.Get(2).AsSymbol()
	if nSym == nil || len(args) != 1 {
		return term.InvalidID, fmt.Errorf("malformed %s", kind)
	}

	n, err := strconv.ParseUint(nSym.Value, 10, 32)
	if err != nil {
		return term.InvalidID, fmt.Errorf("malformed %s amount", kind)
	}

	base, err := buildTerm(store, env, args[0])
	if err != nil {
		return term.InvalidID, err
	}

	width := store.WidthOf(base)

	bits := make([]term.ID, width, width+uint32(n))
	for i := uint32(0); i < width; i++ {
		bits[i] = store.BitSelectTerm(base, i)
	}

	extension := bits[width-1]
	if kind == "zero_extend" {
		extension = store.FalseTerm()
	}

	for i := uint32(0); i < uint32(n); i++ {
		bits = append(bits, extension)
	}

	return store.BvArrayTerm(bits), nil
}

func buildPolySum(store *term.Store, children []term.ID, subtract bool) term.ID {
	width := store.WidthOf(children[0])
	vars := []term.ID{children[0], children[1]}
	coeffs := []*big.Int{big.NewInt(1), big.NewInt(1)}

	if subtract {
		coeffs[1] = big.NewInt(-1)
	}

	return store.BvPolyTerm(width, vars, coeffs)
}

func buildNegate(store *term.Store, x term.ID) term.ID {
	width := store.WidthOf(x)
	return store.BvPolyTerm(width, []term.ID{x}, []*big.Int{big.NewInt(-1)})
}

func buildBvNot(store *term.Store, x term.ID) term.ID {
	width := store.WidthOf(x)
	bits := make([]term.ID, width)

	for i := uint32(0); i < width; i++ {
		bits[i] = store.Negate(store.BitSelectTerm(x, i))
	}

	return store.BvArrayTerm(bits)
}

// buildMacroApplication expands a define-fun call by rebuilding its body
// under a local environment binding each formal parameter to the already-
// built argument term; definitions are expanded afresh at every use site,
// matching SMT-LIB's "named formula" treatment of define-fun rather than
// introducing a function-typed term.
func buildMacroApplication(store *term.Store, env Environment, params []Param, body sexp.SExp, args []term.ID) (term.ID, error) {
	if len(params) != len(args) {
		return term.InvalidID, fmt.Errorf("macro expects %d arguments, got %d", len(params), len(args))
	}

	local := newMapEnv(env)

	for i, p := range params {
		local.bind(p.Name, args[i], p.Sort)
	}

	return buildTerm(store, local, body)
}

func buildConcat(store *term.Store, children []term.ID) (term.ID, error) {
	if len(children) != 2 {
		return term.InvalidID, fmt.Errorf("concat requires exactly two arguments")
	}

	// SMT-LIB orders concat arguments most-significant first; BvArrayTerm
	// is indexed low-bit first, so the second argument's bits come first.
	lowWidth := store.WidthOf(children[1])
	highWidth := store.WidthOf(children[0])
	bits := make([]term.ID, 0, lowWidth+highWidth)

	for i := uint32(0); i < lowWidth; i++ {
		bits = append(bits, store.BitSelectTerm(children[1], i))
	}

	for i := uint32(0); i < highWidth; i++ {
		bits = append(bits, store.BitSelectTerm(children[0], i))
	}

	return store.BvArrayTerm(bits), nil
}
