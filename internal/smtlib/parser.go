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
	"strconv"
	"strings"

	"github.com/consensys/go-smt-bv/internal/sexp"
)

// Parser incrementally reads ParsedCommand values from a Source, one
// S-expression at a time; an interactive driver calls Next as each line of
// input becomes available.
type Parser struct {
	source *sexp.Source
	sx     *sexp.Parser
}

// NewParser constructs a command parser over source.
func NewParser(source *sexp.Source) *Parser {
	return &Parser{source: source, sx: sexp.NewParser(source)}
}

// AtEOF reports whether every currently buffered S-expression has been
// consumed.
func (p *Parser) AtEOF() bool { return p.sx.AtEOF() }

// Refill re-reads the underlying source, for interactive (stdin) use.
func (p *Parser) Refill() { p.sx.Refill() }

// Next reads and translates a single command, or returns (nil, nil) at end
// of input.
func (p *Parser) Next() (*ParsedCommand, *sexp.SyntaxError) {
	s, err := p.sx.Parse()
	if err != nil {
		return nil, err
	}

	if s == nil {
		return nil, nil
	}

	l := s.AsList()
	if l == nil || l.Len() == 0 || l.Get(0).AsSymbol() == nil {
		return nil, p.source.SyntaxError(sexp.NewSpan(0, 0), "expected a command")
	}

	return p.translate(l)
}

// ParseAll reads every command in source, stopping at the first error.
func ParseAll(source *sexp.Source) ([]*ParsedCommand, *sexp.SyntaxError) {
	p := NewParser(source)

	var commands []*ParsedCommand

	for {
		cmd, err := p.Next()
		if err != nil {
			return commands, err
		}

		if cmd == nil {
			return commands, nil
		}

		commands = append(commands, cmd)
	}
}

func (p *Parser) err(msg string) *sexp.SyntaxError {
	return p.source.SyntaxError(sexp.NewSpan(0, 0), msg)
}

func (p *Parser) translate(l *sexp.List) (*ParsedCommand, *sexp.SyntaxError) {
	head := l.Get(0).AsSymbol().Value
	args := l.Elements[1:]

	switch head {
	case "set-logic":
		if len(args) != 1 || args[0].AsSymbol() == nil {
			return nil, p.err("set-logic requires exactly one logic name")
		}

		return &ParsedCommand{Kind: SetLogic, Logic: args[0].AsSymbol().Value}, nil

	case "set-option":
		kw, val, ok := parseKeywordValue(args)
		if !ok {
			return nil, p.err("set-option requires a keyword and a value")
		}

		return &ParsedCommand{Kind: SetOption, Keyword: kw, Value: val}, nil

	case "get-option":
		if len(args) != 1 || !isKeyword(args[0]) {
			return nil, p.err("get-option requires exactly one keyword")
		}

		return &ParsedCommand{Kind: GetOption, Keyword: args[0].AsSymbol().Value}, nil

	case "set-info":
		kw, val, ok := parseKeywordValue(args)
		if !ok {
			return nil, p.err("set-info requires a keyword and a value")
		}

		return &ParsedCommand{Kind: SetInfo, Keyword: kw, Value: val}, nil

	case "get-info":
		if len(args) != 1 || !isKeyword(args[0]) {
			return nil, p.err("get-info requires exactly one keyword")
		}

		return &ParsedCommand{Kind: GetInfo, Keyword: args[0].AsSymbol().Value}, nil

	case "declare-sort":
		if len(args) != 2 || args[0].AsSymbol() == nil || args[1].AsSymbol() == nil {
			return nil, p.err("declare-sort requires a name and an arity")
		}

		arity, perr := strconv.ParseUint(args[1].AsSymbol().Value, 10, 32)
		if perr != nil {
			return nil, p.err("declare-sort's arity must be a natural number")
		}

		return &ParsedCommand{Kind: DeclareSort, SortName: args[0].AsSymbol().Value, SortArity: uint32(arity)}, nil

	case "define-sort":
		if len(args) < 1 || args[0].AsSymbol() == nil {
			return nil, p.err("define-sort requires a name")
		}

		return &ParsedCommand{Kind: DefineSort, SortName: args[0].AsSymbol().Value}, nil

	case "declare-fun":
		return p.parseDeclareFun(args)

	case "define-fun":
		return p.parseDefineFun(args)

	case "assert":
		if len(args) != 1 {
			return nil, p.err("assert requires exactly one formula")
		}

		return &ParsedCommand{Kind: Assert, Formula: args[0]}, nil

	case "push":
		n, ok := parseOptionalMultiplicity(args)
		if !ok {
			return nil, p.err("push's argument must be a natural number")
		}

		return &ParsedCommand{Kind: Push, Multiplicity: n}, nil

	case "pop":
		n, ok := parseOptionalMultiplicity(args)
		if !ok {
			return nil, p.err("pop's argument must be a natural number")
		}

		return &ParsedCommand{Kind: Pop, Multiplicity: n}, nil

	case "check-sat":
		return &ParsedCommand{Kind: CheckSat}, nil

	case "get-value":
		if len(args) != 1 || args[0].AsList() == nil {
			return nil, p.err("get-value requires a list of terms")
		}

		return &ParsedCommand{Kind: GetValue, Terms: args[0].AsList().Elements}, nil

	case "get-assignment":
		return &ParsedCommand{Kind: GetAssignment}, nil

	case "get-model":
		return &ParsedCommand{Kind: GetModel}, nil

	case "reset":
		return &ParsedCommand{Kind: Reset}, nil

	case "echo":
		if len(args) != 1 || args[0].AsSymbol() == nil {
			return nil, p.err("echo requires exactly one string")
		}

		return &ParsedCommand{Kind: Echo, Text: unquoteString(args[0].AsSymbol().Value)}, nil

	case "exit":
		return &ParsedCommand{Kind: Exit}, nil

	default:
		return nil, p.err("unrecognized command \"" + head + "\"")
	}
}

func (p *Parser) parseDeclareFun(args []sexp.SExp) (*ParsedCommand, *sexp.SyntaxError) {
	if len(args) != 3 || args[0].AsSymbol() == nil || args[1].AsList() == nil {
		return nil, p.err("declare-fun requires a name, a parameter-sort list, and a result sort")
	}

	params := make([]Param, 0, args[1].AsList().Len())

	for _, s := range args[1].AsList().Elements {
		sort, err := ParseSort(s)
		if err != nil {
			return nil, p.err(err.Error())
		}

		params = append(params, Param{Sort: sort})
	}

	result, err := ParseSort(args[2])
	if err != nil {
		return nil, p.err(err.Error())
	}

	return &ParsedCommand{
		Kind:    DeclareFun,
		FunName: args[0].AsSymbol().Value,
		FunSig:  FunSignature{Params: params, Result: result},
	}, nil
}

func (p *Parser) parseDefineFun(args []sexp.SExp) (*ParsedCommand, *sexp.SyntaxError) {
	if len(args) != 4 || args[0].AsSymbol() == nil || args[1].AsList() == nil {
		return nil, p.err("define-fun requires a name, a parameter list, a result sort, and a body")
	}

	params := make([]Param, 0, args[1].AsList().Len())

	for _, s := range args[1].AsList().Elements {
		binding := s.AsList()
		if binding == nil || binding.Len() != 2 || binding.Get(0).AsSymbol() == nil {
			return nil, p.err("malformed define-fun parameter")
		}

		sort, err := ParseSort(binding.Get(1))
		if err != nil {
			return nil, p.err(err.Error())
		}

		params = append(params, Param{Name: binding.Get(0).AsSymbol().Value, Sort: sort})
	}

	result, err := ParseSort(args[2])
	if err != nil {
		return nil, p.err(err.Error())
	}

	return &ParsedCommand{
		Kind:    DefineFun,
		FunName: args[0].AsSymbol().Value,
		FunSig:  FunSignature{Params: params, Result: result},
		FunBody: args[3],
	}, nil
}

func isKeyword(s sexp.SExp) bool {
	sym := s.AsSymbol()
	return sym != nil && strings.HasPrefix(sym.Value, ":")
}

func parseKeywordValue(args []sexp.SExp) (string, sexp.SExp, bool) {
	if len(args) != 2 || !isKeyword(args[0]) {
		return "", nil, false
	}

	return args[0].AsSymbol().Value, args[1], true
}

func parseOptionalMultiplicity(args []sexp.SExp) (uint, bool) {
	if len(args) == 0 {
		return 1, true
	}

	if len(args) != 1 || args[0].AsSymbol() == nil {
		return 0, false
	}

	n, err := strconv.ParseUint(args[0].AsSymbol().Value, 10, 32)
	if err != nil {
		return 0, false
	}

	return uint(n), true
}

func unquoteString(value string) string {
	if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") && len(value) >= 2 {
		return value[1 : len(value)-1]
	}

	return value
}
