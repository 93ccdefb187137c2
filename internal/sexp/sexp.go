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

// Package sexp provides a small, generic S-expression reader adapted from a
// constraint compiler's term-level S-expression package down to the subset
// SMT-LIB 2 needs: parenthesised lists and atoms, with quoted strings and
// pipe-quoted symbols instead of the original's set/array brace forms (which
// SMT-LIB's command language does not use).
package sexp

import (
	"fmt"
	"strings"
)

// SExp is an S-expression: either a List of zero or more S-expressions, or a
// terminating Symbol.
type SExp interface {
	// AsList checks whether this S-expression is a list and, if so, returns
	// it.  Otherwise, it returns nil.
	AsList() *List
	// AsSymbol checks whether this S-expression is a symbol and, if so,
	// returns it.  Otherwise, it returns nil.
	AsSymbol() *Symbol
	// String generates a string representation which may (or may not) be
	// quoted.  Quoting is used for symbols containing whitespace or
	// parentheses (e.g. strings and |quoted| identifiers).
	String(quote bool) string
}

// ===================================================================
// List
// ===================================================================

// List represents a parenthesised sequence of zero or more S-expressions.
type List struct {
	Elements []SExp
}

var _ SExp = (*List)(nil)

// EmptyList creates an empty list.
func EmptyList() *List { return &List{} }

// NewList creates a new list from a given array of S-expressions.
func NewList(elements []SExp) *List { return &List{elements} }

// AsList returns this list.
func (l *List) AsList() *List { return l }

// AsSymbol returns nil for a list.
func (l *List) AsSymbol() *Symbol { return nil }

// Len gets the number of elements in this list.
func (l *List) Len() int { return len(l.Elements) }

// Get returns the ith element of this list.
func (l *List) Get(i int) SExp { return l.Elements[i] }

// Append a new element onto this list.
func (l *List) Append(element SExp) { l.Elements = append(l.Elements, element) }

func (l *List) String(quote bool) string {
	var sb strings.Builder

	sb.WriteString("(")

	for i, e := range l.Elements {
		if i != 0 {
			sb.WriteString(" ")
		}

		sb.WriteString(e.String(quote))
	}

	sb.WriteString(")")

	return sb.String()
}

// MatchSymbols matches a list of at least n elements whose first
// len(symbols) elements are symbols equal to the given strings; it fails
// when more than n strings are given.
func (l *List) MatchSymbols(n int, symbols ...string) bool {
	if len(l.Elements) < n || len(symbols) > n {
		return false
	}

	for i := 0; i < len(symbols); i++ {
		sym := l.Elements[i].AsSymbol()
		if sym == nil || sym.Value != symbols[i] {
			return false
		}
	}

	return true
}

// ===================================================================
// Symbol
// ===================================================================

// Symbol represents a terminating symbol: an identifier, numeral, bit-vector
// literal (#b.../#x...), keyword (:name) or quoted string.
type Symbol struct {
	Value string
}

var _ SExp = (*Symbol)(nil)

// NewSymbol creates a new symbol from a given string.
func NewSymbol(value string) *Symbol { return &Symbol{value} }

// AsList returns nil for a symbol.
func (s *Symbol) AsList() *List { return nil }

// AsSymbol returns this symbol.
func (s *Symbol) AsSymbol() *Symbol { return s }

func (s *Symbol) String(quote bool) string {
	if quote {
		needed := false

		for _, r := range s.Value {
			if !isSymbolLetter(r) {
				needed = true
				break
			}
		}

		if needed {
			return fmt.Sprintf("|%s|", s.Value)
		}
	}

	return s.Value
}

func isSymbolLetter(r rune) bool {
	return r != '(' && r != ')' && r != '|' && r != '"' && !isSpace(r)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
