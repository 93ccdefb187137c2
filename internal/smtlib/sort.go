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

// Package smtlib implements the concrete SMT-LIB 2 command parser: it reads
// S-expressions from internal/sexp and recognizes the command surface,
// sort syntax, and term syntax the core's QF_BV fragment needs.
package smtlib

import (
	"fmt"
	"strconv"

	"github.com/consensys/go-smt-bv/internal/sexp"
	"github.com/consensys/go-smt-bv/internal/term"
)

// Sort is a parsed SMT-LIB sort: either Bool, or (_ BitVec n).
type Sort struct {
	Boolean bool
	Width   uint32
}

// BoolSort is the unique boolean sort.
var BoolSort = Sort{Boolean: true}

// AsType converts a parsed Sort into the term package's Type.
func (s Sort) AsType() term.Type {
	if s.Boolean {
		return term.BoolType
	}

	return term.BvType(s.Width)
}

func (s Sort) String() string {
	if s.Boolean {
		return "Bool"
	}

	return fmt.Sprintf("(_ BitVec %d)", s.Width)
}

// ParseSort recognizes "Bool" or "(_ BitVec n)".
func ParseSort(s sexp.SExp) (Sort, error) {
	if sym := s.AsSymbol(); sym != nil {
		if sym.Value == "Bool" {
			return BoolSort, nil
		}

		return Sort{}, fmt.Errorf("unrecognized sort %q", sym.Value)
	}

	l := s.AsList()
	if l == nil || l.Len() != 3 {
		return Sort{}, fmt.Errorf("unrecognized sort %q", s.String(false))
	}

	if !l.MatchSymbols(2, "_", "BitVec") {
		return Sort{}, fmt.Errorf("unrecognized sort %q", s.String(false))
	}

	widthSym := l.Get(2).AsSymbol()
	if widthSym == nil {
		return Sort{}, fmt.Errorf("invalid bit-vector width in %q", s.String(false))
	}

	width, err := strconv.ParseUint(widthSym.Value, 10, 32)
	if err != nil {
		return Sort{}, fmt.Errorf("invalid bit-vector width %q", widthSym.Value)
	}

	return Sort{Width: uint32(width)}, nil
}
