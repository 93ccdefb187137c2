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
	"strconv"

	"github.com/consensys/go-smt-bv/internal/params"
	"github.com/consensys/go-smt-bv/internal/sexp"
)

// parseParamValue converts a set-option value S-expression into the typed
// Value a parameter registry entry of the given kind expects.
func parseParamValue(kind params.Kind, v sexp.SExp) (params.Value, error) {
	sym := v.AsSymbol()
	if sym == nil {
		return params.Value{}, fmt.Errorf("expected an atomic value")
	}

	switch kind {
	case params.BoolKind:
		b, err := parseBoolValue(v)
		if err != nil {
			return params.Value{}, err
		}

		return params.Value{Kind: kind, Bool: b}, nil
	case params.PosIntKind:
		n, err := strconv.ParseInt(sym.Value, 10, 64)
		if err != nil {
			return params.Value{}, fmt.Errorf("expected a positive integer, got %q", sym.Value)
		}

		return params.Value{Kind: kind, Int: n}, nil
	case params.RatioKind, params.FactorKind:
		f, err := strconv.ParseFloat(sym.Value, 64)
		if err != nil {
			return params.Value{}, fmt.Errorf("expected a number, got %q", sym.Value)
		}

		return params.Value{Kind: kind, Float: f}, nil
	case params.EnumKind:
		return params.Value{Kind: kind, Enum: sym.Value}, nil
	default:
		return params.Value{}, fmt.Errorf("unrecognized parameter kind")
	}
}

func formatParamValue(v params.Value) string {
	switch v.Kind {
	case params.BoolKind:
		return formatBool(v.Bool)
	case params.PosIntKind:
		return fmt.Sprintf("%d", v.Int)
	case params.RatioKind, params.FactorKind:
		return fmt.Sprintf("%v", v.Float)
	case params.EnumKind:
		return v.Enum
	default:
		return ""
	}
}
