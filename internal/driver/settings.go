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

	"github.com/consensys/go-smt-bv/internal/sexp"
)

// Settings is the global options object a driver maintains, independent of
// the active context: the command-surface table's print-success,
// model/assignment/unsat-core production flags, output-channel names, and
// the handful of options (global-declarations) whose legality depends on
// whether set-logic has already run.
type Settings struct {
	PrintSuccess       bool
	ProduceModels      bool
	ProduceAssignments bool
	ProduceUnsatCores  bool
	RegularOutputPath  string
	DiagnosticPath     string
	Verbosity          int64
	RandomSeed         int64
	GlobalDeclarations bool
}

// defaultSettings mirrors a conforming SMT-LIB solver's defaults.
func defaultSettings() Settings {
	return Settings{
		PrintSuccess:      false,
		RegularOutputPath: "stdout",
		DiagnosticPath:    "stderr",
	}
}

// reservedInfoKeys are read-only via get-info; writing them through set-info
// is rejected.
var reservedInfoKeys = map[string]bool{
	":error-behavior": true,
	":name":           true,
	":authors":        true,
	":version":        true,
	":reason-unknown": true,
	":all-statistics": true,
}

// preLogicOnlyOptions are options that fix a structural precondition (here,
// whether global declarations survive a pop) and so may only be set before
// set-logic has bound the context to a particular mode.
var preLogicOnlyOptions = map[string]bool{
	":global-declarations": true,
}

func parseBoolValue(v sexp.SExp) (bool, error) {
	sym := v.AsSymbol()
	if sym == nil {
		return false, fmt.Errorf("expected a boolean")
	}

	switch sym.Value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("expected true or false, got %q", sym.Value)
	}
}

func parseIntValue(v sexp.SExp) (int64, error) {
	sym := v.AsSymbol()
	if sym == nil {
		return 0, fmt.Errorf("expected a numeral")
	}

	n, err := strconv.ParseInt(sym.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected a numeral, got %q", sym.Value)
	}

	return n, nil
}

func parseChannelValue(v sexp.SExp) (string, error) {
	sym := v.AsSymbol()
	if sym == nil {
		return "", fmt.Errorf("expected a channel name")
	}

	return unquote(sym.Value), nil
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}

	return value
}

func formatBool(b bool) string {
	if b {
		return "true"
	}

	return "false"
}
