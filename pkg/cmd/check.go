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
package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/consensys/go-smt-bv/internal/context"
	"github.com/consensys/go-smt-bv/internal/driver"
	"github.com/consensys/go-smt-bv/internal/sexp"
	"github.com/consensys/go-smt-bv/internal/smtlib"
)

// checkCmd batch-runs a script and compares its last check-sat response
// against an expected status, exiting non-zero on mismatch. This is the
// solver-core analogue of the teacher's trace-against-constraints checker:
// here the "trace" is a script and the "constraint" is the expected verdict.
var checkCmd = &cobra.Command{
	Use:   "check [flags] script_file",
	Short: "Run an SMT-LIB 2 script and check its check-sat verdict against an expected status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		expect := GetString(cmd, "expect")
		if expect != "sat" && expect != "unsat" && expect != "unknown" {
			fmt.Fprintf(os.Stderr, "invalid --expect %q: must be sat, unsat or unknown\n", expect)
			os.Exit(1)
		}

		text, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		d := driver.New(context.Incremental)

		var out, diag bytes.Buffer

		d.SetChannels(&out, &diag)

		src := sexp.NewSource(args[0], text)

		cmds, serr := smtlib.ParseAll(src)
		if serr != nil {
			fmt.Fprintln(os.Stderr, serr.Error())
			os.Exit(1)
		}

		var got string

		for _, c := range cmds {
			cont, derr := d.Dispatch(c)
			if derr != nil {
				log.Errorf("dispatch error: %v", derr)
				os.Exit(1)
			}

			if c.Kind == smtlib.CheckSat {
				got = lastLine(out.String())
			}

			if !cont {
				break
			}
		}

		if diag.Len() > 0 {
			fmt.Fprint(os.Stderr, diag.String())
		}

		if got != expect {
			fmt.Printf("FAIL: expected %q, got %q\n", expect, got)
			os.Exit(1)
		}

		fmt.Printf("OK: %s\n", got)
	},
}

// lastLine returns the final non-empty line of s, the most recent response
// written to the regular output channel.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) == 0 {
		return ""
	}

	return lines[len(lines)-1]
}

func init() {
	checkCmd.Flags().String("expect", "sat", "expected check-sat verdict: sat, unsat, or unknown")
	rootCmd.AddCommand(checkCmd)
}
