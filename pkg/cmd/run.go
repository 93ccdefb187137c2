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
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/consensys/go-smt-bv/internal/context"
	"github.com/consensys/go-smt-bv/internal/driver"
	"github.com/consensys/go-smt-bv/internal/sexp"
	"github.com/consensys/go-smt-bv/internal/smtlib"
)

// runCmd drives a full SMT-LIB 2 script, read from --file or stdin when no
// file is given, against a fresh Driver until the script exhausts or an
// `exit` command is reached.
var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run an SMT-LIB 2 script against the solver core",
	Long:  "Reads a sequence of SMT-LIB 2 commands from a file (or stdin) and drives the command driver to completion.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, text, err := readScript(cmd, args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		mode := context.Incremental
		if GetFlag(cmd, "one-shot") {
			mode = context.OneShot
		}

		d := driver.New(mode)
		if GetFlag(cmd, "no-print-success") {
			d.ForcePrintSuccess(false)
		}

		src := sexp.NewSource(name, text)

		cmds, serr := smtlib.ParseAll(src)
		if serr != nil {
			fmt.Fprintln(os.Stderr, serr.Error())
			os.Exit(1)
		}

		for _, c := range cmds {
			cont, derr := d.Dispatch(c)
			if derr != nil {
				log.Errorf("dispatch error: %v", derr)
				os.Exit(1)
			}

			if !cont {
				break
			}
		}
	},
}

// readScript resolves the script source: the positional filename argument,
// the --file flag, or stdin when neither is given.
func readScript(cmd *cobra.Command, args []string) (name string, text []byte, err error) {
	path := GetString(cmd, "file")
	if len(args) > 0 {
		path = args[0]
	}

	if path == "" {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "smtbv> reading script from terminal, end with Ctrl-D")
		}

		text, err = io.ReadAll(os.Stdin)
		return "<stdin>", text, err
	}

	text, err = os.ReadFile(path)

	return path, text, err
}

func init() {
	runCmd.Flags().StringP("file", "f", "", "script file to read (default: stdin)")
	runCmd.Flags().Bool("one-shot", false, "disallow push/pop and repeated check-sat")
	runCmd.Flags().Bool("no-print-success", false, "suppress 'success' responses until the script sets :print-success")
	rootCmd.AddCommand(runCmd)
}
