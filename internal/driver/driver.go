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

// Package driver implements the command driver: the loop that dispatches
// each parsed command to the assertion stack, the BV normalizer, the
// internalizer, the context state machine, and the parameter registry, and
// renders their results to the active output channels.
package driver

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/consensys/go-smt-bv/internal/assertstack"
	"github.com/consensys/go-smt-bv/internal/bvnorm"
	"github.com/consensys/go-smt-bv/internal/context"
	"github.com/consensys/go-smt-bv/internal/internalizer"
	"github.com/consensys/go-smt-bv/internal/params"
	"github.com/consensys/go-smt-bv/internal/smtlib"
	"github.com/consensys/go-smt-bv/internal/term"
	"github.com/consensys/go-smt-bv/pkg/util"
)

// Driver owns every solver-core component and the channels a script's
// commands are read from and rendered to.
type Driver struct {
	mode context.Mode

	store   *term.Store
	stack   *assertstack.Stack
	norm    *bvnorm.Normalizer
	params  *params.Registry
	solvers *refSolvers
	ctx     *context.Context
	in      *internalizer.Internalizer
	env     *declEnv

	logicSet bool
	settings Settings
	info     map[string]string

	out     io.Writer
	diag    io.Writer
	outFile *os.File
	diagF   *os.File
}

// New constructs a driver in its pristine, pre-set-logic state. mode fixes
// whether the eventual context permits push/pop and repeated check-sat.
func New(mode context.Mode) *Driver {
	d := &Driver{mode: mode, settings: defaultSettings(), info: make(map[string]string)}
	d.resetCore()
	d.out = os.Stdout
	d.diag = os.Stderr

	return d
}

// SetChannels overrides the initial regular/diagnostic output destinations,
// for a caller that wants to capture output rather than use os.Stdout/Stderr.
func (d *Driver) SetChannels(out, diag io.Writer) {
	d.out = out
	d.diag = diag
}

// ForcePrintSuccess sets the print-success setting, for a CLI caller that
// wants a quiet script run. A later set-option :print-success, or a reset
// (which restores the default settings), replaces the value.
func (d *Driver) ForcePrintSuccess(v bool) {
	d.settings.PrintSuccess = v
}

func (d *Driver) resetCore() {
	d.store = term.NewStore()
	d.stack = assertstack.New()
	d.solvers = newRefSolvers(d.store)
	d.norm = bvnorm.NewNormalizer(d.store, nil)
	d.params = params.New()
	d.env = newDeclEnv()
	d.stack.SetReleaseHook(d.env.Release)
	d.ctx = nil
	d.in = nil
	d.logicSet = false
}

// Dispatch executes a single parsed command, rendering its response (if any)
// to the active output channels. cont reports whether the caller should keep
// reading commands; it is false only after an exit command.
func (d *Driver) Dispatch(cmd *smtlib.ParsedCommand) (cont bool, err error) {
	log.WithField("command", cmd.Kind.String()).Debug("dispatching command")

	switch cmd.Kind {
	case smtlib.SetLogic:
		d.cmdSetLogic(cmd)
	case smtlib.SetOption:
		d.cmdSetOption(cmd)
	case smtlib.GetOption:
		d.cmdGetOption(cmd)
	case smtlib.SetInfo:
		d.cmdSetInfo(cmd)
	case smtlib.GetInfo:
		d.cmdGetInfo(cmd)
	case smtlib.DeclareSort:
		d.cmdDeclareSort(cmd)
	case smtlib.DefineSort:
		d.cmdDefineSort(cmd)
	case smtlib.DeclareFun:
		d.cmdDeclareFun(cmd)
	case smtlib.DefineFun:
		d.cmdDefineFun(cmd)
	case smtlib.Assert:
		d.cmdAssert(cmd)
	case smtlib.Push:
		d.cmdPush(cmd)
	case smtlib.Pop:
		d.cmdPop(cmd)
	case smtlib.CheckSat:
		d.cmdCheckSat()
	case smtlib.GetValue:
		d.cmdGetValue(cmd)
	case smtlib.GetAssignment:
		d.cmdGetAssignment()
	case smtlib.GetModel:
		d.cmdGetModel()
	case smtlib.Reset:
		d.cmdReset()
	case smtlib.Echo:
		d.writeLine(fmt.Sprintf("%q", cmd.Text))
	case smtlib.Exit:
		return false, d.closeChannels()
	default:
		d.writeError(fmt.Sprintf("unrecognized command %q", cmd.Kind.String()))
	}

	return true, nil
}

func (d *Driver) writeLine(s string) {
	fmt.Fprintln(d.out, s)
}

func (d *Driver) writeDiag(s string) {
	fmt.Fprintln(d.diag, s)
}

func (d *Driver) writeError(msg string) {
	d.writeLine(fmt.Sprintf("(error %q)", msg))
}

func (d *Driver) writeSuccessIfRequested() {
	if d.settings.PrintSuccess {
		d.writeLine("success")
	}
}

func (d *Driver) requireLogic() bool {
	if !d.logicSet {
		d.writeError("a logic must be set before this command")
		return false
	}

	return true
}

func (d *Driver) closeChannels() error {
	if d.outFile != nil {
		return d.outFile.Close()
	}

	if d.diagF != nil {
		return d.diagF.Close()
	}

	return nil
}

func (d *Driver) cmdSetLogic(cmd *smtlib.ParsedCommand) {
	if d.logicSet {
		d.writeError("set-logic may only be run once")
		return
	}

	d.ctx = context.New(cmd.Logic, d.mode, d.solvers)
	d.in = internalizer.New(d.store, cmd.Logic, internalizer.DefaultLimits())
	d.logicSet = true

	d.writeSuccessIfRequested()
}

func (d *Driver) cmdReset() {
	d.resetCore()
	d.settings = defaultSettings()
	d.info = make(map[string]string)
	d.writeSuccessIfRequested()
}

func (d *Driver) cmdDeclareSort(cmd *smtlib.ParsedCommand) {
	if !d.requireLogic() {
		return
	}

	d.stack.DeclareType(cmd.SortName)
	d.writeSuccessIfRequested()
}

func (d *Driver) cmdDefineSort(cmd *smtlib.ParsedCommand) {
	if !d.requireLogic() {
		return
	}

	d.stack.DeclareType(cmd.SortName)
	d.writeSuccessIfRequested()
}

func (d *Driver) cmdDeclareFun(cmd *smtlib.ParsedCommand) {
	if !d.requireLogic() {
		return
	}

	if len(cmd.FunSig.Params) == 0 {
		id := d.store.Uninterpreted(cmd.FunName, cmd.FunSig.Result.AsType())
		d.env.AddConst(cmd.FunName, id, cmd.FunSig.Result)
	}

	d.stack.DeclareTerm(cmd.FunName)
	d.writeSuccessIfRequested()
}

func (d *Driver) cmdDefineFun(cmd *smtlib.ParsedCommand) {
	if !d.requireLogic() {
		return
	}

	if len(cmd.FunSig.Params) == 0 {
		id, _, err := smtlib.BuildTerm(d.store, d.env, cmd.FunBody)
		if err != nil {
			d.writeError(err.Error())
			return
		}

		d.env.AddConst(cmd.FunName, id, cmd.FunSig.Result)
	} else {
		d.env.AddMacro(cmd.FunName, cmd.FunSig.Params, cmd.FunBody)
	}

	d.stack.DeclareTerm(cmd.FunName)
	d.writeSuccessIfRequested()
}

func (d *Driver) cmdAssert(cmd *smtlib.ParsedCommand) {
	if !d.requireLogic() {
		return
	}

	id, name, err := smtlib.BuildTerm(d.store, d.env, cmd.Formula)
	if err != nil {
		d.writeError(err.Error())
		return
	}

	normalized := d.norm.Normalize(id, 1)

	code, ierr := d.in.Assert(normalized)
	if ierr != nil {
		d.writeError(ierr.Error())
		return
	}

	trivialUnsat := code == internalizer.TriviallyUnsat

	if err := d.ctx.Assert(trivialUnsat); err != nil {
		d.writeError(err.Error())
		return
	}

	d.solvers.AssertAtom(normalized)

	if name != "" {
		d.stack.DeclareNamedBool(name, normalized)
		d.env.AddConst(name, normalized, smtlib.BoolSort)
	}

	d.writeSuccessIfRequested()
}

func (d *Driver) cmdPush(cmd *smtlib.ParsedCommand) {
	if !d.requireLogic() {
		return
	}

	trace := uuid.New().String()
	log.WithFields(log.Fields{"scope-trace": trace, "multiplicity": cmd.Multiplicity}).Debug("push")

	unsat := d.ctx.Status() == context.Unsat

	if err := d.stack.Push(cmd.Multiplicity, unsat); err != nil {
		d.writeError(err.Error())
		return
	}

	if !unsat {
		if err := d.ctx.Push(cmd.Multiplicity); err != nil {
			d.writeError(err.Error())
			return
		}

		for i := uint(0); i < cmd.Multiplicity; i++ {
			d.solvers.PushFrame()
		}
	}

	d.writeSuccessIfRequested()
}

func (d *Driver) cmdPop(cmd *smtlib.ParsedCommand) {
	if !d.requireLogic() {
		return
	}

	trace := uuid.New().String()
	log.WithFields(log.Fields{"scope-trace": trace, "multiplicity": cmd.Multiplicity}).Debug("pop")

	if err := d.stack.Pop(cmd.Multiplicity, d.settings.GlobalDeclarations); err != nil {
		d.writeError(err.Error())
		return
	}

	if err := d.ctx.Pop(cmd.Multiplicity, true); err != nil {
		d.writeError(err.Error())
		return
	}

	d.writeSuccessIfRequested()
}

func (d *Driver) cmdCheckSat() {
	if !d.requireLogic() {
		return
	}

	stats := util.NewPerfStats()

	status, err := d.ctx.Check(nil)
	if err != nil {
		d.writeError(err.Error())
		return
	}

	stats.Log("check-sat")

	d.writeLine(status.String())
}

func (d *Driver) cmdGetValue(cmd *smtlib.ParsedCommand) {
	if d.ctx == nil || d.ctx.Status() != context.Sat {
		d.writeError("get-value requires a satisfiable context")
		return
	}

	model := d.solvers.Model()
	if model == nil {
		d.writeError("no model is available")
		return
	}

	var sb strings.Builder
	sb.WriteString("(")

	for i, t := range cmd.Terms {
		id, _, err := smtlib.BuildTerm(d.store, d.env, t)
		if err != nil {
			d.writeError(err.Error())
			return
		}

		v := evalTerm(d.store, model, id)
		if i > 0 {
			sb.WriteString(" ")
		}

		sb.WriteString("(")
		sb.WriteString(t.String(true))
		sb.WriteString(" ")
		sb.WriteString(formatValue(d.store, id, v))
		sb.WriteString(")")
	}

	sb.WriteString(")")
	d.writeLine(sb.String())
}

func (d *Driver) cmdGetAssignment() {
	if !d.settings.ProduceAssignments {
		d.writeError("get-assignment requires :produce-assignments")
		return
	}

	if d.ctx == nil || d.ctx.Status() != context.Sat {
		d.writeError("get-assignment requires a satisfiable context")
		return
	}

	model := d.solvers.Model()

	var sb strings.Builder
	sb.WriteString("(")

	for i, na := range d.stack.NamedAssertions() {
		v := evalTerm(d.store, model, na.Term)
		if i > 0 {
			sb.WriteString(" ")
		}

		sb.WriteString(fmt.Sprintf("(%s %s)", na.Name, formatBool(v != nil && v.Sign() != 0)))
	}

	sb.WriteString(")")
	d.writeLine(sb.String())
}

func (d *Driver) cmdGetModel() {
	if d.ctx == nil || d.ctx.Status() != context.Sat {
		d.writeError("get-model requires a satisfiable context")
		return
	}

	model := d.solvers.Model()

	var sb strings.Builder
	sb.WriteString("(\n")

	for _, name := range d.env.ConstNames() {
		id, sort, ok := d.env.Lookup(name)
		if !ok {
			continue
		}

		v := evalTerm(d.store, model, id)
		sb.WriteString(fmt.Sprintf("  (define-fun %s () %s %s)\n", name, sort.String(), formatValue(d.store, id, v)))
	}

	sb.WriteString(")")
	d.writeLine(sb.String())
}

func (d *Driver) cmdSetInfo(cmd *smtlib.ParsedCommand) {
	if reservedInfoKeys[cmd.Keyword] {
		d.writeError(fmt.Sprintf("%s is read-only", cmd.Keyword))
		return
	}

	d.info[cmd.Keyword] = cmd.Value.String(false)
	d.writeSuccessIfRequested()
}

func (d *Driver) cmdGetInfo(cmd *smtlib.ParsedCommand) {
	switch cmd.Keyword {
	case ":name":
		d.writeLine(`(:name "smtbv")`)
	case ":authors":
		d.writeLine(`(:authors "smtbv contributors")`)
	case ":version":
		d.writeLine(`(:version "1.0")`)
	case ":error-behavior":
		d.writeLine(`(:error-behavior "continued-execution")`)
	case ":reason-unknown":
		if d.ctx == nil || d.ctx.Status() != context.Unknown {
			d.writeError(":reason-unknown is only available after an unknown check-sat result")
			return
		}

		d.writeLine(`(:reason-unknown incomplete)`)
	case ":all-statistics":
		d.writeLine(`(:all-statistics ())`)
	default:
		if v, ok := d.info[cmd.Keyword]; ok {
			d.writeLine(fmt.Sprintf("(%s %s)", cmd.Keyword, v))
			return
		}

		d.writeError(fmt.Sprintf("no value for %s", cmd.Keyword))
	}
}

func (d *Driver) cmdSetOption(cmd *smtlib.ParsedCommand) {
	if preLogicOnlyOptions[cmd.Keyword] && d.logicSet {
		d.writeError(fmt.Sprintf("%s must be set before set-logic", cmd.Keyword))
		return
	}

	switch cmd.Keyword {
	case ":print-success":
		d.withBool(cmd, func(v bool) { d.settings.PrintSuccess = v })
	case ":produce-models":
		d.withBool(cmd, func(v bool) { d.settings.ProduceModels = v })
	case ":produce-assignments":
		d.withBool(cmd, func(v bool) { d.settings.ProduceAssignments = v })
	case ":produce-unsat-cores":
		d.withBool(cmd, func(v bool) { d.settings.ProduceUnsatCores = v })
	case ":global-declarations":
		d.withBool(cmd, func(v bool) { d.settings.GlobalDeclarations = v })
	case ":verbosity":
		d.withInt(cmd, func(v int64) { d.settings.Verbosity = v })
	case ":random-seed":
		d.withInt(cmd, func(v int64) { d.settings.RandomSeed = v })
	case ":regular-output-channel":
		d.withChannel(cmd, true)
	case ":diagnostic-output-channel":
		d.withChannel(cmd, false)
	default:
		if d.routeToParams(cmd) {
			return
		}

		d.writeDiag(fmt.Sprintf("unsupported option %s", cmd.Keyword))
	}
}

func (d *Driver) withBool(cmd *smtlib.ParsedCommand, apply func(bool)) {
	v, err := parseBoolValue(cmd.Value)
	if err != nil {
		d.writeError(err.Error())
		return
	}

	apply(v)
	d.writeSuccessIfRequested()
}

func (d *Driver) withInt(cmd *smtlib.ParsedCommand, apply func(int64)) {
	v, err := parseIntValue(cmd.Value)
	if err != nil {
		d.writeError(err.Error())
		return
	}

	apply(v)
	d.writeSuccessIfRequested()
}

func (d *Driver) withChannel(cmd *smtlib.ParsedCommand, regular bool) {
	path, err := parseChannelValue(cmd.Value)
	if err != nil {
		d.writeError(err.Error())
		return
	}

	w, closer, err := openChannel(path)
	if err != nil {
		d.writeError(err.Error())
		return
	}

	if regular {
		if d.outFile != nil {
			_ = d.outFile.Close()
		}

		d.out, d.outFile = w, closer
		d.settings.RegularOutputPath = path
	} else {
		if d.diagF != nil {
			_ = d.diagF.Close()
		}

		d.diag, d.diagF = w, closer
		d.settings.DiagnosticPath = path
	}

	d.writeSuccessIfRequested()
}

func openChannel(path string) (io.Writer, *os.File, error) {
	switch path {
	case "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	default:
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, err
		}

		return f, f, nil
	}
}

// routeToParams forwards a vendor tunable (anything not one of the built-in
// option keywords) to the parameter registry, after stripping the leading
// colon. It reports whether the keyword was recognized.
func (d *Driver) routeToParams(cmd *smtlib.ParsedCommand) bool {
	name := strings.TrimPrefix(cmd.Keyword, ":")

	current, err := d.params.Get(name)
	if err != nil {
		return false
	}

	v, perr := parseParamValue(current.Kind, cmd.Value)
	if perr != nil {
		d.writeError(perr.Error())
		return true
	}

	if err := d.params.Set(name, v); err != nil {
		d.writeError(err.Error())
		return true
	}

	d.writeSuccessIfRequested()

	return true
}

func (d *Driver) cmdGetOption(cmd *smtlib.ParsedCommand) {
	switch cmd.Keyword {
	case ":print-success":
		d.writeLine(formatBool(d.settings.PrintSuccess))
	case ":produce-models":
		d.writeLine(formatBool(d.settings.ProduceModels))
	case ":produce-assignments":
		d.writeLine(formatBool(d.settings.ProduceAssignments))
	case ":produce-unsat-cores":
		d.writeLine(formatBool(d.settings.ProduceUnsatCores))
	case ":global-declarations":
		d.writeLine(formatBool(d.settings.GlobalDeclarations))
	case ":verbosity":
		d.writeLine(fmt.Sprintf("%d", d.settings.Verbosity))
	case ":random-seed":
		d.writeLine(fmt.Sprintf("%d", d.settings.RandomSeed))
	case ":regular-output-channel":
		d.writeLine(fmt.Sprintf("%q", d.settings.RegularOutputPath))
	case ":diagnostic-output-channel":
		d.writeLine(fmt.Sprintf("%q", d.settings.DiagnosticPath))
	default:
		name := strings.TrimPrefix(cmd.Keyword, ":")

		v, err := d.params.Get(name)
		if err != nil {
			d.writeError(err.Error())
			return
		}

		d.writeLine(formatParamValue(v))
	}
}

func formatValue(store *term.Store, id term.ID, v *big.Int) string {
	if v == nil {
		return "unknown"
	}

	if store.TypeOf(id).Boolean {
		return formatBool(v.Sign() != 0)
	}

	width := store.WidthOf(id)

	return "#b" + binaryString(v, width)
}

func binaryString(v *big.Int, width uint32) string {
	bits := make([]byte, width)

	for i := uint32(0); i < width; i++ {
		if v.Bit(int(width-1-i)) == 1 {
			bits[i] = '1'
		} else {
			bits[i] = '0'
		}
	}

	return string(bits)
}
