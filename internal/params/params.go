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

// Package params implements the parameter registry: a closed enumeration
// of named, typed solver tunables consumed by the context and the (external)
// SAT core.
package params

import (
	"fmt"
	"math/big"

	mathutil "github.com/consensys/go-smt-bv/pkg/util/math"
)

// Kind fixes the type a parameter's value must satisfy.
type Kind uint8

// The value kinds a parameter may take.
const (
	BoolKind Kind = iota
	PosIntKind
	RatioKind  // a ratio in [0, 1]
	FactorKind // a factor >= 1
	EnumKind
)

// Value is a type-tagged parameter value.
type Value struct {
	Kind    Kind
	Bool    bool
	Int     int64
	Float   float64
	Enum    string
}

// spec describes one registry entry: its value kind, for EnumKind the
// closed set of symbols it accepts, and for PosIntKind an optional bound on
// the accepted range (nil means any positive value).
type spec struct {
	kind    Kind
	symbols map[string]bool
	bounds  *mathutil.Interval
}

// Registry is the closed enumeration of recognized tunables: variable
// elimination, or-flattening, restart/decay parameters, and the branching
// heuristic.
type Registry struct {
	specs  map[string]spec
	values map[string]Value
}

// New constructs a registry pre-populated with the default set of
// recognized tunables and their default values.
func New() *Registry {
	r := &Registry{
		specs:  make(map[string]spec),
		values: make(map[string]Value),
	}

	r.define("var-elim", BoolKind, nil, Value{Kind: BoolKind, Bool: true})
	r.define("flatten-or", BoolKind, nil, Value{Kind: BoolKind, Bool: true})
	r.definePosInt("restart-interval", 100, mathutil.NewInterval64(1, 1_000_000))
	r.define("var-decay", RatioKind, nil, Value{Kind: RatioKind, Float: 0.95})
	r.define("clause-decay", RatioKind, nil, Value{Kind: RatioKind, Float: 0.999})
	r.define("randomness-factor", FactorKind, nil, Value{Kind: FactorKind, Float: 1})
	r.define("branching", EnumKind, map[string]bool{"default": true, "negative": true, "positive": true, "theory": true}, Value{Kind: EnumKind, Enum: "default"})

	return r
}

func (r *Registry) define(name string, kind Kind, symbols map[string]bool, def Value) {
	r.specs[name] = spec{kind: kind, symbols: symbols}
	r.values[name] = def
}

// definePosInt registers an integer tunable bounded to the given interval,
// the way restart-interval and similar counters need a sane upper cap in
// addition to being merely positive.
func (r *Registry) definePosInt(name string, def int64, bounds mathutil.Interval) {
	r.specs[name] = spec{kind: PosIntKind, bounds: &bounds}
	r.values[name] = Value{Kind: PosIntKind, Int: def}
}

// Set type-checks and stores a new value for name. An invalid value
// produces a structured error without changing any existing state.
func (r *Registry) Set(name string, v Value) error {
	s, ok := r.specs[name]
	if !ok {
		return fmt.Errorf("unrecognized parameter %q", name)
	}

	if v.Kind != s.kind {
		return fmt.Errorf("parameter %q expects %s, got %s", name, s.kind, v.Kind)
	}

	switch s.kind {
	case PosIntKind:
		if s.bounds != nil {
			if !s.bounds.Contains(*big.NewInt(v.Int)) {
				lo := s.bounds.MinIntValue()
				hi := s.bounds.MaxIntValue()
				return fmt.Errorf("parameter %q must be within [%s, %s], got %d", name, lo.String(), hi.String(), v.Int)
			}
		} else if v.Int <= 0 {
			return fmt.Errorf("parameter %q must be a positive integer, got %d", name, v.Int)
		}
	case RatioKind:
		if v.Float < 0 || v.Float > 1 {
			return fmt.Errorf("parameter %q must be a ratio in [0, 1], got %f", name, v.Float)
		}
	case FactorKind:
		if v.Float < 1 {
			return fmt.Errorf("parameter %q must be a factor >= 1, got %f", name, v.Float)
		}
	case EnumKind:
		if !s.symbols[v.Enum] {
			return fmt.Errorf("parameter %q does not recognize symbol %q", name, v.Enum)
		}
	}

	r.values[name] = v

	return nil
}

// Get returns the current value of name, or an error if name is not a
// recognized tunable.
func (r *Registry) Get(name string) (Value, error) {
	v, ok := r.values[name]
	if !ok {
		return Value{}, fmt.Errorf("unrecognized parameter %q", name)
	}

	return v, nil
}

//nolint:revive
func (k Kind) String() string {
	switch k {
	case BoolKind:
		return "bool"
	case PosIntKind:
		return "positive integer"
	case RatioKind:
		return "ratio in [0, 1]"
	case FactorKind:
		return "factor >= 1"
	case EnumKind:
		return "enum"
	default:
		return "unknown"
	}
}
