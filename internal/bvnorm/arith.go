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
package bvnorm

import (
	"math/big"

	"github.com/consensys/go-smt-bv/internal/term"
)

// polyAddConst builds the polynomial a + k over width w.
func polyAddConst(store *term.Store, w uint32, a term.ID, k *big.Int) term.ID {
	return store.BvPolyTerm(w, []term.ID{a, term.InvalidID}, []*big.Int{big.NewInt(1), k})
}

// polyNegate builds the two's-complement arithmetic negation of a, i.e. -a,
// over width w.
func polyNegate(store *term.Store, w uint32, a term.ID) term.ID {
	return store.BvPolyTerm(w, []term.ID{a}, []*big.Int{big.NewInt(-1)})
}

// polySub builds a - b over width w.
func polySub(store *term.Store, w uint32, a, b term.ID) term.ID {
	return store.BvPolyTerm(w, []term.ID{a, b}, []*big.Int{big.NewInt(1), big.NewInt(-1)})
}

// reinterpret restates a term known to hold a value below 2^oldWidth as a
// term of newWidth, i.e. an unsigned zero-extension. No-op in effect (the
// value is unchanged modulo 2^newWidth) but produces a term carrying the
// wider type the caller needs to combine it with other width-w terms.
func reinterpret(store *term.Store, a term.ID, newWidth uint32) term.ID {
	return store.BvPolyTerm(newWidth, []term.ID{a}, []*big.Int{big.NewInt(1)})
}
