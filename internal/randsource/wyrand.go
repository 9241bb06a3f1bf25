// Copyright 2023 The Go Authors. All rights reserved.  Use of this source code
// is governed by a BSD-style license that can be found at
// https://go.googlesource.com/go/+/refs/heads/master/LICENSE.

package randsource

import (
	"math/bits"
)

// Wyrand is a small, fast generator with a single word of state. It is the
// default engine for fuzzers.
type Wyrand struct {
	state uint64
}

// NewWyrand returns a Wyrand seeded with key.
func NewWyrand(key uint64) *Wyrand {
	return &Wyrand{state: key}
}

// Seed resets the state to key.
func (w *Wyrand) Seed(key uint64) {
	w.state = key
}

// Uint64 implements rand.Source.
func (w *Wyrand) Uint64() uint64 {
	w.state += 0xa0761d6478bd642f
	hi, lo := bits.Mul64(w.state, w.state^0xe7037ed1a0b428db)
	return hi ^ lo
}
