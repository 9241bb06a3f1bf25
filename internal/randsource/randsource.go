/*
Package randsource contains the seedable random engines behind fuzzers.

Every engine implements math/rand/v2's Source interface and is fully
determined by the 64-bit key it is seeded with. Engines hold plain mutable
state and are not safe for concurrent use.
*/
package randsource

import (
	"fmt"
	"math/rand/v2"
)

// A Source is a seedable rand.Source.
type Source interface {
	rand.Source
	Seed(key uint64)
}

// A Uint32er produces native 32-bit outputs. Fuzzers draw 32-bit integers
// through Uint32 when their engine implements it, so that each draw consumes
// exactly one output of a 32-bit engine.
type Uint32er interface {
	Uint32() uint32
}

// Kind names an engine.
type Kind string

const (
	KindWyrand Kind = "wyrand"
	KindMWC    Kind = "mwc"
)

// ParseKind validates an engine name. The empty string selects KindWyrand.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "":
		return KindWyrand, nil
	case KindWyrand, KindMWC:
		return k, nil
	default:
		return "", fmt.Errorf("randsource: unknown engine %q", s)
	}
}

// New returns an engine of the given kind seeded with key.
func New(kind Kind, key uint64) (Source, error) {
	switch kind {
	case "", KindWyrand:
		return NewWyrand(key), nil
	case KindMWC:
		return NewMWC(key), nil
	default:
		return nil, fmt.Errorf("randsource: unknown engine %q", kind)
	}
}
