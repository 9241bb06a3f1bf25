/*
Package boundary picks values at or next to the edges of an inclusive range of
fixed-width unsigned integers.

A valid boundary value lies inside the range and touches one of its ends: the
end itself or its inner neighbor. An invalid boundary value lies one step
outside the range. When the range reaches the edge of the integer domain there
may be no value outside it on that side; if no candidate exists at all, Value
returns the all-bits-set sentinel together with ErrNoValidBoundary.
*/
package boundary

import (
	"errors"
	"slices"
)

// Unsigned is the set of widths boundary values are generated for.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// A Picker chooses an index uniformly in [0, n). *rand.Rand satisfies it.
type Picker interface {
	IntN(n int) int
}

// ErrNoValidBoundary is returned when no value satisfies a request.
var ErrNoValidBoundary = errors.New("no valid boundary value")

// Sentinel returns the value returned alongside ErrNoValidBoundary: all bits
// set, which is also the largest legitimate value of T.
func Sentinel[T Unsigned]() T {
	return ^T(0)
}

// Candidates returns the distinct values Value picks from, in ascending
// order. An empty result means there is no valid value. The boundaries may be
// given in either order.
func Candidates[T Unsigned](boundary1, boundary2 T, validDomain bool) []T {
	lo, hi := boundary1, boundary2
	if lo > hi {
		lo, hi = hi, lo
	}
	top := ^T(0)

	if lo == hi {
		switch {
		case validDomain:
			return []T{lo}
		case lo > 0:
			return []T{lo - 1}
		case lo < top:
			return []T{lo + 1}
		default:
			return nil
		}
	}

	if validDomain {
		if lo == 0 && hi == top {
			return []T{lo, hi}
		}
		vals := []T{lo, lo + 1, hi - 1, hi}
		slices.Sort(vals)
		return slices.Compact(vals)
	}

	switch {
	case lo == 0 && hi == top:
		return nil
	case lo == 0:
		return []T{hi + 1}
	case hi == top:
		return []T{lo - 1}
	default:
		return []T{lo - 1, hi + 1}
	}
}

// Value returns a boundary value for the range spanned by boundary1 and
// boundary2, chosen uniformly among the distinct candidates. p is consulted
// only when there is more than one candidate.
func Value[T Unsigned](p Picker, boundary1, boundary2 T, validDomain bool) (T, error) {
	candidates := Candidates(boundary1, boundary2, validDomain)
	switch len(candidates) {
	case 0:
		return Sentinel[T](), ErrNoValidBoundary
	case 1:
		return candidates[0], nil
	default:
		return candidates[p.IntN(len(candidates))], nil
	}
}
