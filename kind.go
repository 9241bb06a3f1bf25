package simfuzz

import (
	"fmt"
	"math"
)

// A BoundaryKind is an integer type boundary values can be requested for.
type BoundaryKind int

// Boundary kinds. KindUint8 through KindUint64 are the supported unsigned
// widths.
const (
	KindUint8 BoundaryKind = iota
	KindUint16
	KindUint32
	KindUint64
	// KindSint8 has no algorithm; requesting it fails with ErrNotImplemented.
	KindSint8
)

var boundaryKindNames = [...]string{
	KindUint8:  "uint8",
	KindUint16: "uint16",
	KindUint32: "uint32",
	KindUint64: "uint64",
	KindSint8:  "int8",
}

func (k BoundaryKind) String() string {
	if k < 0 || int(k) >= len(boundaryKindNames) {
		return fmt.Sprintf("BoundaryKind(%d)", int(k))
	}
	return boundaryKindNames[k]
}

// Supported reports whether boundary values of kind k can be generated.
func (k BoundaryKind) Supported() bool {
	return k >= KindUint8 && k <= KindUint64
}

// Bits returns the width of kind k.
func (k BoundaryKind) Bits() int {
	switch k {
	case KindUint8, KindSint8:
		return 8
	case KindUint16:
		return 16
	case KindUint32:
		return 32
	case KindUint64:
		return 64
	default:
		return 0
	}
}

// Max returns the largest value of an unsigned kind, which is also the value
// returned with ErrNoValidBoundary.
func (k BoundaryKind) Max() uint64 {
	switch k {
	case KindUint8:
		return math.MaxUint8
	case KindUint16:
		return math.MaxUint16
	case KindUint32:
		return math.MaxUint32
	case KindUint64:
		return math.MaxUint64
	default:
		return 0
	}
}

// UnsignedKind returns the unsigned kind with the given width.
func UnsignedKind(bits int) (BoundaryKind, error) {
	switch bits {
	case 8:
		return KindUint8, nil
	case 16:
		return KindUint16, nil
	case 32:
		return KindUint32, nil
	case 64:
		return KindUint64, nil
	default:
		return 0, fmt.Errorf("no unsigned kind with %d bits", bits)
	}
}
