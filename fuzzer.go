package simfuzz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/kmrgirish/simfuzz/execkey"
	"github.com/kmrgirish/simfuzz/internal/boundary"
	"github.com/kmrgirish/simfuzz/internal/randsource"
)

// DefaultMaxStringLength is the length cap of RandomAsciiString.
const DefaultMaxStringLength = 255

var (
	// ErrNoValidBoundary is returned by boundary value methods when no value
	// satisfies the request. The accompanying value has all bits set.
	ErrNoValidBoundary = boundary.ErrNoValidBoundary

	// ErrNotImplemented is returned for boundary kinds without an algorithm.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidLength is returned for string length caps below 1.
	ErrInvalidLength = errors.New("invalid maximum length")

	// ErrBoundaryOutOfRange is returned by BoundaryValue when a boundary does
	// not fit the requested width.
	ErrBoundaryOutOfRange = errors.New("boundary out of range")
)

// An Engine names the random engine behind a fuzzer.
type Engine string

const (
	// EngineWyrand is a fast 64-bit generator and the default.
	EngineWyrand Engine = Engine(randsource.KindWyrand)
	// EngineMWC is the multiply-with-carry generator of SDL's test
	// harness. RandomInteger and RandomPositiveInteger return its raw
	// outputs, so a fuzzer seeded with the same key reproduces the integer
	// draws recorded there. Ranged, string and boundary values use their own
	// reductions and do not match SDL's.
	EngineMWC Engine = Engine(randsource.KindMWC)
)

// ParseEngine validates an engine name. The empty string selects
// EngineWyrand.
func ParseEngine(s string) (Engine, error) {
	k, err := randsource.ParseKind(s)
	if err != nil {
		return "", err
	}
	return Engine(k), nil
}

// A FuzzerConfig configures a new fuzzer.
type FuzzerConfig struct {
	Key    execkey.Key
	Engine Engine
	// Logger receives a debug record for every boundary value. Nil disables
	// logging.
	Logger *slog.Logger
	// Context is passed with every log record, so handlers can attach
	// values from it. Nil means context.Background().
	Context context.Context
}

// A Fuzzer generates values from a random engine seeded with an execution
// key. A Fuzzer must not be used concurrently.
type Fuzzer struct {
	key    execkey.Key
	engine Engine
	source randsource.Source
	rand   *rand.Rand
	draw32 func() uint32
	logger *slog.Logger
	ctx    context.Context
}

// NewFuzzer returns a fuzzer using the default engine seeded with key.
func NewFuzzer(key uint64) *Fuzzer {
	f, err := NewFuzzerWithConfig(FuzzerConfig{Key: execkey.Key(key)})
	if err != nil {
		panic(err)
	}
	return f
}

// NewFuzzerWithConfig returns a fuzzer for config. It fails only for an
// unknown engine.
func NewFuzzerWithConfig(config FuzzerConfig) (*Fuzzer, error) {
	source, err := randsource.New(randsource.Kind(config.Engine), uint64(config.Key))
	if err != nil {
		return nil, err
	}
	engine := config.Engine
	if engine == "" {
		engine = EngineWyrand
	}
	ctx := config.Context
	if ctx == nil {
		ctx = context.Background()
	}
	f := &Fuzzer{
		key:    config.Key,
		engine: engine,
		source: source,
		rand:   rand.New(source),
		logger: config.Logger,
		ctx:    ctx,
	}
	f.draw32 = f.rand.Uint32
	if u, ok := source.(randsource.Uint32er); ok {
		f.draw32 = u.Uint32
	}
	return f, nil
}

// Key returns the execution key the fuzzer was seeded with.
func (f *Fuzzer) Key() execkey.Key {
	return f.key
}

// Engine returns the engine the fuzzer draws from.
func (f *Fuzzer) Engine() Engine {
	return f.engine
}

// Deinit releases the fuzzer's engine. Using the fuzzer afterwards panics.
// Deinit may be called more than once.
func (f *Fuzzer) Deinit() {
	f.source = nil
	f.rand = nil
	f.draw32 = nil
}

func (f *Fuzzer) r() *rand.Rand {
	if f.rand == nil {
		panic("simfuzz: fuzzer used after Deinit")
	}
	return f.rand
}

func (f *Fuzzer) next32() uint32 {
	f.r()
	return f.draw32()
}

// RandomInteger returns an integer drawn from the full int32 range.
func (f *Fuzzer) RandomInteger() int32 {
	return int32(f.next32())
}

// RandomPositiveInteger returns an integer drawn from the full uint32 range.
func (f *Fuzzer) RandomPositiveInteger() uint32 {
	return f.next32()
}

// RandomIntegerInRange returns an integer in [min, max], both inclusive. The
// bounds may be given in either order.
func (f *Fuzzer) RandomIntegerInRange(min, max int32) int32 {
	if min > max {
		min, max = max, min
	}
	if min == max {
		return min
	}
	span := int64(max) - int64(min) + 1
	return int32(int64(min) + f.r().Int64N(span))
}

// RandomAsciiString returns a string of 1 to DefaultMaxStringLength bytes,
// each in [1, 127].
func (f *Fuzzer) RandomAsciiString() string {
	s, _ := f.RandomAsciiStringWithMaximumLength(DefaultMaxStringLength)
	return s
}

// RandomAsciiStringWithMaximumLength returns a string of 1 to maxLength bytes,
// each in [1, 127].
func (f *Fuzzer) RandomAsciiStringWithMaximumLength(maxLength int) (string, error) {
	if maxLength < 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, maxLength)
	}
	r := f.r()
	buf := make([]byte, 1+r.IntN(maxLength))
	for i := range buf {
		buf[i] = byte(1 + r.IntN(127))
	}
	return string(buf), nil
}

// RandomUint8BoundaryValue returns a boundary value of the range spanned by
// boundary1 and boundary2. See the package documentation.
//
//	RandomUint8BoundaryValue(10, 20, true)  // 10, 11, 19 or 20
//	RandomUint8BoundaryValue(1, 20, false)  // 0 or 21
//	RandomUint8BoundaryValue(0, 99, false)  // 100
//	RandomUint8BoundaryValue(0, 255, false) // 255, ErrNoValidBoundary
func (f *Fuzzer) RandomUint8BoundaryValue(boundary1, boundary2 uint8, validDomain bool) (uint8, error) {
	return boundaryValue(f, KindUint8, boundary1, boundary2, validDomain)
}

// RandomUint16BoundaryValue is RandomUint8BoundaryValue for uint16.
func (f *Fuzzer) RandomUint16BoundaryValue(boundary1, boundary2 uint16, validDomain bool) (uint16, error) {
	return boundaryValue(f, KindUint16, boundary1, boundary2, validDomain)
}

// RandomUint32BoundaryValue is RandomUint8BoundaryValue for uint32.
func (f *Fuzzer) RandomUint32BoundaryValue(boundary1, boundary2 uint32, validDomain bool) (uint32, error) {
	return boundaryValue(f, KindUint32, boundary1, boundary2, validDomain)
}

// RandomUint64BoundaryValue is RandomUint8BoundaryValue for uint64.
func (f *Fuzzer) RandomUint64BoundaryValue(boundary1, boundary2 uint64, validDomain bool) (uint64, error) {
	return boundaryValue(f, KindUint64, boundary1, boundary2, validDomain)
}

// RandomSint8BoundaryValue always fails with ErrNotImplemented.
func (f *Fuzzer) RandomSint8BoundaryValue() (int8, error) {
	return 0, fmt.Errorf("%w: %s boundary values", ErrNotImplemented, KindSint8)
}

// BoundaryValue returns a boundary value of the given kind. The boundaries
// must fit the kind's width.
func (f *Fuzzer) BoundaryValue(kind BoundaryKind, boundary1, boundary2 uint64, validDomain bool) (uint64, error) {
	if !kind.Supported() {
		return 0, fmt.Errorf("%w: %s boundary values", ErrNotImplemented, kind)
	}
	if top := kind.Max(); boundary1 > top || boundary2 > top {
		return 0, fmt.Errorf("%w: [%d, %d] for %s", ErrBoundaryOutOfRange, boundary1, boundary2, kind)
	}

	switch kind {
	case KindUint8:
		v, err := f.RandomUint8BoundaryValue(uint8(boundary1), uint8(boundary2), validDomain)
		return uint64(v), err
	case KindUint16:
		v, err := f.RandomUint16BoundaryValue(uint16(boundary1), uint16(boundary2), validDomain)
		return uint64(v), err
	case KindUint32:
		v, err := f.RandomUint32BoundaryValue(uint32(boundary1), uint32(boundary2), validDomain)
		return uint64(v), err
	default:
		return f.RandomUint64BoundaryValue(boundary1, boundary2, validDomain)
	}
}

func boundaryValue[T boundary.Unsigned](f *Fuzzer, kind BoundaryKind, boundary1, boundary2 T, validDomain bool) (T, error) {
	v, err := boundary.Value(f.r(), boundary1, boundary2, validDomain)

	if f.logger != nil && f.logger.Enabled(f.ctx, slog.LevelDebug) {
		attrs := []slog.Attr{
			slog.String("kind", kind.String()),
			slog.Uint64("boundary1", uint64(boundary1)),
			slog.Uint64("boundary2", uint64(boundary2)),
			slog.Bool("valid", validDomain),
			slog.Uint64("value", uint64(v)),
		}
		if err != nil {
			attrs = append(attrs, slog.Any("err", err))
		}
		f.logger.LogAttrs(f.ctx, slog.LevelDebug, "boundary value", attrs...)
	}

	return v, err
}
