package simfuzz

import (
	"sync"

	"github.com/kmrgirish/simfuzz/execkey"
)

// The package-level API below mirrors the SDL_test fuzzer interface.
// It is backed by one shared Fuzzer; parallel tests should use their own
// Fuzzer instead.

var (
	defaultMu     sync.Mutex
	defaultFuzzer *Fuzzer
)

func withDefault[T any](fn func(f *Fuzzer) T) T {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultFuzzer == nil {
		panic("simfuzz: InitFuzzer not called")
	}
	return fn(defaultFuzzer)
}

type valueErr[T any] struct {
	v   T
	err error
}

// InitFuzzer seeds the shared fuzzer with execKey, replacing any previous
// one. It must be called before the other package-level functions.
func InitFuzzer(execKey uint64) {
	f := NewFuzzer(execKey)

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultFuzzer != nil {
		defaultFuzzer.Deinit()
	}
	defaultFuzzer = f
}

// DeinitFuzzer releases the shared fuzzer. It is safe to call without a
// prior InitFuzzer.
func DeinitFuzzer() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultFuzzer != nil {
		defaultFuzzer.Deinit()
		defaultFuzzer = nil
	}
}

// GenerateExecKey derives the execution key for one test invocation. See
// package execkey.
func GenerateExecKey(runSeed, suiteName, testName string, iteration int) (uint64, error) {
	return execkey.GenerateExecKey(runSeed, suiteName, testName, iteration)
}

// RandomInteger calls Fuzzer.RandomInteger on the shared fuzzer.
func RandomInteger() int32 {
	return withDefault((*Fuzzer).RandomInteger)
}

// RandomPositiveInteger calls Fuzzer.RandomPositiveInteger on the shared
// fuzzer.
func RandomPositiveInteger() uint32 {
	return withDefault((*Fuzzer).RandomPositiveInteger)
}

// RandomIntegerInRange calls Fuzzer.RandomIntegerInRange on the shared
// fuzzer.
func RandomIntegerInRange(min, max int32) int32 {
	return withDefault(func(f *Fuzzer) int32 {
		return f.RandomIntegerInRange(min, max)
	})
}

// RandomAsciiString calls Fuzzer.RandomAsciiString on the shared fuzzer.
func RandomAsciiString() string {
	return withDefault((*Fuzzer).RandomAsciiString)
}

// RandomAsciiStringWithMaximumLength calls
// Fuzzer.RandomAsciiStringWithMaximumLength on the shared fuzzer.
func RandomAsciiStringWithMaximumLength(maxLength int) (string, error) {
	r := withDefault(func(f *Fuzzer) valueErr[string] {
		s, err := f.RandomAsciiStringWithMaximumLength(maxLength)
		return valueErr[string]{s, err}
	})
	return r.v, r.err
}

// RandomUint8BoundaryValue calls Fuzzer.RandomUint8BoundaryValue on the
// shared fuzzer.
func RandomUint8BoundaryValue(boundary1, boundary2 uint8, validDomain bool) (uint8, error) {
	r := withDefault(func(f *Fuzzer) valueErr[uint8] {
		v, err := f.RandomUint8BoundaryValue(boundary1, boundary2, validDomain)
		return valueErr[uint8]{v, err}
	})
	return r.v, r.err
}

// RandomUint16BoundaryValue calls Fuzzer.RandomUint16BoundaryValue on the
// shared fuzzer.
func RandomUint16BoundaryValue(boundary1, boundary2 uint16, validDomain bool) (uint16, error) {
	r := withDefault(func(f *Fuzzer) valueErr[uint16] {
		v, err := f.RandomUint16BoundaryValue(boundary1, boundary2, validDomain)
		return valueErr[uint16]{v, err}
	})
	return r.v, r.err
}

// RandomUint32BoundaryValue calls Fuzzer.RandomUint32BoundaryValue on the
// shared fuzzer.
func RandomUint32BoundaryValue(boundary1, boundary2 uint32, validDomain bool) (uint32, error) {
	r := withDefault(func(f *Fuzzer) valueErr[uint32] {
		v, err := f.RandomUint32BoundaryValue(boundary1, boundary2, validDomain)
		return valueErr[uint32]{v, err}
	})
	return r.v, r.err
}

// RandomUint64BoundaryValue calls Fuzzer.RandomUint64BoundaryValue on the
// shared fuzzer.
func RandomUint64BoundaryValue(boundary1, boundary2 uint64, validDomain bool) (uint64, error) {
	r := withDefault(func(f *Fuzzer) valueErr[uint64] {
		v, err := f.RandomUint64BoundaryValue(boundary1, boundary2, validDomain)
		return valueErr[uint64]{v, err}
	})
	return r.v, r.err
}

// RandomSint8BoundaryValue always fails with ErrNotImplemented.
func RandomSint8BoundaryValue() (int8, error) {
	r := withDefault(func(f *Fuzzer) valueErr[int8] {
		v, err := f.RandomSint8BoundaryValue()
		return valueErr[int8]{v, err}
	})
	return r.v, r.err
}
