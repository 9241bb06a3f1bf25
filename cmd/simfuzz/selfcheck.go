package main

import (
	"errors"

	"go.uber.org/zap"

	"github.com/kmrgirish/simfuzz"
	"github.com/kmrgirish/simfuzz/execkey"
	"github.com/kmrgirish/simfuzz/harness"
)

var widths = []int{8, 16, 32, 64}

// randomBounds draws an ordered pair of boundaries that fit kind.
func randomBounds(f *simfuzz.Fuzzer, kind simfuzz.BoundaryKind) (lo, hi uint64) {
	draw := func() uint64 {
		v := uint64(f.RandomPositiveInteger())<<32 | uint64(f.RandomPositiveInteger())
		// Bias towards the ends of the domain half of the time.
		switch f.RandomIntegerInRange(0, 3) {
		case 0:
			v %= 4
		case 1:
			v = kind.Max() - v%4
		}
		return v & kind.Max()
	}
	lo, hi = draw(), draw()
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func checkValid(t *harness.T) {
	f := t.Fuzzer()
	for _, width := range widths {
		kind, _ := simfuzz.UnsignedKind(width)
		lo, hi := randomBounds(f, kind)

		v, err := f.BoundaryValue(kind, hi, lo, true)
		if err != nil {
			t.Errorf("%s [%d, %d]: %v", kind, lo, hi, err)
			continue
		}
		if v < lo || v > hi {
			t.Errorf("%s [%d, %d]: %d outside range", kind, lo, hi, v)
		}
		if v != lo && v != lo+1 && v != hi-1 && v != hi {
			t.Errorf("%s [%d, %d]: %d is not a boundary", kind, lo, hi, v)
		}
	}
}

func checkInvalid(t *harness.T) {
	f := t.Fuzzer()
	for _, width := range widths {
		kind, _ := simfuzz.UnsignedKind(width)
		lo, hi := randomBounds(f, kind)

		v, err := f.BoundaryValue(kind, lo, hi, false)
		if lo == 0 && hi == kind.Max() {
			if !errors.Is(err, simfuzz.ErrNoValidBoundary) || v != kind.Max() {
				t.Errorf("%s full domain: got %d, %v", kind, v, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s [%d, %d]: %v", kind, lo, hi, err)
			continue
		}
		if v >= lo && v <= hi {
			t.Errorf("%s [%d, %d]: %d inside range", kind, lo, hi, v)
		}
		if (lo == 0 || v != lo-1) && (hi == kind.Max() || v != hi+1) {
			t.Errorf("%s [%d, %d]: %d is not adjacent", kind, lo, hi, v)
		}
	}
}

func checkFullDomain(t *harness.T) {
	f := t.Fuzzer()
	for _, width := range widths {
		kind, _ := simfuzz.UnsignedKind(width)
		v, err := f.BoundaryValue(kind, kind.Max(), 0, false)
		if !errors.Is(err, simfuzz.ErrNoValidBoundary) || v != kind.Max() {
			t.Errorf("%s: got %d, %v", kind, v, err)
		}
	}
	if _, err := f.RandomSint8BoundaryValue(); !errors.Is(err, simfuzz.ErrNotImplemented) {
		t.Errorf("int8: got %v", err)
	}
}

func checkReproducible(t *harness.T) {
	key := t.Invocation().Key
	cfg := simfuzz.FuzzerConfig{Key: key, Engine: t.Fuzzer().Engine()}
	a, err := simfuzz.NewFuzzerWithConfig(cfg)
	if err != nil {
		t.Fatalf("%v", err)
	}
	b, _ := simfuzz.NewFuzzerWithConfig(cfg)
	for i := range 64 {
		x, _ := a.RandomUint16BoundaryValue(100, 200, i%2 == 0)
		y, _ := b.RandomUint16BoundaryValue(200, 100, i%2 == 0)
		if x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}
}

func checkString(t *harness.T) {
	f := t.Fuzzer()
	maxLength := int(f.RandomIntegerInRange(1, 64))
	s, err := f.RandomAsciiStringWithMaximumLength(maxLength)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if len(s) < 1 || len(s) > maxLength {
		t.Errorf("length %d outside [1, %d]", len(s), maxLength)
	}
	for i := range len(s) {
		if s[i] < 1 || s[i] > 127 {
			t.Errorf("byte %d is %#x", i, s[i])
		}
	}
	if _, err := f.RandomAsciiStringWithMaximumLength(0); !errors.Is(err, simfuzz.ErrInvalidLength) {
		t.Errorf("zero length cap: got %v", err)
	}
	t.Zap().Debug("generated string", zap.Int("len", len(s)), zap.Int("max", maxLength))
}

func checkRange(t *harness.T) {
	f := t.Fuzzer()
	lo := f.RandomInteger()
	hi := f.RandomInteger()
	v := f.RandomIntegerInRange(lo, hi)
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo || v > hi {
		t.Errorf("%d outside [%d, %d]", v, lo, hi)
	}
}

func checkExecKey(t *harness.T) {
	inv := t.Invocation()
	a, err := execkey.GenerateExecKey("selfcheck", inv.Suite, inv.Test, inv.Iteration)
	if err != nil {
		t.Fatalf("%v", err)
	}
	b, _ := execkey.GenerateExecKey("selfcheck", inv.Suite, inv.Test, inv.Iteration)
	c, _ := execkey.GenerateExecKey("selfcheck", inv.Suite, inv.Test, inv.Iteration+1)
	if a != b {
		t.Errorf("key not stable: %x != %x", a, b)
	}
	if a == c {
		t.Errorf("iterations %d and %d share key %x", inv.Iteration, inv.Iteration+1, a)
	}
	if _, err := execkey.GenerateExecKey("selfcheck", inv.Suite, inv.Test, -1); !errors.Is(err, execkey.ErrNegativeIteration) {
		t.Errorf("negative iteration: got %v", err)
	}
}

func selfCheckSuites() []harness.Suite {
	return []harness.Suite{
		{
			Name: "boundary",
			Tests: []harness.Test{
				{Name: "valid", Func: checkValid},
				{Name: "invalid", Func: checkInvalid},
				{Name: "full-domain", Func: checkFullDomain},
				{Name: "reproducible", Func: checkReproducible},
			},
		},
		{
			Name: "generators",
			Tests: []harness.Test{
				{Name: "string", Func: checkString},
				{Name: "range", Func: checkRange},
			},
		},
		{
			Name: "execkey",
			Tests: []harness.Test{
				{Name: "stable", Func: checkExecKey},
			},
		},
	}
}
