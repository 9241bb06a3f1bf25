package simfuzz_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/kmrgirish/simfuzz"
	"github.com/kmrgirish/simfuzz/execkey"
	"github.com/kmrgirish/simfuzz/internal/fuzzlog"
	"github.com/kmrgirish/simfuzz/internal/randsource"
)

func in[T comparable](v T, set ...T) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

func TestUint8Scenarios(t *testing.T) {
	f := simfuzz.NewFuzzer(0x1234)
	defer f.Deinit()

	for range 100 {
		if v, err := f.RandomUint8BoundaryValue(10, 20, true); err != nil || !in(v, 10, 11, 19, 20) {
			t.Errorf("(10, 20, true) = %d, %v", v, err)
		}
		if v, err := f.RandomUint8BoundaryValue(20, 10, true); err != nil || !in(v, 10, 11, 19, 20) {
			t.Errorf("(20, 10, true) = %d, %v", v, err)
		}
		if v, err := f.RandomUint8BoundaryValue(1, 20, false); err != nil || !in(v, 0, 21) {
			t.Errorf("(1, 20, false) = %d, %v", v, err)
		}
		if v, err := f.RandomUint8BoundaryValue(0, 99, false); err != nil || v != 100 {
			t.Errorf("(0, 99, false) = %d, %v", v, err)
		}
		if v, err := f.RandomUint8BoundaryValue(0, 255, false); !errors.Is(err, simfuzz.ErrNoValidBoundary) || v != 255 {
			t.Errorf("(0, 255, false) = %d, %v", v, err)
		}
	}
}

func TestAllCandidatesReached(t *testing.T) {
	f := simfuzz.NewFuzzer(99)
	seen := make(map[uint16]int)
	for range 1000 {
		v, err := f.RandomUint16BoundaryValue(1000, 2000, true)
		if err != nil {
			t.Fatal(err)
		}
		seen[v]++
	}
	if diff := cmp.Diff([]uint16{1000, 1001, 1999, 2000}, slices.Sorted(maps.Keys(seen))); diff != "" {
		t.Errorf("candidates reached (-want +got):\n%s", diff)
	}
}

func TestSentinelEveryWidth(t *testing.T) {
	f := simfuzz.NewFuzzer(7)
	if v, err := f.RandomUint16BoundaryValue(0, 0xffff, false); !errors.Is(err, simfuzz.ErrNoValidBoundary) || v != 0xffff {
		t.Errorf("uint16: %d, %v", v, err)
	}
	if v, err := f.RandomUint32BoundaryValue(0xffffffff, 0, false); !errors.Is(err, simfuzz.ErrNoValidBoundary) || v != 0xffffffff {
		t.Errorf("uint32: %d, %v", v, err)
	}
	if v, err := f.RandomUint64BoundaryValue(0, 0xffffffffffffffff, false); !errors.Is(err, simfuzz.ErrNoValidBoundary) || v != 0xffffffffffffffff {
		t.Errorf("uint64: %d, %v", v, err)
	}
}

type call struct {
	I32 int32
	U32 uint32
	R   int32
	S   string
	B8  uint8
	B16 uint16
	B32 uint32
	B64 uint64
}

func drawSequence(f *simfuzz.Fuzzer, n int) []call {
	var out []call
	for range n {
		var c call
		c.I32 = f.RandomInteger()
		c.U32 = f.RandomPositiveInteger()
		c.R = f.RandomIntegerInRange(-50, 50)
		c.S, _ = f.RandomAsciiStringWithMaximumLength(20)
		c.B8, _ = f.RandomUint8BoundaryValue(3, 200, true)
		c.B16, _ = f.RandomUint16BoundaryValue(3, 200, false)
		c.B32, _ = f.RandomUint32BoundaryValue(0, 1<<20, true)
		c.B64, _ = f.RandomUint64BoundaryValue(1<<40, 5, false)
		out = append(out, c)
	}
	return out
}

func TestReproducible(t *testing.T) {
	for _, engine := range []simfuzz.Engine{simfuzz.EngineWyrand, simfuzz.EngineMWC} {
		t.Run(string(engine), func(t *testing.T) {
			key, err := execkey.GenerateExecKey("seedA", "suiteX", "testY", 3)
			if err != nil {
				t.Fatal(err)
			}

			var runs [][]call
			for range 2 {
				f, err := simfuzz.NewFuzzerWithConfig(simfuzz.FuzzerConfig{Key: execkey.Key(key), Engine: engine})
				if err != nil {
					t.Fatal(err)
				}
				runs = append(runs, drawSequence(f, 50))
				f.Deinit()
			}
			if diff := cmp.Diff(runs[0], runs[1]); diff != "" {
				t.Errorf("same key, different values:\n%s", diff)
			}

			other := simfuzz.NewFuzzer(key + 1)
			if cmp.Equal(runs[0], drawSequence(other, 50)) {
				t.Error("different keys produced identical sequences")
			}
		})
	}
}

func TestMWCFirstDraw(t *testing.T) {
	f, err := simfuzz.NewFuzzerWithConfig(simfuzz.FuzzerConfig{Key: 0x0000000100000002, Engine: simfuzz.EngineMWC})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.RandomPositiveInteger(); got != 0x7e54a5a7 {
		t.Errorf("first draw %x, want 7e54a5a7", got)
	}
}

func TestMWCRawStream(t *testing.T) {
	const key = 0xc4a23064f60b27a4

	f, err := simfuzz.NewFuzzerWithConfig(simfuzz.FuzzerConfig{Key: key, Engine: simfuzz.EngineMWC})
	if err != nil {
		t.Fatal(err)
	}
	var got []uint32
	for range 3 {
		got = append(got, f.RandomPositiveInteger())
	}
	if diff := cmp.Diff([]uint32{0x5494cc18, 0x945bdbbc, 0x9f42002b}, got); diff != "" {
		t.Errorf("MWC draws (-want +got):\n%s", diff)
	}

	rapid.Check(t, func(t *rapid.T) {
		key := rapid.Uint64().Draw(t, "key")
		n := rapid.IntRange(1, 64).Draw(t, "n")

		f, err := simfuzz.NewFuzzerWithConfig(simfuzz.FuzzerConfig{Key: execkey.Key(key), Engine: simfuzz.EngineMWC})
		if err != nil {
			t.Fatal(err)
		}
		engine := randsource.NewMWC(key)
		for i := range n {
			want := engine.Uint32()
			var got uint32
			if i%2 == 0 {
				got = f.RandomPositiveInteger()
			} else {
				got = uint32(f.RandomInteger())
			}
			if got != want {
				t.Fatalf("draw %d: got %#x, want %#x", i, got, want)
			}
		}
	})
}

func TestRandomAsciiStringWithMaximumLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := simfuzz.NewFuzzer(rapid.Uint64().Draw(t, "key"))
		maxLength := rapid.IntRange(1, 300).Draw(t, "maxLength")

		s, err := f.RandomAsciiStringWithMaximumLength(maxLength)
		if err != nil {
			t.Fatal(err)
		}
		if len(s) < 1 || len(s) > maxLength {
			t.Fatalf("length %d outside [1, %d]", len(s), maxLength)
		}
		for i := 0; i < len(s); i++ {
			if s[i] < 1 || s[i] > 127 {
				t.Fatalf("byte %d at %d outside [1, 127]", s[i], i)
			}
		}
	})

	f := simfuzz.NewFuzzer(5)
	for range 200 {
		s, err := f.RandomAsciiStringWithMaximumLength(5)
		if err != nil {
			t.Fatal(err)
		}
		if len(s) < 1 || len(s) > 5 {
			t.Fatalf("length %d", len(s))
		}
	}
	if s := f.RandomAsciiString(); len(s) < 1 || len(s) > simfuzz.DefaultMaxStringLength {
		t.Errorf("RandomAsciiString length %d", len(s))
	}
	for _, n := range []int{0, -3} {
		if _, err := f.RandomAsciiStringWithMaximumLength(n); !errors.Is(err, simfuzz.ErrInvalidLength) {
			t.Errorf("max length %d: expected ErrInvalidLength, got %v", n, err)
		}
	}
}

func TestRandomIntegerInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := simfuzz.NewFuzzer(rapid.Uint64().Draw(t, "key"))
		a := rapid.Int32().Draw(t, "a")
		b := rapid.Int32().Draw(t, "b")
		lo, hi := min(a, b), max(a, b)

		v := f.RandomIntegerInRange(a, b)
		if v < lo || v > hi {
			t.Fatalf("%d outside [%d, %d]", v, lo, hi)
		}
		if a == b && v != a {
			t.Fatalf("degenerate range %d gave %d", a, v)
		}
	})

	f := simfuzz.NewFuzzer(11)
	seen := map[int32]bool{}
	for range 500 {
		seen[f.RandomIntegerInRange(3, -1)] = true
	}
	if len(seen) != 5 {
		t.Errorf("expected all of [-1, 3], got %v", seen)
	}
}

func TestSint8NotImplemented(t *testing.T) {
	f := simfuzz.NewFuzzer(1)
	if _, err := f.RandomSint8BoundaryValue(); !errors.Is(err, simfuzz.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
	if _, err := f.BoundaryValue(simfuzz.KindSint8, 1, 2, true); !errors.Is(err, simfuzz.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
	if simfuzz.KindSint8.Supported() {
		t.Error("KindSint8 reported as supported")
	}
}

func TestBoundaryValueDispatch(t *testing.T) {
	testcases := []struct {
		kind   simfuzz.BoundaryKind
		b1, b2 uint64
		valid  bool
		want   []uint64
		err    error
	}{
		{simfuzz.KindUint8, 0, 99, false, []uint64{100}, nil},
		{simfuzz.KindUint8, 0, 255, false, []uint64{255}, simfuzz.ErrNoValidBoundary},
		{simfuzz.KindUint8, 0, 256, false, nil, simfuzz.ErrBoundaryOutOfRange},
		{simfuzz.KindUint16, 1, 20, false, []uint64{0, 21}, nil},
		{simfuzz.KindUint32, 0xffffffff, 7, false, []uint64{6}, nil},
		{simfuzz.KindUint64, 10, 20, true, []uint64{10, 11, 19, 20}, nil},
		{simfuzz.BoundaryKind(17), 1, 2, true, nil, simfuzz.ErrNotImplemented},
	}

	f := simfuzz.NewFuzzer(3)
	for _, tc := range testcases {
		for range 20 {
			v, err := f.BoundaryValue(tc.kind, tc.b1, tc.b2, tc.valid)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Errorf("%s(%d, %d, %v): expected %v, got %v", tc.kind, tc.b1, tc.b2, tc.valid, tc.err, err)
				}
				if tc.want != nil && !in(v, tc.want...) {
					t.Errorf("%s(%d, %d, %v) = %d", tc.kind, tc.b1, tc.b2, tc.valid, v)
				}
				continue
			}
			if err != nil || !in(v, tc.want...) {
				t.Errorf("%s(%d, %d, %v) = %d, %v; want one of %v", tc.kind, tc.b1, tc.b2, tc.valid, v, err, tc.want)
			}
		}
	}
}

func TestBoundaryKind(t *testing.T) {
	for _, bits := range []int{8, 16, 32, 64} {
		k, err := simfuzz.UnsignedKind(bits)
		if err != nil {
			t.Fatal(err)
		}
		if k.Bits() != bits || !k.Supported() {
			t.Errorf("kind %s: bits %d supported %v", k, k.Bits(), k.Supported())
		}
	}
	if _, err := simfuzz.UnsignedKind(12); err == nil {
		t.Error("expected error for 12 bits")
	}
	if got := simfuzz.BoundaryKind(9).String(); got != "BoundaryKind(9)" {
		t.Errorf("got %q", got)
	}
}

func TestDeinitPanics(t *testing.T) {
	f := simfuzz.NewFuzzer(1)
	f.Deinit()
	f.Deinit()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic after Deinit")
		}
	}()
	f.RandomInteger()
}

func TestUnknownEngine(t *testing.T) {
	if _, err := simfuzz.NewFuzzerWithConfig(simfuzz.FuzzerConfig{Engine: "pcg"}); err == nil {
		t.Error("expected error for unknown engine")
	}
	if e, err := simfuzz.ParseEngine(""); err != nil || e != simfuzz.EngineWyrand {
		t.Errorf("ParseEngine(\"\") = %q, %v", e, err)
	}
}

func TestBoundaryLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	f, err := simfuzz.NewFuzzerWithConfig(simfuzz.FuzzerConfig{Key: 1, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	f.RandomUint8BoundaryValue(0, 255, false)

	out := buf.String()
	for _, want := range []string{`"msg":"boundary value"`, `"kind":"uint8"`, `"value":255`, `"err":`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %s", out, want)
		}
	}
}

func TestBoundaryLoggingContext(t *testing.T) {
	var buf bytes.Buffer
	logger := fuzzlog.New(&buf, slog.LevelDebug, fuzzlog.FormatRaw)
	ctx := fuzzlog.WithInvocation(context.Background(), fuzzlog.Invocation{
		Suite:     "suiteX",
		Test:      "testY",
		Iteration: 3,
		Key:       0xc4a23064f60b27a4,
	})

	f, err := simfuzz.NewFuzzerWithConfig(simfuzz.FuzzerConfig{Key: 1, Logger: logger, Context: ctx})
	if err != nil {
		t.Fatal(err)
	}
	f.RandomUint8BoundaryValue(10, 20, true)

	out := buf.String()
	for _, want := range []string{`"msg":"boundary value"`, `"suite":"suiteX"`, `"test":"testY"`, `"iteration":3`, `"key":"c4a23064f60b27a4"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %s", out, want)
		}
	}
}
