/*
Package simfuzz generates reproducible random values for fuzz-style tests.

A test harness derives an execution key for every test invocation from the
run seed, suite name, test name and iteration number (see [GenerateExecKey]).
The key seeds a [Fuzzer], and every value the fuzzer returns afterwards is a
pure function of that key and the sequence of calls made. Running the same
invocation again with the same key reproduces the same inputs.

# Boundary values

Most off-by-one and overflow bugs hide at the edges of a range. The
RandomUintNBoundaryValue methods return values at the edges of an inclusive
range [lo, hi]: with validDomain set, one of lo, lo+1, hi-1 and hi; without
it, lo-1 or hi+1. Values that would fall outside the integer type are never
returned. When no candidate exists, for example an invalid value for the range
[0, 255] of a uint8, the methods return [ErrNoValidBoundary] together with the
all-bits-set value of the type, which matches the error value of the SDL_test
fuzzer. Since all-bits-set is also a legitimate value, check the error.

	f := simfuzz.NewFuzzer(key)
	defer f.Deinit()
	v, err := f.RandomUint8BoundaryValue(10, 20, true) // 10, 11, 19 or 20

Signed boundary values are not implemented. [BoundaryKind] enumerates the
supported widths and [Fuzzer.BoundaryValue] returns [ErrNotImplemented] for
the others.

# Fuzzers and the package-level API

A [Fuzzer] owns its random engine and is not safe for concurrent use. Tests
running in parallel each need their own fuzzer; the harness package does this
for every invocation.

For code written against the SDL_test fuzzer API, the package-level
functions ([InitFuzzer], [DeinitFuzzer], [RandomInteger], ...) operate on one
process-wide fuzzer. They panic if called before [InitFuzzer] or after
[DeinitFuzzer].
*/
package simfuzz
