/*
Package execkey derives reproducible execution keys for fuzz test invocations.

An execution key is a 64-bit value computed from the identifiers of a single
test invocation: the run seed of the harness, the suite name, the test name,
and the iteration number. The same identifiers always produce the same key, on
any platform, so a key logged by one run can be used to reproduce the values
generated for that invocation.
*/
package execkey

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// A Key is the seed for the random engine of one test invocation.
type Key uint64

// String formats the key as 16 hexadecimal digits.
func (k Key) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

// ParseKey parses a key as printed by Key.String (optionally prefixed with
// 0x) or as a decimal number. Inputs of exactly 16 hex digits are always
// read as hex.
func ParseKey(s string) (Key, error) {
	if s == "" {
		return 0, errors.New("execkey: empty key")
	}
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		n, err := strconv.ParseUint(rest, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("execkey: bad hex key %q: %w", s, err)
		}
		return Key(n), nil
	}
	if len(s) == 16 {
		if n, err := strconv.ParseUint(s, 16, 64); err == nil {
			return Key(n), nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("execkey: bad key %q: %w", s, err)
	}
	return Key(n), nil
}

//go:generate go run golang.org/x/tools/cmd/stringer -type=Hash -linecomment

// Hash selects the digest used to compress identifiers into a key.
type Hash byte

const (
	HashMD5     Hash = iota // md5
	HashSHA256              // sha256
	HashBLAKE2b             // blake2b
)

// ParseHash parses the name of a hash as printed by Hash.String.
func ParseHash(s string) (Hash, error) {
	for h := HashMD5; h <= HashBLAKE2b; h++ {
		if h.String() == s {
			return h, nil
		}
	}
	return 0, fmt.Errorf("execkey: unknown hash %q", s)
}

func (h Hash) new() (hash.Hash, error) {
	switch h {
	case HashMD5:
		return md5.New(), nil
	case HashSHA256:
		return sha256.New(), nil
	case HashBLAKE2b:
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("execkey: unknown hash %d", h)
	}
}

// ErrNegativeIteration is returned for iteration numbers below zero.
var ErrNegativeIteration = errors.New("execkey: negative iteration")

// A Deriver computes execution keys with a configurable hash. The zero value
// uses MD5, which matches keys produced by SDL's test harness.
type Deriver struct {
	Hash Hash
}

// Derive computes the key for one invocation. The identifiers are
// concatenated without separators, with the iteration in decimal, and the
// key is the first 8 bytes of the digest read as a little-endian integer.
func (d Deriver) Derive(runSeed, suiteName, testName string, iteration int) (Key, error) {
	if iteration < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeIteration, iteration)
	}

	h, err := d.Hash.new()
	if err != nil {
		return 0, err
	}

	buf := make([]byte, 0, len(runSeed)+len(suiteName)+len(testName)+20)
	buf = append(buf, runSeed...)
	buf = append(buf, suiteName...)
	buf = append(buf, testName...)
	buf = strconv.AppendInt(buf, int64(iteration), 10)

	if _, err := h.Write(buf); err != nil {
		return 0, fmt.Errorf("execkey: hashing identifiers: %w", err)
	}
	sum := h.Sum(nil)
	return Key(binary.LittleEndian.Uint64(sum[:8])), nil
}

// GenerateExecKey derives the execution key for one test invocation using
// the default hash.
func GenerateExecKey(runSeed, suiteName, testName string, iteration int) (uint64, error) {
	key, err := Deriver{}.Derive(runSeed, suiteName, testName, iteration)
	if err != nil {
		return 0, err
	}
	return uint64(key), nil
}
