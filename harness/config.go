package harness

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/kmrgirish/simfuzz"
	"github.com/kmrgirish/simfuzz/execkey"
	"github.com/kmrgirish/simfuzz/internal/fuzzlog"
)

// A Config configures a harness run.
type Config struct {
	// RunSeed is the seed all execution keys of the run derive from. Run
	// generates and logs one when empty.
	RunSeed string
	// Iterations is the number of times each test runs, each with its own
	// key. Values below 1 mean 1.
	Iterations int
	// Parallelism bounds the number of invocations running at once. Values
	// below 1 mean 1.
	Parallelism int
	// Match, if set, is a regular expression selecting tests by their
	// "suite/test" name.
	Match string

	Engine simfuzz.Engine
	Hash   execkey.Hash

	// ExecKey, if set, is used for every invocation instead of a derived key.
	// Combined with Match and Iterations=1 it reproduces a single invocation
	// from a logged key.
	ExecKey *execkey.Key

	// Logger receives harness records. Nil discards them.
	Logger *slog.Logger
}

type envConfig struct {
	RunSeed     string `env:"SIMFUZZ_RUN_SEED"`
	Iterations  int    `env:"SIMFUZZ_ITERATIONS" envDefault:"1"`
	Parallelism int    `env:"SIMFUZZ_PARALLEL"   envDefault:"1"`
	Match       string `env:"SIMFUZZ_MATCH"`
	Engine      string `env:"SIMFUZZ_ENGINE"`
	Hash        string `env:"SIMFUZZ_HASH"       envDefault:"md5"`
	ExecKey     string `env:"SIMFUZZ_EXEC_KEY"`
	LogLevel    string `env:"SIMFUZZ_LOG_LEVEL"  envDefault:"INFO"`
	LogFormat   string `env:"SIMFUZZ_LOG_FORMAT" envDefault:"pretty"`
}

// ConfigFromEnv reads a Config from SIMFUZZ_* environment variables. The
// logger writes to stderr.
func ConfigFromEnv() (Config, error) {
	return configFromEnv(nil)
}

func configFromEnv(environ map[string]string) (Config, error) {
	var ec envConfig
	if err := env.ParseWithOptions(&ec, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		RunSeed:     ec.RunSeed,
		Iterations:  ec.Iterations,
		Parallelism: ec.Parallelism,
		Match:       ec.Match,
	}

	var err error
	if cfg.Engine, err = simfuzz.ParseEngine(ec.Engine); err != nil {
		return Config{}, err
	}
	if cfg.Hash, err = execkey.ParseHash(ec.Hash); err != nil {
		return Config{}, err
	}
	if ec.ExecKey != "" {
		key, err := execkey.ParseKey(ec.ExecKey)
		if err != nil {
			return Config{}, err
		}
		cfg.ExecKey = &key
	}

	level, err := fuzzlog.ParseLevel(ec.LogLevel)
	if err != nil {
		return Config{}, err
	}
	format, err := fuzzlog.ParseFormat(ec.LogFormat)
	if err != nil {
		return Config{}, err
	}
	cfg.Logger = fuzzlog.New(os.Stderr, level, format)

	return cfg, nil
}

// NewRunSeed returns a fresh random run seed.
func NewRunSeed() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("read random seed: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
