package harness

import (
	"fmt"
	"testing"

	"github.com/kmrgirish/simfuzz"
	"github.com/kmrgirish/simfuzz/execkey"
)

// DefaultRunSeed is the run seed Iterate uses when the config has none, so
// that plain 'go test' runs are repeatable.
const DefaultRunSeed = "simfuzz"

// Iterate runs fn as one subtest per iteration, each with a fuzzer keyed by
// the run seed, suite, t.Name() and the iteration. The key is logged with
// t.Logf so a failing iteration can be reproduced. Iterate honors
// cfg.RunSeed, Iterations, Engine, Hash and ExecKey.
func Iterate(t *testing.T, suite string, cfg Config, fn func(t *testing.T, f *simfuzz.Fuzzer)) {
	t.Helper()

	runSeed := cfg.RunSeed
	if runSeed == "" {
		runSeed = DefaultRunSeed
	}
	deriver := execkey.Deriver{Hash: cfg.Hash}
	name := t.Name()

	for i := range max(cfg.Iterations, 1) {
		var key execkey.Key
		if cfg.ExecKey != nil {
			key = *cfg.ExecKey
		} else {
			var err error
			if key, err = deriver.Derive(runSeed, suite, name, i); err != nil {
				t.Fatal(err)
			}
		}

		t.Run(fmt.Sprintf("iteration=%d", i), func(t *testing.T) {
			f, err := simfuzz.NewFuzzerWithConfig(simfuzz.FuzzerConfig{Key: key, Engine: cfg.Engine})
			if err != nil {
				t.Fatal(err)
			}
			defer f.Deinit()

			t.Logf("simfuzz: seed %q suite %q iteration %d key %s", runSeed, suite, i, key)
			fn(t, f)
		})
	}
}
