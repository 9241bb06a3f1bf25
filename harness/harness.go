/*
Package harness runs fuzz tests with reproducible inputs.

A run executes every test of every suite for a number of iterations. Each
execution, an invocation, gets its own execution key derived from the run
seed, the suite and test names and the iteration number, and its own
[simfuzz.Fuzzer] seeded with that key. Invocations can run in parallel since
they share no engine state.

Failures report the key of the invocation. Running the same suites again with
the same run seed, or with [Config.ExecKey] set to the reported key, generates
the same values.
*/
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kmrgirish/simfuzz"
	"github.com/kmrgirish/simfuzz/execkey"
	"github.com/kmrgirish/simfuzz/internal/fuzzlog"
)

// A Test is a named test function.
type Test struct {
	Name string
	Func func(t *T)
}

// A Suite is a named group of tests.
type Suite struct {
	Name  string
	Tests []Test
}

// An Invocation identifies one execution of a test.
type Invocation struct {
	Suite     string
	Test      string
	Iteration int
	Key       execkey.Key
}

func (inv Invocation) String() string {
	return fmt.Sprintf("%s/%s#%d (key %s)", inv.Suite, inv.Test, inv.Iteration, inv.Key)
}

// A Result is the outcome of one invocation.
type Result struct {
	Invocation
	Failed   bool
	Messages []string
	Duration time.Duration
}

// A Report collects the results of a run in invocation order.
type Report struct {
	RunSeed string
	Results []Result
}

// Failed reports whether any invocation failed.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Failed {
			return true
		}
	}
	return false
}

// Err combines the failures of the run into one error, or returns nil.
func (r *Report) Err() error {
	var err error
	for _, res := range r.Results {
		if res.Failed {
			err = multierr.Append(err, fmt.Errorf("%s: %s", res.Invocation, strings.Join(res.Messages, "; ")))
		}
	}
	return err
}

type failNow struct{}

// A T is passed to a test function for one invocation. A T must not be used
// after its test function returns.
type T struct {
	ctx    context.Context
	inv    Invocation
	fuzzer *simfuzz.Fuzzer
	logger *slog.Logger
	zap    *zap.Logger

	failed   bool
	messages []string
}

// Fuzzer returns the invocation's fuzzer.
func (t *T) Fuzzer() *simfuzz.Fuzzer {
	return t.fuzzer
}

// Invocation identifies the running invocation.
func (t *T) Invocation() Invocation {
	return t.inv
}

// Context returns a context carrying the invocation for log records.
func (t *T) Context() context.Context {
	return t.ctx
}

// Log writes an info record tagged with the invocation.
func (t *T) Log(msg string, args ...any) {
	t.logger.InfoContext(t.ctx, msg, args...)
}

// Zap returns a zap logger that writes to the harness logger.
func (t *T) Zap() *zap.Logger {
	if t.zap == nil {
		lg, err := fuzzlog.Zap(t.logger)
		if err != nil {
			t.Fatalf("%v", err)
		}
		t.zap = lg.With(zap.String("suite", t.inv.Suite), zap.String("test", t.inv.Test), zap.Int("iteration", t.inv.Iteration))
	}
	return t.zap
}

// Errorf marks the invocation failed and records a message.
func (t *T) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.failed = true
	t.messages = append(t.messages, msg)
	t.logger.ErrorContext(t.ctx, "test error", "err", msg)
}

// Fatalf is Errorf followed by stopping the test function.
func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
	panic(failNow{})
}

// Failed reports whether the invocation has failed.
func (t *T) Failed() bool {
	return t.failed
}

func (t *T) run(fn func(t *T)) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(failNow); ok {
				return
			}
			t.failed = true
			t.messages = append(t.messages, fmt.Sprintf("panic: %v", r))
			t.logger.ErrorContext(t.ctx, "test panicked", "err", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	fn(t)
}

type job struct {
	inv Invocation
	fn  func(t *T)
}

// Run executes the suites as configured. Test failures are reported in the
// Report; the error is non-nil only for bad configuration or when ctx is
// done before all invocations started. In the latter case the Report holds
// the results of the invocations that did run.
func Run(ctx context.Context, cfg Config, suites ...Suite) (*Report, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	runSeed := cfg.RunSeed
	if runSeed == "" {
		var err error
		if runSeed, err = NewRunSeed(); err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "generated run seed", "seed", runSeed)
	}

	var match *regexp.Regexp
	if cfg.Match != "" {
		var err error
		if match, err = regexp.Compile(cfg.Match); err != nil {
			return nil, fmt.Errorf("bad match expression: %w", err)
		}
	}

	if _, err := simfuzz.ParseEngine(string(cfg.Engine)); err != nil {
		return nil, err
	}

	iterations := max(cfg.Iterations, 1)
	deriver := execkey.Deriver{Hash: cfg.Hash}

	var jobs []job
	for _, suite := range suites {
		for _, test := range suite.Tests {
			if match != nil && !match.MatchString(suite.Name+"/"+test.Name) {
				continue
			}
			for i := range iterations {
				inv := Invocation{Suite: suite.Name, Test: test.Name, Iteration: i}
				if cfg.ExecKey != nil {
					inv.Key = *cfg.ExecKey
				} else {
					key, err := deriver.Derive(runSeed, suite.Name, test.Name, i)
					if err != nil {
						return nil, fmt.Errorf("deriving key for %s/%s: %w", suite.Name, test.Name, err)
					}
					inv.Key = key
				}
				jobs = append(jobs, job{inv: inv, fn: test.Func})
			}
		}
	}

	report := &Report{
		RunSeed: runSeed,
		Results: make([]Result, len(jobs)),
	}

	ran := make([]bool, len(jobs))
	var g errgroup.Group
	g.SetLimit(max(cfg.Parallelism, 1))
	for idx, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res, err := runInvocation(ctx, cfg.Engine, logger, j)
			if err != nil {
				return err
			}
			report.Results[idx] = res
			ran[idx] = true
			return nil
		})
	}
	waitErr := g.Wait()

	// Drop invocations that never started.
	results := report.Results[:0]
	for idx, res := range report.Results {
		if ran[idx] {
			results = append(results, res)
		}
	}
	report.Results = results

	if waitErr != nil {
		return report, waitErr
	}
	if len(results) < len(jobs) {
		return report, ctx.Err()
	}

	logger.InfoContext(ctx, "run finished", "seed", runSeed, "invocations", len(jobs), "failed", report.Failed())
	return report, nil
}

func runInvocation(ctx context.Context, engine simfuzz.Engine, logger *slog.Logger, j job) (Result, error) {
	ctx = fuzzlog.WithInvocation(ctx, fuzzlog.Invocation{
		Suite:     j.inv.Suite,
		Test:      j.inv.Test,
		Iteration: j.inv.Iteration,
		Key:       j.inv.Key,
	})

	fuzzer, err := simfuzz.NewFuzzerWithConfig(simfuzz.FuzzerConfig{
		Key:     j.inv.Key,
		Engine:  engine,
		Logger:  logger,
		Context: ctx,
	})
	if err != nil {
		return Result{}, err
	}
	defer fuzzer.Deinit()

	t := &T{
		ctx:    ctx,
		inv:    j.inv,
		fuzzer: fuzzer,
		logger: logger,
	}

	start := time.Now()
	if j.fn == nil {
		t.Errorf("test has no function")
	} else {
		t.run(j.fn)
	}
	duration := time.Since(start)

	if t.failed {
		logger.ErrorContext(ctx, "invocation failed", "err", errors.New(strings.Join(t.messages, "; ")), "duration", duration)
	} else {
		logger.InfoContext(ctx, "invocation passed", "duration", duration)
	}

	return Result{
		Invocation: j.inv,
		Failed:     t.failed,
		Messages:   t.messages,
		Duration:   duration,
	}, nil
}
