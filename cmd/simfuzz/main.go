package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path"
	"strconv"

	"github.com/kmrgirish/simfuzz"
	"github.com/kmrgirish/simfuzz/execkey"
	"github.com/kmrgirish/simfuzz/harness"
	"github.com/kmrgirish/simfuzz/internal/fuzzlog"
)

const doc = `Simfuzz generates reproducible fuzz inputs from the command line.

Usage: simfuzz <command> [arguments]

The commands are:

    key            derive an execution key
    boundary       generate boundary values
    int            generate integers in a range
    string         generate ASCII strings
    run            run the built-in self-check suite
    help           print this help

Run 'go doc github.com/kmrgirish/simfuzz/cmd/simfuzz' for the flags of each
command.
`

func commandName(cmd string) string {
	return fmt.Sprintf("%s %s", path.Base(os.Args[0]), cmd)
}

func newFuzzer(key, engine string) (*simfuzz.Fuzzer, error) {
	k, err := execkey.ParseKey(key)
	if err != nil {
		return nil, err
	}
	e, err := simfuzz.ParseEngine(engine)
	if err != nil {
		return nil, err
	}
	return simfuzz.NewFuzzerWithConfig(simfuzz.FuzzerConfig{Key: k, Engine: e})
}

// boundaryLines draws count boundary values and formats them one per line.
func boundaryLines(f *simfuzz.Fuzzer, width int, lo, hi uint64, valid bool, count int) ([]string, error) {
	kind, err := simfuzz.UnsignedKind(width)
	if err != nil {
		return nil, err
	}
	var lines []string
	for range count {
		v, err := f.BoundaryValue(kind, lo, hi, valid)
		switch {
		case errors.Is(err, simfuzz.ErrNoValidBoundary):
			lines = append(lines, "sentinel "+strconv.FormatUint(v, 10))
		case err != nil:
			return nil, err
		default:
			lines = append(lines, strconv.FormatUint(v, 10))
		}
	}
	return lines, nil
}

func intLines(f *simfuzz.Fuzzer, lo, hi int64, count int) ([]string, error) {
	for _, v := range []int64{lo, hi} {
		if int64(int32(v)) != v {
			return nil, fmt.Errorf("%d does not fit in 32 bits", v)
		}
	}
	var lines []string
	for range count {
		lines = append(lines, strconv.Itoa(int(f.RandomIntegerInRange(int32(lo), int32(hi)))))
	}
	return lines, nil
}

func stringLines(f *simfuzz.Fuzzer, maxLength int, count int) ([]string, error) {
	var lines []string
	for range count {
		s, err := f.RandomAsciiStringWithMaximumLength(maxLength)
		if err != nil {
			return nil, err
		}
		lines = append(lines, strconv.Quote(s))
	}
	return lines, nil
}

func printLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// runConfig applies the flags the user set on top of the environment config.
func runConfig(flags *flag.FlagSet, cfg harness.Config, logLevel, logFormat string) (harness.Config, error) {
	var err error
	flags.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		v := f.Value.String()
		switch f.Name {
		case "seed":
			cfg.RunSeed = v
		case "iterations":
			cfg.Iterations, err = strconv.Atoi(v)
		case "parallel":
			cfg.Parallelism, err = strconv.Atoi(v)
		case "run":
			cfg.Match = v
		case "engine":
			cfg.Engine, err = simfuzz.ParseEngine(v)
		case "hash":
			cfg.Hash, err = execkey.ParseHash(v)
		case "key":
			var key execkey.Key
			if key, err = execkey.ParseKey(v); err == nil {
				cfg.ExecKey = &key
			}
		}
	})
	if err != nil {
		return harness.Config{}, err
	}

	if logLevel != "" || logFormat != "" {
		level, err := fuzzlog.ParseLevel(logLevel)
		if err != nil {
			return harness.Config{}, err
		}
		format, err := fuzzlog.ParseFormat(logFormat)
		if err != nil {
			return harness.Config{}, err
		}
		cfg.Logger = fuzzlog.New(os.Stderr, level, format)
	}
	return cfg, nil
}

func main() {
	flag.Usage = func() {
		fmt.Print(doc)
	}
	flag.Parse()

	if len(flag.Args()) < 1 {
		flag.Usage()
		os.Exit(2)
	}
	cmd := flag.Args()[0]
	cmdArgs := flag.Args()[1:]

	switch cmd {
	case "key":
		keyflags := flag.NewFlagSet(commandName("key"), flag.ExitOnError)
		seed := keyflags.String("seed", "", "run seed")
		suite := keyflags.String("suite", "", "suite name")
		test := keyflags.String("test", "", "test name")
		iteration := keyflags.Int("iteration", 0, "iteration number")
		hash := keyflags.String("hash", "md5", "digest: md5|sha256|blake2b")
		keyflags.Parse(cmdArgs)

		h, err := execkey.ParseHash(*hash)
		if err != nil {
			log.Fatal(err)
		}
		key, err := execkey.Deriver{Hash: h}.Derive(*seed, *suite, *test, *iteration)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(key)

	case "boundary":
		boundaryflags := flag.NewFlagSet(commandName("boundary"), flag.ExitOnError)
		key := boundaryflags.String("key", "0", "execution key")
		engine := boundaryflags.String("engine", "", "random engine: wyrand|mwc")
		width := boundaryflags.Int("width", 8, "integer width: 8|16|32|64")
		lo := boundaryflags.Uint64("lo", 0, "first boundary")
		hi := boundaryflags.Uint64("hi", 0, "second boundary")
		invalid := boundaryflags.Bool("invalid", false, "generate values outside the range")
		count := boundaryflags.Int("count", 1, "number of values")
		boundaryflags.Parse(cmdArgs)

		f, err := newFuzzer(*key, *engine)
		if err != nil {
			log.Fatal(err)
		}
		lines, err := boundaryLines(f, *width, *lo, *hi, !*invalid, *count)
		if err != nil {
			log.Fatal(err)
		}
		printLines(os.Stdout, lines)

	case "int":
		intflags := flag.NewFlagSet(commandName("int"), flag.ExitOnError)
		key := intflags.String("key", "0", "execution key")
		engine := intflags.String("engine", "", "random engine: wyrand|mwc")
		lo := intflags.Int64("min", 0, "lower bound (inclusive)")
		hi := intflags.Int64("max", 0, "upper bound (inclusive)")
		count := intflags.Int("count", 1, "number of values")
		intflags.Parse(cmdArgs)

		f, err := newFuzzer(*key, *engine)
		if err != nil {
			log.Fatal(err)
		}
		lines, err := intLines(f, *lo, *hi, *count)
		if err != nil {
			log.Fatal(err)
		}
		printLines(os.Stdout, lines)

	case "string":
		stringflags := flag.NewFlagSet(commandName("string"), flag.ExitOnError)
		key := stringflags.String("key", "0", "execution key")
		engine := stringflags.String("engine", "", "random engine: wyrand|mwc")
		maxLength := stringflags.Int("max", simfuzz.DefaultMaxStringLength, "maximum length in bytes")
		count := stringflags.Int("count", 1, "number of strings")
		stringflags.Parse(cmdArgs)

		f, err := newFuzzer(*key, *engine)
		if err != nil {
			log.Fatal(err)
		}
		lines, err := stringLines(f, *maxLength, *count)
		if err != nil {
			log.Fatal(err)
		}
		printLines(os.Stdout, lines)

	case "run":
		runflags := flag.NewFlagSet(commandName("run"), flag.ExitOnError)
		runflags.String("seed", "", "run seed (random if empty)")
		runflags.Int("iterations", 1, "iterations per test")
		runflags.Int("parallel", 1, "invocations to run at once")
		runflags.String("run", "", "regular expression selecting suite/test names")
		runflags.String("engine", "", "random engine: wyrand|mwc")
		runflags.String("hash", "", "digest: md5|sha256|blake2b")
		runflags.String("key", "", "execution key to use for every invocation")
		logformat := runflags.String("logformat", "", "log formatting: raw|indented|pretty")
		loglevel := runflags.String("log-level", "", "minimum log level")
		runflags.Parse(cmdArgs)

		cfg, err := harness.ConfigFromEnv()
		if err != nil {
			log.Fatal(err)
		}
		if *loglevel != "" && *logformat == "" {
			*logformat = "pretty"
		}
		if *logformat != "" && *loglevel == "" {
			*loglevel = "INFO"
		}
		cfg, err = runConfig(runflags, cfg, *loglevel, *logformat)
		if err != nil {
			log.Fatal(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		report, err := harness.Run(ctx, cfg, selfCheckSuites()...)
		if err != nil {
			log.Fatal(err)
		}
		printReport(os.Stdout, report)
		if report.Failed() {
			stop()
			os.Exit(1)
		}

	case "help":
		flag.Usage()

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func printReport(w io.Writer, report *harness.Report) {
	failed := 0
	for _, res := range report.Results {
		if res.Failed {
			failed++
			fmt.Fprintf(w, "FAIL %s\n", res.Invocation)
			for _, msg := range res.Messages {
				fmt.Fprintf(w, "    %s\n", msg)
			}
			continue
		}
		fmt.Fprintf(w, "ok   %s\n", res.Invocation)
	}
	fmt.Fprintf(w, "seed %s: %d invocations, %d failed\n", report.RunSeed, len(report.Results), failed)
}
