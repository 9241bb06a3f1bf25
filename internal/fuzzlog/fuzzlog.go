// Package fuzzlog sets up the structured loggers used by the harness and the
// simfuzz command.
package fuzzlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	zapslog "github.com/tommoulard/zap-slog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kmrgirish/simfuzz/execkey"
	"github.com/kmrgirish/simfuzz/internal/prettylog"
)

// Format selects how log records are rendered on the console.
type Format string

const (
	FormatRaw      Format = "raw"
	FormatIndented Format = "indented"
	FormatPretty   Format = "pretty"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if f != FormatRaw && f != FormatIndented && f != FormatPretty {
		return "", fmt.Errorf("bad log format %q", s)
	}
	return f, nil
}

// ParseLevel parses a level name such as "INFO" or "debug-2".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("bad log level %q: %w", s, err)
	}
	return level, nil
}

// An Invocation identifies one test invocation in log records.
type Invocation struct {
	Suite     string
	Test      string
	Iteration int
	Key       execkey.Key
}

type invocationKey struct{}

// WithInvocation returns a context whose log records carry inv.
func WithInvocation(ctx context.Context, inv Invocation) context.Context {
	return context.WithValue(ctx, invocationKey{}, inv)
}

// InvocationFrom returns the invocation stored by WithInvocation.
func InvocationFrom(ctx context.Context) (Invocation, bool) {
	inv, ok := ctx.Value(invocationKey{}).(Invocation)
	return inv, ok
}

// New returns a JSON logger writing records of at least level to out in the
// given format.
func New(out io.Writer, level slog.Level, format Format) *slog.Logger {
	ho := slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(consoleWriter(out, format), &ho)
	return slog.New(wrapHandler{inner: handler})
}

// wrapHandler adds the invocation attributes from the record's context.
type wrapHandler struct {
	inner slog.Handler
}

func (w wrapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return w.inner.Enabled(ctx, level)
}

func (w wrapHandler) Handle(ctx context.Context, r slog.Record) error {
	if inv, ok := InvocationFrom(ctx); ok {
		r.AddAttrs(
			slog.String(prettylog.SuiteKey, inv.Suite),
			slog.String(prettylog.TestKey, inv.Test),
			slog.Int(prettylog.IterationKey, inv.Iteration),
			slog.String("key", inv.Key.String()),
		)
	}
	return w.inner.Handle(ctx, r)
}

func (w wrapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return wrapHandler{
		inner: w.inner.WithAttrs(attrs),
	}
}

func (w wrapHandler) WithGroup(name string) slog.Handler {
	return wrapHandler{
		inner: w.inner.WithGroup(name),
	}
}

type indentedWriter struct {
	out io.Writer
}

func (w *indentedWriter) Write(p []byte) (n int, err error) {
	if len(p) > 0 && p[len(p)-1] == '\n' {
		var x any
		if err := json.Unmarshal(p, &x); err == nil {
			o := json.NewEncoder(w.out)
			o.SetIndent("", "  ")
			if err := o.Encode(x); err != nil {
				return 0, err
			}
			return len(p), nil
		}
	}
	return w.out.Write(p)
}

func consoleWriter(out io.Writer, format Format) io.Writer {
	switch format {
	case FormatRaw:
		return out
	case FormatIndented:
		return &indentedWriter{out: out}
	case FormatPretty, "":
		return prettylog.NewWriter(out)
	default:
		panic(format)
	}
}

// Zap returns a zap logger whose entries are written to logger, for code
// under test that logs through zap.
func Zap(logger *slog.Logger) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.Sampling = nil
	cfg.OutputPaths = nil
	cfg.ErrorOutputPaths = nil
	lg, err := cfg.Build(zapslog.WrapCore(logger))
	if err != nil {
		return nil, fmt.Errorf("building zap logger: %w", err)
	}
	return lg, nil
}
