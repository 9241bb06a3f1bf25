// MIT License
//
// # Copyright (c) 2017 Olivier Poitrey
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// Based on https://github.com/rs/zerolog/blob/master/console.go.

// Package prettylog renders JSON slog records as compact console lines.
package prettylog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	colorRed = iota + 31
	colorGreen
	colorYellow
	_
	colorMagenta
	colorCyan

	colorBold     = 1
	colorDarkGray = 90
)

// Keys of the invocation attributes attached by the harness. They are
// rendered together as suite/test#iteration.
const (
	SuiteKey     = "suite"
	TestKey      = "test"
	IterationKey = "iteration"
)

const errorKey = "err"

// A Writer reformats each JSON line written to it and writes the result to
// the underlying writer. Lines that are not JSON are passed through.
type Writer struct {
	out       io.Writer
	formatter formatter
}

// NewWriter returns a Writer on out. Colors are used when stdout is a
// terminal, unless NO_COLOR is set or TERM is dumb; FORCE_COLOR overrides.
func NewWriter(out io.Writer) *Writer {
	noColor := (os.Getenv("NO_COLOR") != "") || os.Getenv("TERM") == "dumb" ||
		(!isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()))
	noColor = noColor && os.Getenv("FORCE_COLOR") == ""
	return newWriter(out, noColor)
}

func newWriter(out io.Writer, noColor bool) *Writer {
	return &Writer{
		out:       out,
		formatter: formatter{noColor: noColor},
	}
}

var writePool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 1024))
	},
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	var evt map[string]any
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	if err := d.Decode(&evt); err != nil {
		if _, werr := w.out.Write(p); werr != nil {
			return 0, werr
		}
		return len(p), nil
	}

	buf := writePool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		writePool.Put(buf)
	}()

	w.writePart(buf, w.formatter.timestamp(evt[slog.TimeKey]))
	w.writePart(buf, w.formatter.level(evt[slog.LevelKey]))
	w.writePart(buf, invocation(evt))
	w.writePart(buf, w.formatter.caller(evt[slog.SourceKey]))
	w.writePart(buf, w.formatter.message(evt[slog.LevelKey], evt[slog.MessageKey]))
	w.writeFields(buf, evt)
	buf.WriteByte('\n')

	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *Writer) writePart(buf *bytes.Buffer, s string) {
	if s == "" {
		return
	}
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}
	buf.WriteString(s)
}

func invocation(evt map[string]any) string {
	suite, ok := evt[SuiteKey]
	if !ok {
		return ""
	}
	s := fmt.Sprintf("%v/%v", suite, evt[TestKey])
	if it, ok := evt[IterationKey]; ok {
		s += fmt.Sprintf("#%v", it)
	}
	return s
}

func isFixedKey(key string) bool {
	switch key {
	case slog.TimeKey, slog.LevelKey, slog.SourceKey, slog.MessageKey, SuiteKey, TestKey, IterationKey:
		return true
	}
	return false
}

// writeFields appends the remaining attributes sorted by key, with err first.
func (w *Writer) writeFields(buf *bytes.Buffer, evt map[string]any) {
	fields := make([]string, 0, len(evt))
	for field := range evt {
		if !isFixedKey(field) {
			fields = append(fields, field)
		}
	}
	slices.SortFunc(fields, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == errorKey:
			return -1
		case b == errorKey:
			return 1
		}
		return strings.Compare(a, b)
	})

	for _, field := range fields {
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(w.formatter.fieldName(field))

		switch value := evt[field].(type) {
		case string:
			if needsQuote(value) {
				value = strconv.Quote(value)
			}
			buf.WriteString(w.formatter.fieldValue(field, value))
		case json.Number:
			buf.WriteString(w.formatter.fieldValue(field, value.String()))
		default:
			b, err := json.Marshal(value)
			if err != nil {
				fmt.Fprintf(buf, w.formatter.colorize("[error: %v]", colorRed), err)
				continue
			}
			buf.WriteString(w.formatter.fieldValue(field, string(b)))
		}
	}
}

// needsQuote reports whether s must be quoted to stay on one unambiguous
// field.
func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	for i := range s {
		if s[i] < 0x20 || s[i] > 0x7e || s[i] == ' ' || s[i] == '\\' || s[i] == '"' {
			return true
		}
	}
	return false
}

type formatter struct {
	noColor bool
}

// colorize wraps s in the given ANSI codes unless colors are disabled.
func (f *formatter) colorize(s string, c ...int) string {
	if f.noColor {
		return s
	}
	for _, c := range c {
		s = fmt.Sprintf("\x1b[%dm%s\x1b[0m", c, s)
	}
	return s
}

const timeFormat = "15:04:05.000"

func (f *formatter) timestamp(i any) string {
	s, ok := i.(string)
	if !ok {
		return ""
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		s = ts.UTC().Format(timeFormat)
	}
	return f.colorize(s, colorDarkGray)
}

var levelColors = map[slog.Level]int{
	slog.LevelDebug: colorMagenta,
	slog.LevelInfo:  colorGreen,
	slog.LevelWarn:  colorYellow,
	slog.LevelError: colorRed,
}

var formattedLevels = map[slog.Level]string{
	slog.LevelDebug: "DBG",
	slog.LevelInfo:  "INF",
	slog.LevelWarn:  "WRN",
	slog.LevelError: "ERR",
}

func (f *formatter) level(i any) string {
	s, ok := i.(string)
	if !ok {
		return "???"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err == nil {
		if fl, ok := formattedLevels[level]; ok {
			return f.colorize(fl, levelColors[level])
		}
	}
	if len(s) > 3 {
		s = s[:3]
	}
	return strings.ToUpper(s)
}

func (f *formatter) caller(i any) string {
	m, ok := i.(map[string]any)
	if !ok {
		return ""
	}
	file, _ := m["file"].(string)
	if file == "" {
		return ""
	}
	line, _ := m["line"].(json.Number)
	c := fmt.Sprintf("%s/%s:%s", path.Base(path.Dir(file)), path.Base(file), line)
	return f.colorize(c, colorDarkGray) + f.colorize(" >", colorCyan)
}

func (f *formatter) message(level, i any) string {
	s, _ := i.(string)
	if s == "" {
		return ""
	}
	if level == slog.LevelWarn.String() || level == slog.LevelError.String() {
		return f.colorize(s, colorBold)
	}
	return s
}

func (f *formatter) fieldName(name string) string {
	return f.colorize(name+"=", colorCyan)
}

func (f *formatter) fieldValue(field, s string) string {
	if field == errorKey {
		return f.colorize(s, colorBold, colorRed)
	}
	return s
}
