package prettylog

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func format(input string) string {
	var buffer bytes.Buffer
	writer := newWriter(&buffer, true)
	for _, line := range bytes.SplitAfter([]byte(input), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		writer.Write(line)
	}
	return buffer.String()
}

func TestPrettyLog(t *testing.T) {
	testcases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "invocation",
			input: `{"time":"2024-01-02T03:04:05.678Z","level":"INFO","source":{"function":"x","file":"/a/b/harness/harness.go","line":42},"msg":"invocation passed","suite":"s","test":"t","iteration":3,"key":"00000000000000ff"}` + "\n",
			want:  "03:04:05.678 INF s/t#3 harness/harness.go:42 > invocation passed key=00000000000000ff\n",
		},
		{
			name:  "error first",
			input: `{"time":"2024-01-02T03:04:05Z","level":"ERROR","msg":"invocation failed","b":true,"err":"boom now","a":[1,2]}` + "\n",
			want:  "03:04:05.000 ERR invocation failed err=\"boom now\" a=[1,2] b=true\n",
		},
		{
			name:  "debug level and custom level",
			input: `{"level":"DEBUG","msg":"boundary value","value":255}` + "\n" + `{"level":"custom","msg":"x"}` + "\n",
			want:  "DBG boundary value value=255\nCUS x\n",
		},
		{
			name:  "not json",
			input: "plain text line\n",
			want:  "plain text line\n",
		},
		{
			name:  "empty string quoted",
			input: `{"level":"WARN","msg":"m","s":""}` + "\n",
			want:  "WRN m s=\"\"\n",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, format(tc.input)); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestColorize(t *testing.T) {
	f := formatter{}
	if got, want := f.colorize("x", colorBold, colorRed), "\x1b[31m\x1b[1mx\x1b[0m\x1b[0m"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	f.noColor = true
	if got := f.colorize("x", colorRed); got != "x" {
		t.Errorf("got %q", got)
	}
}
