package mermaidcli

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/mdview/pkg/errors"
)

// fakeMMDC writes a shell script that behaves like mmdc: it copies a canned
// SVG to the -o path, or fails with a parse error when the input contains
// FAIL, or hangs when it contains SLEEP.
func fakeMMDC(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake")
	}
	script := `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    -i) in="$2"; shift ;;
    -o) out="$2"; shift ;;
  esac
  shift
done
if grep -q SLEEP "$in"; then exec sleep 5; fi
if grep -q FAIL "$in"; then
  echo "Error: Parse error on line 2:" >&2
  echo "...A -->" >&2
  echo "-------^" >&2
  echo "" >&2
  echo "    at Parser.parseError (mermaid.js:1:1)" >&2
  exit 1
fi
if grep -q CRASH "$in"; then echo "browser crashed" >&2; exit 3; fi
printf '<svg xmlns="http://www.w3.org/2000/svg"><g class="node" id="flowchart-A-0"></g></svg>' > "$out"
`
	path := filepath.Join(t.TempDir(), "mmdc")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRender(t *testing.T) {
	r := New(fakeMMDC(t))
	svg, err := r.Render(context.Background(), "graph TD\nA")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(svg), `id="flowchart-A-0"`) {
		t.Errorf("unexpected output %s", svg)
	}
}

func TestRenderParseError(t *testing.T) {
	r := New(fakeMMDC(t))
	_, err := r.Render(context.Background(), "graph TD\nFAIL -->")
	if !errors.Is(err, errors.ErrCodeSyntax) {
		t.Fatalf("err = %v, want %s", err, errors.ErrCodeSyntax)
	}
	want := "Parse error on line 2:\n...A -->\n-------^"
	if got := errors.UserMessage(err); got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestRenderCrash(t *testing.T) {
	r := New(fakeMMDC(t))
	_, err := r.Render(context.Background(), "CRASH")
	if !errors.Is(err, errors.ErrCodeRenderFailed) {
		t.Fatalf("err = %v, want %s", err, errors.ErrCodeRenderFailed)
	}
	if !strings.Contains(err.Error(), "browser crashed") {
		t.Errorf("stderr missing from %q", err)
	}
}

func TestRenderTimeout(t *testing.T) {
	r := New(fakeMMDC(t))
	r.Timeout = 50 * time.Millisecond
	_, err := r.Render(context.Background(), "SLEEP")
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeTimeout)
	}
}

func TestRenderMissingBinary(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "no-such-mmdc"))
	_, err := r.Render(context.Background(), "graph TD\nA")
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeUnsupported)
	}
}

func TestParseErrorMessage(t *testing.T) {
	tests := []struct {
		stderr string
		want   string
	}{
		{"", ""},
		{"something else broke", ""},
		{"Error: Parse error on line 3:\nA --\n---^\nExpecting 'SPACE'\n\nat x", "Parse error on line 3:\nA --\n---^\nExpecting 'SPACE'"},
		{"Parse error on line 1:\r\ngraph XY\r\n    at parse (x.js)", "Parse error on line 1:\ngraph XY"},
	}
	for _, tt := range tests {
		if got := parseErrorMessage(tt.stderr); got != tt.want {
			t.Errorf("parseErrorMessage(%q) = %q, want %q", tt.stderr, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	if r := New(""); r.Path != DefaultPath || r.Name() != "mermaid-cli" {
		t.Errorf("New(\"\") = %+v", r)
	}
}
