// Package mermaidcli renders diagrams by running the Mermaid CLI (mmdc).
//
// mmdc is a Node.js tool that drives a headless browser, so every Mermaid
// diagram type is supported at the cost of a process launch per render.
// Wrap the renderer with [render.Cached] to avoid repeated launches.
//
//	r := mermaidcli.New("mmdc")
//	svg, err := r.Render(ctx, src)
package mermaidcli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/mdview/pkg/errors"
)

// Name identifies this renderer in cache keys and logs.
const Name = "mermaid-cli"

// DefaultPath is the binary looked up on PATH when none is configured.
const DefaultPath = "mmdc"

// Renderer invokes mmdc with temporary input and output files.
type Renderer struct {
	Path    string        // binary name or path
	Theme   string        // mermaid theme passed as -t, empty for mmdc's default
	Timeout time.Duration // per render, zero for none
	Args    []string      // extra arguments
}

// New returns a renderer for the given binary.
func New(path string) *Renderer {
	if path == "" {
		path = DefaultPath
	}
	return &Renderer{Path: path}
}

// Name returns "mermaid-cli".
func (r *Renderer) Name() string { return Name }

// Render writes src to a temp file, runs mmdc on it and returns the SVG.
// Mermaid parse failures become errors.ErrCodeSyntax errors carrying mmdc's
// "Parse error on line N" message.
func (r *Renderer) Render(ctx context.Context, src string) ([]byte, error) {
	bin, err := exec.LookPath(r.Path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnsupported, err,
			"%s not found (install with: npm install -g @mermaid-js/mermaid-cli)", r.Path)
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "mdview-mmdc-*")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create temp dir")
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "diagram.mmd")
	out := filepath.Join(dir, "diagram.svg")
	if err := os.WriteFile(in, []byte(src), 0o600); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write diagram")
	}

	args := []string{"-i", in, "-o", out, "-b", "transparent", "-q"}
	if r.Theme != "" {
		args = append(args, "-t", r.Theme)
	}
	args = append(args, r.Args...)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second // mmdc's browser children may hold stderr open
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "mmdc cancelled")
		}
		return nil, classify(err, stderr.String())
	}

	svg, err := os.ReadFile(out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "read mmdc output")
	}
	return svg, nil
}

// classify turns mmdc's stderr into a coded error.
func classify(err error, stderr string) error {
	if msg := parseErrorMessage(stderr); msg != "" {
		return errors.New(errors.ErrCodeSyntax, "%s", msg)
	}
	return errors.Wrap(errors.ErrCodeRenderFailed,
		fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr)), "mmdc")
}

// parseErrorMessage extracts the "Parse error on line N: ..." block mmdc
// prints, up to the first blank line or stack frame.
func parseErrorMessage(stderr string) string {
	i := strings.Index(stderr, "Parse error on line")
	if i < 0 {
		return ""
	}
	var lines []string
	for _, l := range strings.Split(stderr[i:], "\n") {
		l = strings.TrimRight(l, "\r ")
		if l == "" || strings.HasPrefix(strings.TrimSpace(l), "at ") {
			break
		}
		lines = append(lines, l)
	}
	return strings.Join(lines, "\n")
}
