package cli

import (
	"context"
	"io"
	"os"

	"github.com/matzehuels/mdview/pkg/config"
	"github.com/matzehuels/mdview/pkg/errors"
	"github.com/matzehuels/mdview/pkg/viewer"
)

// readDocument reads a markdown file named on the command line.
func readDocument(path string) ([]byte, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s does not exist", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return data, nil
}

// loadDocument reads path and loads it into a fresh viewer sized to the
// configured server container. The returned closer releases the renderer.
func (c *CLI) loadDocument(ctx context.Context, cfg *config.Config, path string, opts renderOptions) (*viewer.Viewer, io.Closer, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, nil, err
	}
	r, err := c.newRenderer(ctx, cfg, opts)
	if err != nil {
		return nil, nil, err
	}
	v := viewer.New(r, c.Logger, viewerOptions(cfg))
	v.SetContainer(float64(cfg.Server.Width), float64(cfg.Server.Height))

	spinner := newSpinnerWithContext(ctx, "Rendering "+path)
	spinner.Start()
	err = v.Load(ctx, path, doc)
	spinner.Stop()
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	return v, r, nil
}

// openOutput opens path for writing, or stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
