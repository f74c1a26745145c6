package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mdview/pkg/errors"
	"github.com/matzehuels/mdview/pkg/render"
)

const (
	formatSVG = "svg"
	formatPNG = "png"
	formatPDF = "pdf"

	defaultPNGScale = 2.0
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	renderOptions
	output  string   // output file (single format) or base path (multiple)
	formats []string // output formats: "svg", "png", "pdf"
	node    string   // bare id of a node to highlight
	scale   float64  // PNG scale factor
}

// renderCommand creates the render command, which exports the diagram of a
// markdown document to files.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: defaultPNGScale}

	cmd := &cobra.Command{
		Use:               "render [file.md]",
		Short:             "Render the diagram of a Markdown document to SVG, PNG or PDF",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocument,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf (comma-separated)")
	cmd.Flags().StringVar(&opts.node, "select", "", "highlight the node with this id and its neighbours")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	addRenderFlags(cmd, &opts.renderOptions)

	return cmd
}

// parseFormats splits the --format flag, lower-cases each entry and drops
// blanks and repeats. An empty flag means SVG.
func parseFormats(s string) []string {
	var formats []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		return []string{formatSVG}
	}
	return formats
}

var exportFormats = []string{formatSVG, formatPNG, formatPDF}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !slices.Contains(exportFormats, f) {
			return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (choose from %s)", f, strings.Join(exportFormats, ", "))
		}
	}
	return nil
}

// basePath is the output path without a format extension. Without -o it is
// the input document's path.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if slices.Contains(exportFormats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// runRender loads input through a viewer, applies the requested selection
// and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	cfg, err := c.config()
	if err != nil {
		return err
	}
	v, closer, err := c.loadDocument(ctx, cfg, input, opts.renderOptions)
	if err != nil {
		return err
	}
	defer closer.Close()

	g := v.Graph()
	if opts.node != "" && !v.SelectNode(opts.node) {
		return errors.New(errors.ErrCodeNotFound, "no node %q in %s (nodes: %s)", opts.node, input, strings.Join(g.IDs().BareIDs(), ", "))
	}
	// Exported files are not zoomed or panned.
	v.ResetView()
	svg := v.Markup()

	base := basePath(opts.output, input)
	for _, format := range opts.formats {
		data, err := convertScene(ctx, svg, format, opts.scale)
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := writeFile(path, data); err != nil {
			return err
		}
		logger.Debugf("Generated %s: %d bytes", format, len(data))
		printFile(path)
	}
	prog.done(fmt.Sprintf("Rendered %d nodes, %d edges", len(g.Nodes()), len(g.Edges())))
	printNextStep("Explore", appName+" view "+input)
	return nil
}

// convertScene turns SVG markup into the requested format.
func convertScene(ctx context.Context, svg []byte, format string, scale float64) ([]byte, error) {
	switch format {
	case formatSVG:
		return svg, nil
	case formatPNG:
		return render.ToPNG(ctx, svg, scale)
	case formatPDF:
		return render.ToPDF(ctx, svg)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown format %q", format)
	}
}

func writeFile(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
