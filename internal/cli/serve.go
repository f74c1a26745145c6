package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mdview/internal/server"
	"github.com/matzehuels/mdview/pkg/observability"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	renderOptions
	addr    string
	metrics bool
}

// serveCommand creates the serve command, which exposes viewer sessions
// over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{metrics: true}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve interactive viewer sessions over HTTP and websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", opts.metrics, "expose Prometheus metrics on /metrics")
	addRenderFlags(cmd, &opts.renderOptions)
	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	r, err := c.newRenderer(ctx, cfg, opts.renderOptions)
	if err != nil {
		return err
	}
	defer r.Close()

	addr := opts.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	srvCfg := server.Config{
		Addr:     addr,
		Renderer: r,
		Viewer:   viewerOptions(cfg),
		Width:    float64(cfg.Server.Width),
		Height:   float64(cfg.Server.Height),
		Logger:   c.Logger,
	}
	if opts.metrics {
		p := observability.NewPrometheus(nil)
		observability.Register(p)
		srvCfg.Metrics = p
	}

	printInfo("Serving viewer sessions")
	printKeyValue("URL", StyleLink.Render("http://"+addr+"/api/v1/sessions"))
	printKeyValue("Renderer", r.Name())
	printKeyValue("Cache", cfg.Cache.Backend)
	if opts.metrics {
		printKeyValue("Metrics", StyleLink.Render("http://"+addr+"/metrics"))
	}
	err = server.New(srvCfg).ListenAndServe(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
