package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mdview/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Every subcommand finds the CLI logger in its context (see
// loggerFromContext); --config selects the TOML file the commands read.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "mdview renders diagrams embedded in Markdown and lets you explore them",
		Long: `mdview extracts the first mermaid diagram from a Markdown document, renders it
to a vector scene and lets you pan, zoom, select and inspect its nodes, in the
terminal (view), as a report (inspect), as files (render) or over HTTP (serve).`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+configPathHint()+")")

	root.AddCommand(c.viewCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// addRenderFlags registers the renderer flags shared by view, inspect,
// render and serve.
func addRenderFlags(cmd *cobra.Command, opts *renderOptions) {
	cmd.Flags().StringVar(&opts.engine, "engine", "", "renderer: flowchart or mermaid-cli (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render and overwrite cached scenes")
}
