package cli

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mdview/pkg/errors"
	"github.com/matzehuels/mdview/pkg/viewer"
)

// viewOpts holds the command-line flags for the view command.
type viewOpts struct {
	renderOptions
	watch   bool
	logFile string
}

// viewCommand creates the view command, the interactive terminal viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var opts viewOpts
	cmd := &cobra.Command{
		Use:   "view [file.md]",
		Short: "Explore the diagram of a Markdown document in the terminal",
		Long: `View renders the first diagram of a Markdown document and shows it full screen.

Drag with the mouse to pan, scroll to zoom, click a node to highlight it and
its neighbours. Press ? for the keyboard shortcuts.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocument,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0], &opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload when the file changes")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "write logs here while the viewer runs (default "+defaultLogFile()+")")
	addRenderFlags(cmd, &opts.renderOptions)
	return cmd
}

func (c *CLI) runView(ctx context.Context, path string, opts *viewOpts) error {
	if err := errors.ValidateDocumentName(path); err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "%s does not exist", path)
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}

	logPath := opts.logFile
	if logPath == "" {
		logPath = defaultLogFile()
	}
	logger, logCloser, err := fileLogger(logPath, c.Logger.GetLevel())
	if err != nil {
		return err
	}
	defer logCloser.Close()

	r, err := c.newRenderer(ctx, cfg, opts.renderOptions)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v := viewer.New(r, logger, viewerOptions(cfg))
	p := tea.NewProgram(
		newViewModel(ctx, v, path, logger),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)

	if opts.watch {
		go func() {
			if err := watchFile(ctx, path, logger, func() { p.Send(fileChangedMsg{}) }); err != nil {
				logger.Error("watch failed", "file", path, "err", err)
			}
		}()
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
