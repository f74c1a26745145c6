// Command mdview renders the first diagram of a Markdown document and lets
// you explore it: full screen in the terminal (view), as a report (inspect),
// as SVG, PNG or PDF files (render) or through an HTTP session API (serve).
//
// Verbosity comes from -v/--verbose or -q/--quiet. Without either flag,
// MDVIEW_LOG_LEVEL (debug, info, warn, error) picks the level.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mdview/internal/cli"
)

const logLevelEnv = "MDVIEW_LOG_LEVEL"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var verbose, quiet bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug details")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "log warnings and errors only")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Flags are parsed before the pre-run hooks, not before RootCommand.
	inner := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := logLevel(verbose, quiet, os.Getenv(logLevelEnv))
		if err != nil {
			return err
		}
		c.SetLogLevel(level)
		if inner != nil {
			return inner(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}

// logLevel resolves the log level. Flags win over the environment.
func logLevel(verbose, quiet bool, env string) (log.Level, error) {
	switch {
	case verbose:
		return cli.LogDebug, nil
	case quiet:
		return cli.LogWarn, nil
	case strings.TrimSpace(env) == "":
		return cli.LogInfo, nil
	}
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(env)))
	if err != nil {
		return cli.LogInfo, fmt.Errorf("%s: %w", logLevelEnv, err)
	}
	return level, nil
}
