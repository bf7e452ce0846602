// Package commands implements the marketbrowser command line.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"marketbrowser/internal/config"
	"marketbrowser/internal/logger"
)

// runtime carries the root flags to subcommands.
type runtime struct {
	verbose bool
}

// Execute runs the root command with ctx; cancelling ctx stops long-running commands.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the marketbrowser command tree.
func NewRootCommand() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:          "marketbrowser",
		Short:        "Browse market movers, company profiles and watchlists",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		serveCmd(rt),
		warmCmd(rt),
		moversCmd(rt),
		listingCmd(rt),
		overviewCmd(rt),
		productCmd(rt),
		seriesCmd(rt),
		quoteCmd(rt),
		searchCmd(rt),
		indicesCmd(rt),
		watchlistCmd(rt),
	)
	return root
}

// run loads configuration, wires the app for one command and closes it afterwards.
func (rt *runtime) run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if rt.verbose {
		level = "debug"
	}
	log := logger.New(cmd.ErrOrStderr(), level, cfg.LogFormat)

	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
