package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vmorph/internal/config"
	"github.com/vango-dev/vmorph/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "vmorph",
		Short: "Compose reconciliation plugins and serve DOM patches",
		Long: `vmorph composes independent reconciliation plugins into one set of
hooks and runs virtual DOM passes with them.

Plugins are applied in the order vmorph.json lists them. A veto from
any plugin stops the chain; replacement nodes are threaded from one
plugin to the next.

Commands:
  diff     reconcile two JSON trees and print the patches
  serve    serve reconciliation over HTTP and WebSocket
  plugins  list the registered plugins
  check    validate vmorph.json
  init     write a default vmorph.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to vmorph.json (default: nearest vmorph.json, else defaults)")

	rootCmd.AddCommand(
		diffCmd(opts),
		serveCmd(opts),
		pluginsCmd(opts),
		checkCmd(opts),
		initCmd(),
		versionCmd(),
	)
	return rootCmd
}

// load reads and validates the configuration.
func (o *globalOptions) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from the log section.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
