// Package cmd implements the CLI commands for markpipe using Cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Persistent flag variables.
var (
	flagConfig  string
	flagVerbose bool
)

// cfg is the resolved configuration, loaded before any subcommand runs.
var cfg = viper.New()

var rootCmd = &cobra.Command{
	Use:   "markpipe",
	Short: "markpipe — convert HTML pages into clean Markdown",
	Long: `markpipe converts HTML into Markdown that keeps tables, nested lists,
definition lists, quotes, figures, math and code blocks intact.

Usage:
  markpipe convert <url|file|-> [flags]
  markpipe config`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		setupLogging(flagVerbose)
		return loadConfig(cmd, cfg, flagConfig)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $XDG_CONFIG_HOME/markpipe/markpipe.yaml or ./markpipe.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr")
}

// setupLogging installs the default slog logger on stderr.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
