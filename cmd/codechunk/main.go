package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/codechunk/internal/config"
	"github.com/dshills/codechunk/internal/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// errFailedFiles marks a run that completed but left files un-chunked
var errFailedFiles = errors.New("some files could not be chunked")

// app carries state shared by all commands after flag parsing
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg *config.Config
	log *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "codechunk",
		Short: "Split source files into scope-aware chunks",
		Long: `codechunk splits C-family source files into chunks that follow
namespaces, classes and functions, keeps every chunk within a size budget,
and can index whole projects for keyword search.

Example usage:
  codechunk chunk src/parser.cpp          # Print chunks of one file
  codechunk index .                       # Index the current directory
  codechunk search "parse header"         # Search indexed chunks
  codechunk serve                         # Run the MCP server on stdio`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (text, json)")

	rootCmd.AddCommand(
		a.chunkCmd(),
		a.indexCmd(),
		a.searchCmd(),
		a.serveCmd(),
		a.languagesCmd(),
		versionCmd(),
	)
	return rootCmd
}

// setup loads the configuration and builds the logger. Flag values win
// over the file and the environment.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if !logger.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}
	if !logger.ValidFormat(cfg.Log.Format) {
		return fmt.Errorf("invalid log format: %s", cfg.Log.Format)
	}

	a.cfg = cfg
	a.log = logger.NewWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	return nil
}
