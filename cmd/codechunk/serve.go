package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dshills/codechunk/internal/mcp"
	"github.com/dshills/codechunk/internal/storage"
)

func (a *app) serveCmd() *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the
chunk_file, index_codebase, search_chunks and get_status tools.

Logs go to stderr; stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *a.cfg
			if db != "" {
				cfg.Storage.Path = db
			}

			a.log.Info("codechunk MCP server starting",
				"version", version,
				"build_mode", storage.BuildMode,
				"driver", storage.DriverName,
				"db", cfg.Storage.Path)

			server, err := mcp.NewServer(&cfg, a.log)
			if err != nil {
				return err
			}

			a.log.Info("MCP server ready, listening on stdio")
			err = server.Serve(cmd.Context())
			if err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("server error", "error", err)
				return err
			}
			a.log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "index database path")
	return cmd
}
