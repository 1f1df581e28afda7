package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/codechunk/internal/lexer"
	"github.com/dshills/codechunk/internal/mcp"
	"github.com/dshills/codechunk/internal/storage"
)

type versionPayload struct {
	Version    string `json:"version"`
	BuildTime  string `json:"build_time"`
	MCPVersion string `json:"mcp_server_version"`
	BuildMode  string `json:"build_mode"`
	Driver     string `json:"sqlite_driver"`
	TreeSitter bool   `json:"tree_sitter"`
}

func versionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload := versionPayload{
				Version:    version,
				BuildTime:  buildTime,
				MCPVersion: mcp.ServerVersion,
				BuildMode:  storage.BuildMode,
				Driver:     storage.DriverName,
				TreeSitter: lexer.TreeSitterAvailable,
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			}
			fmt.Fprintf(out, "codechunk %s\n", payload.Version)
			fmt.Fprintf(out, "  built:       %s\n", payload.BuildTime)
			fmt.Fprintf(out, "  mcp server:  %s\n", payload.MCPVersion)
			fmt.Fprintf(out, "  build mode:  %s\n", payload.BuildMode)
			fmt.Fprintf(out, "  sqlite:      %s\n", payload.Driver)
			fmt.Fprintf(out, "  tree-sitter: %v\n", payload.TreeSitter)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
