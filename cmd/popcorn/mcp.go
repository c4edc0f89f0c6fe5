package main

import (
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/popcorn/internal/config"
	mcpserver "github.com/vadimtrunov/popcorn/internal/mcp"
)

// newMCPServeCmd returns the "mcp-serve" subcommand. It exposes the movie
// browsing tools to MCP clients over stdin/stdout; logs go to stderr.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-serve",
		Short: "Start MCP server over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger := config.SetupLogger(cfg.App.LogLevel, cmd.ErrOrStderr())

			svc, err := initServices(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			srv := mcpserver.NewServer(mcpserver.Deps{
				Catalog: svc.catalog,
				Version: version,
			}, logger)
			return srv.ServeStdio(cmd.Context())
		},
	}
}
