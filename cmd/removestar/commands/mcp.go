package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/removestar/pkg/mcp"
	"github.com/Sumatoshi-tech/removestar/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the star import fixer as a tool that AI agents can
discover and invoke:
  - removestar_fix: Replace star imports in inline Python code`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(nil, configPath)
			if err != nil {
				return err
			}

			providers, err := initObservability(observability.ModeMCP, os.Stderr, true, debug)
			if err != nil {
				return err
			}

			defer shutdownObservability(providers)

			requests, err := observability.NewRequestMetrics(providers.Meter)
			if err != nil {
				return err
			}

			fixMetrics, err := observability.NewFixMetrics(providers.Meter)
			if err != nil {
				return err
			}

			opts := fixOptions(cfg)

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:     providers.Logger,
				Requests:   requests,
				FixMetrics: fixMetrics,
				Tracer:     providers.Tracer,
				Fix:        &opts,
			})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().StringVar(&configPath, flagConfig, "", "Config file")
	cmd.Flags().BoolVar(&debug, flagDebug, false, "Enable debug logging to stderr")

	return cmd
}
