package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/removestar/pkg/lsp"
	"github.com/Sumatoshi-tech/removestar/pkg/observability"
)

// NewLSPCommand creates the language server command.
func NewLSPCommand() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start language server for Python star imports (LSP)",
		Long: `Start a language server (LSP) on stdio.

Every star import of an open Python document is reported with the explicit
import that would replace it, and the "Replace star imports" quick fix
rewrites the whole document.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(nil, configPath)
			if err != nil {
				return err
			}

			providers, err := initObservability(observability.ModeLSP, os.Stderr, false, debug)
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
			opts.Logger = providers.Logger
			opts.Tracer = providers.Tracer
			opts.Metrics = fixMetrics

			return lsp.NewServer(opts, requests, debug).Run()
		},
	}

	cmd.Flags().StringVar(&configPath, flagConfig, "", "Config file")
	cmd.Flags().BoolVar(&debug, flagDebug, false, "Enable debug logging to stderr")

	return cmd
}
