package commands

import (
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/removestar/pkg/observability"
	"github.com/Sumatoshi-tech/removestar/pkg/removestar"
	"github.com/Sumatoshi-tech/removestar/pkg/walker"
)

const fixLong = `Replace "from module import *" imports with explicit imports of the names
the code actually uses.

Without -i, a unified diff is printed for every file that would change and the
files are left untouched. Directories are searched recursively for Python files.

Exit status is 0 when nothing needs fixing, 1 when a file was (or would be)
changed and 2 when a file could not be processed.

Examples:
  removestar file.py         # Show the diff for file.py
  removestar -i file.py      # Edit file.py in place
  removestar -i module/      # Fix every Python file in module/ recursively`

// fixCommand holds the flags of the root fix command that are not
// configuration keys.
type fixCommand struct {
	configPath string
	stats      bool
	logJSON    bool
	debug      bool
}

func newFixCommand() *cobra.Command {
	fc := &fixCommand{}

	cmd := &cobra.Command{
		Use:           "removestar [flags] PATH...",
		Short:         "Replace Python star imports with explicit imports",
		Long:          fixLong,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          fc.run,
	}

	flags := cmd.Flags()
	registerConfigFlags(flags)

	flags.StringVar(&fc.configPath, flagConfig, "", "Config file (default: ./.removestar.yaml, then ~/.removestar.yaml)")
	flags.BoolVar(&fc.stats, flagStats, false, "Print run statistics to stderr")
	flags.BoolVar(&fc.logJSON, flagLogJSON, false, "Write logs as JSON")
	flags.BoolVar(&fc.debug, flagDebug, false, "Enable debug logging and full trace sampling")

	return cmd
}

func (fc *fixCommand) run(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := loadConfig(cmd.Flags(), fc.configPath)
	if err != nil {
		return err
	}

	providers, err := initObservability(observability.ModeCLI, cmd.ErrOrStderr(), fc.logJSON, fc.debug)
	if err != nil {
		return err
	}

	defer shutdownObservability(providers)

	fixMetrics, err := observability.NewFixMetrics(providers.Meter)
	if err != nil {
		return err
	}

	ctx, span := providers.Tracer.Start(cmd.Context(), "removestar.run")
	defer span.End()

	opts := fixOptions(cfg)
	opts.Logger = providers.Logger
	opts.Tracer = providers.Tracer
	opts.Metrics = fixMetrics

	entries := walker.Expand(args, walker.Options{
		SkipInit:   cfg.SkipInit,
		SkipVendor: cfg.SkipVendor,
		Exclude:    cfg.Exclude,
	})

	providers.Logger.DebugContext(ctx, "expanded paths", "paths", len(args), "files", len(entries), "jobs", cfg.Jobs)

	outcomes, err := fixAll(ctx, removestar.NewFixer(opts), entries, cfg.Jobs)
	if err != nil {
		return err
	}

	rep := &reporter{
		stdout:  cmd.OutOrStdout(),
		stderr:  cmd.ErrOrStderr(),
		paint:   newPainter(cfg.Color, cmd.OutOrStdout()),
		warn:    newPainter(cfg.Color, cmd.ErrOrStderr()),
		inPlace: cfg.InPlace,
	}

	sum := rep.report(outcomes)
	sum.elapsed = time.Since(start)

	span.SetAttributes(
		attribute.Int("removestar.files", sum.files),
		attribute.Int("removestar.changed", sum.changed),
		attribute.Int("removestar.failed", sum.failed),
	)

	if fc.stats {
		rep.stats(sum)
	}

	return sum.exitError()
}
