package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/Sumatoshi-tech/removestar/pkg/config"
	"github.com/Sumatoshi-tech/removestar/pkg/removestar"
)

// Flag names.
const (
	flagConfig        = "config"
	flagInPlace       = "in-place"
	flagNoSkipInit    = "no-skip-init"
	flagNoDynamic     = "no-dynamic-importing"
	flagVerbose       = "verbose"
	flagMaxLineLength = "max-line-length"
	flagJobs          = "jobs"
	flagPython        = "python"
	flagTimeout       = "dynamic-timeout"
	flagExclude       = "exclude"
	flagColor         = "color"
	flagNoColor       = "no-color"
	flagStats         = "stats"
	flagLogJSON       = "log-json"
	flagDebug         = "debug"
)

// boundFlags maps configuration keys to the flags overriding them.
var boundFlags = []struct {
	key  string
	flag string
}{
	{"max_line_length", flagMaxLineLength},
	{"verbose", flagVerbose},
	{"python", flagPython},
	{"dynamic_timeout", flagTimeout},
	{"in_place", flagInPlace},
	{"jobs", flagJobs},
	{"color", flagColor},
	{"exclude", flagExclude},
}

// registerConfigFlags defines the flags that override configuration keys.
func registerConfigFlags(flags *pflag.FlagSet) {
	flags.BoolP(flagInPlace, "i", config.DefaultInPlace, "Edit the files in-place")
	flags.BoolP(flagVerbose, "v", config.DefaultVerbose, "Print information about every imported name that is replaced")
	flags.Int(flagMaxLineLength, config.DefaultMaxLineLength,
		"Maximum line length for replaced imports before they are wrapped (0 disables wrapping)")
	flags.IntP(flagJobs, "j", config.DefaultJobs, "Number of files fixed in parallel (0 = use CPU count)")
	flags.String(flagPython, config.DefaultPython, "Python interpreter used for dynamic importing")
	flags.Duration(flagTimeout, config.DefaultDynamicTimeout, "Time limit for each dynamic import")
	flags.StringSlice(flagExclude, nil, "Glob patterns of files or directories to skip")
	flags.String(flagColor, config.DefaultColor, "Colorize diffs: auto, always, never")

	flags.Bool(flagNoSkipInit, false, "Don't skip __init__.py files (they are skipped by default)")
	flags.Bool(flagNoDynamic, false,
		"Don't dynamically import modules to determine the list of names. "+
			"This is required for star imports from external modules and modules in the standard library")
	flags.Bool(flagNoColor, false, "Disable colored output (same as --color=never)")
}

// loadConfig reads the configuration file, environment and flags, in
// increasing order of precedence. flags may be nil.
func loadConfig(flags *pflag.FlagSet, path string) (*config.Config, error) {
	loader := config.NewLoader()

	if flags != nil {
		for _, bound := range boundFlags {
			err := loader.BindFlag(bound.key, flags.Lookup(bound.flag))
			if err != nil {
				return nil, err
			}
		}
	}

	cfg, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flags == nil {
		return cfg, nil
	}

	if isSet(flags, flagNoSkipInit) {
		cfg.SkipInit = false
	}

	if isSet(flags, flagNoDynamic) {
		cfg.AllowDynamic = false
	}

	if isSet(flags, flagNoColor) {
		cfg.Color = config.ColorNever
	}

	return cfg, nil
}

func isSet(flags *pflag.FlagSet, name string) bool {
	value, err := flags.GetBool(name)

	return err == nil && value
}

// fixOptions translates the configuration into fixer options.
func fixOptions(cfg *config.Config) removestar.Options {
	return removestar.Options{
		MaxLineLength:  cfg.MaxLineLength,
		Verbose:        cfg.Verbose,
		AllowDynamic:   cfg.AllowDynamic,
		Python:         cfg.Python,
		DynamicTimeout: cfg.DynamicTimeout,
	}
}
