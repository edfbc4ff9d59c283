// Package config loads removestar settings from defaults, an optional
// .removestar.yaml file, REMOVESTAR_* environment variables and command
// line flags, and validates them against an embedded JSON schema.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidConfig is returned when the merged settings violate the schema.
var ErrInvalidConfig = errors.New("invalid configuration")

//go:embed schema.json
var schemaJSON []byte

// Config holds every removestar setting.
type Config struct {
	MaxLineLength  int           `mapstructure:"max_line_length" yaml:"max_line_length"`
	Verbose        bool          `mapstructure:"verbose"         yaml:"verbose"`
	AllowDynamic   bool          `mapstructure:"allow_dynamic"   yaml:"allow_dynamic"`
	Python         string        `mapstructure:"python"          yaml:"python"`
	DynamicTimeout time.Duration `mapstructure:"dynamic_timeout" yaml:"dynamic_timeout"`
	SkipInit       bool          `mapstructure:"skip_init"       yaml:"skip_init"`
	InPlace        bool          `mapstructure:"in_place"        yaml:"in_place"`
	Jobs           int           `mapstructure:"jobs"            yaml:"jobs"`
	Color          string        `mapstructure:"color"           yaml:"color"`
	Exclude        []string      `mapstructure:"exclude"         yaml:"exclude"`
	SkipVendor     bool          `mapstructure:"skip_vendor"     yaml:"skip_vendor"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		MaxLineLength:  DefaultMaxLineLength,
		Verbose:        DefaultVerbose,
		AllowDynamic:   DefaultAllowDynamic,
		Python:         DefaultPython,
		DynamicTimeout: DefaultDynamicTimeout,
		SkipInit:       DefaultSkipInit,
		InPlace:        DefaultInPlace,
		Jobs:           DefaultJobs,
		Color:          DefaultColor,
		Exclude:        []string{},
		SkipVendor:     DefaultSkipVendor,
	}
}

// Settings returns the configuration as a flat key/value map, with the
// timeout in its string form.
func (c *Config) Settings() map[string]any {
	exclude := make([]any, len(c.Exclude))
	for i, pattern := range c.Exclude {
		exclude[i] = pattern
	}

	return map[string]any{
		"max_line_length": c.MaxLineLength,
		"verbose":         c.Verbose,
		"allow_dynamic":   c.AllowDynamic,
		"python":          c.Python,
		"dynamic_timeout": c.DynamicTimeout.String(),
		"skip_init":       c.SkipInit,
		"in_place":        c.InPlace,
		"jobs":            c.Jobs,
		"color":           c.Color,
		"exclude":         exclude,
		"skip_vendor":     c.SkipVendor,
	}
}

// Validate checks the configuration against the embedded schema.
func (c *Config) Validate() error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(c.Settings()),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
