package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory and $HOME.
const FileName = ".removestar.yaml"

const (
	configName      = ".removestar"
	configType      = "yaml"
	envPrefix       = "REMOVESTAR"
	envKeySeparator = "_"
	configFileMode  = 0o644
)

// ErrConfigExists is returned by WriteDefault when the target already exists.
var ErrConfigExists = errors.New("config file already exists")

// Loader merges defaults, config file, environment and bound flags.
type Loader struct {
	viper *viper.Viper
}

// NewLoader creates a Loader with defaults and environment lookup set up.
func NewLoader() *Loader {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator, "-", envKeySeparator))
	viperCfg.AutomaticEnv()

	return &Loader{viper: viperCfg}
}

// BindFlag makes an explicitly set flag override key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag not defined", key)
	}

	err := l.viper.BindPFlag(key, flag)
	if err != nil {
		return fmt.Errorf("bind %s: %w", key, err)
	}

	return nil
}

// Load reads the config file and returns the validated configuration. If
// configPath is empty, FileName is searched in the working directory and
// $HOME; a missing file is not an error then.
func (l *Loader) Load(configPath string) (*Config, error) {
	if configPath != "" {
		l.viper.SetConfigFile(configPath)
	} else {
		l.viper.SetConfigName(configName)
		l.viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			l.viper.AddConfigPath(home)
		}
	}

	readErr := l.viper.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := l.viper.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// ConfigFileUsed returns the config file read by Load, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.viper.ConfigFileUsed()
}

// LoadConfig loads configuration without flag overrides.
func LoadConfig(configPath string) (*Config, error) {
	return NewLoader().Load(configPath)
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("max_line_length", DefaultMaxLineLength)
	viperCfg.SetDefault("verbose", DefaultVerbose)
	viperCfg.SetDefault("allow_dynamic", DefaultAllowDynamic)
	viperCfg.SetDefault("python", DefaultPython)
	viperCfg.SetDefault("dynamic_timeout", DefaultDynamicTimeout)
	viperCfg.SetDefault("skip_init", DefaultSkipInit)
	viperCfg.SetDefault("in_place", DefaultInPlace)
	viperCfg.SetDefault("jobs", DefaultJobs)
	viperCfg.SetDefault("color", DefaultColor)
	viperCfg.SetDefault("exclude", []string{})
	viperCfg.SetDefault("skip_vendor", DefaultSkipVendor)
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(yamlView(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return out, nil
}

// WriteDefault writes the default configuration to path. An existing file
// is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	cfg := Default()

	out, err := Marshal(&cfg)
	if err != nil {
		return err
	}

	err = os.WriteFile(path, out, configFileMode)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// yamlView swaps the duration for its string form so the file reads
// "10s" rather than nanoseconds.
func yamlView(cfg *Config) *yaml.Node {
	settings := cfg.Settings()

	doc := &yaml.Node{Kind: yaml.MappingNode}

	for _, key := range settingKeys {
		var value yaml.Node

		_ = value.Encode(settings[key])

		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, &value)
	}

	return doc
}

// settingKeys fixes the key order of rendered configuration.
var settingKeys = []string{
	"max_line_length",
	"verbose",
	"allow_dynamic",
	"python",
	"dynamic_timeout",
	"skip_init",
	"in_place",
	"jobs",
	"color",
	"exclude",
	"skip_vendor",
}
