// Package config loads wordbind settings from YAML files.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/wordbind/pkg/diagnostics"
)

// DefaultMaxDepth is the recursion budget for deep copies and deep binds.
const DefaultMaxDepth = 512

// Config holds the settings shared by the runtime and the CLI.
type Config struct {
	MaxDepth     int    `yaml:"max_depth"`
	LogLevel     string `yaml:"log_level"`
	Pretty       *bool  `yaml:"pretty,omitempty"`
	ShowBindings bool   `yaml:"show_bindings"`
	Lib          string `yaml:"lib,omitempty"`

	// Source is the file the settings came from, empty for defaults.
	Source string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		MaxDepth: DefaultMaxDepth,
		LogLevel: "info",
	}
}

// Load reads settings with precedence: project (.wordbind.yaml in
// projectDir) -> user (~/.wordbind/config.yaml) -> defaults. A file that
// exists but cannot be decoded is an error; a missing one is skipped.
func Load(projectDir string) (*Config, error) {
	projectPath := filepath.Join(projectDir, ".wordbind.yaml")
	if cfg, err := LoadFile(projectPath); err == nil {
		return cfg, nil
	} else if !os.IsNotExist(errors.Cause(err)) {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(homeDir, ".wordbind", "config.yaml")
		if cfg, err := LoadFile(userPath); err == nil {
			return cfg, nil
		} else if !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
	}

	return Default(), nil
}

// LoadFile decodes one file over the defaults and validates the result.
// Relative lib paths are resolved against the file's directory.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(diagnostics.Errorf(diagnostics.EConfig, "", "%v", err), "decoding %s", path)
	}
	cfg.Source = path
	if cfg.Lib != "" && !filepath.IsAbs(cfg.Lib) {
		cfg.Lib = filepath.Join(filepath.Dir(path), cfg.Lib)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "validating %s", path)
	}
	return cfg, nil
}

// Validate rejects settings the runtime cannot honor.
func (c *Config) Validate() error {
	if c.MaxDepth <= 0 {
		return diagnostics.Errorf(diagnostics.EConfig, "", "max_depth must be positive, got %d", c.MaxDepth)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return diagnostics.Errorf(diagnostics.EConfig, "", "unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Level returns the configured log level, or info if it does not parse.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// PrettyOr returns the configured pretty flag, or def when unset.
func (c *Config) PrettyOr(def bool) bool {
	if c.Pretty == nil {
		return def
	}
	return *c.Pretty
}
