// Package config loads user defaults for part from a TOML or YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/larsks/part/internal/console"
	"github.com/larsks/part/internal/device"
	"github.com/larsks/part/internal/snapshot"
	"github.com/larsks/part/internal/table"
	"github.com/larsks/part/internal/units"
)

// Config holds defaults that command line flags override.
type Config struct {
	Format        string `toml:"format" yaml:"format"`
	PartitionType string `toml:"partition_type" yaml:"partition_type"`
	LogLevel      string `toml:"log_level" yaml:"log_level"`
	Color         string `toml:"color" yaml:"color"`
	MinStart      string `toml:"min_start" yaml:"min_start"`
}

// Default returns the built in configuration.
func Default() *Config {
	return &Config{
		Format:        string(snapshot.JSON),
		PartitionType: strings.ToUpper(table.TypeLinuxFilesystem.String()),
		LogLevel:      logrus.WarnLevel.String(),
		Color:         console.ColorAuto,
		MinStart:      "1MiB",
	}
}

// DefaultPaths lists the files tried when no config file is named, in
// order of preference.
func DefaultPaths() []string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		dir = filepath.Join(home, ".config")
	}
	base := filepath.Join(dir, "part")
	return []string{
		filepath.Join(base, "config.toml"),
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
	}
}

// Load reads the config file at path. With an empty path the first existing
// default path is used, and defaults are returned when there is none. The
// result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
		if path == "" {
			return Default(), nil
		}
	}

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read config")
	}

	cfg := Default()
	switch ext := filepath.Ext(path); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.Wrapf(err, "couldn't decode TOML config %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "couldn't decode YAML config %s", path)
		}
	default:
		return nil, errors.Errorf("unsupported config file extension %q", ext)
	}
	return cfg, nil
}

// ValidationError describes one bad config key.
type ValidationError struct {
	Field string
	Err   error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every bad key.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every key, reporting all problems at once.
func (c *Config) Validate() error {
	var errs ValidationErrors
	check := func(field string, err error) {
		if err != nil {
			errs = append(errs, ValidationError{Field: field, Err: err})
		}
	}

	_, err := c.SnapshotFormat()
	check("format", err)
	_, err = c.Type()
	check("partition_type", err)
	_, err = c.Level()
	check("log_level", err)
	check("color", console.ValidateColorMode(c.Color))
	_, err = c.MinStartBytes()
	check("min_start", err)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) SnapshotFormat() (snapshot.Format, error) {
	return snapshot.ParseFormat(c.Format)
}

func (c *Config) Type() (uuid.UUID, error) {
	return table.ParseType(c.PartitionType)
}

func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}

// MinStartBytes parses min_start. It must be a non-zero multiple of the
// smallest logical block size.
func (c *Config) MinStartBytes() (uint64, error) {
	n, err := units.ParseSize(c.MinStart)
	if err != nil {
		return 0, err
	}
	if n == 0 || n%device.DefaultBlockSize != 0 {
		return 0, errors.Wrapf(table.ErrUnaligned, "%d is not a positive multiple of %d", n, device.DefaultBlockSize)
	}
	return n, nil
}
