package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the session configuration, usually read from jmeta.yaml.
type Config struct {
	// Classpath lists directories of YAML class files, loaded in order
	// after the boot class library.
	Classpath []string `yaml:"classpath,omitempty"`

	// Catalog is an optional SQLite class catalog loaded after the
	// classpath.
	Catalog string `yaml:"catalog,omitempty"`

	// LogLevel is one of debug, info, warn, error. Defaults to warn.
	LogLevel string `yaml:"log_level,omitempty"`

	// Journal also sends log records to the systemd journal when it is
	// reachable.
	Journal bool `yaml:"journal,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{LogLevel: "warn"}
}

// Load reads a configuration file. Relative classpath and catalog entries
// are resolved against the directory containing the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, p := range cfg.Classpath {
		cfg.Classpath[i] = resolve(dir, p)
	}
	if cfg.Catalog != "" {
		cfg.Catalog = resolve(dir, cfg.Catalog)
	}
	return cfg, nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate checks field values.
func (c Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	for _, p := range c.Classpath {
		if p == "" {
			return fmt.Errorf("empty classpath entry")
		}
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	level, _ := ParseLogLevel(c.LogLevel)
	return level
}

// ParseLogLevel maps a level name to a slog level. The empty string is warn.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}
