package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "sbtup.yaml"

// ErrInvalid is returned for a config that parses but cannot be used.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`
	Registry struct {
		BaseURL     string        `yaml:"base_url"`
		Timeout     time.Duration `yaml:"timeout"`
		Concurrency int           `yaml:"concurrency"`
		CacheSize   int           `yaml:"cache_size"`
	} `yaml:"registry"`
	History struct {
		// Path of the sqlite audit log. Empty disables history.
		Path string `yaml:"path"`
	} `yaml:"history"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Registry.BaseURL = "https://repo1.maven.org/maven2"
	cfg.Registry.Timeout = 15 * time.Second
	cfg.Registry.Concurrency = 8
	cfg.Registry.CacheSize = 512
	cfg.Log.Level = "warn"
	return &cfg
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if url := os.Getenv("SBTUP_REGISTRY_URL"); url != "" {
		cfg.Registry.BaseURL = url
	}
	if db := os.Getenv("SBTUP_HISTORY_DB"); db != "" {
		cfg.History.Path = db
	}
	if level := os.Getenv("SBTUP_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	if c.Registry.BaseURL == "" {
		return fmt.Errorf("%w: registry.base_url is empty", ErrInvalid)
	}
	if c.Registry.Timeout < 0 {
		return fmt.Errorf("%w: registry.timeout is negative", ErrInvalid)
	}
	if c.Registry.Concurrency < 0 {
		return fmt.Errorf("%w: registry.concurrency is negative", ErrInvalid)
	}
	if c.Registry.CacheSize < 0 {
		return fmt.Errorf("%w: registry.cache_size is negative", ErrInvalid)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps log.level to a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
}
