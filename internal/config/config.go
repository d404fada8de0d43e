// Package config loads the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/born-ml/digits/internal/backend"
	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs of the classifier service.
type Config struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ModelDir        string        `yaml:"model_dir"`
	ModelID         string        `yaml:"model_id"`
	Backend         backend.Kind  `yaml:"backend"`
	Workers         int           `yaml:"workers"` // 0 sizes the pool from the CPU
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	ListenAddr string
	ModelDir   string
	ModelID    string
	Backend    string
	Workers    int
	LogLevel   string
	LogFormat  string
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ListenAddr:      ":5000",
		ModelDir:        "models",
		ModelID:         "mnist",
		Backend:         backend.KindCPU,
		LogLevel:        "info",
		LogFormat:       "json",
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// Load reads and validates a Config from YAML. Keys missing from the file
// keep their default values; an empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	//nolint:gosec // G304: path comes from the operator
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.ListenAddr != "" {
		c.ListenAddr = o.ListenAddr
	}
	if o.ModelDir != "" {
		c.ModelDir = o.ModelDir
	}
	if o.ModelID != "" {
		c.ModelID = o.ModelID
	}
	if o.Backend != "" {
		c.Backend = backend.Kind(o.Backend)
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		c.LogFormat = o.LogFormat
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.ListenAddr == "" {
		return errors.New("listen_addr must be set")
	}
	if c.ModelDir == "" {
		return errors.New("model_dir must be set")
	}
	if c.ModelID == "" {
		return errors.New("model_id must be set")
	}
	switch c.Backend {
	case backend.KindCPU, backend.KindWebGPU:
	default:
		return fmt.Errorf("backend must be %q or %q (got %q)", backend.KindCPU, backend.KindWebGPU, c.Backend)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (got %d)", c.Workers)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("log_format must be json or text (got %q)", c.LogFormat)
	}
	for name, d := range map[string]time.Duration{
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0 (got %s)", name, d)
		}
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
