// Package config holds the YAML configuration shared by the MCP server and
// the command line tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Sequences SequencesConfig `yaml:"sequences"`
}

// ServerConfig configures the HTTP MCP endpoint.
type ServerConfig struct {
	Addr              string `yaml:"addr"`
	ReadHeaderTimeout string `yaml:"read_header_timeout"`
	ReadTimeout       string `yaml:"read_timeout"`
	WriteTimeout      string `yaml:"write_timeout"`
	IdleTimeout       string `yaml:"idle_timeout"`
	MaxBodyBytes      int64  `yaml:"max_body_bytes"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// SequencesConfig tunes the combinatorial sequence engines.
type SequencesConfig struct {
	// Bernoulli numbers above this index are computed from ζ(n) instead of
	// the recurrence cache.
	BernoulliFloatThreshold int `yaml:"bernoulli_float_threshold"`
	// Bits of precision used by evalf when a request does not name one.
	EvalfPrecision uint `yaml:"evalf_precision"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: "5s",
			ReadTimeout:       "15s",
			WriteTimeout:      "15s",
			IdleTimeout:       "60s",
			MaxBodyBytes:      1 << 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Sequences: SequencesConfig{
			BernoulliFloatThreshold: 500,
			EvalfPrecision:          53,
		},
	}
}

// Load reads path on top of the defaults. An empty path or a missing file
// yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("SYMPY_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("SYMPY_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks that every field parses.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if _, err := c.Server.Timeouts(); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	if _, err := c.Logging.ZapLevel(); err != nil {
		return err
	}
	if c.Sequences.BernoulliFloatThreshold < 0 {
		return fmt.Errorf("sequences.bernoulli_float_threshold must not be negative, got %d", c.Sequences.BernoulliFloatThreshold)
	}
	if c.Sequences.EvalfPrecision == 0 {
		return fmt.Errorf("sequences.evalf_precision must be positive")
	}
	return nil
}

// Timeouts holds the parsed server timeouts.
type Timeouts struct {
	ReadHeader, Read, Write, Idle time.Duration
}

// Timeouts parses the server timeout strings.
func (s ServerConfig) Timeouts() (Timeouts, error) {
	var t Timeouts
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"read_header_timeout", s.ReadHeaderTimeout, &t.ReadHeader},
		{"read_timeout", s.ReadTimeout, &t.Read},
		{"write_timeout", s.WriteTimeout, &t.Write},
		{"idle_timeout", s.IdleTimeout, &t.Idle},
	}
	for _, f := range fields {
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return Timeouts{}, fmt.Errorf("server.%s: %w", f.name, err)
		}
		*f.dst = d
	}
	return t, nil
}

// ZapLevel parses the configured level.
func (l LoggingConfig) ZapLevel() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
