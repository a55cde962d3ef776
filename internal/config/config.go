// Package config loads the collatz command configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the collatz command configuration.
type Config struct {
	DBFile    string `yaml:"db_file"`
	Addr      string `yaml:"addr"`
	GRPCAddr  string `yaml:"grpc_addr"`
	StepLimit int    `yaml:"step_limit"`
	Workers   int    `yaml:"workers"`
	LogLevel  string `yaml:"log_level"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DBFile:   "collatz.db",
		Addr:     ":8080",
		LogLevel: "info",
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := cfg.fromEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fromEnv() error {
	if v := os.Getenv("DB_FILE"); v != "" {
		c.DBFile = v
	}
	if v := os.Getenv("HTTPD_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("GRPC_ADDR"); v != "" {
		c.GRPCAddr = v
	}
	if v := os.Getenv("COLLATZ_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"COLLATZ_STEP_LIMIT", &c.StepLimit},
		{"COLLATZ_WORKERS", &c.Workers},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = i
	}

	return nil
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.DBFile == "" {
		return fmt.Errorf("empty db_file")
	}
	if c.StepLimit < 0 {
		return fmt.Errorf("negative step_limit: %d", c.StepLimit)
	}
	if c.Workers < 0 {
		return fmt.Errorf("negative workers: %d", c.Workers)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level for LogLevel.
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log_level: %q", c.LogLevel)
}
