// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/jeremyhahn/go-shamir/pkg/field"
	"github.com/jeremyhahn/go-shamir/pkg/logger"
	"github.com/jeremyhahn/go-shamir/pkg/rand"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
	"github.com/jeremyhahn/go-shamir/pkg/storage/file"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings
const (
	EnvHost      = "SSS_HOST"
	EnvPort      = "SSS_PORT"
	EnvLogLevel  = "SSS_LOG_LEVEL"
	EnvLogFormat = "SSS_LOG_FORMAT"
	EnvModulus   = "SSS_MODULUS"
	EnvRandMode  = "SSS_RAND_MODE"
	EnvShareDir  = "SSS_SHARE_DIR"
	EnvConfig    = "SSS_CONFIG"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageFile   = "file"
)

// Config represents the complete configuration of the sss CLI and the sssd daemon
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	TLS       TLSConfig       `yaml:"tls"`
	Logging   LoggingConfig   `yaml:"logging"`
	Sharing   SharingConfig   `yaml:"sharing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Storage   StorageConfig   `yaml:"storage"`
}

// ServerConfig contains REST daemon settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SharingConfig controls the field, x-coordinate selection and randomness
type SharingConfig struct {
	// Modulus is a prime in decimal or 0x-hex, or one of the aliases
	// p256k1, m127, m521. Empty selects p256k1.
	Modulus string `yaml:"modulus"`

	// XMode is "random" or "sequential"
	XMode string `yaml:"x_mode"`

	// RandMode is "software" or "seeded". Seeded output is reproducible
	// and must only be used for tests.
	RandMode string `yaml:"rand_mode"`
	Seed     string `yaml:"seed"`

	// Workers bounds parallel Lagrange term computation
	Workers int `yaml:"workers"`
}

// MetricsConfig controls the metrics endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RateLimitConfig controls per-client rate limiting
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMin    int  `yaml:"requests_per_min"`
	Burst             int  `yaml:"burst"`
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

// StorageConfig selects where share sets are persisted
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Default returns a configuration usable without a config file
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8200,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Sharing: SharingConfig{
			Modulus:  "p256k1",
			XMode:    string(shamir.XModeRandom),
			RandMode: string(rand.ModeSoftware),
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMin: 600,
			Burst:          60,
		},
		Storage: StorageConfig{
			Backend: StorageFile,
			Path:    "shares",
		},
	}
}

// Load reads a YAML file over Default(), applies environment variable
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 - Config file path is provided by admin/user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies SSS_* environment variables to the configuration
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv(EnvHost); host != "" {
		cfg.Server.Host = host
	}
	if value := os.Getenv(EnvPort); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port < 1 || port > 65535 {
			log.Printf("Warning: invalid %s value %q, using %d", EnvPort, value, cfg.Server.Port)
		} else {
			cfg.Server.Port = port
		}
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv(EnvLogFormat); format != "" {
		cfg.Logging.Format = format
	}
	if modulus := os.Getenv(EnvModulus); modulus != "" {
		cfg.Sharing.Modulus = modulus
	}
	if mode := os.Getenv(EnvRandMode); mode != "" {
		cfg.Sharing.RandMode = mode
	}
	if dir := os.Getenv(EnvShareDir); dir != "" {
		cfg.Storage.Backend = StorageFile
		cfg.Storage.Path = dir
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must not be negative")
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := logger.ParseFormat(c.Logging.Format); err != nil {
		return err
	}

	if _, err := c.Field(); err != nil {
		return err
	}
	if _, err := shamir.ParseXMode(c.Sharing.XMode); err != nil {
		return err
	}
	mode, err := rand.ParseMode(c.Sharing.RandMode)
	if err != nil {
		return err
	}
	if mode == rand.ModeSeeded && c.Sharing.Seed == "" {
		return fmt.Errorf("sharing.seed is required when rand_mode is %q", rand.ModeSeeded)
	}
	if c.Sharing.Workers < 0 {
		return fmt.Errorf("sharing.workers must not be negative")
	}

	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		return fmt.Errorf("metrics path must start with /: %q", c.Metrics.Path)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMin < 1 {
		return fmt.Errorf("ratelimit.requests_per_min must be positive when enabled")
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path must be specified for the file backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (must be memory or file)", c.Storage.Backend)
	}

	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("TLS cert_file and key_file are required when TLS is enabled")
	}
	return nil
}

// Addr returns the listen address of the REST daemon
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Field returns the prime field named by sharing.modulus
func (c *Config) Field() (*field.Field, error) {
	p, err := field.ParseModulus(c.Sharing.Modulus)
	if err != nil {
		return nil, fmt.Errorf("invalid sharing.modulus: %w", err)
	}
	f, err := field.New(p)
	if err != nil {
		return nil, fmt.Errorf("invalid sharing.modulus: %w", err)
	}
	return f, nil
}

// RandConfig returns the randomness resolver configuration
func (c *Config) RandConfig() *rand.Config {
	mode, _ := rand.ParseMode(c.Sharing.RandMode)
	return &rand.Config{
		Mode: mode,
		Seed: []byte(c.Sharing.Seed),
	}
}

// NewLogger builds the logger described by the logging section
func (c *Config) NewLogger() logger.Logger {
	level, _ := logger.ParseLevel(c.Logging.Level)
	format, _ := logger.ParseFormat(c.Logging.Format)
	return logger.NewSlogAdapter(&logger.SlogConfig{Level: level, Format: format})
}

// OpenStorage opens the backend named by the storage section. The caller
// owns the returned backend.
func (c *Config) OpenStorage() (storage.Backend, error) {
	switch c.Storage.Backend {
	case StorageMemory:
		return storage.NewMemory(), nil
	case StorageFile:
		fs, err := file.New(c.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open share directory: %w", err)
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
}
