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

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeremyhahn/go-shamir/internal/config"
	"github.com/jeremyhahn/go-shamir/internal/service"
	"github.com/jeremyhahn/go-shamir/pkg/logger"
	"github.com/jeremyhahn/go-shamir/pkg/sharestore"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag names double as viper keys. With the SSS_ prefix and "-" mapped to
// "_" each one is also read from the environment, e.g. SSS_SHARE_DIR.
const (
	keyModulus  = "modulus"
	keyRandMode = "rand-mode"
	keySeed     = "seed"
	keyShareDir = "share-dir"
	keyLogLevel = "log-level"
)

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to an optional YAML file in the sssd format
	ConfigFile string

	// OutputFormat controls output formatting (json, text, table)
	OutputFormat string

	// Verbose enables debug logging on stderr
	Verbose bool

	v   *viper.Viper
	fs  afero.Fs
	cmd *cobra.Command
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix("SSS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &Config{
		OutputFormat: string(OutputFormatText),
		v:            v,
		fs:           afero.NewOsFs(),
	}
}

// bind attaches the persistent flags of the executing command to viper.
func (c *Config) bind(cmd *cobra.Command) error {
	c.cmd = cmd
	for _, key := range []string{keyModulus, keyRandMode, keySeed, keyShareDir, keyLogLevel} {
		if err := c.v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(key)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", key, err)
		}
	}
	if _, err := ParseOutputFormat(c.OutputFormat); err != nil {
		return err
	}
	return nil
}

// Load returns the application configuration: defaults, then the config
// file, then SSS_* environment variables, then command line flags.
func (c *Config) Load() (*config.Config, error) {
	path := c.ConfigFile
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if c.v.IsSet(keyModulus) {
		cfg.Sharing.Modulus = c.v.GetString(keyModulus)
	}
	if c.v.IsSet(keyRandMode) {
		cfg.Sharing.RandMode = c.v.GetString(keyRandMode)
	}
	if c.v.IsSet(keySeed) {
		cfg.Sharing.Seed = c.v.GetString(keySeed)
	}
	if c.v.IsSet(keyShareDir) {
		cfg.Storage.Backend = config.StorageFile
		cfg.Storage.Path = c.v.GetString(keyShareDir)
	}

	// The CLI is quiet unless asked otherwise; stdout carries results.
	cfg.Logging.Level = "warn"
	if c.v.IsSet(keyLogLevel) {
		cfg.Logging.Level = c.v.GetString(keyLogLevel)
	}
	if c.Verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Logger returns a logger writing to the command's stderr.
func (c *Config) Logger(cfg *config.Config) logger.Logger {
	level, _ := logger.ParseLevel(cfg.Logging.Level)
	format, _ := logger.ParseFormat(cfg.Logging.Format)
	out := c.cmd.ErrOrStderr()
	return logger.NewSlogAdapter(&logger.SlogConfig{Output: out, Level: level, Format: format})
}

// Printer returns a printer for the command's stdout.
func (c *Config) Printer() *Printer {
	return NewPrinter(c.OutputFormat, c.cmd.OutOrStdout())
}

// session bundles a sharing service with the backend it owns.
type session struct {
	svc     *service.SharingService
	backend storage.Backend

	// dir is the share store directory, empty for the memory backend
	dir string
}

func (s *session) Close() {
	_ = s.svc.Close()
	if s.backend != nil {
		_ = s.backend.Close()
	}
}

// openService builds a sharing service. When withStore is set the share
// store named by the configuration is opened as well.
func (c *Config) openService(withStore bool) (*session, error) {
	cfg, err := c.Load()
	if err != nil {
		return nil, err
	}
	log := c.Logger(cfg)

	s := &session{}
	var store *sharestore.Store
	if withStore {
		s.backend, err = cfg.OpenStorage()
		if err != nil {
			return nil, err
		}
		if cfg.Storage.Backend == config.StorageFile {
			s.dir = cfg.Storage.Path
		}
		store, err = sharestore.New(&sharestore.Config{Backend: s.backend, Logger: log})
		if err != nil {
			_ = s.backend.Close()
			return nil, err
		}
	}

	s.svc, err = service.NewFromConfig(cfg, store, log)
	if err != nil {
		if s.backend != nil {
			_ = s.backend.Close()
		}
		return nil, err
	}
	return s, nil
}
