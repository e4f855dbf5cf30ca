package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the root configuration for the gofind daemon.
type Config struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Scanner ScannerConfig `mapstructure:"scanner" yaml:"scanner"`
	Watcher WatcherConfig `mapstructure:"watcher" yaml:"watcher"`
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`

	// Roots is the initial set of directories to watch, applied on first
	// startup against an empty database. Existing WatchRoot rows in the
	// store always take precedence over this list on subsequent starts.
	Roots []string `mapstructure:"roots" yaml:"roots"`
}

// Load reads configuration from viper into a Config, applying defaults
// for any unset field first.
func Load() (*Config, error) {
	cfg := &Config{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}
