// Package config loads application configuration for the CLI. Precedence is
// flags > environment > config file > defaults; flags are applied by the
// commands themselves, everything else resolves here through viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	// MaxRows caps how many result rows feed classification and charting.
	MaxRows int `mapstructure:"max_rows"`

	// OverridesPath points at the YAML chart override allow-list. Empty
	// means built-in overrides only.
	OverridesPath string `mapstructure:"overrides_path"`

	Metrics MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig configures the optional Datadog backend.
type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	JobName      string `mapstructure:"job_name"`
	Tags         string `mapstructure:"tags"` // comma-separated
	FlushSeconds int    `mapstructure:"flush_seconds"`
}

// DefaultMaxRows caps how many rows are classified and charted per result.
const DefaultMaxRows = 5000

// Load resolves configuration. cfgFile overrides the default search path
// (./cortexcharts.yaml, then $HOME/.config/cortexcharts/). A missing config
// file is not an error; a malformed one is.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("max_rows", DefaultMaxRows)
	v.SetDefault("overrides_path", "")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.job_name", "cortexcharts")
	v.SetDefault("metrics.flush_seconds", 60)

	v.SetEnvPrefix("CORTEXCHARTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("cortexcharts")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/cortexcharts")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.MaxRows < 0 {
		return nil, fmt.Errorf("config: max_rows must be >= 0, got %d", cfg.MaxRows)
	}
	return &cfg, nil
}
