// Package config provides configuration management for the backtester.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Backtest BacktestConfig `mapstructure:"backtest"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	UI       UIConfig       `mapstructure:"ui"`
}

// BacktestConfig holds default engine parameters; CLI flags override
// them per run.
type BacktestConfig struct {
	StartingCash   float64 `mapstructure:"starting_cash"`
	CommissionBPS  float64 `mapstructure:"commission_bps"`
	SlippageBPS    float64 `mapstructure:"slippage_bps"`
	JitterBPS      float64 `mapstructure:"jitter_bps"`
	MaxLeverage    float64 `mapstructure:"max_leverage"`
	AllowShort     bool    `mapstructure:"allow_short"`
	Seed           int64   `mapstructure:"seed"`
	PeriodsPerYear float64 `mapstructure:"periods_per_year"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	TimeFormat   string `mapstructure:"time_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/quantbt"
	}
	return filepath.Join(home, ".config", "quantbt")
}

// DefaultDBPath returns the default results database path.
func DefaultDBPath() string {
	return filepath.Join(DefaultConfigDir(), "quantbt.db")
}

// Load loads configuration from the specified directory. If configDir
// is empty, uses the default config directory. A missing config file
// creates a template and returns defaults.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backtest.starting_cash", 100000.0)
	v.SetDefault("backtest.commission_bps", 0.0)
	v.SetDefault("backtest.slippage_bps", 0.0)
	v.SetDefault("backtest.jitter_bps", 0.0)
	v.SetDefault("backtest.max_leverage", 0.0)
	v.SetDefault("backtest.allow_short", false)
	v.SetDefault("backtest.seed", 1)
	v.SetDefault("backtest.periods_per_year", 252.0)
	v.SetDefault("storage.db_path", DefaultDBPath())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.time_format", "2006-01-02 15:04")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QUANTBT_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("QUANTBT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("QUANTBT_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Backtest.Seed = seed
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Backtest.StartingCash <= 0 {
		return fmt.Errorf("starting_cash must be positive")
	}
	if c.Backtest.CommissionBPS < 0 {
		return fmt.Errorf("commission_bps must be non-negative")
	}
	if c.Backtest.SlippageBPS < 0 || c.Backtest.JitterBPS < 0 {
		return fmt.Errorf("slippage_bps and jitter_bps must be non-negative")
	}
	if c.Backtest.MaxLeverage < 0 {
		return fmt.Errorf("max_leverage must be non-negative (0 = unbounded)")
	}
	if c.Backtest.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods_per_year must be positive")
	}
	return nil
}
