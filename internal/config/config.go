package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// PolicyConfig holds the tunable thresholds and bounds of the transformation
// pipeline.
type PolicyConfig struct {
	RecursiveThreshold float64 `mapstructure:"recursive_threshold"`
	AttractorThreshold int     `mapstructure:"attractor_threshold"`
	MaxBleed           int     `mapstructure:"max_bleed"`
	MaxJourney         int     `mapstructure:"max_journey"`
	MaxRule            int     `mapstructure:"max_rule"`
	MaxTotal           int     `mapstructure:"max_total"`
	MaxSpans           int     `mapstructure:"max_spans"`
	LoopStrength       float64 `mapstructure:"loop_strength"`
	FocusImbalance     float64 `mapstructure:"focus_imbalance"`
	Volatility         float64 `mapstructure:"volatility"`
	ThematicStrength   float64 `mapstructure:"thematic_strength"`
}

// CacheConfig holds the entry limits of each cache.
type CacheConfig struct {
	Conditions int `mapstructure:"conditions"`
	Rules      int `mapstructure:"rules"`
	Master     int `mapstructure:"master"`
	Bleed      int `mapstructure:"bleed"`
	Analyzer   int `mapstructure:"analyzer"`
	Matchers   int `mapstructure:"matchers"`
	Matches    int `mapstructure:"matches"`
	Parse      int `mapstructure:"parse"`
	Select     int `mapstructure:"select"`
}

// Config holds all runtime configuration for palimpsest.
// Values are populated from .palimpsest.yaml, PALIMPSEST_* env vars, and CLI flags.
type Config struct {
	LogLevel      string       `mapstructure:"log_level"`
	TelemetryPath string       `mapstructure:"telemetry_path"`
	DBPath        string       `mapstructure:"db_path"`
	Saturation    int          `mapstructure:"saturation"`
	RecentPathLen int          `mapstructure:"recent_path_len"`
	Policy        PolicyConfig `mapstructure:"policy"`
	Cache         CacheConfig  `mapstructure:"cache"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("db_path", "palimpsest.db")
	viper.SetDefault("saturation", 5)
	viper.SetDefault("recent_path_len", 5)

	viper.SetDefault("policy.recursive_threshold", 0.5)
	viper.SetDefault("policy.attractor_threshold", 3)
	viper.SetDefault("policy.max_bleed", 3)
	viper.SetDefault("policy.max_journey", 4)
	viper.SetDefault("policy.max_rule", 3)
	viper.SetDefault("policy.max_total", 10)
	viper.SetDefault("policy.max_spans", 8)
	viper.SetDefault("policy.loop_strength", 0.5)
	viper.SetDefault("policy.focus_imbalance", 0.6)
	viper.SetDefault("policy.volatility", 0.5)
	viper.SetDefault("policy.thematic_strength", 0.6)

	viper.SetDefault("cache.conditions", 500)
	viper.SetDefault("cache.rules", 200)
	viper.SetDefault("cache.master", 100)
	viper.SetDefault("cache.bleed", 100)
	viper.SetDefault("cache.analyzer", 100)
	viper.SetDefault("cache.matchers", 256)
	viper.SetDefault("cache.matches", 512)
	viper.SetDefault("cache.parse", 128)
	viper.SetDefault("cache.select", 128)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.Policy.MaxTotal < 1 {
		return Config{}, fmt.Errorf("config: policy.max_total must be positive, got %d", cfg.Policy.MaxTotal)
	}
	return cfg, nil
}
