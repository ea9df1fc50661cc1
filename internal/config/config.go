// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Sources  SourcesConfig  `yaml:"sources" mapstructure:"sources"`
	Matching MatchingConfig `yaml:"matching" mapstructure:"matching"`
	Weights  WeightsConfig  `yaml:"weights" mapstructure:"weights"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the audit-trail database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SourcesConfig configures the read-only market data store the gatherers
// query and the per-source time budget.
type SourcesConfig struct {
	DatabaseURL     string `yaml:"database_url" mapstructure:"database_url"`
	GatherTimeoutMS int    `yaml:"gather_timeout_ms" mapstructure:"gather_timeout_ms"`
	RetryAttempts   int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// MatchingConfig holds the title-matching calibration constants. The
// per-tier match qualities are calibration defaults carried over from the
// original weight tuning, not derived values.
type MatchingConfig struct {
	SimilarityThreshold   float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	FamilyMatchQuality    float64 `yaml:"family_match_quality" mapstructure:"family_match_quality"`
	FuzzyMatchQuality     float64 `yaml:"fuzzy_match_quality" mapstructure:"fuzzy_match_quality"`
	SubstringMatchQuality float64 `yaml:"substring_match_quality" mapstructure:"substring_match_quality"`
	InternalMatchQuality  float64 `yaml:"internal_match_quality" mapstructure:"internal_match_quality"`
	ApplicantMatchQuality float64 `yaml:"applicant_match_quality" mapstructure:"applicant_match_quality"`
	ApplicantMaxAgeMonths int     `yaml:"applicant_max_age_months" mapstructure:"applicant_max_age_months"`
}

// WeightsConfig selects the active source-weight profile.
type WeightsConfig struct {
	ProfilePath string `yaml:"profile_path" mapstructure:"profile_path"`
	Profile     string `yaml:"profile" mapstructure:"profile"`
}

// BatchConfig configures bulk pricing.
type BatchConfig struct {
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs" mapstructure:"max_concurrent_jobs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port          int     `yaml:"port" mapstructure:"port"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRICING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("sources.gather_timeout_ms", 5000)
	v.SetDefault("sources.retry_attempts", 2)
	v.SetDefault("matching.similarity_threshold", 0.3)
	v.SetDefault("matching.family_match_quality", 0.9)
	v.SetDefault("matching.fuzzy_match_quality", 0.75)
	v.SetDefault("matching.substring_match_quality", 0.6)
	v.SetDefault("matching.internal_match_quality", 0.9)
	v.SetDefault("matching.applicant_match_quality", 0.7)
	v.SetDefault("matching.applicant_max_age_months", 24)
	v.SetDefault("weights.profile", "default")
	v.SetDefault("batch.max_concurrent_jobs", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 10)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
