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
	Suitability SuitabilityConfig `yaml:"suitability" mapstructure:"suitability"`
	Rank        RankConfig        `yaml:"rank" mapstructure:"rank"`
	Batch       BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Planting    PlantingConfig    `yaml:"planting" mapstructure:"planting"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// SuitabilityConfig describes the catalog columns and the scoring features.
type SuitabilityConfig struct {
	IDs      IDsConfig                `yaml:"ids" mapstructure:"ids"`
	Names    NamesConfig              `yaml:"names" mapstructure:"names"`
	Features map[string]FeatureConfig `yaml:"features" mapstructure:"features"`
}

// IDsConfig names the identifier columns of the input tables.
type IDsConfig struct {
	Species string `yaml:"species" mapstructure:"species"`
	Farm    string `yaml:"farm" mapstructure:"farm"`
}

// NamesConfig names the display-name columns of the species catalog.
type NamesConfig struct {
	Species string `yaml:"species" mapstructure:"species"`
	Common  string `yaml:"common" mapstructure:"common"`
}

// FeatureConfig is the configured shape of one feature.
type FeatureConfig struct {
	Type               string                        `yaml:"type" mapstructure:"type"`
	Short              string                        `yaml:"short" mapstructure:"short"`
	ScoreMethod        string                        `yaml:"score_method" mapstructure:"score_method"`
	CompatibilityPairs map[string]map[string]float64 `yaml:"compatibility_pairs" mapstructure:"compatibility_pairs"`
}

// RankConfig configures recommendation ranking.
type RankConfig struct {
	Precision  int `yaml:"precision" mapstructure:"precision"`
	MaxReasons int `yaml:"max_reasons" mapstructure:"max_reasons"`
}

// BatchConfig configures multi-farm evaluation.
type BatchConfig struct {
	MaxConcurrentFarms int `yaml:"max_concurrent_farms" mapstructure:"max_concurrent_farms"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers" mapstructure:"trust_proxy_headers"`
}

// PlantingConfig configures planting plan estimation.
type PlantingConfig struct {
	SpacingM        float64 `yaml:"spacing_m" mapstructure:"spacing_m"`
	MaxSlopeDeg     float64 `yaml:"max_slope_deg" mapstructure:"max_slope_deg"`
	RotationStepDeg float64 `yaml:"rotation_step_deg" mapstructure:"rotation_step_deg"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An empty path searches
// the working directory for config.yaml, which is optional.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("SUITABILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("suitability.ids.species", "species_id")
	v.SetDefault("suitability.ids.farm", "farm_id")
	v.SetDefault("suitability.names.species", "species_name")
	v.SetDefault("suitability.names.common", "species_common_name")
	v.SetDefault("rank.precision", 3)
	v.SetDefault("rank.max_reasons", 3)
	v.SetDefault("batch.max_concurrent_farms", 4)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "suitability.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.trust_proxy_headers", false)
	v.SetDefault("planting.spacing_m", 3.0)
	v.SetDefault("planting.max_slope_deg", 15.0)
	v.SetDefault("planting.rotation_step_deg", 1.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
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
