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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Socrata SocrataConfig `yaml:"socrata" mapstructure:"socrata"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Geo     GeoConfig     `yaml:"geo" mapstructure:"geo"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SocrataConfig holds the open-data portal settings and dataset identifiers.
type SocrataConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	AppToken     string  `yaml:"app_token" mapstructure:"app_token"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	PageSize     int     `yaml:"page_size" mapstructure:"page_size"`
	SignsID      string  `yaml:"signs_id" mapstructure:"signs_id"`
	MetersID     string  `yaml:"meters_id" mapstructure:"meters_id"`
	ViolationsID string  `yaml:"violations_id" mapstructure:"violations_id"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// GeoConfig configures the proximity core limits.
type GeoConfig struct {
	MaxRadiusMeters float64 `yaml:"max_radius_meters" mapstructure:"max_radius_meters"`
	BoundsFile      string  `yaml:"bounds_file" mapstructure:"bounds_file"`
}

// HistoryConfig configures search-history retention.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
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
	v.SetEnvPrefix("PARKSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "parkscout.db")
	v.SetDefault("socrata.base_url", "https://data.cityofnewyork.us")
	v.SetDefault("socrata.rate_limit", 5.0)
	v.SetDefault("socrata.page_size", 1000)
	v.SetDefault("socrata.signs_id", "nfid-uabd")
	v.SetDefault("socrata.meters_id", "693u-uax6")
	v.SetDefault("socrata.violations_id", "nc67-uf89")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("geo.max_radius_meters", 5000.0)
	v.SetDefault("history.max_entries", 100)
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
