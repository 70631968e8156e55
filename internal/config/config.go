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
	Env        string           `yaml:"env" mapstructure:"env"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Governance GovernanceConfig `yaml:"governance" mapstructure:"governance"`
	Alerts     AlertsConfig     `yaml:"alerts" mapstructure:"alerts"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// IsProduction reports whether the configured environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// StoreConfig configures the proposal database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// ExportConfig configures signed export generation.
type ExportConfig struct {
	SigningSecret   string `yaml:"signing_secret" mapstructure:"signing_secret"`
	DefaultTTLHours int    `yaml:"default_ttl_hours" mapstructure:"default_ttl_hours"`
}

// GovernanceConfig configures the promotion workflow.
type GovernanceConfig struct {
	PatchDir string `yaml:"patch_dir" mapstructure:"patch_dir"`
}

// AlertsConfig configures webhook alert delivery.
type AlertsConfig struct {
	WebhookURL    string `yaml:"webhook_url" mapstructure:"webhook_url"`
	RatePerMinute int    `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
}

// CacheConfig configures the evaluation result cache.
type CacheConfig struct {
	MaxSize  int `yaml:"max_size" mapstructure:"max_size"`
	TTLHours int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("ABRAXAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("env", "development")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "abraxas.db")
	v.SetDefault("export.default_ttl_hours", 24)
	v.SetDefault("governance.patch_dir", "patches")
	v.SetDefault("alerts.rate_per_minute", 30)
	v.SetDefault("cache.max_size", 256)
	v.SetDefault("cache.ttl_hours", 1)
	v.SetDefault("server.port", 8080)
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

// Validate checks the configuration for the given run mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	if c.Cache.MaxSize < 1 {
		problems = append(problems, "cache.max_size must be >= 1")
	}
	if c.Export.DefaultTTLHours < 0 {
		problems = append(problems, "export.default_ttl_hours must be >= 0")
	}
	if c.Alerts.RatePerMinute < 1 {
		problems = append(problems, "alerts.rate_per_minute must be >= 1")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "cli":
		// No extra requirements beyond the shared checks.
	default:
		problems = append(problems, "unknown mode: "+mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
