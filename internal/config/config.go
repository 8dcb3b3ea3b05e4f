package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"savdash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	AI         AIConfig         `mapstructure:"ai"`
	Server     ServerConfig     `mapstructure:"server"`
	Data       DataConfig       `mapstructure:"data"`
	Statistics StatisticsConfig `mapstructure:"statistics"`
	Log        LogConfig        `mapstructure:"log"`
}

// DatabaseConfig holds database connection settings. An empty URL selects the
// in-memory repositories.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// AIConfig holds AI/LLM related settings
type AIConfig struct {
	Provider            string        `mapstructure:"provider"` // "openai" | "anthropic"
	APIKey              string        `mapstructure:"api_key"`
	Model               string        `mapstructure:"model"`
	BaseURL             string        `mapstructure:"base_url"`
	MaxTokens           int           `mapstructure:"max_tokens"`
	Temperature         float64       `mapstructure:"temperature"`
	Timeout             time.Duration `mapstructure:"timeout"`
	FallbackToHeuristic bool          `mapstructure:"fallback_to_heuristic"`
}

// Enabled reports whether an external model is configured
func (c AIConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DataConfig holds data loading settings
type DataConfig struct {
	ExcelFile string `mapstructure:"excel_file"`
}

// StatisticsConfig tunes the statistics engine
type StatisticsConfig struct {
	TopN               int      `mapstructure:"top_n"`
	Workers            int      `mapstructure:"workers"`
	HighMissingPercent float64  `mapstructure:"high_missing_percent"`
	MissingPhrases     []string `mapstructure:"missing_phrases"` // extra non-substantive labels
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional config.yaml and SAVDASH_* environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SAVDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Keys without a default are not visible to Unmarshal through AutomaticEnv.
	v.SetDefault("database.url", "")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gpt-4.1-mini")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.max_tokens", 4000)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.fallback_to_heuristic", true)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("data.excel_file", "")
	v.SetDefault("statistics.top_n", 10)
	v.SetDefault("statistics.workers", 4)
	v.SetDefault("statistics.high_missing_percent", 20.0)
	v.SetDefault("statistics.missing_phrases", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func validateConfig(config *Config) error {
	switch config.AI.Provider {
	case "openai", "anthropic":
	default:
		return errors.ConfigInvalid("ai.provider must be openai or anthropic")
	}
	if config.Statistics.TopN <= 0 {
		return errors.ConfigInvalid("statistics.top_n must be positive")
	}
	if config.Statistics.Workers <= 0 {
		return errors.ConfigInvalid("statistics.workers must be positive")
	}
	if config.Statistics.HighMissingPercent < 0 || config.Statistics.HighMissingPercent > 100 {
		return errors.ConfigInvalid("statistics.high_missing_percent must be between 0 and 100")
	}
	if config.AI.Timeout <= 0 {
		return errors.ConfigInvalid("ai.timeout must be positive")
	}
	return nil
}

// InitLogger initializes the global zap logger
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
