// Package config loads application configuration from layered sources:
// built-in defaults, an optional YAML file, and environment variables,
// in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/glebkin/recbot/internal/gemini"
	"github.com/glebkin/recbot/internal/telegram"
)

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfigPaths are searched in order; the first existing file wins.
var defaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/recbot/config.yaml",
}

// Config holds all application configuration. Immutable after Load and
// safe for concurrent reads.
type Config struct {
	Telegram TelegramConfig `koanf:"telegram"`
	Gemini   GeminiConfig   `koanf:"gemini"`
	Session  SessionConfig  `koanf:"session"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// TelegramConfig holds Bot API settings.
type TelegramConfig struct {
	Token          string        `koanf:"token"           validate:"required"`
	BaseURL        string        `koanf:"base_url"`
	PollTimeout    time.Duration `koanf:"poll_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	SendRate       int           `koanf:"send_rate"`
}

// GeminiConfig holds recommendation backend settings.
type GeminiConfig struct {
	APIKey          string        `koanf:"api_key" validate:"required"`
	Model           string        `koanf:"model"`
	BaseURL         string        `koanf:"base_url"`
	Timeout         time.Duration `koanf:"timeout"`
	Temperature     float64       `koanf:"temperature"`
	MaxOutputTokens int           `koanf:"max_output_tokens"`
}

// SessionConfig holds session store settings. A zero TTL disables
// inactivity expiry.
type SessionConfig struct {
	TTL             time.Duration `koanf:"ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// defaultConfig returns the built-in defaults, overridden by file and
// env layers.
func defaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			BaseURL:        telegram.DefaultBaseURL,
			PollTimeout:    telegram.DefaultPollTimeout,
			RequestTimeout: telegram.DefaultRequestTimeout,
			SendRate:       30,
		},
		Gemini: GeminiConfig{
			Model:           gemini.DefaultModel,
			BaseURL:         gemini.DefaultBaseURL,
			Timeout:         gemini.DefaultTimeout,
			Temperature:     0.7,
			MaxOutputTokens: 1024,
		},
		Session: SessionConfig{
			TTL:             0, // sessions never expire by default
			CleanupInterval: 10 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment variables, then validates it. A .env file in the
// working directory is loaded into the environment first if present.
func Load() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// TELEGRAM_TOKEN -> telegram.token, GEMINI_API_KEY -> gemini.api_key.
	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// envTransform maps an environment variable name to a koanf path: the
// first underscore becomes the section delimiter, the rest of the name
// stays underscored. Unrelated variables map to paths no section uses.
func envTransform(name string) string {
	parts := strings.SplitN(strings.ToLower(name), "_", 2)
	return strings.Join(parts, ".")
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
