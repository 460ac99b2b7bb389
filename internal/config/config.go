package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration. The platform token is the only hard
// requirement; either translation provider may be left unconfigured and is
// then simply disabled.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DiscordToken  string `envconfig:"DISCORD_TOKEN"`
	CommandPrefix string `envconfig:"COMMAND_PREFIX" default:"!"`

	DeepLKey      string `envconfig:"DEEPL_KEY"`
	DeepLEndpoint string `envconfig:"DEEPL_ENDPOINT" default:""`
	AzureKey      string `envconfig:"AZURE_KEY"`
	AzureRegion   string `envconfig:"AZURE_REGION"`
	AzureEndpoint string `envconfig:"AZURE_ENDPOINT" default:""`

	LanguagesFile string `envconfig:"LANGUAGES_FILE" default:""`

	TranslateTimeout time.Duration `envconfig:"TRANSLATE_TIMEOUT" default:"10s"`
	MaxInFlight      int64         `envconfig:"MAX_IN_FLIGHT" default:"10"`
	CacheCapacity    int           `envconfig:"CACHE_CAPACITY" default:"5000"`
	CacheKeyPrefix   int           `envconfig:"CACHE_KEY_PREFIX" default:"50"`
	FieldLimit       int           `envconfig:"FIELD_LIMIT" default:"1024"`
	DedupRelease     time.Duration `envconfig:"DEDUP_RELEASE" default:"2s"`

	DatabaseURL      string        `envconfig:"DATABASE_URL" default:""`
	SnapshotFile     string        `envconfig:"GLOSSA_SNAPSHOT_FILE" default:"glossa-settings.json"`
	SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"5m"`

	StatusHost string `envconfig:"STATUS_HOST" default:"0.0.0.0"`
	StatusPort int    `envconfig:"STATUS_PORT" default:"8080"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks structural settings only. DISCORD_TOKEN is checked by the
// gateway command; one-shot commands run without it.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CommandPrefix) == "" {
		return fmt.Errorf("COMMAND_PREFIX must not be empty")
	}
	if c.TranslateTimeout <= 0 {
		return fmt.Errorf("TRANSLATE_TIMEOUT must be positive")
	}
	if c.MaxInFlight < 1 {
		return fmt.Errorf("MAX_IN_FLIGHT must be >= 1")
	}
	if c.CacheCapacity < 1 {
		return fmt.Errorf("CACHE_CAPACITY must be >= 1")
	}
	if c.CacheKeyPrefix < 1 {
		return fmt.Errorf("CACHE_KEY_PREFIX must be >= 1")
	}
	if c.FieldLimit < 1 {
		return fmt.Errorf("FIELD_LIMIT must be >= 1")
	}
	if c.StatusPort <= 0 || c.StatusPort > 65535 {
		return fmt.Errorf("STATUS_PORT must be between 1 and 65535")
	}
	if strings.TrimSpace(c.AzureKey) != "" && strings.TrimSpace(c.AzureRegion) == "" {
		return fmt.Errorf("AZURE_REGION is required when AZURE_KEY is set")
	}
	return nil
}

// DeepLEnabled reports whether the primary provider is configured.
func (c *Config) DeepLEnabled() bool {
	return strings.TrimSpace(c.DeepLKey) != ""
}

// AzureEnabled reports whether the fallback/detection provider is
// configured.
func (c *Config) AzureEnabled() bool {
	return strings.TrimSpace(c.AzureKey) != "" && strings.TrimSpace(c.AzureRegion) != ""
}
