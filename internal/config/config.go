// Package config loads service settings from .env, an optional config file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	CORSOrigin  string `mapstructure:"CORS_ORIGIN"`
	AdminToken  string `mapstructure:"V4ULT_ADMIN_TOKEN"`

	ShortCodePrefix string        `mapstructure:"SHORT_CODE_PREFIX"`
	RevealPrice     int           `mapstructure:"REVEAL_PRICE"`
	RevealCurrency  string        `mapstructure:"REVEAL_CURRENCY"`
	PaymentCooldown time.Duration `mapstructure:"PAYMENT_COOLDOWN"`

	PerspectiveAPIKey string `mapstructure:"PERSPECTIVE_API_KEY"`
	PerspectiveAPIURL string `mapstructure:"PERSPECTIVE_API_URL"`

	SupabaseURL            string        `mapstructure:"SUPABASE_URL"`
	SupabaseServiceRoleKey string        `mapstructure:"SUPABASE_SERVICE_ROLE_KEY"`
	AllowUnverifiedAuthors bool          `mapstructure:"ALLOW_UNVERIFIED_AUTHORS"`
	IdentityCacheTTL       time.Duration `mapstructure:"IDENTITY_CACHE_TTL"`

	RedisURL            string `mapstructure:"REDIS_URL"`
	DiscordWebhookID    string `mapstructure:"DISCORD_WEBHOOK_ID"`
	DiscordWebhookToken string `mapstructure:"DISCORD_WEBHOOK_TOKEN"`

	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"`
	ProviderTimeout time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
}

var defaults = map[string]any{
	"PORT":                      "8080",
	"DATABASE_URL":              "sqlite://v4ult.db",
	"CORS_ORIGIN":               "*",
	"V4ULT_ADMIN_TOKEN":         "",
	"SHORT_CODE_PREFIX":         "STC",
	"REVEAL_PRICE":              99,
	"REVEAL_CURRENCY":           "INR",
	"PAYMENT_COOLDOWN":          5 * time.Second,
	"PERSPECTIVE_API_KEY":       "",
	"PERSPECTIVE_API_URL":       "https://commentanalyzer.googleapis.com/v1alpha1/comments:analyze",
	"SUPABASE_URL":              "",
	"SUPABASE_SERVICE_ROLE_KEY": "",
	"ALLOW_UNVERIFIED_AUTHORS":  false,
	"IDENTITY_CACHE_TTL":        5 * time.Minute,
	"REDIS_URL":                 "",
	"DISCORD_WEBHOOK_ID":        "",
	"DISCORD_WEBHOOK_TOKEN":     "",
	"LOG_LEVEL":                 "info",
	"LOG_FORMAT":                "text",
	"PROVIDER_TIMEOUT":          3 * time.Second,
}

// Load reads .env when present, then path when non-empty, then the
// environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.PaymentCooldown <= 0 {
		cfg.PaymentCooldown = 5 * time.Second
	}
	return &cfg, nil
}
