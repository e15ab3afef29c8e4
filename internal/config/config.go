// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"fxwallet/internal/cache"
	"fxwallet/internal/exchange"
	"fxwallet/internal/notify"
	"fxwallet/internal/util"
	"fxwallet/pkg/db" // Import db package for its Config struct
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	DB         db.Config
	Redis      cache.Config
	Provider   exchange.Config
	Auth       AuthConfig
	Registry   RegistryConfig
	Email      notify.MailjetConfig // disabled when the keys are empty
	Log        util.LogConfig
	Limits     LimitsConfig
}

// AuthConfig holds the shared secret used to verify bearer tokens.
type AuthConfig struct {
	JWTSecret string
}

// RegistryConfig controls the currency registry cache.
type RegistryConfig struct {
	CacheKey        string
	TTL             time.Duration
	RefreshSchedule string // cron spec; empty disables scheduled refresh
}

// LimitsConfig holds request throttling settings.
type LimitsConfig struct {
	EvaluateInterval time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "user")
	v.SetDefault("db.password", "password")
	v.SetDefault("db.name", "fxwallet")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("provider.base_url", "https://api.apilayer.com/currency_data")
	v.SetDefault("provider.rates_path", "/live")
	v.SetDefault("provider.list_path", "/list")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.timeout", "10s")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("registry.cache_key", "currencies")
	v.SetDefault("registry.ttl", "720h") // 30 days
	v.SetDefault("registry.refresh_schedule", "@daily")

	v.SetDefault("email.api_key", "")
	v.SetDefault("email.secret_key", "")
	v.SetDefault("email.from_email", "")
	v.SetDefault("email.from_name", "FX Wallet")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.filename", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_age", 30)

	v.SetDefault("limits.evaluate_interval", "5s")
}

// LoadConfig loads configuration from .env, an optional configs/config.yaml and
// environment variables (DB_HOST, PROVIDER_API_KEY, ...), in increasing priority.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &AppConfig{
		ServerPort: v.GetString("server.port"),
		DB: db.Config{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		Redis: cache.Config{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Provider: exchange.Config{
			BaseURL:   v.GetString("provider.base_url"),
			RatesPath: v.GetString("provider.rates_path"),
			ListPath:  v.GetString("provider.list_path"),
			APIKey:    v.GetString("provider.api_key"),
			Timeout:   v.GetDuration("provider.timeout"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
		Registry: RegistryConfig{
			CacheKey:        v.GetString("registry.cache_key"),
			TTL:             v.GetDuration("registry.ttl"),
			RefreshSchedule: v.GetString("registry.refresh_schedule"),
		},
		Email: notify.MailjetConfig{
			APIKey:    v.GetString("email.api_key"),
			SecretKey: v.GetString("email.secret_key"),
			FromEmail: v.GetString("email.from_email"),
			FromName:  v.GetString("email.from_name"),
		},
		Log: util.LogConfig{
			Level:    v.GetString("log.level"),
			Format:   v.GetString("log.format"),
			Filename: v.GetString("log.filename"),
			MaxSize:  v.GetInt("log.max_size"),
			MaxAge:   v.GetInt("log.max_age"),
		},
		Limits: LimitsConfig{
			EvaluateInterval: v.GetDuration("limits.evaluate_interval"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the service cannot run without.
func (c *AppConfig) Validate() error {
	if c.DB.Port <= 0 {
		return fmt.Errorf("invalid DB_PORT: %d", c.DB.Port)
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("PROVIDER_BASE_URL is required")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if c.Registry.TTL <= 0 {
		return fmt.Errorf("REGISTRY_TTL must be positive")
	}
	return nil
}
