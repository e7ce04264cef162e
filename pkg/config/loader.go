// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"os"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from the per-environment YAML file and
// environment variables, validates it, and returns the resulting Config.
func Load() (*Config, *viper.Viper, error) {
	if err := godotenv.Load(".env.local", ".env"); err != nil {
		// env files are optional
		_ = err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("session.storage", "file")
	v.SetDefault("session.file_path", "data/session.json")
	v.SetDefault("session.redirect_delay", "1s")
	v.SetDefault("session.language", "en")
	v.SetDefault("session.messages_dir", "internal/i18n/messages")
	v.SetDefault("auth.backend", "simulated")
	v.SetDefault("auth.simulated_latency", "1500ms")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("provider.simulated_latency", "1500ms")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("rate_limit.login.limit", 10)
	v.SetDefault("rate_limit.login.window", "1m")
	v.SetDefault("rate_limit.signup.limit", 5)
	v.SetDefault("rate_limit.signup.window", "1m")
	v.SetDefault("rate_limit.provider.limit", 10)
	v.SetDefault("rate_limit.provider.window", "1m")
}
