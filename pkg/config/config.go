package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the session service.
type Config struct {
	AppEnv string `mapstructure:"app_env"`

	HTTP      HTTPConfig      `mapstructure:"http" validate:"required"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Session   SessionConfig   `mapstructure:"session" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig configures slog output.
type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`

	// File enables lumberjack rotation when a path is set; empty logs to
	// stdout.
	File LogFileConfig `mapstructure:"file"`
}

// LogFileConfig configures rotated file output.
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string `mapstructure:"environment"`
}

// SessionConfig configures the session slot and manager behavior.
type SessionConfig struct {
	// Storage selects the slot backend.
	Storage string `mapstructure:"storage" validate:"oneof=file redis"`
	// FilePath locates the slot file for the file backend.
	FilePath string `mapstructure:"file_path"`
	// RedirectDelay postpones post-login/post-signup navigation.
	RedirectDelay time.Duration `mapstructure:"redirect_delay"`
	// Language is the default toast language.
	Language string `mapstructure:"language"`
	// MessagesDir holds the YAML toast catalogs.
	MessagesDir string `mapstructure:"messages_dir" validate:"required"`
}

// AuthConfig selects and configures the authentication backend.
type AuthConfig struct {
	Backend          string        `mapstructure:"backend" validate:"oneof=simulated password"`
	SimulatedLatency time.Duration `mapstructure:"simulated_latency"`
	TokenSecret      string        `mapstructure:"token_secret" validate:"required,min=32"`
	TokenTTL         time.Duration `mapstructure:"token_ttl"`
}

// ProviderConfig configures the identity-provider exchange.
type ProviderConfig struct {
	SimulatedLatency time.Duration `mapstructure:"simulated_latency"`
}

// RedisConfig defines connection parameters for Redis.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// DatabaseConfig defines connection parameters for PostgreSQL, used by the
// password backend's account repository.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// RateLimitRule is a single limit/window pair.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig holds the per-operation auth limits.
type RateLimitConfig struct {
	Login    RateLimitRule `mapstructure:"login"`
	Signup   RateLimitRule `mapstructure:"signup"`
	Provider RateLimitRule `mapstructure:"provider"`
}
