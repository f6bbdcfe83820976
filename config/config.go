package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Vacation VacationConfig `mapstructure:"vacation"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig represents SQLite configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AuthConfig represents JWT configuration
type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenExpiry string `mapstructure:"token_expiry"`
}

// VacationConfig represents vacation defaults
type VacationConfig struct {
	DefaultAllowanceDays int `mapstructure:"default_allowance_days"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/timekeep")
	}

	v.SetEnvPrefix("TIMEKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.path", "./data/timekeep.db")
	// An explicit empty default so AutomaticEnv can see the key during
	// Unmarshal; viper only consults the environment for known keys.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_expiry", "24h")
	v.SetDefault("vacation.default_allowance_days", 30)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env vars and defaults cover everything
		// except the JWT secret.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (TIMEKEEP_AUTH_JWT_SECRET)")
	}
	if c.Vacation.DefaultAllowanceDays < 0 {
		return fmt.Errorf("vacation.default_allowance_days must not be negative")
	}
	return nil
}

// GetTokenExpiry returns the token lifetime
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	duration, err := time.ParseDuration(c.TokenExpiry)
	if err != nil || duration <= 0 {
		return 24 * time.Hour
	}
	return duration
}

// GetShutdownTimeout returns the graceful shutdown timeout
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	duration, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil || duration <= 0 {
		return 10 * time.Second
	}
	return duration
}
