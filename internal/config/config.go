package config

import (
	"fmt"
	"os"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	Redis    RedisConfig
	Auth     AuthConfig
}

// DatabaseConfig contains local store settings.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Address string // listen address (e.g., ":8080")
}

// RedisConfig contains remote mirror settings. An empty address disables the
// mirror entirely; the application then runs local-only.
type RedisConfig struct {
	Addr string
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string // JWT signing secret
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := defaults()
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg := defaults()
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "orders.db"),
		},
		HTTP: HTTPConfig{
			Address: getEnv("HTTP_ADDRESS", ":8080"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

// MirrorEnabled reports whether a remote mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.Redis.Addr != ""
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	mirror := c.Redis.Addr
	if mirror == "" {
		mirror = "disabled"
	}
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, Mirror: %s, Auth: *** (masked) ***}",
		c.Database.Path, c.HTTP.Address, mirror)
}
