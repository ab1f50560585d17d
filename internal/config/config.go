// Package config provides application configuration loaded from a .env file,
// an optional config.toml and MG_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	API    APIConfig
	Cache  CacheConfig
	Auth   AuthConfig
	Log    LogConfig
	App    AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// APIConfig holds the remote API settings. Key is sent in the X-API-KEY header.
type APIConfig struct {
	BaseURL     string
	Key         string
	Timeout     time.Duration
	RetryMax    int
	PDFCacheTTL time.Duration
}

// CacheConfig selects the local cache database.
type CacheConfig struct {
	Driver string // sqlite or postgres
	DSN    string
}

// AuthConfig holds the operator credential and the session signing secret.
// PasswordHash is a bcrypt hash.
type AuthConfig struct {
	Username      string
	PasswordHash  string
	SessionSecret string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env string
	Dev bool
}

// IsPostgres reports whether the local cache lives in PostgreSQL.
func (c CacheConfig) IsPostgres() bool {
	if strings.EqualFold(c.Driver, "postgres") {
		return true
	}
	lower := strings.ToLower(c.DSN)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// Load reads configuration. Priority (highest to lowest):
//  1. environment variables with MG_ prefix (e.g. MG_API_KEY)
//  2. .env file in the working directory
//  3. config.toml
//  4. built-in defaults
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/backoffice")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("MG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
		},
		API: APIConfig{
			BaseURL:     v.GetString("api.base_url"),
			Key:         v.GetString("api.key"),
			Timeout:     v.GetDuration("api.timeout"),
			RetryMax:    v.GetInt("api.retry_max"),
			PDFCacheTTL: v.GetDuration("api.pdf_cache_ttl"),
		},
		Cache: CacheConfig{
			Driver: v.GetString("cache.driver"),
			DSN:    v.GetString("cache.dsn"),
		},
		Auth: AuthConfig{
			Username:      v.GetString("auth.username"),
			PasswordHash:  v.GetString("auth.password_hash"),
			SessionSecret: v.GetString("auth.session_secret"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		App: AppConfig{
			Env: v.GetString("app.env"),
			Dev: v.GetBool("app.dev"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Cache.DSN == "" {
		return fmt.Errorf("cache.dsn is required")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("api.base_url", "https://gestion.maghrebglobal.com/api/")
	v.SetDefault("api.key", "")
	v.SetDefault("api.timeout", 20*time.Second)
	v.SetDefault("api.retry_max", 2)
	v.SetDefault("api.pdf_cache_ttl", 5*time.Minute)

	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.dsn", "backoffice-cache.db")

	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password_hash", "")
	v.SetDefault("auth.session_secret", "devsessionsecret")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("app.env", "development")
	v.SetDefault("app.dev", false)
}
