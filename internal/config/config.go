// Package config loads application configuration from the environment and an optional .env file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Database DatabaseConfig
	AI       AIConfig
	Auth     AuthConfig
	Store    StoreConfig
	Session  SessionConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int
	StaticDir    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	Schema       string
	MaxOpenConns int
	MaxIdleConns int
}

// AIConfig holds hosted model and OCR settings.
type AIConfig struct {
	Enabled        bool
	Region         string
	TextModel      string
	VisionModel    string
	VisionAltModel string
	TesseractPath  string
	RateLimitRPS   float64
	RateLimitBurst int
}

// AuthConfig holds session token and account settings.
type AuthConfig struct {
	// TokenKey is the hex-encoded PASETO v4 symmetric key. Empty means generate one per process.
	TokenKey    string
	TokenTTL    time.Duration
	AdminEmails []string
}

// StoreConfig holds local key/value store settings.
type StoreConfig struct {
	// Path of the badger directory. Empty runs in memory.
	Path string
}

// SessionConfig holds the session refresh policy.
type SessionConfig struct {
	RefreshInterval time.Duration
	TypingDebounce  time.Duration
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.Username, d.Password, d.Database, d.Port)
	if d.Schema != "" {
		dsn += " search_path=" + d.Schema
	}
	return dsn
}

// Load reads configuration with precedence environment > .env file > defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// A missing .env is fine; the environment may carry everything.
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{
		App:    AppConfig{Environment: getEnv("ENV", "development")},
		Logger: LoggerConfig{Level: getEnv("LOG_LEVEL", "info")},
		Server: ServerConfig{
			StaticDir: getEnv("STATIC_DIR", "./dist"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("BLUEPRINT_DB_HOST", "localhost"),
			Port:     getEnv("BLUEPRINT_DB_PORT", "5432"),
			Username: getEnv("BLUEPRINT_DB_USERNAME", "postgres"),
			Password: getEnv("BLUEPRINT_DB_PASSWORD", ""),
			Database: getEnv("BLUEPRINT_DB_DATABASE", "todo"),
			Schema:   getEnv("BLUEPRINT_DB_SCHEMA", ""),
		},
		AI: AIConfig{
			Region:         getEnv("AWS_REGION", "us-east-1"),
			TextModel:      getEnv("BEDROCK_TEXT_MODEL", "us.anthropic.claude-3-5-sonnet-20241022-v2:0"),
			VisionModel:    getEnv("BEDROCK_VISION_MODEL", "anthropic.claude-3-5-sonnet-20240620-v1:0"),
			VisionAltModel: getEnv("BEDROCK_VISION_ALT_MODEL", "anthropic.claude-3-haiku-20240307-v1:0"),
			TesseractPath:  getEnv("TESSERACT_PATH", ""),
		},
		Auth: AuthConfig{
			TokenKey:    getEnv("TOKEN_KEY", ""),
			AdminEmails: splitList(getEnv("ADMIN_EMAILS", "")),
		},
		Store: StoreConfig{Path: getEnv("LOCAL_STORE_PATH", "")},
	}

	var err error
	if cfg.Server.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 100); err != nil {
		return nil, err
	}
	if cfg.Database.MaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.AI.RateLimitBurst, err = getInt("AI_RATE_LIMIT_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.AI.RateLimitRPS, err = getFloat("AI_RATE_LIMIT_RPS", 1); err != nil {
		return nil, err
	}
	if cfg.AI.Enabled, err = getBool("AI_ENABLED", true); err != nil {
		return nil, err
	}

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", "10s", &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", "30s", &cfg.Server.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", "1m", &cfg.Server.IdleTimeout},
		{"TOKEN_TTL", "24h", &cfg.Auth.TokenTTL},
		{"REFRESH_INTERVAL", "30s", &cfg.Session.RefreshInterval},
		{"TYPING_DEBOUNCE", "3s", &cfg.Session.TypingDebounce},
	}
	for _, d := range durations {
		raw := getEnv(d.key, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.key, raw, err)
		}
		*d.dest = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Auth.TokenKey != "" {
		key, err := hex.DecodeString(c.Auth.TokenKey)
		if err != nil || len(key) != 32 {
			return errors.New("TOKEN_KEY must be 64 hex characters")
		}
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.Session.RefreshInterval <= 0 {
		return errors.New("REFRESH_INTERVAL must be positive")
	}
	if c.AI.RateLimitRPS <= 0 || c.AI.RateLimitBurst <= 0 {
		return errors.New("AI rate limit must be positive")
	}
	return nil
}

// IsAdminEmail reports whether email is configured as an administrator.
func (c AuthConfig) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, admin := range c.AdminEmails {
		if admin == email {
			return true
		}
	}
	return false
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getFloat(key string, def float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getBool(key string, def bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
