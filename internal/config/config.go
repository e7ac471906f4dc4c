package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/eventreg/internal/validation"
	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Seed        SeedConfig      `yaml:"seed"`
	Logging     LoggingConfig   `yaml:"logging"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	CORS        CORSConfig      `yaml:"cors"`
	Tracing     TracingConfig   `yaml:"tracing"`
	Environment string          `yaml:"environment"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	// URL is a postgres:// URL or a SQLite file path.
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
	AutoMigrate    bool   `yaml:"auto_migrate"`
	Seed           bool   `yaml:"seed"`
}

type SeedConfig struct {
	Users  int `yaml:"users"`
	Events int `yaml:"events"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RateLimitConfig struct {
	// PublicPerMinute of 0 disables rate limiting.
	PublicPerMinute   int      `yaml:"public_per_minute"`
	TrustedProxyCIDRs []string `yaml:"trusted_proxies"`
}

type CORSConfig struct {
	AllowAllOrigins bool     `yaml:"allow_all_origins"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether the server runs with production defaults.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment after loading an optional
// .env file from the working directory.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	env := getEnv("ENVIRONMENT", "development")
	cfg := Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", "data/database.db"),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 10),
			AutoMigrate:    getEnvBool("DATABASE_AUTO_MIGRATE", true),
			Seed:           getEnvBool("DATABASE_SEED", true),
		},
		Seed: SeedConfig{
			Users:  getEnvInt("SEED_USERS", 5),
			Events: getEnvInt("SEED_EVENTS", 5),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC", 120),
			TrustedProxyCIDRs: getEnvList("RATE_LIMIT_TRUSTED_PROXIES"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "stdout"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "eventreg"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Environment: env,
	}

	// Development and test accept any origin unless a whitelist is given.
	if !cfg.IsProduction() && len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowAllOrigins = true
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and production requirements.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("DATABASE_MAX_CONNECTIONS must be positive, got %d", c.Database.MaxConnections)
	}
	if c.Seed.Users < 0 || c.Seed.Events < 0 {
		return fmt.Errorf("SEED_USERS and SEED_EVENTS must not be negative")
	}
	if c.RateLimit.PublicPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PUBLIC must not be negative, got %d", c.RateLimit.PublicPerMinute)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be between 0.0 and 1.0, got %g", c.Tracing.SampleRate)
	}
	switch c.Tracing.Exporter {
	case "stdout", "otlp", "none":
	default:
		return fmt.Errorf("TRACING_EXPORTER must be stdout, otlp or none, got %q", c.Tracing.Exporter)
	}

	if c.IsProduction() && c.CORS.AllowAllOrigins {
		return fmt.Errorf("CORS must not allow all origins in production")
	}
	if c.IsProduction() && len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
	}
	for _, origin := range c.CORS.AllowedOrigins {
		if err := validation.ValidateOrigin(origin, "CORS_ALLOWED_ORIGINS"); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
