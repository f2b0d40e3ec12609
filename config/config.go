// Package config loads runtime settings from the environment, after
// overlaying an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/B-Mitchell/JobRecruit/db"
)

// Config is everything cmd/server needs to start.
type Config struct {
	DatabaseURL     string
	DBDriver        string
	MaxOpenConns    int
	MaxIdleConns    int
	QueryTimeout    time.Duration
	SlowQuery       time.Duration
	LogQueryArgs    bool
	HTTPAddr        string
	LogLevel        slog.Level
	AutoMigrate     bool
	AllowedOrigins  []string
	IdentityHeader  string
	EmailHeader     string
	ShutdownTimeout time.Duration
}

// Load reads .env files (a missing file is fine) and then the environment.
// Variables already set in the environment win over .env values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: %s: %w", f, err)
		}
	}

	var errs []error
	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DBDriver:        getEnv("DB_DRIVER", "postgres"),
		MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25, &errs),
		MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5, &errs),
		QueryTimeout:    getDuration("DB_QUERY_TIMEOUT", 5*time.Second, &errs),
		SlowQuery:       getDuration("DB_SLOW_QUERY", 200*time.Millisecond, &errs),
		LogQueryArgs:    getBool("DB_LOG_ARGS", false, &errs),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		AutoMigrate:     getBool("AUTO_MIGRATE", false, &errs),
		AllowedOrigins:  splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		IdentityHeader:  getEnv("IDENTITY_HEADER", "X-Auth-User-Id"),
		EmailHeader:     getEnv("EMAIL_HEADER", "X-Auth-User-Email"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if _, err := db.LookupDriver(c.DBDriver); err != nil {
		errs = append(errs, fmt.Errorf("DB_DRIVER: %w (one of %s)", err, strings.Join(db.Drivers(), ", ")))
	}
	if c.MaxOpenConns < 1 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be positive"))
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConns > c.MaxOpenConns {
		errs = append(errs, errors.New("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS"))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}
	if c.IdentityHeader == "" || c.EmailHeader == "" {
		errs = append(errs, errors.New("IDENTITY_HEADER and EMAIL_HEADER must be set"))
	}
	if strings.EqualFold(c.IdentityHeader, c.EmailHeader) {
		errs = append(errs, errors.New("IDENTITY_HEADER and EMAIL_HEADER must differ"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// DB returns the connection-pool settings. Hooks are added by the caller.
func (c *Config) DB() db.Config {
	return db.Config{
		DSN:             c.DatabaseURL,
		DriverName:      c.DBDriver,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		DefaultTimeout:  c.QueryTimeout,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getBool(key string, fallback bool, errs *[]error) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
