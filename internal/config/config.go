// Package config builds the immutable process configuration once at startup.
// Components receive the values they need explicitly; there is no ambient
// global settings object.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "IDENTRA_"

// Config captures everything the service reads from the environment.
type Config struct {
	Addr   string
	PGDSN  string
	Issuer string

	// JWTSigningKey signs access, refresh and single-use tokens. Read-only
	// after startup, shared across requests without synchronization.
	JWTSigningKey string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	VerifyTokenTTL  time.Duration
	ResetTokenTTL   time.Duration

	RateLimitPerSecond int
	RateLimitBurst     int

	MigrationsDir string
}

// Defaults mirror the original deployment: 15m access, 7d refresh,
// 24h email verification, 1h password reset.
func defaults() Config {
	return Config{
		Addr:               ":8080",
		Issuer:             "identra",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    7 * 24 * time.Hour,
		VerifyTokenTTL:     24 * time.Hour,
		ResetTokenTTL:      time.Hour,
		RateLimitPerSecond: 20,
		RateLimitBurst:     40,
		MigrationsDir:      "migrations",
	}
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := defaults()

	if v := getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	cfg.PGDSN = getenv("PG_DSN")
	if v := getenv("ISSUER"); v != "" {
		cfg.Issuer = v
	}
	cfg.JWTSigningKey = getenv("JWT_SIGNING_KEY")
	if cfg.JWTSigningKey == "" {
		return Config{}, errors.New("config: " + envPrefix + "JWT_SIGNING_KEY is required")
	}

	var err error
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.VerifyTokenTTL, err = durationEnv("VERIFY_TOKEN_TTL", cfg.VerifyTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.ResetTokenTTL, err = durationEnv("RESET_TOKEN_TTL", cfg.ResetTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitPerSecond, err = intEnv("RATE_LIMIT_PER_SECOND", cfg.RateLimitPerSecond); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return Config{}, err
	}
	if v := getenv("MIGRATIONS_DIR"); v != "" {
		cfg.MigrationsDir = v
	}
	return cfg, nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errors.New("config: " + envPrefix + key + " must be a positive duration")
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("config: " + envPrefix + key + " must be a positive integer")
	}
	return n, nil
}
