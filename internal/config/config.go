// Package config reads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds service configuration.
type Config struct {
	// Addr is the listen address.
	Addr string

	// RedisAddr enables the Redis history backend when non-empty; the
	// in-memory backend is used otherwise.
	RedisAddr string

	// RateRPS and RateBurst configure the request throttle. Zero RateRPS
	// disables throttling.
	RateRPS   float64
	RateBurst int

	// FirstByteTimeout bounds the wait for the first upstream byte of a
	// download stream.
	FirstByteTimeout time.Duration

	// ResolveTimeout bounds metadata and catalogue resolution.
	ResolveTimeout time.Duration
}

// FromEnv builds a Config from TUBEGRAB_* environment variables, falling
// back to defaults for anything unset or unparseable.
func FromEnv() Config {
	return Config{
		Addr:             envString("TUBEGRAB_ADDR", ":8080"),
		RedisAddr:        envString("TUBEGRAB_REDIS_ADDR", ""),
		RateRPS:          envFloat("TUBEGRAB_RATE_RPS", 10),
		RateBurst:        envInt("TUBEGRAB_RATE_BURST", 20),
		FirstByteTimeout: envDuration("TUBEGRAB_FIRST_BYTE_TIMEOUT", 30*time.Second),
		ResolveTimeout:   envDuration("TUBEGRAB_RESOLVE_TIMEOUT", 30*time.Second),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
