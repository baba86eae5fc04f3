// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every knob the service reads. Values come from the
// environment; Load applies defaults suitable for local development.
type Config struct {
	Service struct {
		Name    string
		Version string
		Env     string
		Port    string
	}

	Logging struct {
		Level string
	}

	Database struct {
		URL string
	}

	Auth struct {
		// JWTAccessSecret signs and verifies bearer tokens.
		JWTAccessSecret string
		// SessionExpire is the session TTL in <int><s|m|h|d|w> form.
		SessionExpire string
	}

	Tracing struct {
		Enabled    bool
		Endpoint   string
		SampleRate float64
	}

	Profiling struct {
		Enabled  bool
		Endpoint string
	}

	Server struct {
		ShutdownTimeout     time.Duration
		ReadinessDrainDelay time.Duration
	}
}

// Load reads configuration from the environment. A .env file is honored
// when present but never required.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Service.Name = getEnv("SERVICE_NAME", "auth-service")
	cfg.Service.Version = getEnv("SERVICE_VERSION", "dev")
	cfg.Service.Env = getEnv("SERVICE_ENV", "development")
	cfg.Service.Port = getEnv("PORT", "8080")

	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	cfg.Database.URL = os.Getenv("DATABASE_URL")

	cfg.Auth.JWTAccessSecret = os.Getenv("JWT_ACCESS_SECRET")
	cfg.Auth.SessionExpire = getEnv("SESSION_EXPIRE", "1h")

	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", false)
	cfg.Tracing.Endpoint = getEnv("OTLP_ENDPOINT", "http://localhost:4318")
	cfg.Tracing.SampleRate = getEnvFloat("TRACE_SAMPLE_RATE", 1.0)

	cfg.Profiling.Enabled = getEnvBool("PROFILING_ENABLED", false)
	cfg.Profiling.Endpoint = getEnv("PYROSCOPE_ENDPOINT", "http://localhost:4040")

	cfg.Server.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second)
	cfg.Server.ReadinessDrainDelay = getEnvDuration("READINESS_DRAIN_DELAY", 0)

	return cfg
}

// Validate fails fast on configuration the service cannot run with. In
// particular a malformed SESSION_EXPIRE is rejected here, never at request
// time.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Auth.JWTAccessSecret == "" {
		return errors.New("JWT_ACCESS_SECRET is required")
	}
	if _, err := ParseExpire(c.Auth.SessionExpire); err != nil {
		return fmt.Errorf("SESSION_EXPIRE: %w", err)
	}
	return nil
}

// SessionTTL returns the parsed SESSION_EXPIRE duration. Validate must have
// accepted the config first.
func (c *Config) SessionTTL() time.Duration {
	ttl, err := ParseExpire(c.Auth.SessionExpire)
	if err != nil {
		panic("config: SessionTTL called with unvalidated SESSION_EXPIRE: " + err.Error())
	}
	return ttl
}

// GetShutdownTimeoutDuration returns how long a graceful shutdown may take.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return c.Server.ShutdownTimeout
}

// GetReadinessDrainDelayDuration returns how long to fail readiness before
// shutting the HTTP server down.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return c.Server.ReadinessDrainDelay
}

// expireUnits maps the SESSION_EXPIRE unit suffix to a duration.
var expireUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseExpire parses a duration of the form <integer><unit>, where unit is
// one of s, m, h, d, w. "0<unit>" yields a zero duration.
func ParseExpire(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	unit, ok := expireUnits[s[len(s)-1]]
	if !ok {
		return 0, fmt.Errorf("invalid duration %q: unknown unit %q", s, s[len(s)-1:])
	}

	value, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	return time.Duration(value) * unit, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
