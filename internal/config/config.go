package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Canonical appointments store; empty keeps appointments in memory.
	DatabaseURL string

	// Directory cache; empty RedisAddr disables caching.
	RedisAddr         string
	RedisPassword     string
	RedisTLS          bool
	DirectoryCacheTTL time.Duration

	// Clinic backend the calendar manager reads and writes through. It must
	// serve the professionals and services endpoints, which this service does
	// not, so there is no default.
	BackendBaseURL   string
	BackendAPIPrefix string
	BackendTimeout   time.Duration

	CalendarTimezone         string
	CalendarMissingEndPolicy string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                     getEnv("PORT", "8080"),
		Env:                      getEnv("ENV", "development"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		RedisAddr:                getEnv("REDIS_ADDR", ""),
		RedisPassword:            getEnv("REDIS_PASSWORD", ""),
		RedisTLS:                 getEnvAsBool("REDIS_TLS", false),
		DirectoryCacheTTL:        getEnvAsDuration("DIRECTORY_CACHE_TTL", 5*time.Minute),
		BackendBaseURL:           strings.TrimRight(strings.TrimSpace(getEnv("BACKEND_BASE_URL", "")), "/"),
		BackendAPIPrefix:         getEnv("BACKEND_API_PREFIX", "/api"),
		BackendTimeout:           getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),
		CalendarTimezone:         getEnv("CALENDAR_TIMEZONE", "UTC"),
		CalendarMissingEndPolicy: strings.ToLower(strings.TrimSpace(getEnv("CALENDAR_MISSING_END_POLICY", "start"))),
		CORSAllowedOrigins:       getEnvAsList("CORS_ALLOWED_ORIGINS"),
	}
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if c.BackendBaseURL == "" {
		return fmt.Errorf("config: BACKEND_BASE_URL is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves CalendarTimezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.CalendarTimezone)
	if err != nil {
		return nil, fmt.Errorf("config: CALENDAR_TIMEZONE: %w", err)
	}
	return loc, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
