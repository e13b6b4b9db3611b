package config

import (
	"os"
	"strconv"
)

// Config holds the settings main wires together at startup.
// Service credentials (SendGrid, Cloudinary, Maps, OAuth, JWT) are read
// from the environment by the owning packages.
type Config struct {
	Port        string
	GinMode     string
	DBDriver    string // postgres or sqlite
	SQLitePath  string
	FrontendURL string
	RedisAddr   string
	RedisPass   string

	// EmailNotificationsEnabled gates reminder emails; real-time and
	// in-app notifications are always on.
	EmailNotificationsEnabled bool
}

// Load reads configuration from the environment
func Load() *Config {
	return &Config{
		Port:                      getEnv("PORT", "8080"),
		GinMode:                   getEnv("GIN_MODE", "debug"),
		DBDriver:                  getEnv("DB_DRIVER", "postgres"),
		SQLitePath:                getEnv("SQLITE_PATH", "studyhub.db"),
		FrontendURL:               getEnv("FRONTEND_URL", "http://localhost:5173"),
		RedisAddr:                 getEnv("REDIS_ADDR", ""),
		RedisPass:                 getEnv("REDIS_PASSWORD", ""),
		EmailNotificationsEnabled: getEnvBool("EMAIL_NOTIFICATIONS_ENABLED", false),
	}
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
