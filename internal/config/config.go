package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	SessionRedis  = "redis"
	SessionMemory = "memory"
)

type Config struct {
	Port    string
	GinMode string

	StoreDriver string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DBTimezone  string
	DBLogLevel  string

	SessionBackend string
	SessionTTL     time.Duration
	CookieSecure   bool
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	CacheTTL       time.Duration

	ElasticAddr     string
	ElasticUsername string
	ElasticPassword string
	ElasticIndex    string

	MediaDir string

	LogLevel  string
	LogFormat string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvi(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}

func getenvb(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func Load() *Config {
	return &Config{
		Port:    getenv("PORT", "8080"),
		GinMode: getenv("GIN_MODE", "release"),

		StoreDriver: getenv("STORE_DRIVER", StorePostgres),
		DBHost:      getenv("DB_HOST", "localhost"),
		DBPort:      getenv("DB_PORT", "5432"),
		DBUser:      getenv("DB_USER", "postgres"),
		DBPassword:  getenv("DB_PASSWORD", "postgres"),
		DBName:      getenv("DB_NAME", "blogicum"),
		DBSSLMode:   getenv("DB_SSLMODE", "disable"),
		DBTimezone:  getenv("DB_TIMEZONE", "UTC"),
		DBLogLevel:  getenv("DB_LOG_LEVEL", "warn"),

		SessionBackend: getenv("SESSION_BACKEND", SessionRedis),
		SessionTTL:     time.Duration(getenvi("SESSION_TTL_SECONDS", 14*24*3600)) * time.Second,
		CookieSecure:   getenvb("COOKIE_SECURE", false),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		RedisDB:        getenvi("REDIS_DB", 0),
		CacheTTL:       time.Duration(getenvi("CACHE_TTL_SECONDS", 300)) * time.Second,

		ElasticAddr:     getenv("ELASTICSEARCH_ADDR", ""),
		ElasticUsername: getenv("ELASTICSEARCH_USERNAME", ""),
		ElasticPassword: getenv("ELASTICSEARCH_PASSWORD", ""),
		ElasticIndex:    getenv("ELASTICSEARCH_INDEX", "posts"),

		MediaDir: getenv("MEDIA_DIR", "./media"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),
	}
}

// Validate rejects driver names nothing in the app knows how to build.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.SessionBackend {
	case SessionRedis, SessionMemory:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_SECONDS must be positive")
	}
	return nil
}

func (c *Config) SearchEnabled() bool { return c.ElasticAddr != "" }
