package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port          string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	BcryptCost      int
	ProfileCacheTTL time.Duration

	CookieSecure bool
}

func Load() *Config {
	// A missing .env is fine; in containers everything comes from the
	// real environment.
	_ = godotenv.Load()

	return &Config{
		Port:          getenv("PORT", "8080"),
		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "vidstream-media"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		AccessTokenSecret:  getenv("ACCESS_TOKEN_SECRET", ""),
		RefreshTokenSecret: getenv("REFRESH_TOKEN_SECRET", ""),
		AccessTokenTTL:     getduration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL:    getduration("REFRESH_TOKEN_TTL", 240*time.Hour),

		BcryptCost:      getint("BCRYPT_COST", 10),
		ProfileCacheTTL: getduration("PROFILE_CACHE_TTL", 5*time.Minute),

		CookieSecure: getenv("COOKIE_SECURE", "true") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
