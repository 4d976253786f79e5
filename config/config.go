package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"github.com/posko-pajak/api-go/storage"
)

type Config struct {
	Port   string
	AppURL string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Database DatabaseConfig
	Storage  StorageConfig

	BulkConcurrency int
	DefaultPageSize int

	SentryDSN   string
	CORSOrigins []string
	LogLevel    string

	AdminEmail          string
	AdminPassword       string
	PublicReporterEmail string

	TokenPurgeSchedule string
}

type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	Path     string // sqlite file, ":memory:" for an ephemeral database
}

type StorageConfig struct {
	Driver string // local or r2
	Dir    string
	R2     storage.R2Config
}

// Load reads .env when present and builds a Config from the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file, using process environment")
	}

	return &Config{
		Port:   getEnv("PORT", "8080"),
		AppURL: getEnv("APP_URL", "http://localhost:8080"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),

		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getEnv("DB_PORT", "5432"),
			Path:     getEnv("DB_PATH", "reports.db"),
		},

		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "local"),
			Dir:    getEnv("STORAGE_DIR", "storage"),
			R2: storage.R2Config{
				AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
				AccessKeyID:     os.Getenv("CLOUDFLARE_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("CLOUDFLARE_SECRET_ACCESS_KEY"),
				BucketName:      os.Getenv("CLOUDFLARE_BUCKET_NAME"),
				PublicURL:       os.Getenv("CLOUDFLARE_PUBLIC_URL"),
				Region:          "auto",
			},
		},

		BulkConcurrency: getEnvInt("BULK_CONCURRENCY", 4),
		DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 10),

		SentryDSN:   os.Getenv("SENTRY_DSN"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		AdminEmail:          os.Getenv("ADMIN_EMAIL"),
		AdminPassword:       os.Getenv("ADMIN_PASSWORD"),
		PublicReporterEmail: getEnv("PUBLIC_REPORTER_EMAIL", "public-reporter@reports.local"),

		TokenPurgeSchedule: getEnv("TOKEN_PURGE_SCHEDULE", "0 3 * * *"),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.WithField("key", key).Warnf("invalid integer %q, using %d", v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.WithField("key", key).Warnf("invalid duration %q, using %s", v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
