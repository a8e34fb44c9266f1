package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "default_super_secret_key"

type Config struct {
	Port    string
	GinMode string
	LogMode string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	JWTSecret      string
	TokenTTL       time.Duration
	PrivilegedRole string

	BootstrapAdminUsername string
	BootstrapAdminPassword string

	AssetBackend       string // "disk" or "gcs"
	GCSBucket          string
	GCSCredentialsFile string
	AssetDiskPath      string
	AssetPublicURL     string
	MaxUploadBytes     int64
	ImageMaxDimension  int

	RedisAddress  string
	RedisPassword string
	RedisChannel  string

	CORSOrigins []string

	// Warnings collects values that were present but unparsable and fell back to defaults.
	Warnings []string
}

// Load reads configs/.env when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                   getEnv("PORT", "8080"),
		GinMode:                getEnv("GIN_MODE", "debug"),
		LogMode:                getEnv("LOG_MODE", "development"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "postgres"),
		DBPassword:             getEnv("DB_PASSWORD", "postgres"),
		DBName:                 getEnv("DB_NAME", "postgres"),
		DBSSLMode:              getEnv("DB_SSLMODE", "disable"),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		PrivilegedRole:         getEnv("PRIVILEGED_ROLE", "Admin"),
		BootstrapAdminUsername: getEnv("BOOTSTRAP_ADMIN_USERNAME", ""),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		AssetBackend:           strings.ToLower(getEnv("ASSET_BACKEND", "disk")),
		GCSBucket:              getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile:     getEnv("GCS_CREDENTIALS_FILE", ""),
		AssetDiskPath:          getEnv("ASSET_DISK_PATH", "./uploads"),
		AssetPublicURL:         getEnv("ASSET_PUBLIC_URL", "/uploads"),
		RedisAddress:           getEnv("REDIS_ADDRESS", ""),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisChannel:           getEnv("REDIS_CHANNEL", "refurbstock-events"),
		CORSOrigins:            splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
	}

	cfg.TokenTTL = cfg.duration("TOKEN_TTL", time.Hour)
	cfg.MaxUploadBytes = int64(cfg.integer("MAX_UPLOAD_BYTES", 10<<20))
	cfg.ImageMaxDimension = cfg.integer("IMAGE_MAX_DIMENSION", 1600)

	if cfg.JWTSecret == "" {
		if cfg.GinMode == "release" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in release mode")
		}
		cfg.JWTSecret = devJWTSecret
	}

	switch cfg.AssetBackend {
	case "disk":
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET is required when ASSET_BACKEND=gcs")
		}
	default:
		return nil, fmt.Errorf("unsupported ASSET_BACKEND %q", cfg.AssetBackend)
	}

	return cfg, nil
}

// DSN returns DATABASE_URL when set, otherwise a postgres URL assembled from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func getEnv(key, defaultVal string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	return val
}

func (c *Config) integer(key string, defaultVal int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not a positive integer, using %d", key, raw, defaultVal))
		return defaultVal
	}
	return i
}

func (c *Config) duration(key string, defaultVal time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not a positive duration, using %s", key, raw, defaultVal))
		return defaultVal
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
