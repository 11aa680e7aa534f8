package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the env-backed configuration shared by the API server and the
// batch binaries. Secrets stay in the environment; nothing here is written
// back.
type Config struct {
	AppName     string
	DatabaseURL string
	HTTPPort    string
	LogLevel    string

	// FieldKey encrypts sensitive tenant columns at rest.
	FieldKey string

	// ArchiveDir receives audit-log CSV exports.
	ArchiveDir string

	SMTP SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Load reads .env (optional) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName:     getEnv("APP_NAME", "tenantcore"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FieldKey:    os.Getenv("FIELD_ENCRYPTION_KEY"),
		ArchiveDir:  getEnv("AUDIT_ARCHIVE_DIR", "storage/archives"),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "no-reply@tenantcore.local"),
			FromName: getEnv("SMTP_FROM_NAME", "tenantcore"),
		},
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is empty")
	}
	if cfg.FieldKey == "" {
		return nil, fmt.Errorf("config: FIELD_ENCRYPTION_KEY is empty")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
