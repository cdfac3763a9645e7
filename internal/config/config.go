package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type DatabaseType string

const (
	SQLite   DatabaseType = "sqlite"
	Postgres DatabaseType = "postgres"
)

type Config struct {
	Port         string
	SiteURL      string
	SecretKey    []byte
	DatabaseType DatabaseType
	DatabaseName string
	// SQLite config
	SQLitePath string
	// PostgreSQL config
	DatabaseURL string
	// Uploaded avatars live below MediaRoot
	MediaRoot string
	// Mail config, an empty SMTPHost logs mails instead of sending them
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	EmailFrom     string
	SessionSecure bool
	TokenTTL      time.Duration
	// Origins allowed to call the JSON API
	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read .env file: %w", err)
		}
		log.Println("No .env file found, reading configuration from the environment")
	}

	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		return nil, fmt.Errorf("SECRET_KEY is not set")
	}

	port := getEnv("PORT", "8000")

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	ttlHours, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "72"))
	if err != nil || ttlHours <= 0 {
		return nil, fmt.Errorf("invalid TOKEN_TTL_HOURS: %q", os.Getenv("TOKEN_TTL_HOURS"))
	}

	sessionSecure, err := strconv.ParseBool(getEnv("SESSION_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_SECURE: %w", err)
	}

	databaseName := getEnv("DATABASE_NAME", "tripplanner")

	config := &Config{
		Port:          port,
		SiteURL:       strings.TrimRight(getEnv("SITE_URL", "http://localhost:"+port), "/"),
		SecretKey:     []byte(secret),
		DatabaseType:  DatabaseType(getEnv("DATABASE_TYPE", string(SQLite))),
		DatabaseName:  databaseName,
		MediaRoot:     getEnv("MEDIA_ROOT", "media"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      smtpPort,
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		EmailFrom:     getEnv("EMAIL_FROM", "Trip Planner <no-reply@localhost>"),
		SessionSecure: sessionSecure,
		TokenTTL:      time.Duration(ttlHours) * time.Hour,
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			config.AllowedOrigins = append(config.AllowedOrigins, origin)
		}
	}

	switch config.DatabaseType {
	case SQLite:
		config.SQLitePath = os.Getenv("SQLITE_PATH")
		if config.SQLitePath == "" {
			// Default to a data directory in the current directory
			config.SQLitePath = filepath.Join("data", fmt.Sprintf("%s.db", databaseName))
		}
	case Postgres:
		config.DatabaseURL = os.Getenv("DATABASE_URL")
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_TYPE: %s", config.DatabaseType)
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
