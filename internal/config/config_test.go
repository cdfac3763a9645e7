package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range []string{
		"SECRET_KEY", "PORT", "SITE_URL", "DATABASE_TYPE", "DATABASE_NAME", "SQLITE_PATH",
		"DATABASE_URL", "MEDIA_ROOT", "SMTP_HOST", "SMTP_PORT", "TOKEN_TTL_HOURS",
		"SESSION_SECURE", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, env[key])
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"SECRET_KEY": "s3cret"})

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "http://localhost:8000", cfg.SiteURL)
	assert.Equal(t, []byte("s3cret"), cfg.SecretKey)
	assert.Equal(t, SQLite, cfg.DatabaseType)
	assert.Equal(t, filepath.Join("data", "tripplanner.db"), cfg.SQLitePath)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.SessionSecure)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"SECRET_KEY":           "s3cret",
		"PORT":                 "9000",
		"SITE_URL":             "https://trips.example.com/",
		"DATABASE_TYPE":        "postgres",
		"DATABASE_URL":         "postgres://localhost/trips",
		"TOKEN_TTL_HOURS":      "24",
		"SESSION_SECURE":       "true",
		"CORS_ALLOWED_ORIGINS": "https://a.example.com, ,https://b.example.com",
	})

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://trips.example.com", cfg.SiteURL)
	assert.Equal(t, Postgres, cfg.DatabaseType)
	assert.Equal(t, "postgres://localhost/trips", cfg.DatabaseURL)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.SessionSecure)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"postgres without url", map[string]string{"SECRET_KEY": "x", "DATABASE_TYPE": "postgres"}},
		{"unknown database", map[string]string{"SECRET_KEY": "x", "DATABASE_TYPE": "mongo"}},
		{"bad smtp port", map[string]string{"SECRET_KEY": "x", "SMTP_PORT": "smtp"}},
		{"bad ttl", map[string]string{"SECRET_KEY": "x", "TOKEN_TTL_HOURS": "-1"}},
		{"bad session flag", map[string]string{"SECRET_KEY": "x", "SESSION_SECURE": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
