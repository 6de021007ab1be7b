package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "glucodiary", cfg.DBName)
	assert.Equal(t, "https://api.openai.com/v1", cfg.AIBaseURL)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("PORT", "9999")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DATABASE", "healthdb")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "healthdb", cfg.DBName)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBUser:     "app",
		DBPassword: "pw",
		DBHost:     "db.internal",
		DBPort:     5433,
		DBName:     "glucodiary",
		DBSchema:   "public",
	}

	assert.Equal(t,
		"postgres://app:pw@db.internal:5433/glucodiary?sslmode=disable&search_path=public",
		cfg.DSN())
}
