package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("ENV", "development")
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
}

func TestLoadConfigWithDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "foodgram", cfg.DBName)
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 6, cfg.PageSize)
	assert.Equal(t, "local", cfg.ImageStorage)
}

func TestLoadConfig(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "recipes")
	t.Setenv("DB_SSL_MODE", "require")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("CORS_ORIGINS", "https://foodgram.example, https://www.foodgram.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "recipes", cfg.DBName)
	assert.Equal(t, "require", cfg.DBSSLMode)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, []string{"https://foodgram.example", "https://www.foodgram.example"}, cfg.CORSOrigins)
	assert.Contains(t, cfg.PostgresDSN(), "sslmode=require")
}

func TestLoadConfigSecretsOverrideEnv(t *testing.T) {
	isolateEnv(t)
	dir := os.Getenv("SECRETS_DIR")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-secret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("postpass"), 0o600))
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-secret", cfg.JWTSecret)
	assert.Equal(t, "postpass", cfg.DBPassword)
}

func TestLoadConfigFromFile(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_driver: sqlite\nsqlite_path: /tmp/foodgram.db\n"), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/foodgram.db", cfg.SQLitePath)
}

func TestValidateConfigProduction(t *testing.T) {
	isolateEnv(t)
	t.Setenv("ENV", "production")

	cfg := defaultConfig()
	cfg.DBDriver = "sqlite"

	err := ValidateConfig(cfg)
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "DB_DRIVER")
	assert.Contains(t, fields, "JWT_SECRET")
}

func TestValidateConfigUnknownStorage(t *testing.T) {
	isolateEnv(t)

	cfg := defaultConfig()
	cfg.ImageStorage = "ftp"

	assert.ErrorContains(t, ValidateConfig(cfg), "IMAGE_STORAGE")
}

func TestGetEnvironment(t *testing.T) {
	isolateEnv(t)
	assert.Equal(t, Development, GetEnvironment())
	assert.False(t, IsProduction())

	t.Setenv("ENV", "production")
	assert.True(t, IsProduction())

	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())
	assert.False(t, IsProduction())
}
