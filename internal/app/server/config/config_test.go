package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DATABASE_URI", "postgres://u:p@localhost:5432/workouts")
	t.Setenv("RUN_ADDRESS", ":9090")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.Env)
	assert.Equal(t, "postgres://u:p@localhost:5432/workouts", cfg.DB.DatabaseURI)
	assert.Equal(t, ":9090", cfg.Server.RunAddress)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "migrations", cfg.DB.Migrations)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATABASE_URI=postgres://from-file/db\n"), 0600))

	t.Setenv("APP_ENV", EnvLocal)
	t.Setenv("DATABASE_URI", "")
	require.NoError(t, os.Unsetenv("DATABASE_URI"))

	cfg, err := Load(filepath.Join(dir, "missing.env"), envFile)
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-file/db", cfg.DB.DatabaseURI)
}

func TestLoad_Validation(t *testing.T) {
	t.Setenv("DATABASE_URI", "")
	t.Setenv("APP_ENV", EnvProd)

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URI")

	t.Setenv("DATABASE_URI", "postgres://x")
	t.Setenv("APP_ENV", "staging")
	_, err = Load()
	assert.ErrorContains(t, err, "APP_ENV")
}
