package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "manage.db"))
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("JWT_SECRET", "manage-test-secret")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")
}

func TestLoadIngredients(t *testing.T) {
	dir := setupEnv(t)
	csvPath := filepath.Join(dir, "ingredients.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("flour,g\nmilk,ml\nflour,g\n"), 0o644))

	out, err := run(t, "load-ingredients", "--file", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 2 ingredients")

	out, err = run(t, "load-ingredients", "--file", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 0 ingredients")

	_, err = run(t, "load-ingredients", "--file", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestCreateSuperuser(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "create-superuser", "--email", "root@example.com", "--username", "root", "--password", "admin-pass-1")
	require.NoError(t, err)
	assert.Contains(t, out, "superuser root created")

	_, err = run(t, "create-superuser", "--email", "root@example.com", "--username", "root", "--password", "admin-pass-1")
	assert.Error(t, err)

	_, err = run(t, "create-superuser", "--email", "x@example.com")
	assert.Error(t, err)
}
