package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir)
	cfg.Sync.SkipActions = []string{"lending interest", "currency conversion"}

	path := filepath.Join(dir, "brokersync.yaml")
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Database.Path, got.Database.Path)
	assert.Equal(t, DefaultBaseURL, got.API.BaseURL)
	assert.Equal(t, "EUR", got.Sync.DefaultCurrency)
	assert.Equal(t, cfg.Sync.SkipActions, got.Sync.SkipActions)
	assert.Equal(t, "info", got.Log.Level)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brokersync.yaml")
	require.NoError(t, Save(path, Default(dir)))

	t.Setenv(EnvAPIKey, "key-from-env")
	t.Setenv(EnvAPISecret, "secret-from-env")
	t.Setenv(EnvBaseURL, "https://demo.trading212.com")
	t.Setenv(EnvDBPath, filepath.Join(dir, "other.db"))
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "key-from-env", cfg.API.Key)
	assert.Equal(t, "secret-from-env", cfg.API.Secret)
	assert.Equal(t, "https://demo.trading212.com", cfg.API.BaseURL)
	assert.Equal(t, filepath.Join(dir, "other.db"), cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brokersync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sync:\n  default_currency: GBP\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "GBP", cfg.Sync.DefaultCurrency)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, filepath.Join("data", "brokersync.db"), cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestDefaultSkipListIsEmpty(t *testing.T) {
	// The skip-list is opt-in: out of the box every cash action posts, so the
	// imported entries can reproduce the reported balance.
	cfg := Default(t.TempDir())
	assert.Empty(t, cfg.Sync.SkipActions)

	path := filepath.Join(t.TempDir(), "brokersync.yaml")
	require.NoError(t, Save(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, got.Sync.SkipActions)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDataDir(t *testing.T) {
	cfg := Default(filepath.Join("some", "dir"))
	assert.Equal(t, filepath.Join("some", "dir"), cfg.DataDir())
}

func TestYAMLFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brokersync.yaml")
	require.NoError(t, Save(path, Default(dir)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "base_url: "+DefaultBaseURL)
	assert.Contains(t, contents, "default_currency: EUR")
	assert.Contains(t, contents, "level: info")
	assert.NotContains(t, contents, "key", "credentials never serialize to yaml")
}
