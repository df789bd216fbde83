package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile_YAML_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: production\ngroup_size: 12\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 12, cfg.GroupSize)
	assert.Equal(t, 1, cfg.MaxJoiningNodes)
	assert.Equal(t, 5484, cfg.BeaconPort)
	assert.Equal(t, 5483, cfg.AcceptPort)
	assert.Equal(t, 20*time.Minute, cfg.SignedMessageFilterTTL)
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NotNil(t, cfg.Metrics)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoadFromFile_JSONFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routing.conf")
	require.NoError(t, os.WriteFile(path, []byte(`{"environment":"staging","group_size":4}`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 4, cfg.GroupSize)
}

func TestLoadFromFile_MissingFileErrors(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/routing.yaml")
	assert.Error(t, err)
}

func TestSaveToFile_RoundTripsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	cfg := Default()
	cfg.GroupSize = 16
	require.NoError(t, SaveToFile(cfg, path))

	reloaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 16, reloaded.GroupSize)
}

func TestSaveToFile_RoundTripsJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	cfg := Default()
	cfg.AcceptPort = 7000
	require.NoError(t, SaveToFile(cfg, path))

	reloaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, reloaded.AcceptPort)
}

func TestDefault_IsFullyPopulated(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8, cfg.GroupSize)
	assert.Equal(t, 20*time.Second, cfg.ConnectionFilterTTL)
	assert.Equal(t, 10*time.Minute, cfg.IdentityCacheTTL)
	assert.Equal(t, 5*time.Second, cfg.BootstrapRetryDelay)
	assert.Equal(t, "log", cfg.DirectionPolicy)
	assert.NotEmpty(t, cfg.IdentityFile)
}
