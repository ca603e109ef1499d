package viper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverSection struct {
	BaseURL     string `mapstructure:"base-url"`
	MaxAttempts int    `mapstructure:"max-attempts"`
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "querydesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  base-url: http://localhost:8978\n  max-attempts: 2\n"), 0o600))

	t.Setenv("QDTEST_SERVER_MAX_ATTEMPTS", "5")

	cfg := New("QDTEST")
	cfg.SetDefault("server.max-attempts", 3)
	require.NoError(t, cfg.LoadFile(path))

	var s serverSection
	require.NoError(t, cfg.UnmarshalKey("server", &s))
	assert.Equal(t, "http://localhost:8978", s.BaseURL)
	assert.Equal(t, 5, cfg.v.GetInt("server.max-attempts"))
	assert.True(t, cfg.IsSet("server.base-url"))
	assert.Equal(t, "http://localhost:8978", cfg.GetString("server.base-url"))
}

func TestLoadFileMissing(t *testing.T) {
	cfg := New("")
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "absent.json")))
}
