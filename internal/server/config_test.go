package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, "localhost", cfg.Server.Address)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 1, cfg.Game.BaseWager)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	content := `
server {
  address   = "0.0.0.0"
  port      = 9000
  log_level = "debug"
}

game {
  base_wager  = 2
  course_file = "links.yaml"
}
`
	path := filepath.Join(t.TempDir(), "wolfgoatpig.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Address)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 2, cfg.Game.BaseWager)
	assert.Equal(t, "links.yaml", cfg.Game.CourseFile)
}

func TestLoadConfigFillsDefaults(t *testing.T) {
	t.Parallel()

	content := `
server {
  port = 7777
}

game {
}
`
	path := filepath.Join(t.TempDir(), "partial.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Server.Address)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 1, cfg.Game.BaseWager)
}

func TestLoadConfigBadSyntax(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(path, []byte("server {"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
