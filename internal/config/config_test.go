package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Telegram.PollTimeout)
	assert.Equal(t, ".", cfg.Storage.Dir)
	assert.Equal(t, ":3000", cfg.Admin.Listen)
	assert.False(t, cfg.Admin.Enabled)
	assert.Equal(t, "diarybot:latest", cfg.Build.Image)
	assert.Equal(t, "python:3.11-slim", cfg.Build.Recipe.BaseImage)
	assert.Equal(t, []string{"python", "diary_bot_v2.py"}, cfg.Build.Recipe.Entrypoint)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diarybot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: file-token
  poll_timeout: 60
storage:
  dir: /var/lib/diarybot
admin:
  enabled: true
  listen: ":8080"
build:
  recipe:
    base_image: python:3.12-slim
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Telegram.Token)
	assert.Equal(t, 60, cfg.Telegram.PollTimeout)
	assert.Equal(t, "/var/lib/diarybot", cfg.Storage.Dir)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, ":8080", cfg.Admin.Listen)
	assert.Equal(t, "python:3.12-slim", cfg.Build.Recipe.BaseImage)
}

func TestExplicitMissingPathIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diarybot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  dir: /from/file\n"), 0o644))

	t.Setenv("DIARYBOT_STORAGE_DIR", "/from/env")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Storage.Dir)
}

func TestBotTokenEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diarybot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  token: file-token\n"), 0o644))

	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.Token)
}
