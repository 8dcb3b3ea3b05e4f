package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Database.URL)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.False(t, cfg.AI.Enabled())
	assert.True(t, cfg.AI.FallbackToHeuristic)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Statistics.TopN)
	assert.Equal(t, 4, cfg.Statistics.Workers)
	assert.Equal(t, 20.0, cfg.Statistics.HighMissingPercent)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
ai:
  provider: anthropic
  model: claude-haiku-4-5-20251001
  timeout: 15s
statistics:
  top_n: 8
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.AI.Model)
	assert.Equal(t, 15*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 8, cfg.Statistics.TopN)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 4, cfg.Statistics.Workers)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: \"9000\"\n"), 0644))

	t.Setenv("SAVDASH_SERVER_PORT", "9191")
	t.Setenv("SAVDASH_AI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.Server.Port)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SAVDASH_AI_PROVIDER", "mystery")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadMissingThreshold(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SAVDASH_STATISTICS_HIGH_MISSING_PERCENT", "150")

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "loud", Format: "json"}))
}
