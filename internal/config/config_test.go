package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Game.Profile)
	assert.Nil(t, cfg.Cloud.URL)

	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigSections(t *testing.T) {
	path := writeFile(t, "config.toml", `
[game]
profile = "platform"
draw-mode = 3

[cloud]
url = "http://localhost:8787"
debounce = "2s"

[log]
level = "debug"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Game.Profile)
	assert.Equal(t, "platform", *cfg.Game.Profile)
	require.NotNil(t, cfg.Game.DrawMode)
	assert.Equal(t, 3, *cfg.Game.DrawMode)
	require.NotNil(t, cfg.Cloud.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Cloud.Debounce.Duration)
	require.NotNil(t, cfg.Log.Level)
	assert.Equal(t, "debug", *cfg.Log.Level)
	assert.Nil(t, cfg.Log.File)
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "a.toml", "[cloud]\ndebounce = \"soon\"\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "b.toml", "[game]\nprofle = \"guest\"\n"))
	assert.ErrorContains(t, err, "game.profle")
}

func TestApplyEnvOverridesFile(t *testing.T) {
	profile := "guest"
	url := "http://file"
	cfg := FileConfig{Game: GameConfig{Profile: &profile}, Cloud: CloudConfig{URL: &url}}

	t.Setenv(EnvProfile, " platform ")
	t.Setenv(EnvCloudURL, "")
	t.Setenv(EnvLogLevel, "")
	ApplyEnv(&cfg)

	assert.Equal(t, "platform", *cfg.Game.Profile)
	require.NotNil(t, cfg.Cloud.URL)
	assert.Empty(t, *cfg.Cloud.URL)
	assert.Nil(t, cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "KLONDIKE_LOG_LEVEL=warn\n")
	t.Setenv(EnvLogLevel, "")
	require.NoError(t, os.Unsetenv(EnvLogLevel))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "warn", os.Getenv(EnvLogLevel))
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")

	assert.Equal(t, filepath.Join("/cfg", "klondike", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/data", "klondike", "klondike.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join("/state", "klondike", "klondike.log"), DefaultLogPath())
}
