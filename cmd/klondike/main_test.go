package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/klondike/internal/config"
	"github.com/verte-zerg/klondike/internal/game"
	"github.com/verte-zerg/klondike/internal/model"
	"github.com/verte-zerg/klondike/internal/store"
)

func TestDefaultConfigTemplateParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	// Uncomment every value line; the result must still be a valid config.
	var lines []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		lines = append(lines, line)
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Game.Profile)
	assert.Equal(t, "guest", *cfg.Game.Profile)
	require.NotNil(t, cfg.Game.DrawMode)
	assert.Equal(t, defaultDrawMode, *cfg.Game.DrawMode)
	require.NotNil(t, cfg.Cloud.Debounce)
	assert.Equal(t, "1.2s", cfg.Cloud.Debounce.String())
	require.NotNil(t, cfg.Log.Level)
	assert.Equal(t, defaultLogLevel, *cfg.Log.Level)
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"config", "stats", "export", "import", "serve"} {
		assert.True(t, names[want], want)
	}
	for _, flag := range []string{"profile", "draw", "cloud-url", "log-level", "new"} {
		assert.NotNil(t, root.Flags().Lookup(flag), flag)
	}
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	root := newRootCmd()
	fromFile := "work"
	target := "guest"
	applyStringConfig(root, "profile", &target, &fromFile)
	assert.Equal(t, "work", target)

	require.NoError(t, root.Flags().Set("profile", "cli"))
	target = "cli"
	applyStringConfig(root, "profile", &target, &fromFile)
	assert.Equal(t, "cli", target)

	n := 1
	applyIntConfig(root, "draw", &n, nil)
	assert.Equal(t, 1, n)
}

func TestApplyDrawModeKeepsInGameChoice(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "klondike.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	gw, err := store.NewGateway(st, store.ProfileGuest, nil)
	require.NoError(t, err)
	g := game.New(game.Deps{Gateway: gw})
	ctx := context.Background()

	draw3 := func() bool {
		s, err := gw.LoadSettings(ctx)
		require.NoError(t, err)
		return s.Draw3
	}

	// The config file seeds a fresh profile.
	require.NoError(t, applyDrawMode(ctx, g, model.DrawThree, false, true))
	assert.True(t, draw3())

	// The player toggles back in game; the config file no longer wins.
	require.NoError(t, g.SetDrawMode(ctx, model.DrawOne))
	require.NoError(t, applyDrawMode(ctx, g, model.DrawThree, false, true))
	assert.False(t, draw3())

	// An explicit flag always does.
	require.NoError(t, applyDrawMode(ctx, g, model.DrawThree, true, true))
	assert.True(t, draw3())
}
