package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/klondike/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "klondike.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return st
}

func gateway(t *testing.T, st *Store, profile string) *Gateway {
	t.Helper()
	g, err := NewGateway(st, profile, zap.NewNop())
	require.NoError(t, err)
	return g
}

func boolPtr(v bool) *bool { return &v }

func TestProfileValidation(t *testing.T) {
	st := openTestStore(t)
	for _, name := range []string{"guest", "platform", "player_2"} {
		_, err := NewGateway(st, name, nil)
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"guest-2", "Guest", "a b", "../x"} {
		_, err := NewGateway(st, name, nil)
		assert.ErrorIs(t, err, ErrInvalidProfile, name)
	}
	g, err := NewGateway(st, "", nil)
	require.NoError(t, err)
	assert.Equal(t, ProfileGuest, g.Profile())
	assert.Equal(t, "klondike-guest-settings", g.key(recordSettings))
}

func TestSettingsMerge(t *testing.T) {
	ctx := context.Background()
	g := gateway(t, openTestStore(t), "guest")

	s, err := g.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), s)

	s, err = g.SaveSettings(ctx, model.SettingsPatch{Draw3: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, model.Settings{MusicOn: true, SoundOn: true, Draw3: true}, s)

	_, err = g.SaveSettings(ctx, model.SettingsPatch{MusicOn: boolPtr(false)})
	require.NoError(t, err)
	s, err = g.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Settings{MusicOn: false, SoundOn: true, Draw3: true}, s)
}

func TestHasSettings(t *testing.T) {
	st := openTestStore(t)
	g := gateway(t, st, "guest")
	ctx := context.Background()

	ok, err := g.HasSettings(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = g.SaveSettings(ctx, model.SettingsPatch{Draw3: boolPtr(true)})
	require.NoError(t, err)
	ok, err = g.HasSettings(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, st.Put(ctx, g.key(recordSettings), "{broken"))
	ok, err = g.HasSettings(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPartialSettingsRecordKeepsDefaults(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	g := gateway(t, st, "guest")
	require.NoError(t, st.Put(ctx, g.key(recordSettings), `{"soundOn":false}`))

	s, err := g.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Settings{MusicOn: true, SoundOn: false, Draw3: false}, s)
}

func TestCorruptRecordFallsBackInIsolation(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	core, logs := observer.New(zap.WarnLevel)
	g, err := NewGateway(st, "guest", zap.New(core))
	require.NoError(t, err)

	snap := model.Snapshot{Version: model.SnapshotVersion, DrawMode: model.DrawThree}
	require.NoError(t, g.SaveBoardSnapshot(ctx, snap))
	require.NoError(t, st.Put(ctx, g.key(recordStats), `{"totals":`))

	stats, err := g.LoadStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Statistics{}, stats)

	got, err := g.LoadBoardSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.DrawThree, got.DrawMode)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, recordStats, logs.All()[0].ContextMap()["record"])
}

func TestProfilesDoNotShareRecords(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	guest := gateway(t, st, ProfileGuest)
	platform := gateway(t, st, ProfilePlatform)

	require.NoError(t, guest.SaveUnlockSet(ctx, []int{1, 2}))
	require.NoError(t, guest.SetUnseen(ctx, true))

	ids, err := platform.LoadUnlockSet(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	unseen, err := platform.HasUnseen(ctx)
	require.NoError(t, err)
	assert.False(t, unseen)
}

func TestUnlockSetDropsDuplicates(t *testing.T) {
	ctx := context.Background()
	g := gateway(t, openTestStore(t), "guest")
	require.NoError(t, g.SaveUnlockSet(ctx, []int{3, 7, 3, 7, 1}))
	ids, err := g.LoadUnlockSet(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7, 1}, ids)
}

func TestStatisticsAndVisitPersist(t *testing.T) {
	ctx := context.Background()
	g := gateway(t, openTestStore(t), "guest")

	best := 250
	in := model.Statistics{
		Totals:  model.Totals{GamesStarted: 4, Wins: 2, Abandons: 1},
		Streaks: model.Streaks{Win: 2},
		Play:    model.PlayStreak{Streak: 3, LastDayKey: "2024-05-01"},
		Today:   model.DayCounters{Key: "2024-05-01", Wins: 2, GamesStarted: 4},
		Records: model.Records{BestWinSec: &best, BestWinUpdates: 1},
	}
	require.NoError(t, g.SaveStatistics(ctx, in))
	out, err := g.LoadStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	v := model.Visit{LastDayKey: "2024-05-01", VisitStreak: 2, LastOpenAtMs: 1714561200000}
	require.NoError(t, g.SaveVisit(ctx, v))
	gotVisit, err := g.LoadVisit(ctx)
	require.NoError(t, err)
	assert.Equal(t, v, gotVisit)
}

func TestBoardSnapshotClear(t *testing.T) {
	ctx := context.Background()
	g := gateway(t, openTestStore(t), "guest")

	require.NoError(t, g.SaveBoardSnapshot(ctx, model.Snapshot{Version: 1, DrawMode: model.DrawOne}))
	require.NoError(t, g.ClearBoardSnapshot(ctx))
	snap, err := g.LoadBoardSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)
	require.NoError(t, g.ClearBoardSnapshot(ctx))
}

func TestExportAndApplyBundle(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	src := gateway(t, st, "guest")
	dst := gateway(t, st, "platform")

	_, err := src.SaveSettings(ctx, model.SettingsPatch{Draw3: boolPtr(true)})
	require.NoError(t, err)
	require.NoError(t, src.SaveUnlockSet(ctx, []int{2, 3}))
	require.NoError(t, src.SetUnseen(ctx, true))
	require.NoError(t, src.SaveBoardSnapshot(ctx, model.Snapshot{Version: 1, DrawMode: model.DrawThree}))

	b, err := src.ExportMergeable(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, b.Unlocked)
	assert.True(t, b.HasUnseen)
	require.NotNil(t, b.Board)

	require.NoError(t, dst.SaveUnlockSet(ctx, []int{9}))
	require.NoError(t, dst.ApplyMergeBundle(ctx, b))

	got, err := dst.ExportMergeable(ctx)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	// a bundle without a saved game clears the local one
	b.Board = nil
	b.Settings = nil
	require.NoError(t, dst.ApplyMergeBundle(ctx, b))
	snap, err := dst.LoadBoardSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)
	s, err := dst.LoadSettings(ctx)
	require.NoError(t, err)
	assert.True(t, s.Draw3)
}

func TestEmptyExportHasDefaults(t *testing.T) {
	g := gateway(t, openTestStore(t), "guest")
	b, err := g.ExportMergeable(context.Background())
	require.NoError(t, err)
	require.NotNil(t, b.Settings)
	assert.Equal(t, model.DefaultSettings(), *b.Settings)
	assert.Equal(t, []int{}, b.Unlocked)
	assert.Nil(t, b.Board)
	assert.False(t, b.HasUnseen)
}

func TestMigrateLegacyOnce(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	require.NoError(t, st.Put(ctx, "klondike-settings", `{"draw3":true}`))
	require.NoError(t, st.Put(ctx, "klondike-stats-v1", `{"totals":{"wins":5}}`))

	g := gateway(t, st, "guest")
	require.NoError(t, st.Put(ctx, g.key(recordStats), `{"totals":{"wins":9}}`))

	copied, err := g.MigrateLegacy(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{recordSettings}, copied)

	s, err := g.LoadSettings(ctx)
	require.NoError(t, err)
	assert.True(t, s.Draw3)
	stats, err := g.LoadStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, stats.Totals.Wins)

	_, ok, err := st.Get(ctx, "klondike-settings")
	require.NoError(t, err)
	assert.True(t, ok)

	other := gateway(t, st, "platform")
	copied, err = other.MigrateLegacy(ctx)
	require.NoError(t, err)
	assert.Empty(t, copied)
	s, err = other.LoadSettings(ctx)
	require.NoError(t, err)
	assert.False(t, s.Draw3)
}

func TestGameHistory(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	g := gateway(t, st, "guest")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, end := range []model.EndState{model.EndWin, model.EndAbandon, model.EndWin} {
		rec := model.GameRecord{
			EndedAt: base.Add(time.Duration(i) * time.Minute),
			Summary: model.Summary{
				ID:          string(rune('a' + i)),
				Source:      "new",
				EndState:    end,
				DurationSec: 100 + i,
				Moves:       50,
				DrawMode:    model.DrawThree,
			},
		}
		require.NoError(t, g.RecordGame(ctx, rec))
	}

	games, err := g.RecentGames(ctx, 2)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "c", games[0].Summary.ID)
	assert.Equal(t, "b", games[1].Summary.ID)
	assert.Equal(t, model.EndAbandon, games[1].Summary.EndState)
	assert.Equal(t, model.DrawThree, games[0].Summary.DrawMode)
	assert.True(t, base.Add(2*time.Minute).Equal(games[0].EndedAt))

	all, err := g.RecentGames(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	other, err := gateway(t, st, "platform").RecentGames(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCloudBundles(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, ok, err := st.GetCloudBundle(ctx, "guest")
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Now()
	require.NoError(t, st.PutCloudBundle(ctx, "guest", []byte(`{"a":1}`), now))
	require.NoError(t, st.PutCloudBundle(ctx, "guest", []byte(`{"a":2}`), now))
	raw, ok, err := st.GetCloudBundle(ctx, "guest")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":2}`, string(raw))
}
