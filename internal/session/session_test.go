package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/klondike/internal/clock"
	"github.com/verte-zerg/klondike/internal/model"
)

var t0 = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func TestDurationExcludesPausedInterval(t *testing.T) {
	c := clock.NewManual(t0)
	tr := NewTracker(c)
	tr.Start("new", model.DrawOne)

	c.Set(t0.Add(10 * time.Second))
	tr.Pause()
	c.Set(t0.Add(40 * time.Second))
	tr.Resume()
	c.Set(t0.Add(50 * time.Second))

	sum, ok := tr.Win()
	require.True(t, ok)
	assert.Equal(t, 20, sum.DurationSec)
	assert.Equal(t, model.EndWin, sum.EndState)
	assert.Equal(t, Ended, tr.State())
}

func TestPauseAndResumeAreIdempotent(t *testing.T) {
	c := clock.NewManual(t0)
	tr := NewTracker(c)

	tr.Pause()
	tr.Resume()
	assert.Equal(t, Idle, tr.State())

	tr.Start("new", model.DrawOne)
	tr.Resume()
	assert.Equal(t, Active, tr.State())

	c.Advance(5 * time.Second)
	tr.Pause()
	c.Advance(5 * time.Second)
	tr.Pause()
	assert.Equal(t, Paused, tr.State())

	c.Advance(5 * time.Second)
	tr.Resume()
	tr.Resume()
	c.Advance(5 * time.Second)

	sum, ok := tr.Payload()
	require.True(t, ok)
	assert.Equal(t, 10, sum.DurationSec)
}

func TestLivePayloadFreezesWhilePaused(t *testing.T) {
	c := clock.NewManual(t0)
	tr := NewTracker(c)
	tr.Start("resume", model.DrawThree)

	c.Advance(7 * time.Second)
	sum, ok := tr.Payload()
	require.True(t, ok)
	assert.Equal(t, 7, sum.DurationSec)
	assert.Equal(t, model.EndNone, sum.EndState)

	tr.Pause()
	c.Advance(time.Minute)
	sum, _ = tr.Payload()
	assert.Equal(t, 7, sum.DurationSec)
	assert.Equal(t, "resume", sum.Source)
	assert.Equal(t, model.DrawThree, sum.DrawMode)
}

func TestAbandonWhilePausedExcludesOpenPause(t *testing.T) {
	c := clock.NewManual(t0)
	tr := NewTracker(c)
	tr.Start("", model.DrawOne)

	c.Advance(30 * time.Second)
	tr.Pause()
	c.Advance(10 * time.Minute)

	sum, ok := tr.Abandon("")
	require.True(t, ok)
	assert.Equal(t, 30, sum.DurationSec)
	assert.Equal(t, "unknown", sum.Source)
	assert.Equal(t, "unknown", sum.AbandonReason)
}

func TestDoubleFinalizationReturnsNothing(t *testing.T) {
	c := clock.NewManual(t0)
	tr := NewTracker(c)
	tr.Start("new", model.DrawOne)
	tr.AddMove()
	tr.AddUndo()

	first, ok := tr.Abandon("restart")
	require.True(t, ok)

	c.Advance(time.Hour)
	_, ok = tr.Win()
	assert.False(t, ok)
	_, ok = tr.Abandon("again")
	assert.False(t, ok)

	tr.AddMove()
	tr.AddUndo()
	after, ok := tr.Payload()
	require.True(t, ok)
	assert.Equal(t, first, after)
	assert.Equal(t, 1, after.Moves)
	assert.Equal(t, 1, after.Undos)
	assert.Equal(t, "restart", after.AbandonReason)
}

func TestStartReplacesOpenSession(t *testing.T) {
	tr := NewTracker(clock.NewManual(t0))
	first := tr.Start("new", model.DrawOne)
	tr.AddMove()
	second := tr.Start("restart", model.DrawMode(7))

	assert.NotEqual(t, first.ID, second.ID)
	_, err := uuid.Parse(second.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, second.Moves)
	assert.Equal(t, model.DrawOne, second.DrawMode)
	assert.True(t, tr.Active())
}

func TestIdleTrackerHasNoPayload(t *testing.T) {
	tr := NewTracker(nil)
	_, ok := tr.Payload()
	assert.False(t, ok)
	_, ok = tr.Win()
	assert.False(t, ok)
	tr.AddMove()
	assert.Equal(t, Idle, tr.State())
}

func TestDurationRoundsToNearestSecond(t *testing.T) {
	c := clock.NewManual(t0)
	tr := NewTracker(c)
	tr.Start("new", model.DrawOne)
	c.Advance(2499 * time.Millisecond)
	sum, _ := tr.Payload()
	assert.Equal(t, 2, sum.DurationSec)
	c.Advance(2 * time.Millisecond)
	sum, _ = tr.Payload()
	assert.Equal(t, 3, sum.DurationSec)
}
