// Package session measures active play time and move counts for one game.
package session

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/klondike/internal/clock"
	"github.com/verte-zerg/klondike/internal/model"
)

// State is the tracker lifecycle position.
type State int

// Tracker states.
const (
	Idle State = iota
	Active
	Paused
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

const unknown = "unknown"

// Session is one game instance. It is immutable once End is set.
type Session struct {
	ID            string
	StartedAt     time.Time
	PausedAt      time.Time
	PausedTotal   time.Duration
	Source        string
	Moves         int
	Undos         int
	DrawMode      model.DrawMode
	End           model.EndState
	AbandonReason string
	EndedAt       time.Time
}

func (s *Session) paused() bool {
	return !s.PausedAt.IsZero()
}

// Tracker owns the single active session handle.
type Tracker struct {
	clock   clock.Clock
	current *Session
}

// NewTracker returns an idle tracker.
func NewTracker(c clock.Clock) *Tracker {
	if c == nil {
		c = clock.System{}
	}
	return &Tracker{clock: c}
}

// Start opens a new session and drops any session still open.
func (t *Tracker) Start(source string, mode model.DrawMode) model.Summary {
	if source == "" {
		source = unknown
	}
	if !mode.Valid() {
		mode = model.DrawOne
	}
	t.current = &Session{
		ID:        uuid.NewString(),
		StartedAt: t.clock.Now(),
		Source:    source,
		DrawMode:  mode,
	}
	return t.summary()
}

// State reports where the tracker is in its lifecycle.
func (t *Tracker) State() State {
	switch {
	case t.current == nil:
		return Idle
	case t.current.End != model.EndNone:
		return Ended
	case t.current.paused():
		return Paused
	default:
		return Active
	}
}

// Active reports whether an unfinished session exists.
func (t *Tracker) Active() bool {
	s := t.State()
	return s == Active || s == Paused
}

// Pause records the pause instant. It is a no-op unless the session is active.
func (t *Tracker) Pause() {
	if t.State() != Active {
		return
	}
	t.current.PausedAt = t.clock.Now()
}

// Resume folds the paused interval into the pause total. It is a no-op unless
// the session is paused.
func (t *Tracker) Resume() {
	if t.State() != Paused {
		return
	}
	t.foldPause(t.clock.Now())
}

// AddMove counts one move on an open session.
func (t *Tracker) AddMove() {
	if t.Active() {
		t.current.Moves++
	}
}

// AddUndo counts one undo on an open session.
func (t *Tracker) AddUndo() {
	if t.Active() {
		t.current.Undos++
	}
}

// Win finalizes the session as won. It returns false if there is no open session.
func (t *Tracker) Win() (model.Summary, bool) {
	return t.finish(model.EndWin, "")
}

// Abandon finalizes the session as abandoned. It returns false if there is no
// open session.
func (t *Tracker) Abandon(reason string) (model.Summary, bool) {
	if reason == "" {
		reason = unknown
	}
	return t.finish(model.EndAbandon, reason)
}

// Payload returns the summary of the current session. Open sessions report a
// live duration ending now, or at the pause instant while paused.
func (t *Tracker) Payload() (model.Summary, bool) {
	if t.current == nil {
		return model.Summary{}, false
	}
	return t.summary(), true
}

// Current returns a copy of the current session.
func (t *Tracker) Current() (Session, bool) {
	if t.current == nil {
		return Session{}, false
	}
	return *t.current, true
}

func (t *Tracker) finish(end model.EndState, reason string) (model.Summary, bool) {
	if !t.Active() {
		return model.Summary{}, false
	}
	now := t.clock.Now()
	if t.current.paused() {
		t.foldPause(now)
	}
	t.current.End = end
	t.current.AbandonReason = reason
	t.current.EndedAt = now
	return t.summary(), true
}

func (t *Tracker) foldPause(now time.Time) {
	if d := now.Sub(t.current.PausedAt); d > 0 {
		t.current.PausedTotal += d
	}
	t.current.PausedAt = time.Time{}
}

func (t *Tracker) summary() model.Summary {
	s := t.current
	end := t.clock.Now()
	switch {
	case !s.EndedAt.IsZero():
		end = s.EndedAt
	case s.paused():
		end = s.PausedAt
	}
	return model.Summary{
		ID:            s.ID,
		Source:        s.Source,
		EndState:      s.End,
		AbandonReason: s.AbandonReason,
		DurationSec:   durationSec(end.Sub(s.StartedAt) - s.PausedTotal),
		Moves:         s.Moves,
		Undos:         s.Undos,
		DrawMode:      s.DrawMode,
	}
}

func durationSec(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(math.Round(d.Seconds()))
}
