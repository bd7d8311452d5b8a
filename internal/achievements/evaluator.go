package achievements

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/klondike/internal/clock"
	"github.com/verte-zerg/klondike/internal/model"
)

// Store is the persistence the evaluator reads and writes.
type Store interface {
	LoadStatistics(ctx context.Context) (model.Statistics, error)
	SaveStatistics(ctx context.Context, s model.Statistics) error
	LoadUnlockSet(ctx context.Context) ([]int, error)
	SaveUnlockSet(ctx context.Context, ids []int) error
	SetUnseen(ctx context.Context, unseen bool) error
	LoadVisit(ctx context.Context) (model.Visit, error)
	SaveVisit(ctx context.Context, v model.Visit) error
}

// Evaluator updates the statistics record on lifecycle events and unlocks
// achievements. Every method persists before returning the newly unlocked ids.
type Evaluator struct {
	store  Store
	clock  clock.Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewEvaluator builds an evaluator. Day keys and hours are taken in loc.
func NewEvaluator(store Store, c clock.Clock, loc *time.Location, logger *zap.Logger) *Evaluator {
	if c == nil {
		c = clock.System{}
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{store: store, clock: c, loc: loc, logger: logger}
}

// OnStart records a started game.
func (e *Evaluator) OnStart(ctx context.Context, sum model.Summary) ([]int, error) {
	return e.run(ctx, TriggerStart, sum, applyStart)
}

// OnWin records a won game.
func (e *Evaluator) OnWin(ctx context.Context, sum model.Summary) ([]int, error) {
	return e.run(ctx, TriggerWin, sum, applyWin)
}

// OnAbandon records an abandoned game.
func (e *Evaluator) OnAbandon(ctx context.Context, sum model.Summary) ([]int, error) {
	return e.run(ctx, TriggerAbandon, sum, applyAbandon)
}

// OnExitToMenu resets the games-without-menu streak. Restarts do not count as
// leaving to the menu.
func (e *Evaluator) OnExitToMenu(ctx context.Context) error {
	s, err := e.store.LoadStatistics(ctx)
	if err != nil {
		return fmt.Errorf("load statistics: %w", err)
	}
	RollDay(&s, e.today(e.clock.Now()))
	s.Streaks.GamesNoMenu = 0
	if err := e.store.SaveStatistics(ctx, s); err != nil {
		return fmt.Errorf("save statistics: %w", err)
	}
	return nil
}

// OnOpen records an app open for the visit streak.
func (e *Evaluator) OnOpen(ctx context.Context) ([]int, error) {
	v, err := e.store.LoadVisit(ctx)
	if err != nil {
		return nil, fmt.Errorf("load visit: %w", err)
	}
	f := e.facts(model.Summary{})
	applyVisit(&v, f)
	if err := e.store.SaveVisit(ctx, v); err != nil {
		return nil, fmt.Errorf("save visit: %w", err)
	}
	f.Visit = v
	return e.unlockAll(ctx, TriggerVisit.String(), Evaluate(TriggerVisit, f))
}

// Unlock adds id to the unlock set. It reports whether id was new.
func (e *Evaluator) Unlock(ctx context.Context, id int) (bool, error) {
	added, err := e.unlockAll(ctx, "manual", []int{id})
	if err != nil {
		return false, err
	}
	return len(added) > 0, nil
}

func (e *Evaluator) run(ctx context.Context, trigger Trigger, sum model.Summary, apply func(*model.Statistics, Facts)) ([]int, error) {
	s, err := e.store.LoadStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("load statistics: %w", err)
	}
	f := e.facts(sum)
	RollDay(&s, f.Today)
	f.Before = s.Clone()
	apply(&s, f)
	f.After = s

	if err := e.store.SaveStatistics(ctx, s); err != nil {
		return nil, fmt.Errorf("save statistics: %w", err)
	}
	return e.unlockAll(ctx, trigger.String(), Evaluate(trigger, f))
}

func (e *Evaluator) facts(sum model.Summary) Facts {
	now := e.clock.Now().In(e.loc)
	return Facts{
		Summary: sum,
		Now:     now,
		Today:   DayKey(now),
		Hour:    now.Hour(),
	}
}

func (e *Evaluator) today(now time.Time) string {
	return DayKey(now.In(e.loc))
}

func (e *Evaluator) unlockAll(ctx context.Context, source string, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	have, err := e.store.LoadUnlockSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("load unlock set: %w", err)
	}
	var added []int
	for _, id := range ids {
		if _, ok := Lookup(id); !ok || slices.Contains(have, id) {
			continue
		}
		have = append(have, id)
		added = append(added, id)
	}
	if len(added) == 0 {
		return nil, nil
	}
	if err := e.store.SaveUnlockSet(ctx, have); err != nil {
		return nil, fmt.Errorf("save unlock set: %w", err)
	}
	if err := e.store.SetUnseen(ctx, true); err != nil {
		return nil, fmt.Errorf("set unseen flag: %w", err)
	}
	for _, id := range added {
		a, _ := Lookup(id)
		e.logger.Info("achievement unlocked",
			zap.Int("id", id),
			zap.String("title", a.Title),
			zap.String("trigger", source),
		)
	}
	return added, nil
}
