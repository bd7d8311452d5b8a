package achievements

import (
	"time"

	"github.com/verte-zerg/klondike/internal/model"
)

// Trigger is the lifecycle point a rule is checked at.
type Trigger int

// Lifecycle triggers.
const (
	TriggerStart Trigger = iota
	TriggerWin
	TriggerAbandon
	TriggerVisit
)

func (t Trigger) String() string {
	switch t {
	case TriggerStart:
		return "start"
	case TriggerWin:
		return "win"
	case TriggerAbandon:
		return "abandon"
	case TriggerVisit:
		return "visit"
	default:
		return "unknown"
	}
}

// Facts is everything a rule may look at. Before is the stored record after
// the day rollover; After is the record about to be persisted.
type Facts struct {
	Before  model.Statistics
	After   model.Statistics
	Summary model.Summary
	Now     time.Time
	Today   string
	Hour    int
	Visit   model.Visit
}

// AwayDays returns the gap in days since the last played day, or 0 when
// there is no earlier day to compare against.
func (f Facts) AwayDays() int {
	last := f.Before.Play.LastDayKey
	if last == "" || last == f.Today {
		return 0
	}
	diff, err := DayDiff(last, f.Today)
	if err != nil {
		return 0
	}
	return diff
}

// RestartedWithin reports whether the previous abandon happened at most d
// before Now.
func (f Facts) RestartedWithin(d time.Duration) bool {
	at := f.Before.Last.AbandonAtMs
	if at == nil {
		return false
	}
	dt := f.Now.UnixMilli() - *at
	return dt >= 0 && dt <= d.Milliseconds()
}

// FirstWinToday reports whether the win is the first one of the day.
func (f Facts) FirstWinToday() bool {
	return f.Before.Today.Wins == 0
}

// NewBest reports whether the win set or improved the personal best.
func (f Facts) NewBest() bool {
	prev := f.Before.Records.BestWinSec
	return prev == nil || f.Summary.DurationSec < *prev
}

// Rule unlocks ID when Check holds at Trigger.
type Rule struct {
	ID      int
	Trigger Trigger
	Check   func(Facts) bool
}

func always(Facts) bool { return true }

func gamesStarted(n int) func(Facts) bool {
	return func(f Facts) bool { return f.After.Totals.GamesStarted >= n }
}

func winsToday(n int) func(Facts) bool {
	return func(f Facts) bool { return f.After.Today.Wins >= n }
}

func winStreak(n int) func(Facts) bool {
	return func(f Facts) bool { return f.After.Streaks.Win >= n }
}

func abandonStreakBefore(n int) func(Facts) bool {
	return func(f Facts) bool { return f.Before.Streaks.Abandon >= n }
}

func awayAtLeast(days int) func(Facts) bool {
	return func(f Facts) bool { return f.AwayDays() >= days }
}

func visitStreak(n int) func(Facts) bool {
	return func(f Facts) bool { return f.Visit.VisitStreak >= n }
}

// Rules is evaluated in order per trigger; every rule that holds unlocks in
// the same pass.
var Rules = []Rule{
	// start
	{ID: 2, Trigger: TriggerStart, Check: always},
	{ID: 18, Trigger: TriggerStart, Check: gamesStarted(20)},
	{ID: 19, Trigger: TriggerStart, Check: gamesStarted(50)},
	{ID: 20, Trigger: TriggerStart, Check: gamesStarted(100)},
	{ID: 21, Trigger: TriggerStart, Check: gamesStarted(150)},
	{ID: 22, Trigger: TriggerStart, Check: gamesStarted(300)},
	{ID: 26, Trigger: TriggerStart, Check: func(f Facts) bool { return f.RestartedWithin(10 * time.Second) }},
	{ID: 30, Trigger: TriggerStart, Check: awayAtLeast(30)},
	{ID: 31, Trigger: TriggerStart, Check: awayAtLeast(14)},
	{ID: 29, Trigger: TriggerStart, Check: func(f Facts) bool { return f.After.Play.Streak >= 5 }},
	{ID: 37, Trigger: TriggerStart, Check: func(f Facts) bool { return f.After.Streaks.GamesNoMenu >= 10 }},

	// win
	{ID: 2, Trigger: TriggerWin, Check: always},
	{ID: 3, Trigger: TriggerWin, Check: always},
	{ID: 35, Trigger: TriggerWin, Check: func(f Facts) bool { return f.FirstWinToday() && f.Hour >= 23 }},
	{ID: 36, Trigger: TriggerWin, Check: func(f Facts) bool { return f.FirstWinToday() && f.Hour < 7 }},
	{ID: 12, Trigger: TriggerWin, Check: winsToday(3)},
	{ID: 10, Trigger: TriggerWin, Check: winsToday(5)},
	{ID: 11, Trigger: TriggerWin, Check: winsToday(10)},
	{ID: 13, Trigger: TriggerWin, Check: abandonStreakBefore(1)},
	{ID: 14, Trigger: TriggerWin, Check: abandonStreakBefore(3)},
	{ID: 7, Trigger: TriggerWin, Check: winStreak(3)},
	{ID: 8, Trigger: TriggerWin, Check: winStreak(5)},
	{ID: 9, Trigger: TriggerWin, Check: winStreak(10)},
	{ID: 17, Trigger: TriggerWin, Check: func(f Facts) bool { return f.Summary.Moves <= 120 }},
	{ID: 4, Trigger: TriggerWin, Check: func(f Facts) bool { return !f.Summary.DrawMode.IsThree() && f.Summary.Undos == 0 }},
	{ID: 16, Trigger: TriggerWin, Check: func(f Facts) bool { return f.Summary.DrawMode.IsThree() && f.Summary.Undos == 0 }},
	{ID: 25, Trigger: TriggerWin, Check: func(f Facts) bool { return f.Summary.Undos == 1 }},
	{ID: 32, Trigger: TriggerWin, Check: func(f Facts) bool { return f.Summary.Undos >= 5 }},
	{ID: 33, Trigger: TriggerWin, Check: func(f Facts) bool { return f.Summary.Undos >= 10 }},
	{ID: 38, Trigger: TriggerWin, Check: func(f Facts) bool { return f.After.Streaks.WinNoUndo >= 3 }},
	{ID: 5, Trigger: TriggerWin, Check: func(f Facts) bool { return f.Summary.DurationSec <= 5*60 }},
	{ID: 6, Trigger: TriggerWin, Check: func(f Facts) bool { return f.Summary.DurationSec <= 3*60 }},
	{ID: 34, Trigger: TriggerWin, Check: func(f Facts) bool { return f.Summary.DurationSec >= 30*60 }},
	{ID: 39, Trigger: TriggerWin, Check: func(f Facts) bool { return f.Summary.DurationSec == 4*60+56 }},
	{ID: 24, Trigger: TriggerWin, Check: func(f Facts) bool { return f.NewBest() && f.Summary.DurationSec < 5*60 }},
	{ID: 23, Trigger: TriggerWin, Check: func(f Facts) bool {
		return f.NewBest() && f.Before.Records.BestWinSec != nil && f.After.Records.BestWinUpdates >= 5
	}},

	// abandon
	{ID: 2, Trigger: TriggerAbandon, Check: always},
	{ID: 1, Trigger: TriggerAbandon, Check: always},
	{ID: 15, Trigger: TriggerAbandon, Check: func(f Facts) bool { return f.After.Streaks.Abandon >= 10 }},

	// visit
	{ID: 27, Trigger: TriggerVisit, Check: visitStreak(3)},
	{ID: 28, Trigger: TriggerVisit, Check: visitStreak(7)},
}

// Evaluate returns the ids of the rules for trigger that hold, in table order,
// without duplicates.
func Evaluate(trigger Trigger, f Facts) []int {
	var out []int
	seen := map[int]bool{}
	for _, r := range Rules {
		if r.Trigger != trigger || seen[r.ID] || !r.Check(f) {
			continue
		}
		seen[r.ID] = true
		out = append(out, r.ID)
	}
	return out
}
