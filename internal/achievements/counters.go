package achievements

import (
	"github.com/verte-zerg/klondike/internal/model"
)

// RollDay resets the per-day counters when the stored day key is not today.
func RollDay(s *model.Statistics, today string) {
	if s.Today.Key == today {
		return
	}
	s.Today = model.DayCounters{Key: today}
}

func applyStart(s *model.Statistics, f Facts) {
	s.Totals.GamesStarted++
	s.Today.GamesStarted++

	s.Play.Streak = AdvanceStreak(s.Play.Streak, s.Play.LastDayKey, f.Today)
	s.Play.LastDayKey = f.Today
	now := f.Now.UnixMilli()
	s.Last.PlayedAtMs = &now

	s.Streaks.GamesNoMenu++
}

func applyWin(s *model.Statistics, f Facts) {
	s.Totals.Wins++

	if s.Today.Wins == 0 {
		hour := f.Hour
		s.Today.FirstWinHour = &hour
	}
	s.Today.Wins++

	s.Streaks.Win++
	s.Streaks.Abandon = 0
	if f.Summary.Undos == 0 {
		s.Streaks.WinNoUndo++
	} else {
		s.Streaks.WinNoUndo = 0
	}

	t := f.Summary.DurationSec
	switch prev := s.Records.BestWinSec; {
	case prev == nil:
		s.Records.BestWinSec = &t
	case t < *prev:
		s.Records.BestWinSec = &t
		s.Records.BestWinUpdates++
	}
}

func applyAbandon(s *model.Statistics, f Facts) {
	s.Totals.Abandons++
	s.Streaks.Abandon++
	s.Streaks.Win = 0
	s.Streaks.WinNoUndo = 0
	now := f.Now.UnixMilli()
	s.Last.AbandonAtMs = &now
}

func applyVisit(v *model.Visit, f Facts) {
	if v.LastDayKey != f.Today {
		v.VisitStreak = AdvanceStreak(v.VisitStreak, v.LastDayKey, f.Today)
		v.LastDayKey = f.Today
	}
	v.LastOpenAtMs = f.Now.UnixMilli()
}
