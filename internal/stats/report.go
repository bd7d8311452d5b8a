package stats

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/verte-zerg/klondike/internal/achievements"
	"github.com/verte-zerg/klondike/internal/model"
	"github.com/verte-zerg/klondike/internal/store"
)

// DefaultRecent is the number of recent games shown by default.
const DefaultRecent = 10

const endedLayout = "2006-01-02 15:04"

// Report contains precomputed data for stats rendering.
type Report struct {
	Profile  string
	Stats    model.Statistics
	Unlocked []achievements.Achievement
	Total    int
	// Recent is ordered newest first.
	Recent []model.GameRecord
}

// BuildReport loads the statistics, unlocks and the last games of a profile.
func BuildReport(ctx context.Context, gw *store.Gateway, last int) (Report, error) {
	st, err := gw.LoadStatistics(ctx)
	if err != nil {
		return Report{}, err
	}
	ids, err := gw.LoadUnlockSet(ctx)
	if err != nil {
		return Report{}, err
	}
	if last <= 0 {
		last = DefaultRecent
	}
	recent, err := gw.RecentGames(ctx, last)
	if err != nil {
		return Report{}, err
	}

	slices.Sort(ids)
	unlocked := lo.FilterMap(ids, func(id int, _ int) (achievements.Achievement, bool) {
		return achievements.Lookup(id)
	})
	return Report{
		Profile:  gw.Profile(),
		Stats:    st,
		Unlocked: unlocked,
		Total:    achievements.Total(),
		Recent:   recent,
	}, nil
}

// WriteReport renders the report as text. Times are shown in loc.
func WriteReport(w io.Writer, r Report, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	for _, line := range reportLines(r, loc) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func reportLines(r Report, loc *time.Location) []string {
	lines := []string{"Profile: " + r.Profile, "", "Summary"}
	lines = append(lines, formatTable(nil, summaryRows(r.Stats), map[int]bool{1: true})...)

	lines = append(lines, "", fmt.Sprintf("Achievements %d/%d", len(r.Unlocked), r.Total))
	if len(r.Unlocked) == 0 {
		lines = append(lines, "None unlocked yet.")
	} else {
		rows := lo.Map(r.Unlocked, func(a achievements.Achievement, _ int) []string {
			return []string{a.Title, a.Description}
		})
		lines = append(lines, formatTable(nil, rows, nil)...)
	}

	lines = append(lines, "", "Recent games")
	if len(r.Recent) == 0 {
		return append(lines, "No games recorded.")
	}
	headers := []string{"Ended", "Result", "Time", "Moves", "Undos", "Draw"}
	rows := lo.Map(r.Recent, func(g model.GameRecord, _ int) []string {
		return []string{
			g.EndedAt.In(loc).Format(endedLayout),
			resultLabel(g.Summary),
			FormatDuration(g.Summary.DurationSec),
			strconv.Itoa(g.Summary.Moves),
			strconv.Itoa(g.Summary.Undos),
			strconv.Itoa(int(g.Summary.DrawMode)),
		}
	})
	lines = append(lines, formatTable(headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true})...)

	if wins := WinDurations(r.Recent); len(wins) > 1 {
		lines = append(lines, "Win times (oldest first): "+Sparkline(wins))
	}
	return lines
}

func summaryRows(s model.Statistics) [][]string {
	rate := "-"
	if v, ok := WinRate(s.Totals); ok {
		rate = fmt.Sprintf("%.1f%%", v)
	}
	best := "-"
	if s.Records.BestWinSec != nil {
		best = FormatDuration(*s.Records.BestWinSec)
	}
	return [][]string{
		{"Games started", strconv.Itoa(s.Totals.GamesStarted)},
		{"Wins", strconv.Itoa(s.Totals.Wins)},
		{"Abandons", strconv.Itoa(s.Totals.Abandons)},
		{"Win rate", rate},
		{"Best time", best},
		{"Win streak", strconv.Itoa(s.Streaks.Win)},
		{"Play streak", strconv.Itoa(s.Play.Streak)},
	}
}

func resultLabel(s model.Summary) string {
	if s.EndState == model.EndAbandon && s.AbandonReason != "" {
		return fmt.Sprintf("abandon (%s)", s.AbandonReason)
	}
	return string(s.EndState)
}
