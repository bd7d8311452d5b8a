package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/verte-zerg/klondike/internal/model"
)

const sparkChars = " .:-=+*#%@"

// WinRate returns the share of started games that were won, in percent.
// It reports false when no game was started.
func WinRate(t model.Totals) (float64, bool) {
	if t.GamesStarted <= 0 {
		return 0, false
	}
	return float64(t.Wins) * 100 / float64(t.GamesStarted), true
}

// FormatDuration renders seconds as m:ss, or h:mm:ss from one hour on.
func FormatDuration(sec int) string {
	if sec < 0 {
		sec = 0
	}
	h, m, s := sec/3600, sec/60%60, sec%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// WinDurations returns the durations of won games, oldest first. games is
// expected newest first, as returned by the store.
func WinDurations(games []model.GameRecord) []float64 {
	wins := lo.FilterMap(games, func(g model.GameRecord, _ int) (float64, bool) {
		return float64(g.Summary.DurationSec), g.Summary.EndState == model.EndWin
	})
	out := make([]float64, len(wins))
	for i, v := range wins {
		out[len(wins)-1-i] = v
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := lo.Min(values), lo.Max(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
