package model

import "time"

// SnapshotVersion is the current board snapshot schema version.
const SnapshotVersion = 1

// SnapshotCard is one persisted card position.
type SnapshotCard struct {
	Key    string `json:"key" yaml:"key"`
	FaceUp bool   `json:"faceUp" yaml:"faceUp"`
}

// Snapshot is a persisted board, sufficient to rebuild every pile.
type Snapshot struct {
	Version     int              `json:"version" yaml:"version"`
	DrawMode    DrawMode         `json:"drawMode" yaml:"drawMode"`
	Stock       []SnapshotCard   `json:"stock" yaml:"stock"`
	Waste       []SnapshotCard   `json:"waste" yaml:"waste"`
	Foundations [][]SnapshotCard `json:"foundations" yaml:"foundations"`
	Tableau     [][]SnapshotCard `json:"tableau" yaml:"tableau"`
}

// Totals counts finished and started games.
type Totals struct {
	GamesStarted int `json:"gamesStarted"`
	Wins         int `json:"wins"`
	Abandons     int `json:"abandons"`
}

// Streaks holds the consecutive-outcome counters.
type Streaks struct {
	Win         int `json:"win"`
	Abandon     int `json:"abandon"`
	WinNoUndo   int `json:"winNoUndo"`
	GamesNoMenu int `json:"gamesNoMenu"`
}

// PlayStreak counts consecutive days with at least one started game.
type PlayStreak struct {
	Streak     int    `json:"streak"`
	LastDayKey string `json:"lastDayKey,omitempty"`
}

// DayCounters are reset whenever Key differs from today's day key.
type DayCounters struct {
	Key          string `json:"key"`
	Wins         int    `json:"wins"`
	GamesStarted int    `json:"gamesStarted"`
	FirstWinHour *int   `json:"firstWinHour"`
}

// LastSeen stores timestamps in unix milliseconds.
type LastSeen struct {
	AbandonAtMs *int64 `json:"abandonAtMs"`
	PlayedAtMs  *int64 `json:"playedAtMs"`
}

// Records holds the personal best win time.
type Records struct {
	BestWinSec     *int `json:"bestWinSec"`
	BestWinUpdates int  `json:"bestWinUpdates"`
}

// Statistics is the durable, profile-scoped counter set.
type Statistics struct {
	Totals  Totals      `json:"totals"`
	Streaks Streaks     `json:"streaks"`
	Play    PlayStreak  `json:"play"`
	Today   DayCounters `json:"today"`
	Last    LastSeen    `json:"last"`
	Records Records     `json:"records"`
}

// Clone returns a deep copy of s.
func (s Statistics) Clone() Statistics {
	out := s
	if s.Today.FirstWinHour != nil {
		v := *s.Today.FirstWinHour
		out.Today.FirstWinHour = &v
	}
	if s.Last.AbandonAtMs != nil {
		v := *s.Last.AbandonAtMs
		out.Last.AbandonAtMs = &v
	}
	if s.Last.PlayedAtMs != nil {
		v := *s.Last.PlayedAtMs
		out.Last.PlayedAtMs = &v
	}
	if s.Records.BestWinSec != nil {
		v := *s.Records.BestWinSec
		out.Records.BestWinSec = &v
	}
	return out
}

// Visit tracks distinct days the app was opened.
type Visit struct {
	LastDayKey   string `json:"lastDayKey,omitempty"`
	VisitStreak  int    `json:"visitStreak"`
	LastOpenAtMs int64  `json:"lastOpenAtMs,omitempty"`
}

// Bundle is the cloud-mergeable export of a profile.
type Bundle struct {
	Settings     *Settings `json:"settings,omitempty" yaml:"settings,omitempty"`
	Unlocked     []int     `json:"unlocked" yaml:"unlocked"`
	HasUnseen    bool      `json:"hasNewAchievements" yaml:"hasNewAchievements"`
	Board        *Snapshot `json:"savegame" yaml:"savegame"`
	ExportedAtMs int64     `json:"ts" yaml:"ts"`
}

// GameRecord is a finished game kept in the local history.
type GameRecord struct {
	Profile string
	EndedAt time.Time
	Summary Summary
}
