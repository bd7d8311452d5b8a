package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/verte-zerg/klondike/internal/model"
)

// Built-in profile names.
const (
	ProfileGuest    = "guest"
	ProfilePlatform = "platform"
)

const keyPrefix = "klondike-"

// Record names inside a profile namespace.
const (
	recordSettings = "settings"
	recordSave     = "save-v1"
	recordStats    = "stats-v1"
	recordUnlocked = "achievements-unlocked"
	recordUnseen   = "achievements-new"
	recordVisit    = "visit-v1"
)

// legacyKeys maps unscoped keys written before profiles existed to their record.
var legacyKeys = []struct {
	key    string
	record string
}{
	{keyPrefix + "settings", recordSettings},
	{keyPrefix + "stats-v1", recordStats},
	{keyPrefix + "save-v1", recordSave},
	{keyPrefix + "visit-v1", recordVisit},
}

const legacyMarkerKey = keyPrefix + "legacy-migrated"

var profilePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// ErrInvalidProfile is returned for profile names outside [a-z0-9_]+.
var ErrInvalidProfile = errors.New("invalid profile name")

// ValidProfile reports whether name can be used as a profile namespace. The
// name may not contain '-', so one profile's keys never prefix another's.
func ValidProfile(name string) bool {
	return profilePattern.MatchString(name)
}

// Gateway stores the records of one profile. Reads of corrupt records fall
// back to that record's default and log the failure.
type Gateway struct {
	st      *Store
	profile string
	logger  *zap.Logger
}

// NewGateway returns a gateway scoped to profile. An empty profile means guest.
func NewGateway(st *Store, profile string, logger *zap.Logger) (*Gateway, error) {
	if profile == "" {
		profile = ProfileGuest
	}
	if !ValidProfile(profile) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProfile, profile)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{st: st, profile: profile, logger: logger.With(zap.String("profile", profile))}, nil
}

// Profile returns the profile namespace.
func (g *Gateway) Profile() string {
	return g.profile
}

// Store returns the underlying store.
func (g *Gateway) Store() *Store {
	return g.st
}

func (g *Gateway) key(record string) string {
	return keyPrefix + g.profile + "-" + record
}

// load decodes record into out. It reports false when the record is missing
// or corrupt; corrupt records are logged and left in place.
func (g *Gateway) load(ctx context.Context, record string, out any) (bool, error) {
	raw, ok, err := g.st.Get(ctx, g.key(record))
	if err != nil {
		return false, fmt.Errorf("load %s: %w", record, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		g.logger.Warn("corrupt record, using default", zap.String("record", record), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (g *Gateway) save(ctx context.Context, kv KV, record string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", record, err)
	}
	if err := kv.Put(ctx, g.key(record), string(raw)); err != nil {
		return fmt.Errorf("save %s: %w", record, err)
	}
	return nil
}

// LoadSettings returns the stored settings. Fields missing from the stored
// record keep their defaults.
func (g *Gateway) LoadSettings(ctx context.Context) (model.Settings, error) {
	var patch model.SettingsPatch
	ok, err := g.load(ctx, recordSettings, &patch)
	if err != nil || !ok {
		return model.DefaultSettings(), err
	}
	return patch.Apply(model.DefaultSettings()), nil
}

// HasSettings reports whether a readable settings record is stored.
func (g *Gateway) HasSettings(ctx context.Context) (bool, error) {
	var patch model.SettingsPatch
	return g.load(ctx, recordSettings, &patch)
}

// SaveSettings merges patch over the stored settings and returns the result.
func (g *Gateway) SaveSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	cur, err := g.LoadSettings(ctx)
	if err != nil {
		return cur, err
	}
	next := patch.Apply(cur)
	if err := g.save(ctx, g.st, recordSettings, next); err != nil {
		return cur, err
	}
	return next, nil
}

// LoadBoardSnapshot returns the saved board, if any.
func (g *Gateway) LoadBoardSnapshot(ctx context.Context) (*model.Snapshot, error) {
	var snap *model.Snapshot
	ok, err := g.load(ctx, recordSave, &snap)
	if err != nil || !ok {
		return nil, err
	}
	return snap, nil
}

// SaveBoardSnapshot replaces the saved board.
func (g *Gateway) SaveBoardSnapshot(ctx context.Context, snap model.Snapshot) error {
	return g.save(ctx, g.st, recordSave, snap)
}

// ClearBoardSnapshot removes the saved board.
func (g *Gateway) ClearBoardSnapshot(ctx context.Context) error {
	if err := g.st.Delete(ctx, g.key(recordSave)); err != nil {
		return fmt.Errorf("clear %s: %w", recordSave, err)
	}
	return nil
}

// LoadStatistics returns the statistics record, zero-valued when missing or corrupt.
func (g *Gateway) LoadStatistics(ctx context.Context) (model.Statistics, error) {
	var s model.Statistics
	ok, err := g.load(ctx, recordStats, &s)
	if err != nil || !ok {
		return model.Statistics{}, err
	}
	return s, nil
}

// SaveStatistics replaces the statistics record.
func (g *Gateway) SaveStatistics(ctx context.Context, s model.Statistics) error {
	return g.save(ctx, g.st, recordStats, s)
}

// LoadUnlockSet returns the unlocked achievement ids in unlock order.
func (g *Gateway) LoadUnlockSet(ctx context.Context) ([]int, error) {
	var ids []int
	ok, err := g.load(ctx, recordUnlocked, &ids)
	if err != nil || !ok {
		return nil, err
	}
	return lo.Uniq(ids), nil
}

// SaveUnlockSet replaces the unlock set. Duplicates are dropped.
func (g *Gateway) SaveUnlockSet(ctx context.Context, ids []int) error {
	return g.save(ctx, g.st, recordUnlocked, lo.Uniq(ids))
}

// HasUnseen reports whether an unlock has not been viewed yet.
func (g *Gateway) HasUnseen(ctx context.Context) (bool, error) {
	var unseen bool
	if _, err := g.load(ctx, recordUnseen, &unseen); err != nil {
		return false, err
	}
	return unseen, nil
}

// SetUnseen sets the unseen-unlock flag.
func (g *Gateway) SetUnseen(ctx context.Context, unseen bool) error {
	return g.save(ctx, g.st, recordUnseen, unseen)
}

// LoadVisit returns the app-open record.
func (g *Gateway) LoadVisit(ctx context.Context) (model.Visit, error) {
	var v model.Visit
	ok, err := g.load(ctx, recordVisit, &v)
	if err != nil || !ok {
		return model.Visit{}, err
	}
	return v, nil
}

// SaveVisit replaces the app-open record.
func (g *Gateway) SaveVisit(ctx context.Context, v model.Visit) error {
	return g.save(ctx, g.st, recordVisit, v)
}

// RecordGame appends a finished game to the profile's history.
func (g *Gateway) RecordGame(ctx context.Context, rec model.GameRecord) error {
	if err := g.st.InsertGame(ctx, g.profile, rec.Summary, rec.EndedAt); err != nil {
		return fmt.Errorf("record game: %w", err)
	}
	return nil
}

// RecentGames returns up to limit finished games, newest first.
func (g *Gateway) RecentGames(ctx context.Context, limit int) ([]model.GameRecord, error) {
	games, err := g.st.ListGames(ctx, g.profile, limit)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// ExportMergeable returns the cloud bundle of the profile. ExportedAtMs is
// left for the caller to stamp.
func (g *Gateway) ExportMergeable(ctx context.Context) (model.Bundle, error) {
	settings, err := g.LoadSettings(ctx)
	if err != nil {
		return model.Bundle{}, err
	}
	unlocked, err := g.LoadUnlockSet(ctx)
	if err != nil {
		return model.Bundle{}, err
	}
	unseen, err := g.HasUnseen(ctx)
	if err != nil {
		return model.Bundle{}, err
	}
	snap, err := g.LoadBoardSnapshot(ctx)
	if err != nil {
		return model.Bundle{}, err
	}
	if unlocked == nil {
		unlocked = []int{}
	}
	return model.Bundle{
		Settings:  &settings,
		Unlocked:  unlocked,
		HasUnseen: unseen,
		Board:     snap,
	}, nil
}

// ApplyMergeBundle overwrites local state with b in one transaction. Nil
// settings or unlock lists leave the local record alone; a nil board clears
// the saved game.
func (g *Gateway) ApplyMergeBundle(ctx context.Context, b model.Bundle) error {
	return g.st.Update(ctx, func(kv KV) error {
		if b.Settings != nil {
			if err := g.save(ctx, kv, recordSettings, *b.Settings); err != nil {
				return err
			}
		}
		if b.Unlocked != nil {
			if err := g.save(ctx, kv, recordUnlocked, lo.Uniq(b.Unlocked)); err != nil {
				return err
			}
		}
		if err := g.save(ctx, kv, recordUnseen, b.HasUnseen); err != nil {
			return err
		}
		if b.Board == nil {
			if err := kv.Delete(ctx, g.key(recordSave)); err != nil {
				return fmt.Errorf("clear %s: %w", recordSave, err)
			}
			return nil
		}
		return g.save(ctx, kv, recordSave, *b.Board)
	})
}

// MigrateLegacy copies unscoped records into this profile once per database.
// Existing profile records are never overwritten and legacy records are
// never deleted. It reports the records copied.
func (g *Gateway) MigrateLegacy(ctx context.Context) ([]string, error) {
	var copied []string
	err := g.st.Update(ctx, func(kv KV) error {
		copied = nil
		if _, done, err := kv.Get(ctx, legacyMarkerKey); err != nil || done {
			return err
		}
		for _, lk := range legacyKeys {
			raw, ok, err := kv.Get(ctx, lk.key)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			_, exists, err := kv.Get(ctx, g.key(lk.record))
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := kv.Put(ctx, g.key(lk.record), raw); err != nil {
				return err
			}
			copied = append(copied, lk.record)
		}
		return kv.Put(ctx, legacyMarkerKey, g.profile)
	})
	if err != nil {
		return nil, fmt.Errorf("migrate legacy records: %w", err)
	}
	if len(copied) > 0 {
		g.logger.Info("migrated legacy records", zap.Strings("records", copied))
	}
	return copied, nil
}
