// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/klondike/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for profile records, finished games and cloud bundles.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			profile TEXT NOT NULL,
			source TEXT NOT NULL,
			end_state TEXT NOT NULL,
			abandon_reason TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			duration_sec INTEGER NOT NULL,
			moves INTEGER NOT NULL,
			undos INTEGER NOT NULL,
			draw_mode INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS cloud_bundles (
			profile TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_games_profile_ended_at ON games(profile, ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// KV reads and writes raw records. It is implemented by *Store and by the
// transaction handle passed to Update.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type kv struct {
	q execQuerier
}

func (k kv) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := k.q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (k kv) Put(ctx context.Context, key, value string) error {
	_, err := k.q.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (k kv) Delete(ctx context.Context, key string) error {
	_, err := k.q.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Get returns the raw value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	return kv{q: s.db}.Get(ctx, key)
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key, value string) error {
	return kv{q: s.db}.Put(ctx, key, value)
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return kv{q: s.db}.Delete(ctx, key)
}

// Update runs fn inside one transaction. Any error rolls back every write fn made.
func (s *Store) Update(ctx context.Context, fn func(KV) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(kv{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertGame stores a finished game summary for profile.
func (s *Store) InsertGame(ctx context.Context, profile string, sum model.Summary, endedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO games (id, profile, source, end_state, abandon_reason, ended_at, duration_sec, moves, undos, draw_mode)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID,
		profile,
		sum.Source,
		string(sum.EndState),
		sum.AbandonReason,
		endedAt.UTC().Format(time.RFC3339Nano),
		sum.DurationSec,
		sum.Moves,
		sum.Undos,
		int(sum.DrawMode),
	)
	return err
}

// ListGames returns the most recent finished games of profile, newest first.
// A non-positive limit returns every game.
func (s *Store) ListGames(ctx context.Context, profile string, limit int) ([]model.GameRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, end_state, abandon_reason, ended_at, duration_sec, moves, undos, draw_mode
		 FROM games
		 WHERE profile = ?
		 ORDER BY ended_at DESC
		 LIMIT ?`, profile, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var games []model.GameRecord
	for rows.Next() {
		var rec model.GameRecord
		var endState, endedAt string
		var drawMode int
		if err := rows.Scan(&rec.Summary.ID, &rec.Summary.Source, &endState, &rec.Summary.AbandonReason,
			&endedAt, &rec.Summary.DurationSec, &rec.Summary.Moves, &rec.Summary.Undos, &drawMode); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		rec.Profile = profile
		rec.EndedAt = parsed
		rec.Summary.EndState = model.EndState(endState)
		rec.Summary.DrawMode = model.DrawMode(drawMode)
		games = append(games, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

// PutCloudBundle stores the raw bundle pushed for profile.
func (s *Store) PutCloudBundle(ctx context.Context, profile string, payload []byte, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cloud_bundles (profile, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(profile) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		profile, string(payload), at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store cloud bundle: %w", err)
	}
	return nil
}

// GetCloudBundle returns the raw bundle stored for profile.
func (s *Store) GetCloudBundle(ctx context.Context, profile string) ([]byte, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM cloud_bundles WHERE profile = ?`, profile).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load cloud bundle: %w", err)
	}
	return []byte(payload), true, nil
}
