package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/verte-zerg/klondike/internal/clock"
	"github.com/verte-zerg/klondike/internal/model"
)

// DefaultDebounce is the window in which repeated Schedule calls coalesce.
const DefaultDebounce = 1200 * time.Millisecond

// Source is the local side of the sync.
type Source interface {
	Profile() string
	ExportMergeable(ctx context.Context) (model.Bundle, error)
	ApplyMergeBundle(ctx context.Context, b model.Bundle) error
}

// Options configure a Syncer. Zero values pick the defaults.
type Options struct {
	Debounce    time.Duration
	SendTimeout time.Duration
	// Limit and Burst throttle pushes to the transport.
	Limit  rate.Limit
	Burst  int
	Clock  clock.Clock
	Logger *zap.Logger
}

// Syncer debounces exports of one profile to a Transport. Only the newest
// pending export of a window is sent, and an export equal to the last one
// sent is skipped. A failed push is logged and retried on the next cycle.
//
// Thread-safety: all methods are safe for concurrent use.
type Syncer struct {
	src     Source
	tr      Transport
	opts    Options
	limiter *rate.Limiter

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	closed bool

	sendMu   sync.Mutex
	lastSent []byte
}

// NewSyncer returns a syncer pushing src through tr. A nil transport makes
// every method a no-op.
func NewSyncer(src Source, tr Transport, opts Options) *Syncer {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 15 * time.Second
	}
	if opts.Limit == 0 {
		opts.Limit = rate.Every(opts.Debounce)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Syncer{
		src:     src,
		tr:      tr,
		opts:    opts,
		limiter: rate.NewLimiter(opts.Limit, opts.Burst),
	}
}

// Enabled reports whether a transport is configured.
func (s *Syncer) Enabled() bool {
	return s != nil && s.tr != nil
}

// Schedule requests an export. Calls within the debounce window replace the
// pending export.
func (s *Syncer) Schedule() {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Debounce, func() { s.fire(gen) })
}

func (s *Syncer) fire(gen uint64) {
	s.mu.Lock()
	stale := s.closed || gen != s.gen
	s.mu.Unlock()
	if stale {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SendTimeout)
	defer cancel()
	if err := s.send(ctx); err != nil {
		s.opts.Logger.Warn("cloud export failed", zap.String("profile", s.src.Profile()), zap.Error(err))
	}
}

// Flush drops any pending export and sends the current state now.
func (s *Syncer) Flush(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	s.mu.Lock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.send(ctx)
}

// Close cancels any pending export. Later calls to Schedule are ignored.
func (s *Syncer) Close() {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// PullAndApply overwrites local state with the remote bundle, if one exists.
func (s *Syncer) PullAndApply(ctx context.Context) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	b, ok, err := s.tr.Pull(ctx, s.src.Profile())
	if err != nil || !ok {
		return false, err
	}
	if err := s.src.ApplyMergeBundle(ctx, b); err != nil {
		return false, fmt.Errorf("apply remote bundle: %w", err)
	}

	// The local state now equals the remote one; do not echo it back.
	local, err := s.src.ExportMergeable(ctx)
	if err == nil {
		if payload, perr := fingerprint(local); perr == nil {
			s.sendMu.Lock()
			s.lastSent = payload
			s.sendMu.Unlock()
		}
	}
	s.opts.Logger.Info("applied remote bundle", zap.String("profile", s.src.Profile()))
	return true, nil
}

func (s *Syncer) send(ctx context.Context) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	b, err := s.src.ExportMergeable(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	payload, err := fingerprint(b)
	if err != nil {
		return err
	}
	if bytes.Equal(payload, s.lastSent) {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	b.ExportedAtMs = s.opts.Clock.Now().UnixMilli()
	if err := s.tr.Push(ctx, s.src.Profile(), b); err != nil {
		return err
	}
	s.lastSent = payload
	s.opts.Logger.Debug("cloud export sent", zap.String("profile", s.src.Profile()), zap.Int("bytes", len(payload)))
	return nil
}

// fingerprint encodes b without its timestamp so equal states compare equal.
func fingerprint(b model.Bundle) ([]byte, error) {
	b.ExportedAtMs = 0
	payload, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return payload, nil
}
