// Package game wires the board, rules, session and achievements into one
// playable game with persistence.
package game

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/verte-zerg/klondike/internal/achievements"
	"github.com/verte-zerg/klondike/internal/board"
	"github.com/verte-zerg/klondike/internal/clock"
	"github.com/verte-zerg/klondike/internal/cloud"
	"github.com/verte-zerg/klondike/internal/model"
	"github.com/verte-zerg/klondike/internal/rules"
	"github.com/verte-zerg/klondike/internal/session"
	"github.com/verte-zerg/klondike/internal/store"
	"github.com/verte-zerg/klondike/internal/undo"
)

// Session sources.
const (
	SourceNew     = "new"
	SourceRestart = "restart"
	SourceResume  = "resume"
	SourceWin     = "win_popup"
)

// Abandon reasons.
const (
	ReasonRestart = "restart"
	ReasonHome    = "home"
	ReasonNewGame = "new_game"
)

// ErrNoGame is returned by operations that need a dealt board.
var ErrNoGame = errors.New("no game in progress")

// Dealer produces new boards.
type Dealer interface {
	Deal() *board.Board
}

// Deps are the collaborators of a Game. Gateway is required.
type Deps struct {
	Gateway   *store.Gateway
	Tracker   *session.Tracker
	Evaluator *achievements.Evaluator
	Syncer    *cloud.Syncer
	Dealer    Dealer
	Clock     clock.Clock
	Logger    *zap.Logger
}

// Outcome reports the effect of a board operation.
type Outcome struct {
	Changed  bool
	Won      bool
	Summary  model.Summary
	Unlocked []int
}

// Opening is the result of Open.
type Opening struct {
	Unlocked     []int
	HasSave      bool
	PulledRemote bool
}

// Overview is the statistics display data.
type Overview struct {
	Stats       model.Statistics
	UnlockedIDs []int
	Unlocked    int
	Total       int
	HasUnseen   bool
}

type drag struct {
	from board.Location
	ids  []int
}

// Game is the single-board game service. It is not safe for concurrent use.
type Game struct {
	gw      *store.Gateway
	tracker *session.Tracker
	eval    *achievements.Evaluator
	sync    *cloud.Syncer
	dealer  Dealer
	clock   clock.Clock
	logger  *zap.Logger

	engine *rules.Engine
	mode   model.DrawMode
	drag   *drag
	won    bool
}

// New builds a game from deps, filling optional collaborators with defaults.
func New(d Deps) *Game {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Tracker == nil {
		d.Tracker = session.NewTracker(d.Clock)
	}
	if d.Evaluator == nil {
		d.Evaluator = achievements.NewEvaluator(d.Gateway, d.Clock, nil, d.Logger)
	}
	if d.Dealer == nil {
		d.Dealer = board.NewDealer()
	}
	return &Game{
		gw:      d.Gateway,
		tracker: d.Tracker,
		eval:    d.Evaluator,
		sync:    d.Syncer,
		dealer:  d.Dealer,
		clock:   d.Clock,
		logger:  d.Logger,
		mode:    model.DrawOne,
	}
}

// Open prepares the profile: legacy migration, remote pull and the visit check.
// Failures are logged and never stop the game from starting.
func (g *Game) Open(ctx context.Context) Opening {
	var out Opening
	if _, err := g.gw.MigrateLegacy(ctx); err != nil {
		g.logger.Warn("legacy migration failed", zap.Error(err))
	}
	pulled, err := g.sync.PullAndApply(ctx)
	if err != nil {
		g.logger.Warn("cloud pull failed", zap.Error(err))
	}
	out.PulledRemote = pulled

	unlocked, err := g.eval.OnOpen(ctx)
	if err != nil {
		g.logger.Warn("visit check failed", zap.Error(err))
	}
	out.Unlocked = unlocked
	g.scheduleIf(len(unlocked) > 0)

	snap, err := g.gw.LoadBoardSnapshot(ctx)
	if err != nil {
		g.logger.Warn("load saved game failed", zap.Error(err))
	}
	out.HasSave = snap != nil
	return out
}

// Start resumes the saved game, or deals a new one when resume is false or
// no usable save exists. A save that is passed over is abandoned by the new
// deal, so it still counts as a finished game.
func (g *Game) Start(ctx context.Context, resume bool) ([]int, error) {
	resumed, err := g.ResumeSaved(ctx)
	if err != nil {
		g.logger.Warn("resume saved game failed", zap.Error(err))
	}
	if resumed && resume {
		return nil, nil
	}
	return g.NewGame(ctx, SourceNew)
}

// NewGame deals a fresh board in the configured draw mode. An unfinished
// game is abandoned first.
func (g *Game) NewGame(ctx context.Context, source string) ([]int, error) {
	var unlocked []int
	if g.tracker.Active() {
		ids, err := g.Abandon(ctx, ReasonNewGame)
		if err != nil {
			return nil, err
		}
		unlocked = append(unlocked, ids...)
	}

	settings, err := g.gw.LoadSettings(ctx)
	if err != nil {
		g.logger.Warn("load settings failed", zap.Error(err))
		settings = model.DefaultSettings()
	}
	g.reset(g.dealer.Deal(), settings.DrawMode())

	sum := g.tracker.Start(source, g.mode)
	ids, err := g.eval.OnStart(ctx, sum)
	if err != nil {
		return unlocked, fmt.Errorf("start game: %w", err)
	}
	unlocked = append(unlocked, ids...)
	g.persist(ctx)
	g.logger.Info("game started", zap.String("session", sum.ID), zap.String("source", sum.Source), zap.Int("draw", int(g.mode)))
	return unlocked, nil
}

// Restart abandons the current game and deals a new one. Restarting does not
// count as leaving to the menu.
func (g *Game) Restart(ctx context.Context) ([]int, error) {
	var unlocked []int
	if g.tracker.Active() {
		ids, err := g.Abandon(ctx, ReasonRestart)
		if err != nil {
			return nil, err
		}
		unlocked = append(unlocked, ids...)
	}
	source := SourceRestart
	if g.won {
		source = SourceWin
	}
	ids, err := g.NewGame(ctx, source)
	return append(unlocked, ids...), err
}

// ResumeSaved restores the saved board and opens a session for it. It reports
// false when there is no usable save; a corrupt save is discarded.
func (g *Game) ResumeSaved(ctx context.Context) (bool, error) {
	snap, err := g.gw.LoadBoardSnapshot(ctx)
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, nil
	}
	b, mode, err := board.FromSnapshot(*snap)
	if err != nil {
		g.logger.Warn("discarding unreadable save", zap.Error(err))
		if cerr := g.gw.ClearBoardSnapshot(ctx); cerr != nil {
			g.logger.Warn("clear save failed", zap.Error(cerr))
		}
		return false, nil
	}
	g.reset(b, mode)
	g.tracker.Start(SourceResume, mode)
	return true, nil
}

func (g *Game) reset(b *board.Board, mode model.DrawMode) {
	g.engine = rules.New(b, undo.NewLog(undo.DefaultCapacity))
	g.mode = mode
	g.drag = nil
	g.won = false
}

// Draw turns stock cards over, or recycles the waste when the stock is empty.
func (g *Game) Draw(ctx context.Context) Outcome {
	if !g.playable() {
		return Outcome{}
	}
	if _, ok := g.engine.Draw(int(g.mode)); !ok {
		return Outcome{}
	}
	g.tracker.AddMove()
	return g.afterMutation(ctx)
}

// Move moves ids from the pile at from onto the pile at to.
func (g *Game) Move(ctx context.Context, from board.Location, ids []int, to board.Location) Outcome {
	if !g.playable() {
		return Outcome{}
	}
	if _, ok := g.engine.TryMove(from, ids, to); !ok {
		return Outcome{}
	}
	g.tracker.AddMove()
	return g.afterMutation(ctx)
}

// SendToFoundation moves the top card id to the foundation that accepts it.
func (g *Game) SendToFoundation(ctx context.Context, id int) Outcome {
	if !g.playable() {
		return Outcome{}
	}
	f, ok := g.engine.FoundationFor(id)
	if !ok {
		return Outcome{}
	}
	from, _ := g.engine.Board().Locate(id)
	return g.Move(ctx, from, []int{id}, board.Pile(board.Foundation, f))
}

// Undo reverts the last action. It does nothing while a drag is in progress.
func (g *Game) Undo(ctx context.Context) Outcome {
	if !g.playable() || g.drag != nil {
		return Outcome{}
	}
	_, ok, err := g.engine.Undo()
	if err != nil {
		g.logger.Error("undo failed", zap.Error(err))
		return Outcome{}
	}
	if !ok {
		return Outcome{}
	}
	g.tracker.AddUndo()
	return g.afterMutation(ctx)
}

// BeginDrag picks up the cards at loc.
func (g *Game) BeginDrag(loc board.Location) ([]int, bool) {
	if !g.playable() || g.drag != nil {
		return nil, false
	}
	ids, ok := g.engine.DragRun(loc)
	if !ok {
		return nil, false
	}
	loc.Pos = slices.Index(g.engine.Board().Pile(loc.Kind, loc.Index), ids[0])
	g.drag = &drag{from: loc, ids: ids}
	return slices.Clone(ids), true
}

// CanDropDrag reports whether the dragged cards may be dropped on to.
func (g *Game) CanDropDrag(to board.Location) bool {
	return g.drag != nil && g.engine.CanDrop(g.drag.ids, to)
}

// EndDrag drops the dragged cards on to. A nil destination cancels the drag.
func (g *Game) EndDrag(ctx context.Context, to *board.Location) Outcome {
	d := g.drag
	g.drag = nil
	if d == nil || to == nil {
		return Outcome{}
	}
	return g.Move(ctx, d.from, d.ids, *to)
}

// Dragging returns the dragged cards, if any.
func (g *Game) Dragging() ([]int, bool) {
	if g.drag == nil {
		return nil, false
	}
	return slices.Clone(g.drag.ids), true
}

// Pause stops the session clock. Focus loss, suspend and quit all route here.
func (g *Game) Pause() {
	g.tracker.Pause()
}

// Resume restarts the session clock after Pause.
func (g *Game) Resume() {
	g.tracker.Resume()
}

// Abandon finalizes the current game as given up.
func (g *Game) Abandon(ctx context.Context, reason string) ([]int, error) {
	g.drag = nil
	sum, ok := g.tracker.Abandon(reason)
	if !ok {
		return nil, nil
	}
	g.record(ctx, sum)
	unlocked, err := g.eval.OnAbandon(ctx, sum)
	if err != nil {
		return nil, fmt.Errorf("abandon game: %w", err)
	}
	g.schedule()
	g.logger.Info("game abandoned", zap.String("session", sum.ID), zap.String("reason", sum.AbandonReason))
	return unlocked, nil
}

// ExitToMenu gives up the current game and resets the games-without-menu streak.
func (g *Game) ExitToMenu(ctx context.Context) ([]int, error) {
	unlocked, err := g.Abandon(ctx, ReasonHome)
	if err != nil {
		return nil, err
	}
	if err := g.eval.OnExitToMenu(ctx); err != nil {
		return unlocked, fmt.Errorf("exit to menu: %w", err)
	}
	return unlocked, nil
}

// Close pauses the clock and flushes any pending cloud export.
func (g *Game) Close(ctx context.Context) error {
	g.tracker.Pause()
	if err := g.sync.Flush(ctx); err != nil {
		return fmt.Errorf("cloud flush: %w", err)
	}
	return nil
}

// Board returns the current board, or nil before a game is dealt.
func (g *Game) Board() *board.Board {
	if g.engine == nil {
		return nil
	}
	return g.engine.Board()
}

// Engine exposes legality queries for the current board.
func (g *Game) Engine() *rules.Engine {
	return g.engine
}

// Payload returns the live session summary.
func (g *Game) Payload() (model.Summary, bool) {
	return g.tracker.Payload()
}

// DrawMode returns the draw mode of the current game.
func (g *Game) DrawMode() model.DrawMode {
	return g.mode
}

// Won reports whether the current board was completed.
func (g *Game) Won() bool {
	return g.won
}

// CanUndo reports whether Undo would revert something.
func (g *Game) CanUndo() bool {
	return g.playable() && g.drag == nil && g.engine.CanUndo()
}

// SetDrawMode stores the draw mode used by the next deal.
func (g *Game) SetDrawMode(ctx context.Context, mode model.DrawMode) error {
	draw3 := mode.IsThree()
	if _, err := g.gw.SaveSettings(ctx, model.SettingsPatch{Draw3: &draw3}); err != nil {
		return err
	}
	g.schedule()
	return nil
}

// SeedDrawMode stores mode only when the profile has no settings yet, so a
// configured default never overrides the player's own choice.
func (g *Game) SeedDrawMode(ctx context.Context, mode model.DrawMode) error {
	stored, err := g.gw.HasSettings(ctx)
	if err != nil || stored {
		return err
	}
	return g.SetDrawMode(ctx, mode)
}

// HasUnseen reports whether there are unlocks the player has not viewed.
func (g *Game) HasUnseen(ctx context.Context) bool {
	unseen, err := g.gw.HasUnseen(ctx)
	if err != nil {
		g.logger.Warn("load unseen flag failed", zap.Error(err))
	}
	return unseen
}

// MarkSeen clears the unseen-unlock flag.
func (g *Game) MarkSeen(ctx context.Context) error {
	if err := g.gw.SetUnseen(ctx, false); err != nil {
		return err
	}
	g.schedule()
	return nil
}

// Overview returns the statistics display data.
func (g *Game) Overview(ctx context.Context) (Overview, error) {
	return LoadOverview(ctx, g.gw)
}

// LoadOverview reads the statistics display data of a profile.
func LoadOverview(ctx context.Context, gw *store.Gateway) (Overview, error) {
	stats, err := gw.LoadStatistics(ctx)
	if err != nil {
		return Overview{}, err
	}
	ids, err := gw.LoadUnlockSet(ctx)
	if err != nil {
		return Overview{}, err
	}
	unseen, err := gw.HasUnseen(ctx)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Stats:       stats,
		UnlockedIDs: ids,
		Unlocked:    len(ids),
		Total:       achievements.Total(),
		HasUnseen:   unseen,
	}, nil
}

func (g *Game) playable() bool {
	return g.engine != nil && !g.won
}

func (g *Game) afterMutation(ctx context.Context) Outcome {
	out := Outcome{Changed: true}
	if !g.engine.IsComplete() {
		g.persist(ctx)
		return out
	}

	g.won = true
	g.drag = nil
	sum, ok := g.tracker.Win()
	if ok {
		out.Won = true
		out.Summary = sum
		g.record(ctx, sum)
		unlocked, err := g.eval.OnWin(ctx, sum)
		if err != nil {
			g.logger.Error("win bookkeeping failed", zap.Error(err))
		}
		out.Unlocked = unlocked
		g.logger.Info("game won", zap.String("session", sum.ID), zap.Int("duration_sec", sum.DurationSec), zap.Int("moves", sum.Moves))
	}
	if err := g.gw.ClearBoardSnapshot(ctx); err != nil {
		g.logger.Warn("clear save failed", zap.Error(err))
	}
	g.schedule()
	return out
}

func (g *Game) persist(ctx context.Context) {
	if err := g.gw.SaveBoardSnapshot(ctx, g.engine.Board().Snapshot(g.mode)); err != nil {
		g.logger.Warn("save board failed", zap.Error(err))
	}
	g.schedule()
}

func (g *Game) record(ctx context.Context, sum model.Summary) {
	rec := model.GameRecord{EndedAt: g.clock.Now(), Summary: sum}
	if err := g.gw.RecordGame(ctx, rec); err != nil {
		g.logger.Warn("record game failed", zap.Error(err))
	}
}

func (g *Game) schedule() {
	g.sync.Schedule()
}

func (g *Game) scheduleIf(cond bool) {
	if cond {
		g.schedule()
	}
}
