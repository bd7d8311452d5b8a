package rules

import (
	"slices"

	"github.com/samber/lo"

	"github.com/verte-zerg/klondike/internal/board"
	"github.com/verte-zerg/klondike/internal/undo"
)

// Engine applies legal moves to one board and records them in an undo log.
// Rejected operations leave the board and the log untouched.
type Engine struct {
	b   *board.Board
	log *undo.Log
}

// New returns an engine over b. A nil log gets a fresh one with the default capacity.
func New(b *board.Board, log *undo.Log) *Engine {
	if log == nil {
		log = undo.NewLog(undo.DefaultCapacity)
	}
	return &Engine{b: b, log: log}
}

// Board returns the board the engine mutates.
func (e *Engine) Board() *board.Board {
	return e.b
}

// CanUndo reports whether the undo log holds an action.
func (e *Engine) CanUndo() bool {
	return e.log.Len() > 0
}

// TryMove moves ids from the pile at from onto the pile at to. Waste and
// foundation sources only give up their top card; tableau sources give up the
// whole run starting at from.Pos, which must equal ids.
func (e *Engine) TryMove(from board.Location, ids []int, to board.Location) (undo.Move, bool) {
	from, ok := e.resolveSource(from, ids)
	if !ok || !e.canDrop(from, ids, to) {
		return undo.Move{}, false
	}

	src := e.b.PileRef(from.Kind, from.Index)
	dest := e.b.PileRef(to.Kind, to.Index)
	*src = (*src)[:from.Pos]
	*dest = append(*dest, ids...)

	mv := undo.Move{
		From: from,
		To:   board.Pile(to.Kind, to.Index),
		IDs:  slices.Clone(ids),
	}
	if from.Kind == board.Tableau {
		if top := e.b.TopCard(from.Kind, from.Index); top != nil && !top.FaceUp {
			top.FaceUp = true
			mv.Revealed = []int{top.ID}
		}
	}
	e.log.Push(mv)
	return mv, true
}

// Draw turns up to n cards from the stock onto the waste. An empty stock
// recycles the waste instead; with both empty nothing happens.
func (e *Engine) Draw(n int) (undo.Action, bool) {
	if len(e.b.Stock) == 0 {
		rc, ok := e.Recycle()
		if !ok {
			return nil, false
		}
		return rc, true
	}
	if n < 1 {
		n = 1
	}
	k := min(n, len(e.b.Stock))
	drawn := make([]int, 0, k)
	for i := 0; i < k; i++ {
		id := e.b.Stock[len(e.b.Stock)-1]
		e.b.Stock = e.b.Stock[:len(e.b.Stock)-1]
		e.b.Card(id).FaceUp = true
		e.b.Waste = append(e.b.Waste, id)
		drawn = append(drawn, id)
	}
	d := undo.Draw{IDs: drawn}
	e.log.Push(d)
	return d, true
}

// Recycle turns the waste back over onto an empty stock so the next draws
// repeat the previous order.
func (e *Engine) Recycle() (undo.Recycle, bool) {
	if len(e.b.Stock) != 0 || len(e.b.Waste) == 0 {
		return undo.Recycle{}, false
	}
	rc := undo.Recycle{IDs: slices.Clone(e.b.Waste)}
	stock := slices.Clone(e.b.Waste)
	slices.Reverse(stock)
	for _, id := range stock {
		e.b.Card(id).FaceUp = false
	}
	e.b.Stock = stock
	e.b.Waste = nil
	e.log.Push(rc)
	return rc, true
}

// IsComplete reports whether all four foundations hold 13 cards.
func (e *Engine) IsComplete() bool {
	for i := range e.b.Foundations {
		if len(e.b.Foundations[i]) != 13 {
			return false
		}
	}
	return true
}

// Undo reverts the newest logged action.
func (e *Engine) Undo() (undo.Action, bool, error) {
	return e.log.UndoLast(e.b)
}

// DragRun returns the cards that would move when picking up at loc.
func (e *Engine) DragRun(loc board.Location) ([]int, bool) {
	pile := e.b.Pile(loc.Kind, loc.Index)
	switch loc.Kind {
	case board.Waste, board.Foundation:
		if len(pile) == 0 {
			return nil, false
		}
		return []int{pile[len(pile)-1]}, true
	case board.Tableau:
		if loc.Pos < 0 || loc.Pos >= len(pile) {
			return nil, false
		}
		ids := slices.Clone(pile[loc.Pos:])
		if !ValidateRun(e.cards(ids)) {
			return nil, false
		}
		return ids, true
	default:
		return nil, false
	}
}

// CanDrop reports whether ids, picked up from their current pile, may be
// dropped on the pile at to.
func (e *Engine) CanDrop(ids []int, to board.Location) bool {
	if len(ids) == 0 {
		return false
	}
	from, ok := e.b.Locate(ids[0])
	if !ok {
		return false
	}
	from, ok = e.resolveSource(from, ids)
	return ok && e.canDrop(from, ids, to)
}

// FoundationFor returns the foundation that accepts the top card id.
func (e *Engine) FoundationFor(id int) (int, bool) {
	from, ok := e.b.Locate(id)
	if !ok || from.Kind == board.Foundation || from.Kind == board.Stock {
		return 0, false
	}
	if _, ok := e.resolveSource(from, []int{id}); !ok {
		return 0, false
	}
	c := *e.b.Card(id)
	for i := 0; i < board.FoundationCount; i++ {
		if CanPlaceOnFoundation(c, e.b.TopCard(board.Foundation, i)) {
			return i, true
		}
	}
	return 0, false
}

// resolveSource checks that ids can leave the pile at from and returns the
// location with Pos pointing at ids[0].
func (e *Engine) resolveSource(from board.Location, ids []int) (board.Location, bool) {
	if len(ids) == 0 {
		return from, false
	}
	pile := e.b.Pile(from.Kind, from.Index)
	if len(pile) == 0 {
		return from, false
	}
	switch from.Kind {
	case board.Waste, board.Foundation:
		if len(ids) != 1 || pile[len(pile)-1] != ids[0] {
			return from, false
		}
		from.Pos = len(pile) - 1
		return from, true
	case board.Tableau:
		if from.Pos < 0 || from.Pos >= len(pile) || !slices.Equal(pile[from.Pos:], ids) {
			return from, false
		}
		return from, ValidateRun(e.cards(ids))
	default:
		return from, false
	}
}

func (e *Engine) canDrop(from board.Location, ids []int, to board.Location) bool {
	if from.SamePile(to) || e.b.PileRef(to.Kind, to.Index) == nil {
		return false
	}
	first := *e.b.Card(ids[0])
	top := e.b.TopCard(to.Kind, to.Index)
	switch to.Kind {
	case board.Foundation:
		return len(ids) == 1 && CanPlaceOnFoundation(first, top)
	case board.Tableau:
		return CanPlaceOnTableau(first, top)
	default:
		return false
	}
}

func (e *Engine) cards(ids []int) []board.Card {
	return lo.Map(ids, func(id int, _ int) board.Card {
		return *e.b.Card(id)
	})
}
