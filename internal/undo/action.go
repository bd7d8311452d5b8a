// Package undo records invertible board mutations and replays them in reverse.
package undo

import (
	"fmt"
	"slices"

	"github.com/verte-zerg/klondike/internal/board"
)

// Kind tags an Action variant.
type Kind int

// Action kinds.
const (
	KindDraw Kind = iota
	KindRecycle
	KindMove
)

func (k Kind) String() string {
	switch k {
	case KindDraw:
		return "draw"
	case KindRecycle:
		return "recycle"
	case KindMove:
		return "move"
	default:
		return "unknown"
	}
}

// Action is one undoable board mutation. The set of implementations is closed.
type Action interface {
	Kind() Kind
	isAction()
}

// Draw moved IDs from the stock to the waste, in draw order.
type Draw struct {
	IDs []int
}

// Recycle moved the waste back to the stock. IDs hold the waste order
// before the recycle.
type Recycle struct {
	IDs []int
}

// Move relocated IDs as one unit. Revealed lists tableau cards flipped
// face-up as a side effect.
type Move struct {
	From     board.Location
	To       board.Location
	IDs      []int
	Revealed []int
}

func (Draw) Kind() Kind    { return KindDraw }
func (Recycle) Kind() Kind { return KindRecycle }
func (Move) Kind() Kind    { return KindMove }

func (Draw) isAction()    {}
func (Recycle) isAction() {}
func (Move) isAction()    {}

// Revert applies the structural inverse of a to b.
func Revert(b *board.Board, a Action) error {
	switch a := a.(type) {
	case Draw:
		return revertDraw(b, a)
	case Recycle:
		return revertRecycle(b, a)
	case Move:
		return revertMove(b, a)
	default:
		return fmt.Errorf("unknown undo action %T", a)
	}
}

func revertDraw(b *board.Board, a Draw) error {
	for _, id := range a.IDs {
		if lastIndex(b.Waste, id) < 0 {
			return fmt.Errorf("undo draw: card %d not in waste", id)
		}
	}
	for i := len(a.IDs) - 1; i >= 0; i-- {
		id := a.IDs[i]
		pos := lastIndex(b.Waste, id)
		b.Waste = slices.Delete(b.Waste, pos, pos+1)
		b.Card(id).FaceUp = false
		b.Stock = append(b.Stock, id)
	}
	return nil
}

func revertRecycle(b *board.Board, a Recycle) error {
	if len(b.Stock) < len(a.IDs) {
		return fmt.Errorf("undo recycle: stock holds %d cards, need %d", len(b.Stock), len(a.IDs))
	}
	for range a.IDs {
		id := b.Stock[len(b.Stock)-1]
		b.Stock = b.Stock[:len(b.Stock)-1]
		b.Card(id).FaceUp = true
		b.Waste = append(b.Waste, id)
	}
	return nil
}

func revertMove(b *board.Board, a Move) error {
	dest := b.PileRef(a.To.Kind, a.To.Index)
	src := b.PileRef(a.From.Kind, a.From.Index)
	if dest == nil || src == nil {
		return fmt.Errorf("undo move: invalid pile %v -> %v", a.From, a.To)
	}
	if len(*dest) < len(a.IDs) {
		return fmt.Errorf("undo move: destination holds %d cards, need %d", len(*dest), len(a.IDs))
	}
	if !slices.Equal((*dest)[len(*dest)-len(a.IDs):], a.IDs) {
		return fmt.Errorf("undo move: destination %v does not end with moved cards", a.To)
	}

	for _, id := range a.Revealed {
		if c := b.Card(id); c != nil {
			c.FaceUp = false
		}
	}

	*dest = (*dest)[:len(*dest)-len(a.IDs)]
	if a.From.Kind == board.Tableau {
		pos := min(a.From.Pos, len(*src))
		*src = slices.Insert(*src, pos, a.IDs...)
	} else {
		*src = append(*src, a.IDs...)
	}
	return nil
}

func lastIndex(pile []int, id int) int {
	for i := len(pile) - 1; i >= 0; i-- {
		if pile[i] == id {
			return i
		}
	}
	return -1
}
