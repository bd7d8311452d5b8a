package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/klondike/internal/board"
	"github.com/verte-zerg/klondike/internal/undo"
)

func card(suit board.Suit, rank int, faceUp bool) board.Card {
	c := board.NewCard(board.CardID(suit, rank))
	c.FaceUp = faceUp
	return c
}

func id(suit board.Suit, rank int) int {
	return board.CardID(suit, rank)
}

// place puts face-up cards on a pile of b.
func place(b *board.Board, kind board.PileKind, index int, faceUp bool, ids ...int) {
	ref := b.PileRef(kind, index)
	*ref = append(*ref, ids...)
	for _, i := range ids {
		b.Card(i).FaceUp = faceUp
	}
}

func TestCanPlaceOnFoundation(t *testing.T) {
	fiveHearts := card(board.Hearts, 5, true)
	cases := []struct {
		name string
		c    board.Card
		top  *board.Card
		want bool
	}{
		{"ace on empty", card(board.Spades, 1, true), nil, true},
		{"two on empty", card(board.Spades, 2, true), nil, false},
		{"next rank same suit", card(board.Hearts, 6, true), &fiveHearts, true},
		{"next rank other suit", card(board.Diamonds, 6, true), &fiveHearts, false},
		{"skipped rank", card(board.Hearts, 7, true), &fiveHearts, false},
		{"same rank", card(board.Hearts, 5, true), &fiveHearts, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanPlaceOnFoundation(tc.c, tc.top))
		})
	}
}

func TestCanPlaceOnTableau(t *testing.T) {
	eightSpades := card(board.Spades, 8, true)
	hiddenEight := card(board.Spades, 8, false)
	cases := []struct {
		name string
		c    board.Card
		top  *board.Card
		want bool
	}{
		{"king on empty", card(board.Clubs, 13, true), nil, true},
		{"queen on empty", card(board.Clubs, 12, true), nil, false},
		{"red seven on black eight", card(board.Hearts, 7, true), &eightSpades, true},
		{"black seven on black eight", card(board.Clubs, 7, true), &eightSpades, false},
		{"red six on black eight", card(board.Hearts, 6, true), &eightSpades, false},
		{"onto face-down", card(board.Hearts, 7, true), &hiddenEight, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanPlaceOnTableau(tc.c, tc.top))
		})
	}
}

func TestValidateRun(t *testing.T) {
	assert.True(t, ValidateRun([]board.Card{card(board.Spades, 9, true)}))
	assert.True(t, ValidateRun([]board.Card{
		card(board.Spades, 9, true),
		card(board.Hearts, 8, true),
		card(board.Clubs, 7, true),
	}))
	assert.False(t, ValidateRun(nil))
	assert.False(t, ValidateRun([]board.Card{
		card(board.Spades, 9, true),
		card(board.Clubs, 8, true),
	}))
	assert.False(t, ValidateRun([]board.Card{
		card(board.Spades, 9, true),
		card(board.Hearts, 7, true),
	}))
	assert.False(t, ValidateRun([]board.Card{
		card(board.Spades, 9, false),
		card(board.Hearts, 8, true),
	}))
}

func TestMoveWasteToTableauAndUndo(t *testing.T) {
	b := board.Empty()
	place(b, board.Tableau, 0, true, id(board.Spades, 8))
	place(b, board.Waste, 0, true, id(board.Clubs, 2), id(board.Hearts, 7))
	before := b.Clone()
	e := New(b, nil)

	mv, ok := e.TryMove(board.Pile(board.Waste, 0), []int{id(board.Hearts, 7)}, board.Pile(board.Tableau, 0))
	require.True(t, ok)
	assert.Equal(t, board.Location{Kind: board.Waste, Pos: 1}, mv.From)
	assert.Empty(t, mv.Revealed)
	assert.Equal(t, []int{id(board.Spades, 8), id(board.Hearts, 7)}, b.Tableau[0])
	assert.Equal(t, []int{id(board.Clubs, 2)}, b.Waste)

	a, ok, err := e.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, undo.KindMove, a.Kind())
	assert.True(t, before.Equal(b))
	assert.False(t, e.CanUndo())
}

func TestMoveRunRevealsAndUndoRestores(t *testing.T) {
	b := board.Empty()
	place(b, board.Tableau, 0, false, id(board.Diamonds, 2), id(board.Clubs, 4))
	place(b, board.Tableau, 0, true, id(board.Spades, 9), id(board.Hearts, 8), id(board.Clubs, 7))
	place(b, board.Tableau, 1, true, id(board.Diamonds, 10))
	before := b.Clone()
	e := New(b, nil)

	run := []int{id(board.Spades, 9), id(board.Hearts, 8), id(board.Clubs, 7)}
	from := board.Location{Kind: board.Tableau, Index: 0, Pos: 2}
	mv, ok := e.TryMove(from, run, board.Pile(board.Tableau, 1))
	require.True(t, ok)
	assert.Equal(t, []int{id(board.Clubs, 4)}, mv.Revealed)
	assert.True(t, b.Card(id(board.Clubs, 4)).FaceUp)
	assert.Len(t, b.Tableau[1], 4)

	_, ok, err := e.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, before.Equal(b))
	assert.False(t, b.Card(id(board.Clubs, 4)).FaceUp)
}

func TestMoveTableauToFoundationRevealsAndUndo(t *testing.T) {
	b := board.Empty()
	place(b, board.Tableau, 2, false, id(board.Clubs, 9))
	place(b, board.Tableau, 2, true, id(board.Hearts, 2))
	place(b, board.Foundation, 1, true, id(board.Hearts, 1))
	before := b.Clone()
	e := New(b, nil)

	f, ok := e.FoundationFor(id(board.Hearts, 2))
	require.True(t, ok)
	assert.Equal(t, 1, f)

	mv, ok := e.TryMove(board.Location{Kind: board.Tableau, Index: 2, Pos: 1}, []int{id(board.Hearts, 2)}, board.Pile(board.Foundation, f))
	require.True(t, ok)
	assert.Equal(t, []int{id(board.Clubs, 9)}, mv.Revealed)

	_, _, err := e.Undo()
	require.NoError(t, err)
	assert.True(t, before.Equal(b))
}

func TestRejectedMovesDoNotMutate(t *testing.T) {
	b := board.Empty()
	place(b, board.Tableau, 0, false, id(board.Clubs, 3))
	place(b, board.Tableau, 0, true, id(board.Spades, 9), id(board.Hearts, 8))
	place(b, board.Tableau, 1, true, id(board.Diamonds, 4))
	place(b, board.Waste, 0, true, id(board.Hearts, 5), id(board.Spades, 6))
	place(b, board.Stock, 0, false, id(board.Diamonds, 1))
	place(b, board.Foundation, 0, true, id(board.Spades, 1))
	before := b.Clone()
	e := New(b, nil)

	cases := []struct {
		name string
		from board.Location
		ids  []int
		to   board.Location
	}{
		{"same suit color on tableau", board.Location{Kind: board.Tableau, Index: 0, Pos: 2}, []int{id(board.Hearts, 8)}, board.Pile(board.Tableau, 1)},
		{"waste card below top", board.Pile(board.Waste, 0), []int{id(board.Hearts, 5)}, board.Pile(board.Tableau, 1)},
		{"partial tableau run", board.Location{Kind: board.Tableau, Index: 0, Pos: 1}, []int{id(board.Spades, 9)}, board.Pile(board.Tableau, 2)},
		{"face-down card", board.Location{Kind: board.Tableau, Index: 0, Pos: 0}, []int{id(board.Clubs, 3), id(board.Spades, 9), id(board.Hearts, 8)}, board.Pile(board.Tableau, 2)},
		{"multi-card to foundation", board.Location{Kind: board.Tableau, Index: 0, Pos: 1}, []int{id(board.Spades, 9), id(board.Hearts, 8)}, board.Pile(board.Foundation, 1)},
		{"stock source", board.Pile(board.Stock, 0), []int{id(board.Diamonds, 1)}, board.Pile(board.Foundation, 1)},
		{"stock destination", board.Pile(board.Waste, 0), []int{id(board.Spades, 6)}, board.Pile(board.Stock, 0)},
		{"same pile", board.Location{Kind: board.Tableau, Index: 1, Pos: 0}, []int{id(board.Diamonds, 4)}, board.Pile(board.Tableau, 1)},
		{"non-king to empty column", board.Location{Kind: board.Tableau, Index: 1, Pos: 0}, []int{id(board.Diamonds, 4)}, board.Pile(board.Tableau, 5)},
		{"out of range pile", board.Pile(board.Waste, 0), []int{id(board.Spades, 6)}, board.Pile(board.Tableau, 9)},
		{"no cards", board.Pile(board.Waste, 0), nil, board.Pile(board.Tableau, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := e.TryMove(tc.from, tc.ids, tc.to)
			assert.False(t, ok)
			assert.True(t, before.Equal(b))
			assert.False(t, e.CanUndo())
		})
	}
}

func TestDrawThreePartialAndUndo(t *testing.T) {
	b := board.Empty()
	place(b, board.Stock, 0, false, id(board.Clubs, 1), id(board.Clubs, 2))
	before := b.Clone()
	e := New(b, nil)

	a, ok := e.Draw(3)
	require.True(t, ok)
	d, isDraw := a.(undo.Draw)
	require.True(t, isDraw)
	assert.Equal(t, []int{id(board.Clubs, 2), id(board.Clubs, 1)}, d.IDs)
	assert.Empty(t, b.Stock)
	assert.Equal(t, []int{id(board.Clubs, 2), id(board.Clubs, 1)}, b.Waste)
	assert.True(t, b.Card(id(board.Clubs, 1)).FaceUp)

	_, _, err := e.Undo()
	require.NoError(t, err)
	assert.True(t, before.Equal(b))
}

func TestDrawRecyclesWhenStockEmpty(t *testing.T) {
	b := board.Empty()
	place(b, board.Stock, 0, false, id(board.Hearts, 3), id(board.Hearts, 2), id(board.Hearts, 1))
	e := New(b, nil)

	var order []int
	for i := 0; i < 3; i++ {
		a, ok := e.Draw(1)
		require.True(t, ok)
		order = append(order, a.(undo.Draw).IDs...)
	}
	beforeRecycle := b.Clone()

	a, ok := e.Draw(1)
	require.True(t, ok)
	rc, isRecycle := a.(undo.Recycle)
	require.True(t, isRecycle)
	assert.Equal(t, order, rc.IDs)
	assert.Empty(t, b.Waste)
	for _, i := range b.Stock {
		assert.False(t, b.Card(i).FaceUp)
	}

	// the next pass repeats the same order
	var again []int
	for i := 0; i < 3; i++ {
		a, ok := e.Draw(1)
		require.True(t, ok)
		again = append(again, a.(undo.Draw).IDs...)
	}
	assert.Equal(t, order, again)

	for i := 0; i < 3; i++ {
		_, _, err := e.Undo()
		require.NoError(t, err)
	}
	_, ok, err := e.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, beforeRecycle.Equal(b))
}

func TestDrawWithBothEmptyDoesNothing(t *testing.T) {
	e := New(board.Empty(), nil)
	_, ok := e.Draw(1)
	assert.False(t, ok)
	_, ok = e.Recycle()
	assert.False(t, ok)
	assert.False(t, e.CanUndo())
}

func TestDragRunAndCanDrop(t *testing.T) {
	b := board.Empty()
	place(b, board.Tableau, 0, false, id(board.Clubs, 3))
	place(b, board.Tableau, 0, true, id(board.Spades, 9), id(board.Hearts, 8))
	place(b, board.Tableau, 1, true, id(board.Diamonds, 10))
	e := New(b, nil)

	ids, ok := e.DragRun(board.Location{Kind: board.Tableau, Index: 0, Pos: 1})
	require.True(t, ok)
	assert.Equal(t, []int{id(board.Spades, 9), id(board.Hearts, 8)}, ids)
	assert.True(t, e.CanDrop(ids, board.Pile(board.Tableau, 1)))
	assert.False(t, e.CanDrop(ids, board.Pile(board.Foundation, 0)))

	_, ok = e.DragRun(board.Location{Kind: board.Tableau, Index: 0, Pos: 0})
	assert.False(t, ok)
	_, ok = e.DragRun(board.Pile(board.Waste, 0))
	assert.False(t, ok)

	_, ok = e.FoundationFor(id(board.Clubs, 3))
	assert.False(t, ok)
}

func TestIsComplete(t *testing.T) {
	b := board.Empty()
	e := New(b, nil)
	assert.False(t, e.IsComplete())
	for _, s := range board.Suits {
		for r := 1; r <= 13; r++ {
			place(b, board.Foundation, int(s), true, id(s, r))
		}
	}
	assert.True(t, e.IsComplete())
}

func TestUndoLogCapacityThroughEngine(t *testing.T) {
	b := board.NewDealerWithSeed(11).Deal()
	e := New(b, undo.NewLog(undo.DefaultCapacity))
	for i := 0; i < 15; i++ {
		_, ok := e.Draw(1)
		require.True(t, ok)
	}
	undone := 0
	for e.CanUndo() {
		_, ok, err := e.Undo()
		require.NoError(t, err)
		require.True(t, ok)
		undone++
	}
	assert.Equal(t, undo.DefaultCapacity, undone)
	assert.Len(t, b.Waste, 5)
}
