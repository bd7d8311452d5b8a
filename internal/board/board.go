package board

import (
	"slices"
)

// Pile counts.
const (
	FoundationCount = 4
	TableauCount    = 7
)

// PileKind identifies a pile family.
type PileKind int

// Pile kinds.
const (
	Stock PileKind = iota
	Waste
	Foundation
	Tableau
)

func (k PileKind) String() string {
	switch k {
	case Stock:
		return "stock"
	case Waste:
		return "waste"
	case Foundation:
		return "foundation"
	case Tableau:
		return "tableau"
	default:
		return "unknown"
	}
}

// Location addresses a card position. Index selects the foundation or
// tableau column; Pos is the position inside the pile, 0 = bottom.
type Location struct {
	Kind  PileKind
	Index int
	Pos   int
}

// Pile returns a location for the whole pile, ignoring position.
func Pile(kind PileKind, index int) Location {
	return Location{Kind: kind, Index: index}
}

// SamePile reports whether l and o address the same pile.
func (l Location) SamePile(o Location) bool {
	return l.Kind == o.Kind && l.Index == o.Index
}

// Board stores every pile as ordered card ids, tail = top.
// It performs no rule validation.
type Board struct {
	cards       [DeckSize]Card
	Stock       []int
	Waste       []int
	Foundations [FoundationCount][]int
	Tableau     [TableauCount][]int
}

// Empty returns a board with the full card set and no cards placed.
func Empty() *Board {
	b := &Board{}
	for id := 0; id < DeckSize; id++ {
		b.cards[id] = NewCard(id)
	}
	return b
}

// Card returns a pointer to the card with id, or nil for an unknown id.
func (b *Board) Card(id int) *Card {
	if id < 0 || id >= DeckSize {
		return nil
	}
	return &b.cards[id]
}

// PileRef returns a pointer to the pile slice addressed by kind and index.
func (b *Board) PileRef(kind PileKind, index int) *[]int {
	switch kind {
	case Stock:
		return &b.Stock
	case Waste:
		return &b.Waste
	case Foundation:
		if index < 0 || index >= FoundationCount {
			return nil
		}
		return &b.Foundations[index]
	case Tableau:
		if index < 0 || index >= TableauCount {
			return nil
		}
		return &b.Tableau[index]
	default:
		return nil
	}
}

// Pile returns the ids of a pile. The slice must not be modified.
func (b *Board) Pile(kind PileKind, index int) []int {
	ref := b.PileRef(kind, index)
	if ref == nil {
		return nil
	}
	return *ref
}

// TopOf returns the top card id of a pile.
func (b *Board) TopOf(kind PileKind, index int) (int, bool) {
	pile := b.Pile(kind, index)
	if len(pile) == 0 {
		return 0, false
	}
	return pile[len(pile)-1], true
}

// TopCard returns the top card of a pile, or nil when the pile is empty.
func (b *Board) TopCard(kind PileKind, index int) *Card {
	id, ok := b.TopOf(kind, index)
	if !ok {
		return nil
	}
	return b.Card(id)
}

// Locate finds the pile and position holding id.
func (b *Board) Locate(id int) (Location, bool) {
	for _, loc := range b.piles() {
		if pos := slices.Index(b.Pile(loc.Kind, loc.Index), id); pos >= 0 {
			loc.Pos = pos
			return loc, true
		}
	}
	return Location{}, false
}

func (b *Board) piles() []Location {
	locs := make([]Location, 0, 2+FoundationCount+TableauCount)
	locs = append(locs, Pile(Stock, 0), Pile(Waste, 0))
	for i := 0; i < FoundationCount; i++ {
		locs = append(locs, Pile(Foundation, i))
	}
	for i := 0; i < TableauCount; i++ {
		locs = append(locs, Pile(Tableau, i))
	}
	return locs
}

// Count returns the number of cards placed on the board.
func (b *Board) Count() int {
	n := 0
	for _, loc := range b.piles() {
		n += len(b.Pile(loc.Kind, loc.Index))
	}
	return n
}

// Clone returns a deep copy of b.
func (b *Board) Clone() *Board {
	out := &Board{cards: b.cards}
	out.Stock = slices.Clone(b.Stock)
	out.Waste = slices.Clone(b.Waste)
	for i := range b.Foundations {
		out.Foundations[i] = slices.Clone(b.Foundations[i])
	}
	for i := range b.Tableau {
		out.Tableau[i] = slices.Clone(b.Tableau[i])
	}
	return out
}

// Equal reports whether both boards hold the same piles, order and face flags.
func (b *Board) Equal(o *Board) bool {
	if b.cards != o.cards {
		return false
	}
	for _, loc := range b.piles() {
		if !slices.Equal(b.Pile(loc.Kind, loc.Index), o.Pile(loc.Kind, loc.Index)) {
			return false
		}
	}
	return true
}
