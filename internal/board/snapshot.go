package board

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/verte-zerg/klondike/internal/model"
)

// ErrIncompleteSnapshot is returned when a snapshot does not hold all 52 cards.
var ErrIncompleteSnapshot = errors.New("snapshot does not hold a full deck")

// Snapshot serializes b for persistence.
func (b *Board) Snapshot(mode model.DrawMode) model.Snapshot {
	s := model.Snapshot{
		Version:     model.SnapshotVersion,
		DrawMode:    mode,
		Stock:       b.snapshotPile(b.Stock),
		Waste:       b.snapshotPile(b.Waste),
		Foundations: make([][]model.SnapshotCard, FoundationCount),
		Tableau:     make([][]model.SnapshotCard, TableauCount),
	}
	for i := range b.Foundations {
		s.Foundations[i] = b.snapshotPile(b.Foundations[i])
	}
	for i := range b.Tableau {
		s.Tableau[i] = b.snapshotPile(b.Tableau[i])
	}
	return s
}

func (b *Board) snapshotPile(pile []int) []model.SnapshotCard {
	return lo.Map(pile, func(id int, _ int) model.SnapshotCard {
		c := b.cards[id]
		return model.SnapshotCard{Key: c.Key(), FaceUp: c.FaceUp}
	})
}

// FromSnapshot rebuilds a board from a persisted snapshot. Unknown keys,
// duplicate cards, oversized pile lists and incomplete decks are rejected.
func FromSnapshot(s model.Snapshot) (*Board, model.DrawMode, error) {
	if s.Version != model.SnapshotVersion {
		return nil, 0, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	mode := s.DrawMode
	if !mode.Valid() {
		mode = model.DrawOne
	}
	if len(s.Foundations) > FoundationCount || len(s.Tableau) > TableauCount {
		return nil, 0, fmt.Errorf("snapshot has too many piles")
	}

	b := Empty()
	seen := make(map[int]bool, DeckSize)
	fill := func(saved []model.SnapshotCard) ([]int, error) {
		out := make([]int, 0, len(saved))
		for _, item := range saved {
			id, err := ParseKey(item.Key)
			if err != nil {
				return nil, err
			}
			if seen[id] {
				return nil, fmt.Errorf("duplicate card %q", item.Key)
			}
			seen[id] = true
			b.cards[id].FaceUp = item.FaceUp
			out = append(out, id)
		}
		return out, nil
	}

	var err error
	if b.Stock, err = fill(s.Stock); err != nil {
		return nil, 0, err
	}
	if b.Waste, err = fill(s.Waste); err != nil {
		return nil, 0, err
	}
	for i, pile := range s.Foundations {
		if b.Foundations[i], err = fill(pile); err != nil {
			return nil, 0, err
		}
	}
	for i, pile := range s.Tableau {
		if b.Tableau[i], err = fill(pile); err != nil {
			return nil, 0, err
		}
	}
	if len(seen) != DeckSize {
		return nil, 0, ErrIncompleteSnapshot
	}
	return b, mode, nil
}
