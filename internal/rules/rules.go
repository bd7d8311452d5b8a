// Package rules validates and applies Klondike moves on a board.
package rules

import (
	"github.com/verte-zerg/klondike/internal/board"
)

// CanPlaceOnFoundation reports whether c may go on a foundation whose top is
// top. A nil top means the foundation is empty.
func CanPlaceOnFoundation(c board.Card, top *board.Card) bool {
	if top == nil {
		return c.Rank == 1
	}
	return c.Suit == top.Suit && c.Rank == top.Rank+1
}

// CanPlaceOnTableau reports whether c may go on a tableau column whose top is
// top. A nil top means the column is empty.
func CanPlaceOnTableau(c board.Card, top *board.Card) bool {
	if top == nil {
		return c.Rank == 13
	}
	return top.FaceUp && c.Color() != top.Color() && c.Rank == top.Rank-1
}

// ValidateRun reports whether cards, bottom first, form a movable tableau run.
func ValidateRun(cards []board.Card) bool {
	if len(cards) == 0 {
		return false
	}
	for i, c := range cards {
		if !c.FaceUp {
			return false
		}
		if i == 0 {
			continue
		}
		prev := cards[i-1]
		if c.Rank != prev.Rank-1 || c.Color() == prev.Color() {
			return false
		}
	}
	return true
}
