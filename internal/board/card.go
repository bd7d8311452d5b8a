// Package board holds the Klondike piles and cards.
package board

import (
	"fmt"
	"strconv"
)

// DeckSize is the number of cards on a board.
const DeckSize = 52

// Suit is a card suit. The order defines card ids.
type Suit int

// Suits in id order.
const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Suits lists every suit in id order.
var Suits = [4]Suit{Spades, Hearts, Diamonds, Clubs}

var suitLetters = [4]string{"s", "h", "d", "c"}
var suitSymbols = [4]string{"♠", "♥", "♦", "♣"}

// Letter returns the persisted suit letter.
func (s Suit) Letter() string {
	return suitLetters[s]
}

// Symbol returns the display glyph for s.
func (s Suit) Symbol() string {
	return suitSymbols[s]
}

// Color is a card color.
type Color int

// Card colors.
const (
	Black Color = iota
	Red
)

// Color returns the color of the suit.
func (s Suit) Color() Color {
	if s == Hearts || s == Diamonds {
		return Red
	}
	return Black
}

// Card is one of the 52 cards. ID, Rank and Suit never change after the deal.
type Card struct {
	ID     int
	Rank   int
	Suit   Suit
	FaceUp bool
}

// Color returns the derived card color.
func (c Card) Color() Color {
	return c.Suit.Color()
}

// Key returns the persisted card key, e.g. "as" or "10h".
func (c Card) Key() string {
	return rankKey(c.Rank) + c.Suit.Letter()
}

// String returns a display label such as "A♠".
func (c Card) String() string {
	return RankLabel(c.Rank) + c.Suit.Symbol()
}

// RankLabel returns the display label for a rank.
func RankLabel(rank int) string {
	switch rank {
	case 1:
		return "A"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return strconv.Itoa(rank)
	}
}

func rankKey(rank int) string {
	switch rank {
	case 1:
		return "a"
	case 11:
		return "j"
	case 12:
		return "q"
	case 13:
		return "k"
	default:
		return strconv.Itoa(rank)
	}
}

// CardID returns the id of the card with the given suit and rank.
func CardID(suit Suit, rank int) int {
	return int(suit)*13 + rank - 1
}

// NewCard builds the face-down card for id.
func NewCard(id int) Card {
	return Card{ID: id, Rank: id%13 + 1, Suit: Suit(id / 13)}
}

// ParseKey resolves a persisted card key to a card id.
func ParseKey(key string) (int, error) {
	id, ok := keyIndex[key]
	if !ok {
		return 0, fmt.Errorf("unknown card key %q", key)
	}
	return id, nil
}

var keyIndex = func() map[string]int {
	m := make(map[string]int, DeckSize)
	for id := 0; id < DeckSize; id++ {
		m[NewCard(id).Key()] = id
	}
	return m
}()
