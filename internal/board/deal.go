package board

import (
	"math/rand"
	"time"
)

// Dealer shuffles and deals new boards.
type Dealer struct {
	rnd *rand.Rand
}

// NewDealer returns a Dealer seeded with the current time.
func NewDealer() *Dealer {
	return NewDealerWithSeed(time.Now().UnixNano())
}

// NewDealerWithSeed returns a Dealer producing a reproducible deal sequence.
func NewDealerWithSeed(seed int64) *Dealer {
	return &Dealer{rnd: rand.New(rand.NewSource(seed))}
}

// Deal shuffles the deck uniformly and lays out a Klondike board: tableau
// column i gets i+1 cards with only the last face-up, the rest go to the
// stock face-down.
func (d *Dealer) Deal() *Board {
	b := Empty()
	deck := make([]int, DeckSize)
	for i := range deck {
		deck[i] = i
	}
	d.rnd.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	idx := 0
	for col := 0; col < TableauCount; col++ {
		b.Tableau[col] = make([]int, 0, col+1)
		for k := 0; k <= col; k++ {
			id := deck[idx]
			idx++
			b.cards[id].FaceUp = k == col
			b.Tableau[col] = append(b.Tableau[col], id)
		}
	}
	b.Stock = make([]int, 0, DeckSize-idx)
	for ; idx < len(deck); idx++ {
		id := deck[idx]
		b.cards[id].FaceUp = false
		b.Stock = append(b.Stock, id)
	}
	return b
}
