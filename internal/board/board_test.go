package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/klondike/internal/model"
)

func TestDealLayout(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		b := NewDealerWithSeed(seed).Deal()

		seen := map[int]bool{}
		collect := func(pile []int) {
			for _, id := range pile {
				require.False(t, seen[id], "card %d dealt twice (seed %d)", id, seed)
				seen[id] = true
			}
		}
		collect(b.Stock)
		collect(b.Waste)
		for i := range b.Foundations {
			collect(b.Foundations[i])
		}
		for i := range b.Tableau {
			collect(b.Tableau[i])
		}
		require.Len(t, seen, DeckSize)

		for col := 0; col < TableauCount; col++ {
			pile := b.Tableau[col]
			require.Len(t, pile, col+1)
			for pos, id := range pile {
				assert.Equal(t, pos == col, b.Card(id).FaceUp, "col %d pos %d", col, pos)
			}
		}
		require.Len(t, b.Stock, 24)
		for _, id := range b.Stock {
			assert.False(t, b.Card(id).FaceUp)
		}
		assert.Empty(t, b.Waste)
	}
}

func TestDealIsReproducibleAndShuffled(t *testing.T) {
	a := NewDealerWithSeed(42).Deal()
	b := NewDealerWithSeed(42).Deal()
	assert.True(t, a.Equal(b))

	c := NewDealerWithSeed(43).Deal()
	assert.False(t, a.Equal(c))
}

func TestLocateAndTopOf(t *testing.T) {
	b := NewDealerWithSeed(7).Deal()

	top := b.Tableau[3][3]
	loc, ok := b.Locate(top)
	require.True(t, ok)
	assert.Equal(t, Location{Kind: Tableau, Index: 3, Pos: 3}, loc)

	id, ok := b.TopOf(Tableau, 3)
	require.True(t, ok)
	assert.Equal(t, top, id)

	_, ok = b.TopOf(Waste, 0)
	assert.False(t, ok)

	_, ok = b.Locate(99)
	assert.False(t, ok)
}

func TestCardKeysAndColors(t *testing.T) {
	assert.Equal(t, "as", NewCard(CardID(Spades, 1)).Key())
	assert.Equal(t, "10h", NewCard(CardID(Hearts, 10)).Key())
	assert.Equal(t, "kc", NewCard(CardID(Clubs, 13)).Key())
	assert.Equal(t, "Q♦", NewCard(CardID(Diamonds, 12)).String())

	assert.Equal(t, Red, NewCard(CardID(Hearts, 3)).Color())
	assert.Equal(t, Red, NewCard(CardID(Diamonds, 3)).Color())
	assert.Equal(t, Black, NewCard(CardID(Spades, 3)).Color())
	assert.Equal(t, Black, NewCard(CardID(Clubs, 3)).Color())

	for id := 0; id < DeckSize; id++ {
		got, err := ParseKey(NewCard(id).Key())
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	_, err := ParseKey("zz")
	assert.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	b := NewDealerWithSeed(3).Deal()
	b.Waste = append(b.Waste, b.Stock[len(b.Stock)-1])
	b.Stock = b.Stock[:len(b.Stock)-1]
	b.Card(b.Waste[0]).FaceUp = true

	snap := b.Snapshot(model.DrawThree)
	assert.Equal(t, model.SnapshotVersion, snap.Version)
	assert.Len(t, snap.Foundations, FoundationCount)
	assert.Len(t, snap.Tableau, TableauCount)

	restored, mode, err := FromSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, model.DrawThree, mode)
	assert.True(t, b.Equal(restored))
}

func TestFromSnapshotRejectsCorruptData(t *testing.T) {
	b := NewDealerWithSeed(5).Deal()

	dup := b.Snapshot(model.DrawOne)
	dup.Waste = append(dup.Waste, dup.Stock[0])
	_, _, err := FromSnapshot(dup)
	assert.Error(t, err)

	missing := b.Snapshot(model.DrawOne)
	missing.Stock = missing.Stock[1:]
	_, _, err = FromSnapshot(missing)
	assert.ErrorIs(t, err, ErrIncompleteSnapshot)

	unknown := b.Snapshot(model.DrawOne)
	unknown.Stock[0].Key = "xx"
	_, _, err = FromSnapshot(unknown)
	assert.Error(t, err)

	version := b.Snapshot(model.DrawOne)
	version.Version = 9
	_, _, err = FromSnapshot(version)
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewDealerWithSeed(9).Deal()
	c := b.Clone()
	require.True(t, b.Equal(c))

	c.Card(c.Stock[0]).FaceUp = true
	c.Stock = c.Stock[1:]
	assert.False(t, b.Equal(c))
	assert.Len(t, b.Stock, 24)
}
