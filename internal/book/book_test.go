package book

import (
	"testing"

	"github.com/mselser95/polymarket-arb/internal/corex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lvl(price, size string) Level {
	return Level{Price: corex.MustParse(price), Size: corex.MustParse(size)}
}

func TestStore_ApplySnapshot_Monotonicity(t *testing.T) {
	s := NewStore(nil)
	s.ApplySnapshot("tok", []Level{lvl("0.49", "10"), lvl("0.50", "5")}, []Level{lvl("0.52", "10"), lvl("0.51", "5")}, 1, true, 100)

	snap, ok := s.Get("tok")
	require.True(t, ok)

	for i := 1; i < len(snap.Bids); i++ {
		assert.True(t, snap.Bids[i-1].Price.GreaterThan(snap.Bids[i].Price), "bids must be strictly descending")
	}
	for i := 1; i < len(snap.Asks); i++ {
		assert.True(t, snap.Asks[i-1].Price.LessThan(snap.Asks[i].Price), "asks must be strictly ascending")
	}
	for _, l := range append(append([]Level{}, snap.Bids...), snap.Asks...) {
		assert.True(t, l.Size.GreaterThan(corex.Zero))
	}
}

func TestStore_ApplySnapshot_Idempotent(t *testing.T) {
	s := NewStore(nil)
	bids := []Level{lvl("0.49", "10")}
	asks := []Level{lvl("0.52", "10")}

	s.ApplySnapshot("tok", bids, asks, 1, true, 100)
	first, _ := s.Get("tok")

	s.ApplySnapshot("tok", bids, asks, 1, true, 100)
	second, _ := s.Get("tok")

	assert.Equal(t, first.Bids, second.Bids)
	assert.Equal(t, first.Asks, second.Asks)
}

func TestStore_ApplyUpdate_ZeroSizeRemovesLevel(t *testing.T) {
	s := NewStore(nil)
	s.ApplySnapshot("tok", []Level{lvl("0.49", "10")}, nil, 1, true, 100)

	applied := s.ApplyUpdate("tok", []Level{lvl("0.49", "0")}, nil, 2, true, 101)
	require.True(t, applied)

	snap, _ := s.Get("tok")
	assert.Empty(t, snap.Bids)
}

func TestStore_ApplyUpdate_ZeroSizeAtNonExistentPriceIsNoop(t *testing.T) {
	s := NewStore(nil)
	s.ApplySnapshot("tok", []Level{lvl("0.49", "10")}, nil, 1, true, 100)

	applied := s.ApplyUpdate("tok", []Level{lvl("0.30", "0")}, nil, 2, true, 101)
	require.True(t, applied)

	snap, _ := s.Get("tok")
	require.Len(t, snap.Bids, 1)
	assert.True(t, snap.Bids[0].Price.Equal(corex.MustParse("0.49")))
}

func TestStore_ApplyUpdate_DuplicateSequenceDiscarded(t *testing.T) {
	s := NewStore(nil)
	s.ApplySnapshot("tok", []Level{lvl("0.49", "10")}, nil, 5, true, 100)

	applied := s.ApplyUpdate("tok", []Level{lvl("0.60", "1")}, nil, 5, true, 101)
	assert.False(t, applied)

	snap, _ := s.Get("tok")
	assert.Len(t, snap.Bids, 1)
}

func TestStore_ApplyUpdate_GapIsCountedButApplied(t *testing.T) {
	s := NewStore(nil)
	s.ApplySnapshot("tok", []Level{lvl("0.49", "10")}, nil, 1, true, 100)

	applied := s.ApplyUpdate("tok", []Level{lvl("0.55", "3")}, nil, 5, true, 101)
	require.True(t, applied)

	snap, _ := s.Get("tok")
	assert.Equal(t, int64(3), snap.SequenceGaps) // seq 2,3,4 skipped
}

func TestStore_LastUpdateMSMonotonic(t *testing.T) {
	s := NewStore(nil)
	s.ApplySnapshot("tok", []Level{lvl("0.49", "10")}, nil, 1, true, 100)
	s.ApplyUpdate("tok", []Level{lvl("0.49", "5")}, nil, 2, true, 150)

	snap, _ := s.Get("tok")
	assert.Equal(t, int64(150), snap.LastUpdateMS)
}
