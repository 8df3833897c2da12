package chainx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct{ nonce uint64 }

func (f fakeFetcher) PendingNonceAt(ctx context.Context, addr string) (uint64, error) {
	return f.nonce, nil
}

func TestNonceManager_AllocateIsMonotonic(t *testing.T) {
	m := NewNonceManager("0xabc", fakeFetcher{nonce: 5}, nil)
	require.NoError(t, m.Initialize(context.Background()))

	assert.Equal(t, uint64(5), m.Allocate())
	assert.Equal(t, uint64(6), m.Allocate())
	assert.Equal(t, uint64(7), m.Allocate())
	assert.Equal(t, 3, m.PendingCount())
}

func TestNonceManager_MarkConfirmedRemovesFromPending(t *testing.T) {
	m := NewNonceManager("0xabc", fakeFetcher{nonce: 0}, nil)
	require.NoError(t, m.Initialize(context.Background()))

	n := m.Allocate()
	assert.True(t, m.IsPending(n))
	m.MarkConfirmed(n)
	assert.False(t, m.IsPending(n))
}

func TestNonceManager_MarkFailedReusesNonce(t *testing.T) {
	m := NewNonceManager("0xabc", fakeFetcher{nonce: 0}, nil)
	require.NoError(t, m.Initialize(context.Background()))

	n1 := m.Allocate() // 0
	_ = m.Allocate()   // 1
	m.MarkFailed(n1)

	// next allocation should reuse nonce 0, not continue from 2
	assert.Equal(t, n1, m.Allocate())
}

func TestNonceManager_MarkFailedOnMostRecentRewindsToThatNonce(t *testing.T) {
	m := NewNonceManager("0xabc", fakeFetcher{nonce: 0}, nil)
	require.NoError(t, m.Initialize(context.Background()))

	_ = m.Allocate()   // 0
	n2 := m.Allocate() // 1
	m.MarkFailed(n2)

	stats := m.Stats()
	assert.Equal(t, uint64(1), stats.Next)
}
