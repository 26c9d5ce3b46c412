package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func samplePosition(strategy, symbol string) Position {
	return Position{
		Strategy:    strategy,
		Symbol:      symbol,
		Side:        SideLong,
		Quantity:    0.05,
		AmountUSD:   250,
		EntryPrice:  50000,
		Leverage:    20,
		StopLoss:    floatPtr(48500),
		TakeProfit:  floatPtr(55000),
		RiskReward:  3.3,
		EntryReason: "breakout above range high",
		TraceID:     "trace-1",
		OpenedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("open then close returns the stored entry", func(t *testing.T) {
		store := newStore(t)
		p := samplePosition("conservative", "BTC/USDT")
		require.NoError(t, store.Open(ctx, p))

		got, err := store.Close(ctx, p.Key())
		require.NoError(t, err)
		assert.Equal(t, p, got)

		_, err = store.Get(ctx, p.Key())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("close on an absent key is not found and mutates nothing", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Open(ctx, samplePosition("conservative", "BTC/USDT")))

		_, err := store.Close(ctx, Key{Strategy: "conservative", Symbol: "ETH/USDT"})
		assert.ErrorIs(t, err, ErrNotFound)

		all, err := store.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("second open on the same key is rejected", func(t *testing.T) {
		store := newStore(t)
		first := samplePosition("conservative", "BTC/USDT")
		require.NoError(t, store.Open(ctx, first))

		second := first
		second.AmountUSD = 999
		err := store.Open(ctx, second)
		assert.ErrorIs(t, err, ErrAlreadyOpen)

		got, err := store.Get(ctx, first.Key())
		require.NoError(t, err)
		assert.Equal(t, first.AmountUSD, got.AmountUSD, "existing entry must stay untouched")
	})

	t.Run("same symbol under different strategies coexists", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Open(ctx, samplePosition("conservative", "BTC/USDT")))
		require.NoError(t, store.Open(ctx, samplePosition("aggressive", "BTC/USDT")))

		all, err := store.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestGormStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		store, err := NewGormStore(filepath.Join(t.TempDir(), "positions.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.CloseDB() })
		return store
	})
}

func TestGormStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "positions.db")

	store, err := NewGormStore(path)
	require.NoError(t, err)
	p := samplePosition("conservative", "BTC/USDT")
	require.NoError(t, store.Open(ctx, p))
	require.NoError(t, store.CloseDB())

	reopened, err := NewGormStore(path)
	require.NoError(t, err)
	defer reopened.CloseDB()

	got, err := reopened.Get(ctx, p.Key())
	require.NoError(t, err)
	assert.Equal(t, p, got)

	var notFound = Key{Strategy: "aggressive", Symbol: "BTC/USDT"}
	_, err = reopened.Get(ctx, notFound)
	assert.True(t, errors.Is(err, ErrNotFound))
}
