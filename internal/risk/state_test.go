package risk

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateCooldownClock(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewState(15*time.Minute, nil)
	s.nowFn = func() time.Time { return now }

	assert.True(t, s.CanTrade(), "fresh state has no cooldown")

	s.RecordLoss()
	assert.False(t, s.CanTrade())
	assert.Equal(t, now, s.LastLoss())

	now = now.Add(15*time.Minute + time.Second)
	assert.True(t, s.CanTrade())
}

func TestStateStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk_state.db")

	store, err := OpenStateStore(path)
	require.NoError(t, err)

	ts, err := store.LastLoss()
	require.NoError(t, err)
	assert.True(t, ts.IsZero(), "empty store yields zero time")

	loss := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, store.SaveLastLoss(loss))
	require.NoError(t, store.Close())

	// Reopen: the timestamp must survive.
	store, err = OpenStateStore(path)
	require.NoError(t, err)
	defer store.Close()

	ts, err = store.LastLoss()
	require.NoError(t, err)
	assert.Equal(t, loss.UnixMilli(), ts.UnixMilli())
}

func TestStateLoadsPersistedCooldown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk_state.db")
	store, err := OpenStateStore(path)
	require.NoError(t, err)
	defer store.Close()

	loss := time.Now().Add(-time.Minute)
	require.NoError(t, store.SaveLastLoss(loss))

	s := NewState(15*time.Minute, store)
	assert.False(t, s.CanTrade(), "restart inside the window keeps the cooldown")
}
