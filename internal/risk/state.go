package risk

import (
	"sync"
	"time"

	"vigil/internal/logger"
)

// State is the single cooldown clock shared by all strategies: the timestamp
// of the last realized loss. Zero-valued at startup; only RecordLoss moves
// it forward. Owned by the orchestration loop and passed by reference into
// the gate.
type State struct {
	mu       sync.Mutex
	lastLoss time.Time
	cooldown time.Duration
	store    *StateStore
	nowFn    func() time.Time
}

// NewState builds a State for the given cooldown window. A non-nil store
// makes the cooldown survive restarts: the persisted timestamp is loaded
// here and every RecordLoss is flushed through it.
func NewState(cooldown time.Duration, store *StateStore) *State {
	s := &State{cooldown: cooldown, store: store, nowFn: time.Now}
	if store != nil {
		if ts, err := store.LastLoss(); err != nil {
			logger.Warnf("risk: loading persisted state failed: %v", err)
		} else {
			s.lastLoss = ts
		}
	}
	return s
}

// CanTrade reports whether the cooldown window since the last recorded loss
// has elapsed. True when no loss has ever been recorded.
func (s *State) CanTrade() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastLoss.IsZero() {
		return true
	}
	return s.nowFn().Sub(s.lastLoss) > s.cooldown
}

// RecordLoss stamps the cooldown clock. Called by the orchestration loop
// after realizing a losing exit, never by the gate itself.
func (s *State) RecordLoss() {
	s.mu.Lock()
	now := s.nowFn()
	s.lastLoss = now
	store := s.store
	s.mu.Unlock()
	if store != nil {
		if err := store.SaveLastLoss(now); err != nil {
			logger.Errorf("risk: persisting loss timestamp failed: %v", err)
		}
	}
}

// LastLoss returns the current cooldown anchor (zero when none).
func (s *State) LastLoss() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLoss
}
