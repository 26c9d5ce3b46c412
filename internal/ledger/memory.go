package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps open positions in memory. Paper runs that do not need
// positions to survive a restart use this instead of the SQLite store.
type MemoryStore struct {
	mu        sync.Mutex
	positions map[Key]Position
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{positions: make(map[Key]Position)}
}

func (s *MemoryStore) Open(_ context.Context, p Position) error {
	if p.Strategy == "" || p.Symbol == "" {
		return fmt.Errorf("ledger: position needs strategy and symbol")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := p.Key()
	if _, ok := s.positions[k]; ok {
		return fmt.Errorf("%s/%s: %w", k.Strategy, k.Symbol, ErrAlreadyOpen)
	}
	s.positions[k] = p
	return nil
}

func (s *MemoryStore) Close(_ context.Context, k Key) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[k]
	if !ok {
		return Position{}, fmt.Errorf("%s/%s: %w", k.Strategy, k.Symbol, ErrNotFound)
	}
	delete(s.positions, k)
	return p, nil
}

func (s *MemoryStore) Get(_ context.Context, k Key) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[k]
	if !ok {
		return Position{}, fmt.Errorf("%s/%s: %w", k.Strategy, k.Symbol, ErrNotFound)
	}
	return p, nil
}

func (s *MemoryStore) All(_ context.Context) ([]Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out, nil
}
