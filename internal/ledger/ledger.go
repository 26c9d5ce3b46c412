// Package ledger tracks open positions keyed by strategy and symbol. The
// ledger is the engine's source of truth for what is currently held; every
// mutation is durable before the call returns.
package ledger

import (
	"context"
	"errors"
	"time"
)

// Side of an open position.
const (
	SideLong  = "long"
	SideShort = "short"
)

var (
	// ErrNotFound reports a close or lookup against a key with no open position.
	ErrNotFound = errors.New("position not found")
	// ErrAlreadyOpen reports an open against a key that already holds a
	// position. The caller must close the existing position first.
	ErrAlreadyOpen = errors.New("position already open")
)

// Key identifies at most one open position. A strategy holds at most one
// position per symbol.
type Key struct {
	Strategy string
	Symbol   string
}

// Position is one open ledger entry.
type Position struct {
	Strategy    string
	Symbol      string
	Side        string
	Quantity    float64 // base units
	AmountUSD   float64 // margin committed
	EntryPrice  float64
	Leverage    int
	StopLoss    *float64
	TakeProfit  *float64
	RiskReward  float64
	EntryReason string
	TraceID     string
	OpenedAt    time.Time
}

// Key returns the ledger key for this position.
func (p Position) Key() Key {
	return Key{Strategy: p.Strategy, Symbol: p.Symbol}
}

// Store persists open positions. Implementations must be safe for concurrent
// use.
type Store interface {
	// Open records a new position. Returns ErrAlreadyOpen if the key already
	// holds one; the stored entry is left untouched.
	Open(ctx context.Context, p Position) error
	// Close removes the position for key and returns the removed entry.
	// Returns ErrNotFound without mutating anything if the key is absent.
	Close(ctx context.Context, k Key) (Position, error)
	// Get returns the open position for key, or ErrNotFound.
	Get(ctx context.Context, k Key) (Position, error)
	// All returns every open position.
	All(ctx context.Context) ([]Position, error)
}
