// Package gateway defines the execution boundary: the engine talks to an
// Exchange and never learns whether fills are simulated or live.
package gateway

import (
	"context"
	"errors"

	"vigil/internal/contract"
	"vigil/internal/decision"
)

// Order sides at the gateway boundary.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// ErrRejected reports an order the venue refused. The caller must not
// retry within the same cycle.
var ErrRejected = errors.New("order rejected")

// Order is a market order sized in quote currency.
type Order struct {
	Symbol    string
	Side      string
	AmountUSD float64 // margin committed
	Leverage  int     // 0 for spot-style paper orders
	Quantity  float64 // base units; 0 lets the venue derive from AmountUSD
	TraceID   string
}

// CloseOrder flattens an existing position.
type CloseOrder struct {
	Symbol   string
	Side     string  // side of the position being closed
	Quantity float64 // base units, always the full position
	TraceID  string
}

// ProtectiveOrders are the venue-side stop and target attached to a fresh
// entry so exits fire even while the supervisor is down. Either level may be
// nil. Side is the side of the position being protected.
type ProtectiveOrders struct {
	Symbol     string
	Side       string
	Quantity   float64 // base units, the full position
	StopLoss   *float64
	TakeProfit *float64
	TraceID    string
}

// Fill is the venue's acknowledgement.
type Fill struct {
	Symbol   string
	Side     string
	Price    float64
	Quantity float64 // base units actually traded
	OrderID  string
}

// Exchange is the execution venue. Implementations must be safe for
// concurrent use; the engine may run several strategies at once.
type Exchange interface {
	Name() string

	// CurrentPrice returns the latest trade or mark price for symbol.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)

	// AccountState snapshots cash, equity and held quantities. Equity is
	// marked against current venue prices.
	AccountState(ctx context.Context) (decision.PortfolioState, error)

	// SubmitOrder places a market order. A non-nil error means nothing was
	// booked and the caller records nothing.
	SubmitOrder(ctx context.Context, o Order) (Fill, error)

	// ClosePosition flattens the given quantity. A non-nil error means the
	// position is still open at the venue.
	ClosePosition(ctx context.Context, o CloseOrder) (Fill, error)

	// ContractSpec reports the venue's lot geometry for symbol. Venues
	// without discrete contracts return a zero Spec.
	ContractSpec(ctx context.Context, symbol string) (contract.Spec, error)

	// PlaceProtectiveOrders attaches resting stop/target orders to an open
	// position. Venues that cannot hold resting orders are a no-op; the
	// exit monitor still covers every position.
	PlaceProtectiveOrders(ctx context.Context, o ProtectiveOrders) error

	// SetLeverage configures position leverage before an entry. Venues
	// without leverage are a no-op.
	SetLeverage(ctx context.Context, symbol string, leverage int) error
}
