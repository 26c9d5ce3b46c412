// Package paper simulates an execution venue against live market prices.
// Fills are instant and frictionless; the wallet is the only state.
package paper

import (
	"context"
	"fmt"
	"sync"

	"vigil/internal/contract"
	"vigil/internal/decision"
	"vigil/internal/gateway"
	"vigil/internal/logger"
)

// PriceFeed supplies the marks used for fills and equity.
type PriceFeed interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// Exchange is a paper trading venue backed by a quote-currency wallet.
type Exchange struct {
	feed PriceFeed

	mu        sync.Mutex
	cash      float64
	positions map[string]float64 // symbol -> base quantity
	orderSeq  int
}

var _ gateway.Exchange = (*Exchange)(nil)

func New(feed PriceFeed, initialBalanceUSD float64) *Exchange {
	return &Exchange{
		feed:      feed,
		cash:      initialBalanceUSD,
		positions: make(map[string]float64),
	}
}

func (e *Exchange) Name() string { return "paper" }

func (e *Exchange) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return e.feed.CurrentPrice(ctx, symbol)
}

// AccountState marks every held quantity at the current feed price. A symbol
// whose price is unavailable contributes nothing to equity this snapshot.
func (e *Exchange) AccountState(ctx context.Context) (decision.PortfolioState, error) {
	e.mu.Lock()
	cash := e.cash
	held := make(map[string]float64, len(e.positions))
	for sym, qty := range e.positions {
		held[sym] = qty
	}
	e.mu.Unlock()

	equity := cash
	for sym, qty := range held {
		price, err := e.feed.CurrentPrice(ctx, sym)
		if err != nil {
			logger.Warnf("paper: no mark for %s, excluding from equity: %v", sym, err)
			continue
		}
		equity += qty * price
	}
	return decision.PortfolioState{Cash: cash, Equity: equity, Positions: held}, nil
}

// SubmitOrder fills at the current feed price. Buys debit the wallet by
// AmountUSD; sells liquidate at most the held quantity.
func (e *Exchange) SubmitOrder(ctx context.Context, o gateway.Order) (gateway.Fill, error) {
	if o.AmountUSD <= 0 {
		return gateway.Fill{}, fmt.Errorf("paper: amount must be positive: %w", gateway.ErrRejected)
	}
	price, err := e.feed.CurrentPrice(ctx, o.Symbol)
	if err != nil {
		return gateway.Fill{}, fmt.Errorf("paper: price %s: %w", o.Symbol, err)
	}
	if price <= 0 {
		return gateway.Fill{}, fmt.Errorf("paper: bad price %.2f for %s: %w", price, o.Symbol, gateway.ErrRejected)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch o.Side {
	case gateway.SideBuy:
		if o.AmountUSD > e.cash {
			return gateway.Fill{}, fmt.Errorf("paper: insufficient cash %.2f for %.2f: %w", e.cash, o.AmountUSD, gateway.ErrRejected)
		}
		// The wallet is spot-like: leverage affects the ledger quantity the
		// engine records, never the cash debit or the wallet quantity.
		qty := o.Quantity
		if qty <= 0 {
			qty = o.AmountUSD / price
		}
		e.cash -= o.AmountUSD
		e.positions[o.Symbol] += qty
		return e.fill(o.Symbol, gateway.SideBuy, price, qty), nil

	case gateway.SideSell:
		held := e.positions[o.Symbol]
		qty := o.AmountUSD / price
		if qty > held {
			qty = held
		}
		if qty <= 0 {
			return gateway.Fill{}, fmt.Errorf("paper: nothing to sell for %s: %w", o.Symbol, gateway.ErrRejected)
		}
		e.reduce(o.Symbol, qty)
		e.cash += qty * price
		return e.fill(o.Symbol, gateway.SideSell, price, qty), nil

	default:
		return gateway.Fill{}, fmt.Errorf("paper: unknown side %q: %w", o.Side, gateway.ErrRejected)
	}
}

// ClosePosition liquidates quantity at the current feed price and credits
// the proceeds back to the wallet.
func (e *Exchange) ClosePosition(ctx context.Context, o gateway.CloseOrder) (gateway.Fill, error) {
	price, err := e.feed.CurrentPrice(ctx, o.Symbol)
	if err != nil {
		return gateway.Fill{}, fmt.Errorf("paper: price %s: %w", o.Symbol, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	held := e.positions[o.Symbol]
	qty := o.Quantity
	if qty <= 0 || qty > held {
		qty = held
	}
	if qty <= 0 {
		return gateway.Fill{}, fmt.Errorf("paper: no open quantity for %s: %w", o.Symbol, gateway.ErrRejected)
	}
	e.reduce(o.Symbol, qty)
	e.cash += qty * price
	return e.fill(o.Symbol, gateway.SideSell, price, qty), nil
}

// ContractSpec is zero: paper fills have no lot geometry.
func (e *Exchange) ContractSpec(context.Context, string) (contract.Spec, error) {
	return contract.Spec{}, nil
}

// PlaceProtectiveOrders is a no-op: the paper venue holds no resting orders,
// the exit monitor closes paper positions.
func (e *Exchange) PlaceProtectiveOrders(_ context.Context, o gateway.ProtectiveOrders) error {
	logger.Debugf("paper: protective levels noted for %s", o.Symbol)
	return nil
}

func (e *Exchange) SetLeverage(_ context.Context, symbol string, leverage int) error {
	logger.Debugf("paper: leverage %dx noted for %s", leverage, symbol)
	return nil
}

// reduce lowers the held quantity, dropping dust below 1e-8.
func (e *Exchange) reduce(symbol string, qty float64) {
	e.positions[symbol] -= qty
	if e.positions[symbol] <= 1e-8 {
		delete(e.positions, symbol)
	}
}

func (e *Exchange) fill(symbol, side string, price, qty float64) gateway.Fill {
	e.orderSeq++
	return gateway.Fill{
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		Quantity: qty,
		OrderID:  fmt.Sprintf("paper-%d", e.orderSeq),
	}
}

