package paper

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/gateway"
)

type stubFeed struct {
	prices map[string]float64
}

func (f stubFeed) CurrentPrice(_ context.Context, symbol string) (float64, error) {
	p, ok := f.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("no quote for %s", symbol)
	}
	return p, nil
}

func TestBuyDebitsWalletAndBooksQuantity(t *testing.T) {
	ctx := context.Background()
	ex := New(stubFeed{prices: map[string]float64{"BTC/USDT": 50000}}, 10000)

	fill, err := ex.SubmitOrder(ctx, gateway.Order{
		Symbol: "BTC/USDT", Side: gateway.SideBuy, AmountUSD: 250, Leverage: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 50000.0, fill.Price)
	// The wallet books spot quantity; leverage never touches the cash leg.
	assert.InDelta(t, 0.005, fill.Quantity, 1e-12)

	state, err := ex.AccountState(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 9750, state.Cash, 1e-9)
	assert.InDelta(t, 0.005, state.Positions["BTC/USDT"], 1e-12)
	// Equity marks the held quantity at the feed price.
	assert.InDelta(t, 10000, state.Equity, 1e-9)
}

func TestBuyRejectsWhenCashInsufficient(t *testing.T) {
	ctx := context.Background()
	ex := New(stubFeed{prices: map[string]float64{"BTC/USDT": 50000}}, 100)

	_, err := ex.SubmitOrder(ctx, gateway.Order{
		Symbol: "BTC/USDT", Side: gateway.SideBuy, AmountUSD: 250,
	})
	assert.ErrorIs(t, err, gateway.ErrRejected)

	state, err := ex.AccountState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, state.Cash, "rejected orders leave the wallet untouched")
}

func TestSellCapsAtHeldQuantity(t *testing.T) {
	ctx := context.Background()
	ex := New(stubFeed{prices: map[string]float64{"BTC/USDT": 50000}}, 10000)

	_, err := ex.SubmitOrder(ctx, gateway.Order{
		Symbol: "BTC/USDT", Side: gateway.SideBuy, AmountUSD: 5000,
	})
	require.NoError(t, err)

	// Asking to sell double the held value only liquidates what is held.
	fill, err := ex.SubmitOrder(ctx, gateway.Order{
		Symbol: "BTC/USDT", Side: gateway.SideSell, AmountUSD: 10000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, fill.Quantity, 1e-12)

	state, err := ex.AccountState(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10000, state.Cash, 1e-9)
	assert.Empty(t, state.Positions)
}

func TestSellWithNothingHeldIsRejected(t *testing.T) {
	ex := New(stubFeed{prices: map[string]float64{"BTC/USDT": 50000}}, 10000)
	_, err := ex.SubmitOrder(context.Background(), gateway.Order{
		Symbol: "BTC/USDT", Side: gateway.SideSell, AmountUSD: 100,
	})
	assert.ErrorIs(t, err, gateway.ErrRejected)
}

func TestClosePositionFlattensAndCredits(t *testing.T) {
	ctx := context.Background()
	feed := stubFeed{prices: map[string]float64{"BTC/USDT": 50000}}
	ex := New(feed, 10000)

	_, err := ex.SubmitOrder(ctx, gateway.Order{
		Symbol: "BTC/USDT", Side: gateway.SideBuy, AmountUSD: 250, Leverage: 20,
	})
	require.NoError(t, err)

	// Price doubles before the close. Asking for a larger quantity than held
	// caps at the wallet holding.
	feed.prices["BTC/USDT"] = 100000
	fill, err := ex.ClosePosition(ctx, gateway.CloseOrder{Symbol: "BTC/USDT", Quantity: 0.1})
	require.NoError(t, err)
	assert.InDelta(t, 0.005, fill.Quantity, 1e-12)

	state, err := ex.AccountState(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 9750+0.005*100000, state.Cash, 1e-9)
	assert.Empty(t, state.Positions)
}

func TestEquityExcludesUnpriceableSymbols(t *testing.T) {
	ctx := context.Background()
	ex := New(stubFeed{prices: map[string]float64{"BTC/USDT": 50000}}, 10000)
	_, err := ex.SubmitOrder(ctx, gateway.Order{
		Symbol: "BTC/USDT", Side: gateway.SideBuy, AmountUSD: 1000,
	})
	require.NoError(t, err)

	// Quotes disappear for the held symbol.
	ex.feed = stubFeed{prices: map[string]float64{}}
	state, err := ex.AccountState(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 9000, state.Equity, 1e-9)
}
