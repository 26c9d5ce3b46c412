package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"vigil/internal/decision"
	"vigil/internal/market"
	"vigil/internal/strategy"
)

func TestBuildUserPromptWithRawSummaries(t *testing.T) {
	mctx := decision.MarketContext{
		Symbol: "BTC/USDT",
		Price:  50000,
		Timeframes: map[string]market.Summary{
			"1h": {Price: 50000, RSI: 61.5, Trend: "up"},
		},
	}
	pf := decision.PortfolioState{Cash: 8000, Equity: 10000, Positions: map[string]float64{"BTC/USDT": 0.04}}

	out, err := buildUserPrompt(strategy.Strategy{}, mctx, pf, "1. ETF approval expected (wire)")
	require.NoError(t, err)

	assert.Equal(t, "BTC/USDT", gjson.Get(out, "market.symbol").String())
	assert.Equal(t, 50000.0, gjson.Get(out, "market.price").Float())
	assert.Equal(t, "up", gjson.Get(out, "market.multi.1h.trend").String())
	assert.Equal(t, 10000.0, gjson.Get(out, "portfolio.equity").Float())
	assert.Equal(t, 0.04, gjson.Get(out, `portfolio.positions.BTC/USDT`).Float())
	assert.Contains(t, gjson.Get(out, "news").String(), "ETF approval")
	assert.False(t, gjson.Get(out, "market.desired_notional_usd").Exists())
}

func TestBuildUserPromptPrefersStrategyFeatures(t *testing.T) {
	desired := 1500.0
	mctx := decision.MarketContext{
		Symbol:             "BTC/USDT",
		Price:              50000,
		DesiredNotionalUSD: &desired,
		Timeframes:         map[string]market.Summary{"1h": {Price: 50000}},
	}
	strat := strategy.Strategy{
		Features: func(decision.MarketContext) map[string]any {
			return map[string]any{"structure": "Bullish"}
		},
	}

	out, err := buildUserPrompt(strat, mctx, decision.PortfolioState{}, "")
	require.NoError(t, err)

	assert.Equal(t, "Bullish", gjson.Get(out, "market.features.structure").String())
	assert.False(t, gjson.Get(out, "market.multi").Exists(), "features replace raw summaries")
	assert.Equal(t, 1500.0, gjson.Get(out, "market.desired_notional_usd").Float())
}
