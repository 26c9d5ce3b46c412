// Package decision turns an untrusted, free-form trade proposal into a
// canonical TradeDecision with consistent sizing fields.
package decision

import (
	"vigil/internal/market"
)

// Actions a decision may carry after normalization. Anything else is passed
// through verbatim and rejected downstream by the risk gate.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// TradeDecision is the canonical per-cycle decision. Produced fresh each
// cycle by the normalizer and owned by the caller for that cycle only.
type TradeDecision struct {
	Action    string  `json:"action"`
	Symbol    string  `json:"symbol"`
	AmountUSD float64 `json:"amount_usd"` // margin committed in quote currency

	// PositionPct is the post-leverage notional as a fraction of equity.
	// Nil when it could not be derived (equity unknown).
	PositionPct *float64 `json:"position_pct,omitempty"`

	// Leverage is the raw proposed multiplier; 0 when the proposal omitted
	// it. Arithmetic treats absent/non-positive as 1, but the gate validates
	// the raw value against policy bounds.
	Leverage int `json:"leverage,omitempty"`

	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty"`
	RiskReward float64  `json:"risk_reward,omitempty"`

	EntrySignal bool   `json:"entry_signal,omitempty"`
	EntryReason string `json:"entry_reason,omitempty"`

	NewsAnalysis        string `json:"news_analysis,omitempty"`
	TechnicalConditions string `json:"technical_conditions,omitempty"`
	RiskAssessment      string `json:"risk_assessment,omitempty"`
}

// CalcLeverage returns the multiplier used for sizing arithmetic: the raw
// leverage when positive, otherwise 1.
func (d TradeDecision) CalcLeverage() float64 {
	if d.Leverage > 0 {
		return float64(d.Leverage)
	}
	return 1
}

// Notional is the post-leverage dollar exposure.
func (d TradeDecision) Notional() float64 {
	return d.AmountUSD * d.CalcLeverage()
}

// MarketContext is the per-cycle market input to normalization and the
// decision source.
type MarketContext struct {
	Symbol string
	Price  float64

	// DesiredNotionalUSD, when set, forces exact sizing regardless of what
	// the decision source proposed.
	DesiredNotionalUSD *float64

	Timeframes map[string]market.Summary
}

// PortfolioState is the per-cycle account input.
type PortfolioState struct {
	Cash      float64
	Equity    float64
	Positions map[string]float64 // symbol -> base quantity
}

// SizingFunc is the strategy-supplied fallback sizing capability: given the
// decision so far and context, return amount_usd. A negative return means
// "no opinion".
type SizingFunc func(d TradeDecision, mctx MarketContext, pf PortfolioState) float64
