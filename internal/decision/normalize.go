package decision

import (
	"encoding/json"
	"strings"

	"vigil/internal/logger"
)

// Normalizer fills every derivable TradeDecision field and restores the
// sizing invariant amount_usd == equity * position_pct / max(leverage, 1).
// Pure: a malformed proposal degrades to a HOLD decision, never an error.
type Normalizer struct {
	// Sizing is the strategy-bound fallback used when the proposal carries
	// neither position_pct nor a caller-forced notional. Optional.
	Sizing SizingFunc

	// DefaultSymbol backs an empty proposal/context symbol.
	DefaultSymbol string
}

// ParseAndNormalize decodes the raw oracle output and normalizes it. Any
// decode failure yields a safe HOLD decision for the context symbol.
func (n Normalizer) ParseAndNormalize(raw string, mctx MarketContext, pf PortfolioState) TradeDecision {
	extracted, err := ExtractProposalJSON(raw)
	if err != nil {
		logger.Warnf("normalizer: unusable oracle output, degrading to HOLD: %v", err)
		return n.holdDecision(mctx)
	}
	var p Proposal
	if err := json.Unmarshal([]byte(extracted), &p); err != nil {
		logger.Warnf("normalizer: proposal decode failed, degrading to HOLD: %v", err)
		return n.holdDecision(mctx)
	}
	return n.Normalize(p, mctx, pf)
}

// Normalize builds the canonical decision from a parsed proposal.
//
// Sizing derivation order, first match wins:
//  1. caller-forced desired notional (deterministic override),
//  2. proposal position_pct with equity > 0,
//  3. strategy sizing fallback (never overrides an explicit percentage).
func (n Normalizer) Normalize(p Proposal, mctx MarketContext, pf PortfolioState) TradeDecision {
	d := TradeDecision{
		Action:              normalizeAction(p.Action),
		Symbol:              n.symbolFor(p, mctx),
		StopLoss:            p.StopLoss,
		TakeProfit:          p.TakeProfit,
		EntryReason:         p.EntryReason,
		NewsAnalysis:        firstNonEmpty(p.NewsAnalysis, p.Reasoning),
		TechnicalConditions: p.TechnicalConditions,
		RiskAssessment:      p.RiskAssessment,
	}
	if p.Leverage != nil {
		d.Leverage = *p.Leverage
	}
	if p.RiskReward != nil {
		d.RiskReward = *p.RiskReward
	}
	if p.EntrySignal != nil {
		d.EntrySignal = *p.EntrySignal
	}
	if p.AmountUSD != nil && *p.AmountUSD > 0 {
		d.AmountUSD = *p.AmountUSD
	}

	lev := d.CalcLeverage()
	equity := pf.Equity

	switch {
	case mctx.DesiredNotionalUSD != nil && equity > 0:
		pct := *mctx.DesiredNotionalUSD / equity
		d.PositionPct = &pct
		d.AmountUSD = *mctx.DesiredNotionalUSD / lev
	case p.PositionPct != nil && equity > 0:
		pct := *p.PositionPct
		d.PositionPct = &pct
		d.AmountUSD = equity * pct / lev
	default:
		// The fallback never overrides an explicit percentage, even when a
		// missing equity snapshot kept the pct branch from sizing it.
		if n.Sizing != nil && p.PositionPct == nil {
			if computed := n.Sizing(d, mctx, pf); computed >= 0 {
				d.AmountUSD = computed
			}
		}
	}

	// Restore the invariant from the amount side when only amount_usd was
	// supplied.
	if d.PositionPct == nil && equity > 0 {
		pct := d.AmountUSD * lev / equity
		d.PositionPct = &pct
	}
	return d
}

func (n Normalizer) holdDecision(mctx MarketContext) TradeDecision {
	sym := strings.TrimSpace(mctx.Symbol)
	if sym == "" {
		sym = n.DefaultSymbol
	}
	return TradeDecision{Action: ActionHold, Symbol: sym}
}

func (n Normalizer) symbolFor(p Proposal, mctx MarketContext) string {
	if s := strings.TrimSpace(p.Symbol); s != "" {
		return s
	}
	if s := strings.TrimSpace(mctx.Symbol); s != "" {
		return s
	}
	return n.DefaultSymbol
}

// normalizeAction upper-cases the proposed action. An empty action becomes
// HOLD; anything unrecognized passes through for the gate to reject.
func normalizeAction(a string) string {
	a = strings.ToUpper(strings.TrimSpace(a))
	if a == "" {
		return ActionHold
	}
	return a
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
