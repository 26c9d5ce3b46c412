package risk

import (
	"vigil/internal/decision"
)

// ClampToPolicy pulls a decision whose post-leverage notional falls outside
// the policy band to the nearest bound before validation. Applied by the
// engine only when the caller has not forced explicit contract sizing.
// Leverage defaults to the policy floor for this arithmetic, mirroring the
// sizing the exchange order would use.
func ClampToPolicy(d *decision.TradeDecision, pol Policy, equity float64) {
	if d == nil || equity <= 0 {
		return
	}
	lev := float64(d.Leverage)
	if lev <= 0 {
		lev = float64(pol.LeverageMin)
	}
	if lev <= 0 {
		lev = 1
	}
	notional := d.AmountUSD * lev
	if d.PositionPct == nil {
		pct := notional / equity
		d.PositionPct = &pct
	}
	switch {
	case notional < equity*pol.MinPositionPct:
		pct := pol.MinPositionPct
		d.PositionPct = &pct
		d.AmountUSD = equity * pct / lev
	case notional > equity*pol.MaxPositionPct:
		pct := pol.MaxPositionPct
		d.PositionPct = &pct
		d.AmountUSD = equity * pct / lev
	}
}
