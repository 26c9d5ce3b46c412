package risk

import (
	"vigil/internal/decision"
)

// Reason is the stable rejection code attached to every verdict so callers
// and tests can assert on cause.
type Reason string

const (
	ReasonOK                  Reason = "ok"
	ReasonInvalidAction       Reason = "invalid_action"
	ReasonInvalidAmount       Reason = "invalid_amount"
	ReasonCooldown            Reason = "cooldown"
	ReasonLeverageOutOfBounds Reason = "leverage_out_of_bounds"
	ReasonPositionBelowMin    Reason = "position_below_min"
	ReasonPositionAboveMax    Reason = "position_above_max"
	ReasonStopLossRequired    Reason = "stop_loss_required"
	ReasonRiskRewardTooLow    Reason = "risk_reward_too_low"
	ReasonCashBuffer          Reason = "cash_buffer"
)

// Verdict is the gate's answer for one decision.
type Verdict struct {
	Accepted bool
	Reason   Reason
}

func accept() Verdict              { return Verdict{Accepted: true, Reason: ReasonOK} }
func reject(r Reason) Verdict      { return Verdict{Accepted: false, Reason: r} }

// Gate validates decisions against the policy. Pure apart from reading the
// shared cooldown state; it mutates nothing.
type Gate struct {
	Policy Policy
	State  *State
}

// Validate runs the ordered short-circuit checks: the cheapest and most
// fundamental first, so a single pass deterministically names the first
// violated limit.
func (g Gate) Validate(d decision.TradeDecision, equity, cash float64) Verdict {
	switch d.Action {
	case decision.ActionBuy, decision.ActionSell, decision.ActionHold:
	default:
		return reject(ReasonInvalidAction)
	}
	if d.Action == decision.ActionHold {
		return accept()
	}
	if d.AmountUSD <= 0 {
		return reject(ReasonInvalidAmount)
	}
	if g.State != nil && !g.State.CanTrade() {
		return reject(ReasonCooldown)
	}
	// The raw leverage is validated, not the arithmetic default: a proposal
	// that omitted leverage fails here whenever the policy floor is above 0.
	if d.Leverage < g.Policy.LeverageMin || d.Leverage > g.Policy.LeverageMax {
		return reject(ReasonLeverageOutOfBounds)
	}
	notional := d.AmountUSD * float64(d.Leverage)
	posPct := 0.0
	if equity > 0 {
		posPct = notional / equity
	}
	if posPct < g.Policy.MinPositionPct {
		return reject(ReasonPositionBelowMin)
	}
	if posPct > g.Policy.MaxPositionPct {
		return reject(ReasonPositionAboveMax)
	}
	if d.StopLoss == nil {
		return reject(ReasonStopLossRequired)
	}
	if d.RiskReward < g.Policy.MinRiskReward {
		return reject(ReasonRiskRewardTooLow)
	}
	if d.Action == decision.ActionBuy && cash-d.AmountUSD < equity*g.Policy.MinCashBufferPct {
		return reject(ReasonCashBuffer)
	}
	return accept()
}
