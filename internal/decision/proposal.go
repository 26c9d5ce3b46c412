package decision

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Proposal is the loosely-typed mapping returned by the decision source. Any
// subset of fields may be present; absence is valid input, not an error.
// Pointer fields keep "absent" distinguishable from an explicit zero.
type Proposal struct {
	Action      string
	Symbol      string
	AmountUSD   *float64
	PositionPct *float64
	Leverage    *int
	StopLoss    *float64
	TakeProfit  *float64
	RiskReward  *float64
	EntrySignal *bool
	EntryReason string

	NewsAnalysis        string
	TechnicalConditions string
	RiskAssessment      string
	Reasoning           string
}

func coerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func coerceFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f, true
		}
		return 0, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func coerceBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
		return false, false
	case float64:
		return x != 0, true
	default:
		return false, false
	}
}

func floatField(raw map[string]any, key string) *float64 {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	f, ok := coerceFloat64(v)
	if !ok {
		return nil
	}
	return &f
}

// UnmarshalJSON tolerates string-or-number values for every numeric field;
// model output routinely quotes numbers.
func (p *Proposal) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Action = coerceString(raw["action"])
	p.Symbol = coerceString(raw["symbol"])
	p.AmountUSD = floatField(raw, "amount_usd")
	p.PositionPct = floatField(raw, "position_pct")
	p.StopLoss = floatField(raw, "stop_loss")
	p.TakeProfit = floatField(raw, "take_profit")
	p.RiskReward = floatField(raw, "risk_reward")
	if f := floatField(raw, "leverage"); f != nil {
		lev := int(*f)
		p.Leverage = &lev
	}
	if v, ok := raw["entry_signal"]; ok && v != nil {
		if b, ok := coerceBool(v); ok {
			p.EntrySignal = &b
		}
	}
	p.EntryReason = coerceString(raw["entry_reason"])
	p.NewsAnalysis = coerceString(raw["news_analysis"])
	p.TechnicalConditions = coerceString(raw["technical_conditions"])
	p.RiskAssessment = coerceString(raw["risk_assessment"])
	p.Reasoning = coerceString(raw["reasoning"])
	return nil
}
