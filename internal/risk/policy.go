// Package risk validates canonical trade decisions against hard limits
// before any capital is committed.
package risk

import (
	"time"

	"vigil/internal/config"
)

// Policy carries the process-wide immutable risk limits. Loaded once at
// startup from config; never mutated afterwards.
type Policy struct {
	MinPositionPct      float64
	MaxPositionPct      float64
	MaxDailyDrawdownPct float64
	CooldownMinutes     int
	MinCashBufferPct    float64
	LeverageMin         int
	LeverageMax         int
	MinRiskReward       float64
}

// PolicyFromConfig copies the validated config section into a Policy.
func PolicyFromConfig(cfg config.RiskConfig) Policy {
	return Policy{
		MinPositionPct:      cfg.MinPositionPct,
		MaxPositionPct:      cfg.MaxPositionPct,
		MaxDailyDrawdownPct: cfg.MaxDailyDrawdownPct,
		CooldownMinutes:     cfg.CooldownMinutes,
		MinCashBufferPct:    cfg.MinCashBufferPct,
		LeverageMin:         cfg.LeverageMin,
		LeverageMax:         cfg.LeverageMax,
		MinRiskReward:       cfg.MinRiskReward,
	}
}

// CooldownWindow is the quiet period enforced after a recorded loss.
func (p Policy) CooldownWindow() time.Duration {
	return time.Duration(p.CooldownMinutes) * time.Minute
}
