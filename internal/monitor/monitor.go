// Package monitor evaluates open positions against their protective exit
// levels. Scan is pure; the engine owns price fetching and order placement.
package monitor

import (
	"github.com/shopspring/decimal"

	"vigil/internal/ledger"
)

// ExitKind names which protective level fired.
type ExitKind string

const (
	ExitStopLoss   ExitKind = "stop_loss"
	ExitTakeProfit ExitKind = "take_profit"
)

// Trigger is one position whose exit level was crossed. Quantity is always
// the full position size; the monitor never scales out.
type Trigger struct {
	Position ledger.Position
	Kind     ExitKind
	Price    float64 // the snapshot price that crossed the level
}

// Scan checks every position against the price snapshot and returns the
// triggers in input order. Each symbol is judged against a single snapshot
// price so a position cannot see two different prices within one scan.
// Positions whose symbol is missing from prices are skipped.
func Scan(positions []ledger.Position, prices map[string]float64) []Trigger {
	var out []Trigger
	for _, p := range positions {
		if p.Quantity <= 0 {
			continue
		}
		price, ok := prices[p.Symbol]
		if !ok || price <= 0 {
			continue
		}
		if kind, hit := evaluate(p, price); hit {
			out = append(out, Trigger{Position: p, Kind: kind, Price: price})
		}
	}
	return out
}

// evaluate applies the side-aware crossing rules. A long is protected from
// below (stop) and harvested from above (target); a short is the mirror
// image. Touching the level exactly counts as a cross.
func evaluate(p ledger.Position, price float64) (ExitKind, bool) {
	px := decimal.NewFromFloat(price)
	short := p.Side == ledger.SideShort

	if p.StopLoss != nil && *p.StopLoss > 0 {
		sl := decimal.NewFromFloat(*p.StopLoss)
		if short {
			if px.GreaterThanOrEqual(sl) {
				return ExitStopLoss, true
			}
		} else if px.LessThanOrEqual(sl) {
			return ExitStopLoss, true
		}
	}
	if p.TakeProfit != nil && *p.TakeProfit > 0 {
		tp := decimal.NewFromFloat(*p.TakeProfit)
		if short {
			if px.LessThanOrEqual(tp) {
				return ExitTakeProfit, true
			}
		} else if px.GreaterThanOrEqual(tp) {
			return ExitTakeProfit, true
		}
	}
	return "", false
}
