// Package contract reconciles a desired notional exposure against the
// exchange's discrete lot-size constraints for leveraged instruments.
package contract

import (
	"errors"
	"fmt"

	"vigil/internal/risk"

	"github.com/shopspring/decimal"
)

// ErrMinContractsExceedsCaps reports that satisfying the exchange's contract
// floor would breach the policy position band; no partial order is placed.
var ErrMinContractsExceedsCaps = errors.New("min_contracts_exceeds_caps")

// Spec is the exchange-reported contract geometry for one instrument.
type Spec struct {
	ContractSize float64 // base units per contract
	MinContracts float64 // exchange minimum order, in contracts
	LotStep      float64 // contract count granularity; 0 means no step
}

// Sizing is the reconciled order size.
type Sizing struct {
	AmountUSD   float64 // margin after any upsizing
	PositionPct float64 // post-leverage notional as a fraction of equity
	NotionalUSD float64
	Contracts   float64 // rounded up to the lot step
	Quantity    float64 // base units
	Adjusted    bool    // true when the exchange floor forced an upsize
}

// Reconcile sizes targetNotionalUSD in whole lot steps, upsizing to the
// exchange minimum when necessary. It never rounds down below the exchange
// floor and never silently breaches the policy ceiling.
func Reconcile(targetNotionalUSD, price float64, spec Spec, pol risk.Policy, equity float64, leverage float64) (Sizing, error) {
	if price <= 0 {
		return Sizing{}, fmt.Errorf("contract sizing requires a positive price")
	}
	if spec.ContractSize <= 0 {
		return Sizing{}, fmt.Errorf("contract sizing requires a positive contract size")
	}
	if leverage <= 0 {
		leverage = 1
	}

	notional := decimal.NewFromFloat(targetNotionalUSD)
	priceDec := decimal.NewFromFloat(price)
	sizeDec := decimal.NewFromFloat(spec.ContractSize)

	contracts := notional.Div(priceDec).Div(sizeDec)

	// The floor comparison uses the raw count; lot-step rounding is applied
	// only to the emitted contract count, so a fractional count can never
	// round its way past the exchange minimum.
	minContracts := decimal.NewFromFloat(spec.MinContracts)
	if spec.MinContracts <= 0 || contracts.GreaterThanOrEqual(minContracts) {
		contracts = roundUpToStep(contracts, spec.LotStep)
		return sizingFor(targetNotionalUSD, contracts, spec, price, equity, leverage, false), nil
	}

	// Below the exchange floor: the only legal order is at least
	// min_contracts, so upsize and re-check the policy band.
	minNotional := minContracts.Mul(sizeDec).Mul(priceDec)
	target := decimal.Max(notional, minNotional)
	targetPct := 0.0
	if equity > 0 {
		targetPct, _ = target.Div(decimal.NewFromFloat(equity)).Float64()
	}
	if targetPct < pol.MinPositionPct || targetPct > pol.MaxPositionPct {
		return Sizing{}, fmt.Errorf("exchange floor of %.4f contracts needs %.1f%% of equity: %w",
			spec.MinContracts, targetPct*100, ErrMinContractsExceedsCaps)
	}
	targetF, _ := target.Float64()
	return sizingFor(targetF, roundUpToStep(minContracts, spec.LotStep), spec, price, equity, leverage, true), nil
}

func sizingFor(notionalUSD float64, contracts decimal.Decimal, spec Spec, price, equity, leverage float64, adjusted bool) Sizing {
	contractsF, _ := contracts.Float64()
	qty, _ := contracts.Mul(decimal.NewFromFloat(spec.ContractSize)).Float64()
	pct := 0.0
	if equity > 0 {
		pct = notionalUSD / equity
	}
	return Sizing{
		AmountUSD:   notionalUSD / leverage,
		PositionPct: pct,
		NotionalUSD: notionalUSD,
		Contracts:   contractsF,
		Quantity:    qty,
		Adjusted:    adjusted,
	}
}

// roundUpToStep rounds a contract count up to the next lot step. A zero or
// negative step leaves the count untouched.
func roundUpToStep(contracts decimal.Decimal, step float64) decimal.Decimal {
	if step <= 0 {
		return contracts
	}
	stepDec := decimal.NewFromFloat(step)
	steps := contracts.Div(stepDec)
	if steps.Equal(steps.Floor()) {
		return contracts
	}
	return steps.Ceil().Mul(stepDec)
}
