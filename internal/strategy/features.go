package strategy

import (
	"vigil/internal/market"
)

// Market structure labels derived from swing point sequences.
const (
	structureBullish = "Bullish"
	structureBearish = "Bearish"
	structureNeutral = "Neutral"
)

// fvg is a fair value gap between candle i and candle i-2.
type fvg struct {
	Type   string  `json:"type"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// swingPoints finds fractal highs and lows with n candles on each side and
// keeps the last three of each.
func swingPoints(candles []market.Candle, n int) (highs, lows []float64) {
	for i := n; i < len(candles)-n; i++ {
		hi, lo := candles[i].High, candles[i].Low
		isHigh, isLow := true, true
		for j := i - n; j <= i+n; j++ {
			if candles[j].High > hi {
				isHigh = false
			}
			if candles[j].Low < lo {
				isLow = false
			}
		}
		if isHigh {
			highs = append(highs, hi)
		}
		if isLow {
			lows = append(lows, lo)
		}
	}
	return lastN(highs, 3), lastN(lows, 3)
}

// structureOf labels the swing sequence: higher highs with higher lows is
// bullish, lower highs with lower lows is bearish.
func structureOf(highs, lows []float64) string {
	if len(highs) < 2 || len(lows) < 2 {
		return structureNeutral
	}
	hh := highs[len(highs)-1] > highs[len(highs)-2]
	hl := lows[len(lows)-1] > lows[len(lows)-2]
	lh := highs[len(highs)-1] < highs[len(highs)-2]
	ll := lows[len(lows)-1] < lows[len(lows)-2]
	switch {
	case hh && hl:
		return structureBullish
	case lh && ll:
		return structureBearish
	default:
		return structureNeutral
	}
}

// fairValueGaps returns the last three unfilled three-candle gaps.
func fairValueGaps(candles []market.Candle) []fvg {
	var out []fvg
	for i := 2; i < len(candles); i++ {
		switch {
		case candles[i].Low > candles[i-2].High:
			out = append(out, fvg{Type: "bullish", Top: candles[i].Low, Bottom: candles[i-2].High})
		case candles[i].High < candles[i-2].Low:
			out = append(out, fvg{Type: "bearish", Top: candles[i-2].Low, Bottom: candles[i].High})
		}
	}
	if len(out) > 3 {
		out = out[len(out)-3:]
	}
	return out
}

// rangeLevels returns the high and low of the last n candles.
func rangeLevels(candles []market.Candle, n int) (hi, lo float64) {
	window := candles
	if len(window) > n {
		window = window[len(window)-n:]
	}
	for i, c := range window {
		if i == 0 || c.High > hi {
			hi = c.High
		}
		if i == 0 || c.Low < lo {
			lo = c.Low
		}
	}
	return hi, lo
}

func lastN(v []float64, n int) []float64 {
	if len(v) > n {
		return v[len(v)-n:]
	}
	return v
}
