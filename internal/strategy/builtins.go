package strategy

import (
	"vigil/internal/decision"
)

// responseSchema is the JSON contract every profile demands from the oracle.
const responseSchema = `Respond with valid JSON: {"action": "BUY"|"SELL"|"HOLD", "symbol": string, "position_pct": number, "amount_usd": number, "stop_loss": number, "take_profit": number|null, "leverage": number, "risk_reward": number, "entry_signal": boolean, "entry_reason": string, "news_analysis": string, "technical_conditions": string, "risk_assessment": string}.`

const conservativePrompt = `You are a conservative crypto trader. ` +
	`1. MARKET DATA: You have 'current' indicators and 'candles' for 15m, 1h, 4h, 1d. ` +
	`2. NEWS ANALYSIS: Read the provided news summaries. If headlines mention 'ban', 'hack', 'SEC lawsuit', or 'insolvency', treat sentiment as NEGATIVE. If headlines mention 'ETF approval', 'institutional adoption', or 'upgrade success', treat as POSITIVE. ` +
	`3. TECHNICAL RULES: ONLY BUY if 4h Trend is UP (price > SMA20) AND 1h Momentum is BULLISH (MACD > 0). Check 'candles' for recent support validation (higher lows). Avoid buying if 1h RSI > 70 (Overbought). ` +
	`4. RISK MANAGEMENT: Max position size after leverage: 50% of equity. Min 10%. If news is NEGATIVE, reduce position size to 0% (HOLD/SELL). If volatility is extremely high (>3% of price), reduce size by half. ` +
	`5. EXECUTION FIELDS: Provide position_pct (fraction of equity after leverage), leverage (20-50), stop_loss, optional take_profit, and risk_reward (>=3). If portfolio.equity and leverage are known, compute amount_usd = equity * position_pct / leverage. ` +
	responseSchema

const aggressivePrompt = `You are an aggressive momentum trader. ` +
	`1. MARKET DATA: You have 'current' indicators and 'candles' for 15m, 1h, 4h, 1d. ` +
	`2. NEWS ANALYSIS: Look for 'hype', 'launches', or 'partnerships'. Ignore minor FUD. ` +
	`3. TECHNICAL RULES: BUY if 15m shows a breakout candle (close > previous high) AND 1h Trend is UP. Check 'candles' for consolidation patterns (flags/pennants) before the breakout. Ignore RSI overbought conditions in strong trends. ` +
	`4. RISK MANAGEMENT: Position after leverage must be between 10% and 50% of equity. Stop Loss required; take_profit preferred when reversal risk rises. ` +
	`5. EXECUTION FIELDS: Provide position_pct, leverage (20-50), stop_loss, optional take_profit, risk_reward (>=3). Compute amount_usd = equity * position_pct / leverage. ` +
	responseSchema

const sizingRules = `Portfolio context is provided in "portfolio.equity" and "portfolio.cash"; use equity for sizing decisions. ` +
	`Rules: The order NOTIONAL after leverage (amount_usd * leverage) must be between 10% and 50% of account equity. NEVER exceed 50%; if your initial sizing would exceed, ADJUST DOWN to comply. Prefer 10-30% for normal conviction, only approach 50% on strong confirmation. ` +
	`Every order must include a stop_loss; take_profit is optional but preferred if you anticipate trend reversal; planned risk_reward must be >= 3; leverage must be between 20 and 50. Ensure amount_usd = equity * position_pct / leverage. `

const smcPrompt = `You are an expert SMC trader. ` +
	`Use provided features: structure, swing points, and FVGs across 15m and 1h. ` +
	sizingRules + responseSchema

const priceActionPrompt = `You are a price action trader. ` +
	`Use recent range levels, breakout state, and trend to decide. ` +
	sizingRules + responseSchema

// RegisterBuiltins installs the stock profiles. maxPositionPct caps the
// sizing fallbacks; pass the policy ceiling.
func RegisterBuiltins(r *Registry, maxPositionPct float64) {
	r.Register("conservative", Strategy{
		Name:         "Conservative",
		Description:  "Low risk multi-timeframe confirmation",
		SystemPrompt: conservativePrompt,
	})
	r.Register("aggressive", Strategy{
		Name:         "Aggressive",
		Description:  "High momentum breakout bias",
		SystemPrompt: aggressivePrompt,
	})
	r.Register("smc", Strategy{
		Name:         "SMC_Price_Action",
		Description:  "Smart Money Concepts strategy",
		SystemPrompt: smcPrompt,
		Features:     smcFeatures,
		Sizing:       smcSizing(maxPositionPct),
	})
	r.Register("price_action", Strategy{
		Name:         "Price_Action",
		Description:  "Price action breakout strategy",
		SystemPrompt: priceActionPrompt,
		Features:     priceActionFeatures,
		Sizing:       priceActionSizing(maxPositionPct),
	})
}

func smcFeatures(mctx decision.MarketContext) map[string]any {
	out := make(map[string]any, 2)
	for _, tf := range []string{"15m", "1h"} {
		s, ok := mctx.Timeframes[tf]
		if !ok {
			continue
		}
		highs, lows := swingPoints(s.Candles, 3)
		out[tf] = map[string]any{
			"structure":   structureOf(highs, lows),
			"swing_highs": highs,
			"swing_lows":  lows,
			"fvgs":        fairValueGaps(s.Candles),
			"current":     s,
		}
	}
	return out
}

// smcSizing scales a 15% base stake by 15m structure, RSI extremes and
// volatility, capped at maxPct of equity.
func smcSizing(maxPct float64) decision.SizingFunc {
	return func(_ decision.TradeDecision, mctx decision.MarketContext, pf decision.PortfolioState) float64 {
		s, ok := mctx.Timeframes["15m"]
		if !ok {
			return -1
		}
		highs, lows := swingPoints(s.Candles, 3)
		adj := 1.0
		switch structureOf(highs, lows) {
		case structureBullish:
			adj += 0.25
		case structureBearish:
			adj -= 0.5
		}
		adj += rsiVolAdjustment(s.RSI, s.Volatility, s.Price)
		pct := clampPct(0.15*adj, maxPct)
		return pf.Equity * pct
	}
}

func priceActionFeatures(mctx decision.MarketContext) map[string]any {
	s, ok := mctx.Timeframes["15m"]
	if !ok || len(s.Candles) == 0 {
		return nil
	}
	// The breakout window excludes the latest candle so the close can be
	// judged against the range it may be escaping.
	prior := s.Candles[:len(s.Candles)-1]
	hi, lo := rangeLevels(prior, 20)
	last := s.Candles[len(s.Candles)-1].Close
	trend := "down"
	if s.Price > s.SMA20 && s.SMA20 > 0 {
		trend = "up"
	}
	return map[string]any{
		"range_high":    hi,
		"range_low":     lo,
		"last_close":    last,
		"breakout_up":   hi > 0 && last > hi,
		"breakout_down": lo > 0 && last < lo,
		"trend":         trend,
	}
}

// priceActionSizing scales a 12% base stake by breakout alignment, RSI
// extremes and volatility, capped at maxPct of equity.
func priceActionSizing(maxPct float64) decision.SizingFunc {
	return func(_ decision.TradeDecision, mctx decision.MarketContext, pf decision.PortfolioState) float64 {
		feats := priceActionFeatures(mctx)
		if feats == nil {
			return -1
		}
		adj := 1.0
		up := feats["breakout_up"].(bool)
		down := feats["breakout_down"].(bool)
		trend := feats["trend"].(string)
		if up && trend == "up" {
			adj += 0.5
		}
		if down && trend == "down" {
			adj += 0.5
		}
		if !up && !down {
			adj -= 0.3
		}
		s := mctx.Timeframes["1h"]
		adj += rsiVolAdjustment(s.RSI, s.Volatility, s.Price)
		pct := clampPct(0.12*adj, maxPct)
		return pf.Equity * pct
	}
}

// rsiVolAdjustment trims stake at RSI extremes and in volatile tape.
func rsiVolAdjustment(rsi, volatility, price float64) float64 {
	adj := 0.0
	if rsi > 70 {
		adj -= 0.3
	}
	if rsi != 0 && rsi < 30 {
		adj -= 0.2
	}
	if price > 0 && volatility/price > 0.03 {
		adj -= 0.5
	}
	return adj
}

func clampPct(pct, maxPct float64) float64 {
	if pct < 0 {
		return 0
	}
	if maxPct > 0 && pct > maxPct {
		return maxPct
	}
	return pct
}
