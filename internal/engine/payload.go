package engine

import (
	"encoding/json"
	"fmt"

	"vigil/internal/decision"
	"vigil/internal/strategy"
)

// buildUserPrompt assembles the JSON payload handed to the oracle: market
// context (strategy features when the profile computes them, raw summaries
// otherwise), portfolio state and the news digest.
func buildUserPrompt(strat strategy.Strategy, mctx decision.MarketContext, pf decision.PortfolioState, newsText string) (string, error) {
	marketBlock := map[string]any{
		"symbol": mctx.Symbol,
		"price":  mctx.Price,
	}
	if strat.Features != nil {
		if feats := strat.Features(mctx); len(feats) > 0 {
			marketBlock["features"] = feats
		}
	}
	if _, ok := marketBlock["features"]; !ok {
		marketBlock["multi"] = mctx.Timeframes
	}
	if mctx.DesiredNotionalUSD != nil {
		marketBlock["desired_notional_usd"] = *mctx.DesiredNotionalUSD
	}

	payload := map[string]any{
		"market": marketBlock,
		"portfolio": map[string]any{
			"cash":      pf.Cash,
			"equity":    pf.Equity,
			"positions": pf.Positions,
		},
		"news": newsText,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal oracle payload: %w", err)
	}
	return string(raw), nil
}
