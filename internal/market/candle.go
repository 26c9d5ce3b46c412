// Package market builds the per-timeframe context handed to the decision
// source: raw candles plus a compact indicator summary per timeframe.
package market

import "time"

// Candle is one OHLCV bar. OpenTime/CloseTime are unix milliseconds.
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// OpenedAt returns the bar open time as a time.Time.
func (c Candle) OpenedAt() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}
