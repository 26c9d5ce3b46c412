package market

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"vigil/internal/logger"

	talib "github.com/markcheno/go-talib"
	"golang.org/x/sync/errgroup"
)

// Source feeds historical candles for one symbol/timeframe.
type Source interface {
	FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error)
}

// Summary condenses one timeframe into the indicator snapshot the decision
// source reasons over.
type Summary struct {
	Price      float64  `json:"price"`
	SMA20      float64  `json:"sma20"`
	RSI        float64  `json:"rsi"`
	MACD       float64  `json:"macd"`
	Trend      string   `json:"trend"`    // "up" | "down"
	Momentum   string   `json:"momentum"` // "bullish" | "bearish"
	Volatility float64  `json:"volatility"`
	HighWindow float64  `json:"high_window"`
	LowWindow  float64  `json:"low_window"`
	Candles    []Candle `json:"candles"`
}

const (
	smaPeriod = 20
	rsiPeriod = 14
	// MACD(12,26,9) needs this many bars before the last value is defined.
	minIndicatorBars = 35
)

// BuildContext fetches candles for every timeframe concurrently and
// summarizes each one. A timeframe that fails to fetch is skipped with a
// warning; the caller gets whatever subset succeeded.
func BuildContext(ctx context.Context, src Source, symbol string, timeframes []string, limit int) map[string]Summary {
	var (
		mu  sync.Mutex
		out = make(map[string]Summary, len(timeframes))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, tf := range timeframes {
		tf := strings.ToLower(strings.TrimSpace(tf))
		if tf == "" {
			continue
		}
		g.Go(func() error {
			candles, err := src.FetchCandles(gctx, symbol, tf, limit)
			if err != nil {
				logger.Warnf("market: fetch %s %s failed: %v", symbol, tf, err)
				return nil
			}
			if len(candles) == 0 {
				return nil
			}
			summary := Summarize(candles)
			mu.Lock()
			out[tf] = summary
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Summarize computes the indicator snapshot for one candle window.
func Summarize(candles []Candle) Summary {
	if len(candles) == 0 {
		return Summary{}
	}
	closes := make([]float64, len(candles))
	high := math.Inf(-1)
	low := math.Inf(1)
	for i, c := range candles {
		closes[i] = c.Close
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	last := closes[len(closes)-1]
	s := Summary{
		Price:      last,
		SMA20:      last,
		RSI:        50,
		HighWindow: high,
		LowWindow:  low,
		Volatility: stddev(closes),
		Candles:    candles,
	}
	if len(closes) >= minIndicatorBars {
		sma := talib.Sma(closes, smaPeriod)
		rsi := talib.Rsi(closes, rsiPeriod)
		macd, _, _ := talib.Macd(closes, 12, 26, 9)
		s.SMA20 = lastFinite(sma, last)
		s.RSI = lastFinite(rsi, 50)
		s.MACD = lastFinite(macd, 0)
	}
	if last > s.SMA20 {
		s.Trend = "up"
	} else {
		s.Trend = "down"
	}
	if s.MACD > 0 {
		s.Momentum = "bullish"
	} else {
		s.Momentum = "bearish"
	}
	return s
}

// Describe renders the summary for prompt embedding.
func (s Summary) Describe(timeframe string) string {
	return fmt.Sprintf("[%s] price=%.2f sma20=%.2f rsi=%.1f macd=%.4f trend=%s momentum=%s volatility=%.2f high=%.2f low=%.2f",
		timeframe, s.Price, s.SMA20, s.RSI, s.MACD, s.Trend, s.Momentum, s.Volatility, s.HighWindow, s.LowWindow)
}

func lastFinite(vals []float64, fallback float64) float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if !math.IsNaN(vals[i]) && !math.IsInf(vals[i], 0) {
			return vals[i]
		}
	}
	return fallback
}

func stddev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}
