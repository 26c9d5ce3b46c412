// Package binance adapts Binance USDT-margined futures to the market source
// and execution gateway interfaces.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2/futures"

	"vigil/internal/market"
)

const maxKlineLimit = 1500

// Source implements market.Source and price quoting over the futures REST
// API. Safe for concurrent use.
type Source struct {
	cfg    Config
	client *futures.Client
}

var _ market.Source = (*Source)(nil)

func NewSource(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	client := futures.NewClient(final.APIKey, final.APISecret)
	client.BaseURL = final.RESTBaseURL
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyEnabled && final.RESTProxyURL != "" {
		proxyURL, err := url.Parse(final.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("binance: invalid proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("binance: http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	return &Source{cfg: final, client: client}, nil
}

func (s *Source) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("binance source not initialized")
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	sym := toExchangeSymbol(symbol)
	if sym == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	timeframe = strings.ToLower(strings.TrimSpace(timeframe))
	if timeframe == "" {
		return nil, fmt.Errorf("timeframe is required")
	}
	kls, err := s.client.NewKlinesService().Symbol(sym).Interval(timeframe).Limit(limit).Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	return out, nil
}

// CurrentPrice returns the latest traded price for symbol.
func (s *Source) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if s == nil || s.client == nil {
		return 0, fmt.Errorf("binance source not initialized")
	}
	sym := toExchangeSymbol(symbol)
	if sym == "" {
		return 0, fmt.Errorf("invalid symbol: %s", symbol)
	}
	prices, err := s.client.NewListPricesService().Symbol(sym).Do(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range prices {
		if p != nil && strings.EqualFold(p.Symbol, sym) {
			return parseFloat(p.Price), nil
		}
	}
	return 0, fmt.Errorf("no price for %s", symbol)
}

// toExchangeSymbol converts BTC/USDT to the BTCUSDT form Binance expects.
func toExchangeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.ReplaceAll(s, "/", "")
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}
