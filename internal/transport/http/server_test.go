package apihttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"vigil/internal/contract"
	"vigil/internal/decision"
	"vigil/internal/gateway"
	"vigil/internal/journal"
	"vigil/internal/ledger"
)

type stubExchange struct {
	state    decision.PortfolioState
	stateErr error
}

func (s *stubExchange) Name() string { return "stub" }

func (s *stubExchange) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return 50000, nil
}

func (s *stubExchange) AccountState(ctx context.Context) (decision.PortfolioState, error) {
	return s.state, s.stateErr
}

func (s *stubExchange) SubmitOrder(ctx context.Context, o gateway.Order) (gateway.Fill, error) {
	return gateway.Fill{}, errors.New("read-only stub")
}

func (s *stubExchange) ClosePosition(ctx context.Context, o gateway.CloseOrder) (gateway.Fill, error) {
	return gateway.Fill{}, errors.New("read-only stub")
}

func (s *stubExchange) PlaceProtectiveOrders(ctx context.Context, o gateway.ProtectiveOrders) error {
	return nil
}

func (s *stubExchange) ContractSpec(ctx context.Context, symbol string) (contract.Spec, error) {
	return contract.Spec{}, nil
}

func (s *stubExchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	return nil
}

func newTestServer(t *testing.T, ex *stubExchange, store ledger.Store, log *journal.DecisionLog) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Addr:      ":0",
		Exchange:  ex,
		Positions: store,
		Decisions: log,
	})
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubExchange{}, ledger.NewMemoryStore(), nil)
	for _, path := range []string{"/healthz", "/api/health"} {
		rec := get(t, srv, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String(), path)
	}
}

func TestAccountEndpoint(t *testing.T) {
	ex := &stubExchange{state: decision.PortfolioState{
		Cash:      9500,
		Equity:    10250,
		Positions: map[string]float64{"BTC/USDT": 0.01},
	}}
	srv := newTestServer(t, ex, ledger.NewMemoryStore(), nil)

	rec := get(t, srv, "/api/account")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "stub", gjson.Get(body, "venue").String())
	assert.InDelta(t, 9500.0, gjson.Get(body, "cash").Float(), 1e-9)
	assert.InDelta(t, 10250.0, gjson.Get(body, "equity").Float(), 1e-9)
	assert.InDelta(t, 0.01, gjson.Get(body, "positions.BTC/USDT").Float(), 1e-12)
}

func TestAccountEndpointVenueFailure(t *testing.T) {
	ex := &stubExchange{stateErr: errors.New("venue down")}
	srv := newTestServer(t, ex, ledger.NewMemoryStore(), nil)

	rec := get(t, srv, "/api/account")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, gjson.Get(rec.Body.String(), "error").String(), "venue down")
}

func TestPositionsEndpoint(t *testing.T) {
	store := ledger.NewMemoryStore()
	sl := 48000.0
	require.NoError(t, store.Open(context.Background(), ledger.Position{
		Strategy:   "conservative",
		Symbol:     "BTC/USDT",
		Side:       ledger.SideLong,
		Quantity:   0.1,
		AmountUSD:  250,
		EntryPrice: 50000,
		Leverage:   20,
		StopLoss:   &sl,
		OpenedAt:   time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}))
	srv := newTestServer(t, &stubExchange{}, store, nil)

	rec := get(t, srv, "/api/positions")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, int64(1), gjson.Get(body, "count").Int())
	assert.Equal(t, "conservative", gjson.Get(body, "positions.0.strategy").String())
	assert.Equal(t, "long", gjson.Get(body, "positions.0.side").String())
	assert.InDelta(t, 48000.0, gjson.Get(body, "positions.0.stop_loss").Float(), 1e-9)
	assert.Equal(t, "2026-08-29T12:00:00Z", gjson.Get(body, "positions.0.opened_at").String())
	assert.False(t, gjson.Get(body, "positions.0.take_profit").Exists())
}

func TestPositionsEndpointWithoutLedger(t *testing.T) {
	srv := newTestServer(t, &stubExchange{}, nil, nil)
	rec := get(t, srv, "/api/positions")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDecisionsEndpoint(t *testing.T) {
	log, err := journal.NewDecisionLog(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	defer log.CloseDB()

	ctx := context.Background()
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	require.NoError(t, log.Append(ctx, journal.DecisionRecord{
		TraceID: "t-1", Strategy: "smc", Symbol: "BTC/USDT",
		Action: "buy", Accepted: true, Reason: "ok", CreatedAt: base,
	}))
	require.NoError(t, log.Append(ctx, journal.DecisionRecord{
		TraceID: "t-2", Strategy: "smc", Symbol: "BTC/USDT",
		Action: "hold", Accepted: true, Reason: "ok", CreatedAt: base.Add(time.Minute),
	}))
	srv := newTestServer(t, &stubExchange{}, ledger.NewMemoryStore(), log)

	rec := get(t, srv, "/api/decisions?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, int64(1), gjson.Get(body, "count").Int())
	assert.Equal(t, "t-2", gjson.Get(body, "decisions.0.trace_id").String())
}

func TestDecisionsEndpointWithoutJournal(t *testing.T) {
	srv := newTestServer(t, &stubExchange{}, ledger.NewMemoryStore(), nil)
	rec := get(t, srv, "/api/decisions")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
