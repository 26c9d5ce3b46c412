// Package engine runs the supervision cycle: sense the market, consult the
// oracle per strategy, gate the decision, execute, and sweep protective
// exits. One Engine instance owns the whole loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vigil/internal/config"
	"vigil/internal/contract"
	"vigil/internal/decision"
	"vigil/internal/gateway"
	"vigil/internal/gateway/notifier"
	"vigil/internal/gateway/oracle"
	"vigil/internal/journal"
	"vigil/internal/ledger"
	"vigil/internal/logger"
	"vigil/internal/market"
	"vigil/internal/monitor"
	"vigil/internal/news"
	"vigil/internal/risk"
	"vigil/internal/strategy"
)

// Params wires an Engine. Exchange, Source, Oracle, Registry, Ledger and
// RiskState are required; journals, notifier and news are optional.
type Params struct {
	Config   config.Config
	Exchange gateway.Exchange
	Source   market.Source
	Oracle   oracle.Oracle
	Registry *strategy.Registry
	Ledger   ledger.Store

	RiskState *risk.State

	DecisionLog *journal.DecisionLog
	TradeLog    *journal.TradeLog
	Notifier    notifier.TextNotifier
	News        news.Provider
}

type Engine struct {
	cfg      config.Config
	policy   risk.Policy
	gate     risk.Gate
	state    *risk.State
	exchange gateway.Exchange
	source   market.Source
	oracle   oracle.Oracle
	registry *strategy.Registry
	ledger   ledger.Store

	decisionLog *journal.DecisionLog
	tradeLog    *journal.TradeLog
	notify      notifier.TextNotifier
	news        news.Provider
}

func New(p Params) *Engine {
	pol := risk.PolicyFromConfig(p.Config.Risk)
	notify := p.Notifier
	if notify == nil {
		notify = notifier.Noop{}
	}
	newsProvider := p.News
	if newsProvider == nil {
		newsProvider = news.Noop{}
	}
	return &Engine{
		cfg:         p.Config,
		policy:      pol,
		gate:        risk.Gate{Policy: pol, State: p.RiskState},
		state:       p.RiskState,
		exchange:    p.Exchange,
		source:      p.Source,
		oracle:      p.Oracle,
		registry:    p.Registry,
		ledger:      p.Ledger,
		decisionLog: p.DecisionLog,
		tradeLog:    p.TradeLog,
		notify:      notify,
		news:        newsProvider,
	}
}

// RunCycle executes one full tick: every active strategy in order, then the
// protective-exit sweep. Strategies run sequentially because they share one
// account; each execution refreshes the portfolio for the next.
func (e *Engine) RunCycle(ctx context.Context) error {
	traceID := uuid.NewString()
	symbol := e.cfg.Trading.Symbol

	price, err := e.exchange.CurrentPrice(ctx, symbol)
	if err != nil {
		return fmt.Errorf("engine: price %s: %w", symbol, err)
	}
	logger.Infof("[%s] cycle start %s price=%.2f", traceID[:8], symbol, price)

	timeframes := market.BuildContext(ctx, e.source, symbol, e.cfg.Market.Timeframes, e.cfg.Market.CandleLimit)
	newsText := e.fetchNews(ctx, symbol)

	pf, err := e.exchange.AccountState(ctx)
	if err != nil {
		return fmt.Errorf("engine: account state: %w", err)
	}

	for _, key := range e.cfg.Strategy.Active {
		strat, err := e.registry.Get(key)
		if err != nil {
			logger.Errorf("[%s] %v", traceID[:8], err)
			continue
		}
		updated, err := e.runStrategy(ctx, traceID, key, strat, symbol, price, timeframes, pf, newsText)
		if err != nil {
			logger.Errorf("[%s] strategy %s: %v", traceID[:8], key, err)
			continue
		}
		pf = updated
	}

	if err := e.sweepExits(ctx, traceID); err != nil {
		logger.Errorf("[%s] exit sweep: %v", traceID[:8], err)
	}
	return nil
}

// runStrategy runs one strategy's decision path and returns the refreshed
// portfolio when an order executed.
func (e *Engine) runStrategy(
	ctx context.Context,
	traceID, key string,
	strat strategy.Strategy,
	symbol string,
	price float64,
	timeframes map[string]market.Summary,
	pf decision.PortfolioState,
	newsText string,
) (decision.PortfolioState, error) {
	mctx := decision.MarketContext{
		Symbol:     symbol,
		Price:      price,
		Timeframes: timeframes,
	}
	if e.cfg.Trading.DesiredNotionalUSD > 0 {
		desired := e.cfg.Trading.DesiredNotionalUSD
		mctx.DesiredNotionalUSD = &desired
	}

	userPrompt, err := buildUserPrompt(strat, mctx, pf, newsText)
	if err != nil {
		return pf, fmt.Errorf("build prompt: %w", err)
	}
	raw, err := e.oracle.Propose(ctx, key, strat.SystemPrompt, userPrompt)
	if err != nil {
		e.record(ctx, journal.DecisionRecord{
			TraceID: traceID, Strategy: key, Symbol: symbol, Price: price,
			Equity: pf.Equity, Action: decision.ActionHold, Error: err.Error(),
		})
		return pf, fmt.Errorf("oracle: %w", err)
	}

	norm := decision.Normalizer{Sizing: strat.Sizing, DefaultSymbol: symbol}
	d := norm.ParseAndNormalize(raw, mctx, pf)
	risk.ClampToPolicy(&d, e.policy, pf.Equity)
	verdict := e.gate.Validate(d, pf.Equity, pf.Cash)

	rec := recordFor(traceID, key, price, pf.Equity, d, verdict)
	logger.Infof("[%s] %s: %s %s $%.2f lev=%d verdict=%s",
		traceID[:8], key, d.Action, d.Symbol, d.AmountUSD, d.Leverage, verdict.Reason)

	if !verdict.Accepted || d.Action == decision.ActionHold {
		e.record(ctx, rec)
		return pf, nil
	}

	switch d.Action {
	case decision.ActionBuy:
		pf = e.executeBuy(ctx, traceID, key, strat, d, price, pf, &rec)
	case decision.ActionSell:
		pf = e.executeSell(ctx, traceID, key, strat, d, price, pf, &rec)
	}
	e.record(ctx, rec)
	return pf, nil
}

// executeBuy opens a position. The ledger is checked before the venue sees
// the order so a duplicate entry never results in a naked fill.
func (e *Engine) executeBuy(
	ctx context.Context,
	traceID, key string,
	strat strategy.Strategy,
	d decision.TradeDecision,
	price float64,
	pf decision.PortfolioState,
	rec *journal.DecisionRecord,
) decision.PortfolioState {
	ledgerKey := ledger.Key{Strategy: key, Symbol: d.Symbol}
	if _, err := e.ledger.Get(ctx, ledgerKey); err == nil {
		rec.Error = ledger.ErrAlreadyOpen.Error()
		logger.Warnf("[%s] %s already holds %s, skipping entry", traceID[:8], key, d.Symbol)
		return pf
	}

	order := gateway.Order{
		Symbol:    d.Symbol,
		Side:      gateway.SideBuy,
		AmountUSD: d.AmountUSD,
		Leverage:  d.Leverage,
		TraceID:   traceID,
	}
	qty := d.Notional() / price

	if e.cfg.Trading.UsePerp && e.cfg.Trading.Mode == config.ModeLive {
		sizing, err := e.reconcileContracts(ctx, d, price, pf.Equity)
		if err != nil {
			rec.Error = err.Error()
			if errors.Is(err, contract.ErrMinContractsExceedsCaps) {
				logger.Warnf("[%s] %s: %v", traceID[:8], key, err)
			} else {
				logger.Errorf("[%s] %s: contract sizing: %v", traceID[:8], key, err)
			}
			return pf
		}
		if sizing.Adjusted {
			logger.Infof("[%s] %s: upsized to exchange floor, margin $%.2f", traceID[:8], key, sizing.AmountUSD)
		}
		order.AmountUSD = sizing.AmountUSD
		order.Quantity = sizing.Quantity
		qty = sizing.Quantity
		rec.AmountUSD = sizing.AmountUSD
		rec.PositionPct = sizing.PositionPct

		if err := e.exchange.SetLeverage(ctx, d.Symbol, d.Leverage); err != nil {
			logger.Warnf("[%s] %s: %v", traceID[:8], key, err)
		}
	}

	fill, err := e.exchange.SubmitOrder(ctx, order)
	if err != nil {
		rec.Error = err.Error()
		logger.Errorf("[%s] %s: submit failed, nothing recorded: %v", traceID[:8], key, err)
		return pf
	}
	rec.Executed = true
	rec.FillPrice = fill.Price

	if e.cfg.Trading.UsePerp && e.cfg.Trading.Mode == config.ModeLive && (d.StopLoss != nil || d.TakeProfit != nil) {
		// Resting venue-side exits keep the position protected between
		// cycles and across supervisor downtime. The monitor still sweeps,
		// so a placement failure only costs the standing protection.
		err := e.exchange.PlaceProtectiveOrders(ctx, gateway.ProtectiveOrders{
			Symbol:     d.Symbol,
			Side:       gateway.SideBuy,
			Quantity:   qty,
			StopLoss:   d.StopLoss,
			TakeProfit: d.TakeProfit,
			TraceID:    traceID,
		})
		if err != nil {
			logger.Warnf("[%s] %s: protective orders: %v", traceID[:8], key, err)
		}
	}

	pos := ledger.Position{
		Strategy:    key,
		Symbol:      d.Symbol,
		Side:        ledger.SideLong,
		Quantity:    qty,
		AmountUSD:   order.AmountUSD,
		EntryPrice:  fill.Price,
		Leverage:    d.Leverage,
		StopLoss:    d.StopLoss,
		TakeProfit:  d.TakeProfit,
		RiskReward:  d.RiskReward,
		EntryReason: d.EntryReason,
		TraceID:     traceID,
		OpenedAt:    time.Now().UTC(),
	}
	if err := e.ledger.Open(ctx, pos); err != nil {
		rec.Error = err.Error()
		logger.Errorf("[%s] %s: ledger open after fill: %v", traceID[:8], key, err)
	} else if e.tradeLog != nil {
		if err := e.tradeLog.LogOpen(strat.Name, pos); err != nil {
			logger.Warnf("[%s] trade log: %v", traceID[:8], err)
		}
	}
	e.notifyOpen(strat.Name, pos)

	return e.refreshPortfolio(ctx, pf)
}

// executeSell flattens the strategy's open position, or places a plain sell
// when nothing is tracked.
func (e *Engine) executeSell(
	ctx context.Context,
	traceID, key string,
	strat strategy.Strategy,
	d decision.TradeDecision,
	price float64,
	pf decision.PortfolioState,
	rec *journal.DecisionRecord,
) decision.PortfolioState {
	ledgerKey := ledger.Key{Strategy: key, Symbol: d.Symbol}
	pos, err := e.ledger.Get(ctx, ledgerKey)
	if errors.Is(err, ledger.ErrNotFound) {
		// No tracked entry. Sell whatever the wallet holds, capped by the
		// venue; nothing touches the ledger.
		fill, serr := e.exchange.SubmitOrder(ctx, gateway.Order{
			Symbol:    d.Symbol,
			Side:      gateway.SideSell,
			AmountUSD: d.AmountUSD,
			Leverage:  d.Leverage,
			TraceID:   traceID,
		})
		if serr != nil {
			rec.Error = serr.Error()
			logger.Warnf("[%s] %s: sell with no tracked position: %v", traceID[:8], key, serr)
			return pf
		}
		rec.Executed = true
		rec.FillPrice = fill.Price
		return e.refreshPortfolio(ctx, pf)
	}
	if err != nil {
		rec.Error = err.Error()
		return pf
	}

	fill, err := e.exchange.ClosePosition(ctx, gateway.CloseOrder{
		Symbol:   pos.Symbol,
		Side:     gatewaySide(pos.Side),
		Quantity: pos.Quantity,
		TraceID:  traceID,
	})
	if err != nil {
		// The venue still holds the position, so the ledger keeps the entry
		// and a later cycle retries the exit.
		rec.Error = err.Error()
		logger.Errorf("[%s] %s: close failed, entry retained: %v", traceID[:8], key, err)
		return pf
	}
	rec.Executed = true
	rec.FillPrice = fill.Price

	removed, err := e.ledger.Close(ctx, ledgerKey)
	if err != nil {
		logger.Errorf("[%s] %s: ledger close: %v", traceID[:8], key, err)
		removed = pos
	}
	pnl := pnlUSD(removed, fill.Price)
	e.settleExit(strat.Name, removed, fill.Price, pnl, "")
	if e.tradeLog != nil {
		if err := e.tradeLog.LogClose(strat.Name, removed, fill.Price, pnl); err != nil {
			logger.Warnf("[%s] trade log: %v", traceID[:8], err)
		}
	}
	return e.refreshPortfolio(ctx, pf)
}

// sweepExits checks every open position against one price snapshot and
// closes the triggered ones.
func (e *Engine) sweepExits(ctx context.Context, traceID string) error {
	positions, err := e.ledger.All(ctx)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return nil
	}

	prices := make(map[string]float64)
	for _, p := range positions {
		if _, ok := prices[p.Symbol]; ok {
			continue
		}
		price, err := e.exchange.CurrentPrice(ctx, p.Symbol)
		if err != nil {
			logger.Warnf("[%s] sweep: no price for %s: %v", traceID[:8], p.Symbol, err)
			continue
		}
		prices[p.Symbol] = price
	}

	for _, trig := range monitor.Scan(positions, prices) {
		pos := trig.Position
		logger.Infof("[%s] %s triggered for %s/%s at %.2f",
			traceID[:8], trig.Kind, pos.Strategy, pos.Symbol, trig.Price)

		fill, err := e.exchange.ClosePosition(ctx, gateway.CloseOrder{
			Symbol:   pos.Symbol,
			Side:     gatewaySide(pos.Side),
			Quantity: pos.Quantity,
			TraceID:  traceID,
		})
		if err != nil {
			// Entry retained; the next sweep retries against a fresh price.
			logger.Errorf("[%s] sweep: close %s/%s failed, entry retained: %v",
				traceID[:8], pos.Strategy, pos.Symbol, err)
			continue
		}
		if _, err := e.ledger.Close(ctx, pos.Key()); err != nil {
			logger.Errorf("[%s] sweep: ledger close %s/%s: %v", traceID[:8], pos.Strategy, pos.Symbol, err)
		}
		pnl := pnlUSD(pos, fill.Price)
		e.settleExit(pos.Strategy, pos, fill.Price, pnl, string(trig.Kind))
		if e.tradeLog != nil {
			if err := e.tradeLog.LogAutoClose(pos.Strategy, pos, string(trig.Kind), fill.Price, pnl); err != nil {
				logger.Warnf("[%s] trade log: %v", traceID[:8], err)
			}
		}
	}
	return nil
}

// settleExit stamps the cooldown on losing exits and notifies.
func (e *Engine) settleExit(strategyName string, pos ledger.Position, exitPrice, pnl float64, trigger string) {
	if pnl < 0 && e.state != nil {
		e.state.RecordLoss()
		logger.Infof("loss of $%.2f on %s/%s, cooldown armed", -pnl, pos.Strategy, pos.Symbol)
	}
	e.notifyClose(strategyName, pos, exitPrice, pnl, trigger)
}

func (e *Engine) reconcileContracts(ctx context.Context, d decision.TradeDecision, price, equity float64) (contract.Sizing, error) {
	spec, err := e.exchange.ContractSpec(ctx, d.Symbol)
	if err != nil {
		return contract.Sizing{}, err
	}
	if spec.ContractSize <= 0 {
		// Venue without discrete lots: pass the decision through unchanged.
		return contract.Sizing{
			AmountUSD:   d.AmountUSD,
			NotionalUSD: d.Notional(),
			Quantity:    d.Notional() / price,
		}, nil
	}
	return contract.Reconcile(d.Notional(), price, spec, e.policy, equity, d.CalcLeverage())
}

func (e *Engine) refreshPortfolio(ctx context.Context, prev decision.PortfolioState) decision.PortfolioState {
	pf, err := e.exchange.AccountState(ctx)
	if err != nil {
		logger.Warnf("engine: account refresh failed, keeping previous snapshot: %v", err)
		return prev
	}
	return pf
}

func (e *Engine) fetchNews(ctx context.Context, symbol string) string {
	items, err := e.news.Headlines(ctx, symbol+" crypto news", 5)
	if err != nil {
		logger.Warnf("engine: news fetch: %v", err)
	}
	return news.Summarize(items)
}

func (e *Engine) record(ctx context.Context, rec journal.DecisionRecord) {
	if e.decisionLog == nil {
		return
	}
	if err := e.decisionLog.Append(ctx, rec); err != nil {
		logger.Errorf("engine: decision log append: %v", err)
	}
}

func recordFor(traceID, key string, price, equity float64, d decision.TradeDecision, v risk.Verdict) journal.DecisionRecord {
	rec := journal.DecisionRecord{
		TraceID:    traceID,
		Strategy:   key,
		Symbol:     d.Symbol,
		Price:      price,
		Equity:     equity,
		Action:     d.Action,
		AmountUSD:  d.AmountUSD,
		Leverage:   d.Leverage,
		RiskReward: d.RiskReward,
		Accepted:   v.Accepted,
		Reason:     string(v.Reason),
	}
	if d.PositionPct != nil {
		rec.PositionPct = *d.PositionPct
	}
	if d.StopLoss != nil {
		rec.StopLoss = *d.StopLoss
	}
	if d.TakeProfit != nil {
		rec.TakeProfit = *d.TakeProfit
	}
	return rec
}

// pnlUSD is side-aware: longs profit when price rises, shorts when it falls.
func pnlUSD(pos ledger.Position, exitPrice float64) float64 {
	if pos.Side == ledger.SideShort {
		return pos.Quantity * (pos.EntryPrice - exitPrice)
	}
	return pos.Quantity * (exitPrice - pos.EntryPrice)
}

func gatewaySide(ledgerSide string) string {
	if ledgerSide == ledger.SideShort {
		return gateway.SideSell
	}
	return gateway.SideBuy
}
