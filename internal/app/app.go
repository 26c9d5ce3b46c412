// Package app assembles the supervisor from configuration: market source,
// execution venue, decision oracle, risk state, ledgers and the engine, then
// drives the aligned scheduler and the read-only API server.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"vigil/internal/config"
	"vigil/internal/engine"
	"vigil/internal/gateway"
	"vigil/internal/gateway/binance"
	"vigil/internal/gateway/notifier"
	"vigil/internal/gateway/oracle"
	"vigil/internal/gateway/paper"
	"vigil/internal/journal"
	"vigil/internal/ledger"
	"vigil/internal/logger"
	"vigil/internal/risk"
	"vigil/internal/scheduler"
	"vigil/internal/strategy"
	apihttp "vigil/internal/transport/http"
)

// schedulerOffset delays each tick past the candle close so the final
// candle of the interval is fully formed before the cycle reads it.
const schedulerOffset = 10 * time.Second

// App owns every long-lived component and their shutdown order.
type App struct {
	cfg    *config.Config
	engine *engine.Engine
	api    *apihttp.Server

	tickInterval time.Duration

	riskStore   *risk.StateStore
	ledgerDB    *ledger.GormStore
	decisionLog *journal.DecisionLog
}

// New builds the full component graph. Callers must invoke Close even when
// Run is never reached.
func New(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	interval, ok := scheduler.ParseIntervalDuration(cfg.App.TickInterval)
	if !ok {
		return nil, fmt.Errorf("app: invalid tick_interval %q", cfg.App.TickInterval)
	}
	a.tickInterval = interval

	source, err := binance.NewSource(binance.Config{
		APIKey:      cfg.Market.APIKey,
		APISecret:   cfg.Market.APISecret,
		RESTBaseURL: cfg.Market.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.Market.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("app: market source: %w", err)
	}

	exchange, err := buildExchange(cfg, source)
	if err != nil {
		return nil, err
	}

	store, err := buildLedger(a, cfg.Ledger)
	if err != nil {
		return nil, err
	}

	state, err := buildRiskState(a, cfg.Risk)
	if err != nil {
		a.Close()
		return nil, err
	}

	registry := strategy.NewRegistry()
	strategy.RegisterBuiltins(registry, cfg.Risk.MaxPositionPct)
	if cfg.Strategy.ProfilesPath != "" {
		if err := strategy.LoadProfileOverrides(registry, cfg.Strategy.ProfilesPath); err != nil {
			a.Close()
			return nil, fmt.Errorf("app: strategy profiles: %w", err)
		}
	}

	decisionLog, tradeLog, err := buildJournals(a, cfg.Journal)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.engine = engine.New(engine.Params{
		Config:      *cfg,
		Exchange:    exchange,
		Source:      source,
		Oracle:      oracle.NewChatClient(cfg.Oracle),
		Registry:    registry,
		Ledger:      store,
		RiskState:   state,
		DecisionLog: decisionLog,
		TradeLog:    tradeLog,
		Notifier:    buildNotifier(cfg.Notify),
	})

	if cfg.App.HTTPAddr != "" {
		api, err := apihttp.NewServer(apihttp.ServerConfig{
			Addr:      cfg.App.HTTPAddr,
			Exchange:  exchange,
			Positions: store,
			Decisions: decisionLog,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: api server: %w", err)
		}
		a.api = api
	}

	return a, nil
}

// Run blocks until ctx is cancelled. The scheduler and the API server share
// the context; either one failing stops the other.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sched := scheduler.NewAlignedScheduler(ctx, a.tickInterval, schedulerOffset)
		sched.RunImmediately = a.cfg.App.RunImmediately
		sched.Start(func() {
			if err := a.engine.RunCycle(ctx); err != nil {
				logger.Errorf("cycle failed: %v", err)
			}
		})
		return nil
	})

	if a.api != nil {
		g.Go(func() error {
			return a.api.Start(ctx)
		})
	}

	return g.Wait()
}

// Close releases the persistent stores. Safe on a partially built App.
func (a *App) Close() {
	if a.decisionLog != nil {
		if err := a.decisionLog.CloseDB(); err != nil {
			logger.Warnf("closing decision log: %v", err)
		}
	}
	if a.ledgerDB != nil {
		if err := a.ledgerDB.CloseDB(); err != nil {
			logger.Warnf("closing ledger: %v", err)
		}
	}
	if a.riskStore != nil {
		if err := a.riskStore.Close(); err != nil {
			logger.Warnf("closing risk state: %v", err)
		}
	}
}

func buildExchange(cfg *config.Config, source *binance.Source) (gateway.Exchange, error) {
	switch cfg.Trading.Mode {
	case config.ModeLive:
		logger.Infof("execution: live venue (%s)", cfg.Trading.Symbol)
		return binance.NewExchange(source), nil
	case config.ModePaper, "":
		logger.Infof("execution: paper wallet (balance=%.2f USD)", cfg.Trading.PaperBalanceUSD)
		return paper.New(source, cfg.Trading.PaperBalanceUSD), nil
	default:
		return nil, fmt.Errorf("app: unknown trading mode %q", cfg.Trading.Mode)
	}
}

func buildLedger(a *App, cfg config.LedgerConfig) (ledger.Store, error) {
	if cfg.Path == "" {
		logger.Warnf("ledger: no path configured, positions will not survive restart")
		return ledger.NewMemoryStore(), nil
	}
	db, err := ledger.NewGormStore(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("app: ledger store: %w", err)
	}
	a.ledgerDB = db
	return db, nil
}

func buildRiskState(a *App, cfg config.RiskConfig) (*risk.State, error) {
	var store *risk.StateStore
	if cfg.StatePath != "" {
		s, err := risk.OpenStateStore(cfg.StatePath)
		if err != nil {
			return nil, fmt.Errorf("app: risk state store: %w", err)
		}
		a.riskStore = s
		store = s
	}
	cooldown := time.Duration(cfg.CooldownMinutes) * time.Minute
	return risk.NewState(cooldown, store), nil
}

func buildJournals(a *App, cfg config.JournalConfig) (*journal.DecisionLog, *journal.TradeLog, error) {
	var decisionLog *journal.DecisionLog
	if cfg.DecisionLogPath != "" {
		dl, err := journal.NewDecisionLog(cfg.DecisionLogPath)
		if err != nil {
			return nil, nil, fmt.Errorf("app: decision log: %w", err)
		}
		a.decisionLog = dl
		decisionLog = dl
	}
	var tradeLog *journal.TradeLog
	if cfg.TradeLogPath != "" {
		tl, err := journal.NewTradeLog(cfg.TradeLogPath)
		if err != nil {
			return nil, nil, fmt.Errorf("app: trade log: %w", err)
		}
		tradeLog = tl
	}
	return decisionLog, tradeLog, nil
}

func buildNotifier(cfg config.NotifyConfig) notifier.TextNotifier {
	if cfg.Telegram.Enabled {
		logger.Infof("notifier: telegram enabled (chat=%s)", cfg.Telegram.ChatID)
		return notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}
	return notifier.Noop{}
}
