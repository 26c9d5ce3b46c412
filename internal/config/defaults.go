package config

const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppHTTPAddr      = ":9984"
	defaultAppTickInterval  = "5m"
	defaultTradingMode      = "paper"
	defaultTradingSymbol    = "BTC/USDT"
	defaultPaperBalance     = 10000
	defaultMarketREST       = "https://fapi.binance.com"
	defaultMarketLimit      = 200
	defaultMarketTimeout    = 20
	defaultOracleURL        = "https://api.deepseek.com/v1"
	defaultOracleModel      = "deepseek-chat"
	defaultOracleTimeout    = 60
	defaultOracleRetries    = 2
	defaultRiskMinPct       = 0.10
	defaultRiskMaxPct       = 0.50
	defaultRiskDrawdownPct  = 0.05
	defaultRiskCooldownMin  = 15
	defaultRiskCashBuffer   = 0.20
	defaultRiskLeverageMin  = 20
	defaultRiskLeverageMax  = 50
	defaultRiskMinRR        = 3
	defaultLedgerPath       = "data/open_positions.db"
	defaultDecisionLogPath  = "data/decisions.db"
	defaultTradeLogPath     = "data/trade_journal.md"
	defaultStrategyProfile  = "conservative"
)

var defaultMarketTimeframes = []string{"15m", "1h", "4h", "1d"}

func (c *Config) applyDefaults() {
	c.App.applyDefaults()
	c.Trading.applyDefaults()
	c.Risk.applyDefaults()
	c.Market.applyDefaults()
	c.Oracle.applyDefaults()
	c.Ledger.applyDefaults()
	c.Journal.applyDefaults()
	c.Strategy.applyDefaults()
}

func (a *AppConfig) applyDefaults() {
	if a.Env == "" {
		a.Env = defaultAppEnv
	}
	if a.LogLevel == "" {
		a.LogLevel = defaultAppLogLevel
	}
	if a.HTTPAddr == "" {
		a.HTTPAddr = defaultAppHTTPAddr
	}
	if a.TickInterval == "" {
		a.TickInterval = defaultAppTickInterval
	}
}

func (t *TradingConfig) applyDefaults() {
	if t.Mode == "" {
		t.Mode = defaultTradingMode
	}
	if t.Symbol == "" {
		t.Symbol = defaultTradingSymbol
	}
	if t.PaperBalanceUSD <= 0 {
		t.PaperBalanceUSD = defaultPaperBalance
	}
}

func (r *RiskConfig) applyDefaults() {
	if r.MinPositionPct <= 0 {
		r.MinPositionPct = defaultRiskMinPct
	}
	if r.MaxPositionPct <= 0 {
		r.MaxPositionPct = defaultRiskMaxPct
	}
	if r.MaxDailyDrawdownPct <= 0 {
		r.MaxDailyDrawdownPct = defaultRiskDrawdownPct
	}
	if r.CooldownMinutes <= 0 {
		r.CooldownMinutes = defaultRiskCooldownMin
	}
	if r.MinCashBufferPct <= 0 {
		r.MinCashBufferPct = defaultRiskCashBuffer
	}
	if r.LeverageMin <= 0 {
		r.LeverageMin = defaultRiskLeverageMin
	}
	if r.LeverageMax <= 0 {
		r.LeverageMax = defaultRiskLeverageMax
	}
	if r.MinRiskReward <= 0 {
		r.MinRiskReward = defaultRiskMinRR
	}
}

func (m *MarketConfig) applyDefaults() {
	if m.RESTBaseURL == "" {
		m.RESTBaseURL = defaultMarketREST
	}
	if len(m.Timeframes) == 0 {
		m.Timeframes = append([]string(nil), defaultMarketTimeframes...)
	}
	if m.CandleLimit <= 0 {
		m.CandleLimit = defaultMarketLimit
	}
	if m.TimeoutSeconds <= 0 {
		m.TimeoutSeconds = defaultMarketTimeout
	}
}

func (o *OracleConfig) applyDefaults() {
	if o.APIURL == "" {
		o.APIURL = defaultOracleURL
	}
	if o.Model == "" {
		o.Model = defaultOracleModel
	}
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = defaultOracleTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultOracleRetries
	}
}

func (l *LedgerConfig) applyDefaults() {
	if l.Path == "" {
		l.Path = defaultLedgerPath
	}
}

func (j *JournalConfig) applyDefaults() {
	if j.DecisionLogPath == "" {
		j.DecisionLogPath = defaultDecisionLogPath
	}
	if j.TradeLogPath == "" {
		j.TradeLogPath = defaultTradeLogPath
	}
}

func (s *StrategyConfig) applyDefaults() {
	if len(s.Active) == 0 {
		s.Active = []string{defaultStrategyProfile}
	}
}
