package config

// Trading modes.
const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Config is the top-level configuration carrier for vigil.
type Config struct {
	App      AppConfig      `toml:"app"`
	Trading  TradingConfig  `toml:"trading"`
	Risk     RiskConfig     `toml:"risk"`
	Market   MarketConfig   `toml:"market"`
	Oracle   OracleConfig   `toml:"oracle"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Journal  JournalConfig  `toml:"journal"`
	Notify   NotifyConfig   `toml:"notify"`
	Strategy StrategyConfig `toml:"strategy"`
}

type AppConfig struct {
	Env            string `toml:"env"`
	LogLevel       string `toml:"log_level"`
	LogPath        string `toml:"log_path"`
	HTTPAddr       string `toml:"http_addr"`
	OracleLogPath  string `toml:"oracle_log_path"`
	OracleDump     bool   `toml:"oracle_dump_payload"`
	TickInterval   string `toml:"tick_interval"`
	RunImmediately bool   `toml:"run_immediately"`
}

// TradingConfig selects the execution backend and instrument style.
type TradingConfig struct {
	Mode               string  `toml:"mode"` // "paper" | "live"
	Symbol             string  `toml:"symbol"`
	UsePerp            bool    `toml:"use_perp"`
	DesiredNotionalUSD float64 `toml:"desired_notional_usd"` // >0 forces exact sizing
	PaperBalanceUSD    float64 `toml:"paper_balance_usd"`
}

// RiskConfig carries the hard limits enforced by the risk gate.
// Loaded once at startup; never mutated afterwards.
type RiskConfig struct {
	MinPositionPct      float64 `toml:"min_position_pct"`
	MaxPositionPct      float64 `toml:"max_position_pct"`
	MaxDailyDrawdownPct float64 `toml:"max_daily_drawdown_pct"`
	CooldownMinutes     int     `toml:"cooldown_minutes"`
	MinCashBufferPct    float64 `toml:"min_cash_buffer_pct"`
	LeverageMin         int     `toml:"leverage_min"`
	LeverageMax         int     `toml:"leverage_max"`
	MinRiskReward       float64 `toml:"min_risk_reward"`
	StatePath           string  `toml:"state_path"` // sqlite file for cooldown state
}

type MarketConfig struct {
	RESTBaseURL    string   `toml:"rest_base_url"`
	APIKey         string   `toml:"api_key"`
	APISecret      string   `toml:"api_secret"`
	Timeframes     []string `toml:"timeframes"`
	CandleLimit    int      `toml:"candle_limit"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// OracleConfig describes the external decision source (an OpenAI-compatible
// chat completion endpoint).
type OracleConfig struct {
	APIURL         string `toml:"api_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
}

type LedgerConfig struct {
	Path string `toml:"path"` // sqlite file; empty selects the in-memory store
}

type JournalConfig struct {
	DecisionLogPath string `toml:"decision_log_path"` // sqlite file
	TradeLogPath    string `toml:"trade_log_path"`    // markdown append file
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type StrategyConfig struct {
	Active       []string `toml:"active"`
	ProfilesPath string   `toml:"profiles_path"` // optional YAML overrides
}
