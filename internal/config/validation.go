package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (t *TradingConfig) validate() error {
	switch t.Mode {
	case ModePaper, ModeLive:
	default:
		return fmt.Errorf("trading.mode must be paper or live, got %q", t.Mode)
	}
	if !strings.Contains(t.Symbol, "/") {
		return fmt.Errorf("trading.symbol must be BASE/QUOTE, got %q", t.Symbol)
	}
	if t.DesiredNotionalUSD < 0 {
		return fmt.Errorf("trading.desired_notional_usd must be >= 0")
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.MinPositionPct >= r.MaxPositionPct {
		return fmt.Errorf("risk.min_position_pct (%.2f) must be < risk.max_position_pct (%.2f)",
			r.MinPositionPct, r.MaxPositionPct)
	}
	if r.MaxPositionPct > 1 {
		return fmt.Errorf("risk.max_position_pct must be <= 1")
	}
	if r.LeverageMin > r.LeverageMax {
		return fmt.Errorf("risk.leverage_min (%d) must be <= risk.leverage_max (%d)",
			r.LeverageMin, r.LeverageMax)
	}
	if r.MinCashBufferPct < 0 || r.MinCashBufferPct >= 1 {
		return fmt.Errorf("risk.min_cash_buffer_pct must be in [0, 1)")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	for _, tf := range m.Timeframes {
		if strings.TrimSpace(tf) == "" {
			return fmt.Errorf("market.timeframes contains an empty entry")
		}
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if strings.TrimSpace(n.Telegram.BotToken) == "" || strings.TrimSpace(n.Telegram.ChatID) == "" {
			return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
		}
	}
	return nil
}
