package ledger

import "time"

type positionModel struct {
	ID          int64    `gorm:"column:id;primaryKey"`
	Strategy    string   `gorm:"column:strategy;uniqueIndex:idx_open_position,priority:1"`
	Symbol      string   `gorm:"column:symbol;uniqueIndex:idx_open_position,priority:2"`
	Side        string   `gorm:"column:side"`
	Quantity    float64  `gorm:"column:quantity"`
	AmountUSD   float64  `gorm:"column:amount_usd"`
	EntryPrice  float64  `gorm:"column:entry_price"`
	Leverage    int      `gorm:"column:leverage"`
	StopLoss    *float64 `gorm:"column:stop_loss"`
	TakeProfit  *float64 `gorm:"column:take_profit"`
	RiskReward  float64  `gorm:"column:risk_reward"`
	EntryReason string   `gorm:"column:entry_reason"`
	TraceID     string   `gorm:"column:trace_id"`
	OpenedAtMs  int64    `gorm:"column:opened_at"`
}

func (positionModel) TableName() string { return "open_positions" }

func newPositionModel(p Position) positionModel {
	return positionModel{
		Strategy:    p.Strategy,
		Symbol:      p.Symbol,
		Side:        p.Side,
		Quantity:    p.Quantity,
		AmountUSD:   p.AmountUSD,
		EntryPrice:  p.EntryPrice,
		Leverage:    p.Leverage,
		StopLoss:    p.StopLoss,
		TakeProfit:  p.TakeProfit,
		RiskReward:  p.RiskReward,
		EntryReason: p.EntryReason,
		TraceID:     p.TraceID,
		OpenedAtMs:  p.OpenedAt.UnixMilli(),
	}
}

func (m positionModel) toPosition() Position {
	return Position{
		Strategy:    m.Strategy,
		Symbol:      m.Symbol,
		Side:        m.Side,
		Quantity:    m.Quantity,
		AmountUSD:   m.AmountUSD,
		EntryPrice:  m.EntryPrice,
		Leverage:    m.Leverage,
		StopLoss:    m.StopLoss,
		TakeProfit:  m.TakeProfit,
		RiskReward:  m.RiskReward,
		EntryReason: m.EntryReason,
		TraceID:     m.TraceID,
		OpenedAt:    time.UnixMilli(m.OpenedAtMs).UTC(),
	}
}
