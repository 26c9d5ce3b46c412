// Package journal records what the supervisor decided and what it did: a
// SQLite decision log for queries and a Markdown trade journal for humans.
package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DecisionRecord is one cycle's outcome for one strategy.
type DecisionRecord struct {
	TraceID  string  `json:"trace_id"`
	Strategy string  `json:"strategy"`
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Equity   float64 `json:"equity"`

	Action      string  `json:"action"`
	AmountUSD   float64 `json:"amount_usd"`
	Leverage    int     `json:"leverage"`
	PositionPct float64 `json:"position_pct"`
	StopLoss    float64 `json:"stop_loss"`
	TakeProfit  float64 `json:"take_profit"`
	RiskReward  float64 `json:"risk_reward"`

	Accepted  bool    `json:"accepted"`
	Reason    string  `json:"reason"` // risk gate reason code
	Executed  bool    `json:"executed"`
	FillPrice float64 `json:"fill_price"`
	Error     string  `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type decisionModel struct {
	ID          int64   `gorm:"column:id;primaryKey"`
	TraceID     string  `gorm:"column:trace_id;index"`
	Strategy    string  `gorm:"column:strategy;index"`
	Symbol      string  `gorm:"column:symbol"`
	Price       float64 `gorm:"column:price"`
	Equity      float64 `gorm:"column:equity"`
	Action      string  `gorm:"column:action"`
	AmountUSD   float64 `gorm:"column:amount_usd"`
	Leverage    int     `gorm:"column:leverage"`
	PositionPct float64 `gorm:"column:position_pct"`
	StopLoss    float64 `gorm:"column:stop_loss"`
	TakeProfit  float64 `gorm:"column:take_profit"`
	RiskReward  float64 `gorm:"column:risk_reward"`
	Accepted    bool    `gorm:"column:accepted"`
	Reason      string  `gorm:"column:reason"`
	Executed    bool    `gorm:"column:executed"`
	FillPrice   float64 `gorm:"column:fill_price"`
	Error       string  `gorm:"column:error"`
	CreatedAtMs int64   `gorm:"column:created_at;index"`
}

func (decisionModel) TableName() string { return "decisions" }

// DecisionLog stores decision records in SQLite.
type DecisionLog struct {
	db *gorm.DB
}

func NewDecisionLog(path string) (*DecisionLog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("journal: decision log path is empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&decisionModel{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &DecisionLog{db: db}, nil
}

func (l *DecisionLog) CloseDB() error {
	if l == nil || l.db == nil {
		return nil
	}
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append writes one record. CreatedAt defaults to now.
func (l *DecisionLog) Append(ctx context.Context, rec DecisionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m := decisionModel{
		TraceID:     rec.TraceID,
		Strategy:    rec.Strategy,
		Symbol:      rec.Symbol,
		Price:       rec.Price,
		Equity:      rec.Equity,
		Action:      rec.Action,
		AmountUSD:   rec.AmountUSD,
		Leverage:    rec.Leverage,
		PositionPct: rec.PositionPct,
		StopLoss:    rec.StopLoss,
		TakeProfit:  rec.TakeProfit,
		RiskReward:  rec.RiskReward,
		Accepted:    rec.Accepted,
		Reason:      rec.Reason,
		Executed:    rec.Executed,
		FillPrice:   rec.FillPrice,
		Error:       rec.Error,
		CreatedAtMs: rec.CreatedAt.UnixMilli(),
	}
	return l.db.WithContext(ctx).Create(&m).Error
}

// Recent returns up to limit records, newest first.
func (l *DecisionLog) Recent(ctx context.Context, limit int) ([]DecisionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var models []decisionModel
	if err := l.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]DecisionRecord, 0, len(models))
	for _, m := range models {
		out = append(out, DecisionRecord{
			TraceID:     m.TraceID,
			Strategy:    m.Strategy,
			Symbol:      m.Symbol,
			Price:       m.Price,
			Equity:      m.Equity,
			Action:      m.Action,
			AmountUSD:   m.AmountUSD,
			Leverage:    m.Leverage,
			PositionPct: m.PositionPct,
			StopLoss:    m.StopLoss,
			TakeProfit:  m.TakeProfit,
			RiskReward:  m.RiskReward,
			Accepted:    m.Accepted,
			Reason:      m.Reason,
			Executed:    m.Executed,
			FillPrice:   m.FillPrice,
			Error:       m.Error,
			CreatedAt:   time.UnixMilli(m.CreatedAtMs).UTC(),
		})
	}
	return out, nil
}
