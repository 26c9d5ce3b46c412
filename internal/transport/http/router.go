package apihttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vigil/internal/gateway"
	"vigil/internal/journal"
	"vigil/internal/ledger"
)

const (
	defaultDecisionLimit = 100
	maxDecisionLimit     = 500
)

type router struct {
	exchange  gateway.Exchange
	positions ledger.Store
	decisions *journal.DecisionLog
}

func newRouter(ex gateway.Exchange, pos ledger.Store, dec *journal.DecisionLog) *router {
	return &router{exchange: ex, positions: pos, decisions: dec}
}

func (r *router) register(group *gin.RouterGroup) {
	group.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "venue": r.exchange.Name()})
	})
	group.GET("/account", r.handleAccount)
	group.GET("/positions", r.handlePositions)
	group.GET("/decisions", r.handleDecisions)
}

func (r *router) handleAccount(c *gin.Context) {
	pf, err := r.exchange.AccountState(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"venue":     r.exchange.Name(),
		"cash":      pf.Cash,
		"equity":    pf.Equity,
		"positions": pf.Positions,
	})
}

type positionView struct {
	Strategy   string   `json:"strategy"`
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	Quantity   float64  `json:"quantity"`
	AmountUSD  float64  `json:"amount_usd"`
	EntryPrice float64  `json:"entry_price"`
	Leverage   int      `json:"leverage"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty"`
	RiskReward float64  `json:"risk_reward,omitempty"`
	TraceID    string   `json:"trace_id,omitempty"`
	OpenedAt   string   `json:"opened_at"`
}

func (r *router) handlePositions(c *gin.Context) {
	if r.positions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "position ledger not enabled"})
		return
	}
	all, err := r.positions.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	views := make([]positionView, 0, len(all))
	for _, p := range all {
		views = append(views, positionView{
			Strategy:   p.Strategy,
			Symbol:     p.Symbol,
			Side:       p.Side,
			Quantity:   p.Quantity,
			AmountUSD:  p.AmountUSD,
			EntryPrice: p.EntryPrice,
			Leverage:   p.Leverage,
			StopLoss:   p.StopLoss,
			TakeProfit: p.TakeProfit,
			RiskReward: p.RiskReward,
			TraceID:    p.TraceID,
			OpenedAt:   p.OpenedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "positions": views})
}

func (r *router) handleDecisions(c *gin.Context) {
	if r.decisions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "decision journal not enabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if limit <= 0 {
		limit = defaultDecisionLimit
	}
	if limit > maxDecisionLimit {
		limit = maxDecisionLimit
	}
	records, err := r.decisions.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "decisions": records})
}
