package engine

import (
	"fmt"
	"time"

	"vigil/internal/gateway/notifier"
	"vigil/internal/ledger"
	"vigil/internal/logger"
)

func (e *Engine) notifyOpen(strategyName string, pos ledger.Position) {
	lines := []string{
		fmt.Sprintf("Side: %s", pos.Side),
		fmt.Sprintf("Margin: $%.2f at %dx", pos.AmountUSD, pos.Leverage),
		fmt.Sprintf("Entry: %.2f, qty %.6f", pos.EntryPrice, pos.Quantity),
	}
	if pos.StopLoss != nil {
		lines = append(lines, fmt.Sprintf("Stop loss: %.2f", *pos.StopLoss))
	}
	if pos.TakeProfit != nil {
		lines = append(lines, fmt.Sprintf("Take profit: %.2f", *pos.TakeProfit))
	}
	if pos.EntryReason != "" {
		lines = append(lines, "Reason: "+pos.EntryReason)
	}
	e.send(notifier.Message{
		Icon:      "📈",
		Title:     fmt.Sprintf("OPEN %s %s", strategyName, pos.Symbol),
		Lines:     lines,
		Timestamp: time.Now(),
	})
}

func (e *Engine) notifyClose(strategyName string, pos ledger.Position, exitPrice, pnl float64, trigger string) {
	icon := "✅"
	if pnl < 0 {
		icon = "🔻"
	}
	title := fmt.Sprintf("CLOSE %s %s", strategyName, pos.Symbol)
	if trigger != "" {
		title = fmt.Sprintf("AUTO-CLOSE %s %s (%s)", strategyName, pos.Symbol, trigger)
	}
	e.send(notifier.Message{
		Icon:  icon,
		Title: title,
		Lines: []string{
			fmt.Sprintf("Entry: %.2f, exit: %.2f", pos.EntryPrice, exitPrice),
			fmt.Sprintf("PnL: $%.2f", pnl),
		},
		Timestamp: time.Now(),
	})
}

func (e *Engine) send(m notifier.Message) {
	if err := e.notify.SendText(m.Render()); err != nil {
		logger.Warnf("engine: notify: %v", err)
	}
}
