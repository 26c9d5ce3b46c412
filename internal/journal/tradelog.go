package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"vigil/internal/ledger"
)

// TradeLog appends human-readable trade events to a Markdown file. Each
// event is a heading plus one JSON line so the file stays greppable.
type TradeLog struct {
	mu   sync.Mutex
	path string
}

func NewTradeLog(path string) (*TradeLog, error) {
	if path == "" {
		return nil, fmt.Errorf("journal: trade log path is empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &TradeLog{path: path}, nil
}

// LogOpen records a new entry.
func (t *TradeLog) LogOpen(strategyName string, p ledger.Position) error {
	return t.append(fmt.Sprintf("\n## OPEN %s %s\n", strategyName, p.Symbol), map[string]any{
		"entry": p,
	})
}

// LogClose records a deliberate exit.
func (t *TradeLog) LogClose(strategyName string, p ledger.Position, exitPrice, pnlUSD float64) error {
	return t.append(fmt.Sprintf("\n## CLOSE %s %s\n", strategyName, p.Symbol), map[string]any{
		"entry":      p,
		"exit_price": exitPrice,
		"pnl_usd":    pnlUSD,
	})
}

// LogAutoClose records a protective-exit close.
func (t *TradeLog) LogAutoClose(strategyName string, p ledger.Position, trigger string, exitPrice, pnlUSD float64) error {
	return t.append(fmt.Sprintf("\n## AUTO-CLOSE %s %s\n", strategyName, p.Symbol), map[string]any{
		"entry":      p,
		"trigger":    trigger,
		"exit_price": exitPrice,
		"pnl_usd":    pnlUSD,
	})
}

func (t *TradeLog) append(heading string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(heading); err != nil {
		return err
	}
	_, err = f.Write(append(body, '\n'))
	return err
}
