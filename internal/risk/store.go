package risk

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// StateStore persists the cooldown clock in a small sqlite file so a restart
// inside the cooldown window does not reopen trading.
type StateStore struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenStateStore opens or creates the sqlite database at path.
func OpenStateStore(path string) (*StateStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("risk state store path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS risk_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			last_loss_at INTEGER NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, err
	}
	return &StateStore{db: db}, nil
}

// Close closes the underlying database.
func (s *StateStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// LastLoss reads the persisted loss timestamp; zero time when none stored.
func (s *StateStore) LastLoss() (time.Time, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return time.Time{}, fmt.Errorf("risk state store not initialized")
	}
	var millis int64
	err := db.QueryRow(`SELECT last_loss_at FROM risk_state WHERE id = 1`).Scan(&millis)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if millis <= 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(millis), nil
}

// SaveLastLoss durably stores the loss timestamp.
func (s *StateStore) SaveLastLoss(ts time.Time) error {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return fmt.Errorf("risk state store not initialized")
	}
	_, err := db.Exec(`
		INSERT INTO risk_state(id, last_loss_at) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET last_loss_at = excluded.last_loss_at;
	`, ts.UnixMilli())
	return err
}
