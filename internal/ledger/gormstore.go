package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore persists open positions in SQLite via Gorm.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore opens (creating if needed) the position database at path.
func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("ledger: store path is empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&positionModel{}); err != nil {
		return nil, fmt.Errorf("ledger: migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: keep lock contention low while allowing concurrent
	// HTTP reads.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &GormStore{db: db}, nil
}

// CloseDB closes the underlying database connection.
func (s *GormStore) CloseDB() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) Open(ctx context.Context, p Position) error {
	if p.Strategy == "" || p.Symbol == "" {
		return fmt.Errorf("ledger: position needs strategy and symbol")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing positionModel
		err := tx.Where("strategy = ? AND symbol = ?", p.Strategy, p.Symbol).
			First(&existing).Error
		if err == nil {
			return fmt.Errorf("%s/%s: %w", p.Strategy, p.Symbol, ErrAlreadyOpen)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		m := newPositionModel(p)
		return tx.Create(&m).Error
	})
}

func (s *GormStore) Close(ctx context.Context, k Key) (Position, error) {
	return s.remove(ctx, k)
}

func (s *GormStore) Get(ctx context.Context, k Key) (Position, error) {
	var m positionModel
	err := s.db.WithContext(ctx).
		Where("strategy = ? AND symbol = ?", k.Strategy, k.Symbol).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Position{}, fmt.Errorf("%s/%s: %w", k.Strategy, k.Symbol, ErrNotFound)
	}
	if err != nil {
		return Position{}, err
	}
	return m.toPosition(), nil
}

func (s *GormStore) All(ctx context.Context) ([]Position, error) {
	var models []positionModel
	if err := s.db.WithContext(ctx).Order("opened_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]Position, 0, len(models))
	for _, m := range models {
		out = append(out, m.toPosition())
	}
	return out, nil
}

func (s *GormStore) remove(ctx context.Context, k Key) (Position, error) {
	var removed Position
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m positionModel
		err := tx.Where("strategy = ? AND symbol = ?", k.Strategy, k.Symbol).
			First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%s/%s: %w", k.Strategy, k.Symbol, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&positionModel{}, m.ID).Error; err != nil {
			return err
		}
		removed = m.toPosition()
		return nil
	})
	return removed, err
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
