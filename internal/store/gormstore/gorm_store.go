package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	storemodel "krill/internal/store/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// GormStore implements signal/order/alert persistence using Gorm + SQLite.
// DriverName 指向 modernc 纯 Go 驱动，部署时不需要 cgo。
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: 数据库路径不能为空")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	models := []interface{}{
		&storemodel.SignalModel{},
		&storemodel.OrderModel{},
		&storemodel.AlertModel{},
		&storemodel.SymbolStatModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a small amount of parallelism for concurrent HTTP reads
	// while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &GormStore{db: db}, nil
}

func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ----------------------------- Signals ------------------------------

func (s *GormStore) SaveSignal(ctx context.Context, sig *storemodel.SignalModel) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store 未初始化")
	}
	if sig == nil {
		return fmt.Errorf("signal 不能为空")
	}
	if sig.CreatedAtUnix <= 0 {
		sig.CreatedAtUnix = time.Now().UnixMilli()
	}
	sig.Symbol = strings.ToUpper(strings.TrimSpace(sig.Symbol))
	return s.db.WithContext(ctx).Create(sig).Error
}

func (s *GormStore) ListRecentSignals(ctx context.Context, limit int) ([]storemodel.SignalModel, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store 未初始化")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []storemodel.SignalModel
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ------------------------------ Orders ------------------------------

func (s *GormStore) SaveOrder(ctx context.Context, order *storemodel.OrderModel) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store 未初始化")
	}
	if order == nil {
		return fmt.Errorf("order 不能为空")
	}
	if order.CreatedAtUnix <= 0 {
		order.CreatedAtUnix = time.Now().UnixMilli()
	}
	order.Symbol = strings.ToUpper(strings.TrimSpace(order.Symbol))
	return s.db.WithContext(ctx).Create(order).Error
}

func (s *GormStore) ListRecentOrders(ctx context.Context, limit int) ([]storemodel.OrderModel, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store 未初始化")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []storemodel.OrderModel
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ------------------------------ Alerts ------------------------------

func (s *GormStore) SaveAlert(ctx context.Context, alert *storemodel.AlertModel) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store 未初始化")
	}
	if alert == nil {
		return fmt.Errorf("alert 不能为空")
	}
	if alert.CreatedAtUnix <= 0 {
		alert.CreatedAtUnix = time.Now().UnixMilli()
	}
	return s.db.WithContext(ctx).Create(alert).Error
}

func (s *GormStore) ListRecentAlerts(ctx context.Context, limit int) ([]storemodel.AlertModel, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store 未初始化")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []storemodel.AlertModel
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// --------------------------- Symbol Stats ---------------------------

func (s *GormStore) RecordTradeOutcome(ctx context.Context, symbol string, win bool) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store 未初始化")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("symbol 必填")
	}
	now := time.Now().UnixMilli()
	rec := storemodel.SymbolStatModel{Symbol: symbol, UpdatedAtUnix: now}
	winExpr := "symbol_stats.wins"
	lossExpr := "symbol_stats.losses"
	if win {
		rec.Wins = 1
		winExpr += " + 1"
	} else {
		rec.Losses = 1
		lossExpr += " + 1"
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"wins":       gorm.Expr(winExpr),
				"losses":     gorm.Expr(lossExpr),
				"updated_at": now,
			}),
		}).
		Create(&rec).Error
}

func (s *GormStore) SymbolWinRate(ctx context.Context, symbol string) (float64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("gorm store 未初始化")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var rec storemodel.SymbolStatModel
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 无历史不设限，冷启动 symbol 不被胜率门槛拒绝
			return 1.0, nil
		}
		return 0, err
	}
	total := rec.Wins + rec.Losses
	if total == 0 {
		return 1.0, nil
	}
	return float64(rec.Wins) / float64(total), nil
}

func ensureDir(path string) error {
	dir := filepathDir(path)
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func filepathDir(path string) string {
	last := strings.LastIndex(path, "/")
	if last == -1 {
		last = strings.LastIndex(path, "\\")
	}
	if last == -1 {
		return ""
	}
	return path[:last]
}
