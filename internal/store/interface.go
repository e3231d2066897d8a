package store

import (
	"context"

	"krill/internal/store/model"
)

// Store is the entry point for database access.
type Store interface {
	// SaveSignal persists a graded signal (accepted or gate-rejected).
	SaveSignal(ctx context.Context, sig *model.SignalModel) error
	// ListRecentSignals returns the newest signals first.
	ListRecentSignals(ctx context.Context, limit int) ([]model.SignalModel, error)

	// SaveOrder persists an execution attempt chain.
	SaveOrder(ctx context.Context, order *model.OrderModel) error
	// ListRecentOrders returns the newest orders first.
	ListRecentOrders(ctx context.Context, limit int) ([]model.OrderModel, error)

	// SaveAlert persists an alert dispatch record.
	SaveAlert(ctx context.Context, alert *model.AlertModel) error
	// ListRecentAlerts returns the newest alerts first.
	ListRecentAlerts(ctx context.Context, limit int) ([]model.AlertModel, error)

	// RecordTradeOutcome bumps the win/loss counters for a symbol.
	RecordTradeOutcome(ctx context.Context, symbol string, win bool) error
	// SymbolWinRate returns wins/(wins+losses); symbols with no history
	// report 1.0 (non-binding) so the gate does not starve cold starts.
	SymbolWinRate(ctx context.Context, symbol string) (float64, error)

	// Close closes the store connection.
	Close() error
}
