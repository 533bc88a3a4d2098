// Package broker defines the Broker interface and provides implementations
// for querying accounts and managing orders across different brokerages.
package broker

import (
	"context"

	"github.com/shopspring/decimal"

	"traderpro/internal/domain"
)

const (
	// HistoryLimit caps OrdersHistory results.
	HistoryLimit = 500
	// PendingLimit caps PendingOrders results.
	PendingLimit = 100
)

// Broker abstracts the brokerage operations consumed by the dashboard. Every
// method is mandatory; an implementation that genuinely lacks a capability
// returns ErrCapabilityUnsupported rather than an empty result.
type Broker interface {
	// Name returns the broker identifier (e.g. "alpaca", "simulator").
	Name() string

	// Balance returns the current cash balance. A failure means the balance
	// is unknown, not zero.
	Balance(ctx context.Context) (decimal.Decimal, error)

	// AccountSummary returns cash, buying power and equity.
	AccountSummary(ctx context.Context) (*domain.AccountSummary, error)

	// PlaceOrder submits a day market order. Rejections are returned as a
	// *RejectionError carrying the brokerage's text verbatim.
	PlaceOrder(ctx context.Context, symbol string, qty decimal.Decimal, side domain.OrderSide) (*domain.Order, error)

	// Positions returns all holdings; an empty portfolio is an empty slice.
	Positions(ctx context.Context) ([]domain.Position, error)

	// PositionQty returns the quantity held for symbol, or zero when there
	// is no open position.
	PositionQty(ctx context.Context, symbol string) (decimal.Decimal, error)

	// Price returns the latest trade price for symbol.
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)

	// OrdersHistory returns up to HistoryLimit orders of any status.
	// Ordering is brokerage-defined.
	OrdersHistory(ctx context.Context) ([]domain.Order, error)

	// PendingOrders returns up to PendingLimit open orders.
	PendingOrders(ctx context.Context) ([]domain.Order, error)

	// CancelOrder requests cancellation of an open order by its ID.
	CancelOrder(ctx context.Context, orderID string) error

	// Assets returns the symbols of all active, tradable instruments.
	Assets(ctx context.Context) ([]string, error)
}
