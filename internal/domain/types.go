// Package domain defines the brokerage-neutral data model shared by the
// broker adapters, the trading desk and the HTTP API.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// ParseOrderSide converts user input ("buy", "SELL", ...) to an OrderSide.
func ParseOrderSide(s string) (OrderSide, error) {
	switch OrderSide(strings.ToLower(strings.TrimSpace(s))) {
	case OrderSideBuy:
		return OrderSideBuy, nil
	case OrderSideSell:
		return OrderSideSell, nil
	default:
		return "", fmt.Errorf("unknown order side %q", s)
	}
}

// Opposite returns the other side.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// OrderStatus is the lifecycle state reported by the brokerage. Transitions
// happen server-side; nothing in this module moves an order between states
// except the simulator's cancel.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "new"
	OrderStatusAccepted        OrderStatus = "accepted"
	OrderStatusPendingNew      OrderStatus = "pending_new"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "canceled"
	OrderStatusExpired         OrderStatus = "expired"
	OrderStatusRejected        OrderStatus = "rejected"
	OrderStatusDoneForDay      OrderStatus = "done_for_day"
	OrderStatusReplaced        OrderStatus = "replaced"
)

// IsOpen reports whether an order in this status can still fill or be
// cancelled.
func (s OrderStatus) IsOpen() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusExpired,
		OrderStatusRejected, OrderStatusDoneForDay, OrderStatusReplaced:
		return false
	default:
		return true
	}
}

// AccountSummary is a point-in-time view of the account. It is fetched fresh
// on every query and never mutated locally.
type AccountSummary struct {
	Cash        decimal.Decimal `json:"cash"`
	BuyingPower decimal.Decimal `json:"buying_power"`
	Equity      decimal.Decimal `json:"equity"`
}

// Position is a holding in one instrument. Qty may be fractional.
type Position struct {
	Symbol          string          `json:"symbol"`
	Qty             decimal.Decimal `json:"qty"`
	MarketValue     decimal.Decimal `json:"market_value"`
	UnrealizedPLPct decimal.Decimal `json:"unrealized_pl_pct"` // fraction, 0.05 = 5%
}

// Order is a brokerage order. Notional is set only for dollar-denominated
// orders; when present it, not Qty times price, is the order's value.
type Order struct {
	ID             string           `json:"id"`
	Symbol         string           `json:"symbol"`
	Side           OrderSide        `json:"side"`
	Qty            decimal.Decimal  `json:"qty"`
	Notional       *decimal.Decimal `json:"notional,omitempty"`
	Status         OrderStatus      `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	FilledAt       *time.Time       `json:"filled_at,omitempty"`
	FilledAvgPrice *decimal.Decimal `json:"filled_avg_price,omitempty"`
}

// IsOpen reports whether the order is still pending.
func (o *Order) IsOpen() bool {
	return o.Status.IsOpen()
}

// Asset is read-only reference data for a listed instrument.
type Asset struct {
	Symbol   string `json:"symbol"`
	Tradable bool   `json:"tradable"`
}
