// Package trading turns raw broker calls into the dashboard's views: the
// order ticket with its pre-trade checks, the holdings table, filled-trade
// history, the account summary and the cached symbol list.
package trading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"traderpro/internal/broker"
	"traderpro/internal/domain"
)

// Pre-trade rule violations. Each is wrapped together with ErrInvalidOrder,
// so callers can match the family or the specific rule.
var (
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInvalidQty        = errors.New("quantity must be positive")
	ErrPendingConflict   = errors.New("opposite-side order pending")
	ErrNotHeld           = errors.New("no position to sell")
	ErrExceedsPosition   = errors.New("quantity exceeds position")
	ErrInsufficientFunds = errors.New("insufficient available funds")
)

func violation(rule error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrInvalidOrder, rule, fmt.Sprintf(format, args...))
}

// OrderRequest is what the order form submits. With SellAll set on a sell,
// Qty is ignored and the whole position is sold.
type OrderRequest struct {
	Symbol  string
	Side    domain.OrderSide
	Qty     decimal.Decimal
	SellAll bool
}

// Ticket is a priced, checked order that has not been sent yet.
type Ticket struct {
	Symbol string
	Side   domain.OrderSide
	Qty    decimal.Decimal
	Price  decimal.Decimal
	Cost   decimal.Decimal // Price × Qty
	Held   decimal.Decimal // position before the order
	// Available is the reconciled buying power; set for buys only.
	Available *decimal.Decimal
	// Conflict is an open order on the same symbol and opposite side.
	Conflict *domain.Order
	// Violations lists every rule the order breaks, in check order.
	Violations []error
}

// Err returns the first violation, or nil when the order may be sent.
func (t *Ticket) Err() error {
	if len(t.Violations) == 0 {
		return nil
	}
	return t.Violations[0]
}

// Desk prices and checks orders before they reach the broker.
type Desk struct {
	log *slog.Logger
}

// NewDesk creates a Desk.
func NewDesk() *Desk {
	return &Desk{log: slog.Default().With("component", "desk")}
}

// Preview prices req against b and runs every pre-trade rule. Rule
// violations are reported in Ticket.Violations; the returned error is only
// set when the ticket cannot be built at all (bad input, unknown symbol,
// broker unreachable).
func (d *Desk) Preview(ctx context.Context, b broker.Broker, req OrderRequest) (*Ticket, error) {
	sym := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if sym == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidOrder)
	}
	if req.Side != domain.OrderSideBuy && req.Side != domain.OrderSideSell {
		return nil, fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, req.Side)
	}

	price, err := b.Price(ctx, sym)
	if err != nil {
		return nil, err
	}

	t := &Ticket{Symbol: sym, Side: req.Side, Qty: req.Qty, Price: price}

	// A failed pending listing does not block the order; the brokerage
	// still rejects true wash trades on its side.
	if pending, err := b.PendingOrders(ctx); err != nil {
		d.log.Warn("pending orders unavailable, skipping conflict check", "symbol", sym, "error", err)
	} else {
		t.Conflict = findConflict(pending, sym, req.Side)
	}
	if t.Conflict != nil {
		t.Violations = append(t.Violations, violation(ErrPendingConflict,
			"%s %s order %s for %s is still open", sym, t.Conflict.Side, t.Conflict.ID, t.Conflict.Qty))
	}

	if req.Side == domain.OrderSideSell {
		held, err := b.PositionQty(ctx, sym)
		if err != nil {
			return nil, err
		}
		t.Held = held
		if req.SellAll {
			t.Qty = held
		}
		if !held.IsPositive() {
			t.Violations = append(t.Violations, violation(ErrNotHeld, "no %s in portfolio", sym))
		} else if t.Qty.GreaterThan(held) {
			t.Violations = append(t.Violations, violation(ErrExceedsPosition, "have %s %s, asked to sell %s", held, sym, t.Qty))
		}
	}

	if !t.Qty.IsPositive() {
		t.Violations = append(t.Violations, violation(ErrInvalidQty, "got %s", t.Qty))
	}

	t.Cost = price.Mul(t.Qty)

	if req.Side == domain.OrderSideBuy {
		funds, err := broker.Reconcile(ctx, b)
		if err != nil {
			return nil, err
		}
		avail := funds.Available()
		t.Available = &avail
		if t.Cost.GreaterThan(avail) {
			t.Violations = append(t.Violations, violation(ErrInsufficientFunds,
				"cost %s exceeds available %s", t.Cost.StringFixed(2), avail.StringFixed(2)))
		}
	}

	return t, nil
}

// Submit previews req and, if no rule is violated, places the order.
// Broker errors are returned unchanged so rejection text reaches the user
// verbatim.
func (d *Desk) Submit(ctx context.Context, b broker.Broker, req OrderRequest) (*domain.Order, error) {
	t, err := d.Preview(ctx, b, req)
	if err != nil {
		return nil, err
	}
	if err := t.Err(); err != nil {
		d.log.Info("order blocked", "symbol", t.Symbol, "side", t.Side, "qty", t.Qty.String(), "reason", err)
		return nil, err
	}
	return b.PlaceOrder(ctx, t.Symbol, t.Qty, t.Side)
}

// Cancel cancels an open order by ID.
func (d *Desk) Cancel(ctx context.Context, b broker.Broker, orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return fmt.Errorf("%w: order id is required", ErrInvalidOrder)
	}
	if err := b.CancelOrder(ctx, orderID); err != nil {
		return err
	}
	d.log.Info("order cancelled", "id", orderID, "broker", b.Name())
	return nil
}

func findConflict(pending []domain.Order, symbol string, side domain.OrderSide) *domain.Order {
	for i := range pending {
		o := &pending[i]
		if strings.EqualFold(o.Symbol, symbol) && o.Side == side.Opposite() {
			return o
		}
	}
	return nil
}
