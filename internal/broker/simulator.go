package broker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"traderpro/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*SimulatorBroker)(nil)

// SimulatorBroker implements the Broker interface for offline demos and
// tests. It keeps an account, positions, prices and orders in memory.
// Submitted orders stay open until cancelled; nothing is ever filled.
type SimulatorBroker struct {
	mu        sync.Mutex
	account   domain.AccountSummary
	positions map[string]domain.Position
	prices    map[string]decimal.Decimal
	orders    []*domain.Order
	assets    []string // nil means asset listing is unsupported
	rejectMsg string   // when set, PlaceOrder rejects with this text
	now       func() time.Time
}

// NewSimulatorBroker creates a SimulatorBroker with an empty book and the
// given account figures.
func NewSimulatorBroker(account domain.AccountSummary) *SimulatorBroker {
	return &SimulatorBroker{
		account:   account,
		positions: make(map[string]domain.Position),
		prices:    make(map[string]decimal.Decimal),
		now:       time.Now,
	}
}

// Name returns "simulator".
func (b *SimulatorBroker) Name() string {
	return "simulator"
}

// SetPrice sets the latest trade price for symbol.
func (b *SimulatorBroker) SetPrice(symbol string, price decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prices[strings.ToUpper(symbol)] = price
}

// SetPosition seeds a holding. A zero qty removes it.
func (b *SimulatorBroker) SetPosition(p domain.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sym := strings.ToUpper(p.Symbol)
	if p.Qty.IsZero() {
		delete(b.positions, sym)
		return
	}
	p.Symbol = sym
	b.positions[sym] = p
}

// SetAssets sets the tradable symbol list. Passing nil makes Assets return
// ErrCapabilityUnsupported.
func (b *SimulatorBroker) SetAssets(symbols []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if symbols == nil {
		b.assets = nil
		return
	}
	b.assets = make([]string, len(symbols))
	copy(b.assets, symbols)
}

// RejectOrdersWith makes subsequent PlaceOrder calls fail with msg. An
// empty msg restores normal behaviour.
func (b *SimulatorBroker) RejectOrdersWith(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectMsg = msg
}

// AddOrder records an existing order, e.g. a notional buy placed elsewhere.
func (b *SimulatorBroker) AddOrder(o domain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = b.now()
	}
	b.orders = append(b.orders, &o)
}

// Balance returns the simulated cash.
func (b *SimulatorBroker) Balance(_ context.Context) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.account.Cash, nil
}

// AccountSummary returns a copy of the simulated account.
func (b *SimulatorBroker) AccountSummary(_ context.Context) (*domain.AccountSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct := b.account
	return &acct, nil
}

// PlaceOrder records the order as new.
func (b *SimulatorBroker) PlaceOrder(_ context.Context, symbol string, qty decimal.Decimal, side domain.OrderSide) (*domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rejectMsg != "" {
		return nil, NewRejectionError(b.rejectMsg, nil)
	}
	sym := strings.ToUpper(symbol)
	if _, ok := b.prices[sym]; !ok {
		return nil, NewRejectionError(fmt.Sprintf("asset %q not found", sym), nil)
	}

	o := &domain.Order{
		ID:        uuid.NewString(),
		Symbol:    sym,
		Side:      side,
		Qty:       qty,
		Status:    domain.OrderStatusNew,
		CreatedAt: b.now(),
	}
	b.orders = append(b.orders, o)
	out := *o
	return &out, nil
}

// Positions returns all simulated positions sorted by symbol.
func (b *SimulatorBroker) Positions(_ context.Context) ([]domain.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	positions := make([]domain.Position, 0, len(b.positions))
	for _, p := range b.positions {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })
	return positions, nil
}

// PositionQty returns the held quantity, zero when flat.
func (b *SimulatorBroker) PositionQty(_ context.Context, symbol string) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.positions[strings.ToUpper(symbol)].Qty, nil
}

// Price returns the seeded price for symbol.
func (b *SimulatorBroker) Price(_ context.Context, symbol string) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sym := strings.ToUpper(symbol)
	p, ok := b.prices[sym]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrSymbolNotFound, sym)
	}
	return p, nil
}

// OrdersHistory returns the newest HistoryLimit orders, newest first.
func (b *SimulatorBroker) OrdersHistory(_ context.Context) ([]domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.collect(HistoryLimit, func(*domain.Order) bool { return true }), nil
}

// PendingOrders returns the newest PendingLimit open orders.
func (b *SimulatorBroker) PendingOrders(_ context.Context) ([]domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.collect(PendingLimit, (*domain.Order).IsOpen), nil
}

// collect walks orders newest first. Must be called with mu held.
func (b *SimulatorBroker) collect(limit int, keep func(*domain.Order) bool) []domain.Order {
	out := make([]domain.Order, 0)
	for i := len(b.orders) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(b.orders[i]) {
			out = append(out, *b.orders[i])
		}
	}
	return out
}

// CancelOrder marks an open order as cancelled.
func (b *SimulatorBroker) CancelOrder(_ context.Context, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orders {
		if o.ID != orderID {
			continue
		}
		if !o.IsOpen() {
			return fmt.Errorf("%w: %s is %s", ErrOrderNotCancelable, orderID, o.Status)
		}
		o.Status = domain.OrderStatusCancelled
		return nil
	}
	return fmt.Errorf("%w: %s not found", ErrOrderNotCancelable, orderID)
}

// Assets returns the configured symbols.
func (b *SimulatorBroker) Assets(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.assets == nil {
		return nil, ErrCapabilityUnsupported
	}
	out := make([]string, len(b.assets))
	copy(out, b.assets)
	sort.Strings(out)
	return out, nil
}
