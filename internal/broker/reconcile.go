package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"traderpro/internal/domain"
)

// Funds is the outcome of Reconcile.
type Funds struct {
	// BuyingPower is the brokerage's figure, or cash when buying power
	// could not be read.
	BuyingPower decimal.Decimal
	// CashBaseline is set when BuyingPower holds the cash fallback.
	CashBaseline bool
	// Locked is the value reserved by open buy orders.
	Locked decimal.Decimal
	// Degraded lists the partial failures absorbed along the way.
	Degraded []error
}

// Available is the buying power left for new purchases.
func (f *Funds) Available() decimal.Decimal {
	return f.BuyingPower.Sub(f.Locked)
}

// Reconcile nets cash reserved by pending buy orders out of the account's
// buying power. The brokerage's own figure does not always reflect orders
// placed earlier in the same session.
//
// Only a failure to read any baseline is returned as an error. A failed
// pending-order listing yields Locked = 0, and a failed quote makes that
// single order count as 0; both are recorded in Funds.Degraded.
func Reconcile(ctx context.Context, b Broker) (*Funds, error) {
	log := slog.Default().With("component", "reconcile", "broker", b.Name())

	funds := &Funds{}

	summary, err := b.AccountSummary(ctx)
	if err == nil {
		funds.BuyingPower = summary.BuyingPower
	} else {
		log.Warn("account summary unavailable, falling back to cash", "error", err)
		funds.Degraded = append(funds.Degraded, err)
		cash, cashErr := b.Balance(ctx)
		if cashErr != nil {
			return nil, fmt.Errorf("%w: reading baseline: %w", ErrConnectivity, errors.Join(err, cashErr))
		}
		funds.BuyingPower = cash
		funds.CashBaseline = true
	}

	pending, err := b.PendingOrders(ctx)
	if err != nil {
		log.Warn("pending orders unavailable, assuming nothing locked", "error", err)
		funds.Degraded = append(funds.Degraded, err)
		return funds, nil
	}

	for i := range pending {
		reserved, err := reservedValue(ctx, b, &pending[i])
		if err != nil {
			log.Warn("could not value pending order", "id", pending[i].ID, "symbol", pending[i].Symbol, "error", err)
			funds.Degraded = append(funds.Degraded, err)
			continue
		}
		funds.Locked = funds.Locked.Add(reserved)
	}

	return funds, nil
}

// reservedValue returns the cash an open order holds back. Sells hold
// nothing. A notional order is valued at its notional and the price is not
// fetched.
func reservedValue(ctx context.Context, b Broker, o *domain.Order) (decimal.Decimal, error) {
	if o.Side != domain.OrderSideBuy {
		return decimal.Zero, nil
	}
	if o.Notional != nil {
		return *o.Notional, nil
	}
	price, err := b.Price(ctx, o.Symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price for order %s (%s): %w", ErrDataUnavailable, o.ID, o.Symbol, err)
	}
	return price.Mul(o.Qty), nil
}
