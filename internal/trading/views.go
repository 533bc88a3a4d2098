package trading

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"traderpro/internal/broker"
	"traderpro/internal/domain"
)

// CashSymbol labels the synthetic cash row of the holdings table.
const CashSymbol = "CASH"

// cashRowThreshold hides dust balances from the holdings table.
var cashRowThreshold = decimal.NewFromInt(1)

// Holding is one row of the holdings table.
type Holding struct {
	Symbol string          `json:"symbol"`
	Qty    decimal.Decimal `json:"qty"`
	Total  decimal.Decimal `json:"total"`
	PLPct  decimal.Decimal `json:"pl_pct"`
}

// Holdings lists positions plus a CASH row when cash exceeds $1, sorted by
// total value, largest first. A failed account read drops the CASH row and
// is returned in degraded rather than failing the table.
func Holdings(ctx context.Context, b broker.Broker) (rows []Holding, degraded []error, err error) {
	positions, err := b.Positions(ctx)
	if err != nil {
		return nil, nil, err
	}

	rows = make([]Holding, 0, len(positions)+1)
	for _, p := range positions {
		rows = append(rows, Holding{Symbol: p.Symbol, Qty: p.Qty, Total: p.MarketValue, PLPct: p.UnrealizedPLPct})
	}

	if acct, err := b.AccountSummary(ctx); err != nil {
		slog.Default().Warn("account unavailable, omitting cash row", "component", "holdings", "error", err)
		degraded = append(degraded, err)
	} else if acct.Cash.GreaterThan(cashRowThreshold) {
		rows = append(rows, Holding{Symbol: CashSymbol, Qty: acct.Cash, Total: acct.Cash})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Total.GreaterThan(rows[j].Total) })
	return rows, degraded, nil
}

// Fill is one executed trade.
type Fill struct {
	FilledAt *time.Time       `json:"filled_at,omitempty"`
	Symbol   string           `json:"symbol"`
	Side     domain.OrderSide `json:"side"`
	Qty      decimal.Decimal  `json:"qty"`
	Price    decimal.Decimal  `json:"price"`
}

// FilledHistory returns the filled orders from the broker's history, in
// the broker's order. A missing average price shows as zero.
func FilledHistory(ctx context.Context, b broker.Broker) ([]Fill, error) {
	orders, err := b.OrdersHistory(ctx)
	if err != nil {
		return nil, err
	}
	fills := make([]Fill, 0, len(orders))
	for _, o := range orders {
		if o.Status != domain.OrderStatusFilled {
			continue
		}
		f := Fill{FilledAt: o.FilledAt, Symbol: o.Symbol, Side: o.Side, Qty: o.Qty}
		if o.FilledAvgPrice != nil {
			f.Price = *o.FilledAvgPrice
		}
		fills = append(fills, f)
	}
	return fills, nil
}

// Summary is the sidebar: account figures plus reconciled buying power.
// Equity is nil when the account could not be read.
type Summary struct {
	Equity      *decimal.Decimal
	Cash        decimal.Decimal
	BuyingPower decimal.Decimal
	Locked      decimal.Decimal
	Available   decimal.Decimal
	Degraded    []error
}

// Summarize reads the account and reconciles pending buys against it. An
// unreadable account leaves Equity unknown and takes Cash from the cash
// balance; the failure is reported in Degraded. Only a failure to read any
// baseline is returned as an error.
func Summarize(ctx context.Context, b broker.Broker) (*Summary, error) {
	acct, acctErr := b.AccountSummary(ctx)

	funds, err := broker.Reconcile(ctx, b)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		BuyingPower: funds.BuyingPower,
		Locked:      funds.Locked,
		Available:   funds.Available(),
		Degraded:    funds.Degraded,
	}

	switch {
	case acctErr == nil:
		equity := acct.Equity
		s.Equity = &equity
		s.Cash = acct.Cash
	case funds.CashBaseline:
		// Reconcile already recorded the account failure and read cash.
		s.Cash = funds.BuyingPower
	default:
		s.Degraded = append(s.Degraded, fmt.Errorf("reading account: %w", acctErr))
		cash, err := b.Balance(ctx)
		if err != nil {
			return nil, err
		}
		s.Cash = cash
	}
	return s, nil
}
