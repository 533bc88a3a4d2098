package trading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traderpro/internal/broker"
	"traderpro/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newSim() *broker.SimulatorBroker {
	b := broker.NewSimulatorBroker(domain.AccountSummary{
		Cash:        dec("4000"),
		BuyingPower: dec("10000"),
		Equity:      dec("25000"),
	})
	b.SetPrice("AAPL", dec("150"))
	b.SetPrice("TSLA", dec("200"))
	return b
}

// failingBroker wraps a simulator and fails selected reads.
type failingBroker struct {
	*broker.SimulatorBroker
	accountErr error
	pendingErr error
}

func (f *failingBroker) AccountSummary(ctx context.Context) (*domain.AccountSummary, error) {
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return f.SimulatorBroker.AccountSummary(ctx)
}

func (f *failingBroker) PendingOrders(ctx context.Context) ([]domain.Order, error) {
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	return f.SimulatorBroker.PendingOrders(ctx)
}

func TestPreviewBuyWithinFunds(t *testing.T) {
	b := newSim()
	b.AddOrder(domain.Order{Symbol: "TSLA", Side: domain.OrderSideBuy, Qty: dec("5"), Status: domain.OrderStatusNew})

	tk, err := NewDesk().Preview(context.Background(), b, OrderRequest{Symbol: "aapl", Side: domain.OrderSideBuy, Qty: dec("10")})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", tk.Symbol)
	assert.True(t, tk.Cost.Equal(dec("1500")))
	require.NotNil(t, tk.Available)
	assert.True(t, tk.Available.Equal(dec("9000")), "available = %s", tk.Available)
	assert.Nil(t, tk.Conflict)
	assert.NoError(t, tk.Err())
}

func TestPreviewBuyInsufficientFunds(t *testing.T) {
	b := newSim()
	b.AddOrder(domain.Order{Symbol: "TSLA", Side: domain.OrderSideBuy, Notional: decPtr("9000"), Status: domain.OrderStatusNew})

	tk, err := NewDesk().Preview(context.Background(), b, OrderRequest{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("10")})
	require.NoError(t, err)
	assert.ErrorIs(t, tk.Err(), ErrInsufficientFunds)
	assert.ErrorIs(t, tk.Err(), ErrInvalidOrder)
}

func TestPreviewOppositeSideConflict(t *testing.T) {
	b := newSim()
	b.SetPosition(domain.Position{Symbol: "AAPL", Qty: dec("3")})
	b.AddOrder(domain.Order{ID: "b-1", Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("1"), Status: domain.OrderStatusAccepted})

	tk, err := NewDesk().Preview(context.Background(), b, OrderRequest{Symbol: "AAPL", Side: domain.OrderSideSell, Qty: dec("1")})
	require.NoError(t, err)
	require.NotNil(t, tk.Conflict)
	assert.Equal(t, "b-1", tk.Conflict.ID)
	assert.ErrorIs(t, tk.Err(), ErrPendingConflict)

	// Same-side pending orders are not a conflict.
	tk, err = NewDesk().Preview(context.Background(), b, OrderRequest{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("1")})
	require.NoError(t, err)
	assert.Nil(t, tk.Conflict)
}

func TestPreviewSellRules(t *testing.T) {
	b := newSim()
	b.SetPosition(domain.Position{Symbol: "AAPL", Qty: dec("2.5")})
	desk := NewDesk()
	ctx := context.Background()

	tk, err := desk.Preview(ctx, b, OrderRequest{Symbol: "AAPL", Side: domain.OrderSideSell, Qty: dec("3")})
	require.NoError(t, err)
	assert.ErrorIs(t, tk.Err(), ErrExceedsPosition)

	tk, err = desk.Preview(ctx, b, OrderRequest{Symbol: "AAPL", Side: domain.OrderSideSell, SellAll: true})
	require.NoError(t, err)
	assert.NoError(t, tk.Err())
	assert.True(t, tk.Qty.Equal(dec("2.5")))
	assert.True(t, tk.Held.Equal(dec("2.5")))
	assert.Nil(t, tk.Available, "sells are not checked against buying power")

	tk, err = desk.Preview(ctx, b, OrderRequest{Symbol: "TSLA", Side: domain.OrderSideSell, Qty: dec("1")})
	require.NoError(t, err)
	assert.ErrorIs(t, tk.Err(), ErrNotHeld)
}

func TestPreviewInvalidInput(t *testing.T) {
	desk := NewDesk()
	ctx := context.Background()
	b := newSim()

	_, err := desk.Preview(ctx, b, OrderRequest{Symbol: " ", Side: domain.OrderSideBuy, Qty: dec("1")})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = desk.Preview(ctx, b, OrderRequest{Symbol: "AAPL", Side: "hold", Qty: dec("1")})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = desk.Preview(ctx, b, OrderRequest{Symbol: "ZZZZ", Side: domain.OrderSideBuy, Qty: dec("1")})
	assert.ErrorIs(t, err, broker.ErrSymbolNotFound)

	tk, err := desk.Preview(ctx, b, OrderRequest{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("0")})
	require.NoError(t, err)
	assert.ErrorIs(t, tk.Err(), ErrInvalidQty)
}

func TestSubmitPlacesOrder(t *testing.T) {
	b := newSim()
	o, err := NewDesk().Submit(context.Background(), b, OrderRequest{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("2")})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", o.Symbol)

	pending, err := b.PendingOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSubmitBlockedDoesNotReachBroker(t *testing.T) {
	b := newSim()
	_, err := NewDesk().Submit(context.Background(), b, OrderRequest{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("1000")})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	pending, err := b.PendingOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSubmitSurfacesRejectionVerbatim(t *testing.T) {
	b := newSim()
	b.RejectOrdersWith("potential wash trade detected")

	_, err := NewDesk().Submit(context.Background(), b, OrderRequest{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("1")})
	var rej *broker.RejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "potential wash trade detected", rej.Reason)
	assert.Equal(t, broker.RejectionConflict, rej.Category)
}

func TestCancel(t *testing.T) {
	b := newSim()
	desk := NewDesk()
	o, err := desk.Submit(context.Background(), b, OrderRequest{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("1")})
	require.NoError(t, err)

	require.NoError(t, desk.Cancel(context.Background(), b, o.ID))
	assert.ErrorIs(t, desk.Cancel(context.Background(), b, o.ID), broker.ErrOrderNotCancelable)
	assert.ErrorIs(t, desk.Cancel(context.Background(), b, ""), ErrInvalidOrder)
}

func TestHoldingsAddsCashRowAndSorts(t *testing.T) {
	b := newSim()
	b.SetPosition(domain.Position{Symbol: "AAPL", Qty: dec("10"), MarketValue: dec("1500"), UnrealizedPLPct: dec("0.1")})
	b.SetPosition(domain.Position{Symbol: "TSLA", Qty: dec("30"), MarketValue: dec("6000"), UnrealizedPLPct: dec("-0.02")})

	rows, degraded, err := Holdings(context.Background(), b)
	require.NoError(t, err)
	assert.Empty(t, degraded)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"TSLA", CashSymbol, "AAPL"}, []string{rows[0].Symbol, rows[1].Symbol, rows[2].Symbol})
	assert.True(t, rows[1].Qty.Equal(dec("4000")))
	assert.True(t, rows[1].PLPct.IsZero())
}

func TestHoldingsHidesDustCash(t *testing.T) {
	b := broker.NewSimulatorBroker(domain.AccountSummary{Cash: dec("0.75")})

	rows, _, err := Holdings(context.Background(), b)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestFilledHistoryKeepsOnlyFills(t *testing.T) {
	b := newSim()
	at := time.Date(2024, 5, 2, 15, 4, 0, 0, time.UTC)
	b.AddOrder(domain.Order{ID: "f", Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("1"), Status: domain.OrderStatusFilled, FilledAt: &at, FilledAvgPrice: decPtr("149.5")})
	b.AddOrder(domain.Order{ID: "c", Symbol: "AAPL", Side: domain.OrderSideSell, Qty: dec("1"), Status: domain.OrderStatusCancelled})
	b.AddOrder(domain.Order{ID: "n", Symbol: "TSLA", Side: domain.OrderSideSell, Qty: dec("2"), Status: domain.OrderStatusFilled})

	fills, err := FilledHistory(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, "TSLA", fills[0].Symbol)
	assert.True(t, fills[0].Price.IsZero(), "missing average price shows as zero")
	assert.True(t, fills[1].Price.Equal(dec("149.5")))
	assert.Equal(t, &at, fills[1].FilledAt)
}

func TestSummarize(t *testing.T) {
	b := newSim()
	b.AddOrder(domain.Order{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("10"), Status: domain.OrderStatusNew})

	s, err := Summarize(context.Background(), b)
	require.NoError(t, err)
	require.NotNil(t, s.Equity)
	assert.True(t, s.Equity.Equal(dec("25000")))
	assert.True(t, s.Cash.Equal(dec("4000")))
	assert.True(t, s.Locked.Equal(dec("1500")))
	assert.True(t, s.Available.Equal(dec("8500")))
	assert.Empty(t, s.Degraded)
}

func TestSummarizeAccountUnavailable(t *testing.T) {
	sim := newSim()
	sim.AddOrder(domain.Order{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("10"), Status: domain.OrderStatusNew})
	b := &failingBroker{SimulatorBroker: sim, accountErr: errors.New("account endpoint 503")}

	s, err := Summarize(context.Background(), b)
	require.NoError(t, err)
	assert.Nil(t, s.Equity, "equity is unknown")
	assert.True(t, s.Cash.Equal(dec("4000")))
	assert.True(t, s.BuyingPower.Equal(dec("4000")), "baseline falls back to cash")
	assert.True(t, s.Locked.Equal(dec("1500")))
	assert.True(t, s.Available.Equal(dec("2500")))
	require.Len(t, s.Degraded, 1)
	assert.Contains(t, s.Degraded[0].Error(), "account endpoint 503")
}

func TestPreviewPendingOrdersUnavailable(t *testing.T) {
	b := &failingBroker{SimulatorBroker: newSim(), pendingErr: errors.New("orders endpoint 503")}
	b.AddOrder(domain.Order{ID: "s-1", Symbol: "AAPL", Side: domain.OrderSideSell, Qty: dec("1"), Status: domain.OrderStatusNew})

	tk, err := NewDesk().Preview(context.Background(), b, OrderRequest{Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("2")})
	require.NoError(t, err)
	assert.Nil(t, tk.Conflict, "conflict check is skipped")
	assert.True(t, tk.Cost.Equal(dec("300")))
	require.NotNil(t, tk.Available)
	assert.True(t, tk.Available.Equal(dec("10000")), "nothing locked when pending orders are unreadable")
	assert.NoError(t, tk.Err())
}

func TestAssetCache(t *testing.T) {
	b := newSim()
	b.SetAssets([]string{"TSLA", "AAPL"})
	c := NewAssetCache(5*time.Minute, []string{"AAPL", "TSLA", "MSFT"})
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	got, fb := c.Symbols(ctx, "Guardian", b)
	assert.False(t, fb)
	assert.Equal(t, []string{"AAPL", "TSLA"}, got)

	// Within the window the broker is not consulted.
	b.SetAssets([]string{"NVDA"})
	got, _ = c.Symbols(ctx, "Guardian", b)
	assert.Equal(t, []string{"AAPL", "TSLA"}, got)

	now = now.Add(5 * time.Minute)
	got, _ = c.Symbols(ctx, "Guardian", b)
	assert.Equal(t, []string{"NVDA"}, got)

	// Callers get their own copy.
	got[0] = "MUTATED"
	got, _ = c.Symbols(ctx, "Guardian", b)
	assert.Equal(t, []string{"NVDA"}, got)

	c.Invalidate("Guardian")
	b.SetAssets(nil)
	got, fb = c.Symbols(ctx, "Guardian", b)
	assert.True(t, fb)
	assert.Equal(t, []string{"AAPL", "TSLA", "MSFT"}, got)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
