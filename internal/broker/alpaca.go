package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"traderpro/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*AlpacaBroker)(nil)

// tradingAPI is the subset of *alpaca.Client used by AlpacaBroker.
type tradingAPI interface {
	GetAccount() (*alpaca.Account, error)
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
	GetPositions() ([]alpaca.Position, error)
	GetPosition(symbol string) (*alpaca.Position, error)
	GetOrders(req alpaca.GetOrdersRequest) ([]alpaca.Order, error)
	CancelOrder(orderID string) error
	GetAssets(req alpaca.GetAssetsRequest) ([]alpaca.Asset, error)
}

// quoteAPI is the subset of *marketdata.Client used by AlpacaBroker.
type quoteAPI interface {
	GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error)
}

// AlpacaBroker implements the Broker interface using the Alpaca trading and
// market-data APIs. It is a pass-through adapter: nothing is cached.
type AlpacaBroker struct {
	trading tradingAPI
	data    quoteAPI
	feed    marketdata.Feed
	log     *slog.Logger
}

// AlpacaOptions configures NewAlpacaBroker. Empty URLs select the SDK
// defaults.
type AlpacaOptions struct {
	APIKey    string
	APISecret string
	BaseURL   string
	DataURL   string
	Feed      string
}

// NewAlpacaBroker creates a new AlpacaBroker configured with the given
// credentials and API endpoints.
func NewAlpacaBroker(opts AlpacaOptions) *AlpacaBroker {
	trading := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
		BaseURL:   opts.BaseURL,
	})

	dataOpts := marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.DataURL != "" {
		dataOpts.BaseURL = opts.DataURL
	}

	return &AlpacaBroker{
		trading: trading,
		data:    marketdata.NewClient(dataOpts),
		feed:    marketdata.Feed(opts.Feed),
		log:     slog.Default().With("broker", "alpaca"),
	}
}

// Name returns "alpaca".
func (b *AlpacaBroker) Name() string {
	return "alpaca"
}

// Balance returns the account's cash.
func (b *AlpacaBroker) Balance(ctx context.Context) (decimal.Decimal, error) {
	acct, err := b.account(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Cash, nil
}

// AccountSummary returns cash, buying power and equity from GET /v2/account.
func (b *AlpacaBroker) AccountSummary(ctx context.Context) (*domain.AccountSummary, error) {
	acct, err := b.account(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.AccountSummary{
		Cash:        acct.Cash,
		BuyingPower: acct.BuyingPower,
		Equity:      acct.Equity,
	}, nil
}

func (b *AlpacaBroker) account(ctx context.Context) (*alpaca.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acct, err := b.trading.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("%w: getting account: %w", ErrConnectivity, err)
	}
	return acct, nil
}

// PlaceOrder submits a day market order for qty shares.
func (b *AlpacaBroker) PlaceOrder(ctx context.Context, symbol string, qty decimal.Decimal, side domain.OrderSide) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alpacaSide := alpaca.Buy
	if side == domain.OrderSideSell {
		alpacaSide = alpaca.Sell
	}

	order, err := b.trading.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:      strings.ToUpper(symbol),
		Qty:         &qty,
		Side:        alpacaSide,
		Type:        alpaca.Market,
		TimeInForce: alpaca.Day,
	})
	if err != nil {
		var apiErr *alpaca.APIError
		if !errors.As(err, &apiErr) || !isOrderRejection(apiErr) {
			return nil, fmt.Errorf("%w: placing order: %w", ErrConnectivity, err)
		}
		reason := apiErr.Message
		if reason == "" {
			reason = err.Error()
		}
		return nil, NewRejectionError(reason, err)
	}

	b.log.Info("order submitted", "id", order.ID, "symbol", order.Symbol, "side", side, "qty", qty.String())
	out := toDomainOrder(*order)
	return &out, nil
}

// isOrderRejection reports whether an API error is the brokerage refusing
// this order. Alpaca answers trading-rule violations with 403 or 422; a 401,
// or a 403 that only says the request is forbidden or not authorized, is a
// credentials problem.
func isOrderRejection(apiErr *alpaca.APIError) bool {
	switch apiErr.StatusCode {
	case http.StatusForbidden:
		m := strings.ToLower(strings.TrimSpace(apiErr.Message))
		return m != "forbidden" && !strings.Contains(m, "not authorized")
	case http.StatusUnprocessableEntity:
		return true
	default:
		return false
	}
}

// Positions returns all open positions.
func (b *AlpacaBroker) Positions(ctx context.Context) ([]domain.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	positions, err := b.trading.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("%w: listing positions: %w", ErrConnectivity, err)
	}

	out := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		out = append(out, toDomainPosition(p))
	}
	return out, nil
}

// PositionQty returns the quantity held for symbol. Alpaca answers 404 when
// there is no position; that is reported as zero.
func (b *AlpacaBroker) PositionQty(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	pos, err := b.trading.GetPosition(strings.ToUpper(symbol))
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("%w: getting position %s: %w", ErrConnectivity, symbol, err)
	}
	if pos == nil {
		return decimal.Zero, nil
	}
	return pos.Qty, nil
}

// Price returns the latest trade price for symbol.
func (b *AlpacaBroker) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	sym := strings.ToUpper(symbol)
	trade, err := b.data.GetLatestTrade(sym, marketdata.GetLatestTradeRequest{Feed: b.feed})
	if err != nil {
		switch statusOf(err) {
		case http.StatusNotFound, http.StatusUnprocessableEntity:
			return decimal.Zero, fmt.Errorf("%w: %s: %w", ErrSymbolNotFound, sym, err)
		}
		return decimal.Zero, fmt.Errorf("%w: latest trade %s: %w", ErrConnectivity, sym, err)
	}
	if trade == nil || trade.Price <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrSymbolNotFound, sym)
	}
	return decimal.NewFromFloat(trade.Price), nil
}

// OrdersHistory returns the most recent orders of any status.
func (b *AlpacaBroker) OrdersHistory(ctx context.Context) ([]domain.Order, error) {
	return b.orders(ctx, "all", HistoryLimit)
}

// PendingOrders returns open orders.
func (b *AlpacaBroker) PendingOrders(ctx context.Context) ([]domain.Order, error) {
	return b.orders(ctx, "open", PendingLimit)
}

func (b *AlpacaBroker) orders(ctx context.Context, status string, limit int) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	orders, err := b.trading.GetOrders(alpaca.GetOrdersRequest{
		Status: status,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s orders: %w", ErrConnectivity, status, err)
	}

	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, toDomainOrder(o))
	}
	return out, nil
}

// CancelOrder requests cancellation of an open order via DELETE
// /v2/orders/{id}.
func (b *AlpacaBroker) CancelOrder(ctx context.Context, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.trading.CancelOrder(orderID); err != nil {
		switch statusOf(err) {
		case http.StatusNotFound, http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %s: %w", ErrOrderNotCancelable, orderID, err)
		}
		return fmt.Errorf("%w: cancelling order %s: %w", ErrConnectivity, orderID, err)
	}
	b.log.Info("order cancel requested", "id", orderID)
	return nil
}

// Assets returns the sorted symbols of active, tradable US equities.
func (b *AlpacaBroker) Assets(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	assets, err := b.trading.GetAssets(alpaca.GetAssetsRequest{
		Status:     "active",
		AssetClass: "us_equity",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing assets: %w", ErrConnectivity, err)
	}

	listed := make([]domain.Asset, 0, len(assets))
	for _, a := range assets {
		listed = append(listed, domain.Asset{Symbol: a.Symbol, Tradable: a.Tradable})
	}
	return tradableSymbols(listed), nil
}

// tradableSymbols returns the sorted symbols of the tradable assets.
func tradableSymbols(assets []domain.Asset) []string {
	symbols := make([]string, 0, len(assets))
	for _, a := range assets {
		if a.Tradable {
			symbols = append(symbols, a.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}

// ---------------------------------------------------------------------------
// Conversion helpers
// ---------------------------------------------------------------------------

// statusOf returns the HTTP status of an Alpaca API error, or 0.
func statusOf(err error) int {
	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func toDomainPosition(p alpaca.Position) domain.Position {
	return domain.Position{
		Symbol:          p.Symbol,
		Qty:             p.Qty,
		MarketValue:     decimalOrZero(p.MarketValue),
		UnrealizedPLPct: decimalOrZero(p.UnrealizedPLPC),
	}
}

func toDomainOrder(o alpaca.Order) domain.Order {
	return domain.Order{
		ID:             o.ID,
		Symbol:         o.Symbol,
		Side:           domain.OrderSide(o.Side),
		Qty:            decimalOrZero(o.Qty),
		Notional:       o.Notional,
		Status:         domain.OrderStatus(o.Status),
		CreatedAt:      o.CreatedAt,
		FilledAt:       o.FilledAt,
		FilledAvgPrice: o.FilledAvgPrice,
	}
}
