package broker

import (
	"context"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"traderpro/internal/domain"
)

// MockBroker is a testify mock of the Broker interface.
type MockBroker struct {
	mock.Mock
}

var _ Broker = (*MockBroker)(nil)

func (m *MockBroker) Name() string { return "mock" }

func (m *MockBroker) Balance(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBroker) AccountSummary(ctx context.Context) (*domain.AccountSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountSummary), args.Error(1)
}

func (m *MockBroker) PlaceOrder(ctx context.Context, symbol string, qty decimal.Decimal, side domain.OrderSide) (*domain.Order, error) {
	args := m.Called(ctx, symbol, qty, side)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockBroker) Positions(ctx context.Context) ([]domain.Position, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Position), args.Error(1)
}

func (m *MockBroker) PositionQty(ctx context.Context, symbol string) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBroker) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBroker) OrdersHistory(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockBroker) PendingOrders(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockBroker) CancelOrder(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockBroker) Assets(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

// mockTradingAPI is a testify mock of the Alpaca trading client.
type mockTradingAPI struct {
	mock.Mock
}

func (m *mockTradingAPI) GetAccount() (*alpaca.Account, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alpaca.Account), args.Error(1)
}

func (m *mockTradingAPI) PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alpaca.Order), args.Error(1)
}

func (m *mockTradingAPI) GetPositions() ([]alpaca.Position, error) {
	args := m.Called()
	return args.Get(0).([]alpaca.Position), args.Error(1)
}

func (m *mockTradingAPI) GetPosition(symbol string) (*alpaca.Position, error) {
	args := m.Called(symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alpaca.Position), args.Error(1)
}

func (m *mockTradingAPI) GetOrders(req alpaca.GetOrdersRequest) ([]alpaca.Order, error) {
	args := m.Called(req)
	return args.Get(0).([]alpaca.Order), args.Error(1)
}

func (m *mockTradingAPI) CancelOrder(orderID string) error {
	args := m.Called(orderID)
	return args.Error(0)
}

func (m *mockTradingAPI) GetAssets(req alpaca.GetAssetsRequest) ([]alpaca.Asset, error) {
	args := m.Called(req)
	return args.Get(0).([]alpaca.Asset), args.Error(1)
}

// mockQuoteAPI is a testify mock of the Alpaca market-data client.
type mockQuoteAPI struct {
	mock.Mock
}

func (m *mockQuoteAPI) GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error) {
	args := m.Called(symbol, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketdata.Trade), args.Error(1)
}
