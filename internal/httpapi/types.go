// Package httpapi provides the JSON HTTP API behind the trading dashboard:
// login, account summary, holdings, history and, for admins, the order
// ticket and pending-order management.
package httpapi

import (
	"github.com/shopspring/decimal"

	"traderpro/internal/domain"
	"traderpro/internal/trading"
)

// PortfoliosResponse lists the portfolios offered at login.
type PortfoliosResponse struct {
	Portfolios []string `json:"portfolios"`
}

// LoginRequest opens a session. Guest logins ignore Password.
type LoginRequest struct {
	Portfolio string `json:"portfolio"`
	Password  string `json:"password"`
	Guest     bool   `json:"guest"`
}

// LoginResponse carries the bearer token for subsequent calls.
type LoginResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	Portfolio string `json:"portfolio"`
}

// SummaryResponse is the sidebar: equity plus reconciled buying power.
type SummaryResponse struct {
	Portfolio   string           `json:"portfolio"`
	Role        string           `json:"role"`
	Equity      *decimal.Decimal `json:"equity"`
	Cash        decimal.Decimal  `json:"cash"`
	BuyingPower decimal.Decimal  `json:"buying_power"`
	Locked      decimal.Decimal  `json:"locked"`
	Available   decimal.Decimal  `json:"available"`
	Warnings    []string         `json:"warnings,omitempty"`
}

// PositionsResponse is the holdings table.
type PositionsResponse struct {
	Holdings []trading.Holding `json:"holdings"`
	Warnings []string          `json:"warnings,omitempty"`
}

// HistoryResponse lists filled trades.
type HistoryResponse struct {
	Fills []trading.Fill `json:"fills"`
}

// AssetsResponse lists tradable symbols. Fallback is set when the broker
// could not be asked and the configured default list was served.
type AssetsResponse struct {
	Symbols  []string `json:"symbols"`
	Fallback bool     `json:"fallback,omitempty"`
}

// OrdersResponse lists orders.
type OrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// PlaceOrderRequest is the order form. With SellAll on a sell, Qty is
// ignored.
type PlaceOrderRequest struct {
	Symbol  string          `json:"symbol"`
	Side    string          `json:"side"`
	Qty     decimal.Decimal `json:"qty"`
	SellAll bool            `json:"sell_all"`
}

// QuoteResponse previews an order without sending it.
type QuoteResponse struct {
	Symbol     string           `json:"symbol"`
	Side       domain.OrderSide `json:"side"`
	Qty        decimal.Decimal  `json:"qty"`
	Price      decimal.Decimal  `json:"price"`
	Cost       decimal.Decimal  `json:"cost"`
	Held       decimal.Decimal  `json:"held"`
	Available  *decimal.Decimal `json:"available,omitempty"`
	Conflict   *domain.Order    `json:"conflict,omitempty"`
	Violations []string         `json:"violations,omitempty"`
	OK         bool             `json:"ok"`
}

// ErrorResponse is the body of every non-2xx reply. Category and Hint are
// set for brokerage rejections.
type ErrorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
