package traderpro

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session is the result of a login.
type Session struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	Portfolio string `json:"portfolio"`
}

// Summary is the account sidebar.
type Summary struct {
	Portfolio   string           `json:"portfolio"`
	Role        string           `json:"role"`
	Equity      *decimal.Decimal `json:"equity"`
	Cash        decimal.Decimal  `json:"cash"`
	BuyingPower decimal.Decimal  `json:"buying_power"`
	Locked      decimal.Decimal  `json:"locked"`
	Available   decimal.Decimal  `json:"available"`
	Warnings    []string         `json:"warnings"`
}

// Holding is one row of the holdings table.
type Holding struct {
	Symbol string          `json:"symbol"`
	Qty    decimal.Decimal `json:"qty"`
	Total  decimal.Decimal `json:"total"`
	PLPct  decimal.Decimal `json:"pl_pct"`
}

// Holdings is the holdings table plus any partial-data warnings.
type Holdings struct {
	Holdings []Holding `json:"holdings"`
	Warnings []string  `json:"warnings"`
}

// Fill is an executed trade.
type Fill struct {
	FilledAt *time.Time      `json:"filled_at"`
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Qty      decimal.Decimal `json:"qty"`
	Price    decimal.Decimal `json:"price"`
}

// Assets lists tradable symbols.
type Assets struct {
	Symbols  []string `json:"symbols"`
	Fallback bool     `json:"fallback"`
}

// Order is a brokerage order.
type Order struct {
	ID             string           `json:"id"`
	Symbol         string           `json:"symbol"`
	Side           string           `json:"side"`
	Qty            decimal.Decimal  `json:"qty"`
	Notional       *decimal.Decimal `json:"notional"`
	Status         string           `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	FilledAt       *time.Time       `json:"filled_at"`
	FilledAvgPrice *decimal.Decimal `json:"filled_avg_price"`
}

// OrderRequest is the order form.
type OrderRequest struct {
	Symbol  string          `json:"symbol"`
	Side    string          `json:"side"`
	Qty     decimal.Decimal `json:"qty"`
	SellAll bool            `json:"sell_all"`
}

// Quote previews an order.
type Quote struct {
	Symbol     string           `json:"symbol"`
	Side       string           `json:"side"`
	Qty        decimal.Decimal  `json:"qty"`
	Price      decimal.Decimal  `json:"price"`
	Cost       decimal.Decimal  `json:"cost"`
	Held       decimal.Decimal  `json:"held"`
	Available  *decimal.Decimal `json:"available"`
	Conflict   *Order           `json:"conflict"`
	Violations []string         `json:"violations"`
	OK         bool             `json:"ok"`
}
