package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"traderpro/internal/dashboard"
	"traderpro/pkg/traderpro"
)

var (
	gainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// signStyle colors v green when positive and red when negative.
func signStyle(v decimal.Decimal, s string) string {
	switch {
	case v.IsPositive():
		return gainStyle.Render(s)
	case v.IsNegative():
		return lossStyle.Render(s)
	default:
		return s
	}
}

func sideStyle(side string) string {
	if strings.EqualFold(side, "buy") {
		return gainStyle.Render(strings.ToUpper(side))
	}
	return lossStyle.Render(strings.ToUpper(side))
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	return table
}

func renderSummary(w io.Writer, s *traderpro.Summary) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%s)", s.Portfolio, s.Role)))
	equity := "-"
	if s.Equity != nil {
		equity = dashboard.FormatMoney(*s.Equity)
	}
	table := newTable(w, "Equity", "Cash", "Buying power", "Locked", "Available")
	table.Append([]string{
		equity,
		dashboard.FormatMoney(s.Cash),
		dashboard.FormatMoney(s.BuyingPower),
		dashboard.FormatMoney(s.Locked),
		dashboard.FormatMoney(s.Available),
	})
	table.Render()
	renderWarnings(w, s.Warnings)
}

func renderHoldings(w io.Writer, h *traderpro.Holdings) {
	if len(h.Holdings) == 0 {
		fmt.Fprintln(w, "Portfolio is empty.")
		renderWarnings(w, h.Warnings)
		return
	}
	table := newTable(w, "Symbol", "Qty", "Total", "P/L")
	for _, row := range h.Holdings {
		table.Append([]string{
			row.Symbol,
			dashboard.FormatQty(row.Qty),
			dashboard.FormatMoney(row.Total),
			signStyle(row.PLPct, dashboard.FormatPct(row.PLPct)),
		})
	}
	table.Render()
	renderWarnings(w, h.Warnings)
}

func renderFills(w io.Writer, fills []traderpro.Fill) {
	if len(fills) == 0 {
		fmt.Fprintln(w, "No filled trades.")
		return
	}
	table := newTable(w, "Date", "Symbol", "Side", "Qty", "Price")
	for _, f := range fills {
		filled := f.FilledAt
		if filled != nil {
			local := filled.Local()
			filled = &local
		}
		table.Append([]string{
			dashboard.FormatFillTime(filled),
			f.Symbol,
			sideStyle(f.Side),
			dashboard.FormatQty(f.Qty),
			dashboard.FormatMoney(f.Price),
		})
	}
	table.Render()
}

func renderOrders(w io.Writer, orders []traderpro.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No pending orders.")
		return
	}
	table := newTable(w, "ID", "Symbol", "Side", "Size", "Created")
	for _, o := range orders {
		size := dashboard.FormatQty(o.Qty)
		if o.Notional != nil {
			size = dashboard.FormatMoney(*o.Notional)
		}
		table.Append([]string{
			o.ID,
			o.Symbol,
			sideStyle(o.Side),
			size,
			dashboard.FormatOrderTime(o.CreatedAt.Local()),
		})
	}
	table.Render()
}

func renderQuote(w io.Writer, q *traderpro.Quote) {
	table := newTable(w, "Symbol", "Side", "Qty", "Price", "Cost", "Held", "Available")
	avail := "-"
	if q.Available != nil {
		avail = dashboard.FormatMoney(*q.Available)
	}
	table.Append([]string{
		q.Symbol,
		sideStyle(q.Side),
		dashboard.FormatQty(q.Qty),
		dashboard.FormatMoney(q.Price),
		dashboard.FormatMoney(q.Cost),
		dashboard.FormatQty(q.Held),
		avail,
	})
	table.Render()

	for _, v := range q.Violations {
		fmt.Fprintln(w, lossStyle.Render("blocked: "+v))
	}
	if q.OK {
		fmt.Fprintln(w, gainStyle.Render("ready to submit"))
	}
}

func renderWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintln(w, warnStyle.Render("warning: "+msg))
	}
}
