package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatInt(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}
	for _, tt := range tests {
		if got := FormatInt(tt.in); got != tt.want {
			t.Errorf("FormatInt(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"8500", "$8,500.00"},
		{"1234567.891", "$1,234,567.89"},
		{"-1500.5", "-$1,500.50"},
		{"-0.001", "$0.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatQty(t *testing.T) {
	if got := FormatQty(decimal.RequireFromString("1234.5")); got != "1,234.50" {
		t.Errorf("FormatQty(1234.5) = %q, want %q", got, "1,234.50")
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.0525", "+5.25%"},
		{"-0.02", "-2.00%"},
		{"0", "0.00%"},
		{"1.5", "+150.00%"},
	}
	for _, tt := range tests {
		if got := FormatPct(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatPct(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimes(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 5, 0, 0, time.UTC)
	if got := FormatFillTime(&ts); got != "07/03 09:05" {
		t.Errorf("FormatFillTime() = %q, want %q", got, "07/03 09:05")
	}
	if got := FormatFillTime(nil); got != "-" {
		t.Errorf("FormatFillTime(nil) = %q, want %q", got, "-")
	}
	if got := FormatOrderTime(ts); got != "09:05 07/03" {
		t.Errorf("FormatOrderTime() = %q, want %q", got, "09:05 07/03")
	}
}
