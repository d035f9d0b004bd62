package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"whole number", "99.00", "99.00", false},
		{"with cents", "123.45", "123.45", false},
		{"three decimals", "19.995", "20.00", false},
		{"no decimals", "100", "100.00", false},
		{"negative (unusual)", "-10.00", "-10.00", false},
		{"padded", "  5.5 ", "5.50", false},
		{"empty string", "", "", true},
		{"invalid string", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input, "USD")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMoney(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.String() != tt.want {
				t.Errorf("ParseMoney(%q).String() = %s, want %s", tt.input, got.String(), tt.want)
			}
			if got.CurrencyCode != "USD" {
				t.Errorf("CurrencyCode = %s, want USD", got.CurrencyCode)
			}
		})
	}
}

func TestMoneyParseKeepsExactDigits(t *testing.T) {
	m := MustParseMoney("19.995", "USD")
	if !m.Amount.Equal(decimal.New(19995, -3)) {
		t.Errorf("Amount = %s, want 19.995", m.Amount)
	}
}

func TestMoneyRound(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"15.996", "16.00"},
		{"8.005", "8.01"},
		{"8.004", "8.00"},
		{"0.125", "0.13"},
		{"-8.005", "-8.01"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := MustParseMoney(tt.input, "USD").Round(2)
			if got.String() != tt.want {
				t.Errorf("Round(%s) = %s, want %s", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestMoneyMul(t *testing.T) {
	got := MustParseMoney("19.995", "EUR").Mul(decimal.New(8, -1))
	if !got.Amount.Equal(decimal.RequireFromString("15.996")) {
		t.Errorf("Mul = %s, want 15.996", got.Amount)
	}
	if got.CurrencyCode != "EUR" {
		t.Errorf("CurrencyCode = %s, want EUR", got.CurrencyCode)
	}
}

func TestMoneyEqual(t *testing.T) {
	if !MustParseMoney("8.0", "USD").Equal(MustParseMoney("8.00", "USD")) {
		t.Error("8.0 and 8.00 should be equal")
	}
	if MustParseMoney("8.00", "USD").Equal(MustParseMoney("8.00", "CAD")) {
		t.Error("different currencies should not be equal")
	}
}

func TestMoneyMinorUnits(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"99.00", 9900},
		{"1234.56", 123456},
		{"0.01", 1},
		{"0.005", 1},
		{"-10.00", -1000},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := MustParseMoney(tt.input, "USD").MinorUnits()
			if got != tt.want {
				t.Errorf("MinorUnits(%s) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestZeroMoney(t *testing.T) {
	z := ZeroMoney("USD")
	if z.String() != "0.00" {
		t.Errorf("ZeroMoney = %s, want 0.00", z.String())
	}
}
