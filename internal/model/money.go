package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount in a single currency.
// Amounts are exact decimals; the host sends them as strings ("19.995") and
// float parsing would lose the half-cent that rounding depends on.
type Money struct {
	Amount       decimal.Decimal
	CurrencyCode string
}

// ZeroMoney returns 0 in the given currency.
func ZeroMoney(currency string) Money {
	return Money{Amount: decimal.Zero, CurrencyCode: currency}
}

// ParseMoney parses a decimal string amount.
// Examples: "99.00" → 99, "19.995" → 19.995, "-10" → -10.
func ParseMoney(amount, currency string) (Money, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return Money{}, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return Money{Amount: d, CurrencyCode: currency}, nil
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(amount, currency string) Money {
	m, err := ParseMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Mul scales the amount by factor, keeping full precision.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), CurrencyCode: m.CurrencyCode}
}

// Round rounds half away from zero to the given number of decimal places,
// so 15.996 → 16.00 and 8.005 → 8.01.
func (m Money) Round(places int32) Money {
	return Money{Amount: m.Amount.Round(places), CurrencyCode: m.CurrencyCode}
}

// String renders the amount with exactly two decimals ("8.00").
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

// Equal compares amount and currency. 8.0 and 8.00 are equal.
func (m Money) Equal(other Money) bool {
	return m.CurrencyCode == other.CurrencyCode && m.Amount.Equal(other.Amount)
}

// MinorUnits converts to cents (int64), rounding half away from zero.
// Examples: 99.00 → 9900, 1234.56 → 123456, 0.005 → 1
func (m Money) MinorUnits() int64 {
	return m.Amount.Shift(2).Round(0).IntPart()
}
