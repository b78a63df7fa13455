// Package core provides money parsing and formatting utilities.
//
// Amounts are stored as plain numbers in the persisted state. Parsing and
// aggregation go through decimals so that sums such as 0.1+0.2 compare
// exactly against limits.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Signs, exponents, thousands separators and zero are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	if d.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// ParseBalance is ParseAmount for running totals such as goal savings,
// where zero is a valid value.
func ParseBalance(s string) (float64, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount without trailing zeros (1200, 12.5).
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// FormatMoney renders an amount with the currency symbol and two decimals.
func FormatMoney(c CurrencyCode, v float64) string {
	return c.Symbol() + decimal.NewFromFloat(v).StringFixed(2)
}

// SumAmounts adds expense amounts exactly.
func SumAmounts(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(decimal.NewFromFloat(e.Amount))
	}
	return total
}
