// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing signed monetary amounts from
// strings and formatting them for display.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of fractional digits kept for currency values.
const AmountPlaces = 2

// ParseAmount converts a decimal string to a signed currency amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero to two places. A comma must be the only separator and be
// followed by at most two digits. A leading minus marks an expense.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("-12,34") -> -12.34
//	ParseAmount("1.005")  -> 1.01
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		var ok bool
		if s, ok = decimalComma(s); !ok {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(AmountPlaces), nil
}

// decimalComma rewrites a single decimal comma followed by one or two digits
// as a dot. Anything else with a comma, such as thousands separators, is
// rejected.
func decimalComma(s string) (string, bool) {
	if strings.Count(s, ",") != 1 || strings.Contains(s, ".") {
		return "", false
	}
	i := strings.IndexByte(s, ',')
	frac := s[i+1:]
	if len(frac) == 0 || len(frac) > AmountPlaces {
		return "", false
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s[:i] + "." + frac, true
}

// FormatAmount renders an amount with exactly two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountPlaces)
}
