// Package core holds the diary and finance domain model.
//
// This file contains amount parsing. Amounts are exact decimals; float64 is
// never used for storage or summation.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input into a non-negative decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents, thousands separators and anything that is not a plain decimal
// number are rejected with a ValidationError wrapping ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> 0, nil
//	ParseAmount("-1")    -> error
//	ParseAmount("abc")   -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, invalidAmount(s)
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, invalidAmount(s)
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, invalidAmount(s)
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return decimal.Zero, invalidAmount(s)
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return decimal.Zero, invalidAmount(s)
		}
	}
	if intPart == "" {
		intPart = "0"
	}
	normalized := intPart
	if fracPart != "" {
		normalized += "." + fracPart
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, invalidAmount(s)
	}
	if d.IsNegative() {
		return decimal.Zero, invalidAmount(s)
	}
	return d, nil
}

// FormatAmount renders an amount with two fraction digits for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func invalidAmount(s string) error {
	return &ValidationError{Field: "amount", Err: fmt.Errorf("%w: %q", ErrInvalidAmount, s)}
}
