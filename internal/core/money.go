// Package core provides the accounting domain model and money helpers.
//
// This file contains functions for parsing monetary amounts from strings
// and for the cent-exact arithmetic shared by ledger, depreciation and reports.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	// VATTolerance is the rounding slack allowed between net + VAT and gross.
	VATTolerance = decimal.New(1, -2)

	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// ParseAmount converts a decimal string to an amount rounded to cents.
//
// It accepts dot (12.34) and comma (12,34) decimal separators. When both are
// present the dot is read as a thousands separator (1.234,56). Rounding is
// half-up on the third decimal place. Only positive amounts are accepted.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34
//	ParseAmount("1.234,56") -> 1234.56
//	ParseAmount("12.345")   -> 12.35
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "amount is required"}
	}
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "amount must not carry a sign"}
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "malformed amount"}
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, &ValidationError{Field: "amount", Message: "malformed amount"}
			}
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "malformed amount"}
	}
	d = Round2(d)
	if !d.IsPositive() {
		return decimal.Zero, &InvalidAmountError{Amount: d}
	}
	return d, nil
}

// ParseRate parses a VAT rate in percent ("19", "7", "19,0").
func ParseRate(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || d.GreaterThan(hundred) {
		return decimal.Zero, &ValidationError{Field: "vatRate", Message: "VAT rate must be a percentage between 0 and 100"}
	}
	return d, nil
}

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// VATConsistent reports whether net + vat equals amount within VATTolerance.
func VATConsistent(amount, net, vat decimal.Decimal) bool {
	return net.Add(vat).Sub(amount).Abs().LessThanOrEqual(VATTolerance)
}

// SplitGross divides a gross amount into net and VAT for a rate in percent.
// The VAT share absorbs the rounding difference so net + vat == gross.
func SplitGross(gross, ratePercent decimal.Decimal) (net, vat decimal.Decimal) {
	if !ratePercent.IsPositive() {
		return gross, decimal.Zero
	}
	net = Round2(gross.Mul(hundred).Div(hundred.Add(ratePercent)))
	return net, gross.Sub(net)
}

// MonthlyShare returns a twelfth of an annual amount rounded to cents.
func MonthlyShare(annual decimal.Decimal) decimal.Decimal {
	return Round2(annual.Div(twelve))
}

// Max returns the larger of two amounts.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Ptr returns a pointer to a copy of d, for the optional VAT fields.
func Ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
