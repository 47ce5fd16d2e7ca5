// Package calculator implements the tax engine: progressive brackets, forward composition,
// reverse decomposition and the vehicle import and stamp duty specialisations.
//
// Every function is pure. Rule sets are passed in explicitly and never modified, and all
// arithmetic runs on fixed-point decimals. Values are rounded only by RoundMoney, which
// callers apply at the display edge, never between calculation stages.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ReverseTolerance is the largest acceptable gap between a solved and a requested final price
var ReverseTolerance = decimal.NewFromFloat(0.01)

// MaxReverseIterations bounds the numeric reverse solver
const MaxReverseIterations = 50

var (
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// RoundMoney rounds a monetary value to 2 decimal places, half away from zero
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// FormatAmount renders an amount for display, e.g. "LKR 1,800.00"
func FormatAmount(amount decimal.Decimal, currency string) string {
	rounded := RoundMoney(amount).StringFixed(2)

	sign := ""
	if rounded[0] == '-' {
		sign = "-"
		rounded = rounded[1:]
	}

	intPart, fracPart := rounded[:len(rounded)-3], rounded[len(rounded)-2:]
	grouped := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, intPart[i])
	}

	if currency == "" {
		return fmt.Sprintf("%s%s.%s", sign, grouped, fracPart)
	}
	return fmt.Sprintf("%s%s %s.%s", sign, currency, grouped, fracPart)
}

// Percent converts a fractional rate into a percentage for display
func Percent(rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(hundred)
}
