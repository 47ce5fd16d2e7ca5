package calculator

import (
	"finance-tax-api/internal/models"

	"github.com/shopspring/decimal"
)

// ComputeIncomeTax walks a progressive schedule and returns the tax owed on income.
//
// Non-positive income yields zero tax with NetIncome equal to the income, whatever the
// schedule. A slice that comes out negative (only possible with a malformed schedule)
// contributes nothing.
func ComputeIncomeTax(income decimal.Decimal, brackets []models.Bracket) (*models.IncomeTaxResult, error) {
	result := &models.IncomeTaxResult{
		GrossIncome:   income,
		TotalTax:      decimal.Zero,
		NetIncome:     income,
		EffectiveRate: decimal.Zero,
	}

	if !income.IsPositive() {
		return result, nil
	}
	if len(brackets) == 0 {
		return nil, models.NewCalculationError("compute income tax", "brackets", nil, models.ErrInvalidRuleSet)
	}

	totalTax := decimal.Zero
	previousLimit := decimal.Zero
	remaining := income

	for _, bracket := range brackets {
		slice := remaining
		if !bracket.IsUnbounded() {
			slice = decimal.Min(remaining, bracket.Limit.Decimal.Sub(previousLimit))
		}

		if slice.IsNegative() {
			continue
		}

		if slice.IsPositive() {
			tax := slice.Mul(bracket.Rate)
			totalTax = totalTax.Add(tax)
			remaining = remaining.Sub(slice)

			result.Slices = append(result.Slices, models.BracketSlice{
				From:   previousLimit,
				To:     bracket.Limit,
				Rate:   bracket.Rate,
				Amount: slice,
				Tax:    tax,
			})
		}

		if !bracket.IsUnbounded() {
			previousLimit = bracket.Limit.Decimal
		}
		if !remaining.IsPositive() {
			break
		}
	}

	result.TotalTax = totalTax
	result.NetIncome = income.Sub(totalTax)
	result.EffectiveRate = totalTax.Div(income)

	return result, nil
}

// MarginalRate returns the rate that applies to the next unit of income
func MarginalRate(income decimal.Decimal, brackets []models.Bracket) decimal.Decimal {
	for _, bracket := range brackets {
		if bracket.IsUnbounded() || income.LessThan(bracket.Limit.Decimal) {
			return bracket.Rate
		}
	}
	return decimal.Zero
}
