package calculator

import (
	"finance-tax-api/internal/models"

	"github.com/shopspring/decimal"
)

// AddVAT charges VAT on a net amount
func AddVAT(amount, rate decimal.Decimal) (*models.VATResult, error) {
	if err := checkVATInput("add vat", amount, rate); err != nil {
		return nil, err
	}

	vat := amount.Mul(rate)
	return &models.VATResult{
		NetAmount:   amount,
		VAT:         vat,
		GrossAmount: amount.Add(vat),
		Rate:        rate,
	}, nil
}

// RemoveVAT extracts the VAT contained in a gross amount
func RemoveVAT(amount, rate decimal.Decimal) (*models.VATResult, error) {
	if err := checkVATInput("remove vat", amount, rate); err != nil {
		return nil, err
	}

	simple, err := DecomposeReverseSimple(amount, rate, decimal.Zero)
	if err != nil {
		return nil, err
	}

	return &models.VATResult{
		NetAmount:   simple.BasePrice,
		VAT:         simple.VAT,
		GrossAmount: amount,
		Rate:        rate,
	}, nil
}

// ComputeStampDuty charges stamp duty on a lease or hire value.
// ok is false when the value is not positive and no duty was calculated.
func ComputeStampDuty(leaseValue, rate decimal.Decimal) (duty decimal.Decimal, ok bool) {
	if !leaseValue.IsPositive() {
		return decimal.Zero, false
	}
	return leaseValue.Mul(rate), true
}

func checkVATInput(op string, amount, rate decimal.Decimal) error {
	if amount.IsNegative() {
		return models.NewCalculationError(op, "amount", amount, models.ErrInvalidInput)
	}
	if rate.IsNegative() || rate.GreaterThan(one) {
		return models.NewCalculationError(op, "rate", rate, models.ErrInvalidInput)
	}
	return nil
}
