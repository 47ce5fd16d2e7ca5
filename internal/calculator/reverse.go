package calculator

import (
	"finance-tax-api/internal/models"

	"github.com/shopspring/decimal"
)

// ReverseRequest describes a tax-inclusive price to be split into base and taxes.
// Without a Category only VAT and SSL are unwound (DecomposeReverseSimple).
type ReverseRequest struct {
	FinalPrice decimal.Decimal
	Category   *models.Category
	Imported   bool
	Quantity   decimal.Decimal
}

// DecomposeReverseSimple recovers the base price from a price that carries VAT and one
// flat levy: final = base * (1 + vat) * (1 + levy).
//
// The levy here is charged on the VAT-inclusive amount, unlike the levies of
// ComposeForward which come before VAT. Both orderings are kept on purpose.
func DecomposeReverseSimple(finalPrice, vatRate, levyRate decimal.Decimal) (*models.SimpleReverseResult, error) {
	if finalPrice.IsNegative() {
		return nil, models.NewCalculationError("decompose reverse", "final_price", finalPrice, models.ErrInvalidInput)
	}
	if vatRate.IsNegative() {
		return nil, models.NewCalculationError("decompose reverse", "vat_rate", vatRate, models.ErrInvalidRuleSet)
	}
	if levyRate.IsNegative() {
		return nil, models.NewCalculationError("decompose reverse", "levy_rate", levyRate, models.ErrInvalidRuleSet)
	}

	divisor := one.Add(vatRate).Mul(one.Add(levyRate))
	base := finalPrice.Div(divisor)
	vat := base.Mul(vatRate)
	levy := base.Add(vat).Mul(levyRate)

	return &models.SimpleReverseResult{
		BasePrice: base,
		VAT:       vat,
		Levy:      levy,
	}, nil
}

// DecomposeReverse infers the shelf price, base and tax components behind a final price.
//
// With a category it solves for the price p for which ComposeForward(p) gives
// BasePrice + TotalTax == FinalPrice. While the shop price is positive that sum is
// p itself, so p is the final price. Once taxes exceed the price the sum is the tax
// alone, which grows linearly with p on top of any flat excise; that regime is solved
// in closed form and checked, with bisection as the fallback. No solution fails with
// ErrReverseSolveDidNotConverge.
func DecomposeReverse(req ReverseRequest, rules *models.TaxRuleSet) (*models.TaxDetails, error) {
	if err := validateReverse(req, rules); err != nil {
		return nil, err
	}
	if req.Category == nil {
		return decomposeSimpleDetails(req.FinalPrice, rules)
	}

	forward := forwardFor(req)
	compose := func(price decimal.Decimal) (*models.TaxDetails, error) {
		forward.Price = price
		return ComposeForward(forward, rules)
	}

	details, err := compose(req.FinalPrice)
	if err != nil {
		return nil, err
	}
	if !details.Clamped {
		return details, nil
	}

	taxAt := func(price decimal.Decimal) (decimal.Decimal, error) {
		forward.Price = price
		taxes, err := composeTaxes("decompose reverse", forward, rules)
		if err != nil {
			return decimal.Zero, err
		}
		return taxes.TotalTax, nil
	}

	return solvePrice(req.FinalPrice, taxAt, compose)
}

// DecomposeLanded finds the pre-tax base b for which ComposeFromBase(b) lands on the
// final price. Every tax is proportional to b apart from the flat excise, so
// total(b) = total(0) + b * (total(1) - total(0)) is solved directly.
func DecomposeLanded(req ReverseRequest, rules *models.TaxRuleSet) (*models.TaxDetails, error) {
	if err := validateReverse(req, rules); err != nil {
		return nil, err
	}
	if req.Category == nil {
		return decomposeSimpleDetails(req.FinalPrice, rules)
	}

	forward := forwardFor(req)
	compose := func(price decimal.Decimal) (*models.TaxDetails, error) {
		forward.Price = price
		return ComposeFromBase(forward, rules)
	}
	totalAt := func(price decimal.Decimal) (decimal.Decimal, error) {
		details, err := compose(price)
		if err != nil {
			return decimal.Zero, err
		}
		return details.TotalPrice, nil
	}

	details, err := solvePrice(req.FinalPrice, totalAt, compose)
	if err != nil {
		return nil, err
	}

	details.Price = req.FinalPrice
	return details, nil
}

func validateReverse(req ReverseRequest, rules *models.TaxRuleSet) error {
	if err := rules.Validate(); err != nil {
		return err
	}
	if req.FinalPrice.IsNegative() {
		return models.NewCalculationError("decompose reverse", "final_price", req.FinalPrice, models.ErrInvalidInput)
	}
	if req.Quantity.IsNegative() {
		return models.NewCalculationError("decompose reverse", "quantity", req.Quantity, models.ErrInvalidInput)
	}
	return nil
}

func forwardFor(req ReverseRequest) ForwardRequest {
	return ForwardRequest{
		Category: *req.Category,
		Imported: req.Imported,
		Quantity: req.Quantity,
	}
}

func decomposeSimpleDetails(finalPrice decimal.Decimal, rules *models.TaxRuleSet) (*models.TaxDetails, error) {
	simple, err := DecomposeReverseSimple(finalPrice, rules.VATRate, rules.SSLRate)
	if err != nil {
		return nil, err
	}

	details := &models.TaxDetails{
		Origin:      models.OriginLocal,
		Price:       finalPrice,
		Tariff:      decimal.Zero,
		ExciseDuty:  decimal.Zero,
		OtherLevies: simple.Levy,
		VAT:         simple.VAT,
		BasePrice:   simple.BasePrice,
		Components: []models.TaxComponent{
			{Name: models.ComponentVAT, Base: simple.BasePrice, Rate: rules.VATRate, Amount: simple.VAT},
			{Name: models.ComponentSSL, Base: simple.BasePrice.Add(simple.VAT), Rate: rules.SSLRate, Amount: simple.Levy},
		},
	}
	details.TotalTax = details.SumComponents()
	details.TotalPrice = details.BasePrice.Add(details.TotalTax)

	return details, nil
}

type composeFunc func(price decimal.Decimal) (*models.TaxDetails, error)

func landedTotal(details *models.TaxDetails) decimal.Decimal {
	return details.BasePrice.Add(details.TotalTax)
}

func landsOn(details *models.TaxDetails, finalPrice decimal.Decimal) bool {
	return landedTotal(details).Sub(finalPrice).Abs().LessThanOrEqual(ReverseTolerance)
}

// solvePrice inverts compose using the straight line through line(0) and line(1).
// The candidate is accepted only when compose confirms it; otherwise bisection runs.
func solvePrice(finalPrice decimal.Decimal, line func(decimal.Decimal) (decimal.Decimal, error), compose composeFunc) (*models.TaxDetails, error) {
	atZero, err := line(decimal.Zero)
	if err != nil {
		return nil, err
	}
	atOne, err := line(one)
	if err != nil {
		return nil, err
	}

	if slope := atOne.Sub(atZero); slope.IsPositive() {
		price := finalPrice.Sub(atZero).Div(slope)
		if !price.IsNegative() {
			details, err := compose(price)
			if err != nil {
				return nil, err
			}
			if landsOn(details, finalPrice) {
				return details, nil
			}
		}
	}

	return solveBisection(finalPrice, compose)
}

// solveBisection searches [0, finalPrice] for a price whose composition lands on the
// final price. Both compositions are non-decreasing in the price and never land below it.
func solveBisection(finalPrice decimal.Decimal, compose composeFunc) (*models.TaxDetails, error) {
	low, high := decimal.Zero, finalPrice

	details, err := compose(low)
	if err != nil {
		return nil, err
	}
	if landsOn(details, finalPrice) {
		return details, nil
	}
	if landedTotal(details).GreaterThan(finalPrice) {
		// Flat duties alone already exceed the final price
		return nil, models.NewCalculationError("decompose reverse", "final_price", finalPrice, models.ErrReverseSolveDidNotConverge)
	}

	for i := 0; i < MaxReverseIterations; i++ {
		mid := low.Add(high).Div(two)
		details, err := compose(mid)
		if err != nil {
			return nil, err
		}

		diff := landedTotal(details).Sub(finalPrice)
		if diff.Abs().LessThanOrEqual(ReverseTolerance) {
			return details, nil
		}
		if diff.IsNegative() {
			low = mid
		} else {
			high = mid
		}
	}

	return nil, models.NewCalculationError("decompose reverse", "final_price", finalPrice, models.ErrReverseSolveDidNotConverge)
}
