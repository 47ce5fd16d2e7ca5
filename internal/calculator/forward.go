package calculator

import (
	"finance-tax-api/internal/models"

	"github.com/shopspring/decimal"
)

// ForwardRequest describes one classified purchase
type ForwardRequest struct {
	Price    decimal.Decimal
	Category models.Category
	Imported bool

	// Quantity in the excise unit of the category (liters for fuel). Zero means no excise.
	Quantity decimal.Decimal
}

// ComposeForward breaks a shelf price into its taxes and the remaining shop price.
//
// The steps run in a fixed order because each one builds on the previous totals:
// tariff, excise, levies on price plus tariff, then VAT on price plus tariff plus levies.
// Local items pay neither tariff nor excise. The shop price is whatever is left of the
// price once taxes are taken out; when that is negative it is reported as zero and
// Clamped is set so callers can flag the anomaly.
func ComposeForward(req ForwardRequest, rules *models.TaxRuleSet) (*models.TaxDetails, error) {
	details, err := composeTaxes("compose forward", req, rules)
	if err != nil {
		return nil, err
	}

	base := req.Price.Sub(details.TotalTax)
	if base.IsNegative() {
		base = decimal.Zero
		details.Clamped = true
	}

	details.BasePrice = base
	details.TotalPrice = base.Add(details.TotalTax)

	return details, nil
}

// ComposeFromBase treats the price as a pre-tax base and stacks the taxes on top of it,
// giving the tax-inclusive TotalPrice. DecomposeLanded inverts this composition.
func ComposeFromBase(req ForwardRequest, rules *models.TaxRuleSet) (*models.TaxDetails, error) {
	details, err := composeTaxes("compose from base", req, rules)
	if err != nil {
		return nil, err
	}

	details.BasePrice = req.Price
	details.TotalPrice = req.Price.Add(details.TotalTax)

	return details, nil
}

func composeTaxes(op string, req ForwardRequest, rules *models.TaxRuleSet) (*models.TaxDetails, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, models.NewCalculationError(op, "price", req.Price, models.ErrInvalidInput)
	}
	if req.Quantity.IsNegative() {
		return nil, models.NewCalculationError(op, "quantity", req.Quantity, models.ErrInvalidInput)
	}

	category := req.Category
	if !category.IsValid() {
		category = models.CategoryOther
	}

	price := req.Price
	details := &models.TaxDetails{
		Origin:     models.OriginFor(req.Imported),
		Category:   category,
		Price:      price,
		Tariff:     decimal.Zero,
		ExciseDuty: decimal.Zero,
	}

	if req.Imported {
		tariffRate, err := rules.TariffFor(category)
		if err != nil {
			return nil, err
		}
		details.Tariff = price.Mul(tariffRate)
		details.Components = append(details.Components, models.TaxComponent{
			Name:   models.ComponentTariff,
			Base:   price,
			Rate:   tariffRate,
			Amount: details.Tariff,
		})

		if duty, ok := rules.ExciseFor(category); ok && req.Quantity.IsPositive() {
			details.ExciseDuty = req.Quantity.Mul(duty.PerUnit)
			details.Components = append(details.Components, models.TaxComponent{
				Name:   models.ComponentExcise,
				Base:   req.Quantity,
				Rate:   duty.PerUnit,
				Amount: details.ExciseDuty,
			})
		}
	}

	levyBase := price.Add(details.Tariff)
	details.OtherLevies, details.Components = addLevies(levyBase, rules, details.Components)

	details.VAT, details.Components = addVAT(levyBase.Add(details.OtherLevies), rules.VATRate, details.Components)

	details.TotalTax = details.SumComponents()

	return details, nil
}

// addLevies charges PAL and SSL on the same base and returns their sum
func addLevies(base decimal.Decimal, rules *models.TaxRuleSet, components []models.TaxComponent) (decimal.Decimal, []models.TaxComponent) {
	pal := base.Mul(rules.PALRate)
	ssl := base.Mul(rules.SSLRate)

	if !rules.PALRate.IsZero() {
		components = append(components, models.TaxComponent{Name: models.ComponentPAL, Base: base, Rate: rules.PALRate, Amount: pal})
	}
	if !rules.SSLRate.IsZero() {
		components = append(components, models.TaxComponent{Name: models.ComponentSSL, Base: base, Rate: rules.SSLRate, Amount: ssl})
	}

	return pal.Add(ssl), components
}

func addVAT(base, rate decimal.Decimal, components []models.TaxComponent) (decimal.Decimal, []models.TaxComponent) {
	vat := base.Mul(rate)
	components = append(components, models.TaxComponent{Name: models.ComponentVAT, Base: base, Rate: rate, Amount: vat})
	return vat, components
}
