package calculator

import (
	"finance-tax-api/internal/models"

	"github.com/shopspring/decimal"
)

// EstimateFuelTax estimates the taxes paid on the fuel needed to drive distanceKm,
// using the rule set's average consumption and default pump price.
func EstimateFuelTax(distanceKm decimal.Decimal, rules *models.TaxRuleSet) (*models.FuelTaxEstimate, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if distanceKm.IsNegative() {
		return nil, models.NewCalculationError("estimate fuel tax", "distance_km", distanceKm, models.ErrInvalidInput)
	}

	consumption := rules.Constants.AverageFuelConsumptionKmPerLiter
	if !consumption.IsPositive() {
		return nil, models.NewCalculationError("estimate fuel tax", "constants.average_fuel_consumption_km_per_liter", consumption, models.ErrInvalidRuleSet)
	}

	liters := distanceKm.Div(consumption)
	spend := liters.Mul(rules.Constants.DefaultFuelPricePerLiter)

	tax, err := ComposeForward(ForwardRequest{
		Price:    spend,
		Category: models.CategoryFuel,
		Imported: true,
		Quantity: liters,
	}, rules)
	if err != nil {
		return nil, err
	}

	return &models.FuelTaxEstimate{
		DistanceKm: distanceKm,
		Liters:     liters,
		Spend:      spend,
		Tax:        tax,
	}, nil
}
