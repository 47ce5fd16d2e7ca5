package calculator

import (
	"finance-tax-api/internal/models"

	"github.com/shopspring/decimal"
)

// ComputeVehicleImportTax prices the import of a vehicle from its CIF value.
//
// Customs import duty takes the place of the category tariff and the luxury tax the place
// of excise; PAL and SSL are then charged on CIF plus duty, and VAT on CIF plus duty plus
// levies, the same ordering ComposeForward uses. BasePrice is the CIF value and TotalPrice
// the landed cost.
func ComputeVehicleImportTax(cifValue decimal.Decimal, powertrain models.Powertrain, rules *models.TaxRuleSet) (*models.TaxDetails, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if cifValue.IsNegative() {
		return nil, models.NewCalculationError("vehicle import tax", "cif_value", cifValue, models.ErrInvalidInput)
	}

	band, ok := rules.LuxuryBandFor(powertrain)
	if !ok {
		return nil, models.NewCalculationError("vehicle import tax", "powertrain", powertrain, models.ErrInvalidInput)
	}

	customsDuty := cifValue.Mul(rules.VehicleImport.CIDRate)
	luxuryBase := decimal.Max(decimal.Zero, cifValue.Sub(band.Threshold))
	luxuryTax := luxuryBase.Mul(band.Rate)

	details := &models.TaxDetails{
		Origin:     models.OriginImported,
		Category:   models.CategoryVehicles,
		Price:      cifValue,
		Tariff:     customsDuty,
		ExciseDuty: luxuryTax,
		Components: []models.TaxComponent{
			{Name: models.ComponentCustomsDuty, Base: cifValue, Rate: rules.VehicleImport.CIDRate, Amount: customsDuty},
			{Name: models.ComponentLuxuryTax, Base: luxuryBase, Rate: band.Rate, Amount: luxuryTax},
		},
	}

	levyBase := cifValue.Add(customsDuty)
	details.OtherLevies, details.Components = addLevies(levyBase, rules, details.Components)
	details.VAT, details.Components = addVAT(levyBase.Add(details.OtherLevies), rules.VATRate, details.Components)

	details.TotalTax = details.SumComponents()
	details.BasePrice = cifValue
	details.TotalPrice = cifValue.Add(details.TotalTax)

	return details, nil
}

// VehicleDutyOnly returns customs duty plus luxury tax, without the levies and VAT layered on top
func VehicleDutyOnly(details *models.TaxDetails) decimal.Decimal {
	return details.Tariff.Add(details.ExciseDuty)
}
