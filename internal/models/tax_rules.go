package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Bracket is one marginal slice of a progressive schedule.
// A null Limit marks the open-ended top bracket.
type Bracket struct {
	Limit decimal.NullDecimal `json:"limit"`
	Rate  decimal.Decimal     `json:"rate"`
}

// IsUnbounded reports whether the bracket extends to +infinity
func (b Bracket) IsUnbounded() bool {
	return !b.Limit.Valid
}

// NewBracket creates a bracket ending at limit
func NewBracket(limit, rate float64) Bracket {
	return Bracket{
		Limit: decimal.NewNullDecimal(decimal.NewFromFloat(limit)),
		Rate:  decimal.NewFromFloat(rate),
	}
}

// NewTopBracket creates the open-ended final bracket
func NewTopBracket(rate float64) Bracket {
	return Bracket{Rate: decimal.NewFromFloat(rate)}
}

// LuxuryBand taxes the part of a vehicle's value above Threshold at Rate
type LuxuryBand struct {
	Threshold decimal.Decimal `json:"threshold"`
	Rate      decimal.Decimal `json:"rate"`
}

// VehicleImportRules holds the customs import duty and luxury tax bands for vehicles
type VehicleImportRules struct {
	CIDRate   decimal.Decimal            `json:"cid_rate"`
	LuxuryTax map[Powertrain]LuxuryBand `json:"luxury_tax"`
}

// ExciseDuty is a flat charge per unit (liter, stick, ...), independent of price
type ExciseDuty struct {
	PerUnit decimal.Decimal `json:"per_unit"`
	Unit    string          `json:"unit"`
}

// EstimationConstants are auxiliary figures for derived estimations only
type EstimationConstants struct {
	AverageFuelConsumptionKmPerLiter decimal.Decimal `json:"average_fuel_consumption_km_per_liter"`
	DefaultFuelPricePerLiter         decimal.Decimal `json:"default_fuel_price_per_liter"`
}

// TaxRuleSet describes every rate, bracket and threshold for one jurisdiction.
// A rule set is read-only once built; use Clone to derive a modified copy.
type TaxRuleSet struct {
	CountryCode   string    `json:"country_code"`
	Name          string    `json:"name"`
	Currency      string    `json:"currency"`
	Version       string    `json:"version"`
	EffectiveFrom time.Time `json:"effective_from"`

	VATRate       decimal.Decimal `json:"vat_rate"`
	PALRate       decimal.Decimal `json:"pal_rate"`
	SSLRate       decimal.Decimal `json:"ssl_rate"`
	StampDutyRate decimal.Decimal `json:"stamp_duty_rate"`

	TariffsByCategory map[Category]decimal.Decimal `json:"tariffs_by_category"`
	ExciseDuties      map[Category]ExciseDuty      `json:"excise_duties"`
	VehicleImport     VehicleImportRules           `json:"vehicle_import"`
	IncomeTaxBrackets []Bracket                    `json:"income_tax_brackets"`
	Constants         EstimationConstants          `json:"constants"`
}

// TariffFor returns the tariff rate for a category, falling back to CategoryOther
func (r *TaxRuleSet) TariffFor(category Category) (decimal.Decimal, error) {
	if rate, ok := r.TariffsByCategory[category]; ok {
		return rate, nil
	}
	if rate, ok := r.TariffsByCategory[CategoryOther]; ok {
		return rate, nil
	}
	return decimal.Zero, NewCalculationError("tariff lookup", "category", category, ErrInvalidCategory)
}

// ExciseFor returns the excise rule for a category, if one is defined
func (r *TaxRuleSet) ExciseFor(category Category) (ExciseDuty, bool) {
	duty, ok := r.ExciseDuties[category]
	return duty, ok
}

// LuxuryBandFor returns the luxury tax band for a powertrain
func (r *TaxRuleSet) LuxuryBandFor(powertrain Powertrain) (LuxuryBand, bool) {
	band, ok := r.VehicleImport.LuxuryTax[powertrain]
	return band, ok
}

// Validate checks the rule set for missing rates and a proper bracket partition
func (r *TaxRuleSet) Validate() error {
	if r == nil {
		return NewCalculationError("validate rule set", "", nil, ErrInvalidRuleSet)
	}
	if strings.TrimSpace(r.CountryCode) == "" {
		return NewCalculationError("validate rule set", "country_code", r.CountryCode, ErrInvalidRuleSet)
	}

	fractions := map[string]decimal.Decimal{
		"vat_rate":        r.VATRate,
		"pal_rate":        r.PALRate,
		"ssl_rate":        r.SSLRate,
		"stamp_duty_rate": r.StampDutyRate,
		"cid_rate":        r.VehicleImport.CIDRate,
	}
	for field, rate := range fractions {
		if !isFraction(rate) {
			return NewCalculationError("validate rule set", field, rate, ErrInvalidRuleSet)
		}
	}

	if _, ok := r.TariffsByCategory[CategoryOther]; !ok {
		return NewCalculationError("validate rule set", "tariffs_by_category.other", nil, ErrInvalidRuleSet)
	}
	for category, rate := range r.TariffsByCategory {
		if rate.IsNegative() {
			return NewCalculationError("validate rule set", "tariffs_by_category."+string(category), rate, ErrInvalidRuleSet)
		}
	}

	for category, duty := range r.ExciseDuties {
		if duty.PerUnit.IsNegative() {
			return NewCalculationError("validate rule set", "excise_duties."+string(category), duty.PerUnit, ErrInvalidRuleSet)
		}
	}

	for _, powertrain := range AllPowertrains() {
		band, ok := r.VehicleImport.LuxuryTax[powertrain]
		if !ok {
			return NewCalculationError("validate rule set", "vehicle_import.luxury_tax", powertrain, ErrInvalidRuleSet)
		}
		if band.Threshold.IsNegative() || band.Rate.IsNegative() {
			return NewCalculationError("validate rule set", "vehicle_import.luxury_tax."+string(powertrain), band, ErrInvalidRuleSet)
		}
	}

	return ValidateBrackets(r.IncomeTaxBrackets)
}

// ValidateBrackets checks that brackets partition [0, +inf) without gaps or overlaps
func ValidateBrackets(brackets []Bracket) error {
	if len(brackets) == 0 {
		return NewCalculationError("validate brackets", "income_tax_brackets", nil, ErrInvalidRuleSet)
	}

	previous := decimal.Zero
	for i, bracket := range brackets {
		field := fmt.Sprintf("income_tax_brackets[%d]", i)

		if !isFraction(bracket.Rate) {
			return NewCalculationError("validate brackets", field+".rate", bracket.Rate, ErrInvalidRuleSet)
		}

		last := i == len(brackets)-1
		if bracket.IsUnbounded() {
			if !last {
				return NewCalculationError("validate brackets", field+".limit", "unbounded before final bracket", ErrInvalidRuleSet)
			}
			continue
		}
		if last {
			return NewCalculationError("validate brackets", field+".limit", "final bracket must be unbounded", ErrInvalidRuleSet)
		}
		if bracket.Limit.Decimal.LessThanOrEqual(previous) {
			return NewCalculationError("validate brackets", field+".limit", bracket.Limit.Decimal, ErrInvalidRuleSet)
		}
		previous = bracket.Limit.Decimal
	}

	return nil
}

// Clone returns a deep copy that can be modified without touching the original
func (r *TaxRuleSet) Clone() *TaxRuleSet {
	if r == nil {
		return nil
	}

	clone := *r

	clone.TariffsByCategory = make(map[Category]decimal.Decimal, len(r.TariffsByCategory))
	for k, v := range r.TariffsByCategory {
		clone.TariffsByCategory[k] = v
	}

	clone.ExciseDuties = make(map[Category]ExciseDuty, len(r.ExciseDuties))
	for k, v := range r.ExciseDuties {
		clone.ExciseDuties[k] = v
	}

	clone.VehicleImport.LuxuryTax = make(map[Powertrain]LuxuryBand, len(r.VehicleImport.LuxuryTax))
	for k, v := range r.VehicleImport.LuxuryTax {
		clone.VehicleImport.LuxuryTax[k] = v
	}

	clone.IncomeTaxBrackets = make([]Bracket, len(r.IncomeTaxBrackets))
	copy(clone.IncomeTaxBrackets, r.IncomeTaxBrackets)

	return &clone
}

func isFraction(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(1))
}

// SriLankaRuleSet returns the built-in Sri Lankan rule set.
// Rates follow the 2024/25 Inland Revenue and Customs schedules:
// - VAT 18%, Social Security Contribution Levy 2.5%, Ports and Airports Levy 10%
// - Stamp duty on leases and hire agreements 1%
// - Personal income tax: LKR 1.2M tax-free relief, then LKR 500k slices at 6% to 30%, 36% above
func SriLankaRuleSet() *TaxRuleSet {
	d := decimal.NewFromFloat

	return &TaxRuleSet{
		CountryCode:   "LK",
		Name:          "Sri Lanka",
		Currency:      "LKR",
		Version:       "2024.1",
		EffectiveFrom: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),

		VATRate:       d(0.18),
		PALRate:       d(0.10),
		SSLRate:       d(0.025),
		StampDutyRate: d(0.01),

		TariffsByCategory: map[Category]decimal.Decimal{
			CategoryFood:        d(0.15),
			CategoryFuel:        decimal.Zero,
			CategoryVehicles:    d(0.20),
			CategoryClothing:    d(0.15),
			CategoryElectronics: d(0.15),
			CategoryMedical:     decimal.Zero,
			CategoryOther:       d(0.15),
		},
		ExciseDuties: map[Category]ExciseDuty{
			CategoryFuel: {PerUnit: d(60), Unit: "liter"},
		},
		VehicleImport: VehicleImportRules{
			CIDRate: d(0.20),
			LuxuryTax: map[Powertrain]LuxuryBand{
				PowertrainPetrol:   {Threshold: d(5000000), Rate: d(1.00)},
				PowertrainHybrid:   {Threshold: d(5500000), Rate: d(0.80)},
				PowertrainElectric: {Threshold: d(6000000), Rate: d(0.60)},
			},
		},
		IncomeTaxBrackets: []Bracket{
			NewBracket(1200000, 0),
			NewBracket(1700000, 0.06),
			NewBracket(2200000, 0.12),
			NewBracket(2700000, 0.18),
			NewBracket(3200000, 0.24),
			NewBracket(3700000, 0.30),
			NewTopBracket(0.36),
		},
		Constants: EstimationConstants{
			AverageFuelConsumptionKmPerLiter: d(12),
			DefaultFuelPricePerLiter:         d(311),
		},
	}
}

// NewTaxRuleSet returns the built-in rule set for a country code
func NewTaxRuleSet(countryCode string) (*TaxRuleSet, error) {
	switch strings.ToUpper(strings.TrimSpace(countryCode)) {
	case "LK", "LKA", "SRI_LANKA":
		return SriLankaRuleSet(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCountry, countryCode)
	}
}

// BuiltinCountryCodes lists the country codes NewTaxRuleSet understands
func BuiltinCountryCodes() []string {
	return []string{"LK"}
}
