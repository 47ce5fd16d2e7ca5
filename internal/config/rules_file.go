package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"finance-tax-api/internal/models"
)

// ruleFile is the on-disk layout of a rule set file (YAML or JSON).
// Numbers are decoded as strings so they reach decimal without passing through float64 arithmetic.
type ruleFile struct {
	RuleSets []ruleSetRecord `mapstructure:"rule_sets"`
}

type ruleSetRecord struct {
	Base          string                  `mapstructure:"base"`
	CountryCode   string                  `mapstructure:"country_code"`
	Name          string                  `mapstructure:"name"`
	Currency      string                  `mapstructure:"currency"`
	Version       string                  `mapstructure:"version"`
	EffectiveFrom interface{}             `mapstructure:"effective_from"`
	VATRate       string                  `mapstructure:"vat_rate"`
	PALRate       string                  `mapstructure:"pal_rate"`
	SSLRate       string                  `mapstructure:"ssl_rate"`
	StampDutyRate string                  `mapstructure:"stamp_duty_rate"`
	Tariffs       map[string]string       `mapstructure:"tariffs_by_category"`
	ExciseDuties  map[string]exciseRecord `mapstructure:"excise_duties"`
	VehicleImport *vehicleImportRecord    `mapstructure:"vehicle_import"`
	Brackets      []bracketRecord         `mapstructure:"income_tax_brackets"`
	Constants     *constantsRecord        `mapstructure:"constants"`
}

type exciseRecord struct {
	PerUnit string `mapstructure:"per_unit"`
	Unit    string `mapstructure:"unit"`
}

type vehicleImportRecord struct {
	CIDRate   string                  `mapstructure:"cid_rate"`
	LuxuryTax map[string]luxuryRecord `mapstructure:"luxury_tax"`
}

type luxuryRecord struct {
	Threshold string `mapstructure:"threshold"`
	Rate      string `mapstructure:"rate"`
}

type bracketRecord struct {
	Limit string `mapstructure:"limit"` // empty for the open-ended top bracket
	Rate  string `mapstructure:"rate"`
}

type constantsRecord struct {
	AverageFuelConsumptionKmPerLiter string `mapstructure:"average_fuel_consumption_km_per_liter"`
	DefaultFuelPricePerLiter         string `mapstructure:"default_fuel_price_per_liter"`
}

// LoadRuleSetsFile reads rule sets from a YAML or JSON file.
// A record naming a "base" country starts from that built-in rule set and overrides the fields it sets.
func LoadRuleSetsFile(path string) ([]*models.TaxRuleSet, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	var file ruleFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to decode rules file %s: %w", path, err)
	}

	if len(file.RuleSets) == 0 {
		return nil, fmt.Errorf("%w: rules file %s defines no rule sets", models.ErrInvalidRuleSet, path)
	}

	ruleSets := make([]*models.TaxRuleSet, 0, len(file.RuleSets))
	for i, record := range file.RuleSets {
		ruleSet, err := record.toRuleSet()
		if err != nil {
			return nil, fmt.Errorf("rule set %d in %s: %w", i, path, err)
		}
		if err := ruleSet.Validate(); err != nil {
			return nil, fmt.Errorf("rule set %d in %s: %w", i, path, err)
		}
		ruleSets = append(ruleSets, ruleSet)
	}

	return ruleSets, nil
}

func (r ruleSetRecord) toRuleSet() (*models.TaxRuleSet, error) {
	ruleSet := &models.TaxRuleSet{
		TariffsByCategory: map[models.Category]decimal.Decimal{},
		ExciseDuties:      map[models.Category]models.ExciseDuty{},
		VehicleImport: models.VehicleImportRules{
			LuxuryTax: map[models.Powertrain]models.LuxuryBand{},
		},
	}

	if r.Base != "" {
		base, err := models.NewTaxRuleSet(r.Base)
		if err != nil {
			return nil, err
		}
		ruleSet = base.Clone()
	}

	setString(&ruleSet.CountryCode, strings.ToUpper(r.CountryCode))
	setString(&ruleSet.Name, r.Name)
	setString(&ruleSet.Currency, r.Currency)
	setString(&ruleSet.Version, r.Version)

	if r.EffectiveFrom != nil {
		effectiveFrom, err := parseEffectiveFrom(r.EffectiveFrom)
		if err != nil {
			return nil, err
		}
		ruleSet.EffectiveFrom = effectiveFrom
	}

	rates := []struct {
		field  string
		value  string
		target *decimal.Decimal
	}{
		{"vat_rate", r.VATRate, &ruleSet.VATRate},
		{"pal_rate", r.PALRate, &ruleSet.PALRate},
		{"ssl_rate", r.SSLRate, &ruleSet.SSLRate},
		{"stamp_duty_rate", r.StampDutyRate, &ruleSet.StampDutyRate},
	}
	for _, rate := range rates {
		if err := setDecimal(rate.target, rate.value, rate.field); err != nil {
			return nil, err
		}
	}

	for category, value := range r.Tariffs {
		rate, err := parseDecimal(value, "tariffs_by_category."+category)
		if err != nil {
			return nil, err
		}
		ruleSet.TariffsByCategory[models.Category(strings.ToLower(category))] = rate
	}

	for category, record := range r.ExciseDuties {
		perUnit, err := parseDecimal(record.PerUnit, "excise_duties."+category+".per_unit")
		if err != nil {
			return nil, err
		}
		ruleSet.ExciseDuties[models.Category(strings.ToLower(category))] = models.ExciseDuty{PerUnit: perUnit, Unit: record.Unit}
	}

	if r.VehicleImport != nil {
		if err := setDecimal(&ruleSet.VehicleImport.CIDRate, r.VehicleImport.CIDRate, "vehicle_import.cid_rate"); err != nil {
			return nil, err
		}
		for name, record := range r.VehicleImport.LuxuryTax {
			powertrain, ok := models.ParsePowertrain(name)
			if !ok {
				return nil, models.NewCalculationError("load rules file", "vehicle_import.luxury_tax", name, models.ErrInvalidRuleSet)
			}
			threshold, err := parseDecimal(record.Threshold, "vehicle_import.luxury_tax."+name+".threshold")
			if err != nil {
				return nil, err
			}
			rate, err := parseDecimal(record.Rate, "vehicle_import.luxury_tax."+name+".rate")
			if err != nil {
				return nil, err
			}
			ruleSet.VehicleImport.LuxuryTax[powertrain] = models.LuxuryBand{Threshold: threshold, Rate: rate}
		}
	}

	if len(r.Brackets) > 0 {
		brackets := make([]models.Bracket, 0, len(r.Brackets))
		for i, record := range r.Brackets {
			field := fmt.Sprintf("income_tax_brackets[%d]", i)

			rate, err := parseDecimal(record.Rate, field+".rate")
			if err != nil {
				return nil, err
			}

			bracket := models.Bracket{Rate: rate}
			if strings.TrimSpace(record.Limit) != "" {
				limit, err := parseDecimal(record.Limit, field+".limit")
				if err != nil {
					return nil, err
				}
				bracket.Limit = decimal.NewNullDecimal(limit)
			}
			brackets = append(brackets, bracket)
		}
		ruleSet.IncomeTaxBrackets = brackets
	}

	if r.Constants != nil {
		if err := setDecimal(&ruleSet.Constants.AverageFuelConsumptionKmPerLiter, r.Constants.AverageFuelConsumptionKmPerLiter, "constants.average_fuel_consumption_km_per_liter"); err != nil {
			return nil, err
		}
		if err := setDecimal(&ruleSet.Constants.DefaultFuelPricePerLiter, r.Constants.DefaultFuelPricePerLiter, "constants.default_fuel_price_per_liter"); err != nil {
			return nil, err
		}
	}

	return ruleSet, nil
}

func setString(target *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*target = value
	}
}

// setDecimal leaves the target untouched when the value is empty
func setDecimal(target *decimal.Decimal, value, field string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := parseDecimal(value, field)
	if err != nil {
		return err
	}
	*target = parsed
	return nil
}

func parseDecimal(value, field string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, models.NewCalculationError("load rules file", field, value, models.ErrInvalidRuleSet)
	}
	return parsed, nil
}

func parseEffectiveFrom(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, models.NewCalculationError("load rules file", "effective_from", v, models.ErrInvalidRuleSet)
		}
		return parsed, nil
	default:
		return time.Time{}, models.NewCalculationError("load rules file", "effective_from", v, models.ErrInvalidRuleSet)
	}
}
