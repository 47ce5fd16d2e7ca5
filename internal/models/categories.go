package models

import (
	"strings"
)

// Category classifies a purchased item for tariff and excise lookup
type Category string

const (
	CategoryFood        Category = "food"
	CategoryFuel        Category = "fuel"
	CategoryVehicles    Category = "vehicles"
	CategoryClothing    Category = "clothing"
	CategoryElectronics Category = "electronics"
	CategoryMedical     Category = "medical"
	CategoryOther       Category = "other"
)

// AllCategories lists every category a rule set must be able to price
func AllCategories() []Category {
	return []Category{
		CategoryFood,
		CategoryFuel,
		CategoryVehicles,
		CategoryClothing,
		CategoryElectronics,
		CategoryMedical,
		CategoryOther,
	}
}

// IsValid reports whether the category is one of the enumerated values
func (c Category) IsValid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory normalises free input into a Category.
// Anything unrecognised becomes CategoryOther.
func ParseCategory(value string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	if c.IsValid() {
		return c
	}
	return CategoryOther
}

// Origin tells whether an item was produced locally or imported
type Origin string

const (
	OriginLocal    Origin = "local"
	OriginImported Origin = "imported"
)

// OriginFor maps the imported flag supplied by a classifier onto an Origin
func OriginFor(imported bool) Origin {
	if imported {
		return OriginImported
	}
	return OriginLocal
}

// Powertrain selects the luxury tax band for an imported vehicle
type Powertrain string

const (
	PowertrainPetrol   Powertrain = "petrol"
	PowertrainHybrid   Powertrain = "hybrid"
	PowertrainElectric Powertrain = "electric"
)

// AllPowertrains lists the powertrains a vehicle import rule must cover
func AllPowertrains() []Powertrain {
	return []Powertrain{PowertrainPetrol, PowertrainHybrid, PowertrainElectric}
}

// ParsePowertrain converts input into a Powertrain, reporting whether it was recognised
func ParsePowertrain(value string) (Powertrain, bool) {
	p := Powertrain(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range AllPowertrains() {
		if p == known {
			return p, true
		}
	}
	return "", false
}
