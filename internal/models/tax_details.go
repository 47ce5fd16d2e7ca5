package models

import (
	"github.com/shopspring/decimal"
)

// Tax component names used in breakdowns
const (
	ComponentTariff      = "tariff"
	ComponentCustomsDuty = "customs_import_duty"
	ComponentExcise      = "excise_duty"
	ComponentLuxuryTax   = "luxury_tax"
	ComponentPAL         = "pal"
	ComponentSSL         = "ssl"
	ComponentVAT         = "vat"
	ComponentStampDuty   = "stamp_duty"
)

// TaxComponent is one itemised line of a tax breakdown
type TaxComponent struct {
	Name   string          `json:"name"`
	Base   decimal.Decimal `json:"base"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// TaxDetails is the itemised result of a forward or reverse calculation
type TaxDetails struct {
	Origin      Origin          `json:"origin"`
	Category    Category        `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Tariff      decimal.Decimal `json:"tariff"`
	ExciseDuty  decimal.Decimal `json:"excise_duty"`
	OtherLevies decimal.Decimal `json:"other_levies"`
	VAT         decimal.Decimal `json:"vat"`
	TotalTax    decimal.Decimal `json:"total_tax"`
	BasePrice   decimal.Decimal `json:"base_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`

	// Clamped is set when the shop price came out negative and was reported as zero
	Clamped bool `json:"clamped"`

	Components []TaxComponent `json:"components,omitempty"`
}

// SumComponents recomputes the total from the four tax buckets
func (d *TaxDetails) SumComponents() decimal.Decimal {
	return d.Tariff.Add(d.ExciseDuty).Add(d.OtherLevies).Add(d.VAT)
}

// BracketSlice is the part of an income taxed inside one bracket
type BracketSlice struct {
	From   decimal.Decimal     `json:"from"`
	To     decimal.NullDecimal `json:"to"`
	Rate   decimal.Decimal     `json:"rate"`
	Amount decimal.Decimal     `json:"amount"`
	Tax    decimal.Decimal     `json:"tax"`
}

// IncomeTaxResult is the outcome of a progressive bracket walk
type IncomeTaxResult struct {
	GrossIncome   decimal.Decimal `json:"gross_income"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	NetIncome     decimal.Decimal `json:"net_income"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
	Slices        []BracketSlice  `json:"slices,omitempty"`
}

// VATResult is the outcome of adding VAT to, or removing it from, an amount
type VATResult struct {
	NetAmount   decimal.Decimal `json:"net_amount"`
	VAT         decimal.Decimal `json:"vat"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	Rate        decimal.Decimal `json:"rate"`
}

// SimpleReverseResult splits a final price into base, VAT and a levy charged after VAT
type SimpleReverseResult struct {
	BasePrice decimal.Decimal `json:"base_price"`
	VAT       decimal.Decimal `json:"vat"`
	Levy      decimal.Decimal `json:"levy"`
}

// FuelTaxEstimate is the tax embedded in the fuel needed to drive a distance
type FuelTaxEstimate struct {
	DistanceKm decimal.Decimal `json:"distance_km"`
	Liters     decimal.Decimal `json:"liters"`
	Spend      decimal.Decimal `json:"spend"`
	Tax        *TaxDetails     `json:"tax"`
}
