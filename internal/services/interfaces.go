package services

import (
	"context"

	"github.com/shopspring/decimal"

	"finance-tax-api/internal/models"
)

// TaxServiceInterface defines the interface for tax services
type TaxServiceInterface interface {
	// Engine operations
	CalculateIncomeTax(ctx context.Context, req *IncomeTaxRequest) (*IncomeTaxResponse, error)
	ComposeForwardTax(ctx context.Context, req *ForwardTaxRequest) (*TaxBreakdownResponse, error)
	DecomposeReverseTax(ctx context.Context, req *ReverseTaxRequest) (*TaxBreakdownResponse, error)

	// Specialised calculators
	CalculateStampDuty(ctx context.Context, req *StampDutyRequest) (*StampDutyResponse, error)
	CalculateVehicleImportTax(ctx context.Context, req *VehicleImportRequest) (*VehicleImportResponse, error)
	CalculateVAT(ctx context.Context, req *VATRequest) (*VATResponse, error)
	EstimateFuelTax(ctx context.Context, req *FuelEstimateRequest) (*FuelEstimateResponse, error)

	// Classification backed analysis
	AnalyzePurchase(ctx context.Context, req *PurchaseAnalysisRequest) (*PurchaseAnalysisResponse, error)

	// Rule set information
	GetTaxInfo(ctx context.Context, countryCode string) (*TaxInfo, error)
	ListCountries(ctx context.Context) []models.RuleSetSummary
}

// Request and response types for service operations.
// Amounts are decimals and accept either JSON numbers or numeric strings.

// Income tax types
type IncomeTaxRequest struct {
	CountryCode string          `json:"country_code,omitempty" validate:"omitempty,alpha,min=2,max=3"`
	Income      decimal.Decimal `json:"income"`
}

type IncomeTaxResponse struct {
	RuleSet      models.RuleSetSummary   `json:"rule_set"`
	Result       *models.IncomeTaxResult `json:"result"`
	MarginalRate decimal.Decimal         `json:"marginal_rate"`
	FormattedTax string                  `json:"formatted_tax"`
	FormattedNet string                  `json:"formatted_net"`
	EffectivePct decimal.Decimal         `json:"effective_percent"`
}

// Forward and reverse composition types
type ForwardTaxRequest struct {
	CountryCode string          `json:"country_code,omitempty" validate:"omitempty,alpha,min=2,max=3"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"max=50"`
	Imported    bool            `json:"imported"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type ReverseTaxRequest struct {
	CountryCode string          `json:"country_code,omitempty" validate:"omitempty,alpha,min=2,max=3"`
	FinalPrice  decimal.Decimal `json:"final_price"`
	Category    *string         `json:"category,omitempty" validate:"omitempty,max=50"`
	Imported    bool            `json:"imported"`
	Quantity    decimal.Decimal `json:"quantity"`

	// Landed treats the final price as a pre-tax cost with every tax stacked on top
	Landed bool `json:"landed"`
}

type TaxBreakdownResponse struct {
	RuleSet            models.RuleSetSummary `json:"rule_set"`
	Details            *models.TaxDetails    `json:"details"`
	FormattedTotalTax  string                `json:"formatted_total_tax"`
	FormattedBasePrice string                `json:"formatted_base_price"`
}

// Stamp duty types
type StampDutyRequest struct {
	CountryCode string          `json:"country_code,omitempty" validate:"omitempty,alpha,min=2,max=3"`
	LeaseValue  decimal.Decimal `json:"lease_value"`
}

type StampDutyResponse struct {
	RuleSet    models.RuleSetSummary `json:"rule_set"`
	LeaseValue decimal.Decimal       `json:"lease_value"`
	Rate       decimal.Decimal       `json:"rate"`
	Duty       decimal.Decimal       `json:"duty"`
	Applicable bool                  `json:"applicable"`
	Formatted  string                `json:"formatted"`
}

// Vehicle import types
type VehicleImportRequest struct {
	CountryCode string          `json:"country_code,omitempty" validate:"omitempty,alpha,min=2,max=3"`
	CIFValue    decimal.Decimal `json:"cif_value"`
	Powertrain  string          `json:"powertrain" validate:"required"`
}

type VehicleImportResponse struct {
	TaxBreakdownResponse
	Powertrain models.Powertrain `json:"powertrain"`
	DutyOnly   decimal.Decimal   `json:"duty_only"`
}

// VAT calculator types
type VATRequest struct {
	CountryCode string           `json:"country_code,omitempty" validate:"omitempty,alpha,min=2,max=3"`
	Amount      decimal.Decimal  `json:"amount"`
	Mode        string           `json:"mode" validate:"required,oneof=add remove"`
	Rate        *decimal.Decimal `json:"rate,omitempty"`
}

type VATResponse struct {
	RuleSet models.RuleSetSummary `json:"rule_set"`
	Mode    string                `json:"mode"`
	Result  *models.VATResult     `json:"result"`
}

// Purchase analysis types
type PurchaseAnalysisRequest struct {
	CountryCode string          `json:"country_code,omitempty" validate:"omitempty,alpha,min=2,max=3"`
	Description string          `json:"description" validate:"required,max=500"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Category    string          `json:"category,omitempty" validate:"max=50"`
	Imported    *bool           `json:"imported,omitempty"`
}

type PurchaseAnalysisResponse struct {
	TaxBreakdownResponse
	Description    string          `json:"description"`
	Classification *Classification `json:"classification"`
}

// Fuel estimation types
type FuelEstimateRequest struct {
	CountryCode string          `json:"country_code,omitempty" validate:"omitempty,alpha,min=2,max=3"`
	DistanceKm  decimal.Decimal `json:"distance_km"`
}

type FuelEstimateResponse struct {
	RuleSet           models.RuleSetSummary   `json:"rule_set"`
	Estimate          *models.FuelTaxEstimate `json:"estimate"`
	FormattedTotalTax string                  `json:"formatted_total_tax"`
}

// TaxInfo contains the published rates and schedules of a rule set
type TaxInfo struct {
	RuleSet           models.RuleSetSummary                 `json:"rule_set"`
	VATRate           decimal.Decimal                       `json:"vat_rate"`
	PALRate           decimal.Decimal                       `json:"pal_rate"`
	SSLRate           decimal.Decimal                       `json:"ssl_rate"`
	StampDutyRate     decimal.Decimal                       `json:"stamp_duty_rate"`
	TariffsByCategory map[models.Category]decimal.Decimal   `json:"tariffs_by_category"`
	ExciseDuties      map[models.Category]models.ExciseDuty `json:"excise_duties"`
	VehicleImport     models.VehicleImportRules             `json:"vehicle_import"`
	IncomeTaxBrackets []models.Bracket                      `json:"income_tax_brackets"`
	Constants         models.EstimationConstants            `json:"constants"`
}
