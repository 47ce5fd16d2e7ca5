package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"finance-tax-api/internal/calculator"
	"finance-tax-api/internal/models"
)

// VAT calculation modes
const (
	VATModeAdd    = "add"
	VATModeRemove = "remove"
)

// TaxService handles tax-related business logic on top of the calculation engine
type TaxService struct {
	registry   *RuleSetRegistry
	classifier ItemClassifier
	validator  *validator.Validate
	logger     *logrus.Logger
}

// NewTaxService creates a new tax service over the given registry and classifier
func NewTaxService(registry *RuleSetRegistry, classifier ItemClassifier, logger *logrus.Logger) *TaxService {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &TaxService{
		registry:   registry,
		classifier: classifier,
		validator:  validator.New(),
		logger:     logger,
	}
}

// NewTaxServiceForCountry creates a tax service backed by the built-in rule sets
func NewTaxServiceForCountry(countryCode string) (*TaxService, error) {
	registry, err := NewBuiltinRegistry(countryCode)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule set registry for country %s: %w", countryCode, err)
	}

	return NewTaxService(registry, NewKeywordClassifier(), nil), nil
}

// Registry returns the rule sets this service calculates with
func (s *TaxService) Registry() *RuleSetRegistry {
	return s.registry
}

// CalculateIncomeTax walks the progressive brackets of the requested country
func (s *TaxService) CalculateIncomeTax(ctx context.Context, req *IncomeTaxRequest) (*IncomeTaxResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: income tax request cannot be nil", models.ErrInvalidInput)
	}

	rules, err := s.prepare(req, req.CountryCode)
	if err != nil {
		return nil, err
	}

	result, err := calculator.ComputeIncomeTax(req.Income, rules.IncomeTaxBrackets)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate income tax: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"operation":      "income_tax",
		"country":        rules.CountryCode,
		"gross_income":   req.Income.String(),
		"total_tax":      result.TotalTax.String(),
		"effective_rate": result.EffectiveRate.String(),
	}).Debug("Income tax calculated")

	return &IncomeTaxResponse{
		RuleSet:      rules.Summary(),
		Result:       result,
		MarginalRate: calculator.MarginalRate(req.Income, rules.IncomeTaxBrackets),
		FormattedTax: calculator.FormatAmount(result.TotalTax, rules.Currency),
		FormattedNet: calculator.FormatAmount(result.NetIncome, rules.Currency),
		EffectivePct: calculator.Percent(result.EffectiveRate),
	}, nil
}

// ComposeForwardTax splits a shelf price into the taxes it contains
func (s *TaxService) ComposeForwardTax(ctx context.Context, req *ForwardTaxRequest) (*TaxBreakdownResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: forward tax request cannot be nil", models.ErrInvalidInput)
	}

	rules, err := s.prepare(req, req.CountryCode)
	if err != nil {
		return nil, err
	}

	details, err := calculator.ComposeForward(calculator.ForwardRequest{
		Price:    req.Price,
		Category: models.ParseCategory(req.Category),
		Imported: req.Imported,
		Quantity: req.Quantity,
	}, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compose forward tax: %w", err)
	}

	s.logDetails("compose_forward", rules, details)

	return newBreakdownResponse(rules, details), nil
}

// DecomposeReverseTax finds the pre-tax base behind a final price
func (s *TaxService) DecomposeReverseTax(ctx context.Context, req *ReverseTaxRequest) (*TaxBreakdownResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: reverse tax request cannot be nil", models.ErrInvalidInput)
	}

	rules, err := s.prepare(req, req.CountryCode)
	if err != nil {
		return nil, err
	}

	reverse := calculator.ReverseRequest{
		FinalPrice: req.FinalPrice,
		Imported:   req.Imported,
		Quantity:   req.Quantity,
	}
	if req.Category != nil && *req.Category != "" {
		category := models.ParseCategory(*req.Category)
		reverse.Category = &category
	}

	decompose := calculator.DecomposeReverse
	if req.Landed {
		decompose = calculator.DecomposeLanded
	}

	details, err := decompose(reverse, rules)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"operation":   "decompose_reverse",
			"country":     rules.CountryCode,
			"final_price": req.FinalPrice.String(),
			"landed":      req.Landed,
			"error":       err.Error(),
		}).Warn("Reverse decomposition failed")
		return nil, fmt.Errorf("failed to decompose reverse tax: %w", err)
	}

	s.logDetails("decompose_reverse", rules, details)

	return newBreakdownResponse(rules, details), nil
}

// CalculateStampDuty returns the stamp duty on a lease or hire agreement
func (s *TaxService) CalculateStampDuty(ctx context.Context, req *StampDutyRequest) (*StampDutyResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: stamp duty request cannot be nil", models.ErrInvalidInput)
	}

	rules, err := s.prepare(req, req.CountryCode)
	if err != nil {
		return nil, err
	}

	duty, applicable := calculator.ComputeStampDuty(req.LeaseValue, rules.StampDutyRate)

	return &StampDutyResponse{
		RuleSet:    rules.Summary(),
		LeaseValue: req.LeaseValue,
		Rate:       rules.StampDutyRate,
		Duty:       duty,
		Applicable: applicable,
		Formatted:  calculator.FormatAmount(duty, rules.Currency),
	}, nil
}

// CalculateVehicleImportTax prices the customs, luxury, levy and VAT charges on a vehicle import
func (s *TaxService) CalculateVehicleImportTax(ctx context.Context, req *VehicleImportRequest) (*VehicleImportResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: vehicle import request cannot be nil", models.ErrInvalidInput)
	}

	rules, err := s.prepare(req, req.CountryCode)
	if err != nil {
		return nil, err
	}

	powertrain, err := models.ValidatePowertrain(req.Powertrain, "powertrain")
	if err != nil {
		return nil, err
	}

	details, err := calculator.ComputeVehicleImportTax(req.CIFValue, powertrain, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate vehicle import tax: %w", err)
	}

	s.logDetails("vehicle_import", rules, details)

	return &VehicleImportResponse{
		TaxBreakdownResponse: *newBreakdownResponse(rules, details),
		Powertrain:           powertrain,
		DutyOnly:             calculator.VehicleDutyOnly(details),
	}, nil
}

// CalculateVAT adds VAT to a net amount or removes it from a gross amount
func (s *TaxService) CalculateVAT(ctx context.Context, req *VATRequest) (*VATResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: VAT request cannot be nil", models.ErrInvalidInput)
	}

	rules, err := s.prepare(req, req.CountryCode)
	if err != nil {
		return nil, err
	}

	rate := rules.VATRate
	if req.Rate != nil {
		rate = *req.Rate
	}

	var result *models.VATResult
	switch req.Mode {
	case VATModeAdd:
		result, err = calculator.AddVAT(req.Amount, rate)
	case VATModeRemove:
		result, err = calculator.RemoveVAT(req.Amount, rate)
	default:
		return nil, models.ValidateEnum(req.Mode, []string{VATModeAdd, VATModeRemove}, "mode")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to calculate VAT: %w", err)
	}

	return &VATResponse{
		RuleSet: rules.Summary(),
		Mode:    req.Mode,
		Result:  result,
	}, nil
}

// AnalyzePurchase classifies a described purchase and composes the taxes in its price
func (s *TaxService) AnalyzePurchase(ctx context.Context, req *PurchaseAnalysisRequest) (*PurchaseAnalysisResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: purchase analysis request cannot be nil", models.ErrInvalidInput)
	}

	rules, err := s.prepare(req, req.CountryCode)
	if err != nil {
		return nil, err
	}

	classification, err := s.classifier.Classify(ctx, req.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to classify purchase: %w", err)
	}
	if classification == nil {
		s.logger.WithField("description", models.SanitizeString(req.Description)).
			Warn("Classifier returned no result, using keyword classification")
		if classification, err = NewKeywordClassifier().Classify(ctx, req.Description); err != nil {
			return nil, fmt.Errorf("failed to classify purchase: %w", err)
		}
	}

	// Caller-supplied facts beat the classifier's guess
	if req.Category != "" {
		classification.Category = models.ParseCategory(req.Category)
		classification.Source = SourceOverride
	}
	if req.Imported != nil {
		classification.Imported = *req.Imported
	}
	classification.Origin = models.OriginFor(classification.Imported)

	details, err := calculator.ComposeForward(calculator.ForwardRequest{
		Price:    req.Price,
		Category: classification.Category,
		Imported: classification.Imported,
		Quantity: req.Quantity,
	}, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compose purchase tax: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"operation":  "analyze_purchase",
		"category":   classification.Category,
		"origin":     classification.Origin,
		"confidence": classification.Confidence,
		"source":     classification.Source,
	}).Debug("Purchase classified")
	s.logDetails("analyze_purchase", rules, details)

	return &PurchaseAnalysisResponse{
		TaxBreakdownResponse: *newBreakdownResponse(rules, details),
		Description:          models.SanitizeString(req.Description),
		Classification:       classification,
	}, nil
}

// EstimateFuelTax estimates the tax paid on fuel for a driven distance
func (s *TaxService) EstimateFuelTax(ctx context.Context, req *FuelEstimateRequest) (*FuelEstimateResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: fuel estimate request cannot be nil", models.ErrInvalidInput)
	}

	rules, err := s.prepare(req, req.CountryCode)
	if err != nil {
		return nil, err
	}

	if req.DistanceKm.GreaterThan(decimal.NewFromInt(models.MaxDistanceKm)) {
		return nil, &models.ValidationError{
			Field:   "distance_km",
			Message: fmt.Sprintf("distance_km cannot exceed %d", models.MaxDistanceKm),
			Value:   req.DistanceKm.String(),
		}
	}

	estimate, err := calculator.EstimateFuelTax(req.DistanceKm, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate fuel tax: %w", err)
	}

	s.logDetails("fuel_estimate", rules, estimate.Tax)

	return &FuelEstimateResponse{
		RuleSet:           rules.Summary(),
		Estimate:          estimate,
		FormattedTotalTax: calculator.FormatAmount(estimate.Tax.TotalTax, rules.Currency),
	}, nil
}

// GetTaxInfo returns the rates and schedules of a country's rule set
func (s *TaxService) GetTaxInfo(ctx context.Context, countryCode string) (*TaxInfo, error) {
	if err := models.ValidateCountryCode(countryCode, "country_code"); err != nil {
		return nil, err
	}

	shared, err := s.registry.Get(countryCode)
	if err != nil {
		return nil, err
	}

	// callers get their own maps and slices; the registry copy stays untouched
	rules := shared.Clone()

	return &TaxInfo{
		RuleSet:           rules.Summary(),
		VATRate:           rules.VATRate,
		PALRate:           rules.PALRate,
		SSLRate:           rules.SSLRate,
		StampDutyRate:     rules.StampDutyRate,
		TariffsByCategory: rules.TariffsByCategory,
		ExciseDuties:      rules.ExciseDuties,
		VehicleImport:     rules.VehicleImport,
		IncomeTaxBrackets: rules.IncomeTaxBrackets,
		Constants:         rules.Constants,
	}, nil
}

// ListCountries returns the countries the service can calculate for
func (s *TaxService) ListCountries(ctx context.Context) []models.RuleSetSummary {
	return s.registry.Countries()
}

// prepare validates the request and resolves its rule set
func (s *TaxService) prepare(req interface{}, countryCode string) (*models.TaxRuleSet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: validation failed: %w", models.ErrInvalidInput, err)
	}

	if err := models.ValidateCountryCode(countryCode, "country_code"); err != nil {
		return nil, err
	}

	return s.registry.Get(countryCode)
}

func (s *TaxService) logDetails(operation string, rules *models.TaxRuleSet, details *models.TaxDetails) {
	entry := s.logger.WithFields(logrus.Fields{
		"operation":  operation,
		"country":    rules.CountryCode,
		"version":    rules.Version,
		"category":   details.Category,
		"origin":     details.Origin,
		"price":      details.Price.String(),
		"total_tax":  details.TotalTax.String(),
		"base_price": details.BasePrice.String(),
	})

	if details.Clamped {
		entry.Warn("Taxes exceed the shelf price; base price clamped to zero")
		return
	}
	entry.Debug("Tax breakdown calculated")
}

func newBreakdownResponse(rules *models.TaxRuleSet, details *models.TaxDetails) *TaxBreakdownResponse {
	return &TaxBreakdownResponse{
		RuleSet:            rules.Summary(),
		Details:            details,
		FormattedTotalTax:  calculator.FormatAmount(details.TotalTax, rules.Currency),
		FormattedBasePrice: calculator.FormatAmount(details.BasePrice, rules.Currency),
	}
}
