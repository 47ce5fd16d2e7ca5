package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"finance-tax-api/internal/models"
	"finance-tax-api/internal/services"
)

// TaxSystemConfig holds configuration for the tax system
type TaxSystemConfig struct {
	CountryCode     string              `json:"country_code" env:"TAX_COUNTRY_CODE" default:"LK"`
	VATRateOverride decimal.NullDecimal `json:"vat_rate_override,omitempty" env:"TAX_VAT_RATE_OVERRIDE"`
	SSLRateOverride decimal.NullDecimal `json:"ssl_rate_override,omitempty" env:"TAX_SSL_RATE_OVERRIDE"`
	RulesFile       string              `json:"rules_file,omitempty" env:"TAX_RULES_FILE"`
}

// LoadTaxSystemConfig loads tax system configuration from environment variables
func LoadTaxSystemConfig() (*TaxSystemConfig, error) {
	config := &TaxSystemConfig{
		CountryCode: strings.ToUpper(getEnvWithDefault("TAX_COUNTRY_CODE", models.DefaultCountryCode)),
		RulesFile:   os.Getenv("TAX_RULES_FILE"),
	}

	// Load VAT rate override if specified
	rate, err := getEnvRate("TAX_VAT_RATE_OVERRIDE")
	if err != nil {
		return nil, err
	}
	config.VATRateOverride = rate

	// Load SSL rate override if specified
	rate, err = getEnvRate("TAX_SSL_RATE_OVERRIDE")
	if err != nil {
		return nil, err
	}
	config.SSLRateOverride = rate

	return config, nil
}

// ValidateConfig validates the tax system configuration
func (c *TaxSystemConfig) ValidateConfig() error {
	if c.CountryCode == "" {
		return fmt.Errorf("country code cannot be empty")
	}

	if c.VATRateOverride.Valid {
		if err := models.ValidateRate(c.VATRateOverride.Decimal, "TAX_VAT_RATE_OVERRIDE"); err != nil {
			return err
		}
	}
	if c.SSLRateOverride.Valid {
		if err := models.ValidateRate(c.SSLRateOverride.Decimal, "TAX_SSL_RATE_OVERRIDE"); err != nil {
			return err
		}
	}

	// Test that the configured country resolves to a rule set
	if _, err := c.BuildRegistry(); err != nil {
		return fmt.Errorf("unsupported tax configuration for %s: %w", c.CountryCode, err)
	}

	return nil
}

// BuildRuleSets returns the built-in rule sets, those loaded from the rules file,
// and the overrides applied to the default country's rule set
func (c *TaxSystemConfig) BuildRuleSets() ([]*models.TaxRuleSet, error) {
	var ruleSets []*models.TaxRuleSet
	for _, code := range models.BuiltinCountryCodes() {
		ruleSet, err := models.NewTaxRuleSet(code)
		if err != nil {
			return nil, err
		}
		ruleSets = append(ruleSets, ruleSet)
	}

	if c.RulesFile != "" {
		loaded, err := LoadRuleSetsFile(c.RulesFile)
		if err != nil {
			return nil, err
		}
		ruleSets = append(ruleSets, loaded...)
	}

	if !c.VATRateOverride.Valid && !c.SSLRateOverride.Valid {
		return ruleSets, nil
	}

	// Overrides apply to the last rule set for the default country, so they also win over the file
	target := -1
	for i, ruleSet := range ruleSets {
		if strings.EqualFold(ruleSet.CountryCode, c.CountryCode) {
			target = i
		}
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: cannot apply overrides, no rule set for %s", models.ErrUnsupportedCountry, c.CountryCode)
	}

	overridden := ruleSets[target].Clone()
	if c.VATRateOverride.Valid {
		overridden.VATRate = c.VATRateOverride.Decimal
	}
	if c.SSLRateOverride.Valid {
		overridden.SSLRate = c.SSLRateOverride.Decimal
	}
	overridden.Version += "+overrides"
	ruleSets[target] = overridden

	return ruleSets, nil
}

// BuildRegistry creates the rule set registry described by the configuration
func (c *TaxSystemConfig) BuildRegistry() (*services.RuleSetRegistry, error) {
	ruleSets, err := c.BuildRuleSets()
	if err != nil {
		return nil, err
	}

	return services.NewRuleSetRegistry(c.CountryCode, ruleSets...)
}

// ServiceConfig converts the tax configuration into service container configuration
func (c *TaxSystemConfig) ServiceConfig(logger *logrus.Logger) (*services.ServiceConfig, error) {
	ruleSets, err := c.BuildRuleSets()
	if err != nil {
		return nil, err
	}

	return &services.ServiceConfig{
		TaxConfig: &services.TaxConfig{
			CountryCode: c.CountryCode,
			RuleSets:    ruleSets,
		},
		Logger: logger,
	}, nil
}

// CreateTaxService creates a tax service based on the configuration
func (c *TaxSystemConfig) CreateTaxService(logger *logrus.Logger) (*services.TaxService, error) {
	registry, err := c.BuildRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to create tax registry for country %s: %w", c.CountryCode, err)
	}

	return services.NewTaxService(registry, services.NewKeywordClassifier(), logger), nil
}

// GetSupportedCountries returns the built-in countries
func GetSupportedCountries() []CountryInfo {
	var countries []CountryInfo
	for _, code := range models.BuiltinCountryCodes() {
		ruleSet, err := models.NewTaxRuleSet(code)
		if err != nil {
			continue
		}
		countries = append(countries, CountryInfo{
			Code:     ruleSet.CountryCode,
			Name:     ruleSet.Name,
			VATRate:  ruleSet.VATRate,
			Currency: ruleSet.Currency,
			Version:  ruleSet.Version,
		})
	}
	return countries
}

// CountryInfo contains information about a supported country's tax system
type CountryInfo struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	VATRate  decimal.Decimal `json:"vat_rate"`
	Currency string          `json:"currency"`
	Version  string          `json:"version"`
}

// Helper functions for environment variable parsing
func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvRate(key string) (decimal.NullDecimal, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return decimal.NullDecimal{}, nil
	}

	rate, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NullDecimal{}, fmt.Errorf("%s must be between 0 and 1, got %s", key, value)
	}

	return decimal.NewNullDecimal(rate), nil
}

// TaxConfigurationGuide provides guidance for configuring the tax system
type TaxConfigurationGuide struct {
	EnvironmentVariables []EnvVarInfo    `json:"environment_variables"`
	Examples             []ConfigExample `json:"examples"`
	SupportedCountries   []CountryInfo   `json:"supported_countries"`
}

// EnvVarInfo describes an environment variable for tax configuration
type EnvVarInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     string `json:"default"`
	Example     string `json:"example"`
	Required    bool   `json:"required"`
}

// ConfigExample provides example configurations for different scenarios
type ConfigExample struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	EnvVars     map[string]string `json:"env_vars"`
}

// GetTaxConfigurationGuide returns comprehensive configuration guidance
func GetTaxConfigurationGuide() *TaxConfigurationGuide {
	return &TaxConfigurationGuide{
		EnvironmentVariables: []EnvVarInfo{
			{
				Name:        "TAX_COUNTRY_CODE",
				Description: "Default country for requests that do not name one",
				Default:     "LK",
				Example:     "LK",
				Required:    false,
			},
			{
				Name:        "TAX_VAT_RATE_OVERRIDE",
				Description: "VAT rate (0.0 to 1.0). Overrides the default country's rule set.",
				Default:     "",
				Example:     "0.15",
				Required:    false,
			},
			{
				Name:        "TAX_SSL_RATE_OVERRIDE",
				Description: "Social Security Contribution Levy rate (0.0 to 1.0). Overrides the default country's rule set.",
				Default:     "",
				Example:     "0.025",
				Required:    false,
			},
			{
				Name:        "TAX_RULES_FILE",
				Description: "YAML or JSON file with additional or replacement rule sets",
				Default:     "",
				Example:     "./rules/lk-2025.yaml",
				Required:    false,
			},
		},
		Examples: []ConfigExample{
			{
				Name:        "Sri Lanka (Default)",
				Description: "Built-in Sri Lankan rule set",
				EnvVars: map[string]string{
					"TAX_COUNTRY_CODE": "LK",
				},
			},
			{
				Name:        "Proposed VAT change",
				Description: "Model a budget proposal by overriding VAT",
				EnvVars: map[string]string{
					"TAX_COUNTRY_CODE":      "LK",
					"TAX_VAT_RATE_OVERRIDE": "0.15",
				},
			},
			{
				Name:        "Published schedule update",
				Description: "Load the next fiscal year's rates from a file",
				EnvVars: map[string]string{
					"TAX_COUNTRY_CODE": "LK",
					"TAX_RULES_FILE":   "./rules/lk-2025.yaml",
				},
			},
		},
		SupportedCountries: GetSupportedCountries(),
	}
}
