package services

import (
	"fmt"
	"sort"
	"strings"

	"finance-tax-api/internal/models"
)

// countryAliases maps alternative spellings onto the registry key
var countryAliases = map[string]string{
	"LKA":       "LK",
	"SRI_LANKA": "LK",
}

// RuleSetRegistry holds the validated rule sets a service can calculate with.
// It is built once at startup and never modified, so lookups need no locking.
type RuleSetRegistry struct {
	ruleSets    map[string]*models.TaxRuleSet
	defaultCode string
}

// NewRuleSetRegistry validates the rule sets and indexes them by country code.
// Later rule sets replace earlier ones with the same code.
func NewRuleSetRegistry(defaultCode string, ruleSets ...*models.TaxRuleSet) (*RuleSetRegistry, error) {
	if len(ruleSets) == 0 {
		return nil, fmt.Errorf("%w: registry needs at least one rule set", models.ErrInvalidRuleSet)
	}

	registry := &RuleSetRegistry{
		ruleSets: make(map[string]*models.TaxRuleSet, len(ruleSets)),
	}

	for _, ruleSet := range ruleSets {
		if err := ruleSet.Validate(); err != nil {
			return nil, fmt.Errorf("rule set %q rejected: %w", countryOf(ruleSet), err)
		}

		clone := ruleSet.Clone()
		clone.CountryCode = normalizeCountryCode(clone.CountryCode)
		registry.ruleSets[clone.CountryCode] = clone
	}

	registry.defaultCode = normalizeCountryCode(defaultCode)
	if _, ok := registry.ruleSets[registry.defaultCode]; !ok {
		return nil, fmt.Errorf("%w: no rule set for default country %s", models.ErrUnsupportedCountry, defaultCode)
	}

	return registry, nil
}

// NewBuiltinRegistry creates a registry containing only the built-in rule sets
func NewBuiltinRegistry(defaultCode string) (*RuleSetRegistry, error) {
	var ruleSets []*models.TaxRuleSet
	for _, code := range models.BuiltinCountryCodes() {
		ruleSet, err := models.NewTaxRuleSet(code)
		if err != nil {
			return nil, err
		}
		ruleSets = append(ruleSets, ruleSet)
	}

	return NewRuleSetRegistry(defaultCode, ruleSets...)
}

// Get returns the rule set for a country code; an empty code selects the default.
// The returned rule set is shared and must not be modified.
func (r *RuleSetRegistry) Get(countryCode string) (*models.TaxRuleSet, error) {
	code := r.defaultCode
	if strings.TrimSpace(countryCode) != "" {
		code = normalizeCountryCode(countryCode)
	}

	ruleSet, ok := r.ruleSets[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedCountry, countryCode)
	}

	return ruleSet, nil
}

// Default returns the rule set used when no country is requested
func (r *RuleSetRegistry) Default() *models.TaxRuleSet {
	return r.ruleSets[r.defaultCode]
}

// DefaultCountry returns the default country code
func (r *RuleSetRegistry) DefaultCountry() string {
	return r.defaultCode
}

// Countries returns a summary of every registered rule set, ordered by country code
func (r *RuleSetRegistry) Countries() []models.RuleSetSummary {
	codes := make([]string, 0, len(r.ruleSets))
	for code := range r.ruleSets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	summaries := make([]models.RuleSetSummary, 0, len(codes))
	for _, code := range codes {
		summaries = append(summaries, r.ruleSets[code].Summary())
	}

	return summaries
}

func normalizeCountryCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if alias, ok := countryAliases[code]; ok {
		return alias
	}
	return code
}

func countryOf(ruleSet *models.TaxRuleSet) string {
	if ruleSet == nil {
		return "<nil>"
	}
	return ruleSet.CountryCode
}
