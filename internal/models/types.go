package models

import (
	"time"
)

// Common constants
const (
	// DefaultCountryCode is the jurisdiction used when a request does not name one
	DefaultCountryCode = "LK"

	// MaxDescriptionLength bounds item descriptions sent for classification
	MaxDescriptionLength = 500

	// MaxDistanceKm bounds fuel estimation requests
	MaxDistanceKm = 100000
)

// APIResponse represents a standard API response structure
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	return ve.Message
}

// Unwrap lets callers match validation failures against ErrInvalidInput
func (ve *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// HealthCheck represents system health status
type HealthCheck struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
	Uptime    time.Duration     `json:"uptime"`
}

// RuleSetSummary is the public view of a rule set, used by the info endpoints
type RuleSetSummary struct {
	CountryCode   string    `json:"country_code"`
	Name          string    `json:"name"`
	Currency      string    `json:"currency"`
	Version       string    `json:"version"`
	EffectiveFrom time.Time `json:"effective_from"`
}

// Summary returns the identifying fields of a rule set
func (r *TaxRuleSet) Summary() RuleSetSummary {
	return RuleSetSummary{
		CountryCode:   r.CountryCode,
		Name:          r.Name,
		Currency:      r.Currency,
		Version:       r.Version,
		EffectiveFrom: r.EffectiveFrom,
	}
}
