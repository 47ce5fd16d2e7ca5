package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Country code validation regex (ISO 3166 alpha-2 or alpha-3)
var countryCodeRegex = regexp.MustCompile(`^[A-Za-z]{2,3}$`)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// SanitizeString removes extra whitespace and trims the string
func SanitizeString(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fieldName + " is required",
			Value:   value,
		}
	}
	return nil
}

// ValidateStringLength validates string length constraints
func ValidateStringLength(value, fieldName string, minLength, maxLength int) error {
	length := len(strings.TrimSpace(value))

	if minLength > 0 && length < minLength {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must be at least %d characters", fieldName, minLength),
			Value:   value,
		}
	}

	if maxLength > 0 && length > maxLength {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s cannot exceed %d characters", fieldName, maxLength),
			Value:   value,
		}
	}

	return nil
}

// ValidateNonNegative validates that an amount is zero or positive
func ValidateNonNegative(value decimal.Decimal, fieldName string) error {
	if value.IsNegative() {
		return &ValidationError{
			Field:   fieldName,
			Message: fieldName + " cannot be negative",
			Value:   value.String(),
		}
	}
	return nil
}

// ValidateRate validates that a rate is a fraction in [0, 1]
func ValidateRate(value decimal.Decimal, fieldName string) error {
	if !isFraction(value) {
		return &ValidationError{
			Field:   fieldName,
			Message: fieldName + " must be a fraction between 0 and 1",
			Value:   value.String(),
		}
	}
	return nil
}

// ValidateCountryCode validates the format of a country code
func ValidateCountryCode(value, fieldName string) error {
	if value == "" {
		return nil // Optional field, defaults to DefaultCountryCode
	}

	if !countryCodeRegex.MatchString(value) {
		return &ValidationError{
			Field:   fieldName,
			Message: "Invalid country code format",
			Value:   value,
		}
	}

	return nil
}

// ValidateEnum validates that a value is in the allowed enum values
func ValidateEnum(value string, allowedValues []string, fieldName string) error {
	for _, allowed := range allowedValues {
		if value == allowed {
			return nil
		}
	}

	return &ValidationError{
		Field:   fieldName,
		Message: fmt.Sprintf("%s must be one of: %s", fieldName, strings.Join(allowedValues, ", ")),
		Value:   value,
	}
}

// ValidatePowertrain validates a vehicle powertrain name
func ValidatePowertrain(value, fieldName string) (Powertrain, error) {
	powertrain, ok := ParsePowertrain(value)
	if !ok {
		allowed := make([]string, 0, len(AllPowertrains()))
		for _, p := range AllPowertrains() {
			allowed = append(allowed, string(p))
		}
		return "", ValidateEnum(value, allowed, fieldName)
	}
	return powertrain, nil
}
