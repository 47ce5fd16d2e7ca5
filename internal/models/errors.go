package models

import (
	"errors"
	"fmt"
)

// Tax calculation errors
var (
	// ErrInvalidInput is returned for negative prices, incomes or quantities where they are not allowed
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRuleSet is returned when a rule set is missing rates or has non-partitioning brackets
	ErrInvalidRuleSet = errors.New("invalid rule set")

	// ErrInvalidCategory is returned when a category has no tariff and no "other" fallback
	ErrInvalidCategory = errors.New("invalid category")

	// ErrReverseSolveDidNotConverge is returned when the reverse solver exhausts its iteration budget
	ErrReverseSolveDidNotConverge = errors.New("reverse solve did not converge")

	// ErrUnsupportedCountry is returned when no rule set is known for a country code
	ErrUnsupportedCountry = errors.New("unsupported country")
)

// CalculationError carries the operation and field that caused a calculation failure
type CalculationError struct {
	Op    string      // Operation that failed
	Field string      // Offending field (if applicable)
	Value interface{} // Offending value (if applicable)
	Err   error       // Underlying sentinel error
}

// Error implements the error interface
func (e *CalculationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %v: %s = %v", e.Op, e.Err, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *CalculationError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target error
func (e *CalculationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewCalculationError creates a new calculation error
func NewCalculationError(op, field string, value interface{}, err error) *CalculationError {
	return &CalculationError{
		Op:    op,
		Field: field,
		Value: value,
		Err:   err,
	}
}

// IsInputError reports whether the error was caused by caller input rather than configuration
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidCategory)
}

// IsRuleSetError reports whether the error points at a broken rule set
func IsRuleSetError(err error) bool {
	return errors.Is(err, ErrInvalidRuleSet) || errors.Is(err, ErrUnsupportedCountry)
}
