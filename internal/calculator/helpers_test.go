package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"finance-tax-api/internal/models"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func assertWithin(t *testing.T, expected, actual, tolerance decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, expected.Sub(actual).Abs().LessThanOrEqual(tolerance),
		"%s: expected %s within %s, got %s", msg, expected.String(), tolerance.String(), actual.String())
}

func categoryPtr(c models.Category) *models.Category {
	return &c
}
