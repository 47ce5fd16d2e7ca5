package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-tax-api/internal/models"
)

func TestComposeForward(t *testing.T) {
	rules := models.SriLankaRuleSet()

	tests := []struct {
		name            string
		request         ForwardRequest
		expectedTariff  string
		expectedExcise  string
		expectedLevies  string
		expectedVAT     string
		expectedTotal   string
		expectedBase    string
		expectedClamped bool
	}{
		{
			// tariff 15%; levies on 11,500; VAT on 12,937.50
			name:           "imported electronics",
			request:        ForwardRequest{Price: dec("10000"), Category: models.CategoryElectronics, Imported: true},
			expectedTariff: "1500",
			expectedExcise: "0",
			expectedLevies: "1437.5",
			expectedVAT:    "2328.75",
			expectedTotal:  "5266.25",
			expectedBase:   "4733.75",
		},
		{
			name:           "local electronics skip tariff",
			request:        ForwardRequest{Price: dec("10000"), Category: models.CategoryElectronics},
			expectedTariff: "0",
			expectedExcise: "0",
			expectedLevies: "1250",
			expectedVAT:    "2025",
			expectedTotal:  "3275",
			expectedBase:   "6725",
		},
		{
			name:           "unknown category falls back to other",
			request:        ForwardRequest{Price: dec("10000"), Category: models.Category("jewellery"), Imported: true},
			expectedTariff: "1500",
			expectedExcise: "0",
			expectedLevies: "1437.5",
			expectedVAT:    "2328.75",
			expectedTotal:  "5266.25",
			expectedBase:   "4733.75",
		},
		{
			// excise 10 liters x 60 dwarfs the price
			name:            "fuel excise clamps shop price",
			request:         ForwardRequest{Price: dec("100"), Category: models.CategoryFuel, Imported: true, Quantity: dec("10")},
			expectedTariff:  "0",
			expectedExcise:  "600",
			expectedLevies:  "12.5",
			expectedVAT:     "20.25",
			expectedTotal:   "632.75",
			expectedBase:    "0",
			expectedClamped: true,
		},
		{
			name:           "local fuel pays no excise",
			request:        ForwardRequest{Price: dec("3110"), Category: models.CategoryFuel, Quantity: dec("10")},
			expectedTariff: "0",
			expectedExcise: "0",
			expectedLevies: "388.75",
			expectedVAT:    "629.775",
			expectedTotal:  "1018.525",
			expectedBase:   "2091.475",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details, err := ComposeForward(tt.request, rules)
			require.NoError(t, err)

			assertDecimal(t, tt.expectedTariff, details.Tariff)
			assertDecimal(t, tt.expectedExcise, details.ExciseDuty)
			assertDecimal(t, tt.expectedLevies, details.OtherLevies)
			assertDecimal(t, tt.expectedVAT, details.VAT)
			assertDecimal(t, tt.expectedTotal, details.TotalTax)
			assertDecimal(t, tt.expectedBase, details.BasePrice)
			assert.Equal(t, tt.expectedClamped, details.Clamped)
			assert.Equal(t, models.OriginFor(tt.request.Imported), details.Origin)

			assert.True(t, details.TotalTax.Equal(details.SumComponents()))
			if !details.Clamped {
				assert.True(t, details.BasePrice.Add(details.TotalTax).Equal(tt.request.Price))
			}
		})
	}
}

func TestComposeForward_ComponentsAddUp(t *testing.T) {
	rules := models.SriLankaRuleSet()

	for _, category := range models.AllCategories() {
		for _, imported := range []bool{true, false} {
			details, err := ComposeForward(ForwardRequest{
				Price:    dec("12345.67"),
				Category: category,
				Imported: imported,
				Quantity: dec("3.5"),
			}, rules)
			require.NoError(t, err)

			sum := decimal.Zero
			for _, component := range details.Components {
				sum = sum.Add(component.Amount)
			}
			assert.True(t, sum.Equal(details.TotalTax), "components of %s do not add up", category)
			assert.True(t, details.TotalTax.Equal(details.Tariff.Add(details.ExciseDuty).Add(details.OtherLevies).Add(details.VAT)))
			assert.False(t, details.BasePrice.IsNegative())
		}
	}
}

func TestComposeForward_ZeroPrice(t *testing.T) {
	rules := models.SriLankaRuleSet()

	for _, category := range models.AllCategories() {
		details, err := ComposeForward(ForwardRequest{Price: decimal.Zero, Category: category, Imported: true}, rules)
		require.NoError(t, err)

		assert.True(t, details.BasePrice.IsZero())
		assert.True(t, details.Tariff.IsZero())
		assert.True(t, details.ExciseDuty.IsZero())
		assert.True(t, details.OtherLevies.IsZero())
		assert.True(t, details.VAT.IsZero())
		assert.True(t, details.TotalTax.IsZero())
		assert.False(t, details.Clamped)
	}
}

func TestComposeForward_Errors(t *testing.T) {
	valid := models.SriLankaRuleSet()

	brokenVAT := models.SriLankaRuleSet()
	brokenVAT.VATRate = dec("1.5")

	noFallback := models.SriLankaRuleSet()
	delete(noFallback.TariffsByCategory, models.CategoryOther)

	tests := []struct {
		name    string
		request ForwardRequest
		rules   *models.TaxRuleSet
		wantErr error
	}{
		{
			name:    "negative price",
			request: ForwardRequest{Price: dec("-1"), Category: models.CategoryFood},
			rules:   valid,
			wantErr: models.ErrInvalidInput,
		},
		{
			name:    "negative quantity",
			request: ForwardRequest{Price: dec("1"), Category: models.CategoryFuel, Quantity: dec("-2")},
			rules:   valid,
			wantErr: models.ErrInvalidInput,
		},
		{
			name:    "rate out of range",
			request: ForwardRequest{Price: dec("1"), Category: models.CategoryFood},
			rules:   brokenVAT,
			wantErr: models.ErrInvalidRuleSet,
		},
		{
			name:    "missing other tariff",
			request: ForwardRequest{Price: dec("1"), Category: models.CategoryFood},
			rules:   noFallback,
			wantErr: models.ErrInvalidRuleSet,
		},
		{
			name:    "nil rule set",
			request: ForwardRequest{Price: dec("1"), Category: models.CategoryFood},
			rules:   nil,
			wantErr: models.ErrInvalidRuleSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComposeForward(tt.request, tt.rules)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestComposeFromBase(t *testing.T) {
	rules := models.SriLankaRuleSet()

	details, err := ComposeFromBase(ForwardRequest{Price: dec("10000"), Category: models.CategoryElectronics, Imported: true}, rules)
	require.NoError(t, err)

	assertDecimal(t, "10000", details.BasePrice)
	assertDecimal(t, "5266.25", details.TotalTax)
	assertDecimal(t, "15266.25", details.TotalPrice)
	assert.False(t, details.Clamped)
}

func TestComposeForward_DoesNotMutateRules(t *testing.T) {
	rules := models.SriLankaRuleSet()
	snapshot := rules.Clone()

	_, err := ComposeForward(ForwardRequest{Price: dec("500"), Category: models.CategoryFood, Imported: true}, rules)
	require.NoError(t, err)

	assert.Equal(t, snapshot, rules)
}
