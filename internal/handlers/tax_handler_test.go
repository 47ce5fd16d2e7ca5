package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-tax-api/internal/config"
	"finance-tax-api/internal/models"
	"finance-tax-api/internal/services"
	"finance-tax-api/pkg/lambda"
)

func newTestHandlerService(t *testing.T) services.TaxServiceInterface {
	t.Helper()

	registry, err := services.NewBuiltinRegistry(models.DefaultCountryCode)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return services.NewTaxService(registry, services.NewKeywordClassifier(), logger)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Environment: "test",
		CORS:        config.CORSConfig{AllowedOrigins: []string{"*"}},
		Request:     config.RequestConfig{MaxBodyBytes: 1 << 20},
	}

	router := gin.New()
	SetupMiddleware(router, cfg, logger)
	SetupRoutes(router, &RouterConfig{TaxService: newTestHandlerService(t)})
	return router
}

func performJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), w.Body.String())
}

func assertDecimalEqual(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	want := decimal.RequireFromString(expected)
	assert.True(t, want.Equal(actual), "expected %s, got %s", want, actual)
}

func TestTaxHandler_CalculateIncomeTax(t *testing.T) {
	router := newTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/v1/tax/income", `{"income": 2500000}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp services.IncomeTaxResponse
	decodeBody(t, w, &resp)

	assertDecimalEqual(t, "144000", resp.Result.TotalTax)
	assertDecimalEqual(t, "2356000", resp.Result.NetIncome)
	assertDecimalEqual(t, "0.18", resp.MarginalRate)
	assert.Equal(t, "LK", resp.RuleSet.CountryCode)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestTaxHandler_AmountsAsStrings(t *testing.T) {
	router := newTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/v1/tax/income", `{"income": "2500000"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp services.IncomeTaxResponse
	decodeBody(t, w, &resp)
	assertDecimalEqual(t, "144000", resp.Result.TotalTax)
}

func TestTaxHandler_ComposeForwardTax(t *testing.T) {
	router := newTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/v1/tax/forward",
		`{"price": 10000, "category": "electronics", "imported": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp services.TaxBreakdownResponse
	decodeBody(t, w, &resp)

	assertDecimalEqual(t, "5266.25", resp.Details.TotalTax)
	assertDecimalEqual(t, "4733.75", resp.Details.BasePrice)
	assert.Equal(t, models.OriginImported, resp.Details.Origin)
}

func TestTaxHandler_DecomposeReverseTax(t *testing.T) {
	router := newTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/v1/tax/reverse", `{"final_price": 12095}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp services.TaxBreakdownResponse
	decodeBody(t, w, &resp)

	assertDecimalEqual(t, "10000", resp.Details.BasePrice)
	assertDecimalEqual(t, "1800", resp.Details.VAT)
	assertDecimalEqual(t, "295", resp.Details.OtherLevies)
}

func TestTaxHandler_ErrorStatuses(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "negative price",
			method:         http.MethodPost,
			path:           "/api/v1/tax/forward",
			body:           `{"price": -1, "category": "food"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Validation failed",
		},
		{
			name:           "malformed body",
			method:         http.MethodPost,
			path:           "/api/v1/tax/income",
			body:           `{"income": `,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:           "non numeric amount",
			method:         http.MethodPost,
			path:           "/api/v1/tax/vat",
			body:           `{"amount": "ten", "mode": "add"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:           "unknown country",
			method:         http.MethodPost,
			path:           "/api/v1/tax/stamp-duty",
			body:           `{"country_code": "ZZ", "lease_value": 1000}`,
			expectedStatus: http.StatusNotFound,
			expectedError:  "Country not supported",
		},
		{
			name:           "excise larger than the final price",
			method:         http.MethodPost,
			path:           "/api/v1/tax/reverse",
			body:           `{"final_price": 1000, "category": "fuel", "imported": true, "quantity": 100}`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "Calculation did not converge",
		},
		{
			name:           "unknown powertrain",
			method:         http.MethodPost,
			path:           "/api/v1/tax/vehicle-import",
			body:           `{"cif_value": 6000000, "powertrain": "diesel"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Validation failed",
		},
		{
			name:           "unsupported info country",
			method:         http.MethodGet,
			path:           "/api/v1/tax/info/ZZ",
			expectedStatus: http.StatusNotFound,
			expectedError:  "Country not supported",
		},
		{
			name:           "malformed info country",
			method:         http.MethodGet,
			path:           "/api/v1/tax/info/1",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid path parameters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(router, tt.method, tt.path, tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			var resp ErrorResponse
			decodeBody(t, w, &resp)
			assert.Equal(t, tt.expectedError, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestTaxHandler_ValidationDetails(t *testing.T) {
	router := newTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/v1/tax/purchase", `{"price": 500}`)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	var resp ErrorResponse
	decodeBody(t, w, &resp)

	require.Len(t, resp.ValidationErrors, 1)
	assert.Equal(t, "Description", resp.ValidationErrors[0].Field)
	assert.Equal(t, "required", resp.ValidationErrors[0].Tag)
}

func TestTaxHandler_MissingContentType(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tax/income", bytes.NewBufferString(`{"income": 1}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaxHandler_AnalyzePurchase(t *testing.T) {
	router := newTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/v1/tax/purchase",
		`{"description": "imported laptop", "price": 10000}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp services.PurchaseAnalysisResponse
	decodeBody(t, w, &resp)

	assert.Equal(t, models.CategoryElectronics, resp.Classification.Category)
	assert.True(t, resp.Classification.Imported)
	assertDecimalEqual(t, "5266.25", resp.Details.TotalTax)
}

func TestTaxHandler_InfoEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := performJSON(router, http.MethodGet, "/api/v1/tax/info/lk", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var info services.TaxInfo
	decodeBody(t, w, &info)
	assertDecimalEqual(t, "0.18", info.VATRate)
	assert.NotEmpty(t, info.IncomeTaxBrackets)

	w = performJSON(router, http.MethodGet, "/api/v1/tax/countries", "")
	require.Equal(t, http.StatusOK, w.Code)

	var countries struct {
		Success bool                    `json:"success"`
		Data    []models.RuleSetSummary `json:"data"`
	}
	decodeBody(t, w, &countries)
	assert.True(t, countries.Success)
	require.Len(t, countries.Data, 1)
	assert.Equal(t, "LK", countries.Data[0].CountryCode)

	w = performJSON(router, http.MethodGet, "/api/v1/tax/categories", "")
	require.Equal(t, http.StatusOK, w.Code)

	var categories CategoriesResponse
	decodeBody(t, w, &categories)
	assert.ElementsMatch(t, models.AllCategories(), categories.Categories)
	assert.ElementsMatch(t, models.AllPowertrains(), categories.Powertrains)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := performJSON(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var health models.HealthCheck
	decodeBody(t, w, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, Version, health.Version)
	assert.Equal(t, "1 loaded", health.Services["rule_sets"])
	assert.NotEmpty(t, health.Services["deployment"])
}

func TestTaxHandler_LambdaHandlers(t *testing.T) {
	handler := NewTaxHandler(newTestHandlerService(t))
	ctx := context.Background()

	resp, err := handler.HandleVehicleImport(ctx, &lambda.Request{
		Method: http.MethodPost,
		Path:   "/api/v1/tax/vehicle-import",
		Body:   []byte(`{"cif_value": 6000000, "powertrain": "petrol"}`),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	var vehicle services.VehicleImportResponse
	require.NoError(t, json.Unmarshal(resp.Body, &vehicle))
	assertDecimalEqual(t, "4558000", vehicle.Details.TotalTax)
	assertDecimalEqual(t, "2200000", vehicle.DutyOnly)

	resp, err = handler.HandleFuelEstimate(ctx, &lambda.Request{Body: []byte(`{"distance_km": 120}`)})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	var fuel services.FuelEstimateResponse
	require.NoError(t, json.Unmarshal(resp.Body, &fuel))
	assertDecimalEqual(t, "10", fuel.Estimate.Liters)
	assertDecimalEqual(t, "1618.525", fuel.Estimate.Tax.TotalTax)

	resp, err = handler.HandleStampDuty(ctx, &lambda.Request{Body: []byte(`not json`)})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = handler.HandleTaxInfo(ctx, &lambda.Request{PathParams: map[string]string{"country": "ZZ"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = handler.HandleTaxInfo(ctx, &lambda.Request{PathParams: map[string]string{"country": "LK"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "invalid input", err: fmt.Errorf("wrapped: %w", models.ErrInvalidInput), expectedStatus: http.StatusBadRequest},
		{name: "invalid category", err: models.ErrInvalidCategory, expectedStatus: http.StatusBadRequest},
		{name: "validation error", err: &models.ValidationError{Field: "country", Message: "bad"}, expectedStatus: http.StatusBadRequest},
		{name: "unsupported country", err: models.ErrUnsupportedCountry, expectedStatus: http.StatusNotFound},
		{name: "no convergence", err: models.ErrReverseSolveDidNotConverge, expectedStatus: http.StatusUnprocessableEntity},
		{name: "broken rule set", err: models.ErrInvalidRuleSet, expectedStatus: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorStatus(tt.err, "do work")
			assert.Equal(t, tt.expectedStatus, status)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestTaxHandler_RegisterLambdaRoutes(t *testing.T) {
	handler := NewTaxHandler(newTestHandlerService(t))
	router := lambda.NewRouter()
	handler.RegisterLambdaRoutes(router)
	ctx := context.Background()

	resp, err := router.Serve(ctx, &lambda.Request{
		Method: http.MethodPost,
		Path:   "/api/v1/tax/vat",
		Body:   []byte(`{"amount": 11800, "mode": "remove"}`),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	var vat services.VATResponse
	require.NoError(t, json.Unmarshal(resp.Body, &vat))
	assertDecimalEqual(t, "11800", vat.Result.GrossAmount)

	resp, err = router.Serve(ctx, &lambda.Request{Method: http.MethodGet, Path: "/api/v1/tax/info/LK"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = router.Serve(ctx, &lambda.Request{Method: http.MethodGet, Path: "/api/v1/tax/unknown"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
