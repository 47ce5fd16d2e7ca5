package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"finance-tax-api/internal/models"
	"finance-tax-api/internal/services"
	"finance-tax-api/pkg/lambda"
)

// TaxHandler handles tax calculation HTTP requests
type TaxHandler struct {
	taxService services.TaxServiceInterface
}

// NewTaxHandler creates a new tax handler
func NewTaxHandler(taxService services.TaxServiceInterface) *TaxHandler {
	return &TaxHandler{
		taxService: taxService,
	}
}

// CategoriesResponse lists the item categories and vehicle powertrains the engine understands
type CategoriesResponse struct {
	Categories  []models.Category   `json:"categories"`
	Powertrains []models.Powertrain `json:"powertrains"`
}

// @Summary Calculate income tax
// @Description Apply the progressive income tax brackets of a country to an annual income
// @Tags tax
// @Accept json
// @Produce json
// @Param request body services.IncomeTaxRequest true "Annual income"
// @Success 200 {object} services.IncomeTaxResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tax/income [post]
func (h *TaxHandler) CalculateIncomeTax(c *gin.Context) {
	var req services.IncomeTaxRequest
	if !bindRequest(c, &req) {
		return
	}

	result, err := h.taxService.CalculateIncomeTax(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "calculate income tax")
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Compose shelf price taxes
// @Description Split a tax-inclusive shelf price into base price and tax components
// @Tags tax
// @Accept json
// @Produce json
// @Param request body services.ForwardTaxRequest true "Shelf price and item details"
// @Success 200 {object} services.TaxBreakdownResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tax/forward [post]
func (h *TaxHandler) ComposeForwardTax(c *gin.Context) {
	var req services.ForwardTaxRequest
	if !bindRequest(c, &req) {
		return
	}

	result, err := h.taxService.ComposeForwardTax(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "compose taxes")
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Decompose a final price
// @Description Recover the base price and the taxes embedded in a final price
// @Tags tax
// @Accept json
// @Produce json
// @Param request body services.ReverseTaxRequest true "Final price and optional item details"
// @Success 200 {object} services.TaxBreakdownResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tax/reverse [post]
func (h *TaxHandler) DecomposeReverseTax(c *gin.Context) {
	var req services.ReverseTaxRequest
	if !bindRequest(c, &req) {
		return
	}

	result, err := h.taxService.DecomposeReverseTax(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "decompose price")
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Calculate stamp duty
// @Description Calculate stamp duty on a lease value
// @Tags calculators
// @Accept json
// @Produce json
// @Param request body services.StampDutyRequest true "Lease value"
// @Success 200 {object} services.StampDutyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tax/stamp-duty [post]
func (h *TaxHandler) CalculateStampDuty(c *gin.Context) {
	var req services.StampDutyRequest
	if !bindRequest(c, &req) {
		return
	}

	result, err := h.taxService.CalculateStampDuty(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "calculate stamp duty")
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Calculate vehicle import taxes
// @Description Calculate customs duty, luxury tax, levies and VAT on an imported vehicle
// @Tags calculators
// @Accept json
// @Produce json
// @Param request body services.VehicleImportRequest true "CIF value and powertrain"
// @Success 200 {object} services.VehicleImportResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tax/vehicle-import [post]
func (h *TaxHandler) CalculateVehicleImportTax(c *gin.Context) {
	var req services.VehicleImportRequest
	if !bindRequest(c, &req) {
		return
	}

	result, err := h.taxService.CalculateVehicleImportTax(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "calculate vehicle import tax")
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Add or remove VAT
// @Description Add VAT to a net amount or extract it from a gross amount
// @Tags calculators
// @Accept json
// @Produce json
// @Param request body services.VATRequest true "Amount, mode and optional rate"
// @Success 200 {object} services.VATResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tax/vat [post]
func (h *TaxHandler) CalculateVAT(c *gin.Context) {
	var req services.VATRequest
	if !bindRequest(c, &req) {
		return
	}

	result, err := h.taxService.CalculateVAT(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "calculate VAT")
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Analyze a purchase
// @Description Classify a purchase description and break its price into taxes
// @Tags tax
// @Accept json
// @Produce json
// @Param request body services.PurchaseAnalysisRequest true "Purchase description and price"
// @Success 200 {object} services.PurchaseAnalysisResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tax/purchase [post]
func (h *TaxHandler) AnalyzePurchase(c *gin.Context) {
	var req services.PurchaseAnalysisRequest
	if !bindRequest(c, &req) {
		return
	}

	result, err := h.taxService.AnalyzePurchase(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "analyze purchase")
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Estimate fuel tax
// @Description Estimate the fuel taxes paid for a driven distance
// @Tags calculators
// @Accept json
// @Produce json
// @Param request body services.FuelEstimateRequest true "Distance in kilometers"
// @Success 200 {object} services.FuelEstimateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tax/fuel-estimate [post]
func (h *TaxHandler) EstimateFuelTax(c *gin.Context) {
	var req services.FuelEstimateRequest
	if !bindRequest(c, &req) {
		return
	}

	result, err := h.taxService.EstimateFuelTax(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "estimate fuel tax")
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary List supported countries
// @Description Get the rule sets loaded into the engine
// @Tags info
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /tax/countries [get]
func (h *TaxHandler) ListCountries(c *gin.Context) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success:   true,
		Data:      h.taxService.ListCountries(c.Request.Context()),
		Timestamp: time.Now().UTC(),
	})
}

// @Summary List categories
// @Description Get the item categories and vehicle powertrains
// @Tags info
// @Produce json
// @Success 200 {object} CategoriesResponse
// @Router /tax/categories [get]
func (h *TaxHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, CategoriesResponse{
		Categories:  models.AllCategories(),
		Powertrains: models.AllPowertrains(),
	})
}

// @Summary Get tax rates
// @Description Get the published rates and schedules of a country
// @Tags info
// @Produce json
// @Param country path string true "ISO country code"
// @Success 200 {object} services.TaxInfo
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tax/info/{country} [get]
func (h *TaxHandler) GetTaxInfo(c *gin.Context) {
	info, err := h.taxService.GetTaxInfo(c.Request.Context(), c.Param("country"))
	if err != nil {
		respondError(c, err, "get tax info")
		return
	}

	c.JSON(http.StatusOK, info)
}

// bindRequest decodes the JSON body and writes a 400 response when it cannot
func bindRequest(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return false
	}
	return true
}

func respondError(c *gin.Context, err error, action string) {
	_ = c.Error(err)
	status, body := errorStatus(err, action)
	c.JSON(status, body)
}

// Lambda handler methods

// HandleIncomeTax handles income tax requests for Lambda
func (h *TaxHandler) HandleIncomeTax(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	return handleLambda(ctx, req, "calculate income tax", h.taxService.CalculateIncomeTax)
}

// HandleForward handles shelf price composition requests for Lambda
func (h *TaxHandler) HandleForward(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	return handleLambda(ctx, req, "compose taxes", h.taxService.ComposeForwardTax)
}

// HandleReverse handles final price decomposition requests for Lambda
func (h *TaxHandler) HandleReverse(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	return handleLambda(ctx, req, "decompose price", h.taxService.DecomposeReverseTax)
}

// HandleStampDuty handles stamp duty requests for Lambda
func (h *TaxHandler) HandleStampDuty(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	return handleLambda(ctx, req, "calculate stamp duty", h.taxService.CalculateStampDuty)
}

// HandleVehicleImport handles vehicle import requests for Lambda
func (h *TaxHandler) HandleVehicleImport(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	return handleLambda(ctx, req, "calculate vehicle import tax", h.taxService.CalculateVehicleImportTax)
}

// HandleVAT handles VAT requests for Lambda
func (h *TaxHandler) HandleVAT(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	return handleLambda(ctx, req, "calculate VAT", h.taxService.CalculateVAT)
}

// HandlePurchase handles purchase analysis requests for Lambda
func (h *TaxHandler) HandlePurchase(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	return handleLambda(ctx, req, "analyze purchase", h.taxService.AnalyzePurchase)
}

// HandleFuelEstimate handles fuel tax estimation requests for Lambda
func (h *TaxHandler) HandleFuelEstimate(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	return handleLambda(ctx, req, "estimate fuel tax", h.taxService.EstimateFuelTax)
}

// HandleCountries lists the loaded rule sets for Lambda
func (h *TaxHandler) HandleCountries(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	return lambda.JSONResponse(http.StatusOK, models.APIResponse{
		Success:   true,
		Data:      h.taxService.ListCountries(ctx),
		Timestamp: time.Now().UTC(),
	}), nil
}

// HandleCategories lists categories and powertrains for Lambda
func (h *TaxHandler) HandleCategories(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	return lambda.JSONResponse(http.StatusOK, CategoriesResponse{
		Categories:  models.AllCategories(),
		Powertrains: models.AllPowertrains(),
	}), nil
}

// HandleTaxInfo returns the rates of the country in the path for Lambda
func (h *TaxHandler) HandleTaxInfo(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	info, err := h.taxService.GetTaxInfo(ctx, req.PathParams["country"])
	if err != nil {
		status, body := errorStatus(err, "get tax info")
		return lambda.JSONResponse(status, body), nil
	}

	return lambda.JSONResponse(http.StatusOK, info), nil
}

// handleLambda decodes the body into a fresh request, runs the operation and encodes the outcome
func handleLambda[Req any, Resp any](
	ctx context.Context,
	req *lambda.Request,
	action string,
	operation func(context.Context, *Req) (*Resp, error),
) (*lambda.Response, error) {
	var input Req
	if err := json.Unmarshal(req.Body, &input); err != nil {
		return lambda.JSONResponse(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		}), nil
	}

	result, err := operation(ctx, &input)
	if err != nil {
		status, body := errorStatus(err, action)
		return lambda.JSONResponse(status, body), nil
	}

	return lambda.JSONResponse(http.StatusOK, result), nil
}

// RegisterLambdaRoutes mounts the Lambda handlers on the same paths as the HTTP API
func (h *TaxHandler) RegisterLambdaRoutes(router *lambda.Router) {
	router.Handle(http.MethodPost, "/api/v1/tax/income", h.HandleIncomeTax)
	router.Handle(http.MethodPost, "/api/v1/tax/forward", h.HandleForward)
	router.Handle(http.MethodPost, "/api/v1/tax/reverse", h.HandleReverse)
	router.Handle(http.MethodPost, "/api/v1/tax/purchase", h.HandlePurchase)
	router.Handle(http.MethodPost, "/api/v1/tax/stamp-duty", h.HandleStampDuty)
	router.Handle(http.MethodPost, "/api/v1/tax/vehicle-import", h.HandleVehicleImport)
	router.Handle(http.MethodPost, "/api/v1/tax/vat", h.HandleVAT)
	router.Handle(http.MethodPost, "/api/v1/tax/fuel-estimate", h.HandleFuelEstimate)
	router.Handle(http.MethodGet, "/api/v1/tax/countries", h.HandleCountries)
	router.Handle(http.MethodGet, "/api/v1/tax/categories", h.HandleCategories)
	router.HandlePrefix(http.MethodGet, "/api/v1/tax/info", "country", h.HandleTaxInfo)
}
