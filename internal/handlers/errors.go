package handlers

import (
	"errors"
	"net/http"

	"finance-tax-api/internal/middleware"
	"finance-tax-api/internal/models"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error            string                       `json:"error"`
	Message          string                       `json:"message"`
	ValidationErrors []middleware.ValidationError `json:"validation_errors,omitempty"`
}

// isValidationError checks if an error was caused by the request payload
func isValidationError(err error) bool {
	if err == nil {
		return false
	}
	return models.IsInputError(err)
}

// isNotFoundError checks if an error is a not found error
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, models.ErrUnsupportedCountry)
}

// isUnprocessableError checks if the input was well formed but could not be solved
func isUnprocessableError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, models.ErrReverseSolveDidNotConverge)
}

// errorStatus maps a service error onto an HTTP status and a short error title
func errorStatus(err error, action string) (int, ErrorResponse) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, ErrorResponse{
			Error:            "Validation failed",
			Message:          err.Error(),
			ValidationErrors: middleware.FormatValidationErrors(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, ErrorResponse{Error: "Country not supported", Message: err.Error()}
	case isUnprocessableError(err):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "Calculation did not converge", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Failed to " + action, Message: err.Error()}
	}
}
