package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fayedaihall/tesseracts-world/internal/broker"
	"github.com/fayedaihall/tesseracts-world/internal/domain"
	"github.com/fayedaihall/tesseracts-world/internal/repository"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps broker/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, broker.ErrQuoteNotFound),
		errors.Is(err, broker.ErrJobNotFound),
		errors.Is(err, broker.ErrProviderNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// An expired quote is distinguishable from one that never existed
	case errors.Is(err, broker.ErrQuoteExpired):
		return http.StatusGone

	// Validation errors - Bad Request
	case errors.Is(err, broker.ErrInvalidServiceType),
		errors.Is(err, broker.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidLatitude),
		errors.Is(err, domain.ErrInvalidLongitude),
		errors.Is(err, domain.ErrQuoteExpiryBeforeIssue),
		errors.Is(err, domain.ErrInvalidConfidence):
		return http.StatusBadRequest

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
