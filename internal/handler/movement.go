package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fayedaihall/tesseracts-world/internal/broker"
	"github.com/fayedaihall/tesseracts-world/internal/domain"
)

// MovementHandler handles HTTP requests for quoting and accepting movements.
type MovementHandler struct {
	gateway *broker.Gateway
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(gateway *broker.Gateway) *MovementHandler {
	return &MovementHandler{gateway: gateway}
}

// MovementRequestBody is the HTTP request body for requesting quotes.
type MovementRequestBody struct {
	domain.MovementRequest
	MaxQuotes int `json:"max_quotes,omitempty"`
}

// RequestMovement handles POST /v1/movement/request
func (h *MovementHandler) RequestMovement(c *gin.Context) {
	var body MovementRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	resp, err := h.gateway.RequestMovement(c.Request.Context(), &body.MovementRequest, body.MaxQuotes)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, resp)
}

// AcceptQuoteRequest is the HTTP request body for accepting a quote.
type AcceptQuoteRequest struct {
	QuoteID string                 `json:"quote_id"`
	Request domain.MovementRequest `json:"request"`
}

// AcceptQuote handles POST /v1/movement/accept
func (h *MovementHandler) AcceptQuote(c *gin.Context) {
	var body AcceptQuoteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if body.QuoteID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "quote_id is required"})
		return
	}

	job, err := h.gateway.AcceptQuote(c.Request.Context(), body.QuoteID, &body.Request)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, job)
}
