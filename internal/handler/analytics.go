package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fayedaihall/tesseracts-world/internal/broker"
	"github.com/fayedaihall/tesseracts-world/internal/scoring"
)

// AnalyticsHandler handles HTTP requests for analytics and operations.
type AnalyticsHandler struct {
	gateway *broker.Gateway
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(gateway *broker.Gateway) *AnalyticsHandler {
	return &AnalyticsHandler{gateway: gateway}
}

// Analytics handles GET /v1/analytics
func (h *AnalyticsHandler) Analytics(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.gateway.Analytics(c.Request.Context()))
}

// ProviderHealth handles GET /v1/health
func (h *AnalyticsHandler) ProviderHealth(c *gin.Context) {
	health := h.gateway.ProviderHealth(c.Request.Context())

	status := http.StatusOK
	allHealthy := true
	for _, ok := range health {
		if !ok {
			allHealthy = false
			break
		}
	}
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}

	respondJSON(c, status, gin.H{"healthy": allHealthy, "providers": health})
}

// UpdateWeightsRequest is the HTTP request body for tuning scoring weights.
type UpdateWeightsRequest struct {
	Cost        float64 `json:"cost"`
	Time        float64 `json:"time"`
	Reliability float64 `json:"reliability"`
	Quality     float64 `json:"quality"`
}

// UpdateWeights handles PUT /v1/analytics/weights
func (h *AnalyticsHandler) UpdateWeights(c *gin.Context) {
	var body UpdateWeightsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	weights := scoring.Weights{
		Cost:        body.Cost,
		Time:        body.Time,
		Reliability: body.Reliability,
		Quality:     body.Quality,
	}
	if err := h.gateway.UpdateWeights(weights); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"weights": weights})
}
