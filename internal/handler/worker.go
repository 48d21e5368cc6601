package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fayedaihall/tesseracts-world/internal/broker"
	"github.com/fayedaihall/tesseracts-world/internal/domain"
)

const defaultWorkerRadiusKm = 10.0

// WorkerHandler handles HTTP requests for worker availability.
type WorkerHandler struct {
	gateway *broker.Gateway
}

// NewWorkerHandler creates a new WorkerHandler.
func NewWorkerHandler(gateway *broker.Gateway) *WorkerHandler {
	return &WorkerHandler{gateway: gateway}
}

// AvailableWorkers handles GET /v1/workers
func (h *WorkerHandler) AvailableWorkers(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "latitude is required"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "longitude is required"})
		return
	}

	serviceType := domain.ServiceType(c.DefaultQuery("service_type", string(domain.ServiceRideshare)))

	radiusKm := defaultWorkerRadiusKm
	if raw := c.Query("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "radius_km must be a positive number"})
			return
		}
		radiusKm = parsed
	}

	workers, err := h.gateway.AvailableWorkers(c.Request.Context(), domain.Location{Latitude: lat, Longitude: lng}, serviceType, radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"workers": workers, "count": len(workers)})
}
