package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fayedaihall/tesseracts-world/internal/broker"
)

// JobHandler handles HTTP requests for jobs.
type JobHandler struct {
	gateway *broker.Gateway
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(gateway *broker.Gateway) *JobHandler {
	return &JobHandler{gateway: gateway}
}

// ListJobs handles GET /v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	jobs := h.gateway.JobHistory(limit)
	respondJSON(c, http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// JobStatus handles GET /v1/jobs/:id/status
func (h *JobHandler) JobStatus(c *gin.Context) {
	update, err := h.gateway.JobStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, update)
}

// CancelJob handles DELETE /v1/jobs/:id
func (h *JobHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("id")
	ok, err := h.gateway.CancelJob(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "provider rejected the cancellation"})
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"job_id": jobID, "cancelled": true})
}

// TrackJob handles GET /v1/jobs/:id/track
func (h *JobHandler) TrackJob(c *gin.Context) {
	jobID := c.Param("id")
	loc, err := h.gateway.TrackJob(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	if loc == nil {
		respondJSON(c, http.StatusOK, gin.H{"job_id": jobID, "location": nil, "message": "location not yet available"})
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"job_id": jobID, "location": loc})
}
