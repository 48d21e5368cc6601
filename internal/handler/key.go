package handler

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
	"github.com/fayedaihall/tesseracts-world/internal/repository"
)

const defaultRateLimitPerMinute = 100

// APIKeyHandler handles HTTP requests for API key management.
type APIKeyHandler struct {
	keys repository.APIKeyRepository
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(keys repository.APIKeyRepository) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

// CreateKeyRequest is the HTTP request body for issuing an API key.
type CreateKeyRequest struct {
	Name               string `json:"name"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute,omitempty"`
}

// CreateKeyResponse is the HTTP response for issuing an API key. The key
// value is only returned here; it cannot be recovered later.
type CreateKeyResponse struct {
	Key                string    `json:"key"`
	Name               string    `json:"name"`
	RateLimitPerMinute int       `json:"rate_limit_per_minute"`
	CreatedAt          time.Time `json:"created_at"`
}

// CreateKey handles POST /v1/keys
func (h *APIKeyHandler) CreateKey(c *gin.Context) {
	var body CreateKeyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if body.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name is required"})
		return
	}
	if body.RateLimitPerMinute <= 0 {
		body.RateLimitPerMinute = defaultRateLimitPerMinute
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		respondError(c, err)
		return
	}

	key := &domain.APIKey{
		Key:                "tw_" + base64.RawURLEncoding.EncodeToString(raw),
		Name:               body.Name,
		IsActive:           true,
		RateLimitPerMinute: body.RateLimitPerMinute,
		CreatedAt:          time.Now().UTC(),
	}
	if err := h.keys.Create(c.Request.Context(), key); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateKeyResponse{
		Key:                key.Key,
		Name:               key.Name,
		RateLimitPerMinute: key.RateLimitPerMinute,
		CreatedAt:          key.CreatedAt,
	})
}

// RevokeKey handles DELETE /v1/keys/:key
func (h *APIKeyHandler) RevokeKey(c *gin.Context) {
	if err := h.keys.Deactivate(c.Request.Context(), c.Param("key")); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"revoked": true})
}
