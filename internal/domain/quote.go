package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrQuoteExpiryBeforeIssue is returned when a quote expires at or before its issue time.
	ErrQuoteExpiryBeforeIssue = errors.New("quote expiry must be after issue time")

	// ErrInvalidConfidence is returned when a confidence score is outside [0, 1].
	ErrInvalidConfidence = errors.New("confidence score must be between 0 and 1")
)

// Quote is a time-boxed, priced offer from one provider for one movement
// request. Quotes are immutable after creation and owned by the quote cache
// until consumed or expired.
type Quote struct {
	QuoteID               string          `json:"quote_id"`
	ProviderID            string          `json:"provider_id"`
	ServiceType           ServiceType     `json:"service_type"`
	EstimatedCost         decimal.Decimal `json:"estimated_cost"`
	Currency              string          `json:"currency"`
	EstimatedPickupTime   time.Time       `json:"estimated_pickup_time"`
	EstimatedDeliveryTime time.Time       `json:"estimated_delivery_time"`
	EstimatedDurationMin  int             `json:"estimated_duration_minutes"`
	WorkerInfo            *Worker         `json:"worker_info,omitempty"`
	IssuedAt              time.Time       `json:"issued_at"`
	ExpiresAt             time.Time       `json:"expires_at"`
	ConfidenceScore       float64         `json:"confidence_score"`
}

// Validate checks the quote invariants: expiry strictly after issue time and
// confidence within [0, 1].
func (q *Quote) Validate() error {
	if !q.ExpiresAt.After(q.IssuedAt) {
		return ErrQuoteExpiryBeforeIssue
	}
	if q.ConfidenceScore < 0 || q.ConfidenceScore > 1 {
		return ErrInvalidConfidence
	}
	return nil
}

// Expired reports whether the quote is past its expiry at the given instant.
func (q *Quote) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}
