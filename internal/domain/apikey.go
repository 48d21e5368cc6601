package domain

import "time"

// APIKey identifies a caller of the HTTP API.
type APIKey struct {
	Key                string
	Name               string
	IsActive           bool
	RateLimitPerMinute int
	CreatedAt          time.Time
	LastUsedAt         *time.Time
}
