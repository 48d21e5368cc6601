package repository

import (
	"context"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
)

// APIKeyRepository defines the persistence operations for API keys.
type APIKeyRepository interface {
	// Create adds a new API key.
	Create(ctx context.Context, key *domain.APIKey) error

	// GetByKey retrieves an API key by its value.
	GetByKey(ctx context.Context, key string) (*domain.APIKey, error)

	// TouchLastUsed records the time a key was last used.
	TouchLastUsed(ctx context.Context, key string) error

	// Deactivate disables an API key.
	Deactivate(ctx context.Context, key string) error
}
