package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
	"github.com/fayedaihall/tesseracts-world/internal/repository"
)

// APIKeyRepository is a PostgreSQL implementation of repository.APIKeyRepository.
type APIKeyRepository struct {
	q Querier
}

// NewAPIKeyRepository creates a new PostgreSQL API key repository.
func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{q: db}
}

// Create adds a new API key.
func (r *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	query := `INSERT INTO api_keys (key, name, is_active, rate_limit_per_minute, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query,
		key.Key, key.Name, key.IsActive, key.RateLimitPerMinute, key.CreatedAt)
	return err
}

// GetByKey retrieves an API key by its value.
func (r *APIKeyRepository) GetByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	query := `SELECT key, name, is_active, rate_limit_per_minute, created_at, last_used_at
		FROM api_keys WHERE key = $1`
	row := r.q.QueryRowContext(ctx, query, key)

	var apiKey domain.APIKey
	var lastUsed sql.NullTime
	err := row.Scan(&apiKey.Key, &apiKey.Name, &apiKey.IsActive,
		&apiKey.RateLimitPerMinute, &apiKey.CreatedAt, &lastUsed)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		apiKey.LastUsedAt = &lastUsed.Time
	}
	return &apiKey, nil
}

// TouchLastUsed records the time a key was last used.
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, key string) error {
	query := `UPDATE api_keys SET last_used_at = $1 WHERE key = $2`
	result, err := r.q.ExecContext(ctx, query, time.Now().UTC(), key)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Deactivate disables an API key.
func (r *APIKeyRepository) Deactivate(ctx context.Context, key string) error {
	query := `UPDATE api_keys SET is_active = false WHERE key = $1`
	result, err := r.q.ExecContext(ctx, query, key)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
