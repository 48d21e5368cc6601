// Package provider defines the contract every backend integration implements.
// The broker depends only on this interface, never on concrete providers.
package provider

import (
	"context"
	"errors"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
)

var (
	// ErrJobNotFound is returned when a provider no longer recognizes a job.
	ErrJobNotFound = errors.New("provider does not recognize job")

	// ErrQuoteNotHonored is returned when a provider cannot honor an accepted quote.
	ErrQuoteNotHonored = errors.New("provider cannot honor quote")
)

// Coverage tags. Coverage is coarse-grained in this version; there is no
// per-coordinate geofencing.
const (
	CoverageGlobal = "global"
	CoverageLocal  = "local"
)

// Info carries a provider's static capability declarations.
type Info struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	ServiceTypes  []domain.ServiceType `json:"service_types"`
	CoverageAreas []string             `json:"coverage_areas"`
}

// Supports reports whether the provider declares support for the service type.
func (i Info) Supports(st domain.ServiceType) bool {
	for _, s := range i.ServiceTypes {
		if s == st {
			return true
		}
	}
	return false
}

// Covers reports whether the provider declares any recognized coverage tag.
func (i Info) Covers() bool {
	for _, area := range i.CoverageAreas {
		if area == CoverageGlobal || area == CoverageLocal {
			return true
		}
	}
	return false
}

// Provider is the capability contract for one movement backend. Every
// operation is independently callable and independently failable; callers are
// expected to bound each call with a context timeout.
type Provider interface {
	// Info returns the provider's static capability declarations.
	Info() Info

	// Quote returns a priced offer for the request, or (nil, nil) when the
	// provider has no offer. Errors are reserved for transport-level faults.
	Quote(ctx context.Context, req *domain.MovementRequest) (*domain.Quote, error)

	// CreateJob creates a job from an accepted quote. Returns
	// ErrQuoteNotHonored when the provider cannot fulfil the quote.
	CreateJob(ctx context.Context, quoteID string, req *domain.MovementRequest) (*domain.Job, error)

	// JobStatus returns the provider-reported state of a job. Returns
	// ErrJobNotFound when the provider no longer recognizes the id.
	JobStatus(ctx context.Context, providerJobID string) (*domain.JobUpdate, error)

	// CancelJob cancels a job. Returns (false, nil) when cancellation is
	// rejected, e.g. the job is already in progress.
	CancelJob(ctx context.Context, providerJobID string) (bool, error)

	// AvailableWorkers returns available workers near a location. Returns an
	// empty slice on failure, never an error.
	AvailableWorkers(ctx context.Context, loc domain.Location, radiusKm float64) []*domain.Worker

	// TrackJob returns the current location of a job's worker, or nil when
	// no position is known.
	TrackJob(ctx context.Context, providerJobID string) (*domain.Location, error)

	// HealthCheck reports whether the provider is reachable. It never
	// returns an error; internal faults map to false.
	HealthCheck(ctx context.Context) bool
}
