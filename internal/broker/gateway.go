// Package broker orchestrates movement brokering across all registered
// providers: quote fan-out and ranking, at-most-once quote acceptance, and
// job lifecycle tracking mirrored from provider-owned truth.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
	"github.com/fayedaihall/tesseracts-world/internal/events"
	"github.com/fayedaihall/tesseracts-world/internal/geo"
	"github.com/fayedaihall/tesseracts-world/internal/jobregistry"
	"github.com/fayedaihall/tesseracts-world/internal/observability"
	"github.com/fayedaihall/tesseracts-world/internal/provider"
	"github.com/fayedaihall/tesseracts-world/internal/quotecache"
	"github.com/fayedaihall/tesseracts-world/internal/scoring"
)

// Gateway composes the scorer, quote cache, and job registry to serve every
// brokering operation. The provider set is fixed for the process lifetime.
type Gateway struct {
	providerOrder   []provider.Provider
	providers       map[string]provider.Provider
	scorer          *scoring.Scorer
	quotes          *quotecache.Cache
	jobs            *jobregistry.Registry
	events          events.Publisher
	providerTimeout time.Duration
}

// NewGateway wires the gateway with its dependencies. Passing a nil publisher
// disables push events.
func NewGateway(
	providers []provider.Provider,
	scorer *scoring.Scorer,
	quotes *quotecache.Cache,
	jobs *jobregistry.Registry,
	publisher events.Publisher,
	providerTimeout time.Duration,
) *Gateway {
	byID := make(map[string]provider.Provider, len(providers))
	for _, p := range providers {
		byID[p.Info().ID] = p
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Gateway{
		providerOrder:   providers,
		providers:       byID,
		scorer:          scorer,
		quotes:          quotes,
		jobs:            jobs,
		events:          publisher,
		providerTimeout: providerTimeout,
	}
}

func validateRequest(req *domain.MovementRequest) error {
	if !req.ServiceType.Valid() {
		return ErrInvalidServiceType
	}
	if req.Priority == "" {
		req.Priority = domain.PriorityNormal
	}
	if !req.Priority.Valid() {
		return ErrInvalidPriority
	}
	if err := req.PickupLocation.Validate(); err != nil {
		return err
	}
	return req.DropoffLocation.Validate()
}

// RequestMovement gathers ranked quotes for the request and caches them for
// later acceptance. No job is created. An empty quote list means no offers
// are currently available; callers may retry later.
func (g *Gateway) RequestMovement(ctx context.Context, req *domain.MovementRequest, maxQuotes int) (*domain.MovementResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	log.Printf("processing movement request: %s from (%.4f, %.4f) to (%.4f, %.4f)",
		req.ServiceType,
		req.PickupLocation.Latitude, req.PickupLocation.Longitude,
		req.DropoffLocation.Latitude, req.DropoffLocation.Longitude)

	quotes := g.scorer.OptimalQuotes(ctx, req, maxQuotes)
	for _, q := range quotes {
		g.quotes.Put(q)
	}
	observability.QuotesIssued.Add(float64(len(quotes)))

	requestID := "req_" + uuid.New().String()[:8]
	response := &domain.MovementResponse{
		RequestID: requestID,
		Quotes:    quotes,
		CreatedAt: time.Now().UTC(),
	}
	if len(quotes) > 0 {
		response.RecommendedQuoteID = quotes[0].QuoteID
	}

	log.Printf("returning %d quotes for request %s", len(quotes), requestID)
	return response, nil
}

// AcceptQuote consumes a cached quote and creates a job with its provider.
// The quote is consumed before the provider call: if CreateJob fails, the
// quote is already gone and the caller must request fresh quotes. This
// trade-off keeps acceptance at-most-once.
func (g *Gateway) AcceptQuote(ctx context.Context, quoteID string, req *domain.MovementRequest) (*domain.Job, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	quote, err := g.quotes.TakeIfValid(quoteID)
	switch {
	case errors.Is(err, quotecache.ErrExpired):
		return nil, ErrQuoteExpired
	case errors.Is(err, quotecache.ErrNotFound):
		return nil, ErrQuoteNotFound
	case err != nil:
		return nil, err
	}

	p, ok := g.providers[quote.ProviderID]
	if !ok {
		return nil, ErrProviderNotFound
	}

	callCtx, cancel := context.WithTimeout(ctx, g.providerTimeout)
	defer cancel()

	job, err := p.CreateJob(callCtx, quoteID, req)
	if err != nil {
		observability.ProviderFaults.WithLabelValues(quote.ProviderID, "create_job").Inc()
		return nil, fmt.Errorf("creating job with %s: %w", quote.ProviderID, err)
	}

	if err := g.jobs.Add(job); err != nil {
		return nil, err
	}
	observability.JobsCreated.Inc()

	g.events.Publish(events.Event{
		Type:       events.EventJobCreated,
		JobID:      job.ID,
		Status:     string(job.Status),
		ProviderID: job.ProviderID,
	})

	log.Printf("created job %s with provider %s", job.ID, quote.ProviderID)
	return job, nil
}

// JobStatus returns the provider-reported state of a job and refreshes the
// local mirror. The provider is the source of truth; a mirror update the
// state machine rejects is logged, never applied.
func (g *Gateway) JobStatus(ctx context.Context, jobID string) (*domain.JobUpdate, error) {
	job, err := g.jobs.Get(jobID)
	if err != nil {
		return nil, ErrJobNotFound
	}

	p, ok := g.providers[job.ProviderID]
	if !ok {
		return nil, ErrProviderNotFound
	}

	callCtx, cancel := context.WithTimeout(ctx, g.providerTimeout)
	defer cancel()

	update, err := p.JobStatus(callCtx, job.ProviderJobID)
	if err != nil {
		observability.ProviderFaults.WithLabelValues(job.ProviderID, "job_status").Inc()
		if errors.Is(err, provider.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("fetching status from %s: %w", job.ProviderID, err)
	}

	update.JobID = jobID
	if err := g.jobs.UpdateStatus(jobID, update.Status, update.Timestamp); err != nil {
		if !errors.Is(err, jobregistry.ErrInvalidTransition) {
			return nil, err
		}
		log.Printf("ignoring provider status %s for job %s: %v", update.Status, jobID, err)
	}

	return update, nil
}

// CancelJob asks the owning provider to cancel the job. On success the mirror
// is marked cancelled and a push event is emitted. A false return means the
// provider rejected the cancellation.
func (g *Gateway) CancelJob(ctx context.Context, jobID string) (bool, error) {
	job, err := g.jobs.Get(jobID)
	if err != nil {
		return false, ErrJobNotFound
	}

	p, ok := g.providers[job.ProviderID]
	if !ok {
		return false, ErrProviderNotFound
	}

	callCtx, cancel := context.WithTimeout(ctx, g.providerTimeout)
	defer cancel()

	ok, err = p.CancelJob(callCtx, job.ProviderJobID)
	if err != nil {
		observability.ProviderFaults.WithLabelValues(job.ProviderID, "cancel_job").Inc()
		return false, fmt.Errorf("cancelling job with %s: %w", job.ProviderID, err)
	}
	if !ok {
		return false, nil
	}

	if err := g.jobs.UpdateStatus(jobID, domain.JobStatusCancelled, time.Now().UTC()); err != nil {
		log.Printf("failed to mirror cancellation of job %s: %v", jobID, err)
	}
	observability.JobsCancelled.Inc()

	g.events.Publish(events.Event{
		Type:  events.EventJobCancelled,
		JobID: jobID,
	})

	log.Printf("cancelled job %s", jobID)
	return true, nil
}

// TrackJob returns the current location of a job's worker. Pure passthrough;
// the registry is not touched.
func (g *Gateway) TrackJob(ctx context.Context, jobID string) (*domain.Location, error) {
	job, err := g.jobs.Get(jobID)
	if err != nil {
		return nil, ErrJobNotFound
	}

	p, ok := g.providers[job.ProviderID]
	if !ok {
		return nil, ErrProviderNotFound
	}

	callCtx, cancel := context.WithTimeout(ctx, g.providerTimeout)
	defer cancel()
	return p.TrackJob(callCtx, job.ProviderJobID)
}

// WorkerSummary is the aggregate view of one available worker, augmented with
// the distance from the queried location.
type WorkerSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Rating      *float64 `json:"rating,omitempty"`
	VehicleType string   `json:"vehicle_type,omitempty"`
	ProviderID  string   `json:"provider"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
}

// AvailableWorkers aggregates available workers from every provider that
// supports the service type. A failing provider contributes nothing and never
// affects the others.
func (g *Gateway) AvailableWorkers(ctx context.Context, loc domain.Location, serviceType domain.ServiceType, radiusKm float64) ([]*WorkerSummary, error) {
	if !serviceType.Valid() {
		return nil, ErrInvalidServiceType
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	capable := make([]provider.Provider, 0, len(g.providerOrder))
	for _, p := range g.providerOrder {
		if p.Info().Supports(serviceType) {
			capable = append(capable, p)
		}
	}

	results := make([][]*domain.Worker, len(capable))
	var wg sync.WaitGroup
	wg.Add(len(capable))
	for i, p := range capable {
		go func(i int, p provider.Provider) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, g.providerTimeout)
			defer cancel()
			results[i] = p.AvailableWorkers(callCtx, loc, radiusKm)
		}(i, p)
	}
	wg.Wait()

	summaries := make([]*WorkerSummary, 0)
	for _, workers := range results {
		for _, w := range workers {
			summary := &WorkerSummary{
				ID:         w.ID,
				Name:       w.Name,
				Rating:     w.Rating,
				ProviderID: w.ProviderID,
			}
			if w.Vehicle != nil {
				summary.VehicleType = w.Vehicle.Type
			}
			if w.CurrentLocation != nil {
				d := geo.DistanceKm(loc, *w.CurrentLocation)
				summary.DistanceKm = &d
			}
			summaries = append(summaries, summary)
		}
	}
	return summaries, nil
}

// JobHistory returns up to limit jobs, most recent first.
func (g *Gateway) JobHistory(limit int) []*domain.Job {
	if limit <= 0 {
		limit = 50
	}
	return g.jobs.List(limit)
}

// ProviderHealth fans a health check out to every provider concurrently.
func (g *Gateway) ProviderHealth(ctx context.Context) map[string]bool {
	return g.scorer.ProviderHealth(ctx)
}

// UpdateWeights reconfigures the scorer's signal weights. Invalid weights are
// rejected and the previous configuration stays active.
func (g *Gateway) UpdateWeights(w scoring.Weights) error {
	return g.scorer.UpdateWeights(w)
}

// CleanupExpiredQuotes runs one expiry sweep over the quote cache. Intended
// to run on a fixed interval for the lifetime of the process.
func (g *Gateway) CleanupExpiredQuotes() {
	removed := g.quotes.SweepExpired(time.Now().UTC())
	if removed > 0 {
		observability.QuotesSwept.Add(float64(removed))
		log.Printf("cleaned up %d expired quotes", removed)
	}
}
