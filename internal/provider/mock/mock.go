// Package mock implements an in-process gig-work provider. It is used for
// local development, demos, and as the reference provider in tests.
package mock

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
	"github.com/fayedaihall/tesseracts-world/internal/geo"
	"github.com/fayedaihall/tesseracts-world/internal/provider"
)

const (
	quoteTTL         = 20 * time.Minute
	workerFleetSize  = 10
	baseCostUSD      = "5.00"
	perKmCostUSD     = 2.5
	minDurationMin   = 10
	progressDuration = 30 * time.Minute // simulated time from pickup to delivery
)

// priorityMultiplier scales the base price by request priority.
var priorityMultiplier = map[domain.Priority]float64{
	domain.PriorityLow:    0.8,
	domain.PriorityNormal: 1.0,
	domain.PriorityHigh:   1.3,
	domain.PriorityUrgent: 1.8,
}

type trackedJob struct {
	job      *domain.Job
	workerID string
}

// Provider simulates a local gig-work fleet around a home location.
type Provider struct {
	info provider.Info

	mu      sync.Mutex
	rng     *rand.Rand
	workers []*domain.Worker
	jobs    map[string]*trackedJob
}

// New creates a mock provider with a deterministic worker fleet seeded from
// the provider name, centered on the given home location.
func New(name string, home domain.Location) *Provider {
	id := "local_" + sanitize(name)
	p := &Provider{
		info: provider.Info{
			ID:   id,
			Name: name,
			ServiceTypes: []domain.ServiceType{
				domain.ServiceDelivery,
				domain.ServiceCourier,
				domain.ServiceGigWork,
			},
			CoverageAreas: []string{provider.CoverageLocal, "city"},
		},
		rng:  rand.New(rand.NewSource(int64(seedFrom(name)))),
		jobs: make(map[string]*trackedJob),
	}
	p.workers = p.generateWorkers(home)
	return p
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		}
	}
	return string(out)
}

func seedFrom(name string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= 16777619
	}
	return h
}

func (p *Provider) generateWorkers(home domain.Location) []*domain.Worker {
	vehicleTypes := []string{"bike", "car", "scooter", "walking"}

	workers := make([]*domain.Worker, 0, workerFleetSize)
	for i := 0; i < workerFleetSize; i++ {
		vt := vehicleTypes[p.rng.Intn(len(vehicleTypes))]
		rating := 3.5 + p.rng.Float64()*1.5

		vehicle := &domain.Vehicle{Type: vt, CapacityKg: 15}
		if vt == "car" {
			vehicle.CapacityKg = 50
			vehicle.LicensePlate = fmt.Sprintf("LOC%03d", i)
		}

		workers = append(workers, &domain.Worker{
			ID:     fmt.Sprintf("%s_worker_%d", p.info.ID, i),
			Name:   fmt.Sprintf("Worker %d", i+1),
			Phone:  fmt.Sprintf("+1555000%04d", i),
			Rating: &rating,
			Vehicle: vehicle,
			CurrentLocation: &domain.Location{
				Latitude:  home.Latitude + (p.rng.Float64()-0.5)*0.2,
				Longitude: home.Longitude + (p.rng.Float64()-0.5)*0.2,
			},
			IsAvailable:      p.rng.Intn(4) != 0, // ~75% available
			ProviderID:       p.info.ID,
			ProviderWorkerID: fmt.Sprintf("worker_%d", i),
		})
	}
	return workers
}

// Info returns the provider's static capability declarations.
func (p *Provider) Info() provider.Info { return p.info }

// Quote prices the request by trip distance with a priority multiplier.
func (p *Provider) Quote(ctx context.Context, req *domain.MovementRequest) (*domain.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	distanceKm := geo.DistanceKm(req.PickupLocation, req.DropoffLocation)

	base, _ := decimal.NewFromString(baseCostUSD)
	cost := base.Add(decimal.NewFromFloat(distanceKm * perKmCostUSD))

	multiplier, ok := priorityMultiplier[req.Priority]
	if !ok {
		multiplier = 1.0
	}
	cost = cost.Mul(decimal.NewFromFloat(multiplier)).Round(2)

	durationMin := int(distanceKm * 3) // ~3 min per km
	if durationMin < minDurationMin {
		durationMin = minDurationMin
	}

	now := time.Now().UTC()
	pickupDelay := 15 * time.Minute
	if req.Priority == domain.PriorityUrgent {
		pickupDelay = 5 * time.Minute
	}

	pickupTime := now.Add(pickupDelay)
	if req.RequestedPickupTime != nil {
		pickupTime = *req.RequestedPickupTime
	}
	deliveryTime := pickupTime.Add(time.Duration(durationMin) * time.Minute)

	var workerInfo *domain.Worker
	if available := p.availableWorkersLocked(); len(available) > 0 {
		workerInfo = available[p.rng.Intn(len(available))]
	}

	return &domain.Quote{
		QuoteID:               fmt.Sprintf("%s_%s", p.info.ID, uuid.New().String()[:8]),
		ProviderID:            p.info.ID,
		ServiceType:           req.ServiceType,
		EstimatedCost:         cost,
		Currency:              "USD",
		EstimatedPickupTime:   pickupTime,
		EstimatedDeliveryTime: deliveryTime,
		EstimatedDurationMin:  durationMin,
		WorkerInfo:            workerInfo,
		IssuedAt:              now,
		ExpiresAt:             now.Add(quoteTTL),
		ConfidenceScore:       0.9,
	}, nil
}

// CreateJob assigns an available worker and starts tracking the job.
func (p *Provider) CreateJob(ctx context.Context, quoteID string, req *domain.MovementRequest) (*domain.Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	jobID := fmt.Sprintf("%s_%s", p.info.ID, uuid.New().String()[:8])

	var assigned *domain.Worker
	if available := p.availableWorkersLocked(); len(available) > 0 {
		assigned = available[p.rng.Intn(len(available))]
		assigned.IsAvailable = false
	}

	status := domain.JobStatusPending
	if assigned != nil {
		status = domain.JobStatusAssigned
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:                  jobID,
		ServiceType:         req.ServiceType,
		Status:              status,
		Priority:            req.Priority,
		PickupLocation:      req.PickupLocation,
		DropoffLocation:     req.DropoffLocation,
		AssignedWorker:      assigned,
		ProviderID:          p.info.ID,
		ProviderJobID:       jobID,
		Currency:            "USD",
		RequestedPickupTime: req.RequestedPickupTime,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	workerID := ""
	if assigned != nil {
		workerID = assigned.ID
	}
	p.jobs[jobID] = &trackedJob{job: job, workerID: workerID}
	return job, nil
}

// JobStatus advances the simulated job and reports its state.
func (p *Provider) JobStatus(ctx context.Context, providerJobID string) (*domain.JobUpdate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracked, ok := p.jobs[providerJobID]
	if !ok {
		return nil, provider.ErrJobNotFound
	}

	job := tracked.job
	now := time.Now().UTC()
	p.advanceLocked(tracked, now)

	return &domain.JobUpdate{
		JobID:     providerJobID,
		Status:    job.Status,
		Location:  p.positionLocked(tracked, now),
		Message:   fmt.Sprintf("Job %s with %s", job.Status, p.info.Name),
		Timestamp: now,
	}, nil
}

// advanceLocked simulates job progression driven by wall-clock time.
func (p *Provider) advanceLocked(tracked *trackedJob, now time.Time) {
	job := tracked.job
	switch job.Status {
	case domain.JobStatusAssigned:
		if job.RequestedPickupTime != nil && !now.Before(*job.RequestedPickupTime) {
			job.Status = domain.JobStatusInProgress
			t := now
			job.ActualPickupTime = &t
			job.UpdatedAt = now
		}
	case domain.JobStatusInProgress:
		if job.ActualPickupTime != nil && now.Sub(*job.ActualPickupTime) >= progressDuration {
			job.Status = domain.JobStatusCompleted
			t := now
			job.ActualDeliveryTime = &t
			job.UpdatedAt = now
			p.releaseWorkerLocked(tracked.workerID)
		}
	}
}

// positionLocked interpolates the worker between pickup and dropoff while the
// job is in progress.
func (p *Provider) positionLocked(tracked *trackedJob, now time.Time) *domain.Location {
	job := tracked.job
	if job.Status != domain.JobStatusInProgress || job.ActualPickupTime == nil {
		return nil
	}

	progress := now.Sub(*job.ActualPickupTime).Seconds() / progressDuration.Seconds()
	if progress > 1 {
		progress = 1
	}

	pickup, dropoff := job.PickupLocation, job.DropoffLocation
	return &domain.Location{
		Latitude:  pickup.Latitude + (dropoff.Latitude-pickup.Latitude)*progress,
		Longitude: pickup.Longitude + (dropoff.Longitude-pickup.Longitude)*progress,
	}
}

// CancelJob cancels a tracked job and frees its worker. Unknown jobs return
// false rather than an error.
func (p *Provider) CancelJob(ctx context.Context, providerJobID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracked, ok := p.jobs[providerJobID]
	if !ok {
		return false, nil
	}
	if tracked.job.Status.Terminal() {
		return false, nil
	}

	tracked.job.Status = domain.JobStatusCancelled
	tracked.job.UpdatedAt = time.Now().UTC()
	p.releaseWorkerLocked(tracked.workerID)
	return true, nil
}

// AvailableWorkers returns available workers within the radius.
func (p *Provider) AvailableWorkers(ctx context.Context, loc domain.Location, radiusKm float64) []*domain.Worker {
	p.mu.Lock()
	defer p.mu.Unlock()

	workers := make([]*domain.Worker, 0)
	for _, w := range p.workers {
		if !w.IsAvailable || w.CurrentLocation == nil {
			continue
		}
		if geo.DistanceKm(*w.CurrentLocation, loc) <= radiusKm {
			cp := *w
			workers = append(workers, &cp)
		}
	}
	return workers
}

// TrackJob returns the simulated position of the job's worker.
func (p *Provider) TrackJob(ctx context.Context, providerJobID string) (*domain.Location, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracked, ok := p.jobs[providerJobID]
	if !ok {
		return nil, provider.ErrJobNotFound
	}

	now := time.Now().UTC()
	p.advanceLocked(tracked, now)
	return p.positionLocked(tracked, now), nil
}

// HealthCheck always succeeds for the in-process provider.
func (p *Provider) HealthCheck(ctx context.Context) bool { return true }

func (p *Provider) availableWorkersLocked() []*domain.Worker {
	available := make([]*domain.Worker, 0, len(p.workers))
	for _, w := range p.workers {
		if w.IsAvailable {
			available = append(available, w)
		}
	}
	return available
}

func (p *Provider) releaseWorkerLocked(workerID string) {
	if workerID == "" {
		return
	}
	for _, w := range p.workers {
		if w.ID == workerID {
			w.IsAvailable = true
			return
		}
	}
}

var _ provider.Provider = (*Provider)(nil)
