// Package jobregistry tracks accepted jobs for the lifetime of the process.
// Entries are created once on acceptance and then only status and timestamp
// fields change. The registry is a mirror: the owning provider is always the
// source of truth, and the registry never infers a terminal state locally.
package jobregistry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
)

var (
	// ErrNotFound is returned when a job id is unknown to the registry.
	ErrNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned when a job id is registered twice.
	ErrDuplicateJob = errors.New("job already registered")

	// ErrInvalidTransition is returned when a status update would violate the
	// job state machine, e.g. leaving a terminal state.
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// entry wraps one job with its own lock so distinct jobs never contend.
type entry struct {
	mu  sync.Mutex
	job *domain.Job
}

// Registry is an in-memory job store with per-job-id serialization.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{jobs: make(map[string]*entry)}
}

// Add registers a newly-created job. Each job id is registered exactly once.
func (r *Registry) Add(job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return ErrDuplicateJob
	}
	cp := *job
	r.jobs[job.ID] = &entry{job: &cp}
	return nil
}

func (r *Registry) lookup(jobID string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.jobs[jobID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Get returns a copy of the job.
func (r *Registry) Get(jobID string) (*domain.Job, error) {
	e, err := r.lookup(jobID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	cp := *e.job
	e.mu.Unlock()
	return &cp, nil
}

// UpdateStatus applies a provider-reported status to the mirror. Updates that
// would leave a terminal state or move backwards are rejected.
func (r *Registry) UpdateStatus(jobID string, status domain.JobStatus, at time.Time) error {
	e, err := r.lookup(jobID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.job.Status.CanTransition(status) {
		return ErrInvalidTransition
	}
	if e.job.Status == status {
		return nil
	}
	e.job.Status = status
	e.job.UpdatedAt = at
	switch status {
	case domain.JobStatusInProgress:
		if e.job.ActualPickupTime == nil {
			t := at
			e.job.ActualPickupTime = &t
		}
	case domain.JobStatusCompleted:
		if e.job.ActualDeliveryTime == nil {
			t := at
			e.job.ActualDeliveryTime = &t
		}
	}
	return nil
}

// List returns up to limit jobs, most recently created first. A non-positive
// limit returns everything.
func (r *Registry) List(limit int) []*domain.Job {
	jobs := r.Snapshot()
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs
}

// Snapshot returns copies of every registered job in no particular order.
func (r *Registry) Snapshot() []*domain.Job {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.jobs))
	for _, e := range r.jobs {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	jobs := make([]*domain.Job, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		cp := *e.job
		e.mu.Unlock()
		jobs = append(jobs, &cp)
	}
	return jobs
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
