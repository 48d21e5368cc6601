package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusAssigned   JobStatus = "assigned"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status accepts no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusCancelled, JobStatusFailed:
		return true
	}
	return false
}

// jobStatusRank orders the forward progression of the state machine.
var jobStatusRank = map[JobStatus]int{
	JobStatusPending:    0,
	JobStatusAssigned:   1,
	JobStatusInProgress: 2,
	JobStatusCompleted:  3,
}

// CanTransition reports whether a job may move from one status to another.
// Forward transitions are monotonic; cancelled and failed are reachable from
// any non-terminal state; terminal states accept nothing.
func (s JobStatus) CanTransition(to JobStatus) bool {
	if s == to {
		return true
	}
	if s.Terminal() {
		return false
	}
	if to == JobStatusCancelled || to == JobStatusFailed {
		return true
	}
	fromRank, ok := jobStatusRank[s]
	if !ok {
		return false
	}
	toRank, ok := jobStatusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// Job is the accepted unit of work created from a consumed quote. Status is a
// mirror of provider-owned truth; the broker never infers transitions locally.
type Job struct {
	ID              string          `json:"id"`
	ServiceType     ServiceType     `json:"service_type"`
	Status          JobStatus       `json:"status"`
	Priority        Priority        `json:"priority"`
	PickupLocation  Location        `json:"pickup_location"`
	DropoffLocation Location        `json:"dropoff_location"`
	AssignedWorker  *Worker         `json:"assigned_worker,omitempty"`
	ProviderID      string          `json:"provider_id"`
	ProviderJobID   string          `json:"provider_job_id"`
	EstimatedCost   decimal.Decimal `json:"estimated_cost"`
	ActualCost      decimal.Decimal `json:"actual_cost,omitempty"`
	Currency        string          `json:"currency"`

	RequestedPickupTime   *time.Time `json:"requested_pickup_time,omitempty"`
	ActualPickupTime      *time.Time `json:"actual_pickup_time,omitempty"`
	EstimatedDeliveryTime *time.Time `json:"estimated_delivery_time,omitempty"`
	ActualDeliveryTime    *time.Time `json:"actual_delivery_time,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobUpdate is an event snapshot of a job's provider-reported state. It is not
// a stored entity.
type JobUpdate struct {
	JobID            string     `json:"job_id"`
	Status           JobStatus  `json:"status"`
	Location         *Location  `json:"location,omitempty"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	Message          string     `json:"message,omitempty"`
	Timestamp        time.Time  `json:"timestamp"`
}
