// Package scoring ranks provider quotes for a movement request. Scoring is
// deterministic: the same request and the same set of quotes always produce
// the same ranking.
package scoring

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
	"github.com/fayedaihall/tesseracts-world/internal/observability"
	"github.com/fayedaihall/tesseracts-world/internal/provider"
)

// ErrInvalidWeights is returned when configured weights do not sum to 1.0
// within tolerance. Invalid weights are rejected, never silently corrected.
var ErrInvalidWeights = errors.New("scoring weights must sum to 1.0")

const (
	weightTolerance = 0.01

	// Timing reference points for the time score.
	pickupDeviationCeilingMin = 60.0
	durationCeilingMin        = 120.0

	// Quality score used when a quote carries no rated worker.
	neutralQuality = 0.7

	// DefaultMaxQuotes is the ranking depth when the caller does not specify one.
	DefaultMaxQuotes = 5
)

// Weights control the relative influence of each quote signal.
type Weights struct {
	Cost        float64 `json:"cost"`
	Time        float64 `json:"time"`
	Reliability float64 `json:"reliability"`
	Quality     float64 `json:"quality"`
}

// DefaultWeights returns the standard signal weighting.
func DefaultWeights() Weights {
	return Weights{Cost: 0.3, Time: 0.4, Reliability: 0.2, Quality: 0.1}
}

// Validate checks that the weights sum to 1.0 within tolerance.
func (w Weights) Validate() error {
	sum := w.Cost + w.Time + w.Reliability + w.Quality
	if math.Abs(sum-1.0) > weightTolerance {
		return ErrInvalidWeights
	}
	return nil
}

// CostBounds clamp the linear cost score. At or below Min scores 1.0; at or
// above Max scores the 0.1 floor, so expensive quotes are penalized but never
// eliminated outright.
type CostBounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// DefaultCostBounds returns the standard reasonable-cost window.
func DefaultCostBounds() CostBounds {
	return CostBounds{
		Min: decimal.RequireFromString("5.00"),
		Max: decimal.RequireFromString("100.00"),
	}
}

// Scorer fans a request out to capable providers and ranks their quotes.
type Scorer struct {
	providers       []provider.Provider
	costs           CostBounds
	providerTimeout time.Duration

	mu      sync.RWMutex
	weights Weights

	now func() time.Time
}

// New creates a Scorer over a fixed provider set. The provider slice order is
// the fan-out order and breaks ranking ties.
func New(providers []provider.Provider, weights Weights, costs CostBounds, providerTimeout time.Duration) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{
		providers:       providers,
		weights:         weights,
		costs:           costs,
		providerTimeout: providerTimeout,
		now:             func() time.Time { return time.Now().UTC() },
	}, nil
}

// UpdateWeights replaces the signal weights. An invalid set is rejected and
// the previous weights remain in effect.
func (s *Scorer) UpdateWeights(w Weights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.weights = w
	s.mu.Unlock()
	log.Printf("updated scoring weights: cost=%.2f time=%.2f reliability=%.2f quality=%.2f",
		w.Cost, w.Time, w.Reliability, w.Quality)
	return nil
}

// Weights returns the current signal weights.
func (s *Scorer) Weights() Weights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weights
}

// OptimalQuotes gathers quotes from every eligible provider concurrently,
// scores them, and returns the top maxQuotes ranked best-first. A provider
// that fails, times out, or has no offer is dropped without affecting the
// others. An empty result means no offers, not an error.
func (s *Scorer) OptimalQuotes(ctx context.Context, req *domain.MovementRequest, maxQuotes int) []*domain.Quote {
	if maxQuotes <= 0 {
		maxQuotes = DefaultMaxQuotes
	}

	eligible := s.eligibleProviders(req)
	if len(eligible) == 0 {
		log.Printf("no eligible providers for %s", req.ServiceType)
		return nil
	}

	start := time.Now()
	quotes := s.fanOut(ctx, eligible, req)
	observability.QuoteFanoutDuration.Observe(time.Since(start).Seconds())

	if len(quotes) == 0 {
		log.Printf("no quotes received from %d eligible providers", len(eligible))
		return nil
	}

	now := s.now()
	weights := s.Weights()
	type scored struct {
		quote *domain.Quote
		score float64
	}
	ranked := make([]scored, 0, len(quotes))
	for _, q := range quotes {
		ranked = append(ranked, scored{quote: q, score: s.Score(q, req, weights, now)})
	}

	// Stable sort keeps fan-out order for equal scores.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > maxQuotes {
		ranked = ranked[:maxQuotes]
	}
	out := make([]*domain.Quote, len(ranked))
	for i, r := range ranked {
		out[i] = r.quote
	}
	return out
}

// eligibleProviders keeps providers whose declared service types include the
// request's and whose coverage carries a recognized tag.
func (s *Scorer) eligibleProviders(req *domain.MovementRequest) []provider.Provider {
	eligible := make([]provider.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		info := p.Info()
		if !info.Supports(req.ServiceType) {
			continue
		}
		if !info.Covers() {
			continue
		}
		eligible = append(eligible, p)
	}
	return eligible
}

// fanOut issues Quote to every provider in parallel, each bounded by the
// provider timeout. Results keep the fan-out index so ranking ties stay
// deterministic.
func (s *Scorer) fanOut(ctx context.Context, providers []provider.Provider, req *domain.MovementRequest) []*domain.Quote {
	results := make([]*domain.Quote, len(providers))

	var wg sync.WaitGroup
	wg.Add(len(providers))
	for i, p := range providers {
		go func(i int, p provider.Provider) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
			defer cancel()

			quote, err := p.Quote(callCtx, req)
			if err != nil {
				observability.ProviderFaults.WithLabelValues(p.Info().ID, "quote").Inc()
				log.Printf("quote from %s failed: %v", p.Info().ID, err)
				return
			}
			if quote == nil {
				return // no offer
			}
			if err := quote.Validate(); err != nil {
				observability.ProviderFaults.WithLabelValues(p.Info().ID, "quote").Inc()
				log.Printf("dropping invalid quote from %s: %v", p.Info().ID, err)
				return
			}
			results[i] = quote
		}(i, p)
	}
	wg.Wait()

	quotes := make([]*domain.Quote, 0, len(results))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, q)
		}
	}
	return quotes
}

// Score combines the four normalized signals and the priority adjustment into
// one ranking value.
func (s *Scorer) Score(q *domain.Quote, req *domain.MovementRequest, w Weights, now time.Time) float64 {
	costScore := s.costScore(q.EstimatedCost)
	timeScore := timeScore(q, req.RequestedPickupTime, now)
	reliabilityScore := q.ConfidenceScore
	qualityScore := qualityScore(q)

	total := w.Cost*costScore +
		w.Time*timeScore +
		w.Reliability*reliabilityScore +
		w.Quality*qualityScore

	return total * priorityAdjustment(req.Priority, q, now)
}

// costScore maps cost linearly and inverted onto [0.1, 1.0] between the
// configured reasonable bounds.
func (s *Scorer) costScore(cost decimal.Decimal) float64 {
	switch {
	case cost.LessThanOrEqual(s.costs.Min):
		return 1.0
	case cost.GreaterThanOrEqual(s.costs.Max):
		return 0.1
	}
	span := s.costs.Max.Sub(s.costs.Min)
	normalized := 1.0 - cost.Sub(s.costs.Min).Div(span).InexactFloat64()
	return math.Max(0.1, normalized)
}

// timeScore averages a pickup-timing score and a trip-duration score.
func timeScore(q *domain.Quote, requestedPickup *time.Time, now time.Time) float64 {
	var pickupScore float64
	if requestedPickup != nil {
		// Penalize deviation from the requested pickup, zero floor past an hour.
		deviationMin := math.Abs(q.EstimatedPickupTime.Sub(*requestedPickup).Minutes())
		pickupScore = math.Max(0, 1.0-deviationMin/pickupDeviationCeilingMin)
	} else {
		// No target time: prefer the soonest pickup.
		delayMin := q.EstimatedPickupTime.Sub(now).Minutes()
		pickupScore = math.Max(0.1, 1.0-delayMin/pickupDeviationCeilingMin)
	}

	durationMin := q.EstimatedDeliveryTime.Sub(q.EstimatedPickupTime).Minutes()
	durationScore := math.Max(0.1, 1.0-durationMin/durationCeilingMin)

	return (pickupScore + durationScore) / 2
}

// qualityScore uses the assigned worker's rating when present.
func qualityScore(q *domain.Quote) float64 {
	if q.WorkerInfo != nil && q.WorkerInfo.Rating != nil {
		return *q.WorkerInfo.Rating / 5.0
	}
	return neutralQuality
}

// priorityAdjustment is a multiplicative factor applied after the weighted sum.
func priorityAdjustment(priority domain.Priority, q *domain.Quote, now time.Time) float64 {
	switch priority {
	case domain.PriorityUrgent:
		delayMin := q.EstimatedPickupTime.Sub(now).Minutes()
		switch {
		case delayMin <= 10:
			return 1.3
		case delayMin <= 20:
			return 1.1
		default:
			return 0.7
		}
	case domain.PriorityHigh:
		return 1.0 + (q.ConfidenceScore-0.5)*0.2
	}
	// Low and normal priority need no adjustment; cost is already weighted in.
	return 1.0
}

// ProviderHealth checks every provider concurrently. A provider that fails or
// times out is reported unhealthy and never aborts the others.
func (s *Scorer) ProviderHealth(ctx context.Context) map[string]bool {
	health := make([]bool, len(s.providers))

	var wg sync.WaitGroup
	wg.Add(len(s.providers))
	for i, p := range s.providers {
		go func(i int, p provider.Provider) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
			defer cancel()
			health[i] = p.HealthCheck(callCtx)
		}(i, p)
	}
	wg.Wait()

	out := make(map[string]bool, len(s.providers))
	for i, p := range s.providers {
		out[p.Info().ID] = health[i]
	}
	return out
}
