package tests

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/fayedaihall/tesseracts-world/internal/app"
	"github.com/fayedaihall/tesseracts-world/internal/broker"
	"github.com/fayedaihall/tesseracts-world/internal/domain"
	"github.com/fayedaihall/tesseracts-world/internal/events"
	"github.com/fayedaihall/tesseracts-world/internal/handler"
	"github.com/fayedaihall/tesseracts-world/internal/jobregistry"
	"github.com/fayedaihall/tesseracts-world/internal/provider"
	"github.com/fayedaihall/tesseracts-world/internal/quotecache"
	"github.com/fayedaihall/tesseracts-world/internal/repository"
	"github.com/fayedaihall/tesseracts-world/internal/scoring"
)

// TestAPIKey is seeded into the mock key repository for authenticated calls.
const TestAPIKey = "tw_test_key"

// MockAPIKeyRepository is an in-memory repository.APIKeyRepository.
type MockAPIKeyRepository struct {
	mu   sync.Mutex
	keys map[string]*domain.APIKey

	TouchCallCount int
}

// NewMockAPIKeyRepository creates a repository pre-seeded with TestAPIKey.
func NewMockAPIKeyRepository() *MockAPIKeyRepository {
	return &MockAPIKeyRepository{
		keys: map[string]*domain.APIKey{
			TestAPIKey: {
				Key:                TestAPIKey,
				Name:               "test key",
				IsActive:           true,
				RateLimitPerMinute: 1000,
				CreatedAt:          time.Now().UTC(),
			},
		},
	}
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key.Key] = key
	return nil
}

func (m *MockAPIKeyRepository) GetByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *k
	return &cp, nil
}

func (m *MockAPIKeyRepository) TouchLastUsed(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[key]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	k.LastUsedAt = &now
	m.TouchCallCount++
	return nil
}

func (m *MockAPIKeyRepository) Deactivate(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[key]
	if !ok {
		return repository.ErrNotFound
	}
	k.IsActive = false
	return nil
}

// SetRateLimit adjusts the per-minute limit for a seeded key.
func (m *MockAPIKeyRepository) SetRateLimit(key string, perMinute int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.keys[key]; ok {
		k.RateLimitPerMinute = perMinute
	}
}

// MockProvider is a deterministic in-memory provider for HTTP-level tests.
type MockProvider struct {
	ID        string
	Services  []domain.ServiceType
	QuoteCost float64
	CancelOK  bool

	mu      sync.Mutex
	jobs    map[string]domain.JobStatus
	counter int
}

// NewMockProvider creates a delivery provider that honors cancellations.
func NewMockProvider(id string, cost float64) *MockProvider {
	return &MockProvider{
		ID:        id,
		Services:  []domain.ServiceType{domain.ServiceDelivery, domain.ServiceCourier},
		QuoteCost: cost,
		CancelOK:  true,
		jobs:      make(map[string]domain.JobStatus),
	}
}

func (m *MockProvider) Info() provider.Info {
	return provider.Info{
		ID:            m.ID,
		Name:          m.ID,
		ServiceTypes:  m.Services,
		CoverageAreas: []string{provider.CoverageGlobal},
	}
}

func (m *MockProvider) Quote(ctx context.Context, req *domain.MovementRequest) (*domain.Quote, error) {
	m.mu.Lock()
	m.counter++
	n := m.counter
	m.mu.Unlock()

	now := time.Now().UTC()
	return &domain.Quote{
		QuoteID:               fmt.Sprintf("%s_q%d", m.ID, n),
		ProviderID:            m.ID,
		ServiceType:           req.ServiceType,
		EstimatedCost:         decimal.NewFromFloat(m.QuoteCost),
		Currency:              "USD",
		EstimatedPickupTime:   now.Add(10 * time.Minute),
		EstimatedDeliveryTime: now.Add(40 * time.Minute),
		EstimatedDurationMin:  30,
		IssuedAt:              now,
		ExpiresAt:             now.Add(20 * time.Minute),
		ConfidenceScore:       0.9,
	}, nil
}

func (m *MockProvider) CreateJob(ctx context.Context, quoteID string, req *domain.MovementRequest) (*domain.Job, error) {
	m.mu.Lock()
	m.counter++
	external := fmt.Sprintf("ext_%d", m.counter)
	m.jobs[external] = domain.JobStatusAssigned
	m.mu.Unlock()

	now := time.Now().UTC()
	return &domain.Job{
		ID:              fmt.Sprintf("job_%s_%s", m.ID, external),
		ServiceType:     req.ServiceType,
		Status:          domain.JobStatusAssigned,
		Priority:        req.Priority,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		ProviderID:      m.ID,
		ProviderJobID:   external,
		EstimatedCost:   decimal.NewFromFloat(m.QuoteCost),
		Currency:        "USD",
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (m *MockProvider) JobStatus(ctx context.Context, providerJobID string) (*domain.JobUpdate, error) {
	m.mu.Lock()
	status, ok := m.jobs[providerJobID]
	m.mu.Unlock()
	if !ok {
		return nil, provider.ErrJobNotFound
	}
	return &domain.JobUpdate{Status: status, Timestamp: time.Now().UTC()}, nil
}

// SetJobStatus forces the provider-side status of a job.
func (m *MockProvider) SetJobStatus(providerJobID string, status domain.JobStatus) {
	m.mu.Lock()
	m.jobs[providerJobID] = status
	m.mu.Unlock()
}

func (m *MockProvider) CancelJob(ctx context.Context, providerJobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[providerJobID]; !ok {
		return false, nil
	}
	if !m.CancelOK {
		return false, nil
	}
	m.jobs[providerJobID] = domain.JobStatusCancelled
	return true, nil
}

func (m *MockProvider) AvailableWorkers(ctx context.Context, loc domain.Location, radiusKm float64) []*domain.Worker {
	rating := 4.6
	return []*domain.Worker{
		{
			ID:               m.ID + "_w1",
			Name:             "Test Worker",
			Rating:           &rating,
			CurrentLocation:  &domain.Location{Latitude: loc.Latitude, Longitude: loc.Longitude},
			IsAvailable:      true,
			ProviderID:       m.ID,
			ProviderWorkerID: "w1",
		},
	}
}

func (m *MockProvider) TrackJob(ctx context.Context, providerJobID string) (*domain.Location, error) {
	m.mu.Lock()
	_, ok := m.jobs[providerJobID]
	m.mu.Unlock()
	if !ok {
		return nil, provider.ErrJobNotFound
	}
	return &domain.Location{Latitude: 37.7749, Longitude: -122.4194}, nil
}

func (m *MockProvider) HealthCheck(ctx context.Context) bool { return true }

// TestServer bundles a wired router with the mocks behind it.
type TestServer struct {
	Router   *gin.Engine
	Gateway  *broker.Gateway
	Keys     *MockAPIKeyRepository
	Provider *MockProvider
	Hub      *events.Hub
}

// NewTestServer wires the full HTTP stack over mock providers and an
// in-memory key repository. Redis-backed idempotency is left out; requests
// simply omit the Idempotency-Key header.
func NewTestServer() *TestServer {
	gin.SetMode(gin.TestMode)

	p := NewMockProvider("test_provider", 15.00)
	providers := []provider.Provider{p}

	scorer, err := scoring.New(providers, scoring.DefaultWeights(), scoring.DefaultCostBounds(), time.Second)
	if err != nil {
		panic(err)
	}
	hub := events.NewHub()
	gateway := broker.NewGateway(providers, scorer, quotecache.New(), jobregistry.New(), hub, time.Second)

	keys := NewMockAPIKeyRepository()

	router := app.NewRouter(app.RouterDeps{
		MovementHandler:  handler.NewMovementHandler(gateway),
		JobHandler:       handler.NewJobHandler(gateway),
		WorkerHandler:    handler.NewWorkerHandler(gateway),
		AnalyticsHandler: handler.NewAnalyticsHandler(gateway),
		APIKeyHandler:    handler.NewAPIKeyHandler(keys),
		EventsHandler:    handler.NewEventsHandler(hub),
		APIKeyRepo:       keys,
	})

	return &TestServer{
		Router:   router,
		Gateway:  gateway,
		Keys:     keys,
		Provider: p,
		Hub:      hub,
	}
}
