// Package metro adapts the MetroRides HTTP API to the provider interface.
// MetroRides covers rideshare and delivery globally. Every upstream fault is
// reported through the interface's degradation contract rather than bubbled
// up raw.
package metro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
	"github.com/fayedaihall/tesseracts-world/internal/provider"
)

const (
	providerID = "metro_rides"

	quoteTTL            = 15 * time.Minute
	defaultPickupDelay  = 5 * time.Minute
	defaultRideSeconds  = 600
	defaultDeliverySecs = 1800
	quoteConfidence     = 0.8
)

// Provider talks to the MetroRides REST API with a bearer token.
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns a MetroRides provider. A nil client gets a 30 second default.
func New(apiKey, baseURL string, client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Provider{apiKey: apiKey, baseURL: baseURL, client: client}
}

func (p *Provider) Info() provider.Info {
	return provider.Info{
		ID:            providerID,
		Name:          "MetroRides",
		ServiceTypes:  []domain.ServiceType{domain.ServiceRideshare, domain.ServiceDelivery},
		CoverageAreas: []string{provider.CoverageGlobal},
	}
}

func (p *Provider) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	endpoint := p.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (p *Provider) do(req *http.Request, out any) (int, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding metro response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

type priceEstimate struct {
	HighEstimate float64 `json:"high_estimate"`
	Duration     int     `json:"duration"`
}

type priceResponse struct {
	Prices []priceEstimate `json:"prices"`
}

type deliveryQuoteResponse struct {
	Quote struct {
		Total float64 `json:"total"`
	} `json:"quote"`
	DeliveryTimeEstimate int `json:"delivery_time_estimate"`
}

// Quote asks MetroRides for an estimate. Rideshare and delivery use different
// endpoints upstream; both normalize to the same quote shape.
func (p *Provider) Quote(ctx context.Context, req *domain.MovementRequest) (*domain.Quote, error) {
	query := url.Values{
		"start_latitude":  {strconv.FormatFloat(req.PickupLocation.Latitude, 'f', -1, 64)},
		"start_longitude": {strconv.FormatFloat(req.PickupLocation.Longitude, 'f', -1, 64)},
		"end_latitude":    {strconv.FormatFloat(req.DropoffLocation.Latitude, 'f', -1, 64)},
		"end_longitude":   {strconv.FormatFloat(req.DropoffLocation.Longitude, 'f', -1, 64)},
	}

	var (
		cost            float64
		durationSeconds int
	)
	if req.ServiceType == domain.ServiceRideshare {
		httpReq, err := p.newRequest(ctx, http.MethodGet, "/estimates/price", query, nil)
		if err != nil {
			return nil, err
		}
		var body priceResponse
		status, err := p.do(httpReq, &body)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK || len(body.Prices) == 0 {
			return nil, nil
		}
		cost = body.Prices[0].HighEstimate
		durationSeconds = body.Prices[0].Duration
		if durationSeconds == 0 {
			durationSeconds = defaultRideSeconds
		}
	} else {
		httpReq, err := p.newRequest(ctx, http.MethodGet, "/deliveries/quote", query, nil)
		if err != nil {
			return nil, err
		}
		var body deliveryQuoteResponse
		status, err := p.do(httpReq, &body)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, nil
		}
		cost = body.Quote.Total
		durationSeconds = body.DeliveryTimeEstimate
		if durationSeconds == 0 {
			durationSeconds = defaultDeliverySecs
		}
	}

	now := time.Now().UTC()
	pickup := now.Add(defaultPickupDelay)
	if req.RequestedPickupTime != nil {
		pickup = *req.RequestedPickupTime
	}
	delivery := pickup.Add(time.Duration(durationSeconds) * time.Second)

	return &domain.Quote{
		QuoteID:               fmt.Sprintf("metro_%s", uuid.New().String()[:8]),
		ProviderID:            providerID,
		ServiceType:           req.ServiceType,
		EstimatedCost:         decimal.NewFromFloat(cost),
		Currency:              "USD",
		EstimatedPickupTime:   pickup,
		EstimatedDeliveryTime: delivery,
		EstimatedDurationMin:  durationSeconds / 60,
		IssuedAt:              now,
		ExpiresAt:             now.Add(quoteTTL),
		ConfidenceScore:       quoteConfidence,
	}, nil
}

type createResponse struct {
	RequestID  string `json:"request_id"`
	DeliveryID string `json:"delivery_id"`
}

type locationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CreateJob books the movement with MetroRides.
func (p *Provider) CreateJob(ctx context.Context, quoteID string, req *domain.MovementRequest) (*domain.Job, error) {
	var (
		path    string
		payload any
	)
	if req.ServiceType == domain.ServiceRideshare {
		path = "/requests"
		payload = map[string]any{
			"start_latitude":  req.PickupLocation.Latitude,
			"start_longitude": req.PickupLocation.Longitude,
			"end_latitude":    req.DropoffLocation.Latitude,
			"end_longitude":   req.DropoffLocation.Longitude,
		}
	} else {
		path = "/deliveries"
		payload = map[string]any{
			"pickup": map[string]any{
				"location": locationPayload{req.PickupLocation.Latitude, req.PickupLocation.Longitude},
			},
			"dropoff": map[string]any{
				"location": locationPayload{req.DropoffLocation.Latitude, req.DropoffLocation.Longitude},
			},
		}
	}

	httpReq, err := p.newRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, err
	}
	var body createResponse
	status, err := p.do(httpReq, &body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, fmt.Errorf("metro create job: unexpected status %d", status)
	}

	externalID := body.RequestID
	if externalID == "" {
		externalID = body.DeliveryID
	}
	if externalID == "" {
		return nil, fmt.Errorf("metro create job: response missing job id")
	}

	now := time.Now().UTC()
	return &domain.Job{
		ID:                  fmt.Sprintf("job_metro_%s", externalID),
		ServiceType:         req.ServiceType,
		Status:              domain.JobStatusAssigned,
		Priority:            req.Priority,
		PickupLocation:      req.PickupLocation,
		DropoffLocation:     req.DropoffLocation,
		ProviderID:          providerID,
		ProviderJobID:       externalID,
		Currency:            "USD",
		RequestedPickupTime: req.RequestedPickupTime,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// metroStatuses maps upstream status strings onto the job state machine.
// Unknown statuses degrade to pending.
var metroStatuses = map[string]domain.JobStatus{
	"processing":  domain.JobStatusPending,
	"accepted":    domain.JobStatusAssigned,
	"arriving":    domain.JobStatusInProgress,
	"in_progress": domain.JobStatusInProgress,
	"completed":   domain.JobStatusCompleted,
	"cancelled":   domain.JobStatusCancelled,
}

type statusResponse struct {
	Status        string           `json:"status"`
	StatusMessage string           `json:"status_message"`
	Location      *locationPayload `json:"location"`
}

func (p *Provider) JobStatus(ctx context.Context, providerJobID string) (*domain.JobUpdate, error) {
	httpReq, err := p.newRequest(ctx, http.MethodGet, "/requests/"+providerJobID, nil, nil)
	if err != nil {
		return nil, err
	}
	var body statusResponse
	status, err := p.do(httpReq, &body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, provider.ErrJobNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("metro job status: unexpected status %d", status)
	}

	jobStatus, ok := metroStatuses[body.Status]
	if !ok {
		jobStatus = domain.JobStatusPending
	}

	update := &domain.JobUpdate{
		Status:    jobStatus,
		Message:   body.StatusMessage,
		Timestamp: time.Now().UTC(),
	}
	if body.Location != nil {
		update.Location = &domain.Location{
			Latitude:  body.Location.Latitude,
			Longitude: body.Location.Longitude,
		}
	}
	return update, nil
}

// CancelJob cancels with MetroRides. A 2xx means cancelled; anything else is
// a rejection, not an error.
func (p *Provider) CancelJob(ctx context.Context, providerJobID string) (bool, error) {
	httpReq, err := p.newRequest(ctx, http.MethodDelete, "/requests/"+providerJobID, nil, nil)
	if err != nil {
		return false, err
	}
	status, err := p.do(httpReq, nil)
	if err != nil {
		return false, err
	}
	return status == http.StatusOK || status == http.StatusNoContent, nil
}

type driversResponse struct {
	Drivers []struct {
		ID       string           `json:"id"`
		Name     string           `json:"name"`
		Phone    string           `json:"phone"`
		Rating   *float64         `json:"rating"`
		Location *locationPayload `json:"location"`
	} `json:"drivers"`
}

// AvailableWorkers lists drivers near the location. Failures return an empty
// slice; the caller treats this provider as contributing nothing.
func (p *Provider) AvailableWorkers(ctx context.Context, loc domain.Location, radiusKm float64) []*domain.Worker {
	query := url.Values{
		"latitude":  {strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
		"radius":    {strconv.FormatFloat(radiusKm*1000, 'f', 0, 64)},
	}
	httpReq, err := p.newRequest(ctx, http.MethodGet, "/drivers", query, nil)
	if err != nil {
		return nil
	}
	var body driversResponse
	status, err := p.do(httpReq, &body)
	if err != nil || status != http.StatusOK {
		return nil
	}

	workers := make([]*domain.Worker, 0, len(body.Drivers))
	for _, d := range body.Drivers {
		w := &domain.Worker{
			ID:               fmt.Sprintf("%s_%s", providerID, d.ID),
			Name:             d.Name,
			Phone:            d.Phone,
			Rating:           d.Rating,
			IsAvailable:      true,
			ProviderID:       providerID,
			ProviderWorkerID: d.ID,
		}
		if d.Location != nil {
			w.CurrentLocation = &domain.Location{
				Latitude:  d.Location.Latitude,
				Longitude: d.Location.Longitude,
			}
		}
		workers = append(workers, w)
	}
	return workers
}

// TrackJob reuses the status endpoint; location may be nil when the upstream
// omits it.
func (p *Provider) TrackJob(ctx context.Context, providerJobID string) (*domain.Location, error) {
	update, err := p.JobStatus(ctx, providerJobID)
	if err != nil {
		return nil, err
	}
	return update.Location, nil
}

func (p *Provider) HealthCheck(ctx context.Context) bool {
	httpReq, err := p.newRequest(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return false
	}
	status, err := p.do(httpReq, nil)
	return err == nil && status == http.StatusOK
}
