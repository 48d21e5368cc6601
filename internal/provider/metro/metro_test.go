package metro

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
	"github.com/fayedaihall/tesseracts-world/internal/provider"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestProvider(rt roundTripFunc) *Provider {
	return New("test-key", "https://metro.test/v1", &http.Client{Transport: rt})
}

func deliveryRequest() *domain.MovementRequest {
	return &domain.MovementRequest{
		ServiceType:     domain.ServiceDelivery,
		Priority:        domain.PriorityNormal,
		PickupLocation:  domain.Location{Latitude: 37.7749, Longitude: -122.4194},
		DropoffLocation: domain.Location{Latitude: 37.8044, Longitude: -122.2712},
	}
}

func TestQuoteRideshare(t *testing.T) {
	var gotPath, gotAuth string
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		gotPath = req.URL.Path
		gotAuth = req.Header.Get("Authorization")
		return jsonResponse(http.StatusOK, `{"prices":[{"high_estimate":23.50,"duration":900}]}`), nil
	})

	req := deliveryRequest()
	req.ServiceType = domain.ServiceRideshare
	quote, err := p.Quote(context.Background(), req)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote == nil {
		t.Fatal("expected a quote")
	}
	if gotPath != "/v1/estimates/price" {
		t.Errorf("path = %s, want /v1/estimates/price", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if !quote.EstimatedCost.Equal(decimal.NewFromFloat(23.50)) {
		t.Errorf("cost = %s, want 23.5", quote.EstimatedCost)
	}
	if quote.EstimatedDurationMin != 15 {
		t.Errorf("duration = %d min, want 15", quote.EstimatedDurationMin)
	}
	if quote.ProviderID != "metro_rides" {
		t.Errorf("provider = %s", quote.ProviderID)
	}
	if err := quote.Validate(); err != nil {
		t.Errorf("quote fails validation: %v", err)
	}
}

func TestQuoteDelivery(t *testing.T) {
	var gotPath string
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		gotPath = req.URL.Path
		return jsonResponse(http.StatusOK, `{"quote":{"total":12.75},"delivery_time_estimate":1200}`), nil
	})

	quote, err := p.Quote(context.Background(), deliveryRequest())
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if gotPath != "/v1/deliveries/quote" {
		t.Errorf("path = %s, want /v1/deliveries/quote", gotPath)
	}
	if !quote.EstimatedCost.Equal(decimal.NewFromFloat(12.75)) {
		t.Errorf("cost = %s, want 12.75", quote.EstimatedCost)
	}
	if quote.EstimatedDurationMin != 20 {
		t.Errorf("duration = %d min, want 20", quote.EstimatedDurationMin)
	}
}

func TestQuoteNoOfferOnUpstreamError(t *testing.T) {
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusServiceUnavailable, `{}`), nil
	})

	quote, err := p.Quote(context.Background(), deliveryRequest())
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote != nil {
		t.Errorf("expected no offer, got %+v", quote)
	}
}

func TestQuoteTransportError(t *testing.T) {
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	if _, err := p.Quote(context.Background(), deliveryRequest()); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestCreateJobRideshare(t *testing.T) {
	var gotMethod, gotPath string
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		gotMethod = req.Method
		gotPath = req.URL.Path
		return jsonResponse(http.StatusCreated, `{"request_id":"abc123"}`), nil
	})

	req := deliveryRequest()
	req.ServiceType = domain.ServiceRideshare
	job, err := p.CreateJob(context.Background(), "metro_q1", req)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/v1/requests" {
		t.Errorf("request = %s %s, want POST /v1/requests", gotMethod, gotPath)
	}
	if job.ProviderJobID != "abc123" {
		t.Errorf("provider job id = %s", job.ProviderJobID)
	}
	if job.Status != domain.JobStatusAssigned {
		t.Errorf("status = %s, want assigned", job.Status)
	}
}

func TestCreateJobDeliveryUsesDeliveryID(t *testing.T) {
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/deliveries" {
			t.Errorf("path = %s, want /v1/deliveries", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"delivery_id":"d-77"}`), nil
	})

	job, err := p.CreateJob(context.Background(), "metro_q1", deliveryRequest())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.ProviderJobID != "d-77" {
		t.Errorf("provider job id = %s, want d-77", job.ProviderJobID)
	}
}

func TestCreateJobUpstreamFailure(t *testing.T) {
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, `{}`), nil
	})

	if _, err := p.CreateJob(context.Background(), "metro_q1", deliveryRequest()); err == nil {
		t.Fatal("expected error on upstream failure")
	}
}

func TestJobStatusMapsUpstreamStatuses(t *testing.T) {
	cases := []struct {
		upstream string
		want     domain.JobStatus
	}{
		{"processing", domain.JobStatusPending},
		{"accepted", domain.JobStatusAssigned},
		{"arriving", domain.JobStatusInProgress},
		{"in_progress", domain.JobStatusInProgress},
		{"completed", domain.JobStatusCompleted},
		{"cancelled", domain.JobStatusCancelled},
		{"something_new", domain.JobStatusPending},
	}
	for _, tc := range cases {
		p := newTestProvider(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"status":"`+tc.upstream+`"}`), nil
		})
		update, err := p.JobStatus(context.Background(), "abc123")
		if err != nil {
			t.Fatalf("JobStatus(%s): %v", tc.upstream, err)
		}
		if update.Status != tc.want {
			t.Errorf("upstream %q mapped to %s, want %s", tc.upstream, update.Status, tc.want)
		}
	}
}

func TestJobStatusIncludesLocation(t *testing.T) {
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK,
			`{"status":"in_progress","location":{"latitude":37.78,"longitude":-122.41}}`), nil
	})

	update, err := p.JobStatus(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if update.Location == nil || update.Location.Latitude != 37.78 {
		t.Errorf("location = %+v", update.Location)
	}
}

func TestJobStatusNotFound(t *testing.T) {
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{}`), nil
	})

	if _, err := p.JobStatus(context.Background(), "missing"); !errors.Is(err, provider.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestCancelJob(t *testing.T) {
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", req.Method)
		}
		return jsonResponse(http.StatusNoContent, ``), nil
	})

	ok, err := p.CancelJob(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	if !ok {
		t.Error("expected cancellation accepted")
	}
}

func TestCancelJobRejected(t *testing.T) {
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusConflict, `{}`), nil
	})

	ok, err := p.CancelJob(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	if ok {
		t.Error("expected cancellation rejected")
	}
}

func TestAvailableWorkers(t *testing.T) {
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		if got := req.URL.Query().Get("radius"); got != "5000" {
			t.Errorf("radius = %s meters, want 5000", got)
		}
		return jsonResponse(http.StatusOK,
			`{"drivers":[{"id":"d1","name":"Sam","rating":4.8,"location":{"latitude":37.78,"longitude":-122.41}}]}`), nil
	})

	workers := p.AvailableWorkers(context.Background(), domain.Location{Latitude: 37.77, Longitude: -122.42}, 5)
	if len(workers) != 1 {
		t.Fatalf("expected 1 worker, got %d", len(workers))
	}
	w := workers[0]
	if w.ID != "metro_rides_d1" || w.ProviderWorkerID != "d1" {
		t.Errorf("worker ids = %s / %s", w.ID, w.ProviderWorkerID)
	}
	if w.Rating == nil || *w.Rating != 4.8 {
		t.Errorf("rating = %v", w.Rating)
	}
	if w.CurrentLocation == nil {
		t.Error("expected a location")
	}
}

func TestAvailableWorkersEmptyOnFailure(t *testing.T) {
	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("timeout")
	})

	if workers := p.AvailableWorkers(context.Background(), domain.Location{}, 5); len(workers) != 0 {
		t.Errorf("expected no workers on failure, got %d", len(workers))
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := newTestProvider(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/health" {
			t.Errorf("path = %s, want /v1/health", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	if !healthy.HealthCheck(context.Background()) {
		t.Error("expected healthy")
	}

	down := newTestProvider(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("no route to host")
	})
	if down.HealthCheck(context.Background()) {
		t.Error("expected unhealthy")
	}
}
