package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
)

func doJSON(ts *TestServer, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+TestAPIKey)

	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func movementBody() map[string]any {
	return map[string]any{
		"service_type":     "delivery",
		"priority":         "normal",
		"pickup_location":  map[string]any{"latitude": 37.7749, "longitude": -122.4194},
		"dropoff_location": map[string]any{"latitude": 37.8044, "longitude": -122.2712},
	}
}

func TestMovementRequestReturnsQuotes(t *testing.T) {
	ts := NewTestServer()

	w := doJSON(ts, http.MethodPost, "/v1/movement/request", movementBody())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp domain.MovementResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(resp.Quotes))
	}
	if resp.RecommendedQuoteID != resp.Quotes[0].QuoteID {
		t.Errorf("recommended = %s, top quote = %s", resp.RecommendedQuoteID, resp.Quotes[0].QuoteID)
	}
}

func TestMovementRequestRejectsUnknownServiceType(t *testing.T) {
	ts := NewTestServer()

	body := movementBody()
	body["service_type"] = "teleportation"
	w := doJSON(ts, http.MethodPost, "/v1/movement/request", body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAcceptQuoteLifecycle(t *testing.T) {
	ts := NewTestServer()

	// Quote.
	w := doJSON(ts, http.MethodPost, "/v1/movement/request", movementBody())
	var quoted domain.MovementResponse
	if err := json.Unmarshal(w.Body.Bytes(), &quoted); err != nil {
		t.Fatalf("decoding quotes: %v", err)
	}

	// Accept.
	w = doJSON(ts, http.MethodPost, "/v1/movement/accept", map[string]any{
		"quote_id": quoted.RecommendedQuoteID,
		"request":  movementBody(),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("accept status = %d, body = %s", w.Code, w.Body.String())
	}
	var job domain.Job
	if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
		t.Fatalf("decoding job: %v", err)
	}
	if job.Status != domain.JobStatusAssigned {
		t.Errorf("job status = %s, want assigned", job.Status)
	}

	// Accepting again misses: the quote was consumed.
	w = doJSON(ts, http.MethodPost, "/v1/movement/accept", map[string]any{
		"quote_id": quoted.RecommendedQuoteID,
		"request":  movementBody(),
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("second accept status = %d, want 404", w.Code)
	}

	// Provider moves the job forward; status reflects it.
	ts.Provider.SetJobStatus(job.ProviderJobID, domain.JobStatusInProgress)
	w = doJSON(ts, http.MethodGet, "/v1/jobs/"+job.ID+"/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d, body = %s", w.Code, w.Body.String())
	}
	var update domain.JobUpdate
	if err := json.Unmarshal(w.Body.Bytes(), &update); err != nil {
		t.Fatalf("decoding update: %v", err)
	}
	if update.Status != domain.JobStatusInProgress {
		t.Errorf("update status = %s, want in_progress", update.Status)
	}

	// Track.
	w = doJSON(ts, http.MethodGet, "/v1/jobs/"+job.ID+"/track", nil)
	if w.Code != http.StatusOK {
		t.Errorf("track status = %d", w.Code)
	}

	// Cancel.
	w = doJSON(ts, http.MethodDelete, "/v1/jobs/"+job.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body = %s", w.Code, w.Body.String())
	}

	// The job shows up in history as cancelled.
	w = doJSON(ts, http.MethodGet, "/v1/jobs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var listing struct {
		Jobs  []*domain.Job `json:"jobs"`
		Count int           `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decoding listing: %v", err)
	}
	if listing.Count != 1 || listing.Jobs[0].Status != domain.JobStatusCancelled {
		t.Errorf("listing = %+v", listing)
	}
}

func TestAcceptUnknownQuote(t *testing.T) {
	ts := NewTestServer()

	w := doJSON(ts, http.MethodPost, "/v1/movement/accept", map[string]any{
		"quote_id": "never_issued",
		"request":  movementBody(),
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestJobStatusUnknownJob(t *testing.T) {
	ts := NewTestServer()

	w := doJSON(ts, http.MethodGet, "/v1/jobs/missing/status", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAvailableWorkersEndpoint(t *testing.T) {
	ts := NewTestServer()

	path := fmt.Sprintf("/v1/workers?latitude=%f&longitude=%f&service_type=delivery&radius_km=5", 37.7749, -122.4194)
	w := doJSON(ts, http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("worker count = %d, want 1", resp.Count)
	}
}

func TestAvailableWorkersRequiresCoordinates(t *testing.T) {
	ts := NewTestServer()

	w := doJSON(ts, http.MethodGet, "/v1/workers", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	ts := NewTestServer()

	w := doJSON(ts, http.MethodPost, "/v1/movement/request", movementBody())
	var quoted domain.MovementResponse
	if err := json.Unmarshal(w.Body.Bytes(), &quoted); err != nil {
		t.Fatalf("decoding quotes: %v", err)
	}
	doJSON(ts, http.MethodPost, "/v1/movement/accept", map[string]any{
		"quote_id": quoted.RecommendedQuoteID,
		"request":  movementBody(),
	})

	w = doJSON(ts, http.MethodGet, "/v1/analytics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var report struct {
		TotalJobs         int             `json:"total_jobs"`
		ProviderBreakdown map[string]int  `json:"provider_breakdown"`
		ProviderHealth    map[string]bool `json:"provider_health"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.TotalJobs != 1 {
		t.Errorf("total jobs = %d, want 1", report.TotalJobs)
	}
	if report.ProviderBreakdown["test_provider"] != 1 {
		t.Errorf("provider breakdown = %+v", report.ProviderBreakdown)
	}
	if !report.ProviderHealth["test_provider"] {
		t.Error("expected test_provider healthy")
	}
}

func TestUpdateWeightsEndpoint(t *testing.T) {
	ts := NewTestServer()

	w := doJSON(ts, http.MethodPut, "/v1/analytics/weights", map[string]any{
		"cost": 0.5, "time": 0.3, "reliability": 0.1, "quality": 0.1,
	})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}

	// Weights that do not sum to 1 are rejected.
	w = doJSON(ts, http.MethodPut, "/v1/analytics/weights", map[string]any{
		"cost": 0.9, "time": 0.9, "reliability": 0.1, "quality": 0.1,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestProviderHealthEndpoint(t *testing.T) {
	ts := NewTestServer()

	w := doJSON(ts, http.MethodGet, "/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Healthy   bool            `json:"healthy"`
		Providers map[string]bool `json:"providers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !resp.Healthy || !resp.Providers["test_provider"] {
		t.Errorf("health = %+v", resp)
	}
}

func TestCreateAndRevokeAPIKey(t *testing.T) {
	ts := NewTestServer()

	w := doJSON(ts, http.MethodPost, "/v1/keys", map[string]any{"name": "partner"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var created struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if created.Key == "" {
		t.Fatal("expected a key value")
	}

	w = doJSON(ts, http.MethodDelete, "/v1/keys/"+created.Key, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("revoke status = %d", w.Code)
	}

	// A revoked key no longer authenticates.
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+created.Key)
	rec := httptest.NewRecorder()
	ts.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("revoked key status = %d, want 401", rec.Code)
	}
}
