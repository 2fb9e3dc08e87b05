package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandler_nilMetrics(t *testing.T) {
	var m *Metrics
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if got := rr.Body.String(); !strings.Contains(got, "metrics unavailable") {
		t.Fatalf("expected body to mention metrics unavailable, got %q", got)
	}
}

func TestHandler_exposesRegisteredMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/readyz", http.StatusOK, 12*time.Millisecond)
	m.ObserveMapFetch("si-do", nil, 40*time.Millisecond)
	m.ObserveMapFetch("complex", errors.New("boom"), 5*time.Millisecond)
	m.IncStaleDiscard()
	m.ObserveSearch(nil, 20*time.Millisecond)
	m.IncFavoriteMutation("create", nil)
	m.IncAuthRefresh(errors.New("refresh failed"))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := rr.Body.String()
	if !strings.Contains(body, "homeatlas_http_requests_total{method=\"GET\",path=\"/readyz\",status=\"200\"} 1") {
		t.Fatalf("expected labeled request counter to be incremented; body=%s", body)
	}
	if !strings.Contains(body, "homeatlas_map_fetch_duration_seconds_count{granularity=\"si-do\",outcome=\"success\"} 1") {
		t.Fatalf("expected map fetch histogram observation; body=%s", body)
	}
	if !strings.Contains(body, "homeatlas_map_fetch_duration_seconds_count{granularity=\"complex\",outcome=\"error\"} 1") {
		t.Fatalf("expected failed map fetch histogram observation; body=%s", body)
	}
	if !strings.Contains(body, "homeatlas_stale_responses_discarded_total 1") {
		t.Fatalf("expected stale discard counter to be incremented; body=%s", body)
	}
	if !strings.Contains(body, "homeatlas_favorite_mutations_total{action=\"create\",outcome=\"success\"} 1") {
		t.Fatalf("expected favorite mutation counter to be incremented; body=%s", body)
	}
	if !strings.Contains(body, "homeatlas_auth_refresh_total{outcome=\"error\"} 1") {
		t.Fatalf("expected auth refresh counter to be incremented; body=%s", body)
	}
}
