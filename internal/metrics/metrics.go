package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	mapFetchDuration    *prometheus.HistogramVec
	mapPublishDuration  prometheus.Histogram
	staleDiscardsTotal  prometheus.Counter
	searchDuration      *prometheus.HistogramVec
	favoriteMutations   *prometheus.CounterVec
	authRefreshTotal    *prometheus.CounterVec
}

// New creates a fresh Metrics registry with HTTP and sync-engine metrics
// registered. Every instance owns its registry, so tests stay isolated.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homeatlas",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by core-go",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "homeatlas",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by core-go",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	mapFetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "homeatlas",
		Name:      "map_fetch_duration_seconds",
		Help:      "Duration of marker fetches from dispatch to backend response",
		Buckets:   prometheus.DefBuckets,
	}, []string{"granularity", "outcome"})

	mapPublishDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "homeatlas",
		Name:      "map_publish_duration_seconds",
		Help:      "Duration of marker fetches from dispatch to published marker state",
		Buckets:   prometheus.DefBuckets,
	})

	staleDiscardsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "homeatlas",
		Name:      "stale_responses_discarded_total",
		Help:      "Responses dropped because a newer request superseded them",
	})

	searchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "homeatlas",
		Name:      "search_duration_seconds",
		Help:      "Duration of complex-name search calls",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	favoriteMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homeatlas",
		Name:      "favorite_mutations_total",
		Help:      "Favorites create/delete/alarm mutations by outcome",
	}, []string{"action", "outcome"})

	authRefreshTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homeatlas",
		Name:      "auth_refresh_total",
		Help:      "Silent token refresh attempts triggered by a 401 response",
	}, []string{"outcome"})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		mapFetchDuration,
		mapPublishDuration,
		staleDiscardsTotal,
		searchDuration,
		favoriteMutations,
		authRefreshTotal,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		mapFetchDuration:    mapFetchDuration,
		mapPublishDuration:  mapPublishDuration,
		staleDiscardsTotal:  staleDiscardsTotal,
		searchDuration:      searchDuration,
		favoriteMutations:   favoriteMutations,
		authRefreshTotal:    authRefreshTotal,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle on the
// local surface.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveMapFetch records the dispatch-to-response time of a marker fetch.
func (m *Metrics) ObserveMapFetch(granularity string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.mapFetchDuration.With(prometheus.Labels{
		"granularity": granularity,
		"outcome":     outcome(err),
	}).Observe(duration.Seconds())
}

// ObserveMapPublish records the dispatch-to-published-state time of a
// marker fetch that won its epoch.
func (m *Metrics) ObserveMapPublish(duration time.Duration) {
	if m == nil {
		return
	}
	m.mapPublishDuration.Observe(duration.Seconds())
}

// IncStaleDiscard counts a response dropped for arriving after a newer
// request had already been dispatched.
func (m *Metrics) IncStaleDiscard() {
	if m == nil {
		return
	}
	m.staleDiscardsTotal.Inc()
}

// ObserveSearch records one debounced search call.
func (m *Metrics) ObserveSearch(err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.searchDuration.With(prometheus.Labels{"outcome": outcome(err)}).Observe(duration.Seconds())
}

// IncFavoriteMutation counts one favorites create/delete/alarm call.
func (m *Metrics) IncFavoriteMutation(action string, err error) {
	if m == nil {
		return
	}
	m.favoriteMutations.With(prometheus.Labels{"action": action, "outcome": outcome(err)}).Inc()
}

// IncAuthRefresh counts one silent refresh attempt after a 401.
func (m *Metrics) IncAuthRefresh(err error) {
	if m == nil {
		return
	}
	m.authRefreshTotal.With(prometheus.Labels{"outcome": outcome(err)}).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
