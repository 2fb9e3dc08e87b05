// Package search debounces the free-text complex search and keeps the
// sidebar mode in step with query emptiness.
//
// Only one debounce timer is ever live: each keystroke stops the previous
// timer and arms a new one, so at most one query per pause reaches the
// backend. A generation counter is still checked when a call completes, so
// a response that raced its own cancellation can never overwrite a newer
// query's results.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"homeatlas/core-go/internal/backend"
	"homeatlas/core-go/internal/metrics"
	"homeatlas/core-go/internal/sidebar"
)

// Searcher is the slice of the backend client the coordinator needs.
type Searcher interface {
	SearchComplexes(ctx context.Context, q string) ([]backend.SearchResult, error)
}

type Coordinator struct {
	log      zerolog.Logger
	client   Searcher
	sidebar  *sidebar.Machine
	metrics  *metrics.Metrics
	debounce time.Duration
	timeout  time.Duration

	mu         sync.Mutex
	query      string
	timer      *time.Timer
	generation uint64
	loading    bool
	results    []backend.SearchResult
	errMsg     string
}

type Options struct {
	// Debounce is the quiet period after the last keystroke before a
	// search call fires. Defaults to 300ms.
	Debounce time.Duration
	// FetchTimeout bounds one search call. Defaults to 5s.
	FetchTimeout time.Duration
}

func New(log zerolog.Logger, client Searcher, sb *sidebar.Machine, m *metrics.Metrics, opts Options) *Coordinator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Coordinator{
		log:      log,
		client:   client,
		sidebar:  sb,
		metrics:  m,
		debounce: debounce,
		timeout:  timeout,
		results:  []backend.SearchResult{},
	}
}

// SetText records a keystroke. An empty (trimmed) query cancels any pending
// timer, clears results and, when the sidebar sits in search-list, returns
// it to region-nav without any network call. A non-empty query switches to
// search-list immediately and restarts the debounce timer.
//
// Keystrokes are ignored while the sidebar shows detail or favorites; the
// search bar is hidden there and the recorded text must not fight those
// views.
func (c *Coordinator) SetText(q string) {
	trimmed := strings.TrimSpace(q)

	mode := c.sidebar.Mode()
	if mode == sidebar.ModeDetail || mode == sidebar.ModeFavorites {
		return
	}

	c.mu.Lock()
	c.query = q
	c.generation++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	if trimmed == "" {
		c.results = []backend.SearchResult{}
		c.errMsg = ""
		c.loading = false
		c.mu.Unlock()
		if c.sidebar.Mode() == sidebar.ModeSearchList {
			c.sidebar.SetMode(sidebar.ModeRegionNav)
		}
		return
	}

	gen := c.generation
	c.timer = time.AfterFunc(c.debounce, func() {
		c.runSearch(gen, trimmed)
	})
	c.mu.Unlock()

	// Reflect intent before the debounce fires so the panel switches
	// without waiting on network latency.
	if c.sidebar.Mode() != sidebar.ModeSearchList {
		c.sidebar.SetMode(sidebar.ModeSearchList)
	}
}

func (c *Coordinator) runSearch(gen uint64, q string) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	results, err := c.client.SearchComplexes(ctx, q)
	c.metrics.ObserveSearch(err, time.Since(start))

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.metrics.IncStaleDiscard()
		return
	}
	c.loading = false
	if err != nil {
		c.log.Error().Err(err).Str("query", q).Msg("search failed")
		c.results = []backend.SearchResult{}
		c.errMsg = "search failed"
		return
	}
	if results == nil {
		results = []backend.SearchResult{}
	}
	c.results = results
	c.log.Debug().Str("query", q).Int("results", len(results)).Msg("search completed")
}

// State is the search panel's view of the coordinator.
type State struct {
	Query   string                 `json:"query"`
	Loading bool                   `json:"loading"`
	Results []backend.SearchResult `json:"results"`
	Error   string                 `json:"error,omitempty"`
}

func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Query: c.query, Loading: c.loading, Results: c.results, Error: c.errMsg}
}

// Flush fires any pending debounce timer immediately. Test hook; the
// production path always waits the full debounce.
func (c *Coordinator) Flush() {
	c.mu.Lock()
	t := c.timer
	c.timer = nil
	c.mu.Unlock()
	if t != nil && t.Stop() {
		c.mu.Lock()
		gen := c.generation
		q := strings.TrimSpace(c.query)
		c.mu.Unlock()
		c.runSearch(gen, q)
	}
}
