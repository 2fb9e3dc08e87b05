// Package markers owns the displayed marker state and the one-fetch-per-
// settlement coordination that keeps it in sync with the viewport.
//
// Every dispatch bumps a monotonically increasing epoch and captures its
// value; a response is applied only if its captured epoch still equals the
// coordinator's current epoch. Last-dispatched wins regardless of response
// arrival order, so a slow early response can never overwrite a fast later
// one. Cancellation is logical: in-flight calls are never aborted, their
// results are dropped.
package markers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"homeatlas/core-go/internal/backend"
	"homeatlas/core-go/internal/filter"
	"homeatlas/core-go/internal/mapsurface"
	"homeatlas/core-go/internal/metrics"
	"homeatlas/core-go/internal/viewport"
)

// Fetcher is the slice of the backend client the coordinator needs.
type Fetcher interface {
	MapComplexes(ctx context.Context, b backend.BoundsPayload, f filter.Payload) ([]backend.ComplexMarker, error)
	MapRegions(ctx context.Context, b backend.BoundsPayload, g viewport.Granularity) ([]backend.RegionMarker, error)
}

type Coordinator struct {
	log     zerolog.Logger
	fetch   Fetcher
	metrics *metrics.Metrics
	timeout time.Duration

	mu          sync.Mutex
	epoch       uint64
	vp          mapsurface.Viewport
	hasViewport bool
	granularity viewport.Granularity
	complexes   []backend.ComplexMarker
	regions     []backend.RegionMarker
	lastError   string
}

type Options struct {
	// FetchTimeout bounds one backend call. Defaults to 5s.
	FetchTimeout time.Duration
}

func New(log zerolog.Logger, fetch Fetcher, m *metrics.Metrics, opts Options) *Coordinator {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Coordinator{
		log:       log,
		fetch:     fetch,
		metrics:   m,
		timeout:   timeout,
		complexes: []backend.ComplexMarker{},
		regions:   []backend.RegionMarker{},
	}
}

// OnViewportSettled records the settled viewport and runs one fetch against
// it. The filter payload is passed explicitly so the fetch always uses the
// caller's pending value, never an older committed one.
func (c *Coordinator) OnViewportSettled(ctx context.Context, vp mapsurface.Viewport, filters filter.Payload) {
	c.mu.Lock()
	c.vp = vp
	c.hasViewport = true
	c.epoch++
	myEpoch := c.epoch
	c.mu.Unlock()

	c.fetchAndPublish(ctx, myEpoch, vp, filters)
}

// OnFilterCommitted re-fetches the current viewport with a freshly
// committed filter set. A no-op until the first settlement arrives.
func (c *Coordinator) OnFilterCommitted(ctx context.Context, filters filter.Payload) {
	c.mu.Lock()
	if !c.hasViewport {
		c.mu.Unlock()
		return
	}
	vp := c.vp
	c.epoch++
	myEpoch := c.epoch
	c.mu.Unlock()

	c.fetchAndPublish(ctx, myEpoch, vp, filters)
}

func (c *Coordinator) fetchAndPublish(ctx context.Context, myEpoch uint64, vp mapsurface.Viewport, filters filter.Payload) {
	res := viewport.Resolve(vp.Level)
	bounds := backend.BoundsPayload{
		SWLat: vp.Bounds.SW.Lat,
		SWLng: vp.Bounds.SW.Lng,
		NELat: vp.Bounds.NE.Lat,
		NELng: vp.Bounds.NE.Lng,
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var (
		complexes []backend.ComplexMarker
		regions   []backend.RegionMarker
		err       error
	)
	if res.IsComplex() {
		complexes, err = c.fetch.MapComplexes(fetchCtx, bounds, filters)
	} else {
		regions, err = c.fetch.MapRegions(fetchCtx, bounds, res.Granularity)
	}
	c.metrics.ObserveMapFetch(string(res.Granularity), err, time.Since(start))

	c.mu.Lock()
	defer c.mu.Unlock()

	if myEpoch != c.epoch {
		c.metrics.IncStaleDiscard()
		c.log.Debug().
			Uint64("epoch", myEpoch).
			Uint64("current", c.epoch).
			Str("granularity", string(res.Granularity)).
			Msg("stale marker response discarded")
		return
	}

	if err != nil {
		// Fail safe to empty, not to last-known-good. The next settle or
		// filter edit is the retry.
		c.complexes = []backend.ComplexMarker{}
		c.regions = []backend.RegionMarker{}
		c.granularity = res.Granularity
		c.lastError = "failed to load markers"
		c.log.Error().Err(err).
			Str("granularity", string(res.Granularity)).
			Int("level", vp.Level).
			Msg("marker fetch failed")
		return
	}

	// Publishing one kind clears the other so the display never mixes
	// granularities from different epochs.
	if res.IsComplex() {
		if complexes == nil {
			complexes = []backend.ComplexMarker{}
		}
		c.complexes = complexes
		c.regions = []backend.RegionMarker{}
	} else {
		if regions == nil {
			regions = []backend.RegionMarker{}
		}
		c.regions = regions
		c.complexes = []backend.ComplexMarker{}
	}
	c.granularity = res.Granularity
	c.lastError = ""
	c.metrics.ObserveMapPublish(time.Since(start))
	c.log.Info().
		Str("granularity", string(res.Granularity)).
		Int("complexes", len(c.complexes)).
		Int("regions", len(c.regions)).
		Int64("fetch_ms", time.Since(start).Milliseconds()).
		Msg("markers published")
}

// State is the published marker state read by the presentation layer.
type State struct {
	Granularity viewport.Granularity    `json:"granularity"`
	Complexes   []backend.ComplexMarker `json:"complexes"`
	Regions     []backend.RegionMarker  `json:"regions"`
	LastError   string                  `json:"lastError,omitempty"`
}

func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Granularity: c.granularity,
		Complexes:   c.complexes,
		Regions:     c.regions,
		LastError:   c.lastError,
	}
}

// Viewport returns the last settled viewport, false before the first
// settlement.
func (c *Coordinator) Viewport() (mapsurface.Viewport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vp, c.hasViewport
}
