// Package region drives the province → city/county → neighborhood drill
// navigation: a lazily loaded 3-level tree with per-node children caching
// and map recenter commands on selection.
package region

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"homeatlas/core-go/internal/backend"
	"homeatlas/core-go/internal/mapsurface"
)

// Levels of the drill tree.
const (
	LevelProvince     = 0
	LevelCityCounty   = 1
	LevelNeighborhood = 2
)

// Zoom levels commanded when a selection at the given drill level recenters
// the map: coarser for provinces, finer as the user drills down.
func zoomForLevel(level int) int {
	switch level {
	case LevelProvince:
		return 7
	case LevelCityCounty:
		return 4
	case LevelNeighborhood:
		return 3
	default:
		return 10
	}
}

// Client is the slice of the backend client the navigator needs.
type Client interface {
	RegionRoot(ctx context.Context) ([]backend.RegionNode, error)
	Region(ctx context.Context, id int64) (backend.RegionNode, error)
}

type crumb struct {
	ID   int64
	Name string
}

type Navigator struct {
	log     zerolog.Logger
	client  Client
	surface mapsurface.Surface
	timeout time.Duration

	mu         sync.Mutex
	root       []backend.RegionNode
	rootLoaded bool
	current    *backend.RegionNode // parent whose children are listed, nil at the root
	level      int
	selected   [3]*crumb
	loading    bool
	// The tree grows monotonically within a session: children fetched once
	// are cached on the node and never evicted.
	cache map[int64]backend.RegionNode
}

type Options struct {
	// FetchTimeout bounds one region fetch. Defaults to 5s.
	FetchTimeout time.Duration
}

func New(log zerolog.Logger, client Client, surface mapsurface.Surface, opts Options) *Navigator {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Navigator{
		log:     log,
		client:  client,
		surface: surface,
		timeout: timeout,
		cache:   make(map[int64]backend.RegionNode),
	}
}

// ensureRoot loads the province list on first use. A failed load degrades
// to an empty list and is retried on the next call.
func (n *Navigator) ensureRoot(ctx context.Context) {
	n.mu.Lock()
	if n.rootLoaded {
		n.mu.Unlock()
		return
	}
	n.loading = true
	n.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	nodes, err := n.client.RegionRoot(fetchCtx)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.loading = false
	if err != nil {
		n.log.Error().Err(err).Msg("region root load failed")
		n.root = []backend.RegionNode{}
		return
	}
	n.root = nodes
	n.rootLoaded = true
}

// node returns the region with its children, from the session cache when
// the node was expanded before.
func (n *Navigator) node(ctx context.Context, id int64) (backend.RegionNode, error) {
	n.mu.Lock()
	if cached, ok := n.cache[id]; ok {
		n.mu.Unlock()
		return cached, nil
	}
	n.loading = true
	n.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	node, err := n.client.Region(fetchCtx, id)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.loading = false
	if err != nil {
		return backend.RegionNode{}, err
	}
	n.cache[id] = node
	return node, nil
}

func (n *Navigator) recenter(node backend.RegionNode, zoomStep int) {
	if !node.HasCoordinates() {
		n.log.Warn().Int64("region_id", node.ID).Msg("region has no coordinates, recenter skipped")
		return
	}
	n.surface.SetCenter(mapsurface.LatLng{Lat: *node.Latitude, Lng: *node.Longitude})
	n.surface.SetLevel(zoomForLevel(zoomStep))
}

// SelectItem handles a click on the item list. At the province and
// city/county levels it records the selection, loads the item's children,
// advances one level and recenters the map. At the neighborhood level it
// only recenters; there is nothing further to drill into.
func (n *Navigator) SelectItem(ctx context.Context, id int64) error {
	n.ensureRoot(ctx)

	n.mu.Lock()
	level := n.level
	item, ok := n.findLocked(id)
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("region: item %d is not in the current list", id)
	}

	switch level {
	case LevelProvince, LevelCityCounty:
		node, err := n.node(ctx, id)

		n.mu.Lock()
		n.selected[level] = &crumb{ID: item.ID, Name: item.Name}
		for l := level + 1; l < len(n.selected); l++ {
			n.selected[l] = nil
		}
		if err != nil {
			// Degrade to an empty list; the selection sticks so the
			// breadcrumb can retry the fetch.
			n.current = nil
			n.mu.Unlock()
			n.log.Error().Err(err).Int64("region_id", id).Msg("region children load failed")
			return nil
		}
		n.current = &node
		n.level = level + 1
		n.mu.Unlock()

		n.recenter(node, level)
		return nil

	default:
		node, err := n.node(ctx, id)

		n.mu.Lock()
		n.selected[LevelNeighborhood] = &crumb{ID: item.ID, Name: item.Name}
		n.mu.Unlock()
		if err != nil {
			n.log.Error().Err(err).Int64("region_id", id).Msg("neighborhood load failed, recenter skipped")
			return nil
		}
		n.recenter(node, LevelNeighborhood)
		return nil
	}
}

// NavigateToBreadcrumb jumps back to an earlier drill level. The province
// crumb resets to the root list; deeper crumbs re-fetch the selected
// parent's children. A crumb with no selected parent is a no-op.
func (n *Navigator) NavigateToBreadcrumb(ctx context.Context, level int) error {
	if level < LevelProvince || level > LevelNeighborhood {
		return fmt.Errorf("region: invalid breadcrumb level %d", level)
	}

	if level == LevelProvince {
		n.mu.Lock()
		n.level = LevelProvince
		n.current = nil
		n.selected = [3]*crumb{}
		n.mu.Unlock()
		return nil
	}

	n.mu.Lock()
	parent := n.selected[level-1]
	n.mu.Unlock()
	if parent == nil {
		return nil
	}

	node, err := n.node(ctx, parent.ID)

	n.mu.Lock()
	for l := level; l < len(n.selected); l++ {
		n.selected[l] = nil
	}
	if err != nil {
		n.current = nil
		n.mu.Unlock()
		n.log.Error().Err(err).Int64("region_id", parent.ID).Msg("breadcrumb reload failed")
		return nil
	}
	n.current = &node
	n.level = level
	n.mu.Unlock()

	n.recenter(node, level-1)
	return nil
}

// Crumb is one breadcrumb entry; nil-ID entries render as unselected.
type Crumb struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// State is the list view the sidebar renders.
type State struct {
	Level   int                  `json:"level"`
	Crumbs  [3]Crumb             `json:"crumbs"`
	Items   []backend.RegionNode `json:"items"`
	Loading bool                 `json:"loading"`
}

// State ensures the root list is loaded, then snapshots the drill position.
func (n *Navigator) State(ctx context.Context) State {
	n.ensureRoot(ctx)

	n.mu.Lock()
	defer n.mu.Unlock()
	s := State{Level: n.level, Loading: n.loading, Items: n.itemsLocked()}
	for i, c := range n.selected {
		if c != nil {
			s.Crumbs[i] = Crumb{ID: c.ID, Name: c.Name}
		}
	}
	return s
}

func (n *Navigator) itemsLocked() []backend.RegionNode {
	if n.level == LevelProvince {
		if n.root == nil {
			return []backend.RegionNode{}
		}
		return n.root
	}
	if n.current == nil || n.current.Children == nil {
		return []backend.RegionNode{}
	}
	return n.current.Children
}

func (n *Navigator) findLocked(id int64) (backend.RegionNode, bool) {
	for _, item := range n.itemsLocked() {
		if item.ID == id {
			return item, true
		}
	}
	return backend.RegionNode{}, false
}
