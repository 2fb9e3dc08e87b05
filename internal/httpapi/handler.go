// Package httpapi exposes the sync engine to the presentational layer:
// every user interaction (viewport settle, filter edit, keystroke, region
// click, detail open, favorites action) is an endpoint, and every piece of
// published engine state is readable.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"homeatlas/core-go/internal/detail"
	"homeatlas/core-go/internal/favorites"
	"homeatlas/core-go/internal/filter"
	"homeatlas/core-go/internal/mapsurface"
	"homeatlas/core-go/internal/markers"
	"homeatlas/core-go/internal/metrics"
	"homeatlas/core-go/internal/rankings"
	"homeatlas/core-go/internal/region"
	"homeatlas/core-go/internal/search"
	"homeatlas/core-go/internal/sidebar"
)

type Handler struct {
	log         zerolog.Logger
	metrics     *metrics.Metrics
	filters     *filter.Set
	coordinator *markers.Coordinator
	regions     *region.Navigator
	search      *search.Coordinator
	sidebar     *sidebar.Machine
	favorites   *favorites.Sync
	detail      *detail.Loader
	rankings    *rankings.Service
	mapview     *mapsurface.Recorder
	ready       func(ctx context.Context) error
}

// Deps carries the engine components the handler serves. Ready probes
// backend reachability for /readyz; nil reports not ready.
type Deps struct {
	Metrics     *metrics.Metrics
	Filters     *filter.Set
	Coordinator *markers.Coordinator
	Regions     *region.Navigator
	Search      *search.Coordinator
	Sidebar     *sidebar.Machine
	Favorites   *favorites.Sync
	Detail      *detail.Loader
	Rankings    *rankings.Service
	MapView     *mapsurface.Recorder
	Ready       func(ctx context.Context) error
}

func NewHandler(log zerolog.Logger, deps Deps) *Handler {
	return &Handler{
		log:         log,
		metrics:     deps.Metrics,
		filters:     deps.Filters,
		coordinator: deps.Coordinator,
		regions:     deps.Regions,
		search:      deps.Search,
		sidebar:     deps.Sidebar,
		favorites:   deps.Favorites,
		detail:      deps.Detail,
		rankings:    deps.Rankings,
		mapview:     deps.MapView,
		ready:       deps.Ready,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Handle("/metrics", h.metrics.Handler())

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/map", func(r chi.Router) {
				r.Post("/settle", h.handleMapSettle)
				r.Get("/markers", h.handleMapMarkers)
			})
			r.Get("/mapview", h.handleMapView)

			r.Route("/filters", func(r chi.Router) {
				r.Get("/", h.handleGetFilters)
				r.Put("/{dimension}", h.handlePutFilter)
				r.Delete("/", h.handleResetFilters)
			})

			r.Route("/search", func(r chi.Router) {
				r.Put("/text", h.handleSearchText)
				r.Get("/results", h.handleSearchResults)
			})

			r.Route("/regions", func(r chi.Router) {
				r.Get("/nav", h.handleRegionNav)
				r.Post("/select", h.handleRegionSelect)
				r.Post("/breadcrumb", h.handleRegionBreadcrumb)
			})

			r.Route("/sidebar", func(r chi.Router) {
				r.Get("/", h.handleSidebarState)
				r.Post("/detail", h.handleSidebarDetail)
				r.Post("/back", h.handleSidebarBack)
				r.Post("/mode", h.handleSidebarMode)
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", h.handleListFavorites)
				r.Post("/", h.handleAddFavorite)
				r.Get("/exists", h.handleFavoriteExists)
				r.Delete("/{parcelId}", h.handleRemoveFavorite)
				r.Post("/{favoriteId}/alarm", h.handleFavoriteAlarm)
			})

			r.Get("/detail/{parcelId}", h.handleDetail)
			r.Get("/rankings/{board}", h.handleRankings)
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = r.URL.Path
		}
		h.metrics.ObserveHTTPRequest(r.Method, routePattern, ww.Status(), time.Since(start))

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("http_request")
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

// loginRequired surfaces an auth failure so the UI raises the login prompt
// instead of collapsing it into the anonymous "not favorited" state.
func (h *Handler) loginRequired(w http.ResponseWriter) {
	h.writeError(w, http.StatusUnauthorized, "login_required", "sign in to continue", nil)
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.ready == nil {
		h.writeError(w, http.StatusServiceUnavailable, "backend_unavailable", "backend not configured", nil)
		return
	}

	if err := h.ready(ctx); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "backend_unavailable", "backend not reachable", map[string]any{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}
