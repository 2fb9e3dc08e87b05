package httpapi

import (
	"math"
	"net/http"

	"homeatlas/core-go/internal/mapsurface"
)

type settleRequest struct {
	Center mapsurface.LatLng `json:"center"`
	Level  int               `json:"level"`
	Bounds mapsurface.Bounds `json:"bounds"`
}

func (req settleRequest) validate() (string, bool) {
	for _, f := range []float64{
		req.Center.Lat, req.Center.Lng,
		req.Bounds.SW.Lat, req.Bounds.SW.Lng,
		req.Bounds.NE.Lat, req.Bounds.NE.Lng,
	} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "coordinates must be finite", false
		}
	}
	if req.Bounds.SW.Lat > req.Bounds.NE.Lat || req.Bounds.SW.Lng > req.Bounds.NE.Lng {
		return "bounds southwest corner must not exceed northeast corner", false
	}
	if req.Level < 1 {
		return "level must be positive", false
	}
	return "", true
}

// handleMapSettle is the viewport-settlement event: resolve granularity,
// run one coordinated fetch with the currently committed filters, and
// return the published marker state.
func (h *Handler) handleMapSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if msg, ok := req.validate(); !ok {
		h.writeError(w, http.StatusBadRequest, "validation_failed", msg, nil)
		return
	}

	vp := mapsurface.Viewport{Center: req.Center, Level: req.Level, Bounds: req.Bounds}
	h.coordinator.OnViewportSettled(r.Context(), vp, h.filters.Encode())

	h.writeJSON(w, http.StatusOK, h.coordinator.Snapshot())
}

func (h *Handler) handleMapMarkers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.coordinator.Snapshot())
}

// handleMapView reports the last commanded map position so the surface can
// apply recenter/re-zoom commands issued by region and search selection.
func (h *Handler) handleMapView(w http.ResponseWriter, r *http.Request) {
	center, level := h.mapview.State()
	h.writeJSON(w, http.StatusOK, map[string]any{"center": center, "level": level})
}
