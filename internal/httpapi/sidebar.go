package httpapi

import (
	"net/http"

	"homeatlas/core-go/internal/mapsurface"
	"homeatlas/core-go/internal/sidebar"
)

func (h *Handler) handleSidebarState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.sidebar.Snapshot())
}

type openDetailRequest struct {
	ParcelID  int64    `json:"parcelId"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// handleSidebarDetail opens the detail view from whatever mode is current
// (marker click, search result, favorite row) and, when the caller knows
// the property's coordinates, recenters the map at the fine zoom level.
func (h *Handler) handleSidebarDetail(w http.ResponseWriter, r *http.Request) {
	var req openDetailRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if req.ParcelID <= 0 {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "parcelId is required", nil)
		return
	}

	h.sidebar.OpenDetail(req.ParcelID)

	if finite(req.Latitude) && finite(req.Longitude) {
		h.mapview.SetCenter(mapsurface.LatLng{Lat: *req.Latitude, Lng: *req.Longitude})
		h.mapview.SetLevel(3)
	}

	h.writeJSON(w, http.StatusOK, h.sidebar.Snapshot())
}

func (h *Handler) handleSidebarBack(w http.ResponseWriter, r *http.Request) {
	h.sidebar.GoBack()
	h.writeJSON(w, http.StatusOK, h.sidebar.Snapshot())
}

type setModeRequest struct {
	Mode sidebar.Mode `json:"mode"`
}

// handleSidebarMode is direct entry for favorites/rankings (and the
// favorites back button, which hardcodes region-nav). It never touches
// the detail return slot; detail entry goes through /sidebar/detail.
func (h *Handler) handleSidebarMode(w http.ResponseWriter, r *http.Request) {
	var req setModeRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if !req.Mode.Valid() || req.Mode == sidebar.ModeDetail {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid sidebar mode", map[string]any{"mode": string(req.Mode)})
		return
	}

	h.sidebar.SetMode(req.Mode)
	h.writeJSON(w, http.StatusOK, h.sidebar.Snapshot())
}
