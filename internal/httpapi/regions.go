package httpapi

import "net/http"

func (h *Handler) handleRegionNav(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.regions.State(r.Context()))
}

type regionSelectRequest struct {
	ID int64 `json:"id"`
}

func (h *Handler) handleRegionSelect(w http.ResponseWriter, r *http.Request) {
	var req regionSelectRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	if err := h.regions.SelectItem(r.Context(), req.ID); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), map[string]any{"id": req.ID})
		return
	}

	h.writeJSON(w, http.StatusOK, h.regions.State(r.Context()))
}

type breadcrumbRequest struct {
	Level int `json:"level"`
}

func (h *Handler) handleRegionBreadcrumb(w http.ResponseWriter, r *http.Request) {
	var req breadcrumbRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	if err := h.regions.NavigateToBreadcrumb(r.Context(), req.Level); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), map[string]any{"level": req.Level})
		return
	}

	h.writeJSON(w, http.StatusOK, h.regions.State(r.Context()))
}
