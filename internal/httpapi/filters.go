package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"homeatlas/core-go/internal/filter"
)

type filterView struct {
	Min     float64      `json:"min"`
	Max     float64      `json:"max"`
	Default filter.Range `json:"default"`
	Applied bool         `json:"applied"`
}

func (h *Handler) filtersView() map[filter.Dimension]filterView {
	out := make(map[filter.Dimension]filterView, len(filter.Dimensions()))
	for _, d := range filter.Dimensions() {
		r := h.filters.Range(d)
		def, _ := filter.DefaultRange(d)
		out[d] = filterView{Min: r.Min, Max: r.Max, Default: def, Applied: h.filters.IsApplied(d)}
	}
	return out
}

func (h *Handler) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.filtersView())
}

// handlePutFilter commits one range edit and refetches the current
// viewport with the pending filter set, not the one from before the edit.
func (h *Handler) handlePutFilter(w http.ResponseWriter, r *http.Request) {
	dim := filter.Dimension(chi.URLParam(r, "dimension"))
	if _, ok := filter.DefaultRange(dim); !ok {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "unknown filter dimension", map[string]any{"dimension": string(dim)})
		return
	}

	var req filter.Range
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	committed, payload, err := h.filters.SetRange(dim, req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}

	h.coordinator.OnFilterCommitted(r.Context(), payload)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"dimension": dim,
		"range":     committed,
		"filters":   h.filtersView(),
		"markers":   h.coordinator.Snapshot(),
	})
}

// handleResetFilters restores every dimension to its default, refetches
// with the all-null payload and resets the sidebar as a side effect.
func (h *Handler) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	payload := h.filters.ResetAll()
	h.coordinator.OnFilterCommitted(r.Context(), payload)
	h.sidebar.Reset()
	h.search.SetText("")

	h.writeJSON(w, http.StatusOK, map[string]any{
		"filters": h.filtersView(),
		"markers": h.coordinator.Snapshot(),
		"sidebar": h.sidebar.Snapshot(),
	})
}
