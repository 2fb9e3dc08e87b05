package httpapi

import (
	"math"
	"net/http"
)

type searchTextRequest struct {
	Q string `json:"q"`
}

// handleSearchText is one keystroke in the search bar; the debounce and
// the search-list/region-nav mode switch live in the coordinator.
func (h *Handler) handleSearchText(w http.ResponseWriter, r *http.Request) {
	var req searchTextRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	h.search.SetText(req.Q)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"search":  h.search.Snapshot(),
		"sidebar": h.sidebar.Snapshot(),
	})
}

func (h *Handler) handleSearchResults(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.search.Snapshot())
}

func finite(f *float64) bool {
	return f != nil && !math.IsNaN(*f) && !math.IsInf(*f, 0)
}
