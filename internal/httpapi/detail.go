package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"homeatlas/core-go/internal/backend"
	"homeatlas/core-go/internal/rankings"
)

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	parcelID, err := strconv.ParseInt(chi.URLParam(r, "parcelId"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "parcelId must be an integer", nil)
		return
	}

	view, err := h.detail.Load(r.Context(), parcelID)
	if err != nil {
		if backend.IsUnauthorized(err) {
			h.loginRequired(w)
			return
		}
		h.log.Error().Err(err).Int64("parcel_id", parcelID).Msg("detail load failed")
		h.writeError(w, http.StatusBadGateway, "backend_error", "failed to load property detail", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleRankings(w http.ResponseWriter, r *http.Request) {
	board := chi.URLParam(r, "board")

	entries, err := h.rankings.Board(r.Context(), board)
	if err != nil {
		if errors.Is(err, rankings.ErrUnknownBoard) {
			h.writeError(w, http.StatusBadRequest, "validation_failed", "unknown ranking board", map[string]any{"board": board})
			return
		}
		h.log.Error().Err(err).Str("board", board).Msg("rankings load failed")
		h.writeError(w, http.StatusBadGateway, "backend_error", "failed to load rankings", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, entries)
}
