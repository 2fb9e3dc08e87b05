package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"homeatlas/core-go/internal/favorites"
)

func (h *Handler) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	list, err := h.favorites.List(r.Context())
	if err != nil {
		if errors.Is(err, favorites.ErrLoginRequired) {
			h.loginRequired(w)
			return
		}
		h.log.Error().Err(err).Msg("list favorites failed")
		h.writeError(w, http.StatusBadGateway, "backend_error", "failed to load favorites", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

type addFavoriteRequest struct {
	ParcelID    int64  `json:"parcelId"`
	ComplexName string `json:"complexName"`
}

func (h *Handler) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req addFavoriteRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if req.ParcelID <= 0 {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "parcelId is required", nil)
		return
	}

	fav, err := h.favorites.Add(r.Context(), req.ParcelID, req.ComplexName)
	if err != nil {
		if errors.Is(err, favorites.ErrLoginRequired) {
			h.loginRequired(w)
			return
		}
		h.log.Error().Err(err).Int64("parcel_id", req.ParcelID).Msg("add favorite failed")
		h.writeError(w, http.StatusBadGateway, "backend_error", "failed to add favorite", nil)
		return
	}

	h.writeJSON(w, http.StatusCreated, fav)
}

func (h *Handler) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	parcelID, err := strconv.ParseInt(chi.URLParam(r, "parcelId"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "parcelId must be an integer", nil)
		return
	}

	if err := h.favorites.Remove(r.Context(), parcelID); err != nil {
		if errors.Is(err, favorites.ErrLoginRequired) {
			h.loginRequired(w)
			return
		}
		h.log.Error().Err(err).Int64("parcel_id", parcelID).Msg("remove favorite failed")
		h.writeError(w, http.StatusBadGateway, "backend_error", "failed to remove favorite", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"parcelId": parcelID, "favorited": false})
}

type alarmRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) handleFavoriteAlarm(w http.ResponseWriter, r *http.Request) {
	favoriteID, err := strconv.ParseInt(chi.URLParam(r, "favoriteId"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "favoriteId must be an integer", nil)
		return
	}

	var req alarmRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	fav, err := h.favorites.ToggleAlarm(r.Context(), favoriteID, req.Enabled)
	if err != nil {
		if errors.Is(err, favorites.ErrLoginRequired) {
			h.loginRequired(w)
			return
		}
		h.log.Error().Err(err).Int64("favorite_id", favoriteID).Msg("toggle alarm failed")
		h.writeError(w, http.StatusBadGateway, "backend_error", "failed to update alarm", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, fav)
}

// handleFavoriteExists distinguishes three outcomes the UI renders
// differently: favorited, not favorited (including anonymous), and
// authentication required.
func (h *Handler) handleFavoriteExists(w http.ResponseWriter, r *http.Request) {
	parcelID, err := strconv.ParseInt(r.URL.Query().Get("parcelId"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "parcelId must be an integer", nil)
		return
	}

	exists, err := h.favorites.Exists(r.Context(), parcelID)
	if err != nil {
		if errors.Is(err, favorites.ErrLoginRequired) {
			h.loginRequired(w)
			return
		}
		h.log.Error().Err(err).Int64("parcel_id", parcelID).Msg("favorite exists probe failed")
		h.writeError(w, http.StatusBadGateway, "backend_error", "failed to check favorite", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"parcelId": parcelID, "favorited": exists})
}
