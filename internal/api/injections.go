package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/voxbridge/lt-engine/internal/database"
)

// InjectionStore is the read surface for injection work items.
// Implemented by *database.DB.
type InjectionStore interface {
	ListInjections(ctx context.Context, status string, limit, offset int) ([]database.AudioInjectionAPI, error)
	CountInjectionsByStatus(ctx context.Context) (map[string]int64, error)
}

type InjectionsHandler struct {
	store InjectionStore
}

func NewInjectionsHandler(store InjectionStore) *InjectionsHandler {
	return &InjectionsHandler{store: store}
}

type injectionsResponse struct {
	Injections []database.AudioInjectionAPI `json:"injections"`
	Counts     map[string]int64             `json:"counts"`
}

// ListInjections returns injection work items, optionally filtered by
// lifecycle status.
func (h *InjectionsHandler) ListInjections(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, _ := QueryString(r, "status")
	switch status {
	case "", database.InjectionQueued, database.InjectionProcessing,
		database.InjectionCompleted, database.InjectionFailed:
	default:
		WriteError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	injections, err := h.store.ListInjections(r.Context(), status, p.Limit, p.Offset)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list injections failed")
		WriteError(w, http.StatusInternalServerError, "failed to list injections")
		return
	}
	counts, err := h.store.CountInjectionsByStatus(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("count injections failed")
		WriteError(w, http.StatusInternalServerError, "failed to count injections")
		return
	}

	WriteJSON(w, http.StatusOK, injectionsResponse{Injections: injections, Counts: counts})
}

// Routes registers injection routes on the given router.
func (h *InjectionsHandler) Routes(r chi.Router) {
	r.Get("/injections", h.ListInjections)
}
