package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/voxbridge/lt-engine/internal/database"
)

// TranslationStore is the read surface for call transcripts.
// Implemented by *database.DB.
type TranslationStore interface {
	GetCallLeg(ctx context.Context, callID string) (*database.CallLeg, error)
	ListTranslationsByCall(ctx context.Context, callID string, limit, offset int) ([]database.TranslationAPI, error)
	CountTranslationsByCall(ctx context.Context, callID string) (int, error)
}

type TranslationsHandler struct {
	store TranslationStore
}

func NewTranslationsHandler(store TranslationStore) *TranslationsHandler {
	return &TranslationsHandler{store: store}
}

type callTranslationsResponse struct {
	Call         *database.CallLeg         `json:"call,omitempty"`
	Translations []database.TranslationAPI `json:"translations"`
	Total        int                       `json:"total"`
}

// GetCallTranslations returns a call's transcript in segment order, with the
// call-control row when one was announced.
func (h *TranslationsHandler) GetCallTranslations(w http.ResponseWriter, r *http.Request) {
	callID, err := PathString(r, "callID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	translations, err := h.store.ListTranslationsByCall(r.Context(), callID, p.Limit, p.Offset)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("call_id", callID).Msg("list translations failed")
		WriteError(w, http.StatusInternalServerError, "failed to list translations")
		return
	}
	total, err := h.store.CountTranslationsByCall(r.Context(), callID)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("call_id", callID).Msg("count translations failed")
		WriteError(w, http.StatusInternalServerError, "failed to count translations")
		return
	}

	resp := callTranslationsResponse{Translations: translations, Total: total}
	leg, err := h.store.GetCallLeg(r.Context(), callID)
	switch {
	case err == nil:
		resp.Call = leg
	case errors.Is(err, database.ErrCallNotFound):
		// A segment-only call never announced itself; transcript still counts.
	default:
		hlog.FromRequest(r).Warn().Err(err).Str("call_id", callID).Msg("call leg lookup failed")
	}

	if total == 0 && resp.Call == nil {
		WriteError(w, http.StatusNotFound, "call not found")
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Routes registers translation routes on the given router.
func (h *TranslationsHandler) Routes(r chi.Router) {
	r.Get("/calls/{callID}/translations", h.GetCallTranslations)
}
