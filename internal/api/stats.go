package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type StatsHandler struct {
	live LiveDataSource
}

func NewStatsHandler(live LiveDataSource) *StatsHandler {
	return &StatsHandler{live: live}
}

// GetStats returns live pipeline counters.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		WriteError(w, http.StatusServiceUnavailable, "pipeline stats not available")
		return
	}
	WriteJSON(w, http.StatusOK, h.live.Stats())
}

// Routes registers stats routes on the given router.
func (h *StatsHandler) Routes(r chi.Router) {
	r.Get("/stats", h.GetStats)
}
