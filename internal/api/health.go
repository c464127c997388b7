package api

import (
	"context"
	"net/http"
	"time"
)

// HealthDB is the database surface the health endpoint probes.
type HealthDB interface {
	HealthCheck(ctx context.Context) error
}

// HealthMQTT reports broker connectivity.
type HealthMQTT interface {
	IsConnected() bool
}

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

type HealthHandler struct {
	db           HealthDB
	mqtt         HealthMQTT
	voiceToVoice bool
	version      string
	startTime    time.Time
}

func NewHealthHandler(db HealthDB, mqtt HealthMQTT, voiceToVoice bool, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		db:           db,
		mqtt:         mqtt,
		voiceToVoice: voiceToVoice,
		version:      version,
		startTime:    startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.HealthCheck(r.Context()); err != nil {
		checks["database"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.mqtt != nil {
		if h.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			if status == "healthy" {
				status = "degraded"
			}
		}
	} else {
		checks["mqtt"] = "not_configured"
	}

	if h.voiceToVoice {
		checks["voice_to_voice"] = "enabled"
	} else {
		checks["voice_to_voice"] = "disabled"
	}

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}
