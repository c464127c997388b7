package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeHealthDB struct {
	err error
}

func (f *fakeHealthDB) HealthCheck(context.Context) error { return f.err }

type fakeHealthMQTT struct {
	connected bool
}

func (f *fakeHealthMQTT) IsConnected() bool { return f.connected }

func getHealth(t *testing.T, h *HealthHandler) (int, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	h.ServeHTTP(rec, req)

	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return rec.Code, body
}

func TestHealthHandler(t *testing.T) {
	start := time.Now()

	t.Run("healthy", func(t *testing.T) {
		h := NewHealthHandler(&fakeHealthDB{}, &fakeHealthMQTT{connected: true}, true, "1.0.0", start)
		code, body := getHealth(t, h)

		if code != http.StatusOK {
			t.Errorf("status = %d, want %d", code, http.StatusOK)
		}
		if body.Status != "healthy" {
			t.Errorf("health = %q, want healthy", body.Status)
		}
		if body.Checks["voice_to_voice"] != "enabled" {
			t.Errorf("voice_to_voice = %q, want enabled", body.Checks["voice_to_voice"])
		}
	})

	t.Run("database_down_is_unhealthy", func(t *testing.T) {
		h := NewHealthHandler(&fakeHealthDB{err: errors.New("down")}, &fakeHealthMQTT{connected: true}, false, "1.0.0", start)
		code, body := getHealth(t, h)

		if code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", code, http.StatusServiceUnavailable)
		}
		if body.Status != "unhealthy" {
			t.Errorf("health = %q, want unhealthy", body.Status)
		}
	})

	t.Run("mqtt_down_is_degraded", func(t *testing.T) {
		h := NewHealthHandler(&fakeHealthDB{}, &fakeHealthMQTT{connected: false}, false, "1.0.0", start)
		code, body := getHealth(t, h)

		if code != http.StatusOK {
			t.Errorf("status = %d, want %d", code, http.StatusOK)
		}
		if body.Status != "degraded" {
			t.Errorf("health = %q, want degraded", body.Status)
		}
	})
}
