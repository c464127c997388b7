package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates_id_when_missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		RequestID(okHandler()).ServeHTTP(rec, req)

		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected generated X-Request-ID header")
		}
	})

	t.Run("preserves_client_id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "client-id-1")

		RequestID(okHandler()).ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "client-id-1" {
			t.Errorf("X-Request-ID = %q, want client-id-1", got)
		}
	})
}

func TestRecoverer(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	handler := Logger(zerolog.Nop())(Recoverer(panicking))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
		query  string
		want   int
	}{
		{"no_token_configured_allows_all", "", "", "", http.StatusOK},
		{"valid_header", "secret", "Bearer secret", "", http.StatusOK},
		{"invalid_header", "secret", "Bearer wrong", "", http.StatusUnauthorized},
		{"missing_credentials", "secret", "", "", http.StatusUnauthorized},
		{"query_param_fallback", "secret", "", "secret", http.StatusOK},
		{"wrong_query_param", "secret", "", "wrong", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/"
			if tt.query != "" {
				target = "/?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			BearerAuth(tt.token)(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCORSPreflights(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)

	CORS(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin header")
	}
}
