package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/voxbridge/lt-engine/internal/database"
)

type fakeTranslationStore struct {
	legs         map[string]*database.CallLeg
	translations map[string][]database.TranslationAPI
}

func (s *fakeTranslationStore) GetCallLeg(_ context.Context, callID string) (*database.CallLeg, error) {
	if leg, ok := s.legs[callID]; ok {
		return leg, nil
	}
	return nil, database.ErrCallNotFound
}

func (s *fakeTranslationStore) ListTranslationsByCall(_ context.Context, callID string, limit, offset int) ([]database.TranslationAPI, error) {
	rows := s.translations[callID]
	if rows == nil {
		return []database.TranslationAPI{}, nil
	}
	return rows, nil
}

func (s *fakeTranslationStore) CountTranslationsByCall(_ context.Context, callID string) (int, error) {
	return len(s.translations[callID]), nil
}

func translationsRouter(store TranslationStore) http.Handler {
	r := chi.NewRouter()
	NewTranslationsHandler(store).Routes(r)
	return r
}

func TestGetCallTranslations(t *testing.T) {
	store := &fakeTranslationStore{
		legs: map[string]*database.CallLeg{
			"call-1": {ID: "call-1", OrganizationID: "org-1", FlowType: database.FlowDirect},
		},
		translations: map[string][]database.TranslationAPI{
			"call-1": {
				{CallID: "call-1", SegmentIndex: 0, OriginalText: "hello", TranslatedText: "hola"},
				{CallID: "call-1", SegmentIndex: 1, OriginalText: "bye", TranslatedText: "adios"},
			},
		},
	}

	t.Run("returns_transcript", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/calls/call-1/translations", nil)
		translationsRouter(store).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp struct {
			Call         *database.CallLeg         `json:"call"`
			Translations []database.TranslationAPI `json:"translations"`
			Total        int                       `json:"total"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
		if resp.Total != 2 {
			t.Errorf("total = %d, want 2", resp.Total)
		}
		if len(resp.Translations) != 2 {
			t.Fatalf("translations = %d, want 2", len(resp.Translations))
		}
		if resp.Translations[0].SegmentIndex != 0 || resp.Translations[1].SegmentIndex != 1 {
			t.Error("transcript not in segment order")
		}
		if resp.Call == nil || resp.Call.ID != "call-1" {
			t.Errorf("call = %+v, want call-1", resp.Call)
		}
	})

	t.Run("unknown_call_is_404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/calls/nope/translations", nil)
		translationsRouter(store).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("invalid_pagination_is_400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/calls/call-1/translations?limit=0", nil)
		translationsRouter(store).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}
