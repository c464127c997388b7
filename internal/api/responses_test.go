package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    Pagination
		wantErr bool
	}{
		{"defaults", "/", Pagination{Limit: 50, Offset: 0}, false},
		{"explicit", "/?limit=10&offset=30", Pagination{Limit: 10, Offset: 30}, false},
		{"zero_limit", "/?limit=0", Pagination{}, true},
		{"negative_offset", "/?offset=-1", Pagination{}, true},
		{"non_numeric", "/?limit=abc", Pagination{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			got, err := ParsePagination(req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParsePagination() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePagination() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParsePagination() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestQueryStringList(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?types=translation,%20call_end,", nil)
	got := QueryStringList(req, "types")
	want := []string{"translation", "call_end"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("QueryStringList() = %v, want %v", got, want)
	}

	if got := QueryStringList(req, "missing"); got != nil {
		t.Errorf("QueryStringList(missing) = %v, want nil", got)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "bad input")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Error != "bad input" {
		t.Errorf("error = %q, want bad input", body.Error)
	}
}
