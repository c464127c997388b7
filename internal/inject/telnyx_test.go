package inject

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStartPlayback(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody playbackStartRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"result":"ok","playback_id":"pb-77"}}`))
	}))
	defer server.Close()

	client := NewTelnyxClient(server.URL, "test-key", 2*time.Second)
	id, err := client.StartPlayback(context.Background(), "cc-abc", "https://audio.example.com/call-1/0.mp3")
	if err != nil {
		t.Fatalf("StartPlayback() error = %v", err)
	}

	if id != "pb-77" {
		t.Errorf("playback id = %q, want %q", id, "pb-77")
	}
	if gotPath != "/calls/cc-abc/actions/playback_start" {
		t.Errorf("path = %q, want %q", gotPath, "/calls/cc-abc/actions/playback_start")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q, want bearer token", gotAuth)
	}
	if gotBody.AudioURL != "https://audio.example.com/call-1/0.mp3" {
		t.Errorf("audio_url = %q, want request URL", gotBody.AudioURL)
	}
}

func TestStartPlaybackErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors":[{"title":"Call has already ended"}]}`))
	}))
	defer server.Close()

	client := NewTelnyxClient(server.URL, "test-key", 2*time.Second)
	_, err := client.StartPlayback(context.Background(), "cc-abc", "https://audio.example.com/a.mp3")
	if err == nil {
		t.Fatal("StartPlayback() error = nil, want status error")
	}
}

func TestStartPlaybackMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewTelnyxClient(server.URL, "test-key", 2*time.Second)
	_, err := client.StartPlayback(context.Background(), "cc-abc", "https://audio.example.com/a.mp3")
	if err == nil {
		t.Fatal("StartPlayback() error = nil, want parse error")
	}
}
