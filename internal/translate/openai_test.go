package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOpenAIClient_Translate(t *testing.T) {
	t.Run("success_trims_completion", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req chatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
				t.Errorf("messages = %+v, want system+user", req.Messages)
			}
			if req.Temperature != 0.1 {
				t.Errorf("temperature = %v, want 0.1", req.Temperature)
			}
			if req.MaxTokens != 512 {
				t.Errorf("max_tokens = %d, want 512", req.MaxTokens)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices":[{"message":{"content":"  hola mundo \n"}}],"usage":{"prompt_tokens":30,"completion_tokens":4}}`))
		}))
		defer srv.Close()

		c := NewOpenAIClient(srv.URL, "key", "gpt-4o-mini", 512, 2*time.Second)
		out := c.Translate(context.Background(), "hello world", "en", "es")

		if !out.OK() {
			t.Fatalf("outcome = %+v, want OK", out)
		}
		if out.Text != "hola mundo" {
			t.Errorf("Text = %q, want trimmed translation", out.Text)
		}
	})

	t.Run("instruction_uses_language_names", func(t *testing.T) {
		var system string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req chatRequest
			json.NewDecoder(r.Body).Decode(&req)
			system = req.Messages[0].Content
			w.Write([]byte(`{"choices":[{"message":{"content":"x"}}]}`))
		}))
		defer srv.Close()

		c := NewOpenAIClient(srv.URL, "key", "gpt-4o-mini", 0, 2*time.Second)
		c.Translate(context.Background(), "hi", "en", "es")

		wantFrom, wantTo := "from English", "to Spanish"
		if !strings.Contains(system, wantFrom) || !strings.Contains(system, wantTo) {
			t.Errorf("system prompt %q missing %q / %q", system, wantFrom, wantTo)
		}
	})

	t.Run("upstream_error_carries_status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewOpenAIClient(srv.URL, "key", "gpt-4o-mini", 0, 2*time.Second)
		out := c.Translate(context.Background(), "hello", "en", "es")

		if out.Kind != OutcomeUpstream {
			t.Fatalf("Kind = %v, want OutcomeUpstream", out.Kind)
		}
		if out.Status != http.StatusTooManyRequests {
			t.Errorf("Status = %d, want 429", out.Status)
		}
		if got := out.StoredText("hello"); got != "[Translation unavailable] hello" {
			t.Errorf("StoredText = %q, want tagged fallback", got)
		}
	})

	t.Run("transport_error_on_unreachable_server", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // immediately, so dialing fails

		c := NewOpenAIClient(srv.URL, "key", "gpt-4o-mini", 0, time.Second)
		out := c.Translate(context.Background(), "hello", "en", "es")

		if out.Kind != OutcomeTransport {
			t.Fatalf("Kind = %v, want OutcomeTransport", out.Kind)
		}
		if out.Err == nil {
			t.Error("Err = nil, want transport cause")
		}
		if got := out.StoredText("hello"); got != "[Translation error] hello" {
			t.Errorf("StoredText = %q, want tagged fallback", got)
		}
	})

	t.Run("malformed_body_is_transport_error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}))
		defer srv.Close()

		c := NewOpenAIClient(srv.URL, "key", "gpt-4o-mini", 0, time.Second)
		out := c.Translate(context.Background(), "hello", "en", "es")
		if out.Kind != OutcomeTransport {
			t.Errorf("Kind = %v, want OutcomeTransport", out.Kind)
		}
	})

	t.Run("empty_completion_is_transport_error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
		}))
		defer srv.Close()

		c := NewOpenAIClient(srv.URL, "key", "gpt-4o-mini", 0, time.Second)
		out := c.Translate(context.Background(), "hello", "en", "es")
		if out.Kind != OutcomeTransport {
			t.Errorf("Kind = %v, want OutcomeTransport", out.Kind)
		}
	})
}
