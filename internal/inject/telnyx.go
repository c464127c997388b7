package inject

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TelnyxClient drives call-control playback over the Telnyx v2 API.
type TelnyxClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewTelnyxClient(baseURL, apiKey string, timeout time.Duration) *TelnyxClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelnyxClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type playbackStartRequest struct {
	AudioURL string `json:"audio_url"`
}

type playbackStartResponse struct {
	Data struct {
		Result     string `json:"result"`
		PlaybackID string `json:"playback_id"`
	} `json:"data"`
}

// StartPlayback asks the provider to play the audio URL into the given call
// leg. Returns the provider's playback identifier when it reports one.
func (t *TelnyxClient) StartPlayback(ctx context.Context, callControlID, audioURL string) (string, error) {
	body, err := json.Marshal(playbackStartRequest{AudioURL: audioURL})
	if err != nil {
		return "", fmt.Errorf("marshal playback request: %w", err)
	}

	url := fmt.Sprintf("%s/calls/%s/actions/playback_start", t.baseURL, callControlID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create playback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("playback request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read playback response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("playback returned status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var parsed playbackStartResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse playback response: %w", err)
	}
	return parsed.Data.PlaybackID, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
