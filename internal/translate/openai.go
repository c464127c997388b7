package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient calls an OpenAI-compatible /v1/chat/completions endpoint.
// Implements the Translator interface.
type OpenAIClient struct {
	url       string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// NewOpenAIClient creates a new chat-completion translation client.
func NewOpenAIClient(url, apiKey, model string, maxTokens int, timeout time.Duration) *OpenAIClient {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &OpenAIClient{
		url:       url,
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string { return "openai" }

// Translate sends one segment's text through the chat completion API.
// Segments are a live conversational stream, so there is no inline retry:
// a failure degrades immediately and retry policy, if any, lives upstream.
func (c *OpenAIClient) Translate(ctx context.Context, text, sourceLang, targetLang string) Outcome {
	system := fmt.Sprintf(
		"You are a translation engine. Translate the user's text from %s to %s. "+
			"Output only the translated text, with no explanation or quoting. "+
			"Preserve the tone of the original.",
		LanguageName(sourceLang), LanguageName(targetLang),
	)

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		Temperature: 0.1,
		MaxTokens:   c.maxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Outcome{Kind: OutcomeTransport, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Outcome{Kind: OutcomeTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Outcome{Kind: OutcomeTransport, Err: fmt.Errorf("chat request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return Outcome{Kind: OutcomeUpstream, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Kind: OutcomeTransport, Err: fmt.Errorf("read response: %w", err)}
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Outcome{Kind: OutcomeTransport, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(result.Choices) == 0 {
		return Outcome{Kind: OutcomeTransport, Err: fmt.Errorf("no choices in completion")}
	}

	translated := strings.TrimSpace(result.Choices[0].Message.Content)
	if translated == "" {
		return Outcome{Kind: OutcomeTransport, Err: fmt.Errorf("empty completion")}
	}

	return Outcome{Kind: OutcomeOK, Text: translated}
}
