// Package summary calls the external topic-suggestion service. The core only
// knows this narrow request/response surface; the service internals are a
// black box.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/commverse/commverse/internal/domain"
)

const defaultPrompt = "Based on the chat content provided, suggest three relevant and interesting conversation topics."

// Client is a thin HTTP client for the topic-suggestion endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Config struct {
	BaseURL string
	APIKey  string
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether a service URL was provided at all.
func (c *Client) Configured() bool { return c.baseURL != "" }

type suggestRequest struct {
	Prompt      string `json:"prompt"`
	ChatContent string `json:"chatContent"`
}

type suggestResponse struct {
	Topics []string `json:"topics"`
}

// SuggestTopics flattens a transcript and asks the service for topics.
func (c *Client) SuggestTopics(ctx context.Context, msgs []domain.ChatMessage) ([]string, error) {
	var sb strings.Builder
	for _, m := range msgs {
		sb.WriteString(m.SenderName)
		sb.WriteString(": ")
		sb.WriteString(m.Text)
		sb.WriteString("\n")
	}

	body, err := json.Marshal(suggestRequest{
		Prompt:      defaultPrompt,
		ChatContent: sb.String(),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/topics", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("summarizer returned %d: %s", resp.StatusCode, string(raw))
	}

	var out suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode summarizer response: %w", err)
	}
	return out.Topics, nil
}
