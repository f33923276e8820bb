// Package ark is a minimal client for the Ark chat-completions API, the
// opaque AI collaborator behind the browser-extension endpoints. The
// contract is request in, first-choice message content out; no streaming,
// no retries.
package ark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client calls one Ark endpoint with one model.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

// New returns a client for baseURL (the full chat-completions URL).
func New(baseURL, apiKey, model string, opts ...Option) *Client {
	c := &Client{baseURL: baseURL, apiKey: apiKey, model: model, client: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ImageURL wraps an image reference inside a content part.
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one element of a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// TextPart returns a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart returns an image content part for a data URI or http URL.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}

// Message is one chat turn. Content is either a plain string or a
// []ContentPart for multimodal turns.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ResponseFormat constrains the model's output shape.
type ResponseFormat struct {
	Type string `json:"type"`
}

// Thinking toggles the model's reasoning mode.
type Thinking struct {
	Type string `json:"type"`
}

// JSONObject asks for a single JSON object reply.
func JSONObject() *ResponseFormat { return &ResponseFormat{Type: "json_object"} }

// ThinkingDisabled turns reasoning off for latency.
func ThinkingDisabled() *Thinking { return &Thinking{Type: "disabled"} }

// Request is a chat-completions call. Model is filled by the client.
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	Thinking       *Thinking       `json:"thinking,omitempty"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete runs one chat-completions call and returns the first choice's
// message content.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	req.Model = c.model

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return "", fmt.Errorf("failed to encode ark request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to build ark request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ark request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ark service error (%d): %s", resp.StatusCode, body)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode ark response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ark response carried no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
