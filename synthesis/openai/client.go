package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/marcelsud/webhook-inspector/synthesis"
)

/* Client talks to an OpenAI compatible chat completions endpoint
 * Rate limiting, server errors and transport failures are reported as
 * transient; anything else the backend answers is a rejection
 */

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"

	systemPrompt  = "You are a senior engineer who writes webhook handlers. Reply with code only."
	maxErrorBytes = 4096
)

type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

// NewClient creates a client; empty baseURL and model use the defaults
func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		Model:       model,
		Temperature: 0.2,
		HTTPClient:  &http.Client{},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the prompt and returns the first choice's content
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model: c.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// cancellation by the caller is not worth a retry
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &synthesis.TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := readError(resp.Body)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return "", &synthesis.TransientError{StatusCode: resp.StatusCode, Err: errors.New(msg)}
		}
		return "", &synthesis.RejectedError{StatusCode: resp.StatusCode, Message: msg}
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &synthesis.TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding completion: %w", err)}
	}

	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &synthesis.RejectedError{StatusCode: resp.StatusCode, Message: "completion has no content"}
	}

	return out.Choices[0].Message.Content, nil
}

func readError(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBytes))

	var parsed errorResponse
	if json.Unmarshal(data, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return "empty response body"
}
