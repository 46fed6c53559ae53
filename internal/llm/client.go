// Package llm talks to an OpenAI-compatible chat completions endpoint and
// pulls structured values out of its free-text replies.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/shoot/internal/config"
	"github.com/yourorg/shoot/internal/metrics"
)

// ErrNotConfigured is returned when a call is attempted without a credential.
var ErrNotConfigured = errors.New("llm api key not configured")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat completion. Operation labels the call in logs and metrics.
type Request struct {
	Operation   string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completer is satisfied by *Client and by test doubles.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, req Request) (string, error)
}

// Client is an OpenAI-compatible chat completions client. It sends each
// request once.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

var _ Completer = (*Client)(nil)

func New(cfg config.LLMConfig, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
		Logger:  logger,
		Metrics: m,
	}
}

func (c *Client) Configured() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != ""
}

// Chat sends a system and a user message.
func (c *Client) Chat(ctx context.Context, operation, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	return c.Complete(ctx, Request{
		Operation: operation,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
}

// Complete returns choices[0].message.content of the reply.
func (c *Client) Complete(ctx context.Context, r Request) (string, error) {
	content, err := c.complete(ctx, r)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, ErrNotConfigured) {
			outcome = "skipped"
		}
	}
	c.Metrics.ObserveLLM(r.Operation, outcome)
	return content, err
}

func (c *Client) complete(ctx context.Context, r Request) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	client := c.HTTPClient
	if client == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	payload := map[string]any{
		"model":       c.Model,
		"messages":    r.Messages,
		"temperature": r.Temperature,
		"max_tokens":  r.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if c.Logger != nil {
		c.Logger.Debug("llm request", "operation", r.Operation, "url", endpoint, "messages", len(r.Messages), "temperature", r.Temperature, "max_tokens", r.MaxTokens)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("read llm response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm error status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("llm response has no choices")
	}
	content := out.Choices[0].Message.Content
	if c.Logger != nil {
		c.Logger.Debug("llm response", "operation", r.Operation, "chars", len(content))
	}
	return content, nil
}
