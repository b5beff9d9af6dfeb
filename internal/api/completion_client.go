package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"wxinsight/internal/metrics"
)

var (
	// ErrCircuitOpen is returned while the breaker rejects calls
	ErrCircuitOpen = errors.New("circuit breaker open")
	// ErrEmptyPrompt is returned for a blank prompt
	ErrEmptyPrompt = errors.New("empty prompt")
)

// Completer turns a prompt into free text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type completionRequest struct {
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Response string `json:"response"`
}

// CompletionClient calls the AI text service. Failed calls are not retried;
// repeated failures open the circuit breaker and calls fail fast until it
// half-opens again.
type CompletionClient struct {
	url     string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewCompletionClient creates a client for the completion endpoint at url
func NewCompletionClient(url string, timeout time.Duration) *CompletionClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ai-completion",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &CompletionClient{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		circuit: cb,
	}
}

// Complete sends prompt and returns the response text
func (c *CompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	start := time.Now()
	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.post(ctx, prompt)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordAICall("circuit_open", time.Since(start))
		return "", fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	case err != nil:
		metrics.RecordAICall("error", time.Since(start))
		return "", err
	}

	metrics.RecordAICall("success", time.Since(start))
	text, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result type from circuit breaker")
	}
	return text, nil
}

func (c *CompletionClient) post(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to encode prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call completion service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("completion service error: status %d, body: %s", resp.StatusCode, string(msg))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode completion: %w", err)
	}
	return out.Response, nil
}

// State reports the breaker state for health output
func (c *CompletionClient) State() string {
	return c.circuit.State().String()
}
