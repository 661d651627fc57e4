// internal/common/genai/http.go
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	commonhttp "venue-recommender/internal/common/http"
	"venue-recommender/internal/common/logger"
)

const generatePath = "/api/ai/generate"

// HTTPConfig configures the GenAI HTTP backend.
type HTTPConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

// HTTPCompleter posts prompts to the GenAI service's generate endpoint.
type HTTPCompleter struct {
	config *HTTPConfig
	client *commonhttp.Client
	logger logger.Logger
}

func NewHTTPCompleter(config *HTTPConfig, log logger.Logger) *HTTPCompleter {
	client := commonhttp.NewClient(config.BaseURL, config.Timeout)
	if config.APIKey != "" {
		client.WithHeader("Authorization", "Bearer "+config.APIKey)
	}
	return &HTTPCompleter{
		config: config,
		client: client,
		logger: log.WithFields(map[string]interface{}{"backend": "genai-http"}),
	}
}

type generateRequest struct {
	System      string  `json:"system"`
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Complete sends one generate request, retrying transport errors and
// non-200 answers with exponential backoff until ctx is done.
func (c *HTTPCompleter) Complete(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	payload := generateRequest{
		System:      systemInstruction,
		Prompt:      userPrompt,
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrCompletionTimeout
			}
		}

		text, err := c.attempt(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", ErrCompletionTimeout
		}
		if errors.Is(err, ErrEmptyCompletion) {
			break
		}

		c.logger.Debug("generate attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}

	return "", fmt.Errorf("%w: %v", ErrCompletionFailed, lastErr)
}

func (c *HTTPCompleter) attempt(ctx context.Context, payload generateRequest) (string, error) {
	resp, err := c.client.PostJSON(ctx, generatePath, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode error: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", ErrEmptyCompletion
	}
	return out.Text, nil
}
