// Package openai implements the model contract using the official OpenAI SDK.
package openai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jlipinski/glean"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// Ensure Completer implements glean.Completer at compile time.
var _ glean.Completer = (*Completer)(nil)

// Config holds configuration for the OpenAI client.
type Config struct {
	APIKey     string
	Model      string
	MaxRetries int           // SDK transport retries, default 2
	Timeout    time.Duration // HTTP timeout, default 120s
	BaseURL    string        // Optional, for proxies and tests
	HTTPClient *http.Client  // Optional, for tests
}

// Completer implements glean.Completer using OpenAI chat completions.
type Completer struct {
	client openai.Client
	model  string
}

// NewCompleter creates a new Completer.
func NewCompleter(cfg Config) *Completer {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Completer{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// Complete sends the prompt and returns the model's text response.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", glean.Errorf(glean.EINVALID, "prompt required")
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		return "", mapError(c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", glean.Errorf(glean.EINTERNAL, "openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// mapError translates SDK errors into domain error codes so callers can tell
// a saturated or unreachable backend apart from a request they need to fix.
func mapError(model string, err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return glean.Errorf(glean.EUNAVAILABLE, "openai: %v", err)
	}

	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500:
		return glean.Errorf(glean.EUNAVAILABLE, "openai (status %d): %s", apiErr.StatusCode, apiErr.Message)
	case apiErr.StatusCode == http.StatusNotFound:
		return glean.Errorf(glean.ENOTFOUND, "openai: model %q not found", model)
	default:
		return glean.Errorf(glean.EINVALID, "openai (status %d): %s", apiErr.StatusCode, apiErr.Message)
	}
}
