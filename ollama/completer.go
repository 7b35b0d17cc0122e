// Package ollama implements the model contract against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jlipinski/glean"
)

const (
	// DefaultHost is the Ollama server address used when none is configured.
	DefaultHost = "http://localhost:11434"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "llama3.2"
)

// Ensure Completer implements glean.Completer at compile time.
var _ glean.Completer = (*Completer)(nil)

// Config holds configuration for the Ollama client.
type Config struct {
	Host       string
	Model      string
	MaxRetries int           // attempts per completion, default 3
	Timeout    time.Duration // HTTP timeout, default 300s (local models are slow)
	HTTPClient *http.Client  // Optional, for tests
}

// Completer implements glean.Completer against Ollama's generate endpoint.
// Local servers drop connections while models load, so transient failures
// are retried before giving up.
type Completer struct {
	host        string
	model       string
	maxAttempts uint
	client      *http.Client
}

// NewCompleter creates a new Completer.
func NewCompleter(cfg Config) *Completer {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Completer{
		host:        cfg.Host,
		model:       cfg.Model,
		maxAttempts: uint(cfg.MaxRetries),
		client:      client,
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Complete sends the prompt and returns the model's text response.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", glean.Errorf(glean.EINVALID, "prompt required")
	}

	var out string
	err := retry.Do(
		func() error {
			text, err := c.generate(ctx, prompt)
			if err != nil {
				if glean.ErrorCode(err) == glean.EUNAVAILABLE {
					return err
				}
				return retry.Unrecoverable(err)
			}
			out = text
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxAttempts),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (c *Completer) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: map[string]any{"temperature": 0.1},
	})
	if err != nil {
		return "", glean.Errorf(glean.EINTERNAL, "encode generate request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", glean.Errorf(glean.EINTERNAL, "build generate request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", glean.Errorf(glean.EUNAVAILABLE, "ollama at %s unreachable: %v", c.host, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", glean.Errorf(glean.EUNAVAILABLE, "read generate response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return "", glean.Errorf(glean.ENOTFOUND, "ollama: model %q not found, pull it first", c.model)
		case resp.StatusCode >= 500:
			return "", glean.Errorf(glean.EUNAVAILABLE, "ollama (status %d): %s", resp.StatusCode, errorText(respBody))
		default:
			return "", glean.Errorf(glean.EINVALID, "ollama (status %d): %s", resp.StatusCode, errorText(respBody))
		}
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", glean.Errorf(glean.EINTERNAL, "decode generate response: %v", err)
	}
	if gr.Error != "" {
		return "", glean.Errorf(glean.EINTERNAL, "ollama: %s", gr.Error)
	}

	return gr.Response, nil
}

// errorText extracts the error field from an Ollama error body, falling back
// to the raw body for non-JSON responses.
func errorText(body []byte) string {
	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err == nil && gr.Error != "" {
		return gr.Error
	}
	return fmt.Sprintf("%.200s", body)
}
