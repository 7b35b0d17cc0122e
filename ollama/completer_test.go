package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jlipinski/glean"
	"github.com/jlipinski/glean/ollama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleter_Complete(t *testing.T) {
	t.Parallel()

	t.Run("returns the generated response", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/generate", r.URL.Path)

			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "llama3.2", req["model"])
			assert.Equal(t, false, req["stream"])
			assert.Equal(t, "extract the articles", req["prompt"])

			_ = json.NewEncoder(w).Encode(map[string]any{
				"response": `{"articles":[]}`,
				"done":     true,
			})
		}))
		t.Cleanup(srv.Close)

		c := ollama.NewCompleter(ollama.Config{Host: srv.URL})

		out, err := c.Complete(context.Background(), "extract the articles")

		require.NoError(t, err)
		assert.Equal(t, `{"articles":[]}`, out)
	})

	t.Run("retries transient server failures", func(t *testing.T) {
		t.Parallel()

		var requests int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			if requests < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]any{"error": "model is loading"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"response": "ok", "done": true})
		}))
		t.Cleanup(srv.Close)

		c := ollama.NewCompleter(ollama.Config{Host: srv.URL, MaxRetries: 3})

		out, err := c.Complete(context.Background(), "p")

		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, 3, requests)
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		t.Parallel()

		var requests int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			requests++
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(srv.Close)

		c := ollama.NewCompleter(ollama.Config{Host: srv.URL, MaxRetries: 2})

		_, err := c.Complete(context.Background(), "p")

		require.Error(t, err)
		assert.Equal(t, glean.EUNAVAILABLE, glean.ErrorCode(err))
		assert.Equal(t, 2, requests)
	})

	t.Run("missing model is not retried", func(t *testing.T) {
		t.Parallel()

		var requests int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			requests++
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "model 'missing' not found"})
		}))
		t.Cleanup(srv.Close)

		c := ollama.NewCompleter(ollama.Config{Host: srv.URL, Model: "missing", MaxRetries: 3})

		_, err := c.Complete(context.Background(), "p")

		require.Error(t, err)
		assert.Equal(t, glean.ENOTFOUND, glean.ErrorCode(err))
		assert.Equal(t, 1, requests)
	})

	t.Run("empty prompt is rejected without a request", func(t *testing.T) {
		t.Parallel()

		c := ollama.NewCompleter(ollama.Config{Host: "http://localhost:1"})

		_, err := c.Complete(context.Background(), "")

		require.Error(t, err)
		assert.Equal(t, glean.EINVALID, glean.ErrorCode(err))
	})
}
