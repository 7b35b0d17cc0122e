//go:build integration

package gemini_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jlipinski/glean/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestCompleter_Integration_ReturnsCompletion(t *testing.T) {
	t.Parallel()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	require.NoError(t, err)

	completer := gemini.NewCompleter(client, "")

	out, err := completer.Complete(ctx, `Respond with exactly this JSON and nothing else: {"ok":true}`)

	require.NoError(t, err)
	assert.Contains(t, strings.ReplaceAll(out, " ", ""), `"ok":true`)
}
