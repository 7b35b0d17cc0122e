package extract_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jlipinski/glean"
	"github.com/jlipinski/glean/extract"
	"github.com/jlipinski/glean/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *glean.Schema {
	t.Helper()
	schema, err := glean.NewSchema("articles", []byte(`{
		"type": "object",
		"properties": {
			"articles": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"title": {"type": "string"},
						"link": {"type": "string"}
					},
					"required": ["title", "link"]
				}
			}
		},
		"required": ["articles"]
	}`))
	require.NoError(t, err)
	return schema
}

// alwaysValid returns a validator that accepts any candidate as-is.
func alwaysValid() *mock.SchemaValidator {
	return &mock.SchemaValidator{
		ValidateFn: func(candidate string, _ *glean.Schema) (glean.StructuredValue, error) {
			return glean.StructuredValue(candidate), nil
		},
	}
}

// alwaysInvalid returns a validator that rejects every candidate with the
// given reason.
func alwaysInvalid(reason string) *mock.SchemaValidator {
	return &mock.SchemaValidator{
		ValidateFn: func(candidate string, _ *glean.Schema) (glean.StructuredValue, error) {
			return nil, &glean.ValidationError{Reason: reason, Candidate: candidate}
		},
	}
}

func TestReflector_Reflect(t *testing.T) {
	t.Parallel()

	t.Run("first attempt success calls the model exactly once", func(t *testing.T) {
		t.Parallel()

		var calls int
		r := &extract.Reflector{
			Completer: &mock.Completer{
				CompleteFn: func(_ context.Context, _ string) (string, error) {
					calls++
					return `{"articles":[]}`, nil
				},
			},
			Validator:   alwaysValid(),
			MaxAttempts: 3,
		}

		value, err := r.Reflect(context.Background(), testSchema(t), "some page text", nil)

		require.NoError(t, err)
		assert.Equal(t, glean.StructuredValue(`{"articles":[]}`), value)
		assert.Equal(t, 1, calls)
	})

	t.Run("always-failing validation calls the model at most MaxAttempts times", func(t *testing.T) {
		t.Parallel()

		var calls int
		r := &extract.Reflector{
			Completer: &mock.Completer{
				CompleteFn: func(_ context.Context, _ string) (string, error) {
					calls++
					return "not json", nil
				},
			},
			Validator:   alwaysInvalid("invalid character 'n'"),
			MaxAttempts: 3,
		}

		value, err := r.Reflect(context.Background(), testSchema(t), "some page text", nil)

		require.NoError(t, err)
		assert.Nil(t, value)
		assert.Equal(t, 3, calls)
	})

	t.Run("zero MaxAttempts uses the default budget", func(t *testing.T) {
		t.Parallel()

		var calls int
		r := &extract.Reflector{
			Completer: &mock.Completer{
				CompleteFn: func(_ context.Context, _ string) (string, error) {
					calls++
					return "not json", nil
				},
			},
			Validator: alwaysInvalid("invalid character 'n'"),
		}

		value, err := r.Reflect(context.Background(), testSchema(t), "some page text", nil)

		require.NoError(t, err)
		assert.Nil(t, value)
		assert.Equal(t, extract.DefaultMaxAttempts, calls)
	})

	t.Run("second attempt embeds the prior output and error", func(t *testing.T) {
		t.Parallel()

		var prompts []string
		r := &extract.Reflector{
			Completer: &mock.Completer{
				CompleteFn: func(_ context.Context, prompt string) (string, error) {
					prompts = append(prompts, prompt)
					if len(prompts) == 1 {
						return "Here is the JSON: {}", nil
					}
					return `{"articles":[]}`, nil
				},
			},
			Validator: &mock.SchemaValidator{
				ValidateFn: func(candidate string, _ *glean.Schema) (glean.StructuredValue, error) {
					if strings.HasPrefix(candidate, "Here is") {
						return nil, &glean.ValidationError{Reason: "output is not valid JSON", Candidate: candidate}
					}
					return glean.StructuredValue(candidate), nil
				},
			},
			MaxAttempts: 3,
		}

		value, err := r.Reflect(context.Background(), testSchema(t), "some page text", nil)

		require.NoError(t, err)
		assert.Equal(t, glean.StructuredValue(`{"articles":[]}`), value)
		require.Len(t, prompts, 2)
		assert.NotContains(t, prompts[0], "You already created this output previously")
		assert.Contains(t, prompts[1], "You already created this output previously")
		assert.Contains(t, prompts[1], "Here is the JSON: {}")
		assert.Contains(t, prompts[1], "output is not valid JSON")
	})

	t.Run("seed makes the first prompt a correction prompt", func(t *testing.T) {
		t.Parallel()

		var prompts []string
		r := &extract.Reflector{
			Completer: &mock.Completer{
				CompleteFn: func(_ context.Context, prompt string) (string, error) {
					prompts = append(prompts, prompt)
					return `{"articles":[]}`, nil
				},
			},
			Validator:   alwaysValid(),
			MaxAttempts: 3,
		}

		seed := &extract.Attempt{Output: "previous bad output", Reason: "missing required field"}
		_, err := r.Reflect(context.Background(), testSchema(t), "some page text", seed)

		require.NoError(t, err)
		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], "previous bad output")
		assert.Contains(t, prompts[0], "missing required field")
	})

	t.Run("empty context returns a usage error without calling the model", func(t *testing.T) {
		t.Parallel()

		var calls int
		r := &extract.Reflector{
			Completer: &mock.Completer{
				CompleteFn: func(_ context.Context, _ string) (string, error) {
					calls++
					return "", nil
				},
			},
			Validator:   alwaysValid(),
			MaxAttempts: 3,
		}

		_, err := r.Reflect(context.Background(), testSchema(t), "   \n\t", nil)

		require.Error(t, err)
		assert.Equal(t, glean.EINVALID, glean.ErrorCode(err))
		assert.Equal(t, 0, calls)
	})

	t.Run("missing schema returns a usage error", func(t *testing.T) {
		t.Parallel()

		r := &extract.Reflector{
			Completer:   &mock.Completer{},
			Validator:   alwaysValid(),
			MaxAttempts: 3,
		}

		_, err := r.Reflect(context.Background(), nil, "some page text", nil)

		require.Error(t, err)
		assert.Equal(t, glean.EINVALID, glean.ErrorCode(err))
	})

	t.Run("model transport error propagates immediately", func(t *testing.T) {
		t.Parallel()

		transportErr := glean.Errorf(glean.EUNAVAILABLE, "model unreachable")
		r := &extract.Reflector{
			Completer: &mock.Completer{
				CompleteFn: func(_ context.Context, _ string) (string, error) {
					return "", transportErr
				},
			},
			Validator:   alwaysValid(),
			MaxAttempts: 3,
		}

		_, err := r.Reflect(context.Background(), testSchema(t), "some page text", nil)

		require.Error(t, err)
		assert.Equal(t, glean.EUNAVAILABLE, glean.ErrorCode(err))
	})

	t.Run("non-validation validator error propagates", func(t *testing.T) {
		t.Parallel()

		compileErr := errors.New("schema does not compile")
		r := &extract.Reflector{
			Completer: &mock.Completer{
				CompleteFn: func(_ context.Context, _ string) (string, error) {
					return "{}", nil
				},
			},
			Validator: &mock.SchemaValidator{
				ValidateFn: func(_ string, _ *glean.Schema) (glean.StructuredValue, error) {
					return nil, compileErr
				},
			},
			MaxAttempts: 3,
		}

		_, err := r.Reflect(context.Background(), testSchema(t), "some page text", nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, compileErr)
	})

	t.Run("identical consecutive errors are not deduplicated", func(t *testing.T) {
		t.Parallel()

		var calls int
		r := &extract.Reflector{
			Completer: &mock.Completer{
				CompleteFn: func(_ context.Context, _ string) (string, error) {
					calls++
					return "same wrong output", nil
				},
			},
			Validator:   alwaysInvalid("same error every time"),
			MaxAttempts: 5,
		}

		value, err := r.Reflect(context.Background(), testSchema(t), "some page text", nil)

		require.NoError(t, err)
		assert.Nil(t, value)
		assert.Equal(t, 5, calls)
	})
}
