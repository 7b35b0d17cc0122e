// Package jsonschema validates candidate model output against JSON Schema
// documents using santhosh-tekuri/jsonschema.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/jlipinski/glean"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Ensure Validator implements glean.SchemaValidator at compile time.
var _ glean.SchemaValidator = (*Validator)(nil)

// Validator checks candidate text against a schema. Compiled schemas are
// cached, so validating many chunks against the same schema compiles it
// once. Safe for concurrent use.
type Validator struct {
	mu       sync.Mutex
	compiled map[cacheKey]*jsonschema.Schema
}

type cacheKey struct {
	hash   uint64
	strict bool
}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{compiled: make(map[cacheKey]*jsonschema.Schema)}
}

// Validate parses candidate text, with recovery for code fences and
// surrounding prose, and checks the document against the schema. On success
// it returns the document re-serialized in compact normalized form. Parse
// and conformance failures come back as *glean.ValidationError so the
// reflection loop can feed them to the next attempt.
func (v *Validator) Validate(candidate string, schema *glean.Schema) (glean.StructuredValue, error) {
	if schema == nil {
		return nil, glean.Errorf(glean.EINVALID, "schema required")
	}

	compiled, err := v.compile(schema)
	if err != nil {
		return nil, err
	}

	doc, reason := parseCandidate(candidate)
	if reason != "" {
		return nil, &glean.ValidationError{Reason: reason, Candidate: candidate}
	}

	if err := compiled.Validate(doc); err != nil {
		return nil, &glean.ValidationError{Reason: err.Error(), Candidate: candidate}
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, glean.Errorf(glean.EINTERNAL, "normalize validated output: %v", err)
	}
	return normalized, nil
}

// compile returns the compiled schema, compiling and caching it on first
// use. Strict schemas are compiled from a rewritten document that closes
// every object node, so the two modes cache separately.
func (v *Validator) compile(schema *glean.Schema) (*jsonschema.Schema, error) {
	key := cacheKey{hash: xxhash.Sum64(schema.Raw), strict: schema.Strict}

	v.mu.Lock()
	defer v.mu.Unlock()

	if compiled, ok := v.compiled[key]; ok {
		return compiled, nil
	}

	doc := []byte(schema.Raw)
	if schema.Strict {
		closed, err := closeObjectNodes(doc)
		if err != nil {
			return nil, glean.Errorf(glean.EINVALID, "schema %q is not valid JSON: %v", schema.Name, err)
		}
		doc = closed
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(doc)); err != nil {
		return nil, glean.Errorf(glean.EINVALID, "schema %q could not be loaded: %v", schema.Name, err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, glean.Errorf(glean.EINVALID, "schema %q does not compile: %v", schema.Name, err)
	}

	v.compiled[key] = compiled
	return compiled, nil
}

// parseCandidate decodes candidate text into a JSON document. Models wrap
// answers in markdown fences or lead-in sentences often enough that plain
// unmarshaling is tried first, then the fence-stripped text, then the
// outermost {...} or [...] region. Returns the decoded document, or a
// non-empty reason when nothing parses.
func parseCandidate(candidate string) (any, string) {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return nil, "output is empty"
	}

	candidates := []string{trimmed}
	if stripped := stripCodeFences(trimmed); stripped != "" && stripped != trimmed {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(trimmed); extracted != "" && extracted != trimmed {
		candidates = append(candidates, extracted)
	}

	var firstErr error
	for _, c := range candidates {
		var doc any
		if err := json.Unmarshal([]byte(c), &doc); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return doc, ""
	}
	return nil, "output is not valid JSON: " + firstErr.Error()
}

// stripCodeFences removes a surrounding markdown code fence, with or without
// a language tag. Returns "" when the text is not fenced.
func stripCodeFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return ""
	}

	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return ""
	}

	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractJSONCandidate returns the outermost {...} or [...] region of the
// text, whichever opens first. Returns "" when neither bracket appears.
func extractJSONCandidate(content string) string {
	objectStart := strings.Index(content, "{")
	arrayStart := strings.Index(content, "[")

	start := -1
	var closeChar string
	switch {
	case objectStart >= 0 && (arrayStart < 0 || objectStart < arrayStart):
		start = objectStart
		closeChar = "}"
	case arrayStart >= 0:
		start = arrayStart
		closeChar = "]"
	default:
		return ""
	}

	end := strings.LastIndex(content, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}

// closeObjectNodes sets additionalProperties to false on every object node
// that does not set it, turning a permissive schema into one that rejects
// undeclared fields.
func closeObjectNodes(doc []byte) ([]byte, error) {
	var root any
	if err := json.Unmarshal(doc, &root); err != nil {
		return nil, err
	}
	closeNode(root)
	return json.Marshal(root)
}

func closeNode(node any) {
	switch n := node.(type) {
	case map[string]any:
		if isObjectSchema(n) {
			if _, ok := n["additionalProperties"]; !ok {
				n["additionalProperties"] = false
			}
		}
		for _, v := range n {
			closeNode(v)
		}
	case []any:
		for _, v := range n {
			closeNode(v)
		}
	}
}

func isObjectSchema(n map[string]any) bool {
	if _, ok := n["properties"]; ok {
		return true
	}
	switch t := n["type"].(type) {
	case string:
		return t == "object"
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == "object" {
				return true
			}
		}
	}
	return false
}
