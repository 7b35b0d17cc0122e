package glean

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Schema describes the shape extracted values must conform to. It wraps a
// JSON Schema document supplied once per extraction task; the same Schema
// value is shared by every chunk of that task.
type Schema struct {
	// Name identifies the schema in prompts, logs and stored runs.
	Name string

	// Raw is the JSON Schema document, compacted.
	Raw json.RawMessage

	// Strict rejects fields the schema does not declare. The default is
	// permissive: unknown fields on otherwise conforming output are kept.
	Strict bool
}

// NewSchema returns a Schema wrapping the given JSON Schema document.
// The document must be syntactically valid JSON; structural problems
// surface when a validator compiles it.
func NewSchema(name string, raw []byte) (*Schema, error) {
	if name == "" {
		return nil, Errorf(EINVALID, "schema name required")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, Errorf(EINVALID, "schema document required")
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, Errorf(EINVALID, "schema %q is not valid JSON: %v", name, err)
	}

	return &Schema{Name: name, Raw: json.RawMessage(compact.Bytes())}, nil
}

// Hash returns a short stable fingerprint of the schema document.
// Stored alongside runs so output produced under one schema revision is
// distinguishable from output produced under another.
func (s *Schema) Hash() string {
	return fmt.Sprintf("%016x", xxhash.Sum64(s.Raw))
}

// Description renders the schema document for embedding in prompts.
// Indented form: models follow indented schemas more reliably than
// single-line ones.
func (s *Schema) Description() string {
	var out bytes.Buffer
	if err := json.Indent(&out, s.Raw, "", "  "); err != nil {
		return string(s.Raw)
	}
	return out.String()
}
