// Package glean extracts structured data from web pages by prompting a
// language model, validating its output against a JSON schema, and retrying
// with a correction prompt when validation fails. Results from independent
// text chunks are merged into a single aggregate value.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., jsonschema/, gemini/, sqlite/); the
// extraction engine itself lives in extract/.
package glean
