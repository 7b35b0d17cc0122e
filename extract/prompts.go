// Package extract implements the structured-extraction engine: a per-chunk
// extraction/validation/retry loop and a synthesizer that fans out over
// chunks and merges their results into one aggregate value.
package extract

import (
	"fmt"
	"strings"

	"github.com/jlipinski/glean"
)

// contextFence separates free-form text regions (page content, schema,
// prior output) from instructions in prompts.
const contextFence = "---------------------"

// queryRules is the system preamble of the primary extraction prompt. Models
// answer with hedging phrases ("Based on the context, ...") unless told not
// to, and those phrases break JSON parsing.
const queryRules = `You are an expert web content scraper that is trusted around the world.
Always extract the content from the provided context information, and not prior knowledge.
The provided context information is a web page content in markdown format.
Some rules to follow:
1. The answer must be directly extracted from the context information.
2. Avoid statements like "Based on the context, ..." or "The context information ..." or anything along those lines.
3. Do not include the schema in the response.`

// extractionRules is the preamble of the reflection loop's prompt. Stricter
// than queryRules: by the time the loop runs, the model has already produced
// at least one answer that did not parse or did not conform.
const extractionRules = `You are a JSON reflection expert. Always create a valid JSON object from the provided context information, and not prior knowledge.

Here are the rules you must follow strictly:
1. The answer must not contain "Here is the JSON object created from" or any similar phrase.
2. The whole response must be a valid JSON object.
3. Do not wrap the JSON object in any other structure.
4. Do not include the JSON schema in the response.
5. Do not include "$defs" in the response.`

// BuildQueryPrompt renders the primary extraction prompt for one chunk:
// scraper instructions, the chunk as fenced context, the schema the answer
// must conform to, and the caller's query.
func BuildQueryPrompt(query string, schema *glean.Schema, chunk string) string {
	var sb strings.Builder
	sb.WriteString(queryRules)
	sb.WriteString("\n\nContext information is below.\n")
	fmt.Fprintf(&sb, "%s\n%s\n%s\n", contextFence, chunk, contextFence)
	sb.WriteString("Given the context information and not prior knowledge, answer the query.\n")
	sb.WriteString("The answer must strictly follow the JSON schema:\n")
	fmt.Fprintf(&sb, "%s\n%s\n%s\n", contextFence, schema.Description(), contextFence)
	fmt.Fprintf(&sb, "Query: %s\n", query)
	sb.WriteString("Answer: ")
	return sb.String()
}

// BuildExtractionPrompt renders the reflection loop's base prompt: JSON-only
// instructions, the fenced context, and the schema.
func BuildExtractionPrompt(schema *glean.Schema, contextText string) string {
	var sb strings.Builder
	sb.WriteString(extractionRules)
	sb.WriteString("\n\nContext information is below:\n")
	fmt.Fprintf(&sb, "%s\n%s\n%s\n", contextFence, contextText, contextFence)
	sb.WriteString("\nThe JSON object must follow the JSON schema:\n")
	sb.WriteString(schema.Description())
	sb.WriteString("\n")
	return sb.String()
}

// BuildCorrectionPrompt renders a retry prompt: the base extraction prompt
// followed by the prior failing output and the validation error it caused.
// The suffix tells the model to correct the output without repeating the
// schema, which models otherwise echo back after seeing it twice.
func BuildCorrectionPrompt(schema *glean.Schema, contextText string, prior Attempt) string {
	var sb strings.Builder
	sb.WriteString(BuildExtractionPrompt(schema, contextText))
	sb.WriteString("\nYou already created this output previously:\n")
	fmt.Fprintf(&sb, "%s\n%s\n%s\n", contextFence, prior.Output, contextFence)
	fmt.Fprintf(&sb, "\nThis caused the validation error: %s\n", prior.Reason)
	sb.WriteString("\nTry again, the response must contain only valid JSON code. Do not add any sentence before or after the JSON object.\n")
	sb.WriteString("Do not repeat the schema.\n")
	return sb.String()
}
