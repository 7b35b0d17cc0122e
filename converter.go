package glean

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms clean HTML (e.g. an Extractor's output) into
	// Markdown, the text form handed to the chunker and the model.
	Convert(html string) (string, error)
}
