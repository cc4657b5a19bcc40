package indexer

// Chunk is a heading-scoped piece of a markdown document.
type Chunk struct {
	Index       int    // Chunk index within the document (starts at 0)
	HeadingPath string // Format: "# Heading1 > ## Heading2"
	Heading     string // Innermost heading text, "" before the first heading
	Text        string // Chunk text content
}
