package indexer

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"portfolio-rag/internal/textutil"
)

// ChunkerConfig bounds passage sizes in estimated tokens.
type ChunkerConfig struct {
	// MaxTokens is the largest passage produced.
	MaxTokens int `toml:"max_tokens"`
	// OverlapTokens is carried from the end of one split piece into the next.
	OverlapTokens int `toml:"overlap_tokens"`
	// MinTokens is the size below which a section is merged with the next one.
	MinTokens int `toml:"min_tokens"`
}

// DefaultChunkerConfig returns the default passage sizes.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{MaxTokens: 900, OverlapTokens: 150, MinTokens: 12}
}

func (c ChunkerConfig) runes(tokens int) int {
	return int(float64(tokens) * textutil.CharsPerToken)
}

// GoldmarkChunker chunks markdown content using goldmark AST parsing.
type GoldmarkChunker struct {
	parser   goldmark.Markdown
	cfg      ChunkerConfig
	maxRunes int
	minRunes int
	overlap  int
}

// NewGoldmarkChunker creates a new goldmark chunker.
func NewGoldmarkChunker(cfg ChunkerConfig) *GoldmarkChunker {
	def := DefaultChunkerConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.OverlapTokens < 0 || cfg.OverlapTokens >= cfg.MaxTokens {
		cfg.OverlapTokens = min(def.OverlapTokens, cfg.MaxTokens/4)
	}
	if cfg.MinTokens < 0 {
		cfg.MinTokens = 0
	}
	return &GoldmarkChunker{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
		cfg:      cfg,
		maxRunes: cfg.runes(cfg.MaxTokens),
		minRunes: cfg.runes(cfg.MinTokens),
		overlap:  cfg.runes(cfg.OverlapTokens),
	}
}

// Config returns the effective configuration.
func (c *GoldmarkChunker) Config() ChunkerConfig {
	return c.cfg
}

// ChunkMarkdown parses markdown content (without frontmatter) and returns the
// document title and its heading-aware chunks.
func (c *GoldmarkChunker) ChunkMarkdown(content []byte, filename string) (title string, chunks []Chunk, err error) {
	if len(strings.TrimSpace(string(content))) == 0 {
		return extractTitleFromFilename(filename), []Chunk{}, nil
	}

	doc := c.parser.Parser().Parse(text.NewReader(content))
	title = extractTitle(doc, content, filename)

	chunks = c.buildChunks(doc, content, title)
	chunks = c.applySizeConstraints(chunks)
	return title, chunks, nil
}

// extractTitle picks the first level-1 heading, then the first level-2
// heading, then the file name.
func extractTitle(doc ast.Node, content []byte, filename string) string {
	var firstH1, firstH2 string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		switch {
		case heading.Level == 1 && firstH1 == "":
			firstH1 = extractTextFromNode(heading, content)
			return ast.WalkStop, nil
		case heading.Level == 2 && firstH2 == "":
			firstH2 = extractTextFromNode(heading, content)
		}
		return ast.WalkSkipChildren, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	if firstH2 != "" {
		return firstH2
	}
	return extractTitleFromFilename(filename)
}

// extractTitleFromFilename turns "design-system_audit.md" into "Design System Audit".
func extractTitleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	return strings.Join(words, " ")
}

// section accumulates the text under one heading.
type section struct {
	headingPath string
	heading     string
	text        strings.Builder
}

func (s *section) newline() {
	if s.text.Len() > 0 && !strings.HasSuffix(s.text.String(), "\n") {
		s.text.WriteString("\n")
	}
}

// buildChunks walks the AST and cuts one chunk per heading section.
func (c *GoldmarkChunker) buildChunks(doc ast.Node, content []byte, docTitle string) []Chunk {
	var (
		chunks       []Chunk
		current      *section
		headingStack []headingInfo
	)

	flush := func() {
		if current == nil {
			return
		}
		body := strings.TrimSpace(current.text.String())
		if body != "" {
			chunks = append(chunks, Chunk{
				Index:       len(chunks),
				HeadingPath: current.headingPath,
				Heading:     current.heading,
				Text:        body,
			})
		}
	}
	ensure := func() *section {
		if current == nil {
			current = &section{headingPath: "# " + docTitle}
		}
		return current
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			for len(headingStack) > 0 && headingStack[len(headingStack)-1].level >= node.Level {
				headingStack = headingStack[:len(headingStack)-1]
			}
			headingText := extractTextFromNode(node, content)
			headingStack = append(headingStack, headingInfo{level: node.Level, text: headingText})

			flush()
			current = &section{headingPath: buildHeadingPath(headingStack), heading: headingText}
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			s := ensure()
			s.text.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				s.text.WriteString("\n")
			}
			return ast.WalkContinue, nil

		case *ast.String:
			ensure().text.Write(node.Value)
			return ast.WalkContinue, nil

		case *ast.CodeBlock, *ast.FencedCodeBlock:
			s := ensure()
			s.newline()
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				s.text.Write(line.Value(content))
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.List, *ast.ListItem, *ast.Blockquote:
			ensure().newline()
			return ast.WalkContinue, nil

		case *east.Table:
			ensure().newline()
			return ast.WalkContinue, nil

		case *east.TableHeader, *east.TableRow:
			s := ensure()
			s.newline()
			s.text.WriteString(extractTableRowText(n, content))
			s.text.WriteString("\n")
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	flush()

	if len(chunks) == 0 {
		if body := strings.TrimSpace(string(content)); body != "" {
			chunks = append(chunks, Chunk{Index: 0, HeadingPath: "# " + docTitle, Text: body})
		}
	}
	return chunks
}

// headingInfo tracks heading level and text for building heading paths.
type headingInfo struct {
	level int
	text  string
}

// buildHeadingPath formats the stack as "# Heading1 > ## Heading2".
func buildHeadingPath(stack []headingInfo) string {
	parts := make([]string, len(stack))
	for i, h := range stack {
		parts[i] = fmt.Sprintf("%s %s", strings.Repeat("#", h.level), h.text)
	}
	return strings.Join(parts, " > ")
}

// extractTextFromNode extracts text content from a node and its children.
func extractTextFromNode(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// extractTableRowText joins the cells of a row with " | ".
func extractTableRowText(row ast.Node, content []byte) string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*east.TableCell); ok {
			cells = append(cells, extractTextFromNode(cell, content))
		}
	}
	return strings.Join(cells, " | ")
}

// applySizeConstraints merges undersized sections into their successor and
// splits oversized ones with overlap. Sizes are measured in runes.
func (c *GoldmarkChunker) applySizeConstraints(chunks []Chunk) []Chunk {
	result := make([]Chunk, 0, len(chunks))

	for i := 0; i < len(chunks); i++ {
		current := chunks[i]
		for i+1 < len(chunks) && utf8.RuneCountInString(current.Text) < c.minRunes {
			next := chunks[i+1]
			merged := current.Text + "\n\n" + next.Text
			if utf8.RuneCountInString(merged) > c.maxRunes {
				break
			}
			current.Text = merged
			i++
		}

		if utf8.RuneCountInString(current.Text) > c.maxRunes {
			result = append(result, c.splitChunk(current)...)
		} else {
			result = append(result, current)
		}
	}

	for i := range result {
		result[i].Index = i
	}
	return result
}

// splitChunk cuts an oversized chunk at paragraph, line, sentence or word
// boundaries. Each piece after the first starts with the tail of the
// previous one.
func (c *GoldmarkChunker) splitChunk(chunk Chunk) []Chunk {
	runes := []rune(chunk.Text)
	if len(runes) <= c.maxRunes {
		return []Chunk{chunk}
	}

	var splits []Chunk
	start := 0
	for start < len(runes) {
		end := start + c.maxRunes
		if end >= len(runes) {
			splits = append(splits, c.piece(chunk, runes[start:]))
			break
		}

		cut := splitPoint(runes[start:end])
		// Never cut inside the overlap window, or the next piece would not advance.
		if cut <= c.overlap {
			cut = end - start
		}
		splits = append(splits, c.piece(chunk, runes[start:start+cut]))

		next := start + cut - c.overlap
		next = alignToWord(runes, next, start+cut)
		if next <= start {
			next = start + cut
		}
		start = next
	}
	return splits
}

func (c *GoldmarkChunker) piece(chunk Chunk, r []rune) Chunk {
	return Chunk{
		HeadingPath: chunk.HeadingPath,
		Heading:     chunk.Heading,
		Text:        strings.TrimSpace(string(r)),
	}
}

// splitPoint returns the length of the best prefix of window to cut at.
func splitPoint(window []rune) int {
	s := string(window)
	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		if i := strings.LastIndex(s, sep); i > 0 {
			return utf8.RuneCountInString(s[:i+len(sep)])
		}
	}
	return len(window)
}

// alignToWord moves pos forward to the start of the next word, staying below limit.
func alignToWord(runes []rune, pos, limit int) int {
	if pos <= 0 {
		return 0
	}
	for pos < limit && !unicode.IsSpace(runes[pos-1]) {
		pos++
	}
	return pos
}
