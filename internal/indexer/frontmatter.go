package indexer

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"portfolio-rag/internal/corpus"
)

// Frontmatter is the YAML header of a corpus document.
type Frontmatter struct {
	SourceName string     `yaml:"source_name"`
	SourceType string     `yaml:"source_type"`
	Tags       stringList `yaml:"tags"`
	Role       string     `yaml:"role"`
	Tech       stringList `yaml:"tech"`
	Org        string     `yaml:"org"`
	Product    string     `yaml:"product"`
	Domain     string     `yaml:"domain"`
	KPIs       stringList `yaml:"kpis"`
	Aliases    stringList `yaml:"aliases"`
	Link       string     `yaml:"link"`
	Date       yaml.Node  `yaml:"date"`
}

// stringList accepts either a YAML sequence or a comma-separated scalar.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var out []string
		for _, part := range strings.Split(node.Value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*l = out
		return nil
	case yaml.SequenceNode:
		var raw []string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		out := make([]string, 0, len(raw))
		for _, s := range raw {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a list or a string", node.Line)
	}
}

var fence = []byte("---")

// ParseFrontmatter splits content into its YAML header and markdown body.
// Content without a header is returned unchanged with a zero Frontmatter.
func ParseFrontmatter(content []byte) (Frontmatter, []byte, error) {
	var fm Frontmatter

	trimmed := bytes.TrimPrefix(content, []byte("\ufeff"))
	if !bytes.HasPrefix(trimmed, fence) {
		return fm, content, nil
	}
	firstNL := bytes.IndexByte(trimmed, '\n')
	if firstNL < 0 || len(bytes.TrimSpace(trimmed[:firstNL])) != len(fence) {
		return fm, content, nil
	}

	rest := trimmed[firstNL+1:]
	var header, body []byte
	found := false
	for offset := 0; offset <= len(rest); {
		end := bytes.IndexByte(rest[offset:], '\n')
		line := rest[offset:]
		next := len(rest) + 1
		if end >= 0 {
			line = rest[offset : offset+end]
			next = offset + end + 1
		}
		if bytes.Equal(bytes.TrimRight(line, " \t\r"), fence) {
			header = rest[:offset]
			if next <= len(rest) {
				body = rest[next:]
			}
			found = true
			break
		}
		offset = next
	}
	if !found {
		return fm, content, fmt.Errorf("frontmatter is not closed")
	}

	if err := yaml.Unmarshal(header, &fm); err != nil {
		return Frontmatter{}, content, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	return fm, body, nil
}

// Metadata maps the header onto passage metadata for file.
func (fm Frontmatter) Metadata(file string) corpus.Metadata {
	return corpus.Metadata{
		File:       file,
		SourceName: strings.TrimSpace(fm.SourceName),
		SourceType: corpus.ParseSourceType(fm.SourceType),
		Tags:       fm.Tags,
		Role:       strings.TrimSpace(fm.Role),
		Tech:       fm.Tech,
		Org:        strings.TrimSpace(fm.Org),
		Product:    strings.TrimSpace(fm.Product),
		Domain:     strings.TrimSpace(fm.Domain),
		KPIs:       fm.KPIs,
		Aliases:    fm.Aliases,
		Link:       strings.TrimSpace(fm.Link),
		Date:       strings.TrimSpace(fm.Date.Value),
	}
}
