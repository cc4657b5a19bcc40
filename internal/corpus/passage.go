// Package corpus defines the read-only passage records the answer engine ranks.
package corpus

import (
	"path/filepath"
	"strconv"
	"strings"
)

// SourceType classifies the document a passage was cut from.
type SourceType string

const (
	SourceBio        SourceType = "bio"
	SourceLeadership SourceType = "leadership"
	SourceExperience SourceType = "experience"
	SourceCaseStudy  SourceType = "case_study"
	SourceContent    SourceType = "content"
)

// ParseSourceType maps a frontmatter value to a SourceType. Unknown values become SourceContent.
func ParseSourceType(s string) SourceType {
	switch SourceType(strings.ToLower(strings.TrimSpace(s))) {
	case SourceBio:
		return SourceBio
	case SourceLeadership:
		return SourceLeadership
	case SourceExperience:
		return SourceExperience
	case SourceCaseStudy, "case-study", "casestudy":
		return SourceCaseStudy
	default:
		return SourceContent
	}
}

// Metadata is the structured set of optional attributes attached to a passage.
// Empty strings and nil slices mean "not set".
type Metadata struct {
	File       string     `json:"file,omitempty"`
	SourceName string     `json:"source_name,omitempty"`
	SourceType SourceType `json:"source_type,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Role       string     `json:"role,omitempty"`
	Tech       []string   `json:"tech,omitempty"`
	Org        string     `json:"org,omitempty"`
	Product    string     `json:"product,omitempty"`
	Domain     string     `json:"domain,omitempty"`
	KPIs       []string   `json:"kpis,omitempty"`
	Aliases    []string   `json:"aliases,omitempty"`
	Link       string     `json:"link,omitempty"`
	Date       string     `json:"date,omitempty"`
	ChunkIndex int        `json:"chunk_index"`
}

// DisplayName returns the source name, falling back to the file's base name.
func (m Metadata) DisplayName() string {
	if m.SourceName != "" {
		return m.SourceName
	}
	if m.File != "" {
		return strings.TrimSuffix(filepath.Base(m.File), filepath.Ext(m.File))
	}
	return "unknown"
}

// Keywords returns the free-form labels of the passage: tags, tech and domain.
func (m Metadata) Keywords() []string {
	out := make([]string, 0, len(m.Tags)+len(m.Tech)+1)
	out = append(out, m.Tags...)
	out = append(out, m.Tech...)
	if m.Domain != "" {
		out = append(out, m.Domain)
	}
	return out
}

// Passage is an immutable unit of retrievable text.
type Passage struct {
	ID        string
	Text      string
	Metadata  Metadata
	Embedding []float32
}

// PassageID is the stable identifier of the idx-th passage cut from file.
func PassageID(file string, idx int) string {
	return file + "#" + strconv.Itoa(idx)
}
