package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSourceType(t *testing.T) {
	tests := map[string]SourceType{
		"bio":        SourceBio,
		"Leadership": SourceLeadership,
		"experience": SourceExperience,
		"case-study": SourceCaseStudy,
		"case_study": SourceCaseStudy,
		"":           SourceContent,
		"blogpost":   SourceContent,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseSourceType(in))
		})
	}
}

func TestMetadata_DisplayName(t *testing.T) {
	assert.Equal(t, "Acme Redesign", Metadata{SourceName: "Acme Redesign", File: "cases/acme.md"}.DisplayName())
	assert.Equal(t, "acme", Metadata{File: "cases/acme.md"}.DisplayName())
	assert.Equal(t, "unknown", Metadata{}.DisplayName())
}

func TestMetadata_Keywords(t *testing.T) {
	m := Metadata{Tags: []string{"design-systems"}, Tech: []string{"Figma"}, Domain: "fintech"}
	assert.Equal(t, []string{"design-systems", "Figma", "fintech"}, m.Keywords())
}

func TestPassageID(t *testing.T) {
	assert.Equal(t, "cases/acme.md#0", PassageID("cases/acme.md", 0))
	assert.Equal(t, "bio.md#12", PassageID("bio.md", 12))
}
