package indexer

import (
	"reflect"
	"strings"
	"testing"

	"portfolio-rag/internal/corpus"
)

func TestParseFrontmatter(t *testing.T) {
	content := strings.Join([]string{
		"---",
		"source_name: Acme Design System",
		"source_type: case-study",
		"tags: [design-systems, tokens]",
		"tech: Figma, Storybook",
		"org: Acme",
		"kpis:",
		"  - adoption 80%",
		"link: https://example.com/acme",
		"date: 2024-03-01",
		"---",
		"# Acme",
		"",
		"Body text.",
	}, "\n")

	fm, body, err := ParseFrontmatter([]byte(content))
	if err != nil {
		t.Fatalf("ParseFrontmatter() error = %v", err)
	}
	if string(body) != "# Acme\n\nBody text." {
		t.Errorf("body = %q", body)
	}

	got := fm.Metadata("cases/acme.md")
	want := corpus.Metadata{
		File:       "cases/acme.md",
		SourceName: "Acme Design System",
		SourceType: corpus.SourceCaseStudy,
		Tags:       []string{"design-systems", "tokens"},
		Tech:       []string{"Figma", "Storybook"},
		Org:        "Acme",
		KPIs:       []string{"adoption 80%"},
		Link:       "https://example.com/acme",
		Date:       "2024-03-01",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Metadata() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestParseFrontmatter_Edges(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantBody string
		wantErr  bool
	}{
		{name: "no frontmatter", content: "# Title\n\nText", wantBody: "# Title\n\nText"},
		{name: "thematic break later", content: "Intro\n\n---\n\nMore", wantBody: "Intro\n\n---\n\nMore"},
		{name: "empty header", content: "---\n---\nBody", wantBody: "Body"},
		{name: "closing fence at end", content: "---\nsource_type: bio\n---", wantBody: ""},
		{name: "crlf", content: "---\r\nsource_type: bio\r\n---\r\nBody", wantBody: "Body"},
		{name: "unclosed", content: "---\nsource_type: bio\n", wantErr: true},
		{name: "invalid yaml", content: "---\ntags: [unclosed\n---\nBody", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, body, err := ParseFrontmatter([]byte(tt.content))
			if tt.wantErr {
				if err == nil {
					t.Error("ParseFrontmatter() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrontmatter() error = %v", err)
			}
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestFrontmatter_MetadataDefaults(t *testing.T) {
	got := Frontmatter{}.Metadata("notes/misc.md")
	if got.SourceType != corpus.SourceContent {
		t.Errorf("SourceType = %q, want content", got.SourceType)
	}
	if got.DisplayName() != "misc" {
		t.Errorf("DisplayName() = %q, want misc", got.DisplayName())
	}
}
