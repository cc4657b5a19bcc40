package retrieval

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"portfolio-rag/internal/intent"
	"portfolio-rag/internal/vectorstore"
	"portfolio-rag/internal/vectorstore/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExpander_Templates(t *testing.T) {
	e := NewExpander(DefaultExpanderConfig(), nil)

	got := e.Expand(context.Background(), intent.Competencies, "  How do you test designs? ")
	assert.Equal(t, []string{
		"How do you test designs?",
		"How do you test designs? skills verification",
		"usability heuristics How do you test designs?",
		"How do you test designs? design process",
	}, got)
}

func TestExpander_NonRetrievalIntent(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockLexicalSearcher(ctrl)
	e := NewExpander(DefaultExpanderConfig(), searcher)

	for _, id := range []intent.ID{intent.Smalltalk, intent.Compensation, intent.NDAPrivacy, intent.Clarification} {
		assert.Equal(t, []string{"hello"}, e.Expand(context.Background(), id, "hello"), id)
	}
}

func TestExpander_AppendsBareTemplates(t *testing.T) {
	cfg := DefaultExpanderConfig()
	cfg.Templates = map[string][]string{string(intent.Leadership): {"team growth"}}
	e := NewExpander(cfg, nil)

	got := e.Expand(context.Background(), intent.Leadership, "style")
	assert.Equal(t, []string{"style", "style team growth"}, got)
}

func TestExpander_FeedbackReplacesLowestTemplates(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockLexicalSearcher(ctrl)
	searcher.EXPECT().
		LexicalSearch(gomock.Any(), "design tokens", 5).
		Return([]vectorstore.SearchResult{
			{ID: "a", Text: "Design tokens in Figma and Storybook"},
			{ID: "b", Text: "Figma libraries with tokens"},
		}, nil)

	e := NewExpander(DefaultExpanderConfig(), searcher)
	got := e.Expand(context.Background(), intent.DesignSystems, "design tokens")

	// Three feedback terms take every slot the templates would have used.
	assert.Equal(t, []string{
		"design tokens",
		"design tokens figma",
		"design tokens libraries",
		"design tokens storybook",
	}, got)
}

func TestExpander_FeedbackKeepsTemplatesWhenSlotsRemain(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockLexicalSearcher(ctrl)
	searcher.EXPECT().
		LexicalSearch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]vectorstore.SearchResult{{ID: "a", Text: "mentoring mentoring"}}, nil)

	e := NewExpander(DefaultExpanderConfig(), searcher)
	got := e.Expand(context.Background(), intent.Leadership, "leadership style")

	assert.Equal(t, []string{
		"leadership style",
		"leadership style leadership style team mentoring",
		"leadership style managing designers",
		"leadership style mentoring",
	}, got)
}

func TestExpander_FeedbackErrorIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockLexicalSearcher(ctrl)
	searcher.EXPECT().
		LexicalSearch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("store down"))

	e := NewExpander(DefaultExpanderConfig(), searcher)
	got := e.Expand(context.Background(), intent.CaseStudy, "checkout redesign")
	assert.Equal(t, []string{
		"checkout redesign",
		"checkout redesign case study outcomes metrics",
		"checkout redesign project trade-offs",
	}, got)
}

func TestExpander_NeverExceedsCap(t *testing.T) {
	cfg := DefaultExpanderConfig()
	cfg.MaxExpansions = 2
	e := NewExpander(cfg, nil)

	for _, id := range intent.All() {
		got := e.Expand(context.Background(), id, "q")
		assert.LessOrEqual(t, len(got), 2)
		assert.GreaterOrEqual(t, len(got), 1)
		assert.Equal(t, "q", got[0])
	}
}
