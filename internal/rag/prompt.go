package rag

import (
	"fmt"
	"strings"

	"portfolio-rag/internal/retrieval"
)

const (
	// NotEnoughDataAnswer is returned when nothing is indexed or retrieval failed entirely.
	NotEnoughDataAnswer = "I currently do not have enough indexed data to answer precisely. " +
		"Please add Markdown sources and run ingestion. " +
		"Meanwhile, you can ask about leadership, competencies, or case studies."

	// ClarificationAnswer is returned when neither the intent nor the sources are clear.
	ClarificationAnswer = "I want to make sure I answer the right question. Could you say a bit more about what you would like to know? " +
		"For example, you can ask about leadership style, design competencies, past experience, or a specific case study."

	// LowConfidenceCaveat is appended to answers built from weak matches.
	LowConfidenceCaveat = "Note: the available sources only partly cover this question, so this answer may be incomplete."

	systemPrompt = "You answer questions about a product designer's work for recruiters and hiring managers. " +
		"Answer concisely using only the sources provided. " +
		"Do not use tables and do not add a separate sources section. " +
		"If the sources are weak or do not cover the question, say so briefly instead of guessing. " +
		"Reply in the language of the question."
)

// buildUserPrompt lists the selected passages in selection order, then the question.
func buildUserPrompt(question string, passages []retrieval.Boosted) string {
	var sb strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&sb, "Source %d (%s)\n%s\n\n", i+1, p.Metadata.DisplayName(), strings.TrimSpace(p.Text))
	}
	fmt.Fprintf(&sb, "Question: %s", strings.TrimSpace(question))
	return sb.String()
}

func caveatSuffix() string {
	return "\n\n" + LowConfidenceCaveat
}
