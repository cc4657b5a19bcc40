package retrieval

import "portfolio-rag/internal/textutil"

// Citations builds one citation per passage in selection order.
func Citations(passages []Boosted, quoteRunes int) []Citation {
	out := make([]Citation, 0, len(passages))
	for _, p := range passages {
		out = append(out, Citation{
			Quote:      textutil.Truncate(p.Text, quoteRunes),
			SourceName: p.Metadata.DisplayName(),
			Link:       p.Metadata.Link,
		})
	}
	return out
}
