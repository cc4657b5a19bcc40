package vectorstore

import (
	"math"

	"portfolio-rag/internal/textutil"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// bm25Index scores passages against a text query with Okapi BM25.
type bm25Index struct {
	termFreqs []map[string]int
	docLens   []int
	docFreq   map[string]int
	avgDocLen float64
}

func newBM25Index(texts []string) *bm25Index {
	idx := &bm25Index{
		termFreqs: make([]map[string]int, len(texts)),
		docLens:   make([]int, len(texts)),
		docFreq:   make(map[string]int),
	}
	var total int
	for i, text := range texts {
		tokens := textutil.Tokenize(textutil.Fold(text))
		tf := make(map[string]int, len(tokens))
		for _, token := range tokens {
			tf[token]++
		}
		for token := range tf {
			idx.docFreq[token]++
		}
		idx.termFreqs[i] = tf
		idx.docLens[i] = len(tokens)
		total += len(tokens)
	}
	if len(texts) > 0 {
		idx.avgDocLen = float64(total) / float64(len(texts))
	}
	return idx
}

// idf uses the non-negative form log(1 + (N - df + 0.5) / (df + 0.5)) so that
// terms present in every passage of a small corpus still contribute.
func (idx *bm25Index) idf(term string) float64 {
	df := idx.docFreq[term]
	if df == 0 {
		return 0
	}
	n := float64(len(idx.docLens))
	return math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
}

// scores returns one BM25 score per passage for the query's content tokens.
func (idx *bm25Index) scores(query string) []float64 {
	out := make([]float64, len(idx.docLens))
	terms := textutil.ContentTokens(textutil.Fold(query), 2)
	if len(terms) == 0 || idx.avgDocLen == 0 {
		return out
	}
	for _, term := range terms {
		idf := idx.idf(term)
		if idf == 0 {
			continue
		}
		for i, tfs := range idx.termFreqs {
			tf := float64(tfs[term])
			if tf == 0 {
				continue
			}
			norm := 1 - bm25B + bm25B*float64(idx.docLens[i])/idx.avgDocLen
			out[i] += idf * (tf * (bm25K1 + 1)) / (tf + bm25K1*norm)
		}
	}
	return out
}

// normalizedScores scales scores into [0,1] by the best score of the query.
func (idx *bm25Index) normalizedScores(query string) []float64 {
	scores := idx.scores(query)
	var best float64
	for _, s := range scores {
		best = max(best, s)
	}
	if best == 0 {
		return scores
	}
	for i := range scores {
		scores[i] /= best
	}
	return scores
}
