package intent

// ScoreScale names the native range of the raw scores an index returns.
type ScoreScale int

const (
	// ScaleAuto infers the range from the value itself.
	ScaleAuto ScoreScale = iota
	// ScaleCosineSimilarity is cosine similarity in [-1, 1].
	ScaleCosineSimilarity
	// ScaleCosineDistance is cosine distance in [0, 2].
	ScaleCosineDistance
	// ScaleUnbounded is any non-negative distance.
	ScaleUnbounded
)

func clamp01(x float64) float64 {
	return max(0, min(1, x))
}

// NormalizeScore maps a raw index score to a similarity in [0, 1].
// The transform is monotonic within each scale: similarities rescale linearly,
// distances invert.
func NormalizeScore(raw float64, scale ScoreScale) float64 {
	switch scale {
	case ScaleCosineSimilarity:
		return clamp01((raw + 1) / 2)
	case ScaleCosineDistance:
		return clamp01(1 - raw)
	case ScaleUnbounded:
		return 1 / (1 + max(0, raw))
	}
	switch {
	case raw >= -1 && raw <= 1:
		return (raw + 1) / 2
	case raw >= 0 && raw <= 2:
		return clamp01(1 - raw)
	default:
		return 1 / (1 + max(0, raw))
	}
}
