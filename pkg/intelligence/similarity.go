package intelligence

import "math"

// CosineSimilarity returns the cosine of the angle between a and b.
//
// ok is false when the vectors are empty, differ in length, or either has
// zero norm; the score is meaningless in those cases and is returned as 0.
func CosineSimilarity(a, b []float64) (score float64, ok bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}

	score = dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, false
	}
	return score, true
}
