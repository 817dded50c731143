package intelligence_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ava-assistant/avamem-go/pkg/intelligence"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		a, b   []float64
		want   float64
		wantOK bool
	}{
		{"identical", []float64{0.3, -1.2, 4}, []float64{0.3, -1.2, 4}, 1, true},
		{"scaled", []float64{1, 2}, []float64{2, 4}, 1, true},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0, true},
		{"opposite", []float64{1, 1}, []float64{-1, -1}, -1, true},
		{"zero norm", []float64{0, 0}, []float64{1, 0}, 0, false},
		{"length mismatch", []float64{1, 0}, []float64{1, 0, 0}, 0, false},
		{"empty", nil, nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := intelligence.CosineSimilarity(tt.a, tt.b)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	pairs := [][2][]float64{
		{{1, 2, 3}, {4, -5, 6}},
		{{0.1, 0.9}, {0.7, 0.2}},
		{{-3, 0, 1e-3}, {2, 2, 2}},
	}
	for _, p := range pairs {
		ab, okAB := intelligence.CosineSimilarity(p[0], p[1])
		ba, okBA := intelligence.CosineSimilarity(p[1], p[0])
		assert.Equal(t, okAB, okBA)
		assert.InDelta(t, ab, ba, 1e-12)
	}
}

func TestCosineSimilarityNaN(t *testing.T) {
	_, ok := intelligence.CosineSimilarity([]float64{math.NaN(), 1}, []float64{1, 1})
	assert.False(t, ok)
}
