package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)

	// Scaling does not change the angle.
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{10, 20}), 1e-6)

	assert.Zero(t, cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestMatchScoreClamps(t *testing.T) {
	assert.Equal(t, 0.0, matchScore(-0.4))
	assert.Equal(t, 1.0, matchScore(1.2))
	assert.InDelta(t, 0.5, matchScore(0.5), 1e-6)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "blue backpack", Normalize("  Blue Backpack \n"))
	assert.Equal(t, "", Normalize("   "))

	long := make([]rune, 600)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, []rune(Normalize(string(long))), maxQueryLen)
}
