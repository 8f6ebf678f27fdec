package search

import "math"

func dotProduct(a, b []float32) float32 {
	var product float32
	for i := range a {
		product += a[i] * b[i]
	}
	return product
}

func magnitude(vec []float32) float32 {
	var sumOfSquares float32
	for _, v := range vec {
		sumOfSquares += v * v
	}
	return float32(math.Sqrt(float64(sumOfSquares)))
}

// cosineSimilarity returns the cosine of the angle between two vectors of
// equal dimension. Zero vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	magA := magnitude(a)
	magB := magnitude(b)
	if magA == 0 || magB == 0 {
		return 0
	}

	return dotProduct(a, b) / (magA * magB)
}

// matchScore maps similarity to the [0,1] score reported to clients,
// computed as 1 - cosine distance.
func matchScore(similarity float32) float64 {
	score := float64(similarity)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
