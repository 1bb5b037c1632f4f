package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	// Identical vectors
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	sim, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 0.0001)

	// Orthogonal vectors
	c := []float32{1, 0, 0}
	d := []float32{0, 1, 0}
	sim, err = CosineSimilarity(c, d)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 0.0001)

	// Opposite vectors
	e := []float32{1, 0, 0}
	f := []float32{-1, 0, 0}
	sim, err = CosineSimilarity(e, f)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 0.0001)

	// Different lengths - should error
	_, err = CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	assert.Error(t, err)

	// Empty vectors - should error
	_, err = CosineSimilarity([]float32{}, []float32{})
	assert.Error(t, err)

	// Zero vector - should error
	_, err = CosineSimilarity([]float32{0, 0}, []float32{1, 2})
	assert.Error(t, err)
}

func TestDotProduct(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	dot, err := DotProduct(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 32.0, dot, 0.0001) // 1*4 + 2*5 + 3*6 = 32

	// Different lengths - should error
	_, err = DotProduct([]float32{1, 2}, []float32{1, 2, 3})
	assert.Error(t, err)
}

func TestEuclideanDistance(t *testing.T) {
	// Same point
	a := []float32{1, 2, 3}
	b := []float32{1, 2, 3}
	dist, err := EuclideanDistance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, dist, 0.0001)

	// Known distance
	c := []float32{0, 0, 0}
	d := []float32{3, 4, 0}
	dist, err = EuclideanDistance(c, d)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, dist, 0.0001) // 3-4-5 triangle

	// Different lengths - should error
	_, err = EuclideanDistance([]float32{1, 2}, []float32{1, 2, 3})
	assert.Error(t, err)
}

func TestEuclideanSimilarity(t *testing.T) {
	// Same point - similarity should be 1
	a := []float32{1, 2, 3}
	b := []float32{1, 2, 3}
	sim, err := EuclideanSimilarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 0.0001)

	// Far apart - similarity should be low
	c := []float32{0, 0}
	d := []float32{100, 100}
	sim, err = EuclideanSimilarity(c, d)
	require.NoError(t, err)
	assert.Less(t, sim, float32(0.1))
}

func TestSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}

	// Cosine
	sim, err := Similarity(a, b, SimilarityTypeCosine)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 0.0001)

	// Dot product
	sim, err = Similarity(a, b, SimilarityTypeDotProduct)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 0.0001)

	// Euclidean
	sim, err = Similarity(a, b, SimilarityTypeEuclidean)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 0.0001)

	// Default (cosine)
	sim, err = Similarity(a, b, "unknown")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 0.0001)
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	normalized, err := Normalize(v)
	require.NoError(t, err)

	// Check magnitude is 1
	mag := Magnitude(normalized)
	assert.InDelta(t, 1.0, mag, 0.0001)

	// Check direction is preserved
	assert.InDelta(t, 0.6, normalized[0], 0.0001) // 3/5
	assert.InDelta(t, 0.8, normalized[1], 0.0001) // 4/5

	// Original should be unchanged
	assert.Equal(t, float32(3), v[0])
	assert.Equal(t, float32(4), v[1])

	// Empty vector - should error
	_, err = Normalize([]float32{})
	assert.Error(t, err)

	// Zero vector - should error
	_, err = Normalize([]float32{0, 0, 0})
	assert.Error(t, err)
}

func TestMagnitude(t *testing.T) {
	v := []float32{3, 4}
	mag := Magnitude(v)
	assert.InDelta(t, 5.0, mag, 0.0001)

	// Zero vector
	zero := []float32{0, 0, 0}
	assert.Equal(t, float32(0), Magnitude(zero))
}

func TestTopKSimilar(t *testing.T) {
	query := []float32{1, 0, 0}
	vectors := [][]float32{
		{1, 0, 0},     // Most similar (identical)
		{0.9, 0.1, 0}, // Second most similar
		{0, 1, 0},     // Orthogonal
		{-1, 0, 0},    // Opposite
	}

	indices, scores, err := TopKSimilar(query, vectors, 2, SimilarityTypeCosine)
	require.NoError(t, err)
	assert.Len(t, indices, 2)
	assert.Len(t, scores, 2)

	// First should be the identical vector
	assert.Equal(t, 0, indices[0])
	assert.InDelta(t, 1.0, scores[0], 0.0001)

	// Second should be the similar vector
	assert.Equal(t, 1, indices[1])
	assert.Greater(t, scores[1], float32(0.9))

	// K larger than vectors
	indices, _, err = TopKSimilar(query, vectors, 10, SimilarityTypeCosine)
	require.NoError(t, err)
	assert.Len(t, indices, 4)

	// K = 0 should error
	_, _, err = TopKSimilar(query, vectors, 0, SimilarityTypeCosine)
	assert.Error(t, err)

	// Empty vectors
	indices, scores, err = TopKSimilar(query, [][]float32{}, 2, SimilarityTypeCosine)
	require.NoError(t, err)
	assert.Nil(t, indices)
	assert.Nil(t, scores)
}

func TestSimilarityTypes(t *testing.T) {
	assert.Equal(t, SimilarityType("cosine"), SimilarityTypeCosine)
	assert.Equal(t, SimilarityType("euclidean"), SimilarityTypeEuclidean)
	assert.Equal(t, SimilarityType("dot_product"), SimilarityTypeDotProduct)
}

func TestCosineSimilarityNormalizedVectors(t *testing.T) {
	// For normalized vectors, cosine similarity equals dot product
	a := []float32{0.6, 0.8}
	b := []float32{0.8, 0.6}

	// Verify they're normalized
	assert.InDelta(t, 1.0, Magnitude(a), 0.0001)
	assert.InDelta(t, 1.0, Magnitude(b), 0.0001)

	cosine, _ := CosineSimilarity(a, b)
	dot, _ := DotProduct(a, b)
	assert.InDelta(t, cosine, dot, 0.0001)
}

func TestMaximalMarginalRelevance(t *testing.T) {
	t.Run("Pure relevance with lambda 1", func(t *testing.T) {
		query := []float32{1, 0}
		candidates := [][]float32{
			{1, 0},      // identical to query
			{0.9, 0.1},  // close
			{0, 1},      // orthogonal
			{0.95, 0.1}, // closer than index 1
		}

		selected := MaximalMarginalRelevance(query, candidates, 1.0, 2)
		require.Len(t, selected, 2)
		// With lambda=1 the diversity term vanishes: pure top-k by query similarity.
		assert.Equal(t, 0, selected[0])
		assert.Equal(t, 3, selected[1])
	})

	t.Run("Diversity pressure with lambda 0", func(t *testing.T) {
		query := []float32{1, 0}
		candidates := [][]float32{
			{1, 0},
			{0.99, 0.01}, // near-duplicate of index 0
			{0, 1},       // maximally different
		}

		selected := MaximalMarginalRelevance(query, candidates, 0.0, 2)
		require.Len(t, selected, 2)
		// Nothing is selected yet on the first pick, so every score ties at
		// zero and the lowest index wins; the second pick must avoid the
		// near-duplicate.
		assert.Equal(t, 0, selected[0])
		assert.Equal(t, 2, selected[1])
	})

	t.Run("Balanced lambda prefers diverse results", func(t *testing.T) {
		query := []float32{1, 0}
		candidates := [][]float32{
			{0.9, 0.1},   // most relevant
			{0.89, 0.11}, // nearly relevant but redundant with index 0
			{0.5, -0.5},  // less relevant, much more diverse
		}

		selected := MaximalMarginalRelevance(query, candidates, 0.5, 2)
		require.Len(t, selected, 2)
		assert.Equal(t, 0, selected[0])
		assert.Equal(t, 2, selected[1])
	})

	t.Run("Selection order is deterministic", func(t *testing.T) {
		query := []float32{1, 0}
		candidates := [][]float32{
			{0.5, 0.5},
			{0.5, 0.5}, // exact tie with index 0
			{1, 0},
		}

		for i := 0; i < 10; i++ {
			selected := MaximalMarginalRelevance(query, candidates, 0.5, 3)
			require.Len(t, selected, 3)
			assert.Equal(t, 2, selected[0])
			// Ties resolve to the lower index.
			assert.Equal(t, 0, selected[1])
			assert.Equal(t, 1, selected[2])
		}
	})

	t.Run("K capped at candidate count", func(t *testing.T) {
		query := []float32{1, 0}
		candidates := [][]float32{{1, 0}, {0, 1}}

		selected := MaximalMarginalRelevance(query, candidates, 0.5, 10)
		assert.Len(t, selected, 2)
	})

	t.Run("Degenerate inputs return nil", func(t *testing.T) {
		assert.Nil(t, MaximalMarginalRelevance(nil, [][]float32{{1}}, 0.5, 2))
		assert.Nil(t, MaximalMarginalRelevance([]float32{1}, nil, 0.5, 2))
		assert.Nil(t, MaximalMarginalRelevance([]float32{1}, [][]float32{{1}}, 0.5, 0))
	})
}

func TestSpecialCases(t *testing.T) {
	// Very small values
	small := []float32{1e-10, 1e-10, 1e-10}
	mag := Magnitude(small)
	assert.Greater(t, mag, float32(0))

	// Very large values
	large := []float32{1e10, 1e10, 1e10}
	mag = Magnitude(large)
	assert.False(t, math.IsInf(float64(mag), 0))
	assert.False(t, math.IsNaN(float64(mag)))
}
