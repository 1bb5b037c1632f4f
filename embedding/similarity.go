package embedding

import (
	"fmt"
	"math"
)

// SimilarityType represents the type of similarity metric.
type SimilarityType string

const (
	// SimilarityTypeCosine uses cosine similarity (default for most use cases).
	SimilarityTypeCosine SimilarityType = "cosine"
	// SimilarityTypeEuclidean uses Euclidean distance (converted to similarity).
	SimilarityTypeEuclidean SimilarityType = "euclidean"
	// SimilarityTypeDotProduct uses dot product similarity.
	SimilarityTypeDotProduct SimilarityType = "dot_product"
)

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
// For normalized vectors, this is equivalent to dot product.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have same length: %d != %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vectors must not be empty")
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("vectors must not be zero vectors")
	}

	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// DotProduct calculates the dot product between two vectors.
// For normalized vectors, this equals cosine similarity.
func DotProduct(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have same length: %d != %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vectors must not be empty")
	}

	var result float64
	for i := range a {
		result += float64(a[i]) * float64(b[i])
	}
	return float32(result), nil
}

// EuclideanDistance calculates the Euclidean distance between two vectors.
// Returns a non-negative value where 0 means identical vectors.
func EuclideanDistance(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have same length: %d != %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vectors must not be empty")
	}

	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return float32(math.Sqrt(sum)), nil
}

// EuclideanSimilarity converts Euclidean distance to a similarity score.
// Returns a value between 0 and 1, where 1 means identical vectors.
func EuclideanSimilarity(a, b []float32) (float32, error) {
	dist, err := EuclideanDistance(a, b)
	if err != nil {
		return 0, err
	}
	// Convert distance to similarity: 1 / (1 + distance)
	return 1.0 / (1.0 + dist), nil
}

// Similarity calculates similarity between two vectors using the specified metric.
func Similarity(a, b []float32, simType SimilarityType) (float32, error) {
	switch simType {
	case SimilarityTypeCosine:
		return CosineSimilarity(a, b)
	case SimilarityTypeDotProduct:
		return DotProduct(a, b)
	case SimilarityTypeEuclidean:
		return EuclideanSimilarity(a, b)
	default:
		return CosineSimilarity(a, b)
	}
}

// Normalize normalizes a vector to unit length (L2 norm = 1).
// Returns a new normalized vector without modifying the original.
func Normalize(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("vector must not be empty")
	}

	var norm float64
	for _, val := range v {
		norm += float64(val) * float64(val)
	}
	norm = math.Sqrt(norm)

	if norm == 0 {
		return nil, fmt.Errorf("cannot normalize zero vector")
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = float32(float64(val) / norm)
	}
	return result, nil
}

// Magnitude calculates the magnitude (L2 norm) of a vector.
func Magnitude(v []float32) float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return float32(math.Sqrt(sum))
}

// TopKSimilar finds the top K most similar vectors to a query vector.
// Returns indices and similarity scores sorted by similarity (descending).
func TopKSimilar(query []float32, vectors [][]float32, k int, simType SimilarityType) ([]int, []float32, error) {
	if k <= 0 {
		return nil, nil, fmt.Errorf("k must be positive")
	}
	if len(vectors) == 0 {
		return nil, nil, nil
	}
	if k > len(vectors) {
		k = len(vectors)
	}

	type scoredIndex struct {
		index int
		score float32
	}
	scores := make([]scoredIndex, len(vectors))

	for i, v := range vectors {
		sim, err := Similarity(query, v, simType)
		if err != nil {
			return nil, nil, fmt.Errorf("error computing similarity for vector %d: %w", i, err)
		}
		scores[i] = scoredIndex{index: i, score: sim}
	}

	// Simple selection sort for top K (efficient for small K)
	for i := 0; i < k; i++ {
		maxIdx := i
		for j := i + 1; j < len(scores); j++ {
			if scores[j].score > scores[maxIdx].score {
				maxIdx = j
			}
		}
		scores[i], scores[maxIdx] = scores[maxIdx], scores[i]
	}

	indices := make([]int, k)
	similarities := make([]float32, k)
	for i := 0; i < k; i++ {
		indices[i] = scores[i].index
		similarities[i] = scores[i].score
	}

	return indices, similarities, nil
}

// MaximalMarginalRelevance selects up to k candidate indices balancing
// relevance to the query against diversity among the already selected set.
// lambda controls the trade-off: 1 is pure relevance, 0 is maximum diversity.
// The returned indices are in selection order.
func MaximalMarginalRelevance(query []float32, candidates [][]float32, lambda float32, k int) []int {
	if k <= 0 || len(candidates) == 0 || len(query) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	queryScores := make([]float64, len(candidates))
	for i, c := range candidates {
		queryScores[i] = cosine(query, c)
	}

	selected := make([]int, 0, k)
	taken := make([]bool, len(candidates))

	for len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)

		for i := range candidates {
			if taken[i] {
				continue
			}

			// Penalize similarity to whatever is already selected.
			maxSelectedSim := 0.0
			for j, s := range selected {
				sim := cosine(candidates[i], candidates[s])
				if j == 0 || sim > maxSelectedSim {
					maxSelectedSim = sim
				}
			}

			score := float64(lambda)*queryScores[i] - float64(1-lambda)*maxSelectedSim
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx < 0 {
			break
		}
		selected = append(selected, bestIdx)
		taken[bestIdx] = true
	}

	return selected
}

// cosine is a tolerant cosine similarity for internal ranking.
// Mismatched or zero vectors score 0 instead of failing.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
