package vectorstore

import (
	"math"
	"slices"

	"github.com/poiesic/tedrag/core"
)

// Cosine returns the cosine similarity of a and b.
// Vectors of different length are compared over their common prefix.
// A zero vector has similarity 0 with everything.
func Cosine(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// SortMatches orders matches by descending score, ties broken by id.
func SortMatches(matches []core.Match) {
	slices.SortFunc(matches, func(a, b core.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}

// TopK sorts matches and truncates them to k.
func TopK(matches []core.Match, k int) []core.Match {
	SortMatches(matches)
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
