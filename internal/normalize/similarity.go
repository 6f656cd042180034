package normalize

import (
	"github.com/agnivade/levenshtein"
)

// Similarity scores how alike two addresses are after normalization.
// Returns 1 - editDistance/max(len), always in [0,1]. Comparisons where
// either side normalizes to the empty string score 0; an empty address
// carries no signal.
func Similarity(a, b string) float64 {
	return KeySimilarity(Normalize(a), Normalize(b))
}

// KeySimilarity scores two already-normalized comparison keys.
func KeySimilarity(na, nb string) float64 {
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}

	dist := levenshtein.ComputeDistance(na, nb)
	sim := 1 - float64(dist)/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}
