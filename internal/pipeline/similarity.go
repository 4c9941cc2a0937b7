package pipeline

import (
	"fmt"

	"github.com/antzucaro/matchr"
)

// SimilarityFunc scores textual closeness of two strings in [0, 1].
// Implementations must be symmetric and must never fail.
type SimilarityFunc func(a, b string) float64

// SequenceRatio is the canonical similarity metric: twice the longest common
// subsequence length over the combined length, computed on runes. Two empty
// strings score 1.
func SequenceRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	return 2 * float64(lcsLen(ra, rb)) / float64(len(ra)+len(rb))
}

// lcsLen computes the longest common subsequence length with a two-row table.
func lcsLen(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// JaroWinklerRatio scores with Jaro-Winkler similarity. Provided as a tuning
// alternative to [SequenceRatio]; it weighs shared prefixes heavily, which
// suits short caption fragments.
func JaroWinklerRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return matchr.JaroWinkler(a, b, false)
}

// MetricByName resolves a configured metric name to its implementation.
func MetricByName(name string) (SimilarityFunc, error) {
	switch name {
	case "sequence":
		return SequenceRatio, nil
	case "jarowinkler":
		return JaroWinklerRatio, nil
	}
	return nil, fmt.Errorf("unknown similarity metric %q", name)
}
