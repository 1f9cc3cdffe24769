package scoring

import (
	"sort"

	"career-assessment-service/internal/domain"
)

// DefaultTopN is used when callers pass a non-positive n.
const DefaultTopN = 3

// TopN returns the n highest-scoring categories. Ties keep their original
// order and the synthetic total entry is never ranked.
func TopN(scores domain.CategoryScores, n int) []domain.CategoryScore {
	if n <= 0 {
		n = DefaultTopN
	}
	ranked := Rank(scores)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Rank sorts every category descending by score without truncating.
func Rank(scores domain.CategoryScores) []domain.CategoryScore {
	ranked := make([]domain.CategoryScore, 0, len(scores))
	for _, e := range scores {
		if e.Category == domain.TotalScoreKey {
			continue
		}
		ranked = append(ranked, e)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
