package scoring

import (
	"sort"

	"github.com/kilianp07/o2v/core/model"
)

// Rank scores every candidate in the pool and returns them ordered by overall
// score descending. Ties break by reliability score descending, then by vendor
// identifier ascending, so the ordering is total and reproducible. Ranks are
// dense and 1-based.
func (s *Scorer) Rank(pool []model.Candidate) []model.ScoredCandidate {
	scored := make([]model.ScoredCandidate, 0, len(pool))
	for _, c := range pool {
		scored = append(scored, s.Score(c, pool))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.OverallScore != b.OverallScore {
			return a.OverallScore > b.OverallScore
		}
		if a.ReliabilityScore != b.ReliabilityScore {
			return a.ReliabilityScore > b.ReliabilityScore
		}
		return a.VendorID < b.VendorID
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}
