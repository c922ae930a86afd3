package scoring

import (
	"fmt"

	"github.com/kilianp07/o2v/core/model"
)

// NeutralReliability is assumed when the reliability collaborator has no
// history for a vendor.
const NeutralReliability = 50

// Scorer computes normalized per-dimension scores for candidates and combines
// them into a weighted overall score. Scoring is a pure function of the
// candidate and the pool it belongs to; the pool is needed for relative
// normalization of prices.
type Scorer struct {
	cfg Config
}

// NewScorer validates the configuration and returns a scorer.
func NewScorer(cfg Config) (*Scorer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Config returns the validated scorer configuration.
func (s *Scorer) Config() Config { return s.cfg }

// Score computes the dimension scores and the weighted overall score for one
// candidate relative to its pool.
func (s *Scorer) Score(c model.Candidate, pool []model.Candidate) model.ScoredCandidate {
	minPrice, maxPrice := priceRange(pool)
	sc := model.ScoredCandidate{
		Candidate:         c,
		AvailabilityScore: availabilityScore(c),
		ProximityScore:    proximityScore(c),
		WorkloadScore:     s.workloadScore(c),
		PriceScore:        priceScore(c.Price, minPrice, maxPrice),
		ReliabilityScore:  reliabilityScore(c),
	}
	w := s.cfg.Weights
	sc.OverallScore = (sc.AvailabilityScore*float64(w.Availability) +
		sc.ProximityScore*float64(w.Proximity) +
		sc.WorkloadScore*float64(w.Workload) +
		sc.PriceScore*float64(w.Price) +
		sc.ReliabilityScore*float64(w.Reliability)) / 100
	return sc
}

// FilterByReliability removes candidates below the reliability floor. The
// relaxed floor applies on fallback attempts. Candidates without a reliability
// score are kept; the neutral default decides for them.
func (s *Scorer) FilterByReliability(pool []model.Candidate, relaxed bool) []model.Candidate {
	floor := s.cfg.MinReliability
	if relaxed {
		floor = s.cfg.RelaxedMinReliability
	}
	if floor <= 0 {
		return pool
	}
	res := make([]model.Candidate, 0, len(pool))
	for _, c := range pool {
		if reliabilityScore(c) >= floor {
			res = append(res, c)
		}
	}
	return res
}

// availabilityScore degrades gracefully when stock is short instead of
// failing: insufficient candidates should normally have been pre-filtered by
// the catalog.
func availabilityScore(c model.Candidate) float64 {
	switch {
	case c.RequestedQty <= 0:
		return 100
	case c.AvailableQty >= 2*c.RequestedQty:
		return 100
	case c.AvailableQty >= c.RequestedQty:
		return 70
	default:
		return 30
	}
}

func proximityScore(c model.Candidate) float64 {
	score := 50.0
	switch {
	case c.SameLocality:
		score += 20
	case c.SameRegion:
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (s *Scorer) workloadScore(c model.Candidate) float64 {
	t := s.cfg.WorkloadThresholds
	switch {
	case c.ActiveOrders <= t.Low:
		return 100
	case c.ActiveOrders <= t.Medium:
		return 80
	case c.ActiveOrders <= t.High:
		return 60
	case c.ActiveOrders <= t.Max:
		return 40
	default:
		return 20
	}
}

// priceScore maps the pool minimum to 100 and 1.5x the pool maximum to 0,
// linearly in between, clamped to [0,100].
func priceScore(price, minPrice, maxPrice float64) float64 {
	ceiling := 1.5 * maxPrice
	span := ceiling - minPrice
	if span <= 0 {
		return 100
	}
	score := 100 * (ceiling - price) / span
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func reliabilityScore(c model.Candidate) float64 {
	if !c.HasReliability {
		return NeutralReliability
	}
	return c.Reliability
}

func priceRange(pool []model.Candidate) (min, max float64) {
	if len(pool) == 0 {
		return 0, 0
	}
	min, max = pool[0].Price, pool[0].Price
	for _, c := range pool[1:] {
		if c.Price < min {
			min = c.Price
		}
		if c.Price > max {
			max = c.Price
		}
	}
	return min, max
}

// Explain renders a human-readable derivation of the candidate's score, used
// as the selection reason on routing attempts.
func Explain(sc model.ScoredCandidate) string {
	return fmt.Sprintf(
		"vendor %s ranked #%d with overall %.1f (availability %.0f, proximity %.0f, workload %.0f, price %.0f, reliability %.0f)",
		sc.VendorID, sc.Rank, sc.OverallScore,
		sc.AvailabilityScore, sc.ProximityScore, sc.WorkloadScore, sc.PriceScore, sc.ReliabilityScore,
	)
}
