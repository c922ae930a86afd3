package scoring

import "fmt"

// Weights defines the contribution of each scoring dimension to the overall
// score, in percent. The sum must be exactly 100; configurations that do not
// add up are rejected at load time rather than silently renormalized.
type Weights struct {
	Availability int `json:"availability"`
	Proximity    int `json:"proximity"`
	Workload     int `json:"workload"`
	Price        int `json:"price"`
	Reliability  int `json:"reliability"`
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{Availability: 30, Proximity: 20, Workload: 15, Price: 20, Reliability: 15}
}

// Validate checks that the weights sum to exactly 100.
func (w Weights) Validate() error {
	sum := w.Availability + w.Proximity + w.Workload + w.Price + w.Reliability
	if sum != 100 {
		return fmt.Errorf("scoring: weights must sum to 100, got %d", sum)
	}
	return nil
}

// WorkloadThresholds defines the step boundaries for the workload score. A
// vendor with at most Low active orders scores 100, at most Medium scores 80,
// at most High scores 60, at most Max scores 40, anything above scores 20.
type WorkloadThresholds struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
	Max    int `json:"max"`
}

// DefaultWorkloadThresholds returns the standard step boundaries.
func DefaultWorkloadThresholds() WorkloadThresholds {
	return WorkloadThresholds{Low: 5, Medium: 10, High: 20, Max: 30}
}

// Validate checks that the thresholds are strictly increasing.
func (t WorkloadThresholds) Validate() error {
	if t.Low <= 0 || t.Medium <= t.Low || t.High <= t.Medium || t.Max <= t.High {
		return fmt.Errorf("scoring: workload thresholds must be strictly increasing, got %+v", t)
	}
	return nil
}

// Config bundles the scorer settings.
type Config struct {
	Weights            Weights            `json:"weights"`
	WorkloadThresholds WorkloadThresholds `json:"workload_thresholds"`

	// MinReliability is the floor applied when building the first candidate
	// pool. RelaxedMinReliability replaces it on fallback attempts: once a
	// vendor has already failed an order, any fulfillment beats strict
	// quality.
	MinReliability        float64 `json:"min_reliability"`
	RelaxedMinReliability float64 `json:"relaxed_min_reliability"`
}

// SetDefaults fills zero values with the standard configuration.
func (c *Config) SetDefaults() {
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights()
	}
	if c.WorkloadThresholds == (WorkloadThresholds{}) {
		c.WorkloadThresholds = DefaultWorkloadThresholds()
	}
}

// Validate checks the full scorer configuration.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.WorkloadThresholds.Validate(); err != nil {
		return err
	}
	if c.MinReliability < 0 || c.MinReliability > 100 {
		return fmt.Errorf("scoring: min_reliability must be within [0,100], got %v", c.MinReliability)
	}
	if c.RelaxedMinReliability < 0 || c.RelaxedMinReliability > c.MinReliability {
		return fmt.Errorf("scoring: relaxed_min_reliability must be within [0,%v], got %v", c.MinReliability, c.RelaxedMinReliability)
	}
	return nil
}
