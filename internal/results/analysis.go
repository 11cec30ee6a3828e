package results

import "fmt"

// AnalysisOptions control the capacity-fade check.
type AnalysisOptions struct {
	// ConsecutiveCycles is how many consecutive below-threshold cycles
	// are tolerated before the cell counts as degraded. Default 2.
	ConsecutiveCycles int
	// Threshold is the capacity-retention threshold relative to the
	// first cycle. Default 0.8.
	Threshold float64
	// Discharge selects the discharge capacities; otherwise the charge
	// capacities are analyzed. Default true.
	Discharge bool
}

// DefaultAnalysisOptions returns the standard fade check: two
// consecutive cycles below 80% of first-cycle discharge capacity.
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		ConsecutiveCycles: 2,
		Threshold:         0.8,
		Discharge:         true,
	}
}

// Analysis is the outcome of a capacity-fade check.
type Analysis struct {
	// CyclesCompleted is the number of cycles with a capacity value.
	CyclesCompleted int `json:"cycles_completed"`
	// Capacities are the analyzed per-cycle capacities in Ah.
	Capacities []float64 `json:"capacities"`
	// RelativeCapacities are the capacities normalized to cycle 0.
	RelativeCapacities []float64 `json:"relative_capacities"`
	// BelowThresholdRuns holds the length of every run of consecutive
	// cycles below the threshold.
	BelowThresholdRuns []int `json:"below_threshold_runs,omitempty"`
	// Degraded is true when some run exceeds ConsecutiveCycles.
	Degraded bool `json:"degraded"`
}

// Analyze runs the capacity-fade check over parsed cycling data.
func Analyze(data *CyclingData, opts AnalysisOptions) (*Analysis, error) {
	if opts.ConsecutiveCycles <= 0 {
		opts.ConsecutiveCycles = 2
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 0.8
	}

	capacities := data.ChargeCapacity
	if opts.Discharge {
		capacities = data.DischargeCapacity
	}
	if len(capacities) == 0 {
		return nil, fmt.Errorf("no capacity data to analyze")
	}

	first := capacities[0]
	if first == 0 {
		return nil, fmt.Errorf("first-cycle capacity is zero, cannot normalize")
	}

	analysis := &Analysis{
		CyclesCompleted:    len(capacities),
		Capacities:         capacities,
		RelativeCapacities: make([]float64, len(capacities)),
	}
	for i, q := range capacities {
		analysis.RelativeCapacities[i] = q / first
	}

	// The degradation check needs at least one full cycle beyond the
	// tolerated run length.
	if len(capacities) < opts.ConsecutiveCycles+1 {
		return analysis, nil
	}

	run := 0
	for _, rel := range analysis.RelativeCapacities {
		if rel < opts.Threshold {
			run++
			continue
		}
		if run > 0 {
			analysis.BelowThresholdRuns = append(analysis.BelowThresholdRuns, run)
		}
		run = 0
	}
	if run > 0 {
		analysis.BelowThresholdRuns = append(analysis.BelowThresholdRuns, run)
	}

	for _, r := range analysis.BelowThresholdRuns {
		if r > opts.ConsecutiveCycles {
			analysis.Degraded = true
			break
		}
	}

	return analysis, nil
}
