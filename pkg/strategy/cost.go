package strategy

import "github.com/mpapenbr/pitstop-strategy-manager/pkg/model"

// StintCost is the time for a stint of n laps. The first lap runs at base,
// every further lap is slower by one more deg increment.
func StintCost(base, deg float64, n int) float64 {
	l := float64(n)
	return l*base + deg*(l*(l-1)/2.0)
}

// StintBreakdown returns the StintCost of every stint.
//
//nolint:whitespace // editor/linter issue
func StintBreakdown(
	plan StintPlan, seq CompoundSequence, profile model.DegradationProfile, base float64,
) []float64 {
	ret := make([]float64, len(plan))
	for i, laps := range plan {
		ret[i] = StintCost(base, profile.Rate(seq[i]), laps)
	}
	return ret
}

// TotalCost is the sum of all stints plus one pit loss per stop.
//
//nolint:whitespace // editor/linter issue
func TotalCost(
	plan StintPlan,
	seq CompoundSequence,
	profile model.DegradationProfile,
	base, pitLoss float64,
) float64 {
	total := 0.0
	for i, laps := range plan {
		total += StintCost(base, profile.Rate(seq[i]), laps)
	}
	return total + float64(plan.StopCount())*pitLoss
}
