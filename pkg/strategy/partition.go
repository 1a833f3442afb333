package strategy

import "slices"

// StintPlan holds the stint lengths in race order.
type StintPlan []int

// StopCount is the number of pit stops needed for the plan.
func (p StintPlan) StopCount() int {
	return len(p) - 1
}

// StopLaps returns the lap at the end of each stint followed by a pit stop.
func (p StintPlan) StopLaps() []int {
	ret := make([]int, 0, max(len(p)-1, 0))
	acc := 0
	for i := 0; i < len(p)-1; i++ {
		acc += p[i]
		ret = append(ret, acc)
	}
	return ret
}

// PartitionGenerator enumerates the ways to split TotalLaps into stints.
//
// Plans are produced with stint count ascending and, within a stint count,
// with stint lengths ascending at each position. The optimizer relies on this
// order for tie-breaking.
type PartitionGenerator struct {
	TotalLaps int
	MinLen    int
	MaxLen    int
	MaxStops  int
}

// Walk calls fn for every feasible plan until fn returns false.
// The plan passed to fn is a reused buffer and is only valid during the call.
// Walk returns false if it was stopped by fn.
func (g PartitionGenerator) Walk(fn func(StintPlan) bool) bool {
	if g.MinLen <= 0 || g.MinLen > g.MaxLen || g.TotalLaps <= 0 {
		return true
	}
	// No stint is longer than the race and no plan has more than
	// TotalLaps/MinLen stints. Clamping keeps k*MaxLen from overflowing.
	g.MaxLen = min(g.MaxLen, g.TotalLaps)
	maxK := min(g.MaxStops, g.TotalLaps/g.MinLen-1) + 1
	for k := 1; k <= maxK; k++ {
		if k*g.MinLen > g.TotalLaps || g.TotalLaps > k*g.MaxLen {
			continue
		}
		if !g.walkStints(k, fn) {
			return false
		}
	}
	return true
}

// Enumerate collects all plans of Walk.
func (g PartitionGenerator) Enumerate() []StintPlan {
	ret := make([]StintPlan, 0)
	g.Walk(func(p StintPlan) bool {
		ret = append(ret, slices.Clone(p))
		return true
	})
	return ret
}

// walkStints runs a depth first search over plans with exactly k stints.
// next[d] is the next stint length to try at depth d, rem[d] the laps not
// yet covered before position d is chosen.
func (g PartitionGenerator) walkStints(k int, fn func(StintPlan) bool) bool {
	buf := make(StintPlan, k)
	next := make([]int, k)
	rem := make([]int, k)
	rem[0] = g.TotalLaps
	next[0] = g.MinLen
	d := 0
	for d >= 0 {
		left := k - d - 1 // stints after position d
		x, ok := g.nextLength(next[d], rem[d], left)
		if !ok {
			d--
			continue
		}
		buf[d] = x
		next[d] = x + 1
		if d == k-1 {
			if !fn(buf) {
				return false
			}
			continue
		}
		d++
		rem[d] = rem[d-1] - x
		next[d] = g.MinLen
	}
	return true
}

// nextLength returns the smallest stint length >= from which leaves a
// remainder coverable by left stints.
func (g PartitionGenerator) nextLength(from, rem, left int) (int, bool) {
	for x := from; x <= g.MaxLen; x++ {
		r := rem - x
		if r < left*g.MinLen {
			// larger x only shrinks r further
			return 0, false
		}
		if r > left*g.MaxLen {
			continue
		}
		return x, true
	}
	return 0, false
}
