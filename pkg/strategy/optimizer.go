package strategy

import (
	"math"
	"slices"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/model"
)

type (
	// Params are the per request inputs of a solve.
	Params struct {
		BaseLaptime            float64                  // lap time of a fresh tire in seconds
		Degradation            model.DegradationProfile // seconds per lap already run
		MinStintLaps           int
		MaxStintLaps           int
		MaxStops               int
		EnforceTwoCompoundRule bool
	}
	// Strategy is the outcome of one solve.
	Strategy struct {
		Plan                  StintPlan
		Sequence              CompoundSequence
		PredictedTotalSeconds float64
		StintBreakdownSeconds []float64
		StopLaps              []int
		// Truncated is set when the candidate limit stopped the search early.
		Truncated bool
	}
	Option    func(*Optimizer)
	Optimizer struct {
		maxCandidates int
		log           *log.Logger
	}
)

const DefaultMaxStops = 2

func DefaultParams() Params {
	return Params{MaxStops: DefaultMaxStops, EnforceTwoCompoundRule: true}
}

// Validate rejects parameters which do not describe a search at all.
// An empty search space is not an error here, Solve reports ErrInfeasible.
func (p *Params) Validate() error {
	if math.IsNaN(p.BaseLaptime) || math.IsInf(p.BaseLaptime, 0) || p.BaseLaptime < 0 {
		return invalid("base_laptime_s", "must be a finite non-negative number, got %v",
			p.BaseLaptime)
	}
	for c, v := range p.Degradation {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("degradation", "rate for %s must be finite", c)
		}
	}
	if p.MinStintLaps < 1 {
		return invalid("min_stint_laps", "must be at least 1, got %d", p.MinStintLaps)
	}
	if p.MaxStintLaps < p.MinStintLaps {
		return invalid("max_stint_laps", "must not be less than min_stint_laps (%d < %d)",
			p.MaxStintLaps, p.MinStintLaps)
	}
	if p.MaxStops < 0 {
		return invalid("max_stops", "must not be negative, got %d", p.MaxStops)
	}
	return nil
}

// WithMaxCandidates stops the search after n evaluated (plan, sequence)
// pairs. The enumeration order is fixed, so capped results are reproducible.
// n <= 0 disables the cap.
func WithMaxCandidates(n int) Option {
	return func(o *Optimizer) {
		o.maxCandidates = n
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *Optimizer) {
		o.log = l
	}
}

func NewOptimizer(opts ...Option) *Optimizer {
	ret := &Optimizer{log: log.Default().Named("strategy")}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

type candidate struct {
	total float64
	plan  StintPlan
	seq   CompoundSequence
}

// Solve searches the plan and compound combination with the lowest predicted
// race time. Among equal totals the first one in enumeration order wins.
// Solve keeps no state between calls and may be used concurrently.
func (o *Optimizer) Solve(race *model.Race, p Params) (*Strategy, error) {
	if race == nil {
		return nil, invalid("race", "missing")
	}
	if race.TotalLaps <= 0 {
		return nil, invalid("laps", "race %s has no laps", race.RaceID)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var filters []SequenceFilter
	if p.EnforceTwoCompoundRule {
		filters = append(filters, RequireDistinct)
	}
	cache := newSequenceCache(race.Compounds, filters...)
	gen := PartitionGenerator{
		TotalLaps: race.TotalLaps,
		MinLen:    p.MinStintLaps,
		MaxLen:    p.MaxStintLaps,
		MaxStops:  p.MaxStops,
	}

	var best *candidate
	evaluated := 0
	plans := 0
	completed := gen.Walk(func(plan StintPlan) bool {
		plans++
		for _, seq := range cache.get(len(plan)) {
			if o.maxCandidates > 0 && evaluated >= o.maxCandidates {
				return false
			}
			evaluated++
			total := TotalCost(plan, seq, p.Degradation, p.BaseLaptime, race.PitLossSeconds)
			if best == nil || total < best.total {
				best = &candidate{total: total, plan: slices.Clone(plan), seq: seq}
			}
		}
		return true
	})

	o.log.Debug("search done",
		log.String("race", race.RaceID),
		log.Int("plans", plans),
		log.Int("candidates", evaluated),
		log.Bool("completed", completed))

	if best == nil {
		return nil, ErrInfeasible
	}
	return &Strategy{
		Plan:                  best.plan,
		Sequence:              slices.Clone(best.seq),
		PredictedTotalSeconds: best.total,
		StintBreakdownSeconds: StintBreakdown(best.plan, best.seq, p.Degradation, p.BaseLaptime),
		StopLaps:              best.plan.StopLaps(),
		Truncated:             !completed,
	}, nil
}
