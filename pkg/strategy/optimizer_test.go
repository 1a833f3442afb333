//nolint:funlen // table tests
package strategy

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/model"
)

var (
	mexico = &model.Race{
		RaceID: "demo_mexico_2024", Season: 2024, Name: "Demo Mexico City GP",
		TotalLaps: 57, PitLossSeconds: 20.0,
		Compounds: []model.CompoundKind{s, m, h},
	}
	mexicoDeg = model.DegradationProfile{s: 0.12, m: 0.08, h: 0.05}
)

func mexicoParams(minLen, maxLen, maxStops int) Params {
	p := DefaultParams()
	p.BaseLaptime = 80.0
	p.Degradation = mexicoDeg
	p.MinStintLaps = minLen
	p.MaxStintLaps = maxLen
	p.MaxStops = maxStops
	return p
}

func assertInvariants(t *testing.T, race *model.Race, p Params, got *Strategy) {
	t.Helper()
	sum := 0
	for _, l := range got.Plan {
		assert.GreaterOrEqual(t, l, p.MinStintLaps)
		assert.LessOrEqual(t, l, p.MaxStintLaps)
		sum += l
	}
	assert.Equal(t, race.TotalLaps, sum)
	assert.LessOrEqual(t, len(got.Plan)-1, p.MaxStops)
	assert.Len(t, got.Sequence, len(got.Plan))
	if p.EnforceTwoCompoundRule && len(got.Plan) >= 2 {
		assert.True(t, RequireDistinct(got.Sequence), "sequence %v", got.Sequence)
	}
	require.Len(t, got.StopLaps, len(got.Plan)-1)
	acc := 0
	for i, lap := range got.StopLaps {
		acc += got.Plan[i]
		assert.Equal(t, acc, lap)
		if i > 0 {
			assert.Greater(t, lap, got.StopLaps[i-1])
		}
	}
	recomputed := TotalCost(got.Plan, got.Sequence, p.Degradation, p.BaseLaptime,
		race.PitLossSeconds)
	assert.InDelta(t, recomputed, got.PredictedTotalSeconds, 1e-9)
	assert.Len(t, got.StintBreakdownSeconds, len(got.Plan))
}

func TestOptimizer_Solve_scenarioA(t *testing.T) {
	p := mexicoParams(10, 30, 2)
	got, err := NewOptimizer().Solve(mexico, p)
	require.NoError(t, err)
	assertInvariants(t, mexico, p, got)
	assert.Equal(t, StintPlan{14, 21, 22}, got.Plan)
	assert.Equal(t, CompoundSequence{m, h, h}, got.Sequence)
	assert.Equal(t, []int{14, 35}, got.StopLaps)
	assert.InDelta(t, 4629.33, got.PredictedTotalSeconds, 1e-6)
	assert.False(t, got.Truncated)
}

func TestOptimizer_Solve_scenarios(t *testing.T) {
	single := &model.Race{
		RaceID: "single", Season: 2024, Name: "single compound",
		TotalLaps: 20, PitLossSeconds: 10, Compounds: []model.CompoundKind{h},
	}
	singleParams := func(enforce bool) Params {
		return Params{
			BaseLaptime: 90, Degradation: model.DegradationProfile{h: 0.1},
			MinStintLaps: 5, MaxStintLaps: 10, MaxStops: 2, EnforceTwoCompoundRule: enforce,
		}
	}
	tests := []struct {
		name    string
		race    *model.Race
		params  Params
		wantErr error
	}{
		{
			name:    "B: 57 laps can't be one 30 lap stint",
			race:    mexico,
			params:  mexicoParams(30, 30, 0),
			wantErr: ErrInfeasible,
		},
		{
			name:    "no stop allowed but stint too short",
			race:    mexico,
			params:  mexicoParams(10, 30, 0),
			wantErr: ErrInfeasible,
		},
		{
			name:    "C: single compound with regulation",
			race:    single,
			params:  singleParams(true),
			wantErr: ErrInfeasible,
		},
		{
			name:   "C without regulation",
			race:   single,
			params: singleParams(false),
		},
		{
			name:   "one stop",
			race:   mexico,
			params: mexicoParams(20, 40, 2),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewOptimizer().Solve(tt.race, tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assertInvariants(t, tt.race, tt.params, got)
		})
	}
}

func TestOptimizer_Solve_oneStop(t *testing.T) {
	got, err := NewOptimizer().Solve(mexico, mexicoParams(20, 40, 2))
	require.NoError(t, err)
	assert.Equal(t, StintPlan{22, 35}, got.Plan)
	assert.Equal(t, CompoundSequence{m, h}, got.Sequence)
	assert.InDelta(t, 4628.23, Round3(got.PredictedTotalSeconds), 1e-9)
}

func TestOptimizer_Solve_hugeLimits(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		bounded Params
	}{
		{
			name:    "max stint laps",
			params:  mexicoParams(10, math.MaxInt, 2),
			bounded: mexicoParams(10, 57, 2),
		},
		{
			name:    "max stops",
			params:  mexicoParams(10, 30, math.MaxInt),
			bounded: mexicoParams(10, 30, 4),
		},
		{
			name:    "both",
			params:  mexicoParams(20, math.MaxInt, math.MaxInt),
			bounded: mexicoParams(20, 57, 1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := NewOptimizer().Solve(mexico, tt.bounded)
			require.NoError(t, err)
			got, err := NewOptimizer().Solve(mexico, tt.params)
			require.NoError(t, err)
			assert.Equal(t, want.Plan, got.Plan)
			assert.Equal(t, want.Sequence, got.Sequence)
			assert.InDelta(t, want.PredictedTotalSeconds, got.PredictedTotalSeconds, 1e-9)
		})
	}

	got, err := NewOptimizer().Solve(mexico, mexicoParams(10, math.MaxInt, 2))
	require.NoError(t, err)
	assert.Equal(t, StintPlan{22, 35}, got.Plan)
	assert.InDelta(t, 4628.23, Round3(got.PredictedTotalSeconds), 1e-9)
}

func TestOptimizer_Solve_invalidInput(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(p *Params)
		param string
	}{
		{name: "min > max", mod: func(p *Params) { p.MinStintLaps, p.MaxStintLaps = 31, 30 }, param: "max_stint_laps"},
		{name: "zero min", mod: func(p *Params) { p.MinStintLaps = 0 }, param: "min_stint_laps"},
		{name: "negative min", mod: func(p *Params) { p.MinStintLaps = -3 }, param: "min_stint_laps"},
		{name: "negative stops", mod: func(p *Params) { p.MaxStops = -1 }, param: "max_stops"},
		{name: "negative base", mod: func(p *Params) { p.BaseLaptime = -1 }, param: "base_laptime_s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mexicoParams(10, 30, 2)
			tt.mod(&p)
			_, err := NewOptimizer().Solve(mexico, p)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.False(t, errors.Is(err, ErrInfeasible))
			var iie *InvalidInputError
			require.ErrorAs(t, err, &iie)
			assert.Equal(t, tt.param, iie.Param)
		})
	}

	t.Run("race without laps", func(t *testing.T) {
		r := mexico.Clone()
		r.TotalLaps = -5
		_, err := NewOptimizer().Solve(r, mexicoParams(10, 30, 2))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestOptimizer_Solve_deterministic(t *testing.T) {
	// uniform degradation produces many equal totals
	p := mexicoParams(10, 30, 2)
	p.Degradation = model.DegradationProfile{s: 0.1, m: 0.1, h: 0.1}
	o := NewOptimizer()
	first, err := o.Solve(mexico, p)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := o.Solve(mexico, p)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	// first in enumeration order wins among ties
	assert.Equal(t, StintPlan{19, 19, 19}, first.Plan)
	assert.Equal(t, CompoundSequence{s, s, m}, first.Sequence)
}

func TestOptimizer_Solve_concurrent(t *testing.T) {
	o := NewOptimizer()
	p := mexicoParams(10, 30, 2)
	want, err := o.Solve(mexico, p)
	require.NoError(t, err)
	results := make(chan *Strategy, 8)
	for i := 0; i < 8; i++ {
		go func() {
			got, _ := o.Solve(mexico, p)
			results <- got
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, want, <-results)
	}
}

func TestOptimizer_Solve_maxCandidates(t *testing.T) {
	p := mexicoParams(10, 30, 2)
	got, err := NewOptimizer(WithMaxCandidates(1)).Solve(mexico, p)
	require.NoError(t, err)
	assert.True(t, got.Truncated)
	// the very first candidate: first plan, first allowed sequence
	assert.Equal(t, StintPlan{27, 30}, got.Plan)
	assert.Equal(t, CompoundSequence{s, m}, got.Sequence)

	uncapped, err := NewOptimizer(WithMaxCandidates(1_000_000)).Solve(mexico, p)
	require.NoError(t, err)
	full, err := NewOptimizer().Solve(mexico, p)
	require.NoError(t, err)
	assert.Equal(t, full, uncapped)
}

func TestOptimizer_Solve_pitLossMonotonic(t *testing.T) {
	// binary exact rates keep the comparison free of rounding effects
	profiles := []model.DegradationProfile{
		{s: 0.5, m: 0.25, h: 0.125},
		{s: 1, m: 0.5, h: 0.25},
		{s: 0.25, m: 0.25, h: 0.25},
	}
	bounds := [][3]int{{3, 10, 3}, {2, 8, 4}, {4, 12, 2}}
	for pi, profile := range profiles {
		for _, b := range bounds {
			for laps := 12; laps <= 20; laps += 4 {
				name := fmt.Sprintf("profile%d/%v/laps%d", pi, b, laps)
				t.Run(name, func(t *testing.T) {
					race := &model.Race{
						RaceID: "small", TotalLaps: laps,
						Compounds: []model.CompoundKind{s, m, h},
					}
					prevStops := -1
					for pit := 0; pit <= 64; pit += 4 {
						race.PitLossSeconds = float64(pit)
						got, err := NewOptimizer().Solve(race, Params{
							BaseLaptime: 60, Degradation: profile,
							MinStintLaps: b[0], MaxStintLaps: b[1], MaxStops: b[2],
							EnforceTwoCompoundRule: true,
						})
						if errors.Is(err, ErrInfeasible) {
							return
						}
						require.NoError(t, err)
						stops := got.Plan.StopCount()
						if prevStops >= 0 {
							assert.LessOrEqual(t, stops, prevStops, "pit loss %d", pit)
						}
						prevStops = stops
					}
				})
			}
		}
	}
}
