package strategy

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestPartitionGenerator_Enumerate(t *testing.T) {
	tests := []struct {
		name string
		gen  PartitionGenerator
		want []StintPlan
	}{
		{
			name: "single stint exact",
			gen:  PartitionGenerator{TotalLaps: 30, MinLen: 30, MaxLen: 30, MaxStops: 0},
			want: []StintPlan{{30}},
		},
		{
			name: "stint count ascending, lengths ascending",
			gen:  PartitionGenerator{TotalLaps: 10, MinLen: 3, MaxLen: 5, MaxStops: 3},
			want: []StintPlan{{5, 5}, {3, 3, 4}, {3, 4, 3}, {4, 3, 3}},
		},
		{
			name: "not reachable",
			gen:  PartitionGenerator{TotalLaps: 57, MinLen: 30, MaxLen: 30, MaxStops: 0},
			want: []StintPlan{},
		},
		{
			name: "invalid bounds yield nothing",
			gen:  PartitionGenerator{TotalLaps: 10, MinLen: 5, MaxLen: 3, MaxStops: 2},
			want: []StintPlan{},
		},
		{
			name: "zero min length yields nothing",
			gen:  PartitionGenerator{TotalLaps: 10, MinLen: 0, MaxLen: 3, MaxStops: 2},
			want: []StintPlan{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.gen.Enumerate()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Enumerate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPartitionGenerator_mexico(t *testing.T) {
	gen := PartitionGenerator{TotalLaps: 57, MinLen: 10, MaxLen: 30, MaxStops: 2}
	plans := gen.Enumerate()
	assert.Len(t, plans, 326)
	assert.Equal(t, []StintPlan{{27, 30}, {28, 29}, {29, 28}, {30, 27}, {10, 17, 30}}, plans[:5])
	for _, p := range plans {
		sum := 0
		for _, l := range p {
			assert.GreaterOrEqual(t, l, 10)
			assert.LessOrEqual(t, l, 30)
			sum += l
		}
		assert.Equal(t, 57, sum)
		assert.LessOrEqual(t, p.StopCount(), 2)
	}
}

func TestPartitionGenerator_Walk_stop(t *testing.T) {
	gen := PartitionGenerator{TotalLaps: 10, MinLen: 3, MaxLen: 5, MaxStops: 3}
	seen := 0
	completed := gen.Walk(func(p StintPlan) bool {
		seen++
		return seen < 2
	})
	assert.False(t, completed)
	assert.Equal(t, 2, seen)
}

func TestPartitionGenerator_manyStints(t *testing.T) {
	// deep plans must not depend on recursion
	gen := PartitionGenerator{TotalLaps: 500, MinLen: 1, MaxLen: 1, MaxStops: 600}
	plans := gen.Enumerate()
	assert.Len(t, plans, 1)
	assert.Len(t, plans[0], 500)
}

func TestPartitionGenerator_hugeLimits(t *testing.T) {
	bounded := PartitionGenerator{TotalLaps: 12, MinLen: 3, MaxLen: 12, MaxStops: 3}.Enumerate()
	tests := []struct {
		name string
		gen  PartitionGenerator
	}{
		{"max len", PartitionGenerator{TotalLaps: 12, MinLen: 3, MaxLen: math.MaxInt, MaxStops: 3}},
		{"max stops", PartitionGenerator{TotalLaps: 12, MinLen: 3, MaxLen: 12, MaxStops: math.MaxInt}},
		{"both", PartitionGenerator{TotalLaps: 12, MinLen: 3, MaxLen: math.MaxInt, MaxStops: math.MaxInt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(bounded, tt.gen.Enumerate()); diff != "" {
				t.Errorf("Enumerate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
	assert.Len(t, bounded, 1+7+10+1)
}

func TestStintPlan_StopLaps(t *testing.T) {
	assert.Equal(t, []int{}, StintPlan{57}.StopLaps())
	assert.Equal(t, []int{14, 35}, StintPlan{14, 21, 22}.StopLaps())
	assert.Equal(t, []int{}, StintPlan{}.StopLaps())
}
