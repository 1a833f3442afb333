package strategy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatStrategy(t *testing.T) {
	p := mexicoParams(10, 30, 2)
	st, err := NewOptimizer().Solve(mexico, p)
	require.NoError(t, err)

	got := FormatStrategy(mexico, p, st)
	assert.True(t, got.OK)
	assert.Equal(t, "demo_mexico_2024", got.RaceID)
	assert.Equal(t, []string{"MEDIUM: 14", "HARD: 21", "HARD: 22"}, got.Strategy)
	assert.Equal(t, []int{14, 35}, got.StopLaps)
	assert.Equal(t, 4629.33, got.PredictedTotalS)
	assert.Equal(t, []float64{1127.28, 1690.5, 1771.55}, got.StintBreakdownS)
	assert.Equal(t,
		"2 stop(s); pit_loss=20.0s; base=80.0s; deg={SOFT: 0.12, MEDIUM: 0.08, HARD: 0.05}",
		got.Notes)
}

func TestResult_MarshalJSON(t *testing.T) {
	t.Run("success without stops keeps empty arrays", func(t *testing.T) {
		r := Result{
			OK: true, RaceID: "r", Strategy: []string{"HARD: 10"},
			PredictedTotalS: 800, StintBreakdownS: []float64{800}, Notes: "0 stop(s)",
		}
		data, err := json.Marshal(r)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"ok": true, "race_id": "r", "strategy": ["HARD: 10"], "stop_laps": [],
			"predicted_total_s": 800, "stint_breakdown_s": [800], "notes": "0 stop(s)"
		}`, string(data))
	})
	t.Run("failure shape", func(t *testing.T) {
		data, err := json.Marshal(FormatError(ErrInfeasible))
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok": false, "error": "No feasible plan with given constraints."}`,
			string(data))
	})
	t.Run("roundtrip", func(t *testing.T) {
		p := mexicoParams(10, 30, 2)
		st, err := NewOptimizer().Solve(mexico, p)
		require.NoError(t, err)
		want := FormatStrategy(mexico, p, st)
		data, err := json.Marshal(want)
		require.NoError(t, err)
		var got Result
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, *want, got)
	})
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 1.235, Round3(1.2345))
	assert.Equal(t, 4629.33, Round3(4629.330000000001))
	assert.Equal(t, -2.5, Round3(-2.5))
}

func TestFormatNum(t *testing.T) {
	assert.Equal(t, "20.0", formatNum(20))
	assert.Equal(t, "18.5", formatNum(18.5))
	assert.Equal(t, "0.05", formatNum(0.05))
}

func TestStrategy_Parts(t *testing.T) {
	p := mexicoParams(10, 30, 2)
	st, err := NewOptimizer().Solve(mexico, p)
	require.NoError(t, err)
	parts := st.Parts(mexico.PitLossSeconds)
	require.Len(t, parts, 5)

	first, ok := parts[0].(StintPart)
	require.True(t, ok)
	assert.Equal(t, 1, first.LapStart())
	assert.Equal(t, 14, first.LapEnd())
	assert.Equal(t, m, first.Compound())

	pit, ok := parts[1].(PitPart)
	require.True(t, ok)
	assert.Equal(t, 14, pit.Lap())
	assert.InDelta(t, 20.0, pit.PitTime(), 1e-9)

	last, ok := parts[4].(StintPart)
	require.True(t, ok)
	assert.Equal(t, 36, last.LapStart())
	assert.Equal(t, 57, last.LapEnd())

	views := FormatParts(parts)
	assert.Equal(t, "stint", views[0].Type)
	assert.Equal(t, "pit", views[1].Type)
	assert.Equal(t, "1-14 (14) MEDIUM: 1127.280s", views[0].Output)
	assert.Equal(t, "Pit after lap 14: 20.000s", views[1].Output)
}
