//nolint:funlen // table tests
package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/catalog"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/service"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session/memory"
)

func newTestToolSet(t *testing.T) *toolSet {
	t.Helper()
	c, err := catalog.New(catalog.BuiltinRaces()...)
	require.NoError(t, err)
	return newToolSet(service.NewStrategyService(c,
		service.WithSessionStore(memory.NewStore())))
}

func callRequest(name string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return text.Text
}

func mexicoArgs() map[string]any {
	return map[string]any{
		"race_id":        "demo_mexico_2024",
		"base_laptime_s": 80.0,
		"deg_soft_s":     0.12,
		"deg_medium_s":   0.08,
		"deg_hard_s":     0.05,
		"min_stint_laps": 10.0,
		"max_stint_laps": 30.0,
	}
}

func TestToolNames(t *testing.T) {
	assert.Equal(t,
		[]string{"get_calendar", "get_race", "recommend_strategy", "explain_strategy"},
		ToolNames())
}

func TestGetCalendar(t *testing.T) {
	ts := newTestToolSet(t)
	res, err := ts.getCalendar(context.Background(),
		callRequest(ToolGetCalendar, map[string]any{"season": 2024.0}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.JSONEq(t, `{"season":2024,"races":[
		{"race_id":"demo_mexico_2024","name":"Demo Mexico City GP","laps":57},
		{"race_id":"demo_monza_2024","name":"Demo Italian GP (Monza)","laps":53}]}`, text)
	assert.Contains(t, text, "\n  \"season\": 2024")
}

func TestGetRace(t *testing.T) {
	ts := newTestToolSet(t)
	res, err := ts.getRace(context.Background(),
		callRequest(ToolGetRace, map[string]any{"race_id": "unknown"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"error":"race_id not found"}`, resultText(t, res))

	res, err = ts.getRace(context.Background(), callRequest(ToolGetRace, map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestRecommendStrategy(t *testing.T) {
	ts := newTestToolSet(t)
	tests := []struct {
		name  string
		extra map[string]any
		check func(t *testing.T, got map[string]any)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, true, got["ok"])
				assert.Equal(t, []any{"MEDIUM: 14", "HARD: 21", "HARD: 22"}, got["strategy"])
				assert.InDelta(t, 4629.33, got["predicted_total_s"], 1e-9)
			},
		},
		{
			name:  "one stop",
			extra: map[string]any{"max_stops": 1.0},
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, []any{"MEDIUM: 27", "HARD: 30"}, got["strategy"])
			},
		},
		{
			name:  "infeasible",
			extra: map[string]any{"min_stint_laps": 30.0, "max_stint_laps": 30.0},
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, map[string]any{
					"ok": false, "error": "No feasible plan with given constraints.",
				}, got)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := mexicoArgs()
			for k, v := range tt.extra {
				args[k] = v
			}
			res, err := ts.recommendStrategy(context.Background(),
				callRequest(ToolRecommendStrategy, args))
			require.NoError(t, err)
			var got map[string]any
			require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
			tt.check(t, got)
		})
	}
}

func TestRecommendStrategyArgumentErrors(t *testing.T) {
	ts := newTestToolSet(t)
	args := mexicoArgs()
	delete(args, "deg_hard_s")
	res, err := ts.recommendStrategy(context.Background(), callRequest(ToolRecommendStrategy, args))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	args = mexicoArgs()
	args["enforce_two_compound_rule"] = "yes"
	res, err = ts.recommendStrategy(context.Background(), callRequest(ToolRecommendStrategy, args))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestExplainStrategy(t *testing.T) {
	ts := newTestToolSet(t)
	id := session.NewID()
	args := mexicoArgs()
	args["session_id"] = id
	_, err := ts.recommendStrategy(context.Background(), callRequest(ToolRecommendStrategy, args))
	require.NoError(t, err)

	res, err := ts.explainStrategy(context.Background(),
		callRequest(ToolExplainStrategy, map[string]any{"session_id": id}))
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, true, got["ok"])
	assert.Equal(t, "demo_mexico_2024", got["race_id"])
	assert.Len(t, got["parts"], 5)
}
