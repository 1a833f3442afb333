// Package mcp exposes the strategy operations as MCP tools.
package mcp

import (
	"context"
	"encoding/json"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/service"
	"github.com/mpapenbr/pitstop-strategy-manager/version"
)

const ServerName = "psm"

const (
	ToolGetCalendar       = "get_calendar"
	ToolGetRace           = "get_race"
	ToolRecommendStrategy = "recommend_strategy"
	ToolExplainStrategy   = "explain_strategy"
)

type (
	toolHandler func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error)
	tool        struct {
		def    mcpgo.Tool
		handle toolHandler
	}
	toolSet struct {
		svc *service.StrategyService
		log *log.Logger
	}
)

// NewServer creates an MCP server with all strategy tools registered.
func NewServer(svc *service.StrategyService) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, t := range newToolSet(svc).tools() {
		s.AddTool(t.def, server.ToolHandlerFunc(t.handle))
	}
	return s
}

// ToolNames lists the registered tools in registration order.
func ToolNames() []string {
	return lo.Map(newToolSet(nil).tools(), func(t tool, _ int) string { return t.def.Name })
}

func newToolSet(svc *service.StrategyService) *toolSet {
	return &toolSet{svc: svc, log: log.Default().Named("mcp")}
}

func (ts *toolSet) tools() []tool {
	return []tool{
		{
			def: mcpgo.NewTool(ToolGetCalendar,
				mcpgo.WithDescription("Lists the races of a season"),
				mcpgo.WithNumber("season", mcpgo.Required(),
					mcpgo.Description("season, for example 2024")),
			),
			handle: ts.getCalendar,
		},
		{
			def: mcpgo.NewTool(ToolGetRace,
				mcpgo.WithDescription("Returns the details of a race"),
				mcpgo.WithString("race_id", mcpgo.Required(),
					mcpgo.Description("id of the race, see get_calendar")),
			),
			handle: ts.getRace,
		},
		{
			def: mcpgo.NewTool(ToolRecommendStrategy,
				mcpgo.WithDescription(
					"Computes the tire strategy with the lowest predicted race time"),
				mcpgo.WithString("race_id", mcpgo.Required()),
				mcpgo.WithNumber("base_laptime_s", mcpgo.Required(),
					mcpgo.Description("lap time on fresh tires in seconds")),
				mcpgo.WithNumber("deg_soft_s", mcpgo.Required(),
					mcpgo.Description("time loss per lap already run on SOFT")),
				mcpgo.WithNumber("deg_medium_s", mcpgo.Required(),
					mcpgo.Description("time loss per lap already run on MEDIUM")),
				mcpgo.WithNumber("deg_hard_s", mcpgo.Required(),
					mcpgo.Description("time loss per lap already run on HARD")),
				mcpgo.WithNumber("min_stint_laps", mcpgo.Required()),
				mcpgo.WithNumber("max_stint_laps", mcpgo.Required()),
				mcpgo.WithNumber("max_stops", mcpgo.DefaultNumber(2)),
				mcpgo.WithBoolean("enforce_two_compound_rule",
					mcpgo.Description("require two different compounds (default true)")),
				mcpgo.WithString("session_id",
					mcpgo.Description("keeps the result for explain_strategy")),
			),
			handle: ts.recommendStrategy,
		},
		{
			def: mcpgo.NewTool(ToolExplainStrategy,
				mcpgo.WithDescription(
					"Explains the last strategy computed within a session"),
				mcpgo.WithString("session_id", mcpgo.Required()),
			),
			handle: ts.explainStrategy,
		},
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (ts *toolSet) getCalendar(
	ctx context.Context, req mcpgo.CallToolRequest,
) (*mcpgo.CallToolResult, error) {
	season, err := req.RequireInt("season")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return textResult(ts.svc.Calendar(ctx, season))
}

//nolint:whitespace // can't make both editor and linter happy
func (ts *toolSet) getRace(
	ctx context.Context, req mcpgo.CallToolRequest,
) (*mcpgo.CallToolResult, error) {
	raceID, err := req.RequireString("race_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return textResult(ts.svc.Race(ctx, raceID))
}

//nolint:whitespace // can't make both editor and linter happy
func (ts *toolSet) recommendStrategy(
	ctx context.Context, req mcpgo.CallToolRequest,
) (*mcpgo.CallToolResult, error) {
	r, err := recommendRequest(req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	ts.log.Debug("recommend", log.String("race_id", r.RaceID))
	return textResult(ts.svc.Recommend(ctx, r))
}

//nolint:whitespace // can't make both editor and linter happy
func (ts *toolSet) explainStrategy(
	ctx context.Context, req mcpgo.CallToolRequest,
) (*mcpgo.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return textResult(ts.svc.Explain(ctx, sessionID))
}

func textResult(v any) (*mcpgo.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcpgo.NewToolResultText(string(data)), nil
}
