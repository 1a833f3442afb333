package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/strategy/v1/strategyv1connect"
	strategyv1 "github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/strategy/v1"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/mcp"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
	"github.com/mpapenbr/pitstop-strategy-manager/version"
)

var ErrUnknownTool = errors.New("unknown tool")

// Backend executes the strategy tools. Results are the JSON documents of the
// tools.
type Backend interface {
	Tools(ctx context.Context) ([]string, error)
	Call(ctx context.Context, tool string, args map[string]any) (string, error)
	Close() error
}

type mcpBackend struct {
	c *client.Client
}

// NewInProcessBackend talks to an MCP server within the same process.
func NewInProcessBackend(ctx context.Context, s *server.MCPServer) (Backend, error) {
	c, err := client.NewInProcessClient(s)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	return newMCPBackend(ctx, c)
}

// NewStdioBackend starts command as MCP server and talks to it via stdio.
func NewStdioBackend(ctx context.Context, command string, args ...string) (Backend, error) {
	c, err := client.NewStdioMCPClient(command, nil, args...)
	if err != nil {
		return nil, err
	}
	return newMCPBackend(ctx, c)
}

func newMCPBackend(ctx context.Context, c *client.Client) (Backend, error) {
	req := mcpgo.InitializeRequest{}
	req.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcpgo.Implementation{Name: "psm-chat", Version: version.Version}
	if _, err := c.Initialize(ctx, req); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}
	return &mcpBackend{c: c}, nil
}

func (b *mcpBackend) Tools(ctx context.Context) ([]string, error) {
	res, err := b.c.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	return lo.Map(res.Tools, func(t mcpgo.Tool, _ int) string { return t.Name }), nil
}

func (b *mcpBackend) Call(ctx context.Context, tool string, args map[string]any) (string, error) {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args
	res, err := b.c.CallTool(ctx, req)
	if err != nil {
		return "", err
	}
	texts := make([]string, 0, len(res.Content))
	for _, c := range res.Content {
		if text, ok := c.(mcpgo.TextContent); ok {
			texts = append(texts, text.Text)
		}
	}
	out := strings.TrimSpace(strings.Join(texts, "\n"))
	if res.IsError {
		return "", errors.New(out)
	}
	return out, nil
}

func (b *mcpBackend) Close() error { return b.c.Close() }

type rpcBackend struct {
	c strategyv1connect.StrategyServiceClient
}

// NewRPCBackend uses a running psm server.
func NewRPCBackend(c strategyv1connect.StrategyServiceClient) Backend {
	return &rpcBackend{c: c}
}

func (b *rpcBackend) Tools(context.Context) ([]string, error) {
	return mcp.ToolNames(), nil
}

//nolint:cyclop // one case per tool
func (b *rpcBackend) Call(ctx context.Context, tool string, args map[string]any) (string, error) {
	var res any
	var err error
	switch tool {
	case mcp.ToolGetCalendar:
		var resp *connect.Response[strategyv1.GetCalendarResponse]
		resp, err = b.c.GetCalendar(ctx, connect.NewRequest(&strategyv1.GetCalendarRequest{
			Season: asInt(args["season"]),
		}))
		if err == nil {
			res = resp.Msg
		}
	case mcp.ToolGetRace:
		var resp *connect.Response[strategyv1.GetRaceResponse]
		resp, err = b.c.GetRace(ctx, connect.NewRequest(&strategyv1.GetRaceRequest{
			RaceID: fmt.Sprint(args["race_id"]),
		}))
		if err == nil {
			res = resp.Msg
		}
	case mcp.ToolRecommendStrategy:
		var req strategyv1.RecommendStrategyRequest
		if err = remarshal(args, &req); err != nil {
			return "", err
		}
		if id, ok := args["session_id"].(string); ok {
			ctx = session.AddIDToContext(ctx, id)
		}
		var resp *connect.Response[strategyv1.RecommendStrategyResponse]
		resp, err = b.c.RecommendStrategy(ctx, connect.NewRequest(&req))
		if err == nil {
			res = resp.Msg
		}
	case mcp.ToolExplainStrategy:
		var resp *connect.Response[strategyv1.ExplainStrategyResponse]
		resp, err = b.c.ExplainStrategy(ctx, connect.NewRequest(&strategyv1.ExplainStrategyRequest{
			SessionID: fmt.Sprint(args["session_id"]),
		}))
		if err == nil {
			res = resp.Msg
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, tool)
	}
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(res, "", "  ")
	return string(data), err
}

func (b *rpcBackend) Close() error { return nil }

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

// remarshal copies the tool arguments into a request struct.
func remarshal(args map[string]any, target any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
