// Package chat implements the interactive "/f1" command loop on top of a
// Backend. The conversation carries its own session id and history.
package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/mcp"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/report"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/service"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
)

const (
	MaxHistory = 8

	usageF1       = "Usage: /f1 [tools|calendar|race|plan|explain|report] ..."
	usageCalendar = "Usage: /f1 calendar <season>"
	usageRace     = "Usage: /f1 race <race_id>"
	usagePlan     = "Usage: /f1 plan <race_id> <base> <degS> <degM> <degH> <minStint> <maxStint> <maxStops>"
	usageReport   = "Usage: /f1 report <file.pdf>"
	unknownInput  = "Unknown input. " + usageF1
)

type (
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	// History keeps the most recent MaxHistory messages.
	History struct {
		items []Message
	}
	Option       func(*Conversation)
	Conversation struct {
		backend   Backend
		sessionID string
		history   History
		recorder  service.Recorder
		log       *log.Logger
	}
)

func (h *History) Push(role, content string) {
	h.items = append(h.items, Message{Role: role, Content: content})
	if len(h.items) > MaxHistory {
		h.items = h.items[len(h.items)-MaxHistory:]
	}
}

func (h *History) Items() []Message {
	return append([]Message(nil), h.items...)
}

func WithRecorder(r service.Recorder) Option {
	return func(c *Conversation) {
		c.recorder = r
	}
}

func WithSessionID(id string) Option {
	return func(c *Conversation) {
		c.sessionID = id
	}
}

func NewConversation(b Backend, opts ...Option) *Conversation {
	ret := &Conversation{
		backend:   b,
		sessionID: session.NewID(),
		log:       log.Default().Named("chat"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (c *Conversation) SessionID() string { return c.sessionID }

func (c *Conversation) History() []Message { return c.history.Items() }

// Run reads lines from in until EOF or exit/quit.
func (c *Conversation) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "psm chat (type 'exit' to quit)")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		reply, quit := c.Handle(ctx, scanner.Text())
		if quit {
			return nil
		}
		if reply != "" {
			fmt.Fprintln(out, reply)
		}
	}
}

// Handle processes a single input line. quit is set for exit/quit.
func (c *Conversation) Handle(ctx context.Context, line string) (reply string, quit bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return "", false
	case lo.Contains([]string{"exit", "quit"}, strings.ToLower(line)):
		return "", true
	case strings.HasPrefix(line, "/f1"):
		return c.handleF1(ctx, line), false
	}
	c.history.Push("user", line)
	c.history.Push("assistant", unknownInput)
	c.record("chat_input", log.String("request", line), log.String("response", unknownInput))
	return unknownInput, false
}

//nolint:cyclop // one case per command
func (c *Conversation) handleF1(ctx context.Context, line string) string {
	parts := strings.Fields(line)
	if len(parts) < 2 || parts[0] != "/f1" {
		return usageF1
	}
	c.history.Push("user", line)
	switch strings.ToLower(parts[1]) {
	case "tools":
		tools, err := c.backend.Tools(ctx)
		if err != nil {
			return errorReply(err)
		}
		return "TOOLS: " + strings.Join(tools, ", ")
	case "calendar":
		if len(parts) != 3 {
			return usageCalendar
		}
		season, err := strconv.Atoi(parts[2])
		if err != nil {
			return usageCalendar
		}
		return c.call(ctx, mcp.ToolGetCalendar, map[string]any{"season": season})
	case "race":
		if len(parts) != 3 {
			return usageRace
		}
		return c.call(ctx, mcp.ToolGetRace, map[string]any{"race_id": parts[2]})
	case "plan":
		args, err := c.planArgs(parts)
		if err != nil {
			return usagePlan
		}
		out := c.call(ctx, mcp.ToolRecommendStrategy, args)
		if summary := summarize(out); summary != "" {
			c.history.Push("assistant", summary)
		}
		return out
	case "explain":
		return c.call(ctx, mcp.ToolExplainStrategy, map[string]any{"session_id": c.sessionID})
	case "report":
		if len(parts) != 3 {
			return usageReport
		}
		return c.writeReport(ctx, parts[2])
	default:
		return "Unknown /f1 command."
	}
}

func (c *Conversation) planArgs(parts []string) (map[string]any, error) {
	if len(parts) != 10 {
		return nil, fmt.Errorf("expected 10 fields, got %d", len(parts))
	}
	floats := make([]float64, 4)
	for i := range floats {
		v, err := strconv.ParseFloat(parts[3+i], 64)
		if err != nil {
			return nil, err
		}
		floats[i] = v
	}
	ints := make([]int, 3)
	for i := range ints {
		v, err := strconv.Atoi(parts[7+i])
		if err != nil {
			return nil, err
		}
		ints[i] = v
	}
	return map[string]any{
		"race_id":        parts[2],
		"base_laptime_s": floats[0],
		"deg_soft_s":     floats[1],
		"deg_medium_s":   floats[2],
		"deg_hard_s":     floats[3],
		"min_stint_laps": ints[0],
		"max_stint_laps": ints[1],
		"max_stops":      ints[2],
		"session_id":     c.sessionID,
	}, nil
}

func (c *Conversation) call(ctx context.Context, tool string, args map[string]any) string {
	out, err := c.backend.Call(ctx, tool, args)
	if err != nil {
		c.log.Debug("tool call failed", log.String("tool", tool), log.ErrorField(err))
		out = errorReply(err)
	}
	c.record("tool_call",
		log.String("tool", tool), log.Any("args", args), log.String("response", out))
	return out
}

func (c *Conversation) writeReport(ctx context.Context, path string) string {
	out := c.call(ctx, mcp.ToolExplainStrategy, map[string]any{"session_id": c.sessionID})
	if !gjson.Get(out, "ok").Bool() {
		if msg := gjson.Get(out, "error"); msg.Exists() {
			return errorReply(fmt.Errorf("%s", msg.String()))
		}
		return out
	}
	var res service.ExplainResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		return errorReply(err)
	}
	if err := report.WriteFile(path, res.Plan); err != nil {
		return errorReply(err)
	}
	return "Report written to " + path
}

func (c *Conversation) record(event string, fields ...log.Field) {
	if c.recorder != nil {
		c.recorder.Record(event, append(fields, log.String("session", c.sessionID))...)
	}
}

// summarize creates a one line description of a recommend_strategy result.
func summarize(out string) string {
	if !gjson.Valid(out) || !gjson.Get(out, "ok").Bool() {
		return ""
	}
	items := lo.Map(gjson.Get(out, "strategy").Array(),
		func(r gjson.Result, _ int) string { return r.String() })
	return fmt.Sprintf("%s: %s (%.3fs)",
		gjson.Get(out, "race_id").String(),
		strings.Join(items, ", "),
		gjson.Get(out, "predicted_total_s").Float())
}

func errorReply(err error) string {
	return "Error: " + err.Error()
}
