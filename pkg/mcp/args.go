package mcp

import (
	"fmt"

	"github.com/aarondl/opt/omit"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/service"
)

// recommendRequest reads the tool arguments. Optional arguments stay unset
// when they are missing.
func recommendRequest(req mcpgo.CallToolRequest) (*service.RecommendRequest, error) {
	var err error
	ret := &service.RecommendRequest{}
	if ret.RaceID, err = req.RequireString("race_id"); err != nil {
		return nil, err
	}
	floats := []struct {
		name   string
		target *float64
	}{
		{"base_laptime_s", &ret.BaseLaptimeS},
		{"deg_soft_s", &ret.DegSoftS},
		{"deg_medium_s", &ret.DegMediumS},
		{"deg_hard_s", &ret.DegHardS},
	}
	for _, f := range floats {
		if *f.target, err = req.RequireFloat(f.name); err != nil {
			return nil, err
		}
	}
	if ret.MinStintLaps, err = req.RequireInt("min_stint_laps"); err != nil {
		return nil, err
	}
	if ret.MaxStintLaps, err = req.RequireInt("max_stint_laps"); err != nil {
		return nil, err
	}

	args := req.GetArguments()
	if v, ok := args["max_stops"]; ok && v != nil {
		n, err := req.RequireInt("max_stops")
		if err != nil {
			return nil, err
		}
		ret.MaxStops = omit.From(n)
	}
	if v, ok := args["enforce_two_compound_rule"]; ok && v != nil {
		b, isBool := v.(bool)
		if !isBool {
			return nil, fmt.Errorf("argument %q is not a boolean", "enforce_two_compound_rule")
		}
		ret.EnforceTwoCompoundRule = omit.From(b)
	}
	ret.SessionID = req.GetString("session_id", "")
	return ret, nil
}
