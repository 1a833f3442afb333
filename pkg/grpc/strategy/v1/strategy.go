// Package strategyv1 defines the messages and procedures of the
// psm.strategy.v1.StrategyService connect service.
package strategyv1

import (
	"github.com/aarondl/opt/omit"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/service"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/strategy"
)

//nolint:tagliatelle // external contract
type (
	GetCalendarRequest struct {
		Season int `json:"season"`
	}
	GetCalendarResponse = service.CalendarResult

	GetRaceRequest struct {
		RaceID string `json:"race_id"`
	}
	GetRaceResponse = service.RaceResult

	// RecommendStrategyRequest uses pointers for the optional fields.
	RecommendStrategyRequest struct {
		RaceID                 string  `json:"race_id"`
		BaseLaptimeS           float64 `json:"base_laptime_s"`
		DegSoftS               float64 `json:"deg_soft_s"`
		DegMediumS             float64 `json:"deg_medium_s"`
		DegHardS               float64 `json:"deg_hard_s"`
		MinStintLaps           int     `json:"min_stint_laps"`
		MaxStintLaps           int     `json:"max_stint_laps"`
		MaxStops               *int    `json:"max_stops,omitempty"`
		EnforceTwoCompoundRule *bool   `json:"enforce_two_compound_rule,omitempty"`
	}
	RecommendStrategyResponse = strategy.Result

	// ExplainStrategyRequest falls back to the session id header when
	// SessionID is empty.
	ExplainStrategyRequest struct {
		SessionID string `json:"session_id,omitempty"`
	}
	ExplainStrategyResponse = service.ExplainResult
)

// ToService converts the wire request. sessionID is attached to the result so
// a later ExplainStrategy call can find it.
func (r *RecommendStrategyRequest) ToService(sessionID string) *service.RecommendRequest {
	ret := &service.RecommendRequest{
		RaceID:       r.RaceID,
		BaseLaptimeS: r.BaseLaptimeS,
		DegSoftS:     r.DegSoftS,
		DegMediumS:   r.DegMediumS,
		DegHardS:     r.DegHardS,
		MinStintLaps: r.MinStintLaps,
		MaxStintLaps: r.MaxStintLaps,
		SessionID:    sessionID,
	}
	if r.MaxStops != nil {
		ret.MaxStops = omit.From(*r.MaxStops)
	}
	if r.EnforceTwoCompoundRule != nil {
		ret.EnforceTwoCompoundRule = omit.From(*r.EnforceTwoCompoundRule)
	}
	return ret
}
