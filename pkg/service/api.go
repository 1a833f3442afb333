package service

import (
	"encoding/json"

	"github.com/aarondl/opt/omit"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/strategy"
)

type (
	// RecommendRequest holds the inputs of recommend_strategy. MaxStops and
	// EnforceTwoCompoundRule fall back to their defaults when unset.
	RecommendRequest struct {
		RaceID                 string
		BaseLaptimeS           float64
		DegSoftS               float64
		DegMediumS             float64
		DegHardS               float64
		MinStintLaps           int
		MaxStintLaps           int
		MaxStops               omit.Val[int]
		EnforceTwoCompoundRule omit.Val[bool]
		// SessionID stores the result for later explanations when set.
		SessionID string
	}

	//nolint:tagliatelle // external contract
	CalendarEntry struct {
		RaceID string `json:"race_id"`
		Name   string `json:"name"`
		Laps   int    `json:"laps"`
	}
	CalendarResult struct {
		Season int             `json:"season"`
		Races  []CalendarEntry `json:"races"`
	}

	RaceResult struct {
		OK        bool
		RaceID    string
		Name      string
		Season    int
		Laps      int
		PitLossS  float64
		Compounds []string
		Error     string
	}

	ExplainResult struct {
		OK    bool
		Plan  *session.Plan
		Error string
	}
)

//nolint:tagliatelle // external contract
type (
	raceShape struct {
		OK        bool     `json:"ok"`
		RaceID    string   `json:"race_id"`
		Name      string   `json:"name"`
		Season    int      `json:"season"`
		Laps      int      `json:"laps"`
		PitLossS  float64  `json:"pit_loss_s"`
		Compounds []string `json:"compounds"`
		Error     string   `json:"error,omitempty"`
	}
	explainShape struct {
		OK      bool                `json:"ok"`
		RaceID  string              `json:"race_id"`
		Request session.PlanRequest `json:"request"`
		Result  *strategy.Result    `json:"result"`
		Parts   []strategy.PartView `json:"parts"`
	}
	failureShape struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
)

func (r RaceResult) MarshalJSON() ([]byte, error) {
	if !r.OK {
		return json.Marshal(failureShape{Error: r.Error})
	}
	compounds := r.Compounds
	if compounds == nil {
		compounds = []string{}
	}
	return json.Marshal(raceShape{
		OK:        true,
		RaceID:    r.RaceID,
		Name:      r.Name,
		Season:    r.Season,
		Laps:      r.Laps,
		PitLossS:  r.PitLossS,
		Compounds: compounds,
	})
}

func (r *RaceResult) UnmarshalJSON(data []byte) error {
	var s raceShape
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = RaceResult{
		OK:        s.OK,
		RaceID:    s.RaceID,
		Name:      s.Name,
		Season:    s.Season,
		Laps:      s.Laps,
		PitLossS:  s.PitLossS,
		Compounds: s.Compounds,
		Error:     s.Error,
	}
	return nil
}

func (r ExplainResult) MarshalJSON() ([]byte, error) {
	if !r.OK || r.Plan == nil {
		return json.Marshal(failureShape{Error: r.Error})
	}
	parts := r.Plan.Parts
	if parts == nil {
		parts = []strategy.PartView{}
	}
	return json.Marshal(explainShape{
		OK:      true,
		RaceID:  r.Plan.RaceID,
		Request: r.Plan.Request,
		Result:  r.Plan.Result,
		Parts:   parts,
	})
}

func (r *ExplainResult) UnmarshalJSON(data []byte) error {
	var s struct {
		explainShape
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ExplainResult{OK: s.OK, Error: s.Error}
	if s.OK {
		r.Plan = &session.Plan{
			RaceID:  s.RaceID,
			Request: s.Request,
			Result:  s.Result,
			Parts:   s.Parts,
		}
	}
	return nil
}
