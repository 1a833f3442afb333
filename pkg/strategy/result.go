package strategy

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/model"
)

// Result is the stable output of a recommendation. Depending on OK it
// serializes either to the success or the failure shape.
type Result struct {
	OK              bool
	RaceID          string
	Strategy        []string
	StopLaps        []int
	PredictedTotalS float64
	StintBreakdownS []float64
	Notes           string
	Error           string
}

//nolint:tagliatelle // external contract
type (
	successShape struct {
		OK              bool      `json:"ok"`
		RaceID          string    `json:"race_id"`
		Strategy        []string  `json:"strategy"`
		StopLaps        []int     `json:"stop_laps"`
		PredictedTotalS float64   `json:"predicted_total_s"`
		StintBreakdownS []float64 `json:"stint_breakdown_s"`
		Notes           string    `json:"notes"`
	}
	failureShape struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	anyShape struct {
		successShape
		Error string `json:"error"`
	}
)

func (r Result) MarshalJSON() ([]byte, error) {
	if !r.OK {
		return json.Marshal(failureShape{OK: false, Error: r.Error})
	}
	return json.Marshal(successShape{
		OK:              true,
		RaceID:          r.RaceID,
		Strategy:        nonNil(r.Strategy),
		StopLaps:        nonNil(r.StopLaps),
		PredictedTotalS: r.PredictedTotalS,
		StintBreakdownS: nonNil(r.StintBreakdownS),
		Notes:           r.Notes,
	})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var s anyShape
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = Result{
		OK:              s.OK,
		RaceID:          s.RaceID,
		Strategy:        s.Strategy,
		StopLaps:        s.StopLaps,
		PredictedTotalS: s.PredictedTotalS,
		StintBreakdownS: s.StintBreakdownS,
		Notes:           s.Notes,
		Error:           s.Error,
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Round3 rounds to 3 decimal places, half away from zero.
func Round3(v float64) float64 {
	return decimal.NewFromFloat(v).Round(3).InexactFloat64()
}

// FormatStrategy maps a solved strategy to the success shape.
func FormatStrategy(race *model.Race, p Params, s *Strategy) *Result {
	items := make([]string, len(s.Plan))
	for i, laps := range s.Plan {
		items[i] = fmt.Sprintf("%s: %d", s.Sequence[i], laps)
	}
	return &Result{
		OK:              true,
		RaceID:          race.RaceID,
		Strategy:        items,
		StopLaps:        slices.Clone(s.StopLaps),
		PredictedTotalS: Round3(s.PredictedTotalSeconds),
		StintBreakdownS: lo.Map(s.StintBreakdownSeconds, func(v float64, _ int) float64 {
			return Round3(v)
		}),
		Notes: formatNotes(race, p, s),
	}
}

// FormatError maps a lookup, validation or search failure to the failure shape.
func FormatError(err error) *Result {
	return &Result{OK: false, Error: err.Error()}
}

func formatNotes(race *model.Race, p Params, s *Strategy) string {
	notes := fmt.Sprintf("%d stop(s); pit_loss=%ss; base=%ss; deg=%s",
		s.Plan.StopCount(),
		formatNum(race.PitLossSeconds),
		formatNum(p.BaseLaptime),
		formatProfile(race.Compounds, p.Degradation))
	if s.Truncated {
		notes += "; search truncated"
	}
	return notes
}

// formatProfile lists the race compounds first (in race order), then any
// other profile entries sorted by name.
func formatProfile(order []model.CompoundKind, profile model.DegradationProfile) string {
	keys := slices.Clone(order)
	extra := lo.Filter(lo.Keys(profile), func(c model.CompoundKind, _ int) bool {
		return !slices.Contains(order, c)
	})
	slices.Sort(extra)
	keys = append(keys, extra...)

	parts := make([]string, 0, len(keys))
	for _, c := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", c, formatNum(profile.Rate(c))))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatNum prints floats with at least one decimal place (20 -> 20.0).
func formatNum(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// PartView is the serializable form of a Part.
//
//nolint:tagliatelle // snake case like the other result fields
type PartView struct {
	Type      string  `json:"type"`
	LapStart  int     `json:"lap_start,omitempty"`
	LapEnd    int     `json:"lap_end,omitempty"`
	Laps      int     `json:"laps,omitempty"`
	Compound  string  `json:"compound,omitempty"`
	Lap       int     `json:"lap,omitempty"`
	DurationS float64 `json:"duration_s"`
	Output    string  `json:"output"`
}

func FormatParts(parts []Part) []PartView {
	ret := make([]PartView, 0, len(parts))
	for _, p := range parts {
		v := PartView{Type: p.Type().String(), Output: p.Output()}
		switch item := p.(type) {
		case StintPart:
			v.LapStart = item.LapStart()
			v.LapEnd = item.LapEnd()
			v.Laps = item.Laps()
			v.Compound = item.Compound().String()
			v.DurationS = Round3(item.StintTime())
		case PitPart:
			v.Lap = item.Lap()
			v.DurationS = Round3(item.PitTime())
		}
		ret = append(ret, v)
	}
	return ret
}
