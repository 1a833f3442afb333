package strategy

import (
	"fmt"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/model"
)

type (
	PartType int
	Part     interface {
		Type() PartType
		Output() string
	}
	StintPart interface {
		Part
		Laps() int
		LapStart() int
		LapEnd() int
		Compound() model.CompoundKind
		StintTime() float64
	}
	PitPart interface {
		Part
		Lap() int
		PitTime() float64
	}
)

const (
	PartTypeStint PartType = iota
	PartTypePit
)

func (t PartType) String() string {
	switch t {
	case PartTypeStint:
		return "stint"
	case PartTypePit:
		return "pit"
	default:
		return fmt.Sprintf("PartType(%d)", int(t))
	}
}

type (
	stintPart struct {
		laps      int
		lapStart  int
		lapEnd    int
		compound  model.CompoundKind
		stintTime float64
	}
	pitPart struct {
		lap     int
		pitTime float64
	}
)

// Parts lays out the strategy as alternating stints and pit stops.
// Lap numbers start at 1.
func (s *Strategy) Parts(pitLoss float64) []Part {
	ret := make([]Part, 0, 2*len(s.Plan))
	curLap := 1
	for i, laps := range s.Plan {
		ret = append(ret, &stintPart{
			laps:      laps,
			lapStart:  curLap,
			lapEnd:    curLap + laps - 1,
			compound:  s.Sequence[i],
			stintTime: s.StintBreakdownSeconds[i],
		})
		curLap += laps
		if i < len(s.Plan)-1 {
			ret = append(ret, &pitPart{lap: curLap - 1, pitTime: pitLoss})
		}
	}
	return ret
}

func (s stintPart) Type() PartType               { return PartTypeStint }
func (s stintPart) Laps() int                    { return s.laps }
func (s stintPart) LapStart() int                { return s.lapStart }
func (s stintPart) LapEnd() int                  { return s.lapEnd }
func (s stintPart) Compound() model.CompoundKind { return s.compound }
func (s stintPart) StintTime() float64           { return s.stintTime }

func (s stintPart) Output() string {
	return fmt.Sprintf("%d-%d (%d) %s: %.3fs", s.lapStart, s.lapEnd, s.laps, s.compound, s.stintTime)
}

func (p pitPart) Type() PartType   { return PartTypePit }
func (p pitPart) Lap() int         { return p.lap }
func (p pitPart) PitTime() float64 { return p.pitTime }

func (p pitPart) Output() string {
	return fmt.Sprintf("Pit after lap %d: %.3fs", p.lap, p.pitTime)
}
