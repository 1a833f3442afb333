package catalog

import "github.com/mpapenbr/pitstop-strategy-manager/pkg/model"

var dryCompounds = []model.CompoundKind{
	model.CompoundSoft, model.CompoundMedium, model.CompoundHard,
}

// BuiltinRaces are the demo races available without any configured source.
func BuiltinRaces() []*model.Race {
	return []*model.Race{
		{
			RaceID: "demo_mexico_2024", Season: 2024, Name: "Demo Mexico City GP",
			TotalLaps: 57, PitLossSeconds: 20.0, Compounds: dryCompounds,
		},
		{
			RaceID: "demo_monza_2024", Season: 2024, Name: "Demo Italian GP (Monza)",
			TotalLaps: 53, PitLossSeconds: 18.5, Compounds: dryCompounds,
		},
	}
}
