package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/model"
)

type yamlCatalog struct {
	Races []*model.Race `yaml:"races"`
}

// ParseYAML reads races from a document like
//
//	races:
//	  - race_id: demo_mexico_2024
//	    season: 2024
//	    name: Demo Mexico City GP
//	    laps: 57
//	    pit_loss_s: 20.0
//	    compounds: [SOFT, MEDIUM, HARD]
func ParseYAML(r io.Reader) ([]*model.Race, error) {
	var doc yamlCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return []*model.Race{}, nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for idx, race := range doc.Races {
		if race == nil {
			return nil, fmt.Errorf("parse catalog: race #%d: %w", idx, ErrEmptyRace)
		}
		for i, c := range race.Compounds {
			kind, err := model.ParseCompound(string(c))
			if err != nil {
				return nil, fmt.Errorf("race %s: %w", race.RaceID, err)
			}
			race.Compounds[i] = kind
		}
	}
	return doc.Races, nil
}

func LoadYAMLFile(path string) ([]*model.Race, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseYAML(f)
}
