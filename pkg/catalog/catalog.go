package catalog

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/model"
)

var (
	ErrRaceNotFound = model.ErrRaceNotFound
	ErrDuplicateID  = errors.New("duplicate race_id")
	ErrEmptyRace    = errors.New("race is empty")
)

// RaceCatalog provides read only access to the static race definitions.
type RaceCatalog interface {
	Lookup(raceID string) (*model.Race, error)
	Calendar(season int) []*model.Race
	Races() []*model.Race
}

// Catalog is an immutable RaceCatalog. The entries are copied on creation
// and on every read, so no caller can modify the stored races.
type Catalog struct {
	order []string
	races map[string]*model.Race
}

var _ RaceCatalog = (*Catalog)(nil)

func New(races ...*model.Race) (*Catalog, error) {
	ret := &Catalog{
		order: make([]string, 0, len(races)),
		races: make(map[string]*model.Race, len(races)),
	}
	for i, r := range races {
		if r == nil {
			return nil, fmt.Errorf("race #%d: %w", i, ErrEmptyRace)
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, ok := ret.races[r.RaceID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, r.RaceID)
		}
		ret.order = append(ret.order, r.RaceID)
		ret.races[r.RaceID] = r.Clone()
	}
	return ret, nil
}

func (c *Catalog) Lookup(raceID string) (*model.Race, error) {
	if r, ok := c.races[raceID]; ok {
		return r.Clone(), nil
	}
	return nil, ErrRaceNotFound
}

// Calendar returns the races of a season in catalog order.
func (c *Catalog) Calendar(season int) []*model.Race {
	return lo.Filter(c.Races(), func(r *model.Race, _ int) bool {
		return r.Season == season
	})
}

func (c *Catalog) Races() []*model.Race {
	return lo.Map(c.order, func(id string, _ int) *model.Race {
		return c.races[id].Clone()
	})
}

func (c *Catalog) Len() int { return len(c.order) }
