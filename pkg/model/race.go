package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrRaceNotFound is returned by every race lookup, in memory or in the
// database.
var ErrRaceNotFound = errors.New("race_id not found")

type CompoundKind string

const (
	CompoundSoft   CompoundKind = "SOFT"
	CompoundMedium CompoundKind = "MEDIUM"
	CompoundHard   CompoundKind = "HARD"
)

// KnownCompounds lists the compounds accepted by ParseCompound.
// Additional tire classes can be appended here without touching the solver.
var KnownCompounds = []CompoundKind{CompoundSoft, CompoundMedium, CompoundHard}

func ParseCompound(s string) (CompoundKind, error) {
	c := CompoundKind(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(KnownCompounds, c) {
		return c, nil
	}
	return "", fmt.Errorf("unknown compound %q", s)
}

func (c CompoundKind) String() string { return string(c) }

// DegradationProfile holds the extra seconds per lap already run on a compound.
type DegradationProfile map[CompoundKind]float64

// Rate returns the degradation for c. Compounds missing in the profile
// do not degrade.
func (p DegradationProfile) Rate(c CompoundKind) float64 {
	return p[c]
}

// Race is static reference data. Values are never mutated after the catalog
// has been built.
//
//nolint:tagliatelle // field names are part of the external contract
type Race struct {
	RaceID         string         `json:"race_id"    yaml:"race_id"`
	Season         int            `json:"season"     yaml:"season"`
	Name           string         `json:"name"       yaml:"name"`
	TotalLaps      int            `json:"laps"       yaml:"laps"`
	PitLossSeconds float64        `json:"pit_loss_s" yaml:"pit_loss_s"`
	Compounds      []CompoundKind `json:"compounds"  yaml:"compounds"`
}

// Clone returns a deep copy so callers can't reach into catalog storage.
func (r *Race) Clone() *Race {
	ret := *r
	ret.Compounds = slices.Clone(r.Compounds)
	return &ret
}

// Validate checks the structural properties every catalog entry must satisfy.
func (r *Race) Validate() error {
	if r.RaceID == "" {
		return fmt.Errorf("race without race_id")
	}
	if r.TotalLaps <= 0 {
		return fmt.Errorf("race %s: laps must be positive, got %d", r.RaceID, r.TotalLaps)
	}
	if r.PitLossSeconds < 0 {
		return fmt.Errorf("race %s: pit_loss_s must not be negative", r.RaceID)
	}
	if len(r.Compounds) == 0 {
		return fmt.Errorf("race %s: no compounds", r.RaceID)
	}
	seen := make(map[CompoundKind]bool, len(r.Compounds))
	for _, c := range r.Compounds {
		if _, err := ParseCompound(string(c)); err != nil {
			return fmt.Errorf("race %s: %w", r.RaceID, err)
		}
		if seen[c] {
			return fmt.Errorf("race %s: duplicate compound %s", r.RaceID, c)
		}
		seen[c] = true
	}
	return nil
}
