package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/strategy"
)

// SessionIDHeader carries the caller chosen session id on RPC requests.
const SessionIDHeader = "Psm-Session-Id"

type (
	// PlanRequest echoes the resolved parameters of a recommendation.
	//
	//nolint:tagliatelle // external contract
	PlanRequest struct {
		RaceID                 string  `json:"race_id"`
		BaseLaptimeS           float64 `json:"base_laptime_s"`
		DegSoftS               float64 `json:"deg_soft_s"`
		DegMediumS             float64 `json:"deg_medium_s"`
		DegHardS               float64 `json:"deg_hard_s"`
		MinStintLaps           int     `json:"min_stint_laps"`
		MaxStintLaps           int     `json:"max_stint_laps"`
		MaxStops               int     `json:"max_stops"`
		EnforceTwoCompoundRule bool    `json:"enforce_two_compound_rule"`
	}
	// Plan is the last strategy computed within a session.
	Plan struct {
		RaceID  string              `json:"race_id"` //nolint:tagliatelle // external contract
		Request PlanRequest         `json:"request"`
		Result  *strategy.Result    `json:"result"`
		Parts   []strategy.PartView `json:"parts"`
	}
	Session struct {
		ID      string    `json:"id"`
		Plan    *Plan     `json:"plan,omitempty"`
		Updated time.Time `json:"updated"`
	}
	// Store keeps sessions for a limited time after their last update.
	Store interface {
		Get(ctx context.Context, id string) (*Session, error)
		Put(ctx context.Context, s *Session) error
		Delete(ctx context.Context, id string) error
	}
	sessionIDCtxKey struct{}
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidID       = errors.New("invalid session id")
)

func NewID() string {
	return uuid.NewString()
}

// ValidateID accepts session ids that are usable as a key in all stores.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

func IDFromContext(ctx context.Context) string {
	if val, ok := ctx.Value(sessionIDCtxKey{}).(string); ok {
		return val
	}
	return ""
}

func AddIDToContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDCtxKey{}, id)
}
