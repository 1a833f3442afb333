package strategy

import (
	"errors"
	"fmt"
)

var (
	ErrInfeasible   = errors.New("No feasible plan with given constraints.") //nolint:stylecheck,revive // external message
	ErrInvalidInput = errors.New("invalid input")
)

// InvalidInputError describes a structurally invalid request parameter.
// errors.Is(err, ErrInvalidInput) holds for every InvalidInputError.
type InvalidInputError struct {
	Param  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(param, format string, args ...any) error {
	return &InvalidInputError{Param: param, Reason: fmt.Sprintf(format, args...)}
}
