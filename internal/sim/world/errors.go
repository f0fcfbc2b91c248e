package world

import (
	"errors"
	"fmt"
)

// Configuration errors: order-issuing code handed the engine something it can never run.
var (
	ErrIneligibleUnit  = errors.New("unit cannot perform task")
	ErrInvalidTarget   = errors.New("invalid task target")
	ErrUnknownUnitType = errors.New("unknown unit type")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrCannotPlace     = errors.New("cannot place unit")
	ErrMissingDeposit  = errors.New("mine has no resource deposit")
	ErrInvalidTask     = errors.New("invalid task parameters")
)

// InvariantError reports corrupted map or unit state. The engine panics with it.
type InvariantError struct {
	Tick uint64
	Err  error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("tick %d: invariant violated: %v", e.Tick, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }
