package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTenancyNotFound  = errors.New("tenancy not found")
	ErrPropertyNotFound = errors.New("property not found")
	ErrRoomNotFound     = errors.New("room not found")

	// ErrStatusConflict is returned when a conditional status write finds
	// the tenancy no longer in the status it was read at, i.e. a
	// concurrent transition won the race.
	ErrStatusConflict = errors.New("tenancy status changed concurrently")
)

// UnauthorizedError is returned when the acting user is not the landlord
// of the property owning the tenancy. It is raised before any transition
// validation and is never bypassed by the force flag.
type UnauthorizedError struct {
	ActorID   string
	TenancyID int64
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("actor %q is not the landlord of tenancy %d", e.ActorID, e.TenancyID)
}

// TransitionError is returned when a status change is not in the allowed
// transition set and force was not given. Callers distinguish it from the
// other failures to offer a force confirmation instead of a hard error.
type TransitionError struct {
	Current Status
	Next    Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition from %q to %q is not allowed", e.Current, e.Next)
}
