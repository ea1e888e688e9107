package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/rentfold/leaseflow/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// events converts domain.Transitions into looplab/fsm EventDesc format.
// The tenancy lifecycle is status-driven rather than event-driven, so each
// destination status becomes one event ("to_<status>") whose sources are
// every status allowed to move there.
var events = buildEvents()

func buildEvents() []loopfsm.EventDesc {
	grouped := make(map[domain.Status][]string)

	for _, current := range domain.Statuses {
		for _, next := range domain.Transitions[current] {
			grouped[next] = append(grouped[next], string(current))
		}
	}

	out := make([]loopfsm.EventDesc, 0, len(grouped))
	for _, dst := range domain.Statuses {
		srcs, ok := grouped[dst]
		if !ok {
			continue
		}
		out = append(out, loopfsm.EventDesc{
			Name: eventName(dst),
			Src:  srcs,
			Dst:  string(dst),
		})
	}
	return out
}

func eventName(s domain.Status) string {
	return "to_" + string(s)
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the tenancy's current status. This is necessary because looplab/fsm is
// stateful (it tracks the current state internally).
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// Apply checks that moving from current to next is legal. It returns a
// domain.TransitionError when the move is not allowed, including for any
// unknown current or next status (fail closed).
func (v *Validator) Apply(ctx context.Context, current, next domain.Status) error {
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, eventName(next)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return &domain.TransitionError{
				Current: current,
				Next:    next,
			}
		}
		return err
	}

	return nil
}
