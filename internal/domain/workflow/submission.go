package workflow

import (
	"context"
	"errors"
)

var (
	// ErrInvalidTransition is returned when the trigger is not permitted from the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed wraps the guard error that kept a form in COLLECTING
	ErrGuardFailed = errors.New("guard condition failed")
)

// StateMachine tracks one form submission
type StateMachine interface {
	State() State
	CanFire(trigger Trigger) bool

	// Fire runs the guard of the first permitted transition and moves on when it passes.
	// On failure the machine stays where it was.
	Fire(ctx context.Context, trigger Trigger) error

	PermittedTriggers() []Trigger
}

// NewSubmission returns a machine for a single generation attempt.
// It starts in COLLECTING and moves to SUBMITTED on GENERATE only when guard passes.
func NewSubmission(guard GuardFunc) StateMachine {
	return New(StateCollecting, Transition{
		From:    StateCollecting,
		Trigger: TriggerGenerate,
		To:      StateSubmitted,
		Guard:   guard,
	})
}
