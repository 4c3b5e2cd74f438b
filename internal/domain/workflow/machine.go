package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc evaluates whether a transition should be allowed.
// A non-nil error rejects the transition and is reported to the caller of Fire.
type GuardFunc func(ctx context.Context) error

// Transition moves the machine From one state To another when Trigger fires.
// A nil Guard always passes.
type Transition struct {
	From    State
	Trigger Trigger
	To      State
	Guard   GuardFunc
}

// machine is a StateMachine driven by a fixed transition table
type machine struct {
	current State
	table   map[State]map[Trigger][]Transition
}

// New creates a machine in the initial state.
// Transitions sharing From and Trigger are tried in table order.
// Unknown states are programming errors and panic.
func New(initial State, transitions ...Transition) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}

	table := make(map[State]map[Trigger][]Transition)
	for _, t := range transitions {
		if !t.From.IsValid() || !t.To.IsValid() {
			panic(fmt.Sprintf("invalid transition %s -> %s on %s", t.From, t.To, t.Trigger))
		}
		if table[t.From] == nil {
			table[t.From] = make(map[Trigger][]Transition)
		}
		table[t.From][t.Trigger] = append(table[t.From][t.Trigger], t)
	}

	return &machine{current: initial, table: table}
}

func (m *machine) State() State {
	return m.current
}

// CanFire reports whether a transition exists; guards are not evaluated
func (m *machine) CanFire(trigger Trigger) bool {
	if m.current.IsTerminal() {
		return false
	}
	return len(m.table[m.current][trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	if m.current.IsTerminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, m.current)
	}

	candidates := m.table[m.current][trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	var lastErr error
	for _, t := range candidates {
		if t.Guard != nil {
			if err := t.Guard(ctx); err != nil {
				lastErr = err
				continue
			}
		}
		m.current = t.To
		return nil
	}

	return fmt.Errorf("%w: %s from %s: %w", ErrGuardFailed, trigger, m.current, lastErr)
}

// PermittedTriggers lists the triggers with a transition out of the current state, sorted
func (m *machine) PermittedTriggers() []Trigger {
	triggers := []Trigger{}
	if m.current.IsTerminal() {
		return triggers
	}
	for trigger, candidates := range m.table[m.current] {
		if len(candidates) > 0 {
			triggers = append(triggers, trigger)
		}
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
