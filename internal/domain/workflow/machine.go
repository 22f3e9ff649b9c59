package workflow

import (
	"context"
	"fmt"
)

// StateMachine tracks a current aggregate state and validates transitions
// against the configured transition table.
type StateMachine interface {
	// State returns the current state.
	State() State

	// CanFire returns true if the trigger is permitted in the current
	// state and at least one of its guard conditions passes.
	CanFire(ctx context.Context, trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new
	// state if allowed.
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can currently be fired.
	PermittedTriggers(ctx context.Context) []Trigger
}

type stateMachine struct {
	current     State
	transitions map[State]map[Trigger][]transition
}

// State returns the current state.
func (m *stateMachine) State() State {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current state.
func (m *stateMachine) CanFire(ctx context.Context, trigger Trigger) bool {
	for _, t := range m.transitions[m.current][trigger] {
		if t.guard == nil || t.guard(ctx) {
			return true
		}
	}
	return false
}

// Fire attempts to execute the trigger, transitioning if allowed.
func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	candidates, ok := m.transitions[m.current][trigger]
	if !ok || len(candidates) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	// Transitions are tried in configuration order; the first passing
	// guard wins.
	for _, t := range candidates {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.target
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers returns all triggers that can currently be fired.
func (m *stateMachine) PermittedTriggers(ctx context.Context) []Trigger {
	var permitted []Trigger
	for trigger := range m.transitions[m.current] {
		if m.CanFire(ctx, trigger) {
			permitted = append(permitted, trigger)
		}
	}
	return permitted
}
