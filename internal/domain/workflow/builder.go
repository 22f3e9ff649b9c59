package workflow

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a configured transition may be taken.
type GuardFunc func(ctx context.Context) bool

// transition is a target state with an optional guard.
type transition struct {
	target State
	guard  GuardFunc
}

// StateMachineBuilder accumulates a transition table and builds machine
// instances from it. Built machines hold their own copy of the table, so
// a builder can be reused and later reconfiguration never affects
// machines already built.
type StateMachineBuilder interface {
	// Configure returns the configuration for the given source state.
	Configure(state State) StateConfiguration

	// Build creates a new state machine starting at the given state.
	Build(initialState State) StateMachine
}

// StateConfiguration configures outgoing transitions for one state.
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target state.
	Permit(trigger Trigger, target State) StateConfiguration

	// PermitIf allows the transition only when the guard passes.
	PermitIf(trigger Trigger, target State, guard GuardFunc) StateConfiguration
}

type builder struct {
	transitions map[State]map[Trigger][]transition
}

type stateConfig struct {
	builder *builder
	from    State
}

// NewBuilder creates an empty state machine builder.
func NewBuilder() StateMachineBuilder {
	return &builder{
		transitions: make(map[State]map[Trigger][]transition),
	}
}

// Configure returns the configuration for the given source state.
func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("workflow: invalid state %q", state))
	}
	if _, ok := b.transitions[state]; !ok {
		b.transitions[state] = make(map[Trigger][]transition)
	}
	return &stateConfig{builder: b, from: state}
}

// Build creates a new state machine starting at the given state.
func (b *builder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("workflow: invalid initial state %q", initialState))
	}

	table := make(map[State]map[Trigger][]transition, len(b.transitions))
	for from, byTrigger := range b.transitions {
		copied := make(map[Trigger][]transition, len(byTrigger))
		for trigger, ts := range byTrigger {
			copied[trigger] = append([]transition(nil), ts...)
		}
		table[from] = copied
	}

	return &stateMachine{
		current:     initialState,
		transitions: table,
	}
}

// Permit allows a trigger to transition to the target state.
func (c *stateConfig) Permit(trigger Trigger, target State) StateConfiguration {
	return c.PermitIf(trigger, target, nil)
}

// PermitIf allows the transition only when the guard passes.
func (c *stateConfig) PermitIf(trigger Trigger, target State, guard GuardFunc) StateConfiguration {
	if !target.IsValid() {
		panic(fmt.Sprintf("workflow: invalid target state %q", target))
	}
	byTrigger := c.builder.transitions[c.from]
	byTrigger[trigger] = append(byTrigger[trigger], transition{target: target, guard: guard})
	return c
}
