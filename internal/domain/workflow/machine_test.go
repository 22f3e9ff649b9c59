package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePending, false},
		{StateDirector1Approved, false},
		{StateDirector2Approved, false},
		{StateFullyApproved, false},
		{StatePaid, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending", StatePending, true},
		{"paid", StatePaid, true},
		{"unknown", State("IN_REVIEW"), false},
		{"empty", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_BuildIsolation(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).Permit(TriggerApproveDirector1, StateDirector1Approved)

	first := builder.Build(StatePending)

	// Later configuration must not leak into machines already built.
	builder.Configure(StatePending).Permit(TriggerReject, StateRejected)
	second := builder.Build(StatePending)

	ctx := context.Background()
	if first.CanFire(ctx, TriggerReject) {
		t.Error("machine built before configuration change can fire the new trigger")
	}
	if !second.CanFire(ctx, TriggerReject) {
		t.Error("machine built after configuration change cannot fire the new trigger")
	}
}

func TestBuilder_PermitIfGuard(t *testing.T) {
	allowed := false
	builder := NewBuilder()
	builder.Configure(StateFullyApproved).PermitIf(TriggerCompletePayment, StatePaid, func(ctx context.Context) bool {
		return allowed
	})

	machine := builder.Build(StateFullyApproved)
	ctx := context.Background()

	if err := machine.Fire(ctx, TriggerCompletePayment); !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() with failing guard error = %v, want ErrGuardFailed", err)
	}
	if machine.State() != StateFullyApproved {
		t.Errorf("state changed despite failing guard: %v", machine.State())
	}

	allowed = true
	if err := machine.Fire(ctx, TriggerCompletePayment); err != nil {
		t.Errorf("Fire() with passing guard error = %v", err)
	}
	if machine.State() != StatePaid {
		t.Errorf("State() = %v, want %v", machine.State(), StatePaid)
	}
}

func TestReimbursementMachine_HappyPath(t *testing.T) {
	ctx := context.Background()
	machine := NewReimbursementMachine(StatePending)

	steps := []struct {
		trigger  Trigger
		expected State
	}{
		{TriggerApproveDirector1, StateDirector1Approved},
		{TriggerApproveDirector2, StateDirector2Approved},
		{TriggerApproveAccountant, StateFullyApproved},
		{TriggerCompletePayment, StatePaid},
	}

	for _, step := range steps {
		if err := machine.Fire(ctx, step.trigger); err != nil {
			t.Fatalf("Fire(%s) error = %v", step.trigger, err)
		}
		if machine.State() != step.expected {
			t.Fatalf("State() after %s = %v, want %v", step.trigger, machine.State(), step.expected)
		}
	}

	// Paid is terminal.
	if err := machine.Fire(ctx, TriggerReject); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire(reject) from PAID error = %v, want ErrInvalidTransition", err)
	}
}

func TestReimbursementMachine_OutOfSequence(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		state   State
		trigger Trigger
	}{
		{"director2 before director1", StatePending, TriggerApproveDirector2},
		{"accountant before director2", StateDirector1Approved, TriggerApproveAccountant},
		{"payment before full approval", StateDirector2Approved, TriggerCompletePayment},
		{"re-approve director1", StateDirector1Approved, TriggerApproveDirector1},
		{"reject after full approval", StateFullyApproved, TriggerReject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := NewReimbursementMachine(tt.state)
			if err := machine.Fire(ctx, tt.trigger); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire(%s) from %s error = %v, want ErrInvalidTransition", tt.trigger, tt.state, err)
			}
			if machine.State() != tt.state {
				t.Errorf("state changed on illegal transition: %v", machine.State())
			}
		})
	}
}

func TestReimbursementMachine_RejectFromAnyReviewStage(t *testing.T) {
	ctx := context.Background()

	for _, state := range []State{StatePending, StateDirector1Approved, StateDirector2Approved} {
		machine := NewReimbursementMachine(state)
		if err := machine.Fire(ctx, TriggerReject); err != nil {
			t.Errorf("Fire(reject) from %s error = %v", state, err)
		}
		if machine.State() != StateRejected {
			t.Errorf("State() = %v, want %v", machine.State(), StateRejected)
		}
	}
}

func TestMachine_PermittedTriggers(t *testing.T) {
	ctx := context.Background()
	machine := NewReimbursementMachine(StateDirector1Approved)

	permitted := machine.PermittedTriggers(ctx)
	want := map[Trigger]bool{
		TriggerApproveDirector2: true,
		TriggerReject:           true,
	}

	if len(permitted) != len(want) {
		t.Fatalf("PermittedTriggers() = %v, want %d triggers", permitted, len(want))
	}
	for _, trigger := range permitted {
		if !want[trigger] {
			t.Errorf("unexpected permitted trigger %s", trigger)
		}
	}
}
