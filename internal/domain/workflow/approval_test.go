package workflow

import (
	"errors"
	"testing"
	"time"
)

func approvedDecision(actor string) StageDecision {
	now := time.Now()
	return StageDecision{
		Status:    StageApproved,
		ActorID:   actor,
		DecidedAt: &now,
		Comments:  "looks fine",
	}
}

func rejectedDecision(actor, reason string) StageDecision {
	now := time.Now()
	return StageDecision{
		Status:          StageRejected,
		ActorID:         actor,
		DecidedAt:       &now,
		RejectionReason: reason,
	}
}

func TestApprovals_Aggregate(t *testing.T) {
	tests := []struct {
		name      string
		approvals Approvals
		paid      bool
		expected  State
	}{
		{
			name:      "all pending",
			approvals: NewApprovals(),
			expected:  StatePending,
		},
		{
			name: "director1 approved",
			approvals: Approvals{
				Director1:  StageDecision{Status: StageApproved},
				Director2:  StageDecision{Status: StagePending},
				Accountant: StageDecision{Status: StagePending},
			},
			expected: StateDirector1Approved,
		},
		{
			name: "two directors approved is not fully approved",
			approvals: Approvals{
				Director1:  StageDecision{Status: StageApproved},
				Director2:  StageDecision{Status: StageApproved},
				Accountant: StageDecision{Status: StagePending},
			},
			expected: StateDirector2Approved,
		},
		{
			name: "accountant approved",
			approvals: Approvals{
				Director1:  StageDecision{Status: StageApproved},
				Director2:  StageDecision{Status: StageApproved},
				Accountant: StageDecision{Status: StageApproved},
			},
			expected: StateFullyApproved,
		},
		{
			name: "fully approved and paid",
			approvals: Approvals{
				Director1:  StageDecision{Status: StageApproved},
				Director2:  StageDecision{Status: StageApproved},
				Accountant: StageDecision{Status: StageApproved},
			},
			paid:     true,
			expected: StatePaid,
		},
		{
			name: "rejection short-circuits later stages",
			approvals: Approvals{
				Director1:  StageDecision{Status: StageApproved},
				Director2:  StageDecision{Status: StageRejected},
				Accountant: StageDecision{Status: StagePending},
			},
			expected: StateRejected,
		},
		{
			name: "rejection wins over accountant approval",
			approvals: Approvals{
				Director1:  StageDecision{Status: StageRejected},
				Director2:  StageDecision{Status: StageApproved},
				Accountant: StageDecision{Status: StageApproved},
			},
			expected: StateRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.approvals.Aggregate(tt.paid); got != tt.expected {
				t.Errorf("Aggregate() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestApprovals_SequencingInvariant(t *testing.T) {
	a := NewApprovals()

	// Director2 cannot act before director1.
	if _, err := a.Apply(StageDirector2, approvedDecision("dir2")); !errors.Is(err, ErrPriorStagePending) {
		t.Errorf("Apply(director2 first) error = %v, want ErrPriorStagePending", err)
	}

	// Accountant cannot act before either director.
	if _, err := a.Apply(StageAccountant, approvedDecision("acct")); !errors.Is(err, ErrPriorStagePending) {
		t.Errorf("Apply(accountant first) error = %v, want ErrPriorStagePending", err)
	}

	a, err := a.Apply(StageDirector1, approvedDecision("dir1"))
	if err != nil {
		t.Fatalf("Apply(director1) error = %v", err)
	}

	// Accountant still blocked until director2 approves.
	if _, err := a.Apply(StageAccountant, approvedDecision("acct")); !errors.Is(err, ErrPriorStagePending) {
		t.Errorf("Apply(accountant after director1 only) error = %v, want ErrPriorStagePending", err)
	}

	a, err = a.Apply(StageDirector2, approvedDecision("dir2"))
	if err != nil {
		t.Fatalf("Apply(director2) error = %v", err)
	}

	a, err = a.Apply(StageAccountant, approvedDecision("acct"))
	if err != nil {
		t.Fatalf("Apply(accountant) error = %v", err)
	}

	if got := a.Aggregate(false); got != StateFullyApproved {
		t.Errorf("Aggregate() = %v, want %v", got, StateFullyApproved)
	}
}

func TestApprovals_StagesAreTerminal(t *testing.T) {
	a, err := NewApprovals().Apply(StageDirector1, approvedDecision("dir1"))
	if err != nil {
		t.Fatalf("Apply(director1) error = %v", err)
	}

	// Re-approving a resolved stage is illegal.
	if _, err := a.Apply(StageDirector1, approvedDecision("dir1")); !errors.Is(err, ErrStageResolved) {
		t.Errorf("re-approve error = %v, want ErrStageResolved", err)
	}

	// So is flipping it to rejected.
	if _, err := a.Apply(StageDirector1, rejectedDecision("dir1", "changed my mind")); !errors.Is(err, ErrStageResolved) {
		t.Errorf("approve-then-reject error = %v, want ErrStageResolved", err)
	}
}

func TestApprovals_RejectionBlocksEverything(t *testing.T) {
	a, err := NewApprovals().Apply(StageDirector1, approvedDecision("dir1"))
	if err != nil {
		t.Fatalf("Apply(director1) error = %v", err)
	}

	a, err = a.Apply(StageDirector2, rejectedDecision("dir2", "duplicate claim"))
	if err != nil {
		t.Fatalf("Apply(reject director2) error = %v", err)
	}

	if got := a.Aggregate(false); got != StateRejected {
		t.Errorf("Aggregate() = %v, want %v", got, StateRejected)
	}

	// No approval action on accountant is legal after a rejection.
	if _, err := a.Apply(StageAccountant, approvedDecision("acct")); !errors.Is(err, ErrRequestRejected) {
		t.Errorf("Apply(accountant after rejection) error = %v, want ErrRequestRejected", err)
	}
}

func TestApprovals_RejectionRequiresReason(t *testing.T) {
	d := rejectedDecision("dir1", "")

	if _, err := NewApprovals().Apply(StageDirector1, d); !errors.Is(err, ErrMissingRejectionReason) {
		t.Errorf("Apply(reject without reason) error = %v, want ErrMissingRejectionReason", err)
	}
}

func TestApprovals_ApplyDoesNotMutateOriginal(t *testing.T) {
	original := NewApprovals()

	updated, err := original.Apply(StageDirector1, approvedDecision("dir1"))
	if err != nil {
		t.Fatalf("Apply(director1) error = %v", err)
	}

	if original.Director1.Status != StagePending {
		t.Error("original approval set was mutated")
	}
	if updated.Director1.Status != StageApproved {
		t.Error("updated approval set missing the decision")
	}
}

func TestStage_ApproveTrigger(t *testing.T) {
	tests := []struct {
		stage    Stage
		expected Trigger
	}{
		{StageDirector1, TriggerApproveDirector1},
		{StageDirector2, TriggerApproveDirector2},
		{StageAccountant, TriggerApproveAccountant},
	}

	for _, tt := range tests {
		if got := tt.stage.ApproveTrigger(); got != tt.expected {
			t.Errorf("ApproveTrigger(%s) = %v, want %v", tt.stage, got, tt.expected)
		}
	}
}

func TestApprovals_InvalidDecisionStatus(t *testing.T) {
	d := StageDecision{Status: StagePending}

	if _, err := NewApprovals().Apply(StageDirector1, d); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Apply(pending decision) error = %v, want ErrInvalidState", err)
	}
}
