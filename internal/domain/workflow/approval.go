package workflow

import (
	"fmt"
	"time"
)

// Stage identifies one of the three sequential reviewer gates a
// reimbursement passes through.
type Stage string

const (
	StageDirector1  Stage = "DIRECTOR1"
	StageDirector2  Stage = "DIRECTOR2"
	StageAccountant Stage = "ACCOUNTANT"
)

// stageOrder is the mandatory approval sequence. A stage may only be
// acted on once every earlier stage has been approved.
var stageOrder = []Stage{StageDirector1, StageDirector2, StageAccountant}

// IsValid returns true if the stage is one of the three reviewer gates.
func (s Stage) IsValid() bool {
	for _, stage := range stageOrder {
		if s == stage {
			return true
		}
	}
	return false
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// ApproveTrigger returns the aggregate-machine trigger corresponding to
// approving this stage.
func (s Stage) ApproveTrigger() Trigger {
	switch s {
	case StageDirector1:
		return TriggerApproveDirector1
	case StageDirector2:
		return TriggerApproveDirector2
	default:
		return TriggerApproveAccountant
	}
}

// StageStatus is the status of a single approval sub-stage.
type StageStatus string

const (
	StagePending  StageStatus = "PENDING"
	StageApproved StageStatus = "APPROVED"
	StageRejected StageStatus = "REJECTED"
)

// Resolved returns true once the stage has been approved or rejected.
// Resolved stages may never be re-opened.
func (s StageStatus) Resolved() bool {
	return s == StageApproved || s == StageRejected
}

// StageDecision records the outcome of one approval sub-stage.
type StageDecision struct {
	Status          StageStatus `json:"status"`
	ActorID         string      `json:"actor_id,omitempty"`
	DecidedAt       *time.Time  `json:"decided_at,omitempty"`
	Comments        string      `json:"comments,omitempty"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
}

// NewStageDecision returns the initial, pending decision for a stage.
func NewStageDecision() StageDecision {
	return StageDecision{Status: StagePending}
}

// Approvals holds the three independent approval sub-records of a
// reimbursement request.
type Approvals struct {
	Director1  StageDecision `json:"director1"`
	Director2  StageDecision `json:"director2"`
	Accountant StageDecision `json:"accountant"`
}

// NewApprovals returns the initial approval set with all stages pending.
func NewApprovals() Approvals {
	return Approvals{
		Director1:  NewStageDecision(),
		Director2:  NewStageDecision(),
		Accountant: NewStageDecision(),
	}
}

// Decision returns the decision recorded for the given stage.
func (a Approvals) Decision(stage Stage) StageDecision {
	switch stage {
	case StageDirector1:
		return a.Director1
	case StageDirector2:
		return a.Director2
	default:
		return a.Accountant
	}
}

func (a Approvals) withDecision(stage Stage, d StageDecision) Approvals {
	switch stage {
	case StageDirector1:
		a.Director1 = d
	case StageDirector2:
		a.Director2 = d
	default:
		a.Accountant = d
	}
	return a
}

// Aggregate derives the aggregate state from the three sub-stages and the
// payment flag. It is the single authoritative projection: any rejection
// short-circuits everything else, and payment only matters once all three
// stages are approved.
func (a Approvals) Aggregate(paid bool) State {
	switch {
	case a.Director1.Status == StageRejected,
		a.Director2.Status == StageRejected,
		a.Accountant.Status == StageRejected:
		return StateRejected
	case a.Accountant.Status == StageApproved:
		if paid {
			return StatePaid
		}
		return StateFullyApproved
	case a.Director2.Status == StageApproved:
		return StateDirector2Approved
	case a.Director1.Status == StageApproved:
		return StateDirector1Approved
	default:
		return StatePending
	}
}

// CanDecide reports whether the given stage may currently be approved or
// rejected. The sequencing invariant lives here: a stage is actionable
// only while it is pending, no stage has been rejected, and every earlier
// stage has been approved.
func (a Approvals) CanDecide(stage Stage) error {
	if !stage.IsValid() {
		return fmt.Errorf("%w: unknown approval stage %q", ErrInvalidState, stage)
	}
	if a.Aggregate(false) == StateRejected {
		return ErrRequestRejected
	}
	if a.Decision(stage).Status.Resolved() {
		return fmt.Errorf("%w: %s is %s", ErrStageResolved, stage, a.Decision(stage).Status)
	}
	for _, prior := range stageOrder {
		if prior == stage {
			break
		}
		if a.Decision(prior).Status != StageApproved {
			return fmt.Errorf("%w: %s must be approved before %s", ErrPriorStagePending, prior, stage)
		}
	}
	return nil
}

// Apply records a decision for the given stage, returning the updated
// approval set. The original set is never mutated; an illegal decision
// leaves it untouched and returns the reason.
func (a Approvals) Apply(stage Stage, d StageDecision) (Approvals, error) {
	if err := a.CanDecide(stage); err != nil {
		return a, err
	}
	switch d.Status {
	case StageApproved:
	case StageRejected:
		if d.RejectionReason == "" {
			return a, ErrMissingRejectionReason
		}
	default:
		return a, fmt.Errorf("%w: decision status must be %s or %s", ErrInvalidState, StageApproved, StageRejected)
	}
	return a.withDecision(stage, d), nil
}

// NewReimbursementMachine builds the aggregate state machine for a
// reimbursement request currently in the given state. The machine mirrors
// Aggregate: it exists so callers can ask which actions are legal before
// attempting them, while the persisted status always comes from Aggregate.
func NewReimbursementMachine(current State) StateMachine {
	b := NewBuilder()

	b.Configure(StatePending).
		Permit(TriggerApproveDirector1, StateDirector1Approved).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateDirector1Approved).
		Permit(TriggerApproveDirector2, StateDirector2Approved).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateDirector2Approved).
		Permit(TriggerApproveAccountant, StateFullyApproved).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateFullyApproved).
		Permit(TriggerCompletePayment, StatePaid)

	return b.Build(current)
}
