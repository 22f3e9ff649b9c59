package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a state transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid.
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when a guard condition fails.
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrStageResolved is returned when a sub-stage that has already been
	// approved or rejected is acted on again. Resolved stages are terminal.
	ErrStageResolved = errors.New("approval stage already resolved")

	// ErrPriorStagePending is returned when a stage is acted on before the
	// stage that precedes it in the approval sequence has been approved.
	ErrPriorStagePending = errors.New("prior approval stage still pending")

	// ErrRequestRejected is returned when any action is attempted on a
	// request whose aggregate status is already REJECTED.
	ErrRequestRejected = errors.New("request has been rejected")

	// ErrMissingRejectionReason is returned when a stage is rejected
	// without a reason. Rejections are audited and the reason is mandatory.
	ErrMissingRejectionReason = errors.New("rejection reason is required")

	// ErrNotFullyApproved is returned when payment completion is attempted
	// before all three approval stages have been approved.
	ErrNotFullyApproved = errors.New("request is not fully approved")
)
