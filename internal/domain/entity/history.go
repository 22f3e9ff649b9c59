package entity

import "time"

// Action types recorded in the approval history.
const (
	ActionCreate          = "CREATE"
	ActionApprove         = "APPROVE"
	ActionReject          = "REJECT"
	ActionCompletePayment = "COMPLETE_PAYMENT"
)

// ApprovalHistory is the audit trail of a reimbursement request. One row
// is written per state-changing action, in the same transaction as the
// change itself. RequestID is the client-supplied idempotency key, when
// one was provided.
type ApprovalHistory struct {
	ID              int64     `json:"id"`
	ReimbursementID int64     `json:"reimbursement_id"`
	Stage           string    `json:"stage,omitempty"`
	Action          string    `json:"action"`
	ActorID         string    `json:"actor_id"`
	PreviousStatus  string    `json:"previous_status"`
	NewStatus       string    `json:"new_status"`
	Comments        string    `json:"comments,omitempty"`
	RequestID       string    `json:"request_id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
