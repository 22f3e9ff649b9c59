package workflow

// Trigger represents an approval action that can cause an aggregate state
// transition.
type Trigger string

const (
	TriggerApproveDirector1  Trigger = "APPROVE_DIRECTOR1"
	TriggerApproveDirector2  Trigger = "APPROVE_DIRECTOR2"
	TriggerApproveAccountant Trigger = "APPROVE_ACCOUNTANT"
	TriggerReject            Trigger = "REJECT"
	TriggerCompletePayment   Trigger = "COMPLETE_PAYMENT"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}
