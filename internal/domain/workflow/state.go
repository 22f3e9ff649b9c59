package workflow

// State represents the aggregate status of a reimbursement request. It is
// a projection of the three approval sub-stages plus payment completion,
// never an independently settable field.
type State string

const (
	StatePending           State = "PENDING"
	StateDirector1Approved State = "DIRECTOR1_APPROVED"
	StateDirector2Approved State = "DIRECTOR2_APPROVED"
	StateFullyApproved     State = "FULLY_APPROVED"
	StatePaid              State = "PAID"
	StateRejected          State = "REJECTED"
)

var validStates = map[State]bool{
	StatePending:           true,
	StateDirector1Approved: true,
	StateDirector2Approved: true,
	StateFullyApproved:     true,
	StatePaid:              true,
	StateRejected:          true,
}

var terminalStates = map[State]bool{
	StatePaid:     true,
	StateRejected: true,
}

// IsTerminal returns true if no further transitions are legal from this state.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a known aggregate state.
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}
