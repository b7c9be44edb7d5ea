package model

// Action is a bulk decision applied to the selected documents.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction returns the action named by s, or false if s is neither approve nor reject.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionApprove, ActionReject:
		return Action(s), true
	}
	return "", false
}

// TargetStatus is the status a pending document moves to under this action.
func (a Action) TargetStatus() DocumentStatus {
	if a == ActionReject {
		return StatusRejected
	}
	return StatusApproved
}
