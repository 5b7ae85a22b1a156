package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	EventLeaveApplied      = "leave_applied"
	EventLeaveAutoApproved = "leave_auto_approved"
	EventLeaveEscalated    = "leave_escalated"
	EventLeaveApproved     = "leave_approved"
	EventLeaveRejected     = "leave_rejected"
	EventLeaveCancelled    = "leave_cancelled"
)

// LeaveLifecycleEvent is emitted once per committed state change of a leave
// request. BalanceMutation is set only when the ledger moved.
type LeaveLifecycleEvent struct {
	EventType       string    `json:"event_type"`
	RequestID       string    `json:"request_id,omitempty"`
	LeaveRequestID  string    `json:"leave_request_id"`
	RequestNumber   string    `json:"request_number"`
	EmployeeID      string    `json:"employee_id"`
	LeaveTypeID     int       `json:"leave_type_id"`
	Status          string    `json:"status"`
	EscalationLevel int       `json:"escalation_level"`
	ApproverID      string    `json:"approver_id,omitempty"`
	TotalDays       int       `json:"total_days"`
	BalanceMutation string    `json:"balance_mutation,omitempty"`
	BalanceYear     int       `json:"balance_year,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// TouchesBalance reports whether consumers must refresh balance read models.
func (e LeaveLifecycleEvent) TouchesBalance() bool {
	return e.BalanceMutation != ""
}
