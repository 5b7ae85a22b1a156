package events

import "time"

const EmployeeLifecycleTopic = "hr.employee.lifecycle.v1"

const (
	EventEmployeeCreated = "employee_created"
	EventEmployeeDeleted = "employee_deleted"
)

type EmployeeLifecycleEvent struct {
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id,omitempty"`
	EmployeeID     string    `json:"employee_id"`
	EmployeeNumber string    `json:"employee_number,omitempty"`
	Role           string    `json:"role,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
