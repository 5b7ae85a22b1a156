package approval

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending      Status = "pending"
	StatusApproved     Status = "approved"
	StatusRejected     Status = "rejected"
	StatusAutoApproved Status = "auto_approved"
	StatusCancelled    Status = "cancelled"
)

// Settled reports whether the ledger has been charged for this status.
func (s Status) Settled() bool {
	return s == StatusApproved || s == StatusAutoApproved
}

// ActiveStatuses hold their dates: a new request may not overlap them.
var ActiveStatuses = []Status{StatusPending, StatusApproved, StatusAutoApproved}

func (s Status) Active() bool {
	return s == StatusPending || s.Settled()
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func (a Action) Valid() bool {
	return a == ActionApprove || a == ActionReject
}

// History actions as shown to users.
const (
	HistoryForwarded = "Forwarded"
	HistoryApproved  = "Approved"
	HistoryRejected  = "Rejected"
	HistoryCancelled = "Cancelled"
)

type HistoryEntry struct {
	ApproverID   string    `json:"approver_id,omitempty"`
	ApproverName string    `json:"approver_name"`
	Action       string    `json:"action"`
	Remarks      string    `json:"remarks,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type Approver struct {
	ID   uuid.UUID
	Name string
}

// State is the slice of a leave request the state machine reads.
type State struct {
	EmployeeID        uuid.UUID
	LeaveTypeID       int
	IsLop             bool
	TotalDays         int
	Status            Status
	EscalationLevel   int
	CurrentApproverID *uuid.UUID
	// BalanceYear is the balance row a settled request was charged to.
	BalanceYear int
}

// Subject describes the requester's position in the org.
// ManagerChain[0] is the direct manager, ManagerChain[1] the director.
type Subject struct {
	IsHR         bool
	ManagerChain []Approver
	HRName       string
}

type Decision struct {
	ApproverID   uuid.UUID
	ApproverName string
	Action       Action
	Remarks      string
	At           time.Time
}
