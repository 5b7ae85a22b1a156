package leave

import (
	"time"

	"go-leave/internal/approval"
	"go-leave/internal/employee"
	"go-leave/internal/leavetype"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type LeaveRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestNumber string    `gorm:"type:varchar(32);uniqueIndex:uq_leave_request_number"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee_dates"`
	LeaveTypeID   int       `gorm:"not null"`

	StartDate time.Time `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate   time.Time `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	TotalDays int       `gorm:"type:int;not null"`
	Reason    string    `gorm:"type:text"`

	Status            approval.Status `gorm:"type:varchar(20);not null;default:'pending';index:idx_leave_requests_approver_status"`
	EscalationLevel   int             `gorm:"not null;default:1"`
	CurrentApproverID *uuid.UUID      `gorm:"type:uuid;index:idx_leave_requests_approver_status"`
	ApproverName      string          `gorm:"type:varchar(150)"`
	Remarks           string          `gorm:"type:text"`

	ApprovalHistory datatypes.JSONSlice[approval.HistoryEntry] `gorm:"type:jsonb;not null;default:'[]'"`

	// BalanceYear is set when the request is charged; 0 until then.
	BalanceYear int `gorm:"not null;default:0"`

	Employee  *employee.Employee   `gorm:"foreignKey:EmployeeID"`
	LeaveType *leavetype.LeaveType `gorm:"foreignKey:LeaveTypeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

func (l *LeaveRequest) state(isLop bool) approval.State {
	return approval.State{
		EmployeeID:        l.EmployeeID,
		LeaveTypeID:       l.LeaveTypeID,
		IsLop:             isLop,
		TotalDays:         l.TotalDays,
		Status:            l.Status,
		EscalationLevel:   l.EscalationLevel,
		CurrentApproverID: l.CurrentApproverID,
		BalanceYear:       l.BalanceYear,
	}
}

// guard captures the columns a conditional update must still find.
func (l *LeaveRequest) guard() Guard {
	return Guard{
		Status:            l.Status,
		EscalationLevel:   l.EscalationLevel,
		CurrentApproverID: l.CurrentApproverID,
	}
}

func (l *LeaveRequest) apply(out approval.Outcome) {
	l.Status = out.Status
	l.EscalationLevel = out.EscalationLevel
	l.CurrentApproverID = out.CurrentApproverID
	if out.ApproverName != "" {
		l.ApproverName = out.ApproverName
	}
	if out.Remarks != "" {
		l.Remarks = out.Remarks
	}
	if out.Mutation.Charges() {
		l.BalanceYear = out.Mutation.Year
	}
	if out.History.Action != "" {
		l.ApprovalHistory = append(l.ApprovalHistory, out.History)
	}
}
