package leave

import (
	"time"

	"go-leave/internal/approval"
	"go-leave/internal/calendar"
)

type ApplyLeaveRequest struct {
	LeaveTypeID int    `json:"leave_type_id" binding:"required,min=1"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Reason      string `json:"reason" binding:"max=500"`
}

type DecisionRequest struct {
	Action  string `json:"action" binding:"required"`
	Remarks string `json:"remarks" binding:"max=500"`
}

type CancelLeaveRequest struct {
	Remarks string `json:"remarks" binding:"max=500"`
}

type LeaveResponse struct {
	ID                string                  `json:"id"`
	RequestNumber     string                  `json:"request_number"`
	EmployeeID        string                  `json:"employee_id"`
	EmployeeName      string                  `json:"employee_name,omitempty"`
	LeaveTypeID       int                     `json:"leave_type_id"`
	LeaveTypeName     string                  `json:"leave_type_name,omitempty"`
	StartDate         string                  `json:"start_date"`
	EndDate           string                  `json:"end_date"`
	TotalDays         int                     `json:"total_days"`
	Reason            string                  `json:"reason"`
	Status            approval.Status         `json:"status"`
	EscalationLevel   int                     `json:"escalation_level"`
	CurrentApproverID *string                 `json:"current_approver_id,omitempty"`
	ApproverName      string                  `json:"approver_name,omitempty"`
	Remarks           string                  `json:"remarks,omitempty"`
	ApprovalHistory   []approval.HistoryEntry `json:"approval_history"`
	CreatedAt         string                  `json:"created_at"`
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:              l.ID.String(),
		RequestNumber:   l.RequestNumber,
		EmployeeID:      l.EmployeeID.String(),
		LeaveTypeID:     l.LeaveTypeID,
		StartDate:       l.StartDate.Format(calendar.DateLayout),
		EndDate:         l.EndDate.Format(calendar.DateLayout),
		TotalDays:       l.TotalDays,
		Reason:          l.Reason,
		Status:          l.Status,
		EscalationLevel: l.EscalationLevel,
		ApproverName:    l.ApproverName,
		Remarks:         l.Remarks,
		ApprovalHistory: []approval.HistoryEntry(l.ApprovalHistory),
		CreatedAt:       l.CreatedAt.Format(time.RFC3339),
	}
	if resp.ApprovalHistory == nil {
		resp.ApprovalHistory = []approval.HistoryEntry{}
	}
	if l.Employee != nil {
		resp.EmployeeName = l.Employee.FullName
	}
	if l.LeaveType != nil {
		resp.LeaveTypeName = l.LeaveType.Name
	}
	if l.CurrentApproverID != nil {
		v := l.CurrentApproverID.String()
		resp.CurrentApproverID = &v
	}
	return resp
}

func mapToListResponse(leaves []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}
