package employee

import (
	"go-leave/internal/leavebalance"
)

type CreateEmployeeRequest struct {
	FullName       string `json:"full_name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	EmployeeNumber string `json:"employee_number"`
	Role           string `json:"role" binding:"omitempty,oneof=EMPLOYEE MANAGER DIRECTOR HR"`
	ManagerID      string `json:"manager_id" binding:"omitempty,uuid"`
}

// UpdateEmployeeRequest is a partial update: empty fields keep their value.
type UpdateEmployeeRequest struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email" binding:"omitempty,email"`
	Role      string `json:"role" binding:"omitempty,oneof=EMPLOYEE MANAGER DIRECTOR HR"`
	ManagerID string `json:"manager_id" binding:"omitempty,uuid"`
	IsActive  *bool  `json:"is_active"`
}

type EmployeeResponse struct {
	ID             string `json:"id"`
	EmployeeNumber string `json:"employee_number"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	ManagerID      string `json:"manager_id,omitempty"`
	IsActive       bool   `json:"is_active"`
}

type ManagerSummary struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type EmployeeDetailResponse struct {
	EmployeeResponse
	Manager      *ManagerSummary                `json:"manager,omitempty"`
	LeaveBalance []leavebalance.BalanceResponse `json:"leave_balance"`
}

func mapToResponse(e Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:             e.ID.String(),
		EmployeeNumber: e.EmployeeNumber,
		FullName:       e.FullName,
		Email:          e.Email,
		Role:           string(e.Role),
		IsActive:       e.IsActive,
	}
	if e.ManagerID != nil {
		resp.ManagerID = e.ManagerID.String()
	}
	return resp
}

func mapToListResponse(emps []Employee) []EmployeeResponse {
	resp := make([]EmployeeResponse, len(emps))
	for i, e := range emps {
		resp[i] = mapToResponse(e)
	}
	return resp
}

func mapToManagerSummary(e *Employee) *ManagerSummary {
	if e == nil {
		return nil
	}
	return &ManagerSummary{ID: e.ID.String(), FullName: e.FullName, Role: string(e.Role)}
}
