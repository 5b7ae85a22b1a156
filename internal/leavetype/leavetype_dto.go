package leavetype

type LeaveTypeResponse struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	IsAutoApprove bool   `json:"is_auto_approve"`
	MaxDays       int    `json:"max_days"`
	IsRollover    bool   `json:"is_rollover"`
	IsLop         bool   `json:"is_lop"`
}

func MapToResponse(lt LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:            lt.ID,
		Name:          lt.Name,
		IsAutoApprove: lt.IsAutoApprove,
		MaxDays:       lt.MaxDays,
		IsRollover:    lt.IsRollover,
		IsLop:         lt.IsLop,
	}
}
