package leavebalance

type BalanceResponse struct {
	LeaveTypeID    int    `json:"leave_type_id"`
	LeaveTypeName  string `json:"leave_type_name,omitempty"`
	Year           int    `json:"year"`
	TotalAllocated int    `json:"total_allocated"`
	CarriedForward int    `json:"carried_forward"`
	Used           int    `json:"used"`
	Remaining      int    `json:"remaining"`
}

type RolloverRequest struct {
	Year int `json:"year" binding:"required,min=2000,max=2100"`
}

type RolloverResponse struct {
	Year        int   `json:"year"`
	SourceRows  int   `json:"source_rows"`
	Created     int64 `json:"created"`
	CarriedRows int   `json:"carried_rows"`
}

func MapToResponse(b LeaveBalance) BalanceResponse {
	resp := BalanceResponse{
		LeaveTypeID:    b.LeaveTypeID,
		Year:           b.Year,
		TotalAllocated: b.TotalAllocated,
		CarriedForward: b.CarriedForward,
		Used:           b.Used,
		Remaining:      b.Remaining,
	}
	if b.LeaveType != nil {
		resp.LeaveTypeName = b.LeaveType.Name
	}
	return resp
}

func MapToListResponse(balances []LeaveBalance) []BalanceResponse {
	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = MapToResponse(b)
	}
	return resp
}
