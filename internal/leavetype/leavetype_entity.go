package leavetype

type LeaveType struct {
	ID            int    `gorm:"primaryKey;autoIncrement:false"`
	Name          string `gorm:"type:varchar(100);not null;uniqueIndex"`
	IsAutoApprove bool   `gorm:"not null;default:false"`
	MaxDays       int    `gorm:"not null;default:0"`
	IsRollover    bool   `gorm:"not null;default:false"`
	IsLop         bool   `gorm:"not null;default:false"`
}

func (LeaveType) TableName() string {
	return "leave_types"
}

const (
	CasualLeaveID = 1
	SickLeaveID   = 2
	EarnedLeaveID = 3
	LossOfPayID   = 4
)

// Defaults is the reference data seeded on a fresh database.
var Defaults = []LeaveType{
	{ID: CasualLeaveID, Name: "Casual Leave", MaxDays: 12},
	{ID: SickLeaveID, Name: "Sick Leave", IsAutoApprove: true, MaxDays: 10},
	{ID: EarnedLeaveID, Name: "Earned Leave", MaxDays: 15, IsRollover: true},
	{ID: LossOfPayID, Name: "Loss of Pay", IsLop: true},
}
