package leavebalance

import (
	"time"

	"go-leave/internal/leavetype"

	"github.com/google/uuid"
)

type LeaveBalance struct {
	EmployeeID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	LeaveTypeID int       `gorm:"primaryKey"`
	Year        int       `gorm:"primaryKey"`

	TotalAllocated int `gorm:"not null;default:0"`
	CarriedForward int `gorm:"not null;default:0"`
	Used           int `gorm:"not null;default:0"`
	Remaining      int `gorm:"not null;default:0"`

	LeaveType *leavetype.LeaveType `gorm:"foreignKey:LeaveTypeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}

// NewBalance allocates a fresh row for one employee, leave type and year.
func NewBalance(employeeID uuid.UUID, lt leavetype.LeaveType, year, carriedForward int) LeaveBalance {
	return LeaveBalance{
		EmployeeID:     employeeID,
		LeaveTypeID:    lt.ID,
		Year:           year,
		TotalAllocated: lt.MaxDays,
		CarriedForward: carriedForward,
		Used:           0,
		Remaining:      lt.MaxDays + carriedForward,
	}
}

// Provision builds the onboarding rows: one per leave type for the given year.
func Provision(employeeID uuid.UUID, types []leavetype.LeaveType, year int) []LeaveBalance {
	balances := make([]LeaveBalance, 0, len(types))
	for _, lt := range types {
		balances = append(balances, NewBalance(employeeID, lt, year, 0))
	}
	return balances
}

// Consistent reports whether remaining == allocated + carried - used.
// Loss-of-pay rows never move remaining, so they only need used >= 0.
func (b LeaveBalance) Consistent(isLop bool) bool {
	if b.Used < 0 {
		return false
	}
	if isLop {
		return b.Remaining == b.TotalAllocated+b.CarriedForward
	}
	return b.Remaining == b.TotalAllocated+b.CarriedForward-b.Used
}
