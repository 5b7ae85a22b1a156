package leavebalance

import (
	balanceerrors "go-leave/internal/leavebalance/errors"

	"github.com/google/uuid"
)

type MutationKind string

const (
	MutationDeduct    MutationKind = "deduct"
	MutationAddLop    MutationKind = "add_lop"
	MutationRefund    MutationKind = "refund"
	MutationRefundLop MutationKind = "refund_lop"
)

// Mutation describes one ledger effect. The zero value means "no effect".
// Year names the balance row it lands on; zero means the current year.
type Mutation struct {
	Kind        MutationKind
	EmployeeID  uuid.UUID
	LeaveTypeID int
	Days        int
	Year        int
}

func (m Mutation) IsZero() bool {
	return m.Kind == ""
}

// Charges reports whether m consumes balance rather than returning it.
func (m Mutation) Charges() bool {
	return m.Kind == MutationDeduct || m.Kind == MutationAddLop
}

// InYear pins a non-zero mutation to the balance row of year.
func (m Mutation) InYear(year int) Mutation {
	if !m.IsZero() {
		m.Year = year
	}
	return m
}

// Settle is the effect of a request reaching approved or auto_approved.
func Settle(employeeID uuid.UUID, leaveTypeID, days int, isLop bool) Mutation {
	kind := MutationDeduct
	if isLop {
		kind = MutationAddLop
	}
	return Mutation{Kind: kind, EmployeeID: employeeID, LeaveTypeID: leaveTypeID, Days: days}
}

// Refund reverses Settle when a settled request is cancelled. Callers pin it
// to the year the charge landed on.
func Refund(employeeID uuid.UUID, leaveTypeID, days int, isLop bool) Mutation {
	kind := MutationRefund
	if isLop {
		kind = MutationRefundLop
	}
	return Mutation{Kind: kind, EmployeeID: employeeID, LeaveTypeID: leaveTypeID, Days: days}
}

// Apply mutates the balance in memory. Callers persist it.
func (b *LeaveBalance) Apply(m Mutation) error {
	if m.Days <= 0 {
		return balanceerrors.ErrInvalidMutation
	}

	switch m.Kind {
	case MutationDeduct:
		b.Used += m.Days
		b.Remaining -= m.Days
	case MutationAddLop:
		b.Used += m.Days
	case MutationRefund:
		if b.Used < m.Days {
			return balanceerrors.ErrRefundExceedsUsed
		}
		b.Used -= m.Days
		b.Remaining += m.Days
	case MutationRefundLop:
		if b.Used < m.Days {
			return balanceerrors.ErrRefundExceedsUsed
		}
		b.Used -= m.Days
	default:
		return balanceerrors.ErrInvalidMutation
	}
	return nil
}
