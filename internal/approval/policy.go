package approval

import (
	"time"

	approvalerrors "go-leave/internal/approval/errors"
	"go-leave/internal/leavebalance"

	"github.com/google/uuid"
)

const (
	DefaultLongLeaveDays      = 4
	DefaultMaxEscalationLevel = 3
	defaultHRName             = "HR"
)

// Policy holds the routing rules. It is pure: every method maps inputs to
// an Outcome and never touches storage.
type Policy struct {
	HRApproverID       uuid.UUID
	LongLeaveDays      int
	MaxEscalationLevel int
}

func NewPolicy(hrApproverID uuid.UUID) Policy {
	return Policy{
		HRApproverID:       hrApproverID,
		LongLeaveDays:      DefaultLongLeaveDays,
		MaxEscalationLevel: DefaultMaxEscalationLevel,
	}
}

func (p Policy) hr(subj Subject) Approver {
	name := subj.HRName
	if name == "" {
		name = defaultHRName
	}
	return Approver{ID: p.HRApproverID, Name: name}
}

// Submit decides the initial state of a new request: auto-approved types
// settle at once, everything else waits on the direct manager (or HR when
// there is none).
func (p Policy) Submit(s State, requesterID uuid.UUID, autoApprove bool, subj Subject, at time.Time) (Outcome, error) {
	if autoApprove {
		return Outcome{
			Kind:            OutcomeApproved,
			Status:          StatusAutoApproved,
			EscalationLevel: 1,
			Mutation:        leavebalance.Settle(s.EmployeeID, s.LeaveTypeID, s.TotalDays, s.IsLop).InYear(at.Year()),
		}, nil
	}

	var first Approver
	switch {
	case len(subj.ManagerChain) > 0:
		first = subj.ManagerChain[0]
	case requesterID == p.HRApproverID:
		return Outcome{}, approvalerrors.ErrNoApprover
	default:
		first = p.hr(subj)
	}

	approverID := first.ID
	return Outcome{
		Kind:              OutcomeEscalated,
		Status:            StatusPending,
		EscalationLevel:   1,
		CurrentApproverID: &approverID,
		ApproverName:      first.Name,
	}, nil
}

// Decide applies an approver's decision to a pending request.
func (p Policy) Decide(s State, d Decision, subj Subject) (Outcome, error) {
	if s.Status != StatusPending {
		return Outcome{}, approvalerrors.ErrNotPending
	}
	if s.CurrentApproverID == nil || *s.CurrentApproverID != d.ApproverID {
		return Outcome{}, approvalerrors.ErrNotCurrentApprover
	}
	if !d.Action.Valid() {
		return Outcome{}, approvalerrors.ErrUnknownAction
	}

	entry := HistoryEntry{
		ApproverID:   d.ApproverID.String(),
		ApproverName: d.ApproverName,
		Remarks:      d.Remarks,
		Timestamp:    d.At,
	}

	if d.Action == ActionReject {
		entry.Action = HistoryRejected
		return Outcome{
			Kind:            OutcomeRejected,
			Status:          StatusRejected,
			EscalationLevel: s.EscalationLevel,
			ApproverName:    d.ApproverName,
			Remarks:         d.Remarks,
			History:         entry,
		}, nil
	}

	if next, level, ok := p.next(s, subj); ok {
		entry.Action = HistoryForwarded
		nextID := next.ID
		return Outcome{
			Kind:              OutcomeEscalated,
			Status:            StatusPending,
			EscalationLevel:   level,
			CurrentApproverID: &nextID,
			ApproverName:      next.Name,
			Remarks:           d.Remarks,
			History:           entry,
		}, nil
	}

	entry.Action = HistoryApproved
	return Outcome{
		Kind:            OutcomeApproved,
		Status:          StatusApproved,
		EscalationLevel: s.EscalationLevel,
		ApproverName:    d.ApproverName,
		Remarks:         d.Remarks,
		History:         entry,
		Mutation:        leavebalance.Settle(s.EmployeeID, s.LeaveTypeID, s.TotalDays, s.IsLop).InYear(d.At.Year()),
	}, nil
}

// next resolves the approver after the current one, if any.
func (p Policy) next(s State, subj Subject) (Approver, int, bool) {
	if subj.IsHR {
		return Approver{}, 0, false
	}

	if s.TotalDays > p.LongLeaveDays && s.EscalationLevel == 1 && len(subj.ManagerChain) > 1 {
		return subj.ManagerChain[1], 2, true
	}

	if s.EscalationLevel < p.MaxEscalationLevel &&
		*s.CurrentApproverID != p.HRApproverID &&
		!p.viaDirector(s, subj) {
		return p.hr(subj), s.EscalationLevel + 1, true
	}

	return Approver{}, 0, false
}

// viaDirector reports whether the current approver was reached through the
// long-leave director route, whose approval is final.
func (p Policy) viaDirector(s State, subj Subject) bool {
	return s.TotalDays > p.LongLeaveDays &&
		s.EscalationLevel == 2 &&
		len(subj.ManagerChain) > 1 &&
		*s.CurrentApproverID == subj.ManagerChain[1].ID
}

// Cancel withdraws a request on behalf of its owner. Settled requests are
// refunded.
func (p Policy) Cancel(s State, requesterID uuid.UUID, requesterName, remarks string, at time.Time) (Outcome, error) {
	if s.EmployeeID != requesterID {
		return Outcome{}, approvalerrors.ErrNotOwner
	}

	out := Outcome{
		Kind:            OutcomeCancelled,
		Status:          StatusCancelled,
		EscalationLevel: s.EscalationLevel,
		Remarks:         remarks,
		History: HistoryEntry{
			ApproverID:   requesterID.String(),
			ApproverName: requesterName,
			Action:       HistoryCancelled,
			Remarks:      remarks,
			Timestamp:    at,
		},
	}

	switch {
	case s.Status == StatusPending:
		return out, nil
	case s.Status.Settled():
		out.Mutation = leavebalance.Refund(s.EmployeeID, s.LeaveTypeID, s.TotalDays, s.IsLop).InYear(s.BalanceYear)
		return out, nil
	default:
		return Outcome{}, approvalerrors.ErrNotCancellable
	}
}
