package approval

import (
	"go-leave/internal/leavebalance"

	"github.com/google/uuid"
)

type OutcomeKind string

const (
	OutcomeEscalated OutcomeKind = "escalated"
	OutcomeApproved  OutcomeKind = "approved"
	OutcomeRejected  OutcomeKind = "rejected"
	OutcomeCancelled OutcomeKind = "cancelled"
)

// Outcome is the full effect of one transition. Mutation is zero when the
// ledger must not move.
type Outcome struct {
	Kind              OutcomeKind
	Status            Status
	EscalationLevel   int
	CurrentApproverID *uuid.UUID
	ApproverName      string
	Remarks           string
	History           HistoryEntry
	Mutation          leavebalance.Mutation
}

func (o Outcome) Final() bool {
	return o.CurrentApproverID == nil
}
