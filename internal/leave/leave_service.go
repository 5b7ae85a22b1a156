package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-leave/internal/approval"
	"go-leave/internal/calendar"
	"go-leave/internal/employee"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/leavebalance"
	balanceerrors "go-leave/internal/leavebalance/errors"
	"go-leave/internal/leavetype"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/counter"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// approverChainDepth covers the direct manager and the director.
	approverChainDepth = 2
	maxRequestDays     = 366
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Apply(ctx context.Context, actorID string, req ApplyLeaveRequest) (LeaveResponse, error)
	Decide(ctx context.Context, actorID, id string, req DecisionRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, actorID, id string, req CancelLeaveRequest) (LeaveResponse, error)
	GetMine(ctx context.Context, actorID string) ([]LeaveResponse, error)
	GetByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error)
	GetByID(ctx context.Context, actorID, actorRole, id string) (LeaveResponse, error)
	GetPendingApprovals(ctx context.Context, approverID string) ([]LeaveResponse, error)
}

type Deps struct {
	DB        *sql.DB
	Repo      Repository
	Employees employee.Repository
	Types     leavetype.Repository
	Balances  leavebalance.Repository
	Ledger    leavebalance.Ledger
	ReadModel leavebalance.Service
	Counter   counter.Repository
	Outbox    kafka.OutboxRepository
	Calendar  *calendar.Calendar
	Policy    approval.Policy
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees employee.Repository
	types     leavetype.Repository
	balances  leavebalance.Repository
	ledger    leavebalance.Ledger
	readModel leavebalance.Service
	counter   counter.Repository
	outbox    kafka.OutboxRepository
	calendar  *calendar.Calendar
	policy    approval.Policy
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(deps Deps, logger ...*zap.Logger) Service {
	return NewServiceWithClock(deps, time.Now, logger...)
}

func NewServiceWithClock(deps Deps, now func() time.Time, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	cal := deps.Calendar
	if cal == nil {
		cal = calendar.Default()
	}
	return &service{
		db:        deps.DB,
		repo:      deps.Repo,
		employees: deps.Employees,
		types:     deps.Types,
		balances:  deps.Balances,
		ledger:    deps.Ledger,
		readModel: deps.ReadModel,
		counter:   deps.Counter,
		outbox:    deps.Outbox,
		calendar:  cal,
		policy:    deps.Policy,
		now:       now,
		logger:    l,
	}
}

// Apply validates a new request and either settles it at once (auto-approve
// types) or parks it with the first approver.
func (s *service) Apply(ctx context.Context, actorID string, req ApplyLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("apply leave requested",
		zap.String("request_id", rid),
		zap.String("actor_id", actorID),
		zap.Int("leave_type_id", req.LeaveTypeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	employeeID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	startDate, endDate, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("apply leave begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	etx := s.employees.WithTx(tx)

	lt, err := s.types.WithTx(tx).FindByID(ctx, req.LeaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveTypeNotFound
		}
		return LeaveResponse{}, err
	}

	requester, err := etx.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrEmployeeNotFound
		}
		return LeaveResponse{}, err
	}
	if !requester.IsActive {
		return LeaveResponse{}, leaveerrors.ErrEmployeeInactive
	}

	totalDays := s.calendar.BusinessDays(startDate, endDate)
	if totalDays == 0 {
		return LeaveResponse{}, leaveerrors.ErrNoWorkingDays
	}

	overlap, err := qtx.HasOverlappingActive(ctx, employeeID, startDate, endDate)
	if err != nil {
		s.logger.Error("apply leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		s.logger.Warn("apply leave overlap detected",
			zap.String("employee_id", actorID),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	now := s.now().UTC()
	if !lt.IsLop {
		if err := s.checkBalance(ctx, tx, employeeID, lt.ID, now.Year(), totalDays); err != nil {
			return LeaveResponse{}, err
		}
	}

	l := &LeaveRequest{
		ID:              uuid.New(),
		EmployeeID:      employeeID,
		LeaveTypeID:     lt.ID,
		StartDate:       startDate,
		EndDate:         endDate,
		TotalDays:       totalDays,
		Reason:          strings.TrimSpace(req.Reason),
		Status:          approval.StatusPending,
		ApprovalHistory: datatypes.JSONSlice[approval.HistoryEntry]{},
	}

	var subj approval.Subject
	if !lt.IsAutoApprove {
		subj, err = s.subject(ctx, etx, requester)
		if err != nil {
			return LeaveResponse{}, err
		}
	}

	out, err := s.policy.Submit(l.state(lt.IsLop), employeeID, lt.IsAutoApprove, subj, now)
	if err != nil {
		s.logger.Warn("apply leave has no approver", zap.String("employee_id", actorID), zap.Error(err))
		return LeaveResponse{}, err
	}
	l.apply(out)

	seq, err := s.counter.WithTx(tx).GetNextValue(ctx, counter.TypeLeaveRequest)
	if err != nil {
		s.logger.Error("apply leave generate number failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	l.RequestNumber = counter.Format("LR", seq)

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("apply leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.settle(ctx, tx, out.Mutation); err != nil {
		return LeaveResponse{}, err
	}

	eventType := events.EventLeaveApplied
	if out.Status == approval.StatusAutoApproved {
		eventType = events.EventLeaveAutoApproved
	}
	if err := s.enqueue(ctx, tx, s.lifecycleEvent(rid, eventType, l, out, now)); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("apply leave commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	s.invalidate(ctx, out.Mutation, now)

	s.logger.Info("apply leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", l.ID.String()),
		zap.String("request_number", l.RequestNumber),
		zap.String("status", string(l.Status)),
		zap.Int("total_days", l.TotalDays),
	)

	l.LeaveType = lt
	l.Employee = requester
	return mapToResponse(*l), nil
}

// Decide records an approver's decision. The state change, the ledger
// mutation and the outbox event share one transaction, and the write only
// lands if nobody else decided the request in the meantime.
func (s *service) Decide(ctx context.Context, actorID, id string, req DecisionRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("decide leave requested",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
		zap.String("action", req.Action),
	)

	approverID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	leaveID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	action := approval.Action(strings.ToLower(strings.TrimSpace(req.Action)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide leave begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	etx := s.employees.WithTx(tx)

	l, err := s.find(ctx, qtx, leaveID)
	if err != nil {
		return LeaveResponse{}, err
	}
	lt, err := s.leaveType(ctx, tx, l)
	if err != nil {
		return LeaveResponse{}, err
	}

	approverName, err := s.approverName(ctx, etx, approverID)
	if err != nil {
		return LeaveResponse{}, err
	}

	var subj approval.Subject
	if action == approval.ActionApprove {
		requester, err := s.requester(ctx, etx, l)
		if err != nil {
			return LeaveResponse{}, err
		}
		if subj, err = s.subject(ctx, etx, requester); err != nil {
			return LeaveResponse{}, err
		}
	}

	now := s.now().UTC()
	out, err := s.policy.Decide(l.state(lt.IsLop), approval.Decision{
		ApproverID:   approverID,
		ApproverName: approverName,
		Action:       action,
		Remarks:      strings.TrimSpace(req.Remarks),
		At:           now,
	}, subj)
	if err != nil {
		s.logger.Warn("decide leave rejected by policy",
			zap.String("leave_id", id),
			zap.String("actor_id", actorID),
			zap.String("status", string(l.Status)),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	if err := s.transition(ctx, tx, qtx, l, out); err != nil {
		return LeaveResponse{}, err
	}

	eventType := events.EventLeaveEscalated
	switch out.Kind {
	case approval.OutcomeApproved:
		eventType = events.EventLeaveApproved
	case approval.OutcomeRejected:
		eventType = events.EventLeaveRejected
	}
	event := s.lifecycleEvent(rid, eventType, l, out, now)
	event.ApproverID = actorID
	if err := s.enqueue(ctx, tx, event); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide leave commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	s.invalidate(ctx, out.Mutation, now)

	s.logger.Info("decide leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("outcome", string(out.Kind)),
		zap.String("status", string(l.Status)),
		zap.Int("escalation_level", l.EscalationLevel),
	)
	return mapToResponse(*l), nil
}

// Cancel withdraws the actor's own request and refunds it when it was
// already settled.
func (s *service) Cancel(ctx context.Context, actorID, id string, req CancelLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("cancel leave requested",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
	)

	requesterID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	leaveID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := s.find(ctx, qtx, leaveID)
	if err != nil {
		return LeaveResponse{}, err
	}
	lt, err := s.leaveType(ctx, tx, l)
	if err != nil {
		return LeaveResponse{}, err
	}

	var requesterName string
	if l.Employee != nil {
		requesterName = l.Employee.FullName
	}

	now := s.now().UTC()
	out, err := s.policy.Cancel(l.state(lt.IsLop), requesterID, requesterName, strings.TrimSpace(req.Remarks), now)
	if err != nil {
		s.logger.Warn("cancel leave rejected by policy",
			zap.String("leave_id", id),
			zap.String("actor_id", actorID),
			zap.String("status", string(l.Status)),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	if err := s.transition(ctx, tx, qtx, l, out); err != nil {
		return LeaveResponse{}, err
	}

	if err := s.enqueue(ctx, tx, s.lifecycleEvent(rid, events.EventLeaveCancelled, l, out, now)); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	s.invalidate(ctx, out.Mutation, now)

	s.logger.Info("cancel leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.Bool("refunded", !out.Mutation.IsZero()),
	)
	return mapToResponse(*l), nil
}

func (s *service) GetMine(ctx context.Context, actorID string) ([]LeaveResponse, error) {
	employeeID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidActorID
	}
	leaves, err := s.repo.FindByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) GetByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error) {
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidEmployeeID
	}
	leaves, err := s.repo.FindByEmployee(ctx, empID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

// GetByID is visible to the requester, the current approver and HR.
func (s *service) GetByID(ctx context.Context, actorID, actorRole, id string) (LeaveResponse, error) {
	viewerID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	leaveID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	l, err := s.find(ctx, s.repo, leaveID)
	if err != nil {
		return LeaveResponse{}, err
	}

	isApprover := l.CurrentApproverID != nil && *l.CurrentApproverID == viewerID
	isHR := employee.Role(actorRole) == employee.RoleHR || viewerID == s.policy.HRApproverID
	if l.EmployeeID != viewerID && !isApprover && !isHR {
		return LeaveResponse{}, leaveerrors.ErrLeaveAccessDenied
	}
	return mapToResponse(*l), nil
}

func (s *service) GetPendingApprovals(ctx context.Context, approverID string) ([]LeaveResponse, error) {
	id, err := uuid.Parse(approverID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidActorID
	}
	leaves, err := s.repo.FindPendingByApprover(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

// transition persists out against the state l was read in, then moves the
// ledger. A lost race leaves the ledger untouched.
func (s *service) transition(ctx context.Context, tx *sql.Tx, qtx Repository, l *LeaveRequest, out approval.Outcome) error {
	expected := l.guard()
	l.apply(out)

	updated, err := qtx.UpdateIfCurrent(ctx, l, expected)
	if err != nil {
		s.logger.Error("leave conditional update failed", zap.String("leave_id", l.ID.String()), zap.Error(err))
		return err
	}
	if !updated {
		s.logger.Warn("leave already processed by another writer",
			zap.String("leave_id", l.ID.String()),
			zap.String("expected_status", string(expected.Status)),
			zap.Int("expected_level", expected.EscalationLevel),
		)
		return leaveerrors.ErrAlreadyProcessed
	}

	return s.settle(ctx, tx, out.Mutation)
}

func (s *service) settle(ctx context.Context, tx *sql.Tx, m leavebalance.Mutation) error {
	if m.IsZero() {
		return nil
	}
	if _, err := s.ledger.Apply(ctx, tx, m); err != nil {
		s.logger.Error("ledger mutation failed",
			zap.String("employee_id", m.EmployeeID.String()),
			zap.String("kind", string(m.Kind)),
			zap.Int("days", m.Days),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) invalidate(ctx context.Context, m leavebalance.Mutation, now time.Time) {
	if m.IsZero() || s.readModel == nil {
		return
	}
	year := m.Year
	if year == 0 {
		year = now.Year()
	}
	s.readModel.Invalidate(ctx, m.EmployeeID.String(), year)
}

func (s *service) checkBalance(ctx context.Context, tx *sql.Tx, employeeID uuid.UUID, leaveTypeID, year, days int) error {
	balance, err := s.balances.WithTx(tx).Find(ctx, employeeID, leaveTypeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("apply leave balance row missing",
				zap.String("employee_id", employeeID.String()),
				zap.Int("leave_type_id", leaveTypeID),
				zap.Int("year", year),
			)
			return fmt.Errorf("employee %s type %d year %d: %w",
				employeeID, leaveTypeID, year, balanceerrors.ErrBalanceMissing)
		}
		return err
	}
	if balance.Remaining < days {
		return leaveerrors.ErrInsufficientBalance
	}
	return nil
}

// subject resolves the requester's approvers. The HR approver's display
// name is looked up once; a missing row falls back to the policy default.
func (s *service) subject(ctx context.Context, etx employee.Repository, requester *employee.Employee) (approval.Subject, error) {
	chain, err := employee.NewHierarchy(etx).GetManagerChain(ctx, requester.ID, approverChainDepth)
	if err != nil {
		return approval.Subject{}, err
	}

	subj := approval.Subject{
		IsHR:         requester.Role == employee.RoleHR || requester.ID == s.policy.HRApproverID,
		ManagerChain: make([]approval.Approver, 0, len(chain)),
	}
	for _, m := range chain {
		subj.ManagerChain = append(subj.ManagerChain, approval.Approver{ID: m.ID, Name: m.FullName})
	}

	hr, err := etx.FindByID(ctx, s.policy.HRApproverID)
	switch {
	case err == nil:
		subj.HRName = hr.FullName
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return approval.Subject{}, err
	}
	return subj, nil
}

func (s *service) approverName(ctx context.Context, etx employee.Repository, id uuid.UUID) (string, error) {
	e, err := etx.FindByID(ctx, id)
	if err == nil {
		return e.FullName, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return "", err
}

func (s *service) requester(ctx context.Context, etx employee.Repository, l *LeaveRequest) (*employee.Employee, error) {
	if l.Employee != nil {
		return l.Employee, nil
	}
	e, err := etx.FindByID(ctx, l.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrEmployeeNotFound
		}
		return nil, err
	}
	l.Employee = e
	return e, nil
}

func (s *service) leaveType(ctx context.Context, tx *sql.Tx, l *LeaveRequest) (*leavetype.LeaveType, error) {
	if l.LeaveType != nil {
		return l.LeaveType, nil
	}
	lt, err := s.types.WithTx(tx).FindByID(ctx, l.LeaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveTypeNotFound
		}
		return nil, err
	}
	l.LeaveType = lt
	return lt, nil
}

func (s *service) find(ctx context.Context, repo Repository, id uuid.UUID) (*LeaveRequest, error) {
	l, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *service) lifecycleEvent(rid, eventType string, l *LeaveRequest, out approval.Outcome, at time.Time) events.LeaveLifecycleEvent {
	event := events.LeaveLifecycleEvent{
		EventType:       eventType,
		RequestID:       rid,
		LeaveRequestID:  l.ID.String(),
		RequestNumber:   l.RequestNumber,
		EmployeeID:      l.EmployeeID.String(),
		LeaveTypeID:     l.LeaveTypeID,
		Status:          string(l.Status),
		EscalationLevel: l.EscalationLevel,
		TotalDays:       l.TotalDays,
		OccurredAt:      at,
	}
	if l.CurrentApproverID != nil {
		event.ApproverID = l.CurrentApproverID.String()
	}
	if !out.Mutation.IsZero() {
		event.BalanceMutation = string(out.Mutation.Kind)
		event.BalanceYear = out.Mutation.Year
		if event.BalanceYear == 0 {
			event.BalanceYear = at.Year()
		}
	}
	return event
}

func (s *service) enqueue(ctx context.Context, tx *sql.Tx, event events.LeaveLifecycleEvent) error {
	if s.outbox == nil {
		return nil
	}

	outboxEvent, err := kafka.NewOutboxEvent(
		event.RequestID, "leave_request", event.LeaveRequestID,
		event.EventType, events.LeaveLifecycleTopic, event,
	)
	if err != nil {
		s.logger.Error("marshal event failed", zap.String("request_id", event.RequestID), zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, outboxEvent); err != nil {
		s.logger.Error("leave outbox persist failed",
			zap.String("leave_id", event.LeaveRequestID),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse(calendar.DateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	endDate, err := time.Parse(calendar.DateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}
	if endDate.Sub(startDate) >= maxRequestDays*24*time.Hour {
		return time.Time{}, time.Time{}, leaveerrors.ErrDateRangeTooLong
	}
	return startDate, endDate, nil
}
