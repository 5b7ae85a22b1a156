package employee

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/events"
	"go-leave/internal/leavebalance"
	"go-leave/internal/leavetype"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/counter"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const managerSearchLimit = 10

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, id string) error
	GetProfile(ctx context.Context, id string) (EmployeeDetailResponse, error)
	GetReportees(ctx context.Context, managerID string) ([]EmployeeDetailResponse, error)
	GetAll(ctx context.Context) ([]EmployeeDetailResponse, error)
	SearchManagers(ctx context.Context, query string) ([]EmployeeResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	balances  leavebalance.Repository
	types     leavetype.Repository
	readModel leavebalance.Service
	counter   counter.Repository
	outbox    kafka.OutboxRepository
	now       func() time.Time
	logger    *zap.Logger
}

type Deps struct {
	DB        *sql.DB
	Repo      Repository
	Balances  leavebalance.Repository
	Types     leavetype.Repository
	ReadModel leavebalance.Service
	Counter   counter.Repository
	Outbox    kafka.OutboxRepository
}

func NewService(deps Deps, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:        deps.DB,
		repo:      deps.Repo,
		balances:  deps.Balances,
		types:     deps.Types,
		readModel: deps.ReadModel,
		counter:   deps.Counter,
		outbox:    deps.Outbox,
		now:       time.Now,
		logger:    l,
	}
}

// Create stores the employee and provisions one balance row per leave type
// for the current year, all in one transaction.
func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("email", req.Email),
		zap.String("manager_id", req.ManagerID),
	)

	role := RoleEmployee
	if req.Role != "" {
		role = Role(req.Role)
		if !role.Valid() {
			return EmployeeResponse{}, employeeerrors.ErrInvalidRole
		}
	}

	managerID, err := parseOptionalID(req.ManagerID)
	if err != nil {
		return EmployeeResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if managerID != nil {
		if _, err := qtx.FindByID(ctx, *managerID); err != nil {
			if errors.Is(mapRepositoryError(err), employeeerrors.ErrEmployeeNotFound) {
				return EmployeeResponse{}, employeeerrors.ErrManagerNotFound
			}
			return EmployeeResponse{}, err
		}
	}

	if req.EmployeeNumber == "" {
		nextVal, err := s.counter.WithTx(tx).GetNextValue(ctx, counter.TypeEmployeeNumber)
		if err != nil {
			s.logger.Error("create employee generate number failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
		req.EmployeeNumber = counter.Format("EMP", nextVal)
	}

	empl := &Employee{
		ID:             uuid.New(),
		EmployeeNumber: req.EmployeeNumber,
		FullName:       strings.TrimSpace(req.FullName),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Role:           role,
		ManagerID:      managerID,
		IsActive:       true,
	}

	if err := qtx.Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	types, err := s.types.WithTx(tx).FindAll(ctx)
	if err != nil {
		s.logger.Error("create employee load leave types failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	year := s.now().UTC().Year()
	rows := leavebalance.Provision(empl.ID, types, year)
	if _, err := s.balances.WithTx(tx).CreateBatch(ctx, rows); err != nil {
		s.logger.Error("create employee provision balances failed",
			zap.String("employee_id", empl.ID.String()),
			zap.Error(err),
		)
		return EmployeeResponse{}, err
	}

	if err := s.enqueue(ctx, tx, events.EmployeeLifecycleEvent{
		EventType:      events.EventEmployeeCreated,
		RequestID:      rid,
		EmployeeID:     empl.ID.String(),
		EmployeeNumber: empl.EmployeeNumber,
		Role:           string(empl.Role),
		OccurredAt:     s.now().UTC(),
	}); err != nil {
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.ID.String()),
		zap.Int("balances", len(rows)),
	)

	return mapToResponse(*empl), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	empID, err := uuid.Parse(id)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}
	s.logger.Debug("update employee requested",
		zap.String("employee_id", id),
		zap.String("manager_id", req.ManagerID),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	empl, err := qtx.FindByID(ctx, empID)
	if err != nil {
		s.logger.Error("update employee fetch existing failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if req.FullName != "" {
		empl.FullName = strings.TrimSpace(req.FullName)
	}
	if req.Email != "" {
		empl.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if req.Role != "" {
		role := Role(req.Role)
		if !role.Valid() {
			return EmployeeResponse{}, employeeerrors.ErrInvalidRole
		}
		empl.Role = role
	}
	if req.IsActive != nil {
		empl.IsActive = *req.IsActive
	}
	if req.ManagerID != "" {
		managerID, err := parseOptionalID(req.ManagerID)
		if err != nil {
			return EmployeeResponse{}, err
		}
		if err := ensureAcyclic(ctx, NewHierarchy(qtx, s.logger), empID, *managerID); err != nil {
			if errors.Is(err, employeeerrors.ErrEmployeeNotFound) {
				return EmployeeResponse{}, employeeerrors.ErrManagerNotFound
			}
			s.logger.Warn("update employee manager rejected",
				zap.String("employee_id", id),
				zap.String("manager_id", req.ManagerID),
				zap.Error(err),
			)
			return EmployeeResponse{}, err
		}
		empl.ManagerID = managerID
	}

	if err := qtx.Update(ctx, empl); err != nil {
		s.logger.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("update employee success", zap.String("employee_id", id))
	return mapToResponse(*empl), nil
}

// Delete refuses while the employee has reportees, then removes requests,
// balances and the employee row together.
func (s *service) Delete(ctx context.Context, id string) error {
	rid := contextutil.GetRequestID(ctx)
	empID, err := uuid.Parse(id)
	if err != nil {
		return employeeerrors.ErrInvalidEmployeeID
	}
	s.logger.Debug("delete employee requested", zap.String("employee_id", id))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete employee begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	empl, err := qtx.FindByID(ctx, empID)
	if err != nil {
		return mapRepositoryError(err)
	}

	reportees, err := qtx.CountByManager(ctx, empID)
	if err != nil {
		s.logger.Error("delete employee count reportees failed", zap.Error(err))
		return err
	}
	if reportees > 0 {
		s.logger.Warn("delete employee refused, reportees present",
			zap.String("employee_id", id),
			zap.Int64("reportees", reportees),
		)
		return employeeerrors.ErrHasReportees
	}

	if err := qtx.DeleteLeaveRequests(ctx, empID); err != nil {
		s.logger.Error("delete employee leave requests failed", zap.Error(err))
		return err
	}
	if err := s.balances.WithTx(tx).DeleteByEmployee(ctx, empID); err != nil {
		s.logger.Error("delete employee balances failed", zap.Error(err))
		return err
	}
	if err := qtx.Delete(ctx, empID); err != nil {
		s.logger.Error("delete employee failed", zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := s.enqueue(ctx, tx, events.EmployeeLifecycleEvent{
		EventType:      events.EventEmployeeDeleted,
		RequestID:      rid,
		EmployeeID:     id,
		EmployeeNumber: empl.EmployeeNumber,
		Role:           string(empl.Role),
		OccurredAt:     s.now().UTC(),
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete employee commit failed", zap.Error(err))
		return err
	}

	if s.readModel != nil {
		s.readModel.Invalidate(ctx, id, s.now().UTC().Year())
	}

	s.logger.Info("delete employee success", zap.String("employee_id", id))
	return nil
}

func (s *service) GetProfile(ctx context.Context, id string) (EmployeeDetailResponse, error) {
	empID, err := uuid.Parse(id)
	if err != nil {
		return EmployeeDetailResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	empl, err := s.repo.FindByID(ctx, empID)
	if err != nil {
		return EmployeeDetailResponse{}, mapRepositoryError(err)
	}

	resp := EmployeeDetailResponse{EmployeeResponse: mapToResponse(*empl)}
	if empl.ManagerID != nil {
		manager, err := s.repo.FindByID(ctx, *empl.ManagerID)
		if err != nil {
			s.logger.Warn("profile manager lookup failed",
				zap.String("employee_id", id),
				zap.Error(err),
			)
		} else {
			resp.Manager = mapToManagerSummary(manager)
		}
	}

	balances, err := s.readModel.GetByEmployee(ctx, id)
	if err != nil {
		return EmployeeDetailResponse{}, err
	}
	resp.LeaveBalance = balances
	return resp, nil
}

func (s *service) GetReportees(ctx context.Context, managerID string) ([]EmployeeDetailResponse, error) {
	mgrID, err := uuid.Parse(managerID)
	if err != nil {
		return nil, employeeerrors.ErrInvalidEmployeeID
	}

	reportees, err := s.repo.FindByManager(ctx, mgrID)
	if err != nil {
		s.logger.Error("get reportees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	return s.withBalances(ctx, reportees, nil)
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeDetailResponse, error) {
	emps, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	managers := make(map[uuid.UUID]*Employee, len(emps))
	for i := range emps {
		managers[emps[i].ID] = &emps[i]
	}
	return s.withBalances(ctx, emps, managers)
}

func (s *service) SearchManagers(ctx context.Context, query string) ([]EmployeeResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, employeeerrors.ErrSearchQueryRequired
	}

	emps, err := s.repo.SearchManagers(ctx, query, managerSearchLimit)
	if err != nil {
		s.logger.Error("search managers failed", zap.String("query", query), zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(emps), nil
}

// withBalances attaches current-year balances with one query; managers, when
// given, resolves manager summaries without extra lookups.
func (s *service) withBalances(ctx context.Context, emps []Employee, managers map[uuid.UUID]*Employee) ([]EmployeeDetailResponse, error) {
	ids := make([]uuid.UUID, len(emps))
	for i, e := range emps {
		ids[i] = e.ID
	}

	balances, err := s.readModel.GetByEmployees(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := make([]EmployeeDetailResponse, len(emps))
	for i, e := range emps {
		detail := EmployeeDetailResponse{
			EmployeeResponse: mapToResponse(e),
			LeaveBalance:     balances[e.ID],
		}
		if detail.LeaveBalance == nil {
			detail.LeaveBalance = []leavebalance.BalanceResponse{}
		}
		if managers != nil && e.ManagerID != nil {
			detail.Manager = mapToManagerSummary(managers[*e.ManagerID])
		}
		resp[i] = detail
	}
	return resp, nil
}

func (s *service) enqueue(ctx context.Context, tx *sql.Tx, event events.EmployeeLifecycleEvent) error {
	if s.outbox == nil {
		return nil
	}

	outboxEvent, err := kafka.NewOutboxEvent(
		event.RequestID, "employee", event.EmployeeID,
		event.EventType, events.EmployeeLifecycleTopic, event,
	)
	if err != nil {
		s.logger.Error("marshal event failed", zap.String("request_id", event.RequestID), zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, outboxEvent); err != nil {
		s.logger.Error("employee outbox persist failed",
			zap.String("employee_id", event.EmployeeID),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func parseOptionalID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, employeeerrors.ErrInvalidEmployeeID
	}
	return &id, nil
}
