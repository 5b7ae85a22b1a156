package leavebalance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	balanceerrors "go-leave/internal/leavebalance/errors"
	"go-leave/internal/leavetype"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	BalanceKeyPrefix = "balances:"
	balanceCacheTTL  = 1 * time.Hour
)

func GetBalanceKey(employeeID string, year int) string {
	return fmt.Sprintf("%s%s:%d", BalanceKeyPrefix, employeeID, year)
}

//go:generate mockgen -source=leavebalance_service.go -destination=mock/leavebalance_service_mock.go -package=mock
type Service interface {
	GetByEmployee(ctx context.Context, employeeID string) ([]BalanceResponse, error)
	GetByEmployees(ctx context.Context, employeeIDs []uuid.UUID) (map[uuid.UUID][]BalanceResponse, error)
	Rollover(ctx context.Context, year int) (RolloverResponse, error)
	Invalidate(ctx context.Context, employeeID string, year int)
}

type service struct {
	db        *sql.DB
	repo      Repository
	typesRepo leavetype.Repository
	rdb       *redis.Client
	sf        *singleflight.Group
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	typesRepo leavetype.Repository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leavebalance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		typesRepo: typesRepo,
		rdb:       rdb,
		sf:        &singleflight.Group{},
		now:       time.Now,
		logger:    l,
	}
}

func (s *service) GetByEmployee(ctx context.Context, employeeID string) ([]BalanceResponse, error) {
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, balanceerrors.ErrInvalidEmployeeID
	}

	year := s.now().UTC().Year()
	cacheKey := GetBalanceKey(employeeID, year)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []BalanceResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		balances, err := s.repo.FindByEmployee(ctx, empID, year)
		if err != nil {
			return nil, err
		}

		resp := MapToListResponse(balances)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, balanceCacheTTL)
			}
		}
		return resp, nil
	})
	if err != nil {
		s.logger.Error("get balances failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return nil, err
	}

	return v.([]BalanceResponse), nil
}

func (s *service) GetByEmployees(ctx context.Context, employeeIDs []uuid.UUID) (map[uuid.UUID][]BalanceResponse, error) {
	out := make(map[uuid.UUID][]BalanceResponse, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return out, nil
	}

	balances, err := s.repo.FindByEmployees(ctx, employeeIDs, s.now().UTC().Year())
	if err != nil {
		s.logger.Error("get balances for employees failed",
			zap.Int("employees", len(employeeIDs)),
			zap.Error(err),
		)
		return nil, err
	}

	for _, b := range balances {
		out[b.EmployeeID] = append(out[b.EmployeeID], MapToResponse(b))
	}
	return out, nil
}

// Rollover opens `year` for every employee that had balances in year-1.
// Rollover types carry the positive remaining days forward; rows that
// already exist for `year` are left alone, so reruns are harmless.
func (s *service) Rollover(ctx context.Context, year int) (RolloverResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	if year < 2000 || year > 2100 {
		return RolloverResponse{}, balanceerrors.ErrInvalidYear
	}

	s.logger.Info("balance rollover requested",
		zap.String("request_id", rid),
		zap.Int("year", year),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("rollover begin tx failed", zap.Error(err))
		return RolloverResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	previous, err := qtx.FindByYear(ctx, year-1)
	if err != nil {
		s.logger.Error("rollover load previous year failed", zap.Error(err))
		return RolloverResponse{}, err
	}
	if len(previous) == 0 {
		return RolloverResponse{}, balanceerrors.ErrNoSourceBalances
	}

	types, err := s.typesRepo.WithTx(tx).FindAll(ctx)
	if err != nil {
		s.logger.Error("rollover load leave types failed", zap.Error(err))
		return RolloverResponse{}, err
	}
	typeByID := make(map[int]leavetype.LeaveType, len(types))
	for _, lt := range types {
		typeByID[lt.ID] = lt
	}

	next := make([]LeaveBalance, 0, len(previous))
	carried := 0
	touched := make(map[uuid.UUID]struct{})
	for _, prev := range previous {
		lt, ok := typeByID[prev.LeaveTypeID]
		if !ok {
			s.logger.Warn("rollover skipped unknown leave type",
				zap.Int("leave_type_id", prev.LeaveTypeID),
			)
			continue
		}

		carry := 0
		if lt.IsRollover && !lt.IsLop && prev.Remaining > 0 {
			carry = prev.Remaining
			carried++
		}
		next = append(next, NewBalance(prev.EmployeeID, lt, year, carry))
		touched[prev.EmployeeID] = struct{}{}
	}

	created, err := qtx.CreateBatch(ctx, next)
	if err != nil {
		s.logger.Error("rollover persist failed", zap.Error(err))
		return RolloverResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("rollover commit failed", zap.Error(err))
		return RolloverResponse{}, err
	}

	for empID := range touched {
		s.Invalidate(ctx, empID.String(), year)
	}

	s.logger.Info("balance rollover completed",
		zap.String("request_id", rid),
		zap.Int("year", year),
		zap.Int("source_rows", len(previous)),
		zap.Int64("created", created),
	)

	return RolloverResponse{
		Year:        year,
		SourceRows:  len(previous),
		Created:     created,
		CarriedRows: carried,
	}, nil
}

// Invalidate drops the cached balances of one employee for one year.
// Cache failures are logged and never fail the caller.
func (s *service) Invalidate(ctx context.Context, employeeID string, year int) {
	if s.rdb == nil {
		return
	}
	cacheKey := GetBalanceKey(employeeID, year)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate balance cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}
