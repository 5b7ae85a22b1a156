package leavebalance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	balanceerrors "go-leave/internal/leavebalance/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leavebalance_ledger.go -destination=mock/leavebalance_ledger_mock.go -package=mock

// Ledger is the only writer of used/remaining. Every call runs inside the
// caller's transaction so the balance change commits together with the
// request state change that caused it.
type Ledger interface {
	Apply(ctx context.Context, tx *sql.Tx, mutation Mutation) (LeaveBalance, error)
}

type ledger struct {
	repo   Repository
	now    func() time.Time
	logger *zap.Logger
}

func NewLedger(repo Repository, logger ...*zap.Logger) Ledger {
	return NewLedgerWithClock(repo, time.Now, logger...)
}

func NewLedgerWithClock(repo Repository, now func() time.Time, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("leavebalance.ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.ledger")
	}
	return &ledger{repo: repo, now: now, logger: l}
}

func (l *ledger) Apply(ctx context.Context, tx *sql.Tx, m Mutation) (LeaveBalance, error) {
	if m.IsZero() {
		return LeaveBalance{}, nil
	}

	year := m.Year
	if year == 0 {
		year = l.now().UTC().Year()
	}
	qtx := l.repo.WithTx(tx)

	balance, err := qtx.FindForUpdate(ctx, m.EmployeeID, m.LeaveTypeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.logger.Error("ledger balance row missing",
				zap.String("employee_id", m.EmployeeID.String()),
				zap.Int("leave_type_id", m.LeaveTypeID),
				zap.Int("year", year),
			)
			return LeaveBalance{}, fmt.Errorf("employee %s type %d year %d: %w",
				m.EmployeeID, m.LeaveTypeID, year, balanceerrors.ErrBalanceMissing)
		}
		return LeaveBalance{}, err
	}

	if err := balance.Apply(m); err != nil {
		l.logger.Error("ledger mutation rejected",
			zap.String("employee_id", m.EmployeeID.String()),
			zap.String("kind", string(m.Kind)),
			zap.Int("days", m.Days),
			zap.Error(err),
		)
		return LeaveBalance{}, err
	}

	if err := qtx.Update(ctx, balance); err != nil {
		l.logger.Error("ledger persist failed", zap.Error(err))
		return LeaveBalance{}, err
	}

	l.logger.Debug("ledger mutation applied",
		zap.String("employee_id", m.EmployeeID.String()),
		zap.Int("leave_type_id", m.LeaveTypeID),
		zap.String("kind", string(m.Kind)),
		zap.Int("days", m.Days),
		zap.Int("remaining", balance.Remaining),
	)
	return *balance, nil
}
