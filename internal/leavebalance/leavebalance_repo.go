package leavebalance

import (
	"context"
	"database/sql"

	"go-leave/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=leavebalance_repo.go -destination=mock/leavebalance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	CreateBatch(ctx context.Context, balances []LeaveBalance) (int64, error)
	Find(ctx context.Context, employeeID uuid.UUID, leaveTypeID, year int) (*LeaveBalance, error)
	FindForUpdate(ctx context.Context, employeeID uuid.UUID, leaveTypeID, year int) (*LeaveBalance, error)
	FindByEmployee(ctx context.Context, employeeID uuid.UUID, year int) ([]LeaveBalance, error)
	FindByEmployees(ctx context.Context, employeeIDs []uuid.UUID, year int) ([]LeaveBalance, error)
	FindByYear(ctx context.Context, year int) ([]LeaveBalance, error)
	Update(ctx context.Context, balance *LeaveBalance) error
	DeleteByEmployee(ctx context.Context, employeeID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// CreateBatch skips rows whose (employee, type, year) key already exists and
// reports how many were actually inserted.
func (r *repository) CreateBatch(ctx context.Context, balances []LeaveBalance) (int64, error) {
	if len(balances) == 0 {
		return 0, nil
	}
	res := database.Conn(ctx, r.db, r.tx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&balances)
	return res.RowsAffected, res.Error
}

func (r *repository) Find(ctx context.Context, employeeID uuid.UUID, leaveTypeID, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := database.Conn(ctx, r.db, r.tx).
		Where("employee_id = ? AND leave_type_id = ? AND year = ?", employeeID, leaveTypeID, year).
		First(&b).Error
	return &b, err
}

func (r *repository) FindForUpdate(ctx context.Context, employeeID uuid.UUID, leaveTypeID, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := database.Conn(ctx, r.db, r.tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ? AND leave_type_id = ? AND year = ?", employeeID, leaveTypeID, year).
		First(&b).Error
	return &b, err
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID uuid.UUID, year int) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := database.Conn(ctx, r.db, r.tx).
		Preload("LeaveType").
		Where("employee_id = ? AND year = ?", employeeID, year).
		Order("leave_type_id ASC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) FindByEmployees(ctx context.Context, employeeIDs []uuid.UUID, year int) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	if len(employeeIDs) == 0 {
		return balances, nil
	}
	err := database.Conn(ctx, r.db, r.tx).
		Preload("LeaveType").
		Where("employee_id IN ? AND year = ?", employeeIDs, year).
		Order("employee_id ASC, leave_type_id ASC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) FindByYear(ctx context.Context, year int) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := database.Conn(ctx, r.db, r.tx).
		Where("year = ?", year).
		Order("employee_id ASC, leave_type_id ASC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) Update(ctx context.Context, balance *LeaveBalance) error {
	return database.Conn(ctx, r.db, r.tx).
		Model(&LeaveBalance{}).
		Where("employee_id = ? AND leave_type_id = ? AND year = ?",
			balance.EmployeeID, balance.LeaveTypeID, balance.Year).
		Updates(map[string]any{
			"used":       balance.Used,
			"remaining":  balance.Remaining,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *repository) DeleteByEmployee(ctx context.Context, employeeID uuid.UUID) error {
	return database.Conn(ctx, r.db, r.tx).
		Where("employee_id = ?", employeeID).
		Delete(&LeaveBalance{}).Error
}
