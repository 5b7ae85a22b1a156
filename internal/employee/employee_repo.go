package employee

import (
	"context"
	"database/sql"

	"go-leave/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, e *Employee) error
	FindAll(ctx context.Context) ([]Employee, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Employee, error)
	FindByManager(ctx context.Context, managerID uuid.UUID) ([]Employee, error)
	CountByManager(ctx context.Context, managerID uuid.UUID) (int64, error)
	SearchManagers(ctx context.Context, query string, limit int) ([]Employee, error)
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteLeaveRequests(ctx context.Context, employeeID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db, r.tx)
}

func (r *repository) Create(ctx context.Context, e *Employee) error {
	return r.conn(ctx).Create(e).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Employee, error) {
	var emps []Employee
	err := r.conn(ctx).
		Order("full_name ASC").
		Find(&emps).Error
	return emps, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	var e Employee
	err := r.conn(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Employee, error) {
	var emps []Employee
	if len(ids) == 0 {
		return emps, nil
	}
	err := r.conn(ctx).Where("id IN ?", ids).Find(&emps).Error
	return emps, err
}

func (r *repository) FindByManager(ctx context.Context, managerID uuid.UUID) ([]Employee, error) {
	var emps []Employee
	err := r.conn(ctx).
		Where("manager_id = ?", managerID).
		Order("full_name ASC").
		Find(&emps).Error
	return emps, err
}

func (r *repository) CountByManager(ctx context.Context, managerID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(ctx).
		Model(&Employee{}).
		Where("manager_id = ?", managerID).
		Count(&count).Error
	return count, err
}

// SearchManagers matches MANAGER and DIRECTOR employees by name or number.
func (r *repository) SearchManagers(ctx context.Context, query string, limit int) ([]Employee, error) {
	var emps []Employee
	pattern := "%" + query + "%"
	err := r.conn(ctx).
		Where("role IN ?", []Role{RoleManager, RoleDirector}).
		Where("(full_name ILIKE ? OR employee_number ILIKE ?)", pattern, pattern).
		Order("full_name ASC").
		Limit(limit).
		Find(&emps).Error
	return emps, err
}

func (r *repository) Update(ctx context.Context, e *Employee) error {
	return r.conn(ctx).Save(e).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).Delete(&Employee{}, "id = ?", id).Error
}

// DeleteLeaveRequests removes the employee's request history ahead of the
// employee row itself.
func (r *repository) DeleteLeaveRequests(ctx context.Context, employeeID uuid.UUID) error {
	return r.conn(ctx).
		Exec("DELETE FROM leave_requests WHERE employee_id = ?", employeeID).Error
}
