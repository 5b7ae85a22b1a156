package leave

import (
	"context"
	"database/sql"
	"time"

	"go-leave/internal/approval"
	"go-leave/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Guard is the state a conditional update expects to still be current.
type Guard struct {
	Status            approval.Status
	EscalationLevel   int
	CurrentApproverID *uuid.UUID
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)
	FindByEmployee(ctx context.Context, employeeID uuid.UUID) ([]LeaveRequest, error)
	FindPendingByApprover(ctx context.Context, approverID uuid.UUID) ([]LeaveRequest, error)
	HasOverlappingActive(ctx context.Context, employeeID uuid.UUID, startDate, endDate time.Time) (bool, error)
	UpdateIfCurrent(ctx context.Context, l *LeaveRequest, expected Guard) (bool, error)
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

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db, r.tx)
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Omit(clause.Associations).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		Preload("Employee").
		Preload("LeaveType").
		First(&l, "id = ?", id).Error
	return &l, err
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID uuid.UUID) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.conn(ctx).
		Preload("LeaveType").
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindPendingByApprover(ctx context.Context, approverID uuid.UUID) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.conn(ctx).
		Preload("Employee").
		Preload("LeaveType").
		Where("current_approver_id = ? AND status = ?", approverID, approval.StatusPending).
		Order("created_at ASC").
		Find(&leaves).Error
	return leaves, err
}

// HasOverlappingActive treats both bounds as inclusive.
func (r *repository) HasOverlappingActive(ctx context.Context, employeeID uuid.UUID, startDate, endDate time.Time) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", approval.ActiveStatuses).
		Where("NOT (end_date < ? OR start_date > ?)", startDate, endDate).
		Count(&count).Error
	return count > 0, err
}

// UpdateIfCurrent writes the new state only when the row still matches
// expected. false means another writer got there first.
func (r *repository) UpdateIfCurrent(ctx context.Context, l *LeaveRequest, expected Guard) (bool, error) {
	q := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("id = ?", l.ID).
		Where("status = ?", expected.Status).
		Where("escalation_level = ?", expected.EscalationLevel)
	if expected.CurrentApproverID == nil {
		q = q.Where("current_approver_id IS NULL")
	} else {
		q = q.Where("current_approver_id = ?", *expected.CurrentApproverID)
	}

	res := q.Updates(map[string]any{
		"status":              l.Status,
		"escalation_level":    l.EscalationLevel,
		"current_approver_id": l.CurrentApproverID,
		"approver_name":       l.ApproverName,
		"remarks":             l.Remarks,
		"approval_history":    l.ApprovalHistory,
		"balance_year":        l.BalanceYear,
		"updated_at":          time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
