package leavetype

import (
	"context"
	"database/sql"

	"go-leave/internal/shared/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=leavetype_repo.go -destination=mock/leavetype_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindAll(ctx context.Context) ([]LeaveType, error)
	FindByID(ctx context.Context, id int) (*LeaveType, error)
	EnsureDefaults(ctx context.Context, types []LeaveType) error
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

func (r *repository) FindAll(ctx context.Context) ([]LeaveType, error) {
	var types []LeaveType
	err := database.Conn(ctx, r.db, r.tx).
		Order("id ASC").
		Find(&types).Error
	return types, err
}

func (r *repository) FindByID(ctx context.Context, id int) (*LeaveType, error) {
	var lt LeaveType
	err := database.Conn(ctx, r.db, r.tx).
		First(&lt, "id = ?", id).Error
	return &lt, err
}

func (r *repository) EnsureDefaults(ctx context.Context, types []LeaveType) error {
	if len(types) == 0 {
		return nil
	}
	return database.Conn(ctx, r.db, r.tx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&types).Error
}
