package rbac

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetRolePermissions(ctx context.Context) ([]RolePermissionRow, error)
	GetRoleInheritance(ctx context.Context) ([]RoleInheritanceRow, error)
	SeedDefaults(ctx context.Context, perms []RolePermissionRow, inheritance []RoleInheritanceRow) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type RolePermissionRow struct {
	Role     string `gorm:"primaryKey;type:varchar(32)"`
	Resource string `gorm:"primaryKey;type:varchar(64)"`
	Action   string `gorm:"primaryKey;type:varchar(64)"`
}

func (RolePermissionRow) TableName() string {
	return "role_permissions"
}

type RoleInheritanceRow struct {
	Role   string `gorm:"primaryKey;type:varchar(32)"`
	Parent string `gorm:"primaryKey;type:varchar(32)"`
}

func (RoleInheritanceRow) TableName() string {
	return "role_inheritance"
}

func (r *repository) GetRolePermissions(ctx context.Context) ([]RolePermissionRow, error) {
	var result []RolePermissionRow
	err := r.db.WithContext(ctx).Order("role, resource, action").Find(&result).Error
	return result, err
}

func (r *repository) GetRoleInheritance(ctx context.Context) ([]RoleInheritanceRow, error) {
	var result []RoleInheritanceRow
	err := r.db.WithContext(ctx).Order("role, parent").Find(&result).Error
	return result, err
}

// SeedDefaults inserts missing rows and leaves edited ones alone.
func (r *repository) SeedDefaults(ctx context.Context, perms []RolePermissionRow, inheritance []RoleInheritanceRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(perms) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&perms).Error; err != nil {
				return err
			}
		}
		if len(inheritance) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&inheritance).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
