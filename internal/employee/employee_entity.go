package employee

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleDirector Role = "DIRECTOR"
	RoleHR       Role = "HR"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleDirector, RoleHR:
		return true
	}
	return false
}

type Employee struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EmployeeNumber string     `gorm:"uniqueIndex:uq_employee_number"`
	FullName       string     `gorm:"not null"`
	Email          string     `gorm:"uniqueIndex:uq_employee_email"`
	Role           Role       `gorm:"type:varchar(16);not null;default:EMPLOYEE"`
	ManagerID      *uuid.UUID `gorm:"type:uuid;index"`
	IsActive       bool       `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Employee) TableName() string {
	return "employees"
}
