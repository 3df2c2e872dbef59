package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is a principal's rank. Ranks are strictly ordered user < admin < sysadmin.
type Role string

const (
	RoleUser     Role = "user"
	RoleAdmin    Role = "admin"
	RoleSysAdmin Role = "sysadmin"
)

// Rank returns 0 for unknown roles.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleSysAdmin:
		return 3
	default:
		return 0
	}
}

func (r Role) Valid() bool { return r.Rank() > 0 }

func (r Role) AtLeast(min Role) bool { return r.Rank() >= min.Rank() }

// Privileged reports whether r is admin or sysadmin.
func (r Role) Privileged() bool { return r.AtLeast(RoleAdmin) }

// Principal is the authenticated caller as the engine sees it.
type Principal struct {
	ID     uint `json:"id"`
	Role   Role `json:"role"`
	Active bool `json:"is_active"`
}

// User is an employee and, at the same time, a login principal.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	EmployeeCode     string         `gorm:"size:50;not null;uniqueIndex" json:"employee_id"`
	Name             string         `gorm:"size:100;not null" json:"name"`
	Extension        string         `gorm:"size:20" json:"extension"`
	Email            string         `gorm:"size:255" json:"email"`
	Password         string         `gorm:"size:255;not null" json:"-"` // bcrypt hash
	IsActive         bool           `gorm:"not null" json:"is_active"`
	Role             Role           `gorm:"size:20;not null;default:user" json:"role"`
	DepartmentID     *uint          `gorm:"index" json:"department_id"`
	Title            string         `gorm:"size:50" json:"title"`
	IsDepartmentHead bool           `gorm:"not null" json:"is_department_head"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role, Active: u.IsActive}
}

// Department labels employees in reports. It never gates ordering.
type Department struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"size:100;not null" json:"name"`
	IsActive      bool           `gorm:"not null" json:"is_active"`
	DisplayColumn int            `gorm:"not null;default:1" json:"display_column"`
	DisplayOrder  int            `gorm:"not null;default:0" json:"display_order"`
	CreatedAt     time.Time      `json:"created_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
