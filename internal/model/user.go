package model

import (
	"time"

	"gorm.io/gorm"
)

// User types. A system_admin has no company and operates across tenants;
// admin and user are scoped to their company.
const (
	UserTypeSystemAdmin = "system_admin"
	UserTypeAdmin       = "admin"
	UserTypeUser        = "user"
)

// User represents a dashboard user
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CompanyID *uint          `json:"company_id,omitempty" gorm:"index"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	UserType  string         `json:"user_type" gorm:"type:varchar(20);not null;default:'user'"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsAdmin reports whether the user bypasses role permission checks.
func (u *User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin || u.UserType == UserTypeSystemAdmin
}
