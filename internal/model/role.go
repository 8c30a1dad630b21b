package model

import (
	"time"

	"gorm.io/gorm"
)

// Role groups permission rows within a company
type Role struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CompanyID uint           `json:"company_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// RolePermission grants capabilities for a (room, source) pair. A null
// room id means "all rooms", a null source means "all sources".
type RolePermission struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	RoleID        uint           `json:"role_id" gorm:"index;not null"`
	RoomID        *string        `json:"room_id" gorm:"type:varchar(191)"`
	Source        *string        `json:"source" gorm:"type:varchar(20)"`
	CanView       bool           `json:"can_view" gorm:"default:false"`
	CanEditStatus bool           `json:"can_edit_status" gorm:"default:false"`
	CanDelete     bool           `json:"can_delete" gorm:"default:false"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserRole assigns a role to a user
type UserRole struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	RoleID    uint           `json:"role_id" gorm:"index;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
