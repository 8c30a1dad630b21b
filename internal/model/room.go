package model

import (
	"time"

	"gorm.io/gorm"
)

// Room represents a chat room/channel/group on an external platform.
// (room_id, source) is the composite key: the same external id may coincide
// across platforms. Only active rooms are monitored for task extraction;
// rooms discovered through platform events start inactive and require
// manual approval.
type Room struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	RoomID      string         `json:"room_id" gorm:"type:varchar(191);uniqueIndex:idx_rooms_room_source;not null"`
	RoomName    string         `json:"room_name" gorm:"type:varchar(255)"`
	Source      string         `json:"source" gorm:"type:varchar(20);uniqueIndex:idx_rooms_room_source;not null"`
	IsActive    bool           `json:"is_active" gorm:"default:false"`
	CompanyID   uint           `json:"company_id" gorm:"index;not null"`
	WorkspaceID string         `json:"workspace_id,omitempty" gorm:"type:varchar(100)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
