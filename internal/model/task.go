package model

import (
	"time"

	"gorm.io/gorm"
)

// Task statuses
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Task priorities
const (
	TaskPriorityHigh   = "high"
	TaskPriorityMedium = "medium"
	TaskPriorityLow    = "low"
)

// Task represents a task extracted from a chat message (or created manually
// by a tenant admin). The unique index on (message_id, source, company_id)
// backs the idempotency guard: a duplicate webhook delivery hits the
// constraint instead of inserting a second row.
type Task struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	RoomID          string         `json:"room_id" gorm:"type:varchar(191);index;not null"`
	MessageID       string         `json:"message_id" gorm:"type:varchar(191);uniqueIndex:idx_tasks_message_source_company"`
	Content         string         `json:"content" gorm:"type:text;not null"`
	OriginalMessage string         `json:"original_message" gorm:"type:text"`
	SenderName      string         `json:"sender_name" gorm:"type:varchar(255)"`
	Memo            string         `json:"memo" gorm:"type:text"`
	Status          string         `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Priority        string         `json:"priority" gorm:"type:varchar(10);not null;default:'medium'"`
	Source          string         `json:"source" gorm:"type:varchar(20);uniqueIndex:idx_tasks_message_source_company;not null"`
	CompanyID       uint           `json:"company_id" gorm:"uniqueIndex:idx_tasks_message_source_company;index;not null"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
