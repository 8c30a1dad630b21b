package model

import (
	"time"

	"gorm.io/gorm"
)

// Company represents a tenant. Every room, task, setting, role and user is
// scoped by company id for isolation.
type Company struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(100);not null"`
	Slug         string         `json:"slug" gorm:"type:varchar(100);uniqueIndex"`
	WebhookToken string         `json:"webhook_token" gorm:"type:varchar(64);uniqueIndex"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
