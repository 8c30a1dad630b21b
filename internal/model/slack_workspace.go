package model

import (
	"time"

	"gorm.io/gorm"
)

// SlackWorkspace maps a Slack team id to a company. Slack events arrive on a
// single global endpoint, so the team id is the routing key instead of a
// per-tenant URL token.
type SlackWorkspace struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TeamID    string         `json:"team_id" gorm:"type:varchar(50);uniqueIndex;not null"`
	TeamName  string         `json:"team_name" gorm:"type:varchar(255)"`
	CompanyID uint           `json:"company_id" gorm:"index;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
