package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Setting is the per-tenant credential bag: one row per company holding the
// platform secrets and the notification configuration. A row with a null
// company id is the legacy single-tenant fallback kept for compatibility
// with pre-multi-tenant deployments.
type Setting struct {
	ID        uint  `json:"id" gorm:"primaryKey"`
	CompanyID *uint `json:"company_id,omitempty" gorm:"uniqueIndex"`

	// Chatwork
	ChatworkWebhookToken string `json:"chatwork_webhook_token" gorm:"type:varchar(255)"`
	ChatworkAPIToken     string `json:"-" gorm:"type:varchar(255)"`

	// Microsoft Teams
	TeamsSecret string `json:"-" gorm:"type:varchar(255)"`

	// Lark
	LarkVerificationToken string `json:"lark_verification_token" gorm:"type:varchar(255)"`
	LarkEncryptKey        string `json:"-" gorm:"type:varchar(255)"`
	LarkAppID             string `json:"lark_app_id" gorm:"type:varchar(255)"`
	LarkAppSecret         string `json:"-" gorm:"type:varchar(255)"`

	// Slack
	SlackSigningSecret string `json:"-" gorm:"type:varchar(255)"`
	SlackBotToken      string `json:"-" gorm:"type:varchar(255)"`

	// LINE
	LineChannelSecret string `json:"-" gorm:"type:varchar(255)"`
	LineChannelToken  string `json:"-" gorm:"type:varchar(255)"`

	// Notification mail. When SMTPServer is set mail goes out over SMTP,
	// otherwise over the HTTP mail API using MailAPIKey.
	MailAPIKey       string `json:"-" gorm:"type:varchar(255)"`
	MailFrom         string `json:"mail_from" gorm:"type:varchar(255)"`
	MailRecipients   string `json:"mail_recipients" gorm:"type:text"`
	SMTPServer       string `json:"smtp_server" gorm:"type:varchar(255)"`
	SMTPPassword     string `json:"-" gorm:"type:varchar(255)"`
	NotifyOnCreate   bool   `json:"notify_on_create" gorm:"default:false"`
	NotifyOnComplete bool   `json:"notify_on_complete" gorm:"default:false"`
	NotifyOnDelete   bool   `json:"notify_on_delete" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// RecipientList splits the comma-separated recipient field, dropping blanks.
func (s *Setting) RecipientList() []string {
	var out []string
	for _, r := range strings.Split(s.MailRecipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
