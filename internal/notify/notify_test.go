package notify

import (
	"testing"

	"taskhook-service/internal/model"

	"github.com/stretchr/testify/assert"
)

func uintPtr(v uint) *uint { return &v }

func configuredSetting() *model.Setting {
	return &model.Setting{
		CompanyID:      uintPtr(1),
		MailAPIKey:     "re_key",
		MailFrom:       "noreply@example.com",
		MailRecipients: "a@example.com, b@example.com",
		NotifyOnCreate: true,
	}
}

func TestShouldNotifyTogglePerEvent(t *testing.T) {
	setting := configuredSetting()

	assert.True(t, ShouldNotify(setting, EventTaskCreated))
	assert.False(t, ShouldNotify(setting, EventTaskCompleted))
	assert.False(t, ShouldNotify(setting, EventTaskDeleted))

	setting.NotifyOnComplete = true
	assert.True(t, ShouldNotify(setting, EventTaskCompleted))
}

func TestShouldNotifyMissingPrerequisitesIsNoOp(t *testing.T) {
	noChannel := configuredSetting()
	noChannel.MailAPIKey = ""
	assert.False(t, ShouldNotify(noChannel, EventTaskCreated))

	// SMTP server alone is also a valid channel
	noChannel.SMTPServer = "smtp.example.com:587"
	assert.True(t, ShouldNotify(noChannel, EventTaskCreated))

	noRecipients := configuredSetting()
	noRecipients.MailRecipients = " , "
	assert.False(t, ShouldNotify(noRecipients, EventTaskCreated))
}

func TestRecipientListParsing(t *testing.T) {
	setting := &model.Setting{MailRecipients: " a@example.com ,, b@example.com "}
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, setting.RecipientList())
}

func TestBuildMailContainsTaskFields(t *testing.T) {
	task := &model.Task{
		Content:         "check the schedule",
		Priority:        model.TaskPriorityLow,
		Status:          model.TaskStatusPending,
		Source:          "chatwork",
		SenderName:      "Taro Yamada",
		OriginalMessage: "【確認】check the schedule",
	}

	subject, html := BuildMail(EventTaskCreated, task)
	assert.Contains(t, subject, "New task created")
	assert.Contains(t, subject, "check the schedule")
	assert.Contains(t, html, "Taro Yamada")
	assert.Contains(t, html, "low")
	assert.Contains(t, html, "【確認】check the schedule")
}
