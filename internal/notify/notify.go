// Package notify sends best-effort mail when tasks are created, completed
// or deleted. Dispatch is fire and forget: the webhook and dashboard
// handlers never wait on delivery, failures are logged and swallowed.
package notify

import (
	"fmt"
	"strings"

	"taskhook-service/internal/model"
	"taskhook-service/pkg/config"
	"taskhook-service/prometheus"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Event identifies which task transition triggered the notification
type Event string

const (
	EventTaskCreated   Event = "created"
	EventTaskCompleted Event = "completed"
	EventTaskDeleted   Event = "deleted"
)

// Dispatcher sends notification mail over one of two channels: the HTTP
// mail API when the tenant configured an API key, or plain SMTP when it
// configured a server.
type Dispatcher struct {
	client *resty.Client
	apiURL string
	log    *zap.Logger

	// sendSMTP is swappable in tests
	sendSMTP func(server, from, password string, recipients []string, subject, html string) error
}

// NewDispatcher builds a dispatcher from service configuration
func NewDispatcher(cfg *config.Config, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		client:   resty.New().SetTimeout(cfg.Outbound.MailTimeout),
		apiURL:   cfg.Outbound.MailAPIURL,
		log:      log,
		sendSMTP: sendViaSMTP,
	}
}

// Dispatch launches the notification in the background and returns
// immediately. A missing prerequisite (credentials, recipients, disabled
// toggle) is a silent no-op, not an error.
func (d *Dispatcher) Dispatch(setting *model.Setting, event Event, task *model.Task) {
	if setting == nil || task == nil {
		return
	}
	if !ShouldNotify(setting, event) {
		prometheus.RecordNotification("none", "skipped")
		return
	}

	// copy before handing off so the caller may mutate its task
	taskCopy := *task
	settingCopy := *setting

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("Notification dispatch panicked", zap.Any("panic", r))
			}
		}()
		if err := d.send(&settingCopy, event, &taskCopy); err != nil {
			d.log.Error("Failed to send notification",
				zap.String("event", string(event)),
				zap.Uint("task_id", taskCopy.ID),
				zap.Error(err))
		}
	}()
}

// ShouldNotify reports whether all prerequisites for the event are present:
// a configured channel, at least one recipient and the event's toggle.
func ShouldNotify(setting *model.Setting, event Event) bool {
	if setting.MailAPIKey == "" && setting.SMTPServer == "" {
		return false
	}
	if len(setting.RecipientList()) == 0 {
		return false
	}

	switch event {
	case EventTaskCreated:
		return setting.NotifyOnCreate
	case EventTaskCompleted:
		return setting.NotifyOnComplete
	case EventTaskDeleted:
		return setting.NotifyOnDelete
	default:
		return false
	}
}

func (d *Dispatcher) send(setting *model.Setting, event Event, task *model.Task) error {
	subject, html := BuildMail(event, task)
	recipients := setting.RecipientList()

	if setting.SMTPServer != "" {
		err := d.sendSMTP(setting.SMTPServer, setting.MailFrom, setting.SMTPPassword, recipients, subject, html)
		if err != nil {
			prometheus.RecordNotification("smtp", "failed")
			return err
		}
		prometheus.RecordNotification("smtp", "sent")
		return nil
	}

	resp, err := d.client.R().
		SetAuthToken(setting.MailAPIKey).
		SetBody(map[string]interface{}{
			"from":    setting.MailFrom,
			"to":      recipients,
			"subject": subject,
			"html":    html,
		}).
		Post(d.apiURL)
	if err != nil {
		prometheus.RecordNotification("api", "failed")
		return err
	}
	if resp.IsError() {
		prometheus.RecordNotification("api", "failed")
		return fmt.Errorf("mail API returned %s", resp.Status())
	}
	prometheus.RecordNotification("api", "sent")
	return nil
}

var eventSubjects = map[Event]string{
	EventTaskCreated:   "New task created",
	EventTaskCompleted: "Task completed",
	EventTaskDeleted:   "Task deleted",
}

// BuildMail renders the subject and HTML body for a task event
func BuildMail(event Event, task *model.Task) (string, string) {
	subject := fmt.Sprintf("[TaskHook] %s: %s", eventSubjects[event], task.Content)

	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(fmt.Sprintf("<h2>%s</h2>", eventSubjects[event]))
	b.WriteString("<table>")
	b.WriteString(fmt.Sprintf("<tr><td>Task</td><td>%s</td></tr>", task.Content))
	b.WriteString(fmt.Sprintf("<tr><td>Priority</td><td>%s</td></tr>", task.Priority))
	b.WriteString(fmt.Sprintf("<tr><td>Status</td><td>%s</td></tr>", task.Status))
	b.WriteString(fmt.Sprintf("<tr><td>Source</td><td>%s</td></tr>", task.Source))
	b.WriteString(fmt.Sprintf("<tr><td>Sender</td><td>%s</td></tr>", task.SenderName))
	if task.OriginalMessage != "" {
		b.WriteString(fmt.Sprintf("<tr><td>Original message</td><td>%s</td></tr>", task.OriginalMessage))
	}
	b.WriteString("</table>")
	b.WriteString("</body></html>")

	return subject, b.String()
}
