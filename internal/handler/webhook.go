package handler

import (
	"errors"
	"time"

	"taskhook-service/internal/extract"
	"taskhook-service/internal/model"
	"taskhook-service/internal/notify"
	"taskhook-service/internal/platform"
	"taskhook-service/pkg/config"
	"taskhook-service/pkg/database"
	"taskhook-service/pkg/logger"
	"taskhook-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	profiles *platform.ProfileClient
	notifier *notify.Dispatcher
)

// Init wires the outbound clients; called once from main after config and
// logger are ready.
func Init(cfg *config.Config) {
	profiles = platform.NewProfileClient(cfg.Outbound.Timeout, logger.GetLogger())
	notifier = notify.NewDispatcher(cfg, logger.GetLogger())
}

// processing outcomes shared by all webhook handlers
const (
	outcomeCreated      = "created"
	outcomeDuplicate    = "duplicate"
	outcomeNotMonitored = "not_monitored"
	outcomeNotTask      = "not_task"
)

// resolveCompanyByToken maps a path-embedded webhook token to its tenant
func resolveCompanyByToken(token string) (*model.Company, error) {
	if token == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var company model.Company
	err := database.GetDB().
		Where("webhook_token = ? AND is_active = ?", token, true).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// settingsForCompany loads the tenant settings row. A nil company id, or a
// tenant without its own row, falls back to the legacy global row, a
// deprecated single-tenant compatibility mode.
func settingsForCompany(companyID *uint) (*model.Setting, error) {
	db := database.GetDB()
	var setting model.Setting

	if companyID != nil {
		err := db.Where("company_id = ?", *companyID).First(&setting).Error
		if err == nil {
			return &setting, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	err := db.Where("company_id IS NULL").First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// processMessage runs the shared pipeline for a normalized message:
// active-room gate, extraction, idempotency check, insert, notification.
// The room must already be active or the message is discarded before the
// extractor ever runs.
func processMessage(c echo.Context, company *model.Company, setting *model.Setting, msg *platform.NormalizedMessage, senderName string) (string, *model.Task, error) {
	log := logger.FromContext(c)
	db := database.GetDB()

	defer prometheus.TrackDBOperation("query")(time.Now())
	var room model.Room
	err := db.Where("room_id = ? AND source = ? AND company_id = ? AND is_active = ?",
		msg.RoomID, msg.Source, company.ID, true).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return outcomeNotMonitored, nil, nil
		}
		return "", nil, err
	}

	result := extract.Analyze(msg.Text)
	if !result.IsTask {
		return outcomeNotTask, nil, nil
	}

	// Idempotency guard: the pre-check catches retried deliveries cheaply,
	// the unique index closes the race between check and insert.
	var existing model.Task
	err = db.Where("message_id = ? AND source = ? AND company_id = ?",
		msg.MessageID, msg.Source, company.ID).First(&existing).Error
	if err == nil {
		log.Info("Duplicate webhook delivery skipped",
			zap.String("message_id", msg.MessageID),
			zap.String("source", msg.Source))
		return outcomeDuplicate, &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, err
	}

	task := model.Task{
		RoomID:          msg.RoomID,
		MessageID:       msg.MessageID,
		Content:         result.Content,
		OriginalMessage: msg.Text,
		SenderName:      senderName,
		Status:          model.TaskStatusPending,
		Priority:        result.Priority,
		Source:          msg.Source,
		CompanyID:       company.ID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := db.Create(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return outcomeDuplicate, nil, nil
		}
		return "", nil, err
	}

	log.Info("Task created from webhook",
		zap.Uint("task_id", task.ID),
		zap.String("source", msg.Source),
		zap.String("room_id", msg.RoomID),
		zap.String("priority", task.Priority))

	notifier.Dispatch(setting, notify.EventTaskCreated, &task)

	return outcomeCreated, &task, nil
}
