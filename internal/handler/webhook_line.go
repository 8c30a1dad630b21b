package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"taskhook-service/internal/model"
	"taskhook-service/internal/platform"
	"taskhook-service/pkg/database"
	"taskhook-service/pkg/logger"
	"taskhook-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LineWebhook handles POST /webhook/line/:token. One delivery may carry
// several events: join events register the group as a new, inactive room
// awaiting manual approval; group text messages run through extraction.
func LineWebhook(c echo.Context) error {
	log := logger.FromContext(c)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		prometheus.RecordWebhookEvent(platform.SourceLine, "error")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read request body"})
	}

	company, err := resolveCompanyByToken(c.Param("token"))
	if err != nil {
		log.Warn("LINE webhook with unknown token")
		prometheus.RecordWebhookEvent(platform.SourceLine, "auth_failed")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook token"})
	}

	setting, err := settingsForCompany(&company.ID)
	if err != nil {
		log.Error("Failed to load settings", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if setting == nil || setting.LineChannelSecret == "" {
		prometheus.RecordWebhookEvent(platform.SourceLine, "config_missing")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "line channel secret not configured"})
	}

	signature := c.Request().Header.Get("X-Line-Signature")
	if !platform.VerifyLineSignature(body, signature, setting.LineChannelSecret) {
		log.Warn("LINE signature verification failed", zap.Uint("company_id", company.ID))
		prometheus.RecordWebhookEvent(platform.SourceLine, "auth_failed")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
	}

	events := platform.ParseLineEvents(body)
	for i := range events {
		event := &events[i]

		if event.IsGroupJoin() {
			if err := registerPendingRoom(company, event.Source.GroupID); err != nil {
				log.Error("Failed to register joined group", zap.Error(err))
			} else {
				log.Info("Registered LINE group pending approval",
					zap.String("group_id", event.Source.GroupID),
					zap.Uint("company_id", company.ID))
			}
			prometheus.RecordWebhookEvent(platform.SourceLine, "skipped")
			continue
		}

		msg := event.Normalize()
		if msg == nil {
			prometheus.RecordWebhookEvent(platform.SourceLine, "skipped")
			continue
		}

		senderName := profiles.LineSenderName(msg.RoomID, msg.SenderID, setting.LineChannelToken)

		outcome, _, err := processMessage(c, company, setting, msg, senderName)
		if err != nil {
			log.Error("Failed to process line message", zap.Error(err))
			prometheus.RecordWebhookEvent(platform.SourceLine, "error")
			continue
		}
		prometheus.RecordWebhookEvent(platform.SourceLine, outcome)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// registerPendingRoom records a newly joined group as inactive. Monitoring
// only starts after an admin flips the room on; joining alone never does.
func registerPendingRoom(company *model.Company, groupID string) error {
	if groupID == "" {
		return nil
	}
	db := database.GetDB()

	var existing model.Room
	err := db.Where("room_id = ? AND source = ?", groupID, platform.SourceLine).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	room := model.Room{
		RoomID:    groupID,
		RoomName:  fmt.Sprintf("LINE group %s", groupID),
		Source:    platform.SourceLine,
		IsActive:  false,
		CompanyID: company.ID,
	}
	return db.Create(&room).Error
}
