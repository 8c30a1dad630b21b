package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"taskhook-service/internal/model"
	"taskhook-service/internal/platform"
	"taskhook-service/pkg/database"
	"taskhook-service/pkg/logger"
	"taskhook-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SlackWebhook handles POST /webhook/slack. Slack has no per-tenant URL;
// the workspace team_id routes the event to its registered company. The
// url_verification handshake is answered before any workspace lookup.
func SlackWebhook(c echo.Context) error {
	log := logger.FromContext(c)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		prometheus.RecordWebhookEvent(platform.SourceSlack, "error")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read request body"})
	}

	if challenge := platform.SlackChallenge(body); challenge != "" {
		prometheus.RecordWebhookEvent(platform.SourceSlack, "challenge")
		return c.JSON(http.StatusOK, echo.Map{"challenge": challenge})
	}

	teamID := platform.SlackTeamID(body)
	if teamID == "" {
		prometheus.RecordWebhookEvent(platform.SourceSlack, "skipped")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing team_id"})
	}

	var workspace model.SlackWorkspace
	err = database.GetDB().Where("team_id = ?", teamID).First(&workspace).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("Slack event from unregistered workspace", zap.String("team_id", teamID))
			prometheus.RecordWebhookEvent(platform.SourceSlack, "config_missing")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "workspace not registered"})
		}
		log.Error("Failed to look up workspace", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var company model.Company
	if err := database.GetDB().Where("id = ? AND is_active = ?", workspace.CompanyID, true).First(&company).Error; err != nil {
		log.Warn("Slack workspace mapped to inactive company", zap.Uint("company_id", workspace.CompanyID))
		prometheus.RecordWebhookEvent(platform.SourceSlack, "auth_failed")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "company inactive"})
	}

	setting, err := settingsForCompany(&company.ID)
	if err != nil {
		log.Error("Failed to load settings", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if setting == nil || setting.SlackSigningSecret == "" {
		prometheus.RecordWebhookEvent(platform.SourceSlack, "config_missing")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slack signing secret not configured"})
	}

	timestamp := c.Request().Header.Get("X-Slack-Request-Timestamp")
	signature := c.Request().Header.Get("X-Slack-Signature")
	if !platform.VerifySlackSignature(body, timestamp, signature, setting.SlackSigningSecret, time.Now()) {
		log.Warn("Slack signature verification failed", zap.Uint("company_id", company.ID))
		prometheus.RecordWebhookEvent(platform.SourceSlack, "auth_failed")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
	}

	msg := platform.ParseSlackEvent(body)
	if msg == nil {
		prometheus.RecordWebhookEvent(platform.SourceSlack, "skipped")
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}

	senderName := profiles.SlackSenderName(msg.SenderID, setting.SlackBotToken)

	outcome, _, err := processMessage(c, &company, setting, msg, senderName)
	if err != nil {
		log.Error("Failed to process slack message", zap.Error(err))
		prometheus.RecordWebhookEvent(platform.SourceSlack, "error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	prometheus.RecordWebhookEvent(platform.SourceSlack, outcome)
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
