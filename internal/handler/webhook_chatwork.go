package handler

import (
	"io"
	"net/http"

	"taskhook-service/internal/platform"
	"taskhook-service/pkg/logger"
	"taskhook-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ChatworkWebhook handles POST /webhook/chatwork/:token
func ChatworkWebhook(c echo.Context) error {
	log := logger.FromContext(c)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		prometheus.RecordWebhookEvent(platform.SourceChatwork, "error")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read request body"})
	}

	company, err := resolveCompanyByToken(c.Param("token"))
	if err != nil {
		log.Warn("Chatwork webhook with unknown token")
		prometheus.RecordWebhookEvent(platform.SourceChatwork, "auth_failed")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook token"})
	}

	setting, err := settingsForCompany(&company.ID)
	if err != nil {
		log.Error("Failed to load settings", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if setting == nil || setting.ChatworkWebhookToken == "" {
		prometheus.RecordWebhookEvent(platform.SourceChatwork, "config_missing")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "chatwork webhook token not configured"})
	}

	signature := c.Request().Header.Get("X-ChatWorkWebhookSignature")
	if !platform.VerifyChatworkSignature(body, signature, setting.ChatworkWebhookToken) {
		log.Warn("Chatwork signature verification failed", zap.Uint("company_id", company.ID))
		prometheus.RecordWebhookEvent(platform.SourceChatwork, "auth_failed")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
	}

	msg := platform.ParseChatworkEvent(body)
	if msg == nil {
		prometheus.RecordWebhookEvent(platform.SourceChatwork, "skipped")
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "event ignored"})
	}

	// Chatwork carries no display name in the payload and the contacts API
	// covers only mutual contacts, so the placeholder is used directly.
	senderName := platform.PlaceholderName(msg.SenderID)

	outcome, task, err := processMessage(c, company, setting, msg, senderName)
	if err != nil {
		log.Error("Failed to process chatwork message", zap.Error(err))
		prometheus.RecordWebhookEvent(platform.SourceChatwork, "error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	prometheus.RecordWebhookEvent(platform.SourceChatwork, outcome)
	switch outcome {
	case outcomeCreated:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "taskId": task.ID})
	case outcomeDuplicate:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "duplicate delivery"})
	case outcomeNotMonitored:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "room not monitored"})
	default:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "no task detected"})
	}
}
