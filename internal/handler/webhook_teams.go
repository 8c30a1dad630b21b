package handler

import (
	"fmt"
	"io"
	"net/http"

	"taskhook-service/internal/platform"
	"taskhook-service/pkg/logger"
	"taskhook-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// teamsReply is the activity shape Teams expects back on every call, with
// an empty text when there is nothing to say.
func teamsReply(c echo.Context, status int, text string) error {
	return c.JSON(status, echo.Map{"type": "message", "text": text})
}

// TeamsWebhook handles POST /webhook/teams/:token. Teams enforces a ~5s
// response window, so everything beyond the insert is deferred.
func TeamsWebhook(c echo.Context) error {
	log := logger.FromContext(c)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		prometheus.RecordWebhookEvent(platform.SourceTeams, "error")
		return teamsReply(c, http.StatusBadRequest, "")
	}

	company, err := resolveCompanyByToken(c.Param("token"))
	if err != nil {
		log.Warn("Teams webhook with unknown token")
		prometheus.RecordWebhookEvent(platform.SourceTeams, "auth_failed")
		return teamsReply(c, http.StatusUnauthorized, "")
	}

	setting, err := settingsForCompany(&company.ID)
	if err != nil {
		log.Error("Failed to load settings", zap.Error(err))
		return teamsReply(c, http.StatusInternalServerError, "")
	}
	if setting == nil || setting.TeamsSecret == "" {
		prometheus.RecordWebhookEvent(platform.SourceTeams, "config_missing")
		return teamsReply(c, http.StatusBadRequest, "")
	}

	authHeader := c.Request().Header.Get("Authorization")
	if !platform.VerifyTeamsSignature(body, authHeader, setting.TeamsSecret) {
		log.Warn("Teams signature verification failed", zap.Uint("company_id", company.ID))
		prometheus.RecordWebhookEvent(platform.SourceTeams, "auth_failed")
		return teamsReply(c, http.StatusUnauthorized, "")
	}

	msg := platform.ParseTeamsActivity(body)
	if msg == nil {
		prometheus.RecordWebhookEvent(platform.SourceTeams, "skipped")
		return teamsReply(c, http.StatusOK, "")
	}

	// Teams activities embed the sender display name; no API round trip
	senderName := platform.TeamsSenderName(body)
	if senderName == "" {
		senderName = platform.PlaceholderName(msg.SenderID)
	}

	outcome, task, err := processMessage(c, company, setting, msg, senderName)
	if err != nil {
		log.Error("Failed to process teams message", zap.Error(err))
		prometheus.RecordWebhookEvent(platform.SourceTeams, "error")
		return teamsReply(c, http.StatusInternalServerError, "")
	}

	prometheus.RecordWebhookEvent(platform.SourceTeams, outcome)
	if outcome == outcomeCreated {
		return teamsReply(c, http.StatusOK, fmt.Sprintf("Task registered: %s", task.Content))
	}
	return teamsReply(c, http.StatusOK, "")
}
