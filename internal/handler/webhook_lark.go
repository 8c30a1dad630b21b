package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"taskhook-service/internal/model"
	"taskhook-service/internal/platform"
	"taskhook-service/pkg/database"
	"taskhook-service/pkg/logger"
	"taskhook-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// larkEncryptField pulls the ciphertext out of an encrypted delivery, or
// returns "" for plain payloads.
func larkEncryptField(body []byte) string {
	var outer struct {
		Encrypt string `json:"encrypt"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		return ""
	}
	return outer.Encrypt
}

// LarkWebhook handles POST /webhook/lark. Lark events arrive on a single
// endpoint and the tenant is resolved through the verification token
// embedded in the payload. When a tenant configured an encrypt key, the
// payload arrives as an "encrypt" ciphertext that must be opened before the
// token is visible, so candidate tenants are tried in turn.
func LarkWebhook(c echo.Context) error {
	log := logger.FromContext(c)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		prometheus.RecordWebhookEvent(platform.SourceLark, "error")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read request body"})
	}

	encrypted := larkEncryptField(body)

	var candidates []model.Setting
	if err := database.GetDB().Where("lark_verification_token <> ''").Find(&candidates).Error; err != nil {
		log.Error("Failed to load lark settings", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var setting *model.Setting
	payload := body
	for i := range candidates {
		s := &candidates[i]
		candidate := body
		if encrypted != "" {
			if s.LarkEncryptKey == "" {
				continue
			}
			decrypted, err := platform.DecryptLarkPayload(encrypted, s.LarkEncryptKey)
			if err != nil {
				continue
			}
			candidate = decrypted
		}
		if platform.LarkToken(candidate) != s.LarkVerificationToken {
			continue
		}
		setting = s
		payload = candidate
		break
	}

	if setting == nil {
		// The handshake must be answered even when nothing needed for
		// verification is in place yet.
		if encrypted == "" {
			if challenge := platform.LarkChallenge(body); challenge != "" {
				prometheus.RecordWebhookEvent(platform.SourceLark, "challenge")
				return c.JSON(http.StatusOK, echo.Map{"challenge": challenge})
			}
		}
		prometheus.RecordWebhookEvent(platform.SourceLark, "config_missing")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no matching lark configuration"})
	}

	if challenge := platform.LarkChallenge(payload); challenge != "" {
		prometheus.RecordWebhookEvent(platform.SourceLark, "challenge")
		return c.JSON(http.StatusOK, echo.Map{"challenge": challenge})
	}

	// The signature covers the raw (still encrypted) body and only applies
	// when an encrypt key is configured.
	if setting.LarkEncryptKey != "" {
		timestamp := c.Request().Header.Get("X-Lark-Request-Timestamp")
		nonce := c.Request().Header.Get("X-Lark-Request-Nonce")
		signature := c.Request().Header.Get("X-Lark-Signature")
		if !platform.VerifyLarkSignature(body, timestamp, nonce, signature, setting.LarkEncryptKey) {
			log.Warn("Lark signature verification failed")
			prometheus.RecordWebhookEvent(platform.SourceLark, "auth_failed")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
		}
	}

	if setting.CompanyID == nil {
		prometheus.RecordWebhookEvent(platform.SourceLark, "config_missing")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lark settings not bound to a company"})
	}

	var company model.Company
	if err := database.GetDB().Where("id = ? AND is_active = ?", *setting.CompanyID, true).First(&company).Error; err != nil {
		log.Warn("Lark settings mapped to inactive company", zap.Uint("company_id", *setting.CompanyID))
		prometheus.RecordWebhookEvent(platform.SourceLark, "auth_failed")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "company inactive"})
	}

	msg := platform.ParseLarkEvent(payload)
	if msg == nil {
		prometheus.RecordWebhookEvent(platform.SourceLark, "skipped")
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	}

	senderName := profiles.LarkSenderName(msg.SenderID, setting.LarkAppID, setting.LarkAppSecret)

	outcome, _, err := processMessage(c, &company, setting, msg, senderName)
	if err != nil {
		log.Error("Failed to process lark message", zap.Error(err))
		prometheus.RecordWebhookEvent(platform.SourceLark, "error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	prometheus.RecordWebhookEvent(platform.SourceLark, outcome)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
