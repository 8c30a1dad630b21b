package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strconv"
)

// chatworkEnvelope is the Chatwork webhook payload
type chatworkEnvelope struct {
	WebhookEventType string        `json:"webhook_event_type"`
	WebhookEvent     chatworkEvent `json:"webhook_event"`
}

type chatworkEvent struct {
	RoomID    int64  `json:"room_id"`
	MessageID string `json:"message_id"`
	AccountID int64  `json:"account_id"`
	Body      string `json:"body"`
}

// VerifyChatworkSignature checks the X-ChatWorkWebhookSignature header.
// The HMAC-SHA256 key is the Base64-decoded webhook token and the signature
// is delivered Base64-encoded; Chatwork specifies plain string equality of
// the Base64 forms.
func VerifyChatworkSignature(body []byte, signature, webhookToken string) bool {
	if signature == "" || webhookToken == "" {
		return false
	}

	key, err := base64.StdEncoding.DecodeString(webhookToken)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return signature == expected
}

// ParseChatworkEvent converts a Chatwork webhook payload into a normalized
// message. Only message_created events produce one.
func ParseChatworkEvent(body []byte) *NormalizedMessage {
	var envelope chatworkEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	if envelope.WebhookEventType != "message_created" {
		return nil
	}

	event := envelope.WebhookEvent
	if event.MessageID == "" || event.Body == "" {
		return nil
	}

	return &NormalizedMessage{
		RoomID:    strconv.FormatInt(event.RoomID, 10),
		MessageID: event.MessageID,
		Text:      event.Body,
		SenderID:  strconv.FormatInt(event.AccountID, 10),
		Source:    SourceChatwork,
	}
}
