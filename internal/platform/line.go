package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
)

// lineEnvelope is the LINE Messaging API webhook payload; one call may
// carry multiple events.
type lineEnvelope struct {
	Events []LineEvent `json:"events"`
}

// LineEvent is a single webhook event
type LineEvent struct {
	Type   string `json:"type"`
	Source struct {
		Type    string `json:"type"`
		GroupID string `json:"groupId"`
		UserID  string `json:"userId"`
	} `json:"source"`
	Message struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

// VerifyLineSignature checks X-Line-Signature: Base64(HMAC-SHA256(body))
// keyed with the channel secret, compared in constant time after a length
// check.
func VerifyLineSignature(body []byte, signature, channelSecret string) bool {
	if signature == "" || channelSecret == "" {
		return false
	}

	provided, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	expected := mac.Sum(nil)

	if len(provided) != len(expected) {
		return false
	}
	return hmac.Equal(provided, expected)
}

// ParseLineEvents splits a webhook call into its events
func ParseLineEvents(body []byte) []LineEvent {
	var envelope lineEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Events
}

// IsGroupJoin reports whether the event is the bot joining a group; such
// groups are registered as new, inactive rooms pending manual approval.
func (e *LineEvent) IsGroupJoin() bool {
	return e.Type == "join" && e.Source.Type == "group"
}

// Normalize converts a group text-message event into a normalized message.
// Only group-sourced text messages qualify; 1:1 and room chats are skipped.
func (e *LineEvent) Normalize() *NormalizedMessage {
	if e.Type != "message" || e.Source.Type != "group" || e.Message.Type != "text" {
		return nil
	}
	if e.Message.ID == "" || e.Source.GroupID == "" {
		return nil
	}

	return &NormalizedMessage{
		RoomID:    e.Source.GroupID,
		MessageID: e.Message.ID,
		Text:      e.Message.Text,
		SenderID:  e.Source.UserID,
		Source:    SourceLine,
	}
}
