package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// slackEnvelope is the Events API outer payload
type slackEnvelope struct {
	Type      string     `json:"type"`
	Token     string     `json:"token"`
	Challenge string     `json:"challenge"`
	TeamID    string     `json:"team_id"`
	Event     slackEvent `json:"event"`
}

type slackEvent struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	BotID   string `json:"bot_id"`
	User    string `json:"user"`
	Text    string `json:"text"`
	Channel string `json:"channel"`
	Ts      string `json:"ts"`
}

var slackMentionPattern = regexp.MustCompile(`<@[A-Z0-9]+(\|[^>]*)?>`)

// slackReplayWindow is the maximum accepted age of a request timestamp
const slackReplayWindow = 5 * time.Minute

// VerifySlackSignature checks X-Slack-Signature against
// "v0=" + hex(HMAC-SHA256(signingSecret, "v0:" + timestamp + ":" + body)).
// Requests whose timestamp is more than five minutes from now are rejected
// as replays. now is injected for testability; pass time.Now() in handlers.
func VerifySlackSignature(body []byte, timestamp, signature, signingSecret string, now time.Time) bool {
	if timestamp == "" || signature == "" || signingSecret == "" {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}

	age := now.Unix() - ts
	if age < 0 {
		age = -age
	}
	if age > int64(slackReplayWindow.Seconds()) {
		return false
	}

	base := "v0:" + timestamp + ":" + string(body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte(base))
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

// SlackChallenge returns the challenge value of a url_verification request,
// or "" when the payload is a regular event. Must be answered before any
// workspace lookup or signature branching on event types.
func SlackChallenge(body []byte) string {
	var envelope slackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Type == "url_verification" {
		return envelope.Challenge
	}
	return ""
}

// SlackTeamID extracts the workspace routing key from an event payload
func SlackTeamID(body []byte) string {
	var envelope slackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.TeamID
}

// ParseSlackEvent converts an Events API payload into a normalized message.
// Bot messages and subtype messages (edits, joins, ...) are skipped.
func ParseSlackEvent(body []byte) *NormalizedMessage {
	var envelope slackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	if envelope.Type != "event_callback" {
		return nil
	}

	event := envelope.Event
	if event.Type != "message" || event.Subtype != "" || event.BotID != "" {
		return nil
	}
	if event.User == "" || event.Channel == "" || event.Ts == "" {
		return nil
	}

	text := StripSlackMentions(event.Text)
	if text == "" {
		return nil
	}

	return &NormalizedMessage{
		RoomID:    event.Channel,
		MessageID: event.Ts,
		Text:      text,
		SenderID:  event.User,
		Source:    SourceSlack,
	}
}

// StripSlackMentions removes <@U123ABC> and <@U123ABC|name> tokens and
// collapses the leftover whitespace.
func StripSlackMentions(text string) string {
	text = slackMentionPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
