package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
)

// teamsActivity is the subset of the Bot Framework activity we consume
type teamsActivity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Text string `json:"text"`
	From struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"from"`
	Conversation struct {
		ID string `json:"id"`
	} `json:"conversation"`
}

var (
	teamsAtTagPattern = regexp.MustCompile(`<at>.*?</at>`)
	teamsHTMLPattern  = regexp.MustCompile(`<[^>]+>`)
)

// VerifyTeamsSignature checks the Authorization header of an outgoing
// webhook call. Teams sends "HMAC <base64>", computed as HMAC-SHA256 over
// the raw body with the Base64-decoded security token as key. Comparison is
// constant time after a length check.
func VerifyTeamsSignature(body []byte, authHeader, secret string) bool {
	if authHeader == "" || secret == "" {
		return false
	}

	const prefix = "HMAC "
	if !strings.HasPrefix(authHeader, prefix) {
		return false
	}

	provided, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authHeader, prefix))
	if err != nil {
		return false
	}

	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	expected := mac.Sum(nil)

	if len(provided) != len(expected) {
		return false
	}
	return hmac.Equal(provided, expected)
}

// ParseTeamsActivity converts a Bot Framework activity into a normalized
// message. Mention tags and HTML are stripped and the conversation id is
// truncated at the first ";": Teams appends ";messageid=..." for
// per-message payloads and that suffix must not create a distinct room.
func ParseTeamsActivity(body []byte) *NormalizedMessage {
	var activity teamsActivity
	if err := json.Unmarshal(body, &activity); err != nil {
		return nil
	}

	if activity.Type != "message" {
		return nil
	}

	text := StripTeamsText(activity.Text)
	if text == "" {
		return nil
	}

	roomID := activity.Conversation.ID
	if idx := strings.Index(roomID, ";"); idx >= 0 {
		roomID = roomID[:idx]
	}
	if roomID == "" {
		return nil
	}

	return &NormalizedMessage{
		RoomID:    roomID,
		MessageID: activity.ID,
		Text:      text,
		SenderID:  activity.From.ID,
		Source:    SourceTeams,
	}
}

// TeamsSenderName returns the display name embedded in the activity, so
// Teams needs no profile API round trip.
func TeamsSenderName(body []byte) string {
	var activity teamsActivity
	if err := json.Unmarshal(body, &activity); err != nil {
		return ""
	}
	return activity.From.Name
}

// StripTeamsText removes <at> mention tags and remaining HTML, then decodes
// the basic entities Teams emits.
func StripTeamsText(text string) string {
	text = teamsAtTagPattern.ReplaceAllString(text, "")
	text = teamsHTMLPattern.ReplaceAllString(text, "")

	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
	)
	text = replacer.Replace(text)

	return strings.TrimSpace(text)
}
