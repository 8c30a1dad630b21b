package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

var teamsSecret = base64.StdEncoding.EncodeToString([]byte("teams-security-token"))

func signTeams(body []byte, secret string) string {
	key, _ := base64.StdEncoding.DecodeString(secret)
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return "HMAC " + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyTeamsSignatureRoundTrip(t *testing.T) {
	body := []byte(`{"type":"message","text":"hi"}`)
	assert.True(t, VerifyTeamsSignature(body, signTeams(body, teamsSecret), teamsSecret))
}

func TestVerifyTeamsSignatureRejectsMutation(t *testing.T) {
	body := []byte(`{"type":"message","text":"hi"}`)
	sig := signTeams(body, teamsSecret)

	mutated := append([]byte{}, body...)
	mutated[len(mutated)-1] ^= 0x01
	assert.False(t, VerifyTeamsSignature(mutated, sig, teamsSecret))
	assert.False(t, VerifyTeamsSignature(body, "Bearer abc", teamsSecret))
	assert.False(t, VerifyTeamsSignature(body, sig, ""))
}

func TestParseTeamsActivityStripsMentionsAndHTML(t *testing.T) {
	body := []byte(`{
		"type": "message",
		"id": "1485983408511",
		"text": "<at>TaskBot</at> <p>【緊急】respond &amp; escalate</p>",
		"from": {"id": "29:abc", "name": "Taro Yamada"},
		"conversation": {"id": "19:meeting_x@thread.v2;messageid=136"}
	}`)

	msg := ParseTeamsActivity(body)
	assert.NotNil(t, msg)
	assert.Equal(t, "【緊急】respond & escalate", msg.Text)
	// conversation id is truncated at the first ";" so per-message payloads
	// do not create a distinct room
	assert.Equal(t, "19:meeting_x@thread.v2", msg.RoomID)
	assert.Equal(t, "1485983408511", msg.MessageID)
	assert.Equal(t, "29:abc", msg.SenderID)
	assert.Equal(t, SourceTeams, msg.Source)
}

func TestParseTeamsActivitySkipsNonMessages(t *testing.T) {
	assert.Nil(t, ParseTeamsActivity([]byte(`{"type":"conversationUpdate"}`)))
	assert.Nil(t, ParseTeamsActivity([]byte(`{"type":"message","text":"<at>bot</at>","conversation":{"id":"19:x"}}`)))
	assert.Nil(t, ParseTeamsActivity([]byte(`broken`)))
}

func TestStripTeamsTextEntities(t *testing.T) {
	assert.Equal(t, `a < b > "c" & d`, StripTeamsText("a &lt; b &gt; &quot;c&quot; &amp;&nbsp;d"))
}

func TestTeamsSenderName(t *testing.T) {
	body := []byte(`{"type":"message","from":{"id":"29:abc","name":"Taro Yamada"}}`)
	assert.Equal(t, "Taro Yamada", TeamsSenderName(body))
	assert.Equal(t, "", TeamsSenderName([]byte(`broken`)))
}
