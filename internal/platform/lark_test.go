package platform

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

const larkEncryptKey = "test-encrypt-key"

// encryptLark mirrors the platform's AES-256-CBC scheme for tests
func encryptLark(t *testing.T, plaintext []byte, encryptKey string) string {
	t.Helper()

	key := sha256.Sum256([]byte(encryptKey))
	block, err := aes.NewCipher(key[:])
	assert.NoError(t, err)

	padLen := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := append(append([]byte{}, plaintext...), bytes.Repeat([]byte{byte(padLen)}, padLen)...)

	iv := make([]byte, aes.BlockSize)
	_, err = rand.Read(iv)
	assert.NoError(t, err)

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(append(iv, ciphertext...))
}

func TestDecryptLarkPayloadRoundTrip(t *testing.T) {
	plaintext := []byte(`{"challenge":"abc123","token":"v-token","type":"url_verification"}`)
	encrypted := encryptLark(t, plaintext, larkEncryptKey)

	decrypted, err := DecryptLarkPayload(encrypted, larkEncryptKey)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptLarkPayloadWrongKey(t *testing.T) {
	encrypted := encryptLark(t, []byte(`{"challenge":"abc"}`), larkEncryptKey)

	decrypted, err := DecryptLarkPayload(encrypted, "wrong-key")
	if err == nil {
		// wrong key yields garbage, never the original JSON
		assert.NotContains(t, string(decrypted), "challenge")
	}

	_, err = DecryptLarkPayload("%%%not-base64%%%", larkEncryptKey)
	assert.Error(t, err)

	_, err = DecryptLarkPayload(base64.StdEncoding.EncodeToString([]byte("short")), larkEncryptKey)
	assert.Error(t, err)
}

func TestVerifyLarkSignatureRoundTrip(t *testing.T) {
	body := []byte(`{"encrypt":"zzz"}`)
	timestamp := "1700000000"
	nonce := "n-123"

	h := sha256.New()
	h.Write([]byte(timestamp + nonce + larkEncryptKey))
	h.Write(body)
	sig := hex.EncodeToString(h.Sum(nil))

	assert.True(t, VerifyLarkSignature(body, timestamp, nonce, sig, larkEncryptKey))
	assert.False(t, VerifyLarkSignature(body, timestamp, "other-nonce", sig, larkEncryptKey))
	assert.False(t, VerifyLarkSignature([]byte(`{"encrypt":"yyy"}`), timestamp, nonce, sig, larkEncryptKey))
}

func TestLarkChallengeAndToken(t *testing.T) {
	handshake := []byte(`{"challenge":"c-1","token":"v-token","type":"url_verification"}`)
	assert.Equal(t, "c-1", LarkChallenge(handshake))
	assert.Equal(t, "v-token", LarkToken(handshake))

	event := []byte(`{"header":{"event_type":"im.message.receive_v1","token":"v-token"},"event":{}}`)
	assert.Equal(t, "", LarkChallenge(event))
	assert.Equal(t, "v-token", LarkToken(event))
}

func larkMessageBody(messageType, content, mentions string) []byte {
	return []byte(fmt.Sprintf(`{
		"header": {"event_type": "im.message.receive_v1", "token": "v-token"},
		"event": {
			"sender": {"sender_id": {"open_id": "ou_123"}, "sender_type": "user"},
			"message": {
				"message_id": "om_1", "chat_id": "oc_1", "chat_type": "group",
				"message_type": %q, "content": %q, "mentions": %s
			}
		}
	}`, messageType, content, mentions))
}

func TestParseLarkEventText(t *testing.T) {
	body := larkMessageBody("text", `{"text":"@_user_1 【確認】review the doc"}`,
		`[{"key":"@_user_1","name":"TaskBot"}]`)

	msg := ParseLarkEvent(body)
	assert.NotNil(t, msg)
	assert.Equal(t, "【確認】review the doc", msg.Text)
	assert.Equal(t, "oc_1", msg.RoomID)
	assert.Equal(t, "om_1", msg.MessageID)
	assert.Equal(t, "ou_123", msg.SenderID)
	assert.Equal(t, SourceLark, msg.Source)
}

func TestParseLarkEventPostTitle(t *testing.T) {
	body := larkMessageBody("post", `{"title":"【依頼】prepare slides","content":[[{"tag":"text","text":"details"}]]}`, `[]`)

	msg := ParseLarkEvent(body)
	assert.NotNil(t, msg)
	assert.Equal(t, "【依頼】prepare slides", msg.Text)
}

func TestParseLarkEventPostFlattensTextElements(t *testing.T) {
	content := `{"title":"","content":[[{"tag":"text","text":"first"},{"tag":"a","text":"link","href":"https://x"}],[{"tag":"text","text":"second"}]]}`
	body := larkMessageBody("post", content, `[]`)

	msg := ParseLarkEvent(body)
	assert.NotNil(t, msg)
	assert.Equal(t, "first second", msg.Text)
}

func TestParseLarkEventSkips(t *testing.T) {
	// non-message event type
	other := []byte(`{"header":{"event_type":"im.chat.member.bot.added_v1"},"event":{}}`)
	assert.Nil(t, ParseLarkEvent(other))

	// image messages have no extractable text
	image := larkMessageBody("image", `{"image_key":"img_1"}`, `[]`)
	assert.Nil(t, ParseLarkEvent(image))

	// a message that is only a mention becomes empty after stripping
	onlyMention := larkMessageBody("text", `{"text":"@_user_1"}`, `[{"key":"@_user_1"}]`)
	assert.Nil(t, ParseLarkEvent(onlyMention))
}

// sanity check that an encrypted event decrypts into a parseable payload
func TestLarkEncryptedEventEndToEnd(t *testing.T) {
	inner := larkMessageBody("text", `{"text":"【緊急】server down"}`, `[]`)
	encrypted := encryptLark(t, inner, larkEncryptKey)

	outer, err := json.Marshal(map[string]string{"encrypt": encrypted})
	assert.NoError(t, err)

	var envelope struct {
		Encrypt string `json:"encrypt"`
	}
	assert.NoError(t, json.Unmarshal(outer, &envelope))

	decrypted, err := DecryptLarkPayload(envelope.Encrypt, larkEncryptKey)
	assert.NoError(t, err)

	msg := ParseLarkEvent(decrypted)
	assert.NotNil(t, msg)
	assert.Equal(t, "【緊急】server down", msg.Text)
}
