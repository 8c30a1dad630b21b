package platform

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// larkEnvelope covers both the event_v2 schema and the plain handshake
// payload. Handshake requests carry token/challenge at the top level;
// regular events carry the token inside the header.
type larkEnvelope struct {
	Type      string     `json:"type"`
	Token     string     `json:"token"`
	Challenge string     `json:"challenge"`
	Header    larkHeader `json:"header"`
	Event     larkEvent  `json:"event"`
}

type larkHeader struct {
	EventType string `json:"event_type"`
	Token     string `json:"token"`
}

type larkEvent struct {
	Sender struct {
		SenderID struct {
			OpenID string `json:"open_id"`
		} `json:"sender_id"`
		SenderType string `json:"sender_type"`
	} `json:"sender"`
	Message struct {
		MessageID   string        `json:"message_id"`
		ChatID      string        `json:"chat_id"`
		ChatType    string        `json:"chat_type"`
		MessageType string        `json:"message_type"`
		Content     string        `json:"content"`
		Mentions    []larkMention `json:"mentions"`
	} `json:"message"`
}

type larkMention struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// larkTextContent is the second-parse shape for text messages
type larkTextContent struct {
	Text string `json:"text"`
}

// larkPostContent is the second-parse shape for rich post messages
type larkPostContent struct {
	Title   string              `json:"title"`
	Content [][]json.RawMessage `json:"content"`
}

type larkPostElement struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

// DecryptLarkPayload decrypts an "encrypt" ciphertext: AES-256-CBC with
// SHA-256(encryptKey) as key and the first 16 bytes of the Base64-decoded
// data as IV, PKCS#7 padded.
func DecryptLarkPayload(encrypted, encryptKey string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, err
	}
	if len(data) < aes.BlockSize {
		return nil, errors.New("ciphertext shorter than one block")
	}

	key := sha256.Sum256([]byte(encryptKey))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}

	iv := data[:aes.BlockSize]
	ciphertext := data[aes.BlockSize:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("invalid ciphertext length")
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	// Strip PKCS#7 padding
	padLen := int(plaintext[len(plaintext)-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > len(plaintext) {
		return nil, errors.New("invalid padding")
	}
	return plaintext[:len(plaintext)-padLen], nil
}

// VerifyLarkSignature checks X-Lark-Signature:
// hex(SHA256(timestamp + nonce + encryptKey + rawBody)).
func VerifyLarkSignature(body []byte, timestamp, nonce, signature, encryptKey string) bool {
	if timestamp == "" || nonce == "" || signature == "" || encryptKey == "" {
		return false
	}

	h := sha256.New()
	h.Write([]byte(timestamp))
	h.Write([]byte(nonce))
	h.Write([]byte(encryptKey))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))

	return signature == expected
}

// LarkToken returns the verification token carried by the payload: the
// top-level token for handshake requests, the header token for events.
func LarkToken(body []byte) string {
	var envelope larkEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Token != "" {
		return envelope.Token
	}
	return envelope.Header.Token
}

// LarkChallenge returns the challenge of a url_verification handshake, or
// "" for regular events. Callers decrypt first when the body is encrypted.
func LarkChallenge(body []byte) string {
	var envelope larkEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Type == "url_verification" {
		return envelope.Challenge
	}
	return ""
}

// ParseLarkEvent converts an im.message.receive_v1 event into a normalized
// message. The message content is itself a JSON string keyed by
// message_type; mention placeholders are removed by their literal keys.
func ParseLarkEvent(body []byte) *NormalizedMessage {
	var envelope larkEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	if envelope.Header.EventType != "im.message.receive_v1" {
		return nil
	}

	message := envelope.Event.Message
	if message.MessageID == "" || message.ChatID == "" {
		return nil
	}

	text := larkMessageText(message.MessageType, message.Content)
	if text == "" {
		return nil
	}

	for _, mention := range message.Mentions {
		if mention.Key != "" {
			text = strings.ReplaceAll(text, mention.Key, "")
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	return &NormalizedMessage{
		RoomID:    message.ChatID,
		MessageID: message.MessageID,
		Text:      text,
		SenderID:  envelope.Event.Sender.SenderID.OpenID,
		Source:    SourceLark,
	}
}

// larkMessageText performs the second parse of the content field
func larkMessageText(messageType, content string) string {
	switch messageType {
	case "text":
		var text larkTextContent
		if err := json.Unmarshal([]byte(content), &text); err != nil {
			return ""
		}
		return text.Text
	case "post":
		var post larkPostContent
		if err := json.Unmarshal([]byte(content), &post); err != nil {
			return ""
		}
		if post.Title != "" {
			return post.Title
		}
		var parts []string
		for _, line := range post.Content {
			for _, raw := range line {
				var element larkPostElement
				if err := json.Unmarshal(raw, &element); err != nil {
					continue
				}
				if element.Tag == "text" && element.Text != "" {
					parts = append(parts, element.Text)
				}
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}
