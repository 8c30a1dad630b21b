package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"testing"

	"taskhook-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const lineTestSecret = "line-channel-secret"

func signLineBody(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func seedLineTenant(t *testing.T, db *gorm.DB) *model.Company {
	t.Helper()

	company := &model.Company{
		Name:         "Acme",
		Slug:         "acme",
		WebhookToken: "tok-acme",
		IsActive:     true,
	}
	require.NoError(t, db.Create(company).Error)
	require.NoError(t, db.Create(&model.Setting{
		CompanyID:         &company.ID,
		LineChannelSecret: lineTestSecret,
	}).Error)
	return company
}

func postLine(t *testing.T, body string) int {
	t.Helper()

	c, rec := newJSONContext(http.MethodPost, "/webhook/line/tok-acme", body, map[string]string{
		"X-Line-Signature": signLineBody(body, lineTestSecret),
	})
	c.SetParamNames("token")
	c.SetParamValues("tok-acme")

	require.NoError(t, LineWebhook(c))
	return rec.Code
}

// Joining a group registers it inactive: the default-deny for newly
// discovered surfaces is deliberate, monitoring starts only after manual
// approval.
func TestLineJoinRegistersInactiveRoom(t *testing.T) {
	db := setupTest(t)
	seedLineTenant(t, db)

	code := postLine(t, `{"events":[{"type":"join","source":{"type":"group","groupId":"G1"}}]}`)
	assert.Equal(t, http.StatusOK, code)

	var room model.Room
	require.NoError(t, db.Where("room_id = ? AND source = ?", "G1", "line").First(&room).Error)
	assert.False(t, room.IsActive)
}

func TestLineMessageOnPendingRoomCreatesNoTask(t *testing.T) {
	db := setupTest(t)
	seedLineTenant(t, db)

	postLine(t, `{"events":[{"type":"join","source":{"type":"group","groupId":"G1"}}]}`)

	msgBody := `{"events":[{"type":"message","source":{"type":"group","groupId":"G1","userId":"U1"},"message":{"id":"m1","type":"text","text":"【緊急】pay the invoice"}}]}`
	code := postLine(t, msgBody)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(0), countTasks(t, db))

	// after approval the same message creates a task
	require.NoError(t, db.Model(&model.Room{}).Where("room_id = ?", "G1").Update("is_active", true).Error)
	code = postLine(t, msgBody)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1), countTasks(t, db))

	var task model.Task
	require.NoError(t, db.First(&task).Error)
	assert.Equal(t, "pay the invoice", task.Content)
	assert.Equal(t, model.TaskPriorityHigh, task.Priority)
}

func TestLineMultipleEventsInOneDelivery(t *testing.T) {
	db := setupTest(t)
	company := seedLineTenant(t, db)
	require.NoError(t, db.Create(&model.Room{
		RoomID: "G2", Source: "line", IsActive: true, CompanyID: company.ID,
	}).Error)

	body := `{"events":[
		{"type":"message","source":{"type":"group","groupId":"G2","userId":"U1"},"message":{"id":"m1","type":"text","text":"【依頼】draft the contract"}},
		{"type":"message","source":{"type":"group","groupId":"G2","userId":"U2"},"message":{"id":"m2","type":"text","text":"no tag here"}},
		{"type":"message","source":{"type":"user","userId":"U3"},"message":{"id":"m3","type":"text","text":"【緊急】direct message"}}
	]}`
	code := postLine(t, body)
	assert.Equal(t, http.StatusOK, code)

	// only the tagged group message produced a task; 1:1 chats are skipped
	assert.Equal(t, int64(1), countTasks(t, db))
}

func TestLineBadSignature(t *testing.T) {
	db := setupTest(t)
	seedLineTenant(t, db)

	body := `{"events":[{"type":"join","source":{"type":"group","groupId":"G9"}}]}`
	c, rec := newJSONContext(http.MethodPost, "/webhook/line/tok-acme", body, map[string]string{
		"X-Line-Signature": signLineBody(body, "wrong-secret"),
	})
	c.SetParamNames("token")
	c.SetParamValues("tok-acme")

	require.NoError(t, LineWebhook(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var n int64
	require.NoError(t, db.Model(&model.Room{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}
