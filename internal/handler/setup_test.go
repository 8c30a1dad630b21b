package handler

import (
	"encoding/base64"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskhook-service/internal/model"
	"taskhook-service/pkg/config"
	"taskhook-service/pkg/database"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTest opens a fresh in-memory database and wires the handler package
// against it.
func setupTest(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.SetDB(db)

	Init(&config.Config{
		Outbound: config.OutboundConfig{
			Timeout:     time.Second,
			MailAPIURL:  "http://127.0.0.1:1/unreachable",
			MailTimeout: time.Second,
		},
	})

	return db
}

var chatworkTestToken = base64.StdEncoding.EncodeToString([]byte("chatwork-secret"))

// seedTenant creates a company with chatwork settings and one room
func seedTenant(t *testing.T, db *gorm.DB, roomActive bool) *model.Company {
	t.Helper()

	company := &model.Company{
		Name:         "Acme",
		Slug:         "acme",
		WebhookToken: "tok-acme",
		IsActive:     true,
	}
	require.NoError(t, db.Create(company).Error)

	require.NoError(t, db.Create(&model.Setting{
		CompanyID:            &company.ID,
		ChatworkWebhookToken: chatworkTestToken,
	}).Error)

	require.NoError(t, db.Create(&model.Room{
		RoomID:    "123",
		RoomName:  "general",
		Source:    "chatwork",
		IsActive:  roomActive,
		CompanyID: company.ID,
	}).Error)

	return company
}

// seedUser creates an active user with a bcrypt password
func seedUser(t *testing.T, db *gorm.DB, email, userType string, companyID *uint) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{
		CompanyID: companyID,
		Email:     email,
		Password:  string(hash),
		Name:      email,
		UserType:  userType,
		IsActive:  true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// newJSONContext builds an echo context carrying a JSON body
func newJSONContext(method, target, body string, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// asUser marks the context as authenticated, mirroring the auth middleware
func asUser(c echo.Context, user *model.User) {
	c.Set("user_id", user.ID)
	c.Set("email", user.Email)
	c.Set("user_type", user.UserType)
	if user.CompanyID != nil {
		c.Set("company_id", *user.CompanyID)
	}
}
