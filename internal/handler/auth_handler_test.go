package handler

import (
	"net/http"
	"testing"

	"taskhook-service/internal/model"
	"taskhook-service/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginIssuesTenantToken(t *testing.T) {
	db := setupTest(t)
	company := seedTenant(t, db, true)
	seedUser(t, db, "admin@acme.test", model.UserTypeAdmin, &company.ID)

	c, rec := newJSONContext(http.MethodPost, "/auth/login",
		`{"email":"admin@acme.test","password":"password123"}`, nil)
	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := (&httptestResponse{Code: rec.Code, Body: rec.Body.Bytes()}).JSON(t)
	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)

	claims, err := jwtutil.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@acme.test", claims.Email)
	assert.Equal(t, model.UserTypeAdmin, claims.UserType)
	require.NotNil(t, claims.CompanyID)
	assert.Equal(t, company.ID, *claims.CompanyID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	db := setupTest(t)
	company := seedTenant(t, db, true)
	seedUser(t, db, "admin@acme.test", model.UserTypeAdmin, &company.ID)

	c, rec := newJSONContext(http.MethodPost, "/auth/login",
		`{"email":"admin@acme.test","password":"wrong"}`, nil)
	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	db := setupTest(t)
	company := seedTenant(t, db, true)
	user := seedUser(t, db, "admin@acme.test", model.UserTypeAdmin, &company.ID)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	c, rec := newJSONContext(http.MethodPost, "/auth/login",
		`{"email":"admin@acme.test","password":"password123"}`, nil)
	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
