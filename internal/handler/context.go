package handler

import (
	"errors"

	"taskhook-service/internal/model"
	"taskhook-service/pkg/database"

	"github.com/labstack/echo/v4"
)

var errUnauthenticated = errors.New("authentication required")

// currentUser loads the authenticated user set by the auth middleware
func currentUser(c echo.Context) (*model.User, error) {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return nil, errUnauthenticated
	}

	var user model.User
	if err := database.GetDB().Where("id = ? AND is_active = ?", userID, true).First(&user).Error; err != nil {
		return nil, errUnauthenticated
	}
	return &user, nil
}
