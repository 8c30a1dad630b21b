package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"taskhook-service/internal/model"
	"taskhook-service/pkg/database"
	"taskhook-service/pkg/logger"
	"taskhook-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListRooms handles GET /api/rooms, optionally filtered by source and
// active flag. This is the approval queue: rooms discovered from platform
// events sit here inactive until an admin enables them.
func ListRooms(c echo.Context) error {
	log := logger.FromContext(c)

	user, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	query := database.GetDB().Order("created_at DESC")
	if user.CompanyID != nil {
		query = query.Where("company_id = ?", *user.CompanyID)
	} else if user.UserType != model.UserTypeSystemAdmin {
		return c.JSON(http.StatusOK, echo.Map{"rooms": []model.Room{}})
	}

	if source := c.QueryParam("source"); source != "" {
		query = query.Where("source = ?", source)
	}
	if active := c.QueryParam("active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var rooms []model.Room
	if err := query.Find(&rooms).Error; err != nil {
		log.Error("Failed to list rooms", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list rooms"})
	}

	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// UpdateRoom handles PATCH /api/rooms/:id: admin-only activation toggle
// and rename.
func UpdateRoom(c echo.Context) error {
	log := logger.FromContext(c)

	user, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !user.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin privileges required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room ID"})
	}

	var room model.Room
	if err := database.GetDB().First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if user.UserType != model.UserTypeSystemAdmin &&
		(user.CompanyID == nil || *user.CompanyID != room.CompanyID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		IsActive *bool   `json:"is_active"`
		RoomName *string `json:"room_name"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.RoomName != nil {
		updates["room_name"] = *req.RoomName
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&room).Updates(updates).Error; err != nil {
		log.Error("Failed to update room", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update room"})
	}

	refreshActiveRoomsGauge()

	log.Info("Room updated",
		zap.Uint("room_id", room.ID),
		zap.String("source", room.Source),
		zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"room": room})
}

func refreshActiveRoomsGauge() {
	var count int64
	if err := database.GetDB().Model(&model.Room{}).Where("is_active = ?", true).Count(&count).Error; err == nil {
		prometheus.ActiveRoomsGauge.Set(float64(count))
	}
}
