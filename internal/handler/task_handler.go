package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"taskhook-service/internal/model"
	"taskhook-service/internal/notify"
	"taskhook-service/internal/permission"
	"taskhook-service/pkg/database"
	"taskhook-service/pkg/logger"
	"taskhook-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var validStatuses = map[string]bool{
	model.TaskStatusPending:    true,
	model.TaskStatusInProgress: true,
	model.TaskStatusCompleted:  true,
}

var validPriorities = map[string]bool{
	model.TaskPriorityHigh:   true,
	model.TaskPriorityMedium: true,
	model.TaskPriorityLow:    true,
}

// ListTasks handles GET /api/tasks: tenant-scoped, then narrowed to what
// the caller's role permissions allow them to see.
func ListTasks(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("list")

	user, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := database.GetDB().Order("created_at DESC")
	if user.CompanyID != nil {
		query = query.Where("company_id = ?", *user.CompanyID)
	} else if user.UserType != model.UserTypeSystemAdmin {
		// a tenant user without a company sees nothing
		return c.JSON(http.StatusOK, echo.Map{"tasks": []model.Task{}})
	}

	var tasks []model.Task
	if err := query.Find(&tasks).Error; err != nil {
		log.Error("Failed to list tasks", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list tasks"})
	}

	filtered, err := permission.FilterTasksByPermission(database.GetDB(), user, tasks)
	if err != nil {
		log.Error("Failed to filter tasks by permission", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list tasks"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tasks": filtered})
}

// CreateTask handles POST /api/tasks: manual creation by tenant admins.
// This legacy path performs no idempotency check; the generated message id
// keeps manual tasks clear of the webhook unique index.
func CreateTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("create")

	user, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !user.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin privileges required"})
	}
	if user.CompanyID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no company context"})
	}

	var req struct {
		RoomID          string `json:"room_id"`
		Content         string `json:"content"`
		OriginalMessage string `json:"original_message"`
		SenderName      string `json:"sender_name"`
		Priority        string `json:"priority"`
		Source          string `json:"source"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Content == "" || req.RoomID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id and content are required"})
	}
	if req.Priority == "" {
		req.Priority = model.TaskPriorityMedium
	}
	if !validPriorities[req.Priority] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid priority"})
	}
	if req.Source == "" {
		req.Source = "chatwork"
	}

	task := model.Task{
		RoomID:          req.RoomID,
		MessageID:       "manual-" + uuid.New().String(),
		Content:         req.Content,
		OriginalMessage: req.OriginalMessage,
		SenderName:      req.SenderName,
		Status:          model.TaskStatusPending,
		Priority:        req.Priority,
		Source:          req.Source,
		CompanyID:       *user.CompanyID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&task).Error; err != nil {
		log.Error("Failed to create task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create task"})
	}

	log.Info("Task created manually", zap.Uint("task_id", task.ID), zap.Uint("user_id", user.ID))

	if setting, err := settingsForCompany(user.CompanyID); err == nil {
		notifier.Dispatch(setting, notify.EventTaskCreated, &task)
	}

	return c.JSON(http.StatusCreated, echo.Map{"task": task})
}

// loadTenantTask fetches the task and enforces tenant isolation: absent
// tasks are 404, cross-tenant access is 403.
func loadTenantTask(c echo.Context, user *model.User) (*model.Task, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	var task model.Task
	if err := database.GetDB().First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if user.UserType != model.UserTypeSystemAdmin &&
		(user.CompanyID == nil || *user.CompanyID != task.CompanyID) {
		return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	return &task, nil
}

// UpdateTask handles PATCH /api/tasks/:id. A status change requires the
// edit capability; a memo-only change requires view.
func UpdateTask(c echo.Context) error {
	log := logger.FromContext(c)

	user, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	task, errResp := loadTenantTask(c, user)
	if task == nil {
		return errResp
	}

	var req struct {
		Status *string `json:"status"`
		Memo   *string `json:"memo"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Status == nil && req.Memo == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	decision, err := permission.CheckTaskPermission(database.GetDB(), user, task.RoomID, task.Source)
	if err != nil {
		log.Error("Failed to resolve permissions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	updates := map[string]interface{}{}

	if req.Status != nil {
		if !decision.CanEditStatus {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "No edit permission"})
		}
		if !validStatuses[*req.Status] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		updates["status"] = *req.Status
		prometheus.RecordTaskOperation("update_status")
	}

	if req.Memo != nil {
		if !decision.CanView {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "No view permission"})
		}
		updates["memo"] = *req.Memo
		prometheus.RecordTaskOperation("update_memo")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(task).Updates(updates).Error; err != nil {
		log.Error("Failed to update task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update task"})
	}

	if req.Status != nil && *req.Status == model.TaskStatusCompleted {
		if setting, err := settingsForCompany(&task.CompanyID); err == nil {
			notifier.Dispatch(setting, notify.EventTaskCompleted, task)
		}
	}

	log.Info("Task updated", zap.Uint("task_id", task.ID), zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"task": task})
}

// DeleteTask handles DELETE /api/tasks/:id
func DeleteTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("delete")

	user, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	task, errResp := loadTenantTask(c, user)
	if task == nil {
		return errResp
	}

	decision, err := permission.CheckTaskPermission(database.GetDB(), user, task.RoomID, task.Source)
	if err != nil {
		log.Error("Failed to resolve permissions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if !decision.CanDelete {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "No delete permission"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(task).Error; err != nil {
		log.Error("Failed to delete task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete task"})
	}

	if setting, err := settingsForCompany(&task.CompanyID); err == nil {
		notifier.Dispatch(setting, notify.EventTaskDeleted, task)
	}

	log.Info("Task deleted", zap.Uint("task_id", task.ID), zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Task deleted successfully"})
}

// DeleteCompletedTasks handles DELETE /api/tasks/completed: an admin-only
// bulk purge of the tenant's completed tasks.
func DeleteCompletedTasks(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("bulk_delete")

	user, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !user.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin privileges required"})
	}
	if user.CompanyID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no company context"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().
		Where("company_id = ? AND status = ?", *user.CompanyID, model.TaskStatusCompleted).
		Delete(&model.Task{})
	if result.Error != nil {
		log.Error("Failed to purge completed tasks", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete tasks"})
	}

	log.Info("Completed tasks purged",
		zap.Int64("deleted", result.RowsAffected),
		zap.Uint("company_id", *user.CompanyID))
	return c.JSON(http.StatusOK, echo.Map{"deleted": result.RowsAffected})
}
