package permission

import (
	"taskhook-service/internal/model"

	"gorm.io/gorm"
)

// Decision holds the resolved capabilities for a (user, room, source) triple.
type Decision struct {
	CanView       bool `json:"can_view"`
	CanEditStatus bool `json:"can_edit_status"`
	CanDelete     bool `json:"can_delete"`
}

var allGranted = Decision{CanView: true, CanEditStatus: true, CanDelete: true}

// Resolve picks the single best-matching permission row for the target room
// and source. Rows naming a different room or source are disqualified; the
// rest are scored by specificity (exact room = 2, wildcard = 1, same for
// source) and the flags of the highest-scoring row are returned verbatim.
// On exact score ties the first-seen row wins. No surviving row means no
// permissions at all.
func Resolve(perms []model.RolePermission, roomID, source string) Decision {
	bestScore := 0
	var best *model.RolePermission

	for i := range perms {
		p := &perms[i]
		if p.RoomID != nil && *p.RoomID != roomID {
			continue
		}
		if p.Source != nil && *p.Source != source {
			continue
		}

		score := 1
		if p.RoomID != nil {
			score = 2
		}
		if p.Source != nil {
			score += 2
		} else {
			score++
		}

		if score > bestScore {
			bestScore = score
			best = p
		}
	}

	if best == nil {
		return Decision{}
	}
	return Decision{
		CanView:       best.CanView,
		CanEditStatus: best.CanEditStatus,
		CanDelete:     best.CanDelete,
	}
}

// CanViewAny reports whether any matching permission row grants view access.
// This is deliberately looser than Resolve: a wildcard row with can_view
// grants visibility even when a more specific row without it would win the
// scored match. Task list filtering keeps this any-match contract.
func CanViewAny(perms []model.RolePermission, roomID, source string) bool {
	for i := range perms {
		p := &perms[i]
		if p.RoomID != nil && *p.RoomID != roomID {
			continue
		}
		if p.Source != nil && *p.Source != source {
			continue
		}
		if p.CanView {
			return true
		}
	}
	return false
}

// loadUserPermissions fetches all permission rows reachable through the
// user's assigned roles.
func loadUserPermissions(db *gorm.DB, userID uint) ([]model.RolePermission, error) {
	var perms []model.RolePermission
	err := db.
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ? AND user_roles.deleted_at IS NULL", userID).
		Find(&perms).Error
	return perms, err
}

// CheckTaskPermission resolves the capabilities a user holds on a single
// task identified by room and source. Admins and system admins always get
// everything.
func CheckTaskPermission(db *gorm.DB, user *model.User, roomID, source string) (Decision, error) {
	if user.IsAdmin() {
		return allGranted, nil
	}

	perms, err := loadUserPermissions(db, user.ID)
	if err != nil {
		return Decision{}, err
	}
	return Resolve(perms, roomID, source), nil
}

// FilterTasksByPermission returns the subset of tasks the user may see.
// Admins see everything; regular users see each task whose (room, source)
// is granted view by any matching permission row.
func FilterTasksByPermission(db *gorm.DB, user *model.User, tasks []model.Task) ([]model.Task, error) {
	if user.IsAdmin() {
		return tasks, nil
	}

	perms, err := loadUserPermissions(db, user.ID)
	if err != nil {
		return nil, err
	}

	filtered := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if CanViewAny(perms, task.RoomID, task.Source) {
			filtered = append(filtered, task)
		}
	}
	return filtered, nil
}
