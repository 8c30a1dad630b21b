package permission

import (
	"testing"

	"taskhook-service/internal/model"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func fixturePerms() []model.RolePermission {
	return []model.RolePermission{
		{RoleID: 1, RoomID: nil, Source: strPtr("chatwork"), CanView: true, CanEditStatus: false},
		{RoleID: 1, RoomID: strPtr("R1"), Source: strPtr("chatwork"), CanView: true, CanEditStatus: true},
	}
}

func TestResolveExactRoomWinsOverWildcard(t *testing.T) {
	d := Resolve(fixturePerms(), "R1", "chatwork")
	assert.True(t, d.CanView)
	assert.True(t, d.CanEditStatus)
}

func TestResolveFallsBackToWildcard(t *testing.T) {
	d := Resolve(fixturePerms(), "R2", "chatwork")
	assert.True(t, d.CanView)
	assert.False(t, d.CanEditStatus)
}

func TestResolveDisqualifiesOtherSource(t *testing.T) {
	d := Resolve(fixturePerms(), "R1", "slack")
	assert.False(t, d.CanView)
	assert.False(t, d.CanEditStatus)
	assert.False(t, d.CanDelete)
}

func TestResolveNoMatchingRows(t *testing.T) {
	perms := []model.RolePermission{
		{RoleID: 1, RoomID: strPtr("R9"), Source: strPtr("line"), CanView: true},
	}
	d := Resolve(perms, "R1", "chatwork")
	assert.Equal(t, Decision{}, d)
}

func TestResolveFirstSeenWinsOnTie(t *testing.T) {
	perms := []model.RolePermission{
		{RoleID: 1, RoomID: strPtr("R1"), Source: strPtr("chatwork"), CanView: true, CanDelete: false},
		{RoleID: 2, RoomID: strPtr("R1"), Source: strPtr("chatwork"), CanView: true, CanDelete: true},
	}
	d := Resolve(perms, "R1", "chatwork")
	assert.False(t, d.CanDelete)
}

// The list filter uses any-match semantics for visibility while single-task
// checks use scored best-match. The two can legitimately diverge: here the
// specific row for R1 revokes view, yet the wildcard row still grants
// visibility in the list.
func TestFilterAndResolveDivergeOnView(t *testing.T) {
	perms := []model.RolePermission{
		{RoleID: 1, RoomID: nil, Source: strPtr("chatwork"), CanView: true},
		{RoleID: 1, RoomID: strPtr("R1"), Source: strPtr("chatwork"), CanView: false, CanEditStatus: true},
	}

	d := Resolve(perms, "R1", "chatwork")
	assert.False(t, d.CanView)

	assert.True(t, CanViewAny(perms, "R1", "chatwork"))
}

func TestCanViewAnyRequiresViewFlag(t *testing.T) {
	perms := []model.RolePermission{
		{RoleID: 1, RoomID: strPtr("R1"), Source: strPtr("chatwork"), CanView: false, CanEditStatus: true},
	}
	assert.False(t, CanViewAny(perms, "R1", "chatwork"))
}
