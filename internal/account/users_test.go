package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/auth"
	"gatekeeper/internal/models"
	"gatekeeper/internal/rbac"
)

func TestCanModifyUser(t *testing.T) {
	f := newFixture(t, true)
	admin := auth.Claims{ID: "a1", Role: rbac.RoleAdmin}
	manager := auth.Claims{ID: "m1", Role: rbac.RoleManager}
	plain := auth.Claims{ID: "u1", Role: rbac.RoleUser}

	adminTarget := models.User{ID: "a2", Role: rbac.RoleAdmin}
	managerTarget := models.User{ID: "m2", Role: rbac.RoleManager}
	userTarget := models.User{ID: "u2", Role: rbac.RoleUser}

	tests := []struct {
		name   string
		actor  auth.Claims
		target models.User
		action Action
		want   bool
	}{
		{"self is never allowed", admin, models.User{ID: "a1", Role: rbac.RoleAdmin}, ActionStatus, false},
		{"admin on admin", admin, adminTarget, ActionRole, true},
		{"manager on admin status", manager, adminTarget, ActionStatus, false},
		{"manager on admin role", manager, adminTarget, ActionRole, false},
		{"admin changes role", admin, userTarget, ActionRole, true},
		{"manager changes role", manager, userTarget, ActionRole, false},
		{"admin changes status", admin, managerTarget, ActionStatus, true},
		{"manager changes status", manager, userTarget, ActionStatus, true},
		{"manager changes manager status", manager, managerTarget, ActionStatus, true},
		{"user changes status", plain, userTarget, ActionStatus, false},
		{"unspecified action", admin, userTarget, ActionAny, false},
		{"anonymous actor", auth.Claims{}, userTarget, ActionStatus, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.svc.CanModifyUser(context.Background(), tt.actor, tt.target, tt.action))
		})
	}
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	admin := f.user(t, "root@example.com", "pw-123456", rbac.RoleAdmin, models.StatusActive)
	manager := f.user(t, "boss@example.com", "pw-123456", rbac.RoleManager, models.StatusActive)

	u, err := f.svc.CreateUser(ctx, claimsOf(manager), NewUser{Email: "Staff@Example.com", Name: "Staff", Password: "pw-123456"})
	require.NoError(t, err)
	assert.Equal(t, "staff@example.com", u.Email)
	assert.Equal(t, rbac.RoleUser, u.Role)

	_, err = f.svc.CreateUser(ctx, claimsOf(manager), NewUser{Email: "x@example.com", Password: "pw-123456", Role: "Admin"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.CreateUser(ctx, claimsOf(admin), NewUser{Email: "x@example.com", Password: "pw-123456", Role: "ghost"})
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = f.svc.CreateUser(ctx, claimsOf(admin), NewUser{Email: "staff@example.com", Password: "pw-123456"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	second, err := f.svc.CreateUser(ctx, claimsOf(admin), NewUser{Email: "ops@example.com", Password: "pw-123456", Role: rbac.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, second.Role)

	users, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestCreateUserStatus(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	admin := f.user(t, "root@example.com", "pw-123456", rbac.RoleAdmin, models.StatusActive)
	manager := f.user(t, "boss@example.com", "pw-123456", rbac.RoleManager, models.StatusActive)

	dormant, err := f.svc.CreateUser(ctx, claimsOf(admin), NewUser{Email: "dormant@example.com", Password: "pw-123456", Status: " Inactive "})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, dormant.Status)
	_, err = f.svc.Login(ctx, "dormant@example.com", "pw-123456")
	assert.ErrorIs(t, err, ErrInactiveAccount)

	_, err = f.svc.CreateUser(ctx, claimsOf(admin), NewUser{Email: "odd@example.com", Password: "pw-123456", Status: "banned"})
	assert.ErrorIs(t, err, rbac.ErrInvalid)

	_, err = f.svc.CreateUser(ctx, claimsOf(manager), NewUser{Email: "quiet@example.com", Password: "pw-123456", Status: models.StatusInactive})
	assert.ErrorIs(t, err, ErrForbidden)

	active, err := f.svc.CreateUser(ctx, claimsOf(manager), NewUser{Email: "loud@example.com", Password: "pw-123456", Status: models.StatusActive})
	require.NoError(t, err)
	assert.True(t, active.Active())
}

func TestChangeRoleAndStatus(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	admin := f.user(t, "root@example.com", "pw-123456", rbac.RoleAdmin, models.StatusActive)
	manager := f.user(t, "boss@example.com", "pw-123456", rbac.RoleManager, models.StatusActive)
	staff := f.user(t, "staff@example.com", "pw-123456", rbac.RoleUser, models.StatusActive)

	_, err := f.svc.ChangeRole(ctx, claimsOf(manager), staff.ID, rbac.RoleManager)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.ChangeRole(ctx, claimsOf(admin), staff.ID, "ghost")
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = f.svc.ChangeRole(ctx, claimsOf(admin), "missing", rbac.RoleUser)
	assert.ErrorIs(t, err, rbac.ErrNotFound)

	promoted, err := f.svc.ChangeRole(ctx, claimsOf(admin), staff.ID, " Manager ")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleManager, promoted.Role)

	off, err := f.svc.ChangeStatus(ctx, claimsOf(manager), staff.ID, "Inactive")
	require.NoError(t, err)
	assert.False(t, off.Active())

	_, err = f.svc.ChangeStatus(ctx, claimsOf(manager), admin.ID, models.StatusInactive)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.ChangeStatus(ctx, claimsOf(manager), manager.ID, models.StatusInactive)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.ChangeStatus(ctx, claimsOf(admin), staff.ID, "banned")
	assert.ErrorIs(t, err, rbac.ErrInvalid)

	logs, err := f.store.AuditForUser(ctx, manager.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "user.status", logs[0].Action)
}
