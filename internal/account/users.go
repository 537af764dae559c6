package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gatekeeper/internal/auth"
	"gatekeeper/internal/models"
	"gatekeeper/internal/rbac"
	"gatekeeper/internal/store"
)

type Action string

const (
	ActionAny    Action = "any"
	ActionRole   Action = "role"
	ActionStatus Action = "status"
)

// CanModifyUser decides whether actor may apply action to target.
//
// Nobody modifies their own account. Admin targets are reserved to admins.
// Role changes are reserved to admins. Status changes are open to admins and
// to holders of manage_users. Anything else is refused.
func (s *Service) CanModifyUser(ctx context.Context, actor auth.Claims, target models.User, action Action) bool {
	if actor.ID == "" || target.ID == actor.ID {
		return false
	}
	actorRole := rbac.Normalize(actor.Role)
	if rbac.Normalize(target.Role) == rbac.RoleAdmin {
		return actorRole == rbac.RoleAdmin
	}
	switch action {
	case ActionRole:
		return actorRole == rbac.RoleAdmin
	case ActionStatus:
		if actorRole == rbac.RoleAdmin {
			return true
		}
		return s.authz != nil && s.authz.HasPermission(ctx, actorRole, rbac.ManageUsers)
	}
	return false
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

type NewUser struct {
	Email    string
	Name     string
	Password string
	Role     string
	Status   string
}

// CreateUser adds an account on behalf of actor. Only admins may hand out
// the admin role or create an account inactive. Status defaults to active.
func (s *Service) CreateUser(ctx context.Context, actor auth.Claims, in NewUser) (models.User, error) {
	role := rbac.Normalize(in.Role)
	if role == "" {
		role = rbac.RoleUser
	}
	if role == rbac.RoleAdmin && rbac.Normalize(actor.Role) != rbac.RoleAdmin {
		return models.User{}, ErrForbidden
	}
	status := models.StatusActive
	if in.Status != "" {
		var err error
		if status, err = parseStatus(in.Status); err != nil {
			return models.User{}, err
		}
	}
	if status != models.StatusActive && rbac.Normalize(actor.Role) != rbac.RoleAdmin {
		return models.User{}, ErrForbidden
	}
	if err := s.roleExists(ctx, role); err != nil {
		return models.User{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", rbac.ErrInvalid, err)
	}
	u := models.User{
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         role,
		Status:       status,
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	s.audit(ctx, actor.ID, "user.create", map[string]any{"user_id": u.ID, "role": role, "status": status})
	return u, nil
}

// ChangeRole moves target to role. Sessions issued under the old role go
// stale.
func (s *Service) ChangeRole(ctx context.Context, actor auth.Claims, targetID, role string) (models.User, error) {
	role = rbac.Normalize(role)
	target, err := s.store.UserByID(ctx, targetID)
	if err != nil {
		return models.User{}, err
	}
	if !s.CanModifyUser(ctx, actor, target, ActionRole) {
		return models.User{}, ErrForbidden
	}
	if err := s.roleExists(ctx, role); err != nil {
		return models.User{}, err
	}
	u, err := s.store.UpdateUser(ctx, targetID, map[string]any{"role": role})
	if err != nil {
		return models.User{}, err
	}
	s.audit(ctx, actor.ID, "user.role", map[string]any{"user_id": targetID, "from": target.Role, "to": role})
	return u, nil
}

func (s *Service) ChangeStatus(ctx context.Context, actor auth.Claims, targetID, status string) (models.User, error) {
	status, err := parseStatus(status)
	if err != nil {
		return models.User{}, err
	}
	target, err := s.store.UserByID(ctx, targetID)
	if err != nil {
		return models.User{}, err
	}
	if !s.CanModifyUser(ctx, actor, target, ActionStatus) {
		return models.User{}, ErrForbidden
	}
	u, err := s.store.UpdateUser(ctx, targetID, map[string]any{"status": status})
	if err != nil {
		return models.User{}, err
	}
	s.audit(ctx, actor.ID, "user.status", map[string]any{"user_id": targetID, "status": status})
	return u, nil
}

func parseStatus(status string) (string, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != models.StatusActive && status != models.StatusInactive {
		return "", fmt.Errorf("%w: status must be active or inactive", rbac.ErrInvalid)
	}
	return status, nil
}

func (s *Service) roleExists(ctx context.Context, role string) error {
	if role == "" {
		return ErrUnknownRole
	}
	_, err := s.store.RoleByName(ctx, role)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUnknownRole
	}
	return err
}
