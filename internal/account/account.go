// Package account owns the user side of the dashboard: credentials, profile,
// sessions and the user-management rules that decide who may change whom.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"gatekeeper/internal/auth"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"
	"gatekeeper/internal/rbac"
	"gatekeeper/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveAccount    = errors.New("account inactive")
	ErrEmailTaken         = errors.New("email already registered")
	ErrForbidden          = errors.New("forbidden")
	ErrUnknownRole        = errors.New("unknown role")
)

// Session is a freshly issued login.
type Session struct {
	Token  string
	Claims auth.Claims
	User   models.User
}

type Service struct {
	store      *store.Store
	codec      *auth.Codec
	authz      auth.Authorizer
	revalidate bool
	lg         *zap.SugaredLogger
	now        func() time.Time
}

// NewService wires the account service. With revalidate set, CheckSession
// also rejects tokens whose user was deactivated or moved to another role.
func NewService(st *store.Store, codec *auth.Codec, authz auth.Authorizer, revalidate bool, lg *zap.SugaredLogger) *Service {
	return &Service{store: st, codec: codec, authz: authz, revalidate: revalidate, lg: logger.OrNop(lg), now: time.Now}
}

// compared against when the email is unknown so both paths cost one bcrypt run
var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("not-a-real-password")
	return h
})

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		auth.CheckPassword(dummyHash(), password)
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	if !u.Active() {
		return Session{}, ErrInactiveAccount
	}
	sess, err := s.IssueSession(ctx, u)
	if err != nil {
		return Session{}, err
	}
	s.audit(ctx, u.ID, "auth.login", nil)
	return sess, nil
}

// Signup registers a self-service account with the user role and logs it in.
func (s *Service) Signup(ctx context.Context, email, name, password string) (Session, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", rbac.ErrInvalid, err)
	}
	u := models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         rbac.RoleUser,
		Status:       models.StatusActive,
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, err
	}
	sess, err := s.IssueSession(ctx, u)
	if err != nil {
		return Session{}, err
	}
	s.audit(ctx, u.ID, "auth.signup", nil)
	return sess, nil
}

// IssueSession signs a token for u and records its jti.
func (s *Service) IssueSession(ctx context.Context, u models.User) (Session, error) {
	token, claims, err := s.codec.Issue(auth.Claims{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		Status: u.Status,
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	if err := s.store.CreateSession(ctx, claims.TokenID, u.ID, claims.ExpiresAt); err != nil {
		return Session{}, fmt.Errorf("record session: %w", err)
	}
	return Session{Token: token, Claims: claims, User: u}, nil
}

func (s *Service) Logout(ctx context.Context, c auth.Claims) error {
	if c.TokenID == "" {
		return nil
	}
	if err := s.store.RevokeSession(ctx, c.TokenID); err != nil {
		return err
	}
	s.audit(ctx, c.ID, "auth.logout", nil)
	return nil
}

// CheckSession implements auth.SessionChecker.
func (s *Service) CheckSession(ctx context.Context, c auth.Claims) error {
	active, err := s.store.SessionActive(ctx, c.TokenID, s.now())
	if err != nil {
		return err
	}
	if !active {
		return auth.ErrSessionRevoked
	}
	if !s.revalidate {
		return nil
	}
	u, err := s.store.UserByID(ctx, c.ID)
	if errors.Is(err, store.ErrNotFound) {
		return auth.ErrStaleSession
	}
	if err != nil {
		return err
	}
	if !u.Active() || u.Role != c.Role {
		return auth.ErrStaleSession
	}
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, id, name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, fmt.Errorf("%w: name required", rbac.ErrInvalid)
	}
	return s.store.UpdateUser(ctx, id, map[string]any{"name": name})
}

func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("%w: %v", rbac.ErrInvalid, err)
	}
	if _, err := s.store.UpdateUser(ctx, id, map[string]any{"password_hash": hash}); err != nil {
		return err
	}
	s.audit(ctx, id, "user.password", nil)
	return nil
}

// EnsureAdmin creates the bootstrap administrator when email is set and no
// account uses it yet.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	_, err := s.store.UserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("admin password: %w", err)
	}
	u := models.User{
		Email:        email,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         rbac.RoleAdmin,
		Status:       models.StatusActive,
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil
		}
		return err
	}
	s.lg.Infow("seeded default admin", "email", u.Email)
	return nil
}

func (s *Service) audit(ctx context.Context, actorID, action string, meta map[string]any) {
	if err := s.store.Audit(ctx, actorID, action, meta); err != nil {
		s.lg.Warnw("audit write failed", "action", action, "error", err)
	}
}
