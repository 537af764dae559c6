package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/auth"
	"gatekeeper/internal/models"
	"gatekeeper/internal/rbac"
	"gatekeeper/internal/store"
	"gatekeeper/internal/store/storetest"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	store *store.Store
	codec *auth.Codec
	svc   *Service
}

func newFixture(t *testing.T, revalidate bool) fixture {
	t.Helper()
	st := storetest.New(t)
	reg := rbac.NewRegistry(st, nil, nil)
	_, err := rbac.NewSeeder(st, reg, nil).Seed(context.Background())
	require.NoError(t, err)
	codec := auth.NewCodec(testSecret)
	return fixture{store: st, codec: codec, svc: NewService(st, codec, rbac.NewEvaluator(reg), revalidate, nil)}
}

func (f fixture) user(t *testing.T, email, password, role, status string) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := models.User{Email: email, Name: email, PasswordHash: hash, Role: role, Status: status}
	require.NoError(t, f.store.CreateUser(context.Background(), &u))
	return u
}

func claimsOf(u models.User) auth.Claims {
	return auth.Claims{ID: u.ID, Email: u.Email, Role: u.Role, Status: u.Status}
}

func TestLogin(t *testing.T) {
	f := newFixture(t, true)
	f.user(t, "ana@example.com", "s3cret-pass", rbac.RoleUser, models.StatusActive)
	f.user(t, "off@example.com", "s3cret-pass", rbac.RoleUser, models.StatusInactive)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"ok", "ana@example.com", "s3cret-pass", nil},
		{"email is case insensitive", "  ANA@Example.com ", "s3cret-pass", nil},
		{"unknown email", "nobody@example.com", "s3cret-pass", ErrInvalidCredentials},
		{"wrong password", "ana@example.com", "nope", ErrInvalidCredentials},
		{"empty password", "ana@example.com", "", ErrInvalidCredentials},
		{"inactive with right password", "off@example.com", "s3cret-pass", ErrInactiveAccount},
		{"inactive with wrong password", "off@example.com", "nope", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := f.svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, sess.Token)
				return
			}
			require.NoError(t, err)
			got, err := f.codec.Verify(sess.Token)
			require.NoError(t, err)
			assert.Equal(t, sess.Claims, got)
			assert.Equal(t, "ana@example.com", got.Email)
			assert.Equal(t, rbac.RoleUser, got.Role)
			assert.NoError(t, f.svc.CheckSession(context.Background(), got))
		})
	}
}

func TestSignup(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	sess, err := f.svc.Signup(ctx, "New@Example.com", " New Person ", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", sess.User.Email)
	assert.Equal(t, "New Person", sess.User.Name)
	assert.Equal(t, rbac.RoleUser, sess.Claims.Role)
	assert.Equal(t, models.StatusActive, sess.Claims.Status)

	_, err = f.svc.Signup(ctx, "new@EXAMPLE.com", "Again", "long-enough")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.svc.Signup(ctx, "other@example.com", "Other", "")
	assert.ErrorIs(t, err, rbac.ErrInvalid)
}

func TestCheckSession(t *testing.T) {
	ctx := context.Background()

	t.Run("logout revokes", func(t *testing.T) {
		f := newFixture(t, true)
		f.user(t, "ana@example.com", "pw-123456", rbac.RoleUser, models.StatusActive)
		sess, err := f.svc.Login(ctx, "ana@example.com", "pw-123456")
		require.NoError(t, err)

		require.NoError(t, f.svc.Logout(ctx, sess.Claims))
		assert.ErrorIs(t, f.svc.CheckSession(ctx, sess.Claims), auth.ErrSessionRevoked)
		require.NoError(t, f.svc.Logout(ctx, sess.Claims))
	})

	t.Run("unknown jti", func(t *testing.T) {
		f := newFixture(t, true)
		u := f.user(t, "ana@example.com", "pw-123456", rbac.RoleUser, models.StatusActive)
		_, claims, err := f.codec.Issue(claimsOf(u))
		require.NoError(t, err)
		assert.ErrorIs(t, f.svc.CheckSession(ctx, claims), auth.ErrSessionRevoked)
	})

	t.Run("role change goes stale", func(t *testing.T) {
		f := newFixture(t, true)
		admin := f.user(t, "root@example.com", "pw-123456", rbac.RoleAdmin, models.StatusActive)
		f.user(t, "ana@example.com", "pw-123456", rbac.RoleUser, models.StatusActive)
		sess, err := f.svc.Login(ctx, "ana@example.com", "pw-123456")
		require.NoError(t, err)

		_, err = f.svc.ChangeRole(ctx, claimsOf(admin), sess.User.ID, rbac.RoleManager)
		require.NoError(t, err)
		assert.ErrorIs(t, f.svc.CheckSession(ctx, sess.Claims), auth.ErrStaleSession)

		fresh, err := f.svc.Login(ctx, "ana@example.com", "pw-123456")
		require.NoError(t, err)
		assert.Equal(t, rbac.RoleManager, fresh.Claims.Role)
		assert.NoError(t, f.svc.CheckSession(ctx, fresh.Claims))
	})

	t.Run("deactivation goes stale", func(t *testing.T) {
		f := newFixture(t, true)
		admin := f.user(t, "root@example.com", "pw-123456", rbac.RoleAdmin, models.StatusActive)
		f.user(t, "ana@example.com", "pw-123456", rbac.RoleUser, models.StatusActive)
		sess, err := f.svc.Login(ctx, "ana@example.com", "pw-123456")
		require.NoError(t, err)

		_, err = f.svc.ChangeStatus(ctx, claimsOf(admin), sess.User.ID, models.StatusInactive)
		require.NoError(t, err)
		assert.ErrorIs(t, f.svc.CheckSession(ctx, sess.Claims), auth.ErrStaleSession)
	})

	t.Run("revalidation disabled", func(t *testing.T) {
		f := newFixture(t, false)
		admin := f.user(t, "root@example.com", "pw-123456", rbac.RoleAdmin, models.StatusActive)
		f.user(t, "ana@example.com", "pw-123456", rbac.RoleUser, models.StatusActive)
		sess, err := f.svc.Login(ctx, "ana@example.com", "pw-123456")
		require.NoError(t, err)

		_, err = f.svc.ChangeRole(ctx, claimsOf(admin), sess.User.ID, rbac.RoleManager)
		require.NoError(t, err)
		assert.NoError(t, f.svc.CheckSession(ctx, sess.Claims))
	})
}

func TestProfileAndPassword(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	u := f.user(t, "ana@example.com", "old-password", rbac.RoleUser, models.StatusActive)

	updated, err := f.svc.UpdateProfile(ctx, u.ID, "  Ana Maria ")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)

	_, err = f.svc.UpdateProfile(ctx, u.ID, "   ")
	assert.ErrorIs(t, err, rbac.ErrInvalid)

	assert.ErrorIs(t, f.svc.ChangePassword(ctx, u.ID, "wrong", "new-password"), ErrInvalidCredentials)
	require.NoError(t, f.svc.ChangePassword(ctx, u.ID, "old-password", "new-password"))

	_, err = f.svc.Login(ctx, "ana@example.com", "old-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "ana@example.com", "new-password")
	assert.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.svc.EnsureAdmin(ctx, "", ""))
	require.NoError(t, f.svc.EnsureAdmin(ctx, "Admin@Example.com", "bootstrap-pw"))
	require.NoError(t, f.svc.EnsureAdmin(ctx, "admin@example.com", "other-pw"))

	n, err := f.store.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	sess, err := f.svc.Login(ctx, "admin@example.com", "bootstrap-pw")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, sess.Claims.Role)
}
