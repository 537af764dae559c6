package rbac

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/models"
	"gatekeeper/internal/store"
	"gatekeeper/internal/store/storetest"
)

type snapshot struct {
	Roles       []string
	Permissions []string
	Bindings    map[string][]string
}

func takeSnapshot(t *testing.T, st *store.Store) snapshot {
	t.Helper()
	ctx := context.Background()
	roles, err := st.ListRoles(ctx)
	require.NoError(t, err)
	perms, err := st.ListPermissions(ctx)
	require.NoError(t, err)

	s := snapshot{Bindings: map[string][]string{}}
	for _, r := range roles {
		s.Roles = append(s.Roles, r.Name)
		names, err := st.RolePermissionNames(ctx, r.Name)
		require.NoError(t, err)
		s.Bindings[r.Name] = names
	}
	for _, p := range perms {
		s.Permissions = append(s.Permissions, p.Name)
	}
	return s
}

func newSeeder(st *store.Store) *Seeder {
	return NewSeeder(st, NewRegistry(st, nil, nil), nil)
}

func TestSeedFreshStore(t *testing.T) {
	st := storetest.New(t)
	res, err := newSeeder(st).Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{RolesCreated: 3, PermissionsCreated: 6, BindingsCreated: 12}, res)

	snap := takeSnapshot(t, st)
	assert.Equal(t, []string{"admin", "manager", "user"}, snap.Roles)
	for role, want := range DefaultBindings {
		want = append([]string(nil), want...)
		sort.Strings(want)
		assert.Equal(t, want, snap.Bindings[role], role)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	st := storetest.New(t)
	seeder := newSeeder(st)
	ctx := context.Background()

	_, err := seeder.Seed(ctx)
	require.NoError(t, err)
	once := takeSnapshot(t, st)

	res, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, once, takeSnapshot(t, st))
}

func TestSeedLeavesPopulatedStoreAlone(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()
	require.NoError(t, st.CreateRole(ctx, &models.Role{Name: "custom"}))
	require.NoError(t, st.CreatePermission(ctx, &models.Permission{Name: "custom_perm"}))

	res, err := newSeeder(st).Seed(ctx)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, []string{"custom"}, takeSnapshot(t, st).Roles)
}

func TestSeedBindsNewRolesToExistingPermissions(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()
	_, err := st.InsertPermissions(ctx, clonePermissions())
	require.NoError(t, err)

	res, err := newSeeder(st).Seed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.RolesCreated)
	assert.Zero(t, res.PermissionsCreated)
	assert.EqualValues(t, 12, res.BindingsCreated)

	names, err := st.RolePermissionNames(ctx, RoleUser)
	require.NoError(t, err)
	assert.Equal(t, []string{EditSettings, ViewDashboard}, names)
}

func TestSeedBindsNewPermissionsToExistingRoles(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()
	_, err := st.InsertRoles(ctx, []models.Role{{Name: RoleManager}, {Name: "auditor"}})
	require.NoError(t, err)

	res, err := newSeeder(st).Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.RolesCreated)
	assert.EqualValues(t, 6, res.PermissionsCreated)
	assert.EqualValues(t, 4, res.BindingsCreated)

	names, err := st.RolePermissionNames(ctx, "auditor")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSeedConcurrentCallers(t *testing.T) {
	st := storetest.New(t)
	seeder := newSeeder(st)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := seeder.Seed(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := st.CountBindings(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)
}
