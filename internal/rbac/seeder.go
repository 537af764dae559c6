package rbac

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"
	"gatekeeper/internal/store"
)

var DefaultRoles = []models.Role{
	{Name: RoleAdmin, Description: "Full access to all features"},
	{Name: RoleManager, Description: "Can manage users and content"},
	{Name: RoleUser, Description: "Basic access to features"},
}

var DefaultPermissions = []models.Permission{
	{Name: ViewDashboard, Description: "Can view dashboard"},
	{Name: ManageUsers, Description: "Can manage users"},
	{Name: EditSettings, Description: "Can edit settings"},
	{Name: ViewReports, Description: "Can view reports"},
	{Name: ManageRoles, Description: "Can manage roles"},
	{Name: ManagePermissions, Description: "Can manage permissions"},
}

var DefaultBindings = map[string][]string{
	RoleAdmin:   {ViewDashboard, ManageUsers, EditSettings, ViewReports, ManageRoles, ManagePermissions},
	RoleManager: {ViewDashboard, ManageUsers, EditSettings, ViewReports},
	RoleUser:    {ViewDashboard, EditSettings},
}

// serialises seeding within the process; the transaction and the unique
// indexes cover concurrent processes
var seedMu sync.Mutex

type SeedResult struct {
	RolesCreated       int64 `json:"roles_created"`
	PermissionsCreated int64 `json:"permissions_created"`
	BindingsCreated    int64 `json:"bindings_created"`
}

func (r SeedResult) Changed() bool {
	return r.RolesCreated+r.PermissionsCreated+r.BindingsCreated > 0
}

// Seeder provisions the default roles, permissions and bindings. It is safe
// to run on every start; a populated store is left untouched.
type Seeder struct {
	store    *store.Store
	registry *Registry
	lg       *zap.SugaredLogger
}

func NewSeeder(st *store.Store, registry *Registry, lg *zap.SugaredLogger) *Seeder {
	return &Seeder{store: st, registry: registry, lg: logger.OrNop(lg)}
}

// Seed inserts the default roles when no role exists and the default
// permissions when no permission exists. Default bindings are then created
// for every pair where the role or the permission was inserted by this call.
func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	seedMu.Lock()
	defer seedMu.Unlock()

	var res SeedResult
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		newRoles := map[string]bool{}
		n, err := tx.CountRoles(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			if res.RolesCreated, err = tx.InsertRoles(ctx, cloneRoles()); err != nil {
				return err
			}
			if res.RolesCreated > 0 {
				for _, r := range DefaultRoles {
					newRoles[r.Name] = true
				}
			}
		}

		newPerms := map[string]bool{}
		n, err = tx.CountPermissions(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			if res.PermissionsCreated, err = tx.InsertPermissions(ctx, clonePermissions()); err != nil {
				return err
			}
			if res.PermissionsCreated > 0 {
				for _, p := range DefaultPermissions {
					newPerms[p.Name] = true
				}
			}
		}

		if len(newRoles) == 0 && len(newPerms) == 0 {
			return nil
		}
		res.BindingsCreated, err = bindDefaults(ctx, tx, newRoles, newPerms)
		return err
	})
	if err != nil {
		return SeedResult{}, err
	}
	if res.Changed() {
		s.registry.Invalidate(ctx)
		s.lg.Infow("seeded rbac defaults",
			"roles", res.RolesCreated, "permissions", res.PermissionsCreated, "bindings", res.BindingsCreated)
	}
	return res, nil
}

func bindDefaults(ctx context.Context, tx *store.Store, newRoles, newPerms map[string]bool) (int64, error) {
	roleNames := make([]string, 0, len(DefaultBindings))
	permNames := make([]string, 0, len(DefaultPermissions))
	for role := range DefaultBindings {
		roleNames = append(roleNames, role)
	}
	for _, p := range DefaultPermissions {
		permNames = append(permNames, p.Name)
	}
	roles, err := tx.RolesByNames(ctx, roleNames)
	if err != nil {
		return 0, err
	}
	perms, err := tx.PermissionsByNames(ctx, permNames)
	if err != nil {
		return 0, err
	}
	permIDs := make(map[string]int64, len(perms))
	for _, p := range perms {
		permIDs[p.Name] = p.ID
	}

	var bindings []models.RolePermission
	for _, role := range roles {
		for _, perm := range DefaultBindings[role.Name] {
			id, ok := permIDs[perm]
			if !ok || !(newRoles[role.Name] || newPerms[perm]) {
				continue
			}
			bindings = append(bindings, models.RolePermission{RoleID: role.ID, PermissionID: id})
		}
	}
	return tx.InsertBindings(ctx, bindings)
}

func cloneRoles() []models.Role {
	out := make([]models.Role, len(DefaultRoles))
	copy(out, DefaultRoles)
	return out
}

func clonePermissions() []models.Permission {
	out := make([]models.Permission, len(DefaultPermissions))
	copy(out, DefaultPermissions)
	return out
}
