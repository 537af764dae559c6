package rbac

import "context"

// Section is a navigable part of the dashboard. A section with no
// permissions is visible to every signed-in user; otherwise any one of them
// unlocks it.
type Section struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Path        string   `json:"path"`
	Permissions []string `json:"-"`
}

var Sidebar = []Section{
	{ID: "dashboard", Title: "Dashboard", Path: "/dashboard", Permissions: []string{ViewDashboard}},
	{ID: "manage-users", Title: "Manage Users", Path: "/manage-users", Permissions: []string{ManageUsers, ViewUsers}},
	{ID: "profile", Title: "Profile", Path: "/profile"},
	{ID: "settings", Title: "Settings", Path: "/settings", Permissions: []string{EditSettings}},
}

var ManageTabs = []Section{
	{ID: "users", Title: "Users", Path: "/manage-users?tab=users", Permissions: []string{ManageUsers, ViewUsers}},
	{ID: "roles", Title: "Roles", Path: "/manage-users?tab=roles", Permissions: []string{ManageRoles, ViewRoles}},
	{ID: "permissions", Title: "Permissions", Path: "/manage-users?tab=permissions", Permissions: []string{ManagePermissions, ViewPermissions}},
}

// Visible filters sections down to those role may open.
func (e *Evaluator) Visible(ctx context.Context, role string, sections []Section) []Section {
	out := make([]Section, 0, len(sections))
	if Normalize(role) == "" {
		return out
	}
	perms := e.Permissions(ctx, role)
	for _, s := range sections {
		if len(s.Permissions) == 0 || perms.HasAny(s.Permissions) {
			out = append(out, s)
		}
	}
	return out
}
