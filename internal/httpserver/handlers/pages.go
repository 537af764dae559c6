package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"gatekeeper/internal/auth"
	"gatekeeper/internal/models"
	"gatekeeper/internal/rbac"
	"gatekeeper/internal/store"
)

// pageResp describes what a page may show. Rendering is left to the client.
type pageResp struct {
	Page    string         `json:"page"`
	User    *auth.Claims   `json:"user,omitempty"`
	Allowed bool           `json:"allowed"`
	Sidebar []rbac.Section `json:"sidebar,omitempty"`
	Tabs    []rbac.Section `json:"tabs,omitempty"`
}

// Page gates on any of perms; an empty list admits every signed-in user.
func Page(name string, ev *rbac.Evaluator, perms ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := pageResp{Page: name}
		claims, ok := auth.FromContext(r.Context())
		if !ok {
			respondJSON(w, resp)
			return
		}
		resp.User = &claims
		resp.Allowed = len(perms) == 0 || ev.HasAnyPermission(r.Context(), claims.Role, perms)
		resp.Sidebar = ev.Visible(r.Context(), claims.Role, rbac.Sidebar)
		if name == "manage-users" {
			resp.Tabs = visibleTab(ev.Visible(r.Context(), claims.Role, rbac.ManageTabs), r.URL.Query().Get("tab"))
		}
		respondJSON(w, resp)
	}
}

// visibleTab moves the requested tab to the front when it is visible.
func visibleTab(tabs []rbac.Section, want string) []rbac.Section {
	want = strings.ToLower(want)
	for i, t := range tabs {
		if t.ID == want && i > 0 {
			out := append([]rbac.Section{t}, tabs[:i]...)
			return append(out, tabs[i+1:]...)
		}
	}
	return tabs
}

type statsResp struct {
	Users       int64 `json:"users"`
	ActiveUsers int64 `json:"active_users"`
	Roles       int64 `json:"roles"`
	Permissions int64 `json:"permissions"`
}

func DashboardStats(st *store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp statsResp
		counts := []struct {
			dst *int64
			fn  func(context.Context) (int64, error)
		}{
			{&resp.Users, st.CountUsers},
			{&resp.ActiveUsers, func(ctx context.Context) (int64, error) {
				return st.CountUsersByStatus(ctx, models.StatusActive)
			}},
			{&resp.Roles, st.CountRoles},
			{&resp.Permissions, st.CountPermissions},
		}
		for _, c := range counts {
			n, err := c.fn(r.Context())
			if err != nil {
				respondError(w, lg, err)
				return
			}
			*c.dst = n
		}
		respondJSON(w, resp)
	}
}
