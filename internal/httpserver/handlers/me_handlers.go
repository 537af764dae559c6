package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gatekeeper/internal/account"
	"gatekeeper/internal/auth"
	"gatekeeper/internal/rbac"
)

// meResp is built from the verified session so it agrees with the
// permission middleware guarding the API.
type meResp struct {
	User        auth.Claims    `json:"user"`
	Permissions []string       `json:"permissions"`
	Sidebar     []rbac.Section `json:"sidebar"`
	Tabs        []rbac.Section `json:"tabs"`
}

func Me(ev *rbac.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "missing session", http.StatusUnauthorized)
			return
		}
		respondJSON(w, meResp{
			User:        claims,
			Permissions: ev.Permissions(r.Context(), claims.Role).Names(),
			Sidebar:     ev.Visible(r.Context(), claims.Role, rbac.Sidebar),
			Tabs:        ev.Visible(r.Context(), claims.Role, rbac.ManageTabs),
		})
	}
}

func UpdateMe(svc *account.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name" validate:"required,max=120"`
		}
		if err := decode(r, &req); err != nil {
			badRequest(w, err)
			return
		}
		u, err := svc.UpdateProfile(r.Context(), auth.Subject(r.Context()), req.Name)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

func ChangePassword(svc *account.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Current string `json:"current_password" validate:"required"`
			New     string `json:"new_password" validate:"required,min=8,max=72,nefield=Current"`
		}
		if err := decode(r, &req); err != nil {
			badRequest(w, err)
			return
		}
		err := svc.ChangePassword(r.Context(), auth.Subject(r.Context()), req.Current, req.New)
		if errors.Is(err, account.ErrInvalidCredentials) {
			http.Error(w, "current password is incorrect", http.StatusBadRequest)
			return
		}
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"updated": true})
	}
}
