package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"gatekeeper/internal/auth"
	"gatekeeper/internal/rbac"
)

type roleReq struct {
	Name          string  `json:"name" validate:"required,max=64"`
	Description   string  `json:"description" validate:"max=255"`
	PermissionIDs []int64 `json:"permission_ids" validate:"omitempty,dive,gt=0"`
}

func ListRoles(admin *rbac.Admin, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roles, err := admin.ListRoles(r.Context())
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, roles)
	}
}

func CreateRole(admin *rbac.Admin, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req roleReq
		if err := decode(r, &req); err != nil {
			badRequest(w, err)
			return
		}
		role, err := admin.CreateRole(r.Context(), auth.Subject(r.Context()), req.Name, req.Description, req.PermissionIDs)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, role)
	}
}

func UpdateRole(admin *rbac.Admin, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var req roleReq
		if err := decode(r, &req); err != nil {
			badRequest(w, err)
			return
		}
		role, err := admin.UpdateRole(r.Context(), auth.Subject(r.Context()), id, req.Name, req.Description)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, role)
	}
}

func DeleteRole(admin *rbac.Admin, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := admin.DeleteRole(r.Context(), auth.Subject(r.Context()), id); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}

func BindPermission(admin *rbac.Admin, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID, ok1 := idParam(r, "id")
		permID, ok2 := idParam(r, "permissionID")
		if !ok1 || !ok2 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := admin.Bind(r.Context(), auth.Subject(r.Context()), roleID, permID); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"bound": true})
	}
}

func UnbindPermission(admin *rbac.Admin, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID, ok1 := idParam(r, "id")
		permID, ok2 := idParam(r, "permissionID")
		if !ok1 || !ok2 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := admin.Unbind(r.Context(), auth.Subject(r.Context()), roleID, permID); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"unbound": true})
	}
}
