package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"gatekeeper/internal/auth"
	"gatekeeper/internal/rbac"
)

type permissionReq struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=255"`
}

func ListPermissions(admin *rbac.Admin, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		perms, err := admin.ListPermissions(r.Context())
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, perms)
	}
}

func CreatePermission(admin *rbac.Admin, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req permissionReq
		if err := decode(r, &req); err != nil {
			badRequest(w, err)
			return
		}
		p, err := admin.CreatePermission(r.Context(), auth.Subject(r.Context()), req.Name, req.Description)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, p)
	}
}

func UpdatePermission(admin *rbac.Admin, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var req permissionReq
		if err := decode(r, &req); err != nil {
			badRequest(w, err)
			return
		}
		p, err := admin.UpdatePermission(r.Context(), auth.Subject(r.Context()), id, req.Name, req.Description)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, p)
	}
}

func DeletePermission(admin *rbac.Admin, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := admin.DeletePermission(r.Context(), auth.Subject(r.Context()), id); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}
