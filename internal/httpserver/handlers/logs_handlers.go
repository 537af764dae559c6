package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"gatekeeper/internal/auth"
	"gatekeeper/internal/models"
	"gatekeeper/internal/rbac"
	"gatekeeper/internal/store"
)

const auditLimit = 200

// MyLogs returns recent audit entries written by the caller. Holders of
// manage_roles can pass ?all=1 to see everyone's.
func MyLogs(st *store.Store, ev *rbac.Evaluator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := auth.FromContext(r.Context())
		all := r.URL.Query().Get("all") == "1"
		var (
			logs []models.AuditLog
			err  error
		)
		if all && ev.HasPermission(r.Context(), claims.Role, rbac.ManageRoles) {
			logs, err = st.RecentAudit(r.Context(), auditLimit)
		} else {
			logs, err = st.AuditForUser(r.Context(), claims.ID, auditLimit)
		}
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, logs)
	}
}
