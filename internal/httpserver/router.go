package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"gatekeeper/internal/account"
	"gatekeeper/internal/auth"
	"gatekeeper/internal/httpserver/handlers"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/rbac"
	"gatekeeper/internal/store"
)

type Deps struct {
	Store      *store.Store
	Codec      *auth.Codec
	Accounts   *account.Service
	Admin      *rbac.Admin
	Evaluator  *rbac.Evaluator
	Production bool
}

func NewRouter(d Deps, lg *zap.SugaredLogger) http.Handler {
	lg = logger.OrNop(lg)
	ev := d.Evaluator
	headers := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           d.Production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !d.Production,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger, headers.Handler)

	r.Group(func(public chi.Router) {
		public.Use(httprate.Limit(10, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			}),
		))
		public.Post("/v1/auth/login", handlers.Login(d.Accounts, d.Codec, lg))
		public.Post("/v1/auth/signup", handlers.Signup(d.Accounts, d.Codec, lg))
	})
	r.Post("/v1/auth/logout", handlers.Logout(d.Accounts, d.Codec, lg))

	r.Group(func(protected chi.Router) {
		protected.Use(auth.RequireSession(d.Codec, d.Accounts, lg))
		protected.Get("/v1/me", handlers.Me(ev))
		protected.Patch("/v1/me", handlers.UpdateMe(d.Accounts, lg))
		protected.Post("/v1/me/password", handlers.ChangePassword(d.Accounts, lg))
		protected.Get("/v1/logs", handlers.MyLogs(d.Store, ev, lg))

		protected.With(auth.RequirePermission(ev, rbac.ViewDashboard)).
			Get("/v1/dashboard/stats", handlers.DashboardStats(d.Store, lg))

		protected.With(auth.RequireAny(ev, rbac.ManageRoles, rbac.ViewRoles, rbac.ManageUsers)).
			Get("/v1/roles", handlers.ListRoles(d.Admin, lg))
		protected.Group(func(roles chi.Router) {
			roles.Use(auth.RequirePermission(ev, rbac.ManageRoles))
			roles.Post("/v1/roles", handlers.CreateRole(d.Admin, lg))
			roles.Patch("/v1/roles/{id}", handlers.UpdateRole(d.Admin, lg))
			roles.Delete("/v1/roles/{id}", handlers.DeleteRole(d.Admin, lg))
			roles.Put("/v1/roles/{id}/permissions/{permissionID}", handlers.BindPermission(d.Admin, lg))
			roles.Delete("/v1/roles/{id}/permissions/{permissionID}", handlers.UnbindPermission(d.Admin, lg))
		})

		protected.With(auth.RequireAny(ev, rbac.ManagePermissions, rbac.ViewPermissions, rbac.ManageRoles)).
			Get("/v1/permissions", handlers.ListPermissions(d.Admin, lg))
		protected.Group(func(perms chi.Router) {
			perms.Use(auth.RequirePermission(ev, rbac.ManagePermissions))
			perms.Post("/v1/permissions", handlers.CreatePermission(d.Admin, lg))
			perms.Patch("/v1/permissions/{id}", handlers.UpdatePermission(d.Admin, lg))
			perms.Delete("/v1/permissions/{id}", handlers.DeletePermission(d.Admin, lg))
		})

		protected.With(auth.RequireAny(ev, rbac.ManageUsers, rbac.ViewUsers)).
			Get("/v1/users", handlers.ListUsers(d.Accounts, lg))
		protected.Group(func(users chi.Router) {
			users.Use(auth.RequirePermission(ev, rbac.ManageUsers))
			users.Post("/v1/users", handlers.CreateUser(d.Accounts, lg))
			users.Patch("/v1/users/{id}/role", handlers.ChangeUserRole(d.Accounts, lg))
			users.Patch("/v1/users/{id}/status", handlers.ChangeUserStatus(d.Accounts, lg))
		})
	})

	r.Group(func(pages chi.Router) {
		pages.Use(auth.Guard(d.Codec))
		pages.Get(auth.AuthPath, handlers.Page("auth", ev))
		pages.Get(auth.DashboardPath, handlers.Page("dashboard", ev, rbac.ViewDashboard))
		pages.Get("/profile", handlers.Page("profile", ev))
		pages.Get("/settings", handlers.Page("settings", ev, rbac.EditSettings))
		pages.Get("/manage-users", handlers.Page("manage-users", ev, rbac.ManageUsers, rbac.ViewUsers))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
