package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/audit"
	"tenantcore/internal/auth"
	"tenantcore/internal/httpserver/handlers"
	"tenantcore/internal/locale"
	"tenantcore/internal/metrics"
	"tenantcore/internal/models"
	"tenantcore/internal/notify"
)

func NewRouter(db *gorm.DB, rec *audit.Recorder, svc *notify.Service, lg *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)
	r.Use(metrics.Middleware)
	r.Use(locale.Middleware)

	r.Post("/v1/auth/login", handlers.Login(db, rec, lg))

	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth(db))

		protected.Get("/v1/me", handlers.Me(db, lg))
		protected.Post("/v1/auth/logout", handlers.Logout(db, rec, lg))
		protected.Post("/v1/auth/password", handlers.ChangePassword(db, lg))

		// Read surface, open to every authenticated role.
		protected.Get("/v1/tenants", handlers.ListTenants(db, lg))
		protected.Get("/v1/tenants/stats", handlers.TenantStats(db, lg))
		protected.Get("/v1/tenants/{id}", handlers.GetTenant(db, lg))
		protected.Get("/v1/plans", handlers.ListPlans(db, lg))
		protected.Get("/v1/templates", handlers.ListTemplates(db, lg))
		protected.Get("/v1/templates/{id}", handlers.GetTemplate(db, lg))

		protected.Group(func(editor chi.Router) {
			editor.Use(auth.RequireRole(models.RoleSuperAdmin, models.RoleTenantAdmin))

			editor.Post("/v1/tenants", handlers.CreateTenant(db, rec, lg))
			editor.Patch("/v1/tenants/{id}", handlers.UpdateTenant(db, rec, lg))
			editor.Delete("/v1/tenants/{id}", handlers.DeleteTenant(db, rec, lg))
			editor.Post("/v1/tenants/{id}/billing/preview", handlers.TenantBillingPreview(db, lg))
			editor.Post("/v1/billing/preview", handlers.BillingPreview(db, lg))

			editor.Post("/v1/templates", handlers.CreateTemplate(db, rec, lg))
			editor.Patch("/v1/templates/{id}", handlers.UpdateTemplate(db, rec, lg))
			editor.Delete("/v1/templates/{id}", handlers.DeleteTemplate(db, rec, lg))
			editor.Post("/v1/templates/preview", handlers.PreviewTemplate(db, svc, lg))
			editor.Post("/v1/templates/test-send", handlers.SendTestMail(db, svc, lg))
		})

		protected.Group(func(admin chi.Router) {
			admin.Use(auth.RequireRole(models.RoleSuperAdmin))

			admin.Get("/v1/admin/users", handlers.ListAdminUsers(db, lg))
			admin.Post("/v1/admin/users", handlers.CreateAdminUser(db, rec, lg))
			admin.Patch("/v1/admin/users/{id}", handlers.UpdateAdminUser(db, rec, lg))
			admin.Delete("/v1/admin/users/{id}", handlers.DeleteAdminUser(db, rec, lg))

			admin.Post("/v1/plans", handlers.CreatePlan(db, rec, lg))
			admin.Patch("/v1/plans/{id}", handlers.UpdatePlan(db, rec, lg))
			admin.Delete("/v1/plans/{id}", handlers.DeletePlan(db, rec, lg))

			admin.Get("/v1/audit-logs", handlers.ListAuditLogs(db, lg))
			admin.Get("/v1/audit-logs/export", handlers.ExportAuditLogs(db, rec, lg))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", metrics.Handler())
	return r
}
