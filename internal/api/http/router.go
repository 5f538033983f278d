package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Lookups        *handlers.LookupsHandler
	Requests       *handlers.RequestsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Get("/users/exists", cfg.Auth.Exists)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Auth.ChangePassword)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Get("/me", cfg.Auth.Me)
	protected.Get("/me/settings", cfg.Auth.GetSettings)
	protected.Put("/me/settings", cfg.Auth.SaveSettings)

	protected.Get("/lookups/categories", cfg.Lookups.Categories)
	protected.Get("/lookups/statuses", cfg.Lookups.Statuses)
	protected.Get("/lookups/priorities", cfg.Lookups.Priorities)

	staffOnly := auth.RequireRole(domain.RoleTech, domain.RoleAdmin)
	protected.Get("/requests", cfg.Requests.List)
	protected.Post("/requests", cfg.Requests.Create)
	protected.Get("/requests/export", cfg.Requests.Export)
	protected.Get("/requests/:id", cfg.Requests.Get)
	protected.Put("/requests/:id", cfg.Requests.Update)
	protected.Delete("/requests/:id", cfg.Requests.Delete)
	protected.Post("/requests/:id/assign", staffOnly, cfg.Requests.Assign)
	protected.Post("/requests/:id/close", staffOnly, cfg.Requests.Close)

	protected.Get("/notifications/recent", cfg.Reports.RecentNotifications)
	protected.Get("/rating", cfg.Reports.Ratings)
	protected.Get("/rating/:id", cfg.Reports.TechnicianRating)

	adminOnly := auth.RequireRole(domain.RoleAdmin)
	protected.Get("/users", adminOnly, cfg.Users.List)
	protected.Post("/users", adminOnly, cfg.Users.Create)
	protected.Put("/users/:id", adminOnly, cfg.Users.Update)
	protected.Delete("/users/:id", adminOnly, cfg.Users.Delete)
	protected.Post("/users/:id/password/reset", adminOnly, cfg.Users.ResetPassword)

	protected.Get("/analytics/status", adminOnly, cfg.Reports.StatusBreakdown)
	protected.Get("/analytics/timeline", adminOnly, cfg.Reports.Timeline)
	protected.Get("/analytics/technicians", adminOnly, cfg.Reports.TechnicianLoad)
}
