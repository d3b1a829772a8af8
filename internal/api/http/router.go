package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/api/http/handlers"
	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Customers      *handlers.CustomersHandler
	Trash          *handlers.TrashHandler
	Dashboard      *handlers.DashboardHandler
	Showrooms      *handlers.ShowroomsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Role gating happens once per group via
// the shared authorize predicate; destructive lifecycle routes are
// additionally re-checked inside the service layer.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Post("/logout", cfg.Auth.Logout)
	protected.Get("/me", cfg.Auth.Me)
	protected.Put("/profile", cfg.Auth.UpdateProfile)
	protected.Post("/password/change", cfg.Auth.ChangePassword)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	customers := api.Group("/customers",
		auth.RequireRoles(domain.RoleAdmin, domain.RoleManager, domain.RoleSalesperson))
	customers.Get("/", cfg.Customers.List)
	customers.Post("/", cfg.Customers.Create)
	customers.Get("/:id", cfg.Customers.Get)
	customers.Put("/:id", cfg.Customers.Update)
	customers.Delete("/:id", auth.RequireRoles(domain.RoleAdmin), cfg.Customers.SoftDelete)

	trash := api.Group("/trash", auth.RequireRoles(domain.RoleAdmin))
	trash.Get("/customers", cfg.Trash.List)
	trash.Post("/customers/:id/restore", cfg.Trash.Restore)
	trash.Delete("/customers/:id", cfg.Trash.Erase)

	api.Get("/dashboard/summary", auth.RequireRoles(domain.RoleAdmin), cfg.Dashboard.Summary)

	api.Get("/showrooms",
		auth.RequireRoles(domain.RoleAdmin, domain.RoleManager, domain.RoleSalesperson),
		cfg.Showrooms.List)

	accounts := api.Group("/accounts", auth.RequireRoles(domain.RoleAdmin))
	accounts.Post("/", cfg.Auth.CreateAccount)
	accounts.Get("/salespeople", cfg.Auth.ListSalespeople)
}
