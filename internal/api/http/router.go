package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pln-care/complaint-service/internal/api/http/handlers"
	"github.com/pln-care/complaint-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Complaints     *handlers.ComplaintsHandler
	WorkReports    *handlers.WorkReportsHandler
	Public         *handlers.PublicHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	public := api.Group("/public")
	public.Post("/complaints", cfg.Public.CreateComplaint)
	public.Get("/complaints/:ticketNumber", cfg.Public.Track)
	public.Get("/stats", cfg.Public.Stats)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	// The :id routes stay open to any principal; the service enforces
	// admin-or-self on reads and edits, self-only on password changes.
	users := api.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/", auth.RequireAdmin(), cfg.Users.List)
	users.Post("/", auth.RequireAdmin(), cfg.Users.Create)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Update)
	users.Put("/:id/change-password", cfg.Auth.ChangePasswordFor)
	users.Delete("/:id", auth.RequireAdmin(), cfg.Users.Delete)

	complaints := api.Group("/complaints", cfg.AuthMiddleware.Handle, auth.RequireOfficerOrAdmin())
	// Static paths first so ":id" does not capture them.
	complaints.Get("/stats", cfg.Complaints.Stats)
	complaints.Get("/stats/overview", auth.RequireAdmin(), cfg.Complaints.StatsOverview)
	complaints.Get("/", cfg.Complaints.List)
	complaints.Post("/", cfg.Complaints.Create)
	complaints.Get("/:id", cfg.Complaints.Get)
	complaints.Put("/:id", auth.RequireAdmin(), cfg.Complaints.Update)
	complaints.Delete("/:id", auth.RequireAdmin(), cfg.Complaints.Delete)
	complaints.Post("/:id/assign", auth.RequireAdmin(), cfg.Complaints.Assign)
	complaints.Put("/:id/status", cfg.Complaints.UpdateStatus)
	complaints.Post("/:id/updates", cfg.Complaints.AddUpdate)
	complaints.Get("/:id/work-report", cfg.WorkReports.GetByComplaint)

	reports := api.Group("/work-reports", cfg.AuthMiddleware.Handle, auth.RequireOfficerOrAdmin())
	reports.Post("/", cfg.WorkReports.Submit)
	reports.Get("/", cfg.WorkReports.List)
	reports.Get("/:id", cfg.WorkReports.Get)
	reports.Put("/:id", cfg.WorkReports.Update)
	reports.Post("/:id/review", auth.RequireAdmin(), cfg.WorkReports.Review)
}
