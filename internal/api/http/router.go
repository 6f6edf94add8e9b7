package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/greenmark/notes-service/internal/api/http/handlers"
	"github.com/greenmark/notes-service/internal/auth"
	"github.com/greenmark/notes-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Notes          *handlers.NotesHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   *LoginRateLimiter
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Post("/google", cfg.LoginLimiter.Handle, cfg.Auth.Login)

	session := authGroup.Group("", cfg.AuthMiddleware.Handle)
	session.Get("/me", cfg.Auth.Me)
	session.Post("/logout", cfg.Auth.Logout)

	notes := app.Group("/notes", cfg.AuthMiddleware.Handle)
	notes.Get("/stats", cfg.Notes.Stats)
	notes.Get("/", cfg.Notes.List)
	notes.Post("/", cfg.Notes.Create)
	notes.Get("/:id", cfg.Notes.Get)
	notes.Put("/:id", cfg.Notes.Update)
	notes.Delete("/:id", cfg.Notes.Delete)
	notes.Patch("/:id/pin", cfg.Notes.TogglePin)
}
