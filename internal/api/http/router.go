package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ticket-tracker/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Ticket routes carry the permission each
// role table entry grants; /all and /markAsClosed are registered before the
// :ticketId wildcard.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	v1 := app.Group("/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	tickets := v1.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/", auth.RequirePermission(auth.PermissionManageTickets), cfg.Tickets.CreateTicket)
	tickets.Get("/", auth.RequirePermission(auth.PermissionGetTickets), cfg.Tickets.ListTickets)
	tickets.Get("/all", auth.RequirePermission(auth.PermissionGetTickets), cfg.Tickets.ListAllTickets)
	tickets.Patch("/markAsClosed/:ticketId", auth.RequirePermission(auth.PermissionEditTickets), cfg.Tickets.CloseTicket)
	tickets.Get("/:ticketId", auth.RequirePermission(auth.PermissionGetTickets), cfg.Tickets.GetTicket)
	tickets.Delete("/:ticketId", auth.RequirePermission(auth.PermissionManageTickets), cfg.Tickets.DeleteTicket)
}
