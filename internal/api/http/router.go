package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/helpdesk-platform/support-api/internal/api/http/handlers"
	"github.com/helpdesk-platform/support-api/internal/auth"
	"github.com/helpdesk-platform/support-api/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	Reference      *handlers.ReferenceHandler
	AuthMiddleware *auth.AuthMiddleware
	// RateLimit guards authenticated routes when set.
	RateLimit fiber.Handler
	// Gatherer backs /metrics when set.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/actuator/health", cfg.Health.Actuator)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(observability.Handler(cfg.Gatherer)))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/signup", cfg.Auth.SignUp)
	authGroup.Post("/signin", cfg.Auth.SignIn)

	app.Get("/api/v1/public/ticket-status", cfg.Reference.ListTicketStatuses)

	guards := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated()}
	if cfg.RateLimit != nil {
		guards = append(guards, cfg.RateLimit)
	}

	tickets := app.Group("/tickets", guards...)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Patch("/:id/answer", cfg.Tickets.Answer)
	tickets.Patch("/:id/status/:statusId", cfg.Tickets.SetStatus)
	tickets.Patch("/:id/assign/:agentId", cfg.Tickets.AssignAgent)
	tickets.Patch("/:id/read", cfg.Tickets.MarkRead)

	roles := app.Group("/roles", guards...)
	roles.Get("/", cfg.Reference.ListRoles)
	roles.Get("/:id", cfg.Reference.GetRole)

	statuses := app.Group("/ticket-status", guards...)
	statuses.Get("/", cfg.Reference.ListTicketStatuses)
	statuses.Get("/:id", cfg.Reference.GetTicketStatus)

	api := app.Group("/api/v1", guards...)
	api.Get("/me", cfg.Users.Me)

	users := api.Group("/users")
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)
	users.Patch("/:id/roles/:roleId", cfg.Users.AssignRole)
	users.Put("/:id/status/:statusId", cfg.Users.SetStatus)

	admin := api.Group("/admin", auth.RequireAuthority(auth.RoleAdmin))
	admin.Post("/ticket-status/refresh", cfg.Reference.RefreshStatuses)
}
