package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/helpdesk/support-desk/internal/api/http/handlers"
	"github.com/helpdesk/support-desk/internal/auth"
	"github.com/helpdesk/support-desk/internal/domain"
	"github.com/helpdesk/support-desk/internal/observability"
	"github.com/helpdesk/support-desk/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	AI             *handlers.AIHandler
	AuthMiddleware *auth.AuthMiddleware
	ChatLimiter    ratelimit.Limiter
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if registry := cfg.Metrics.Registry(); registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	authenticate := cfg.AuthMiddleware.Handle
	adminOnly := auth.RequireRole(domain.RoleAdmin)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", authenticate, cfg.Auth.Me)

	tickets := app.Group("/tickets", authenticate)
	tickets.Get("/", adminOnly, cfg.Tickets.ListAllTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/my-tickets", cfg.Tickets.ListMyTickets)
	tickets.Get("/stats", adminOnly, cfg.Tickets.Stats)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/message", cfg.Tickets.AddMessage)
	tickets.Post("/:id/generate-response", cfg.Tickets.GenerateResponse)
	tickets.Patch("/:id/close", cfg.Tickets.CloseTicket)

	messages := app.Group("/messages", authenticate)
	messages.Get("/:ticketId", cfg.Tickets.ListMessages)

	admin := app.Group("/admin", authenticate, adminOnly)
	admin.Get("/tickets", cfg.Admin.ListTickets)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Get("/stats", cfg.Admin.Stats)
	admin.Patch("/tickets/:id/status", cfg.Admin.UpdateTicketStatus)
	admin.Delete("/tickets/:id", cfg.Admin.DeleteTicket)
	admin.Patch("/users/:id/role", cfg.Admin.UpdateUserRole)

	assistant := app.Group("/ai", authenticate)
	assistant.Post("/chat", rateLimitMiddleware(cfg.ChatLimiter, "/ai/chat", logger, cfg.Metrics), cfg.AI.Chat)
	assistant.Get("/suggestions", cfg.AI.Suggestions)
	assistant.Post("/feedback", cfg.AI.Feedback)
	assistant.Get("/status", cfg.AI.Status)
}
