package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/handler"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Channel *handler.ChannelHandler
	Task    *handler.TaskHandler
	Stats   *handler.StatsHandler
	Health  *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	// Probes and metrics (before API group)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	api := app.Group("/api")

	// Channel routes
	registerLimiter := middleware.NewRegisterRateLimiter()
	reportLimiter := middleware.NewReportRateLimiter()
	api.Post("/channels", h.Channel.Register, registerLimiter.Handler())
	api.Get("/channels", h.Channel.List)
	api.Get("/channels/:channelId", h.Channel.Get)
	api.Get("/channels/:channelId/daily", h.Channel.DailyStats, reportLimiter.Handler())

	// Task routes. "locks" must be registered before ":taskType" segments
	// resolve, but Fiber matches static segments first anyway.
	triggerLimiter := middleware.NewTaskTriggerRateLimiter()
	api.Get("/tasks", h.Task.List)
	api.Get("/tasks/locks", h.Task.Locks)
	api.Post("/tasks/:taskType/run", h.Task.Run, triggerLimiter.Handler())

	// Stats routes
	api.Get("/stats", h.Stats.GetStats)
}
