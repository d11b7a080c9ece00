package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/mparaz/cloudflare-ranking/internal/handler"
	"github.com/mparaz/cloudflare-ranking/internal/middleware"
	"github.com/mparaz/cloudflare-ranking/internal/model"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Captcha *handler.CaptchaHandler
	Link    *handler.LinkHandler
	Vote    *handler.VoteHandler
	Health  *handler.HealthHandler
}

// Options carries the cross-cutting settings for the middleware stack.
type Options struct {
	CORSOrigins string
	ClientIP    middleware.ClientIPFunc
	Sessions    middleware.SessionValidator
}

// Setup configures the middleware stack and all routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, opts Options) {
	clientIP := opts.ClientIP
	if clientIP == nil {
		clientIP = middleware.NewClientIPFunc("")
	}

	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger(clientIP))
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(opts.CORSOrigins))

	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	app.Get("/links.html", h.Link.ListHTML)

	requireSession := middleware.RequireSession(opts.Sessions, clientIP)
	mintLimit := middleware.NewMintRateLimiter(clientIP).Handler()
	voteLimit := middleware.NewVoteRateLimiter(clientIP).Handler()
	submitLimit := middleware.NewSubmitRateLimiter(clientIP).Handler()

	api := app.Group("/api")

	api.Post("/captcha/session", mintLimit, h.Captcha.Mint)

	api.Get("/links", h.Link.List)
	api.Post("/links", submitLimit, requireSession, h.Link.Submit)

	links := api.Group("/links/:id", voteLimit, requireSession)
	links.Post("/vote", h.Vote.Vote)
	links.Post("/upvote", h.Vote.Fixed(model.DirectionUp, false))
	links.Post("/downvote", h.Vote.Fixed(model.DirectionDown, false))
	links.Post("/unupvote", h.Vote.Fixed(model.DirectionUp, true))
	links.Post("/undownvote", h.Vote.Fixed(model.DirectionDown, true))
}
