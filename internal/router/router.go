// Package router sets up the HTTP routes and middleware chain of the bot
// server: a public health probe and the Telegram webhook.
package router

import (
	"github.com/go-chi/chi/v5"

	"checklater/internal/handlers"
	"checklater/internal/middleware"
)

// Options configures the webhook protection.
type Options struct {
	// WebhookSecret must match the secret token header; empty disables the check.
	WebhookSecret string
	// Limiter rate-limits the webhook; nil disables limiting.
	Limiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router.
func New(health *handlers.Health, webhook *handlers.Webhook, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", health.Check)

	r.Group(func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Middleware)
		}
		r.Use(middleware.WebhookSecret(opts.WebhookSecret))
		r.Post("/webhook", webhook.Receive)
	})

	return r
}
