package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/provider-sync/internal/config"
	"github.com/iliyamo/provider-sync/internal/handler"    // handlers implementing each endpoint
	"github.com/iliyamo/provider-sync/internal/middleware" // JWT, role and rate limit middleware
	"github.com/iliyamo/provider-sync/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the token endpoints under /v1/auth.  Both are
// unauthenticated: login takes credentials, refresh takes a refresh token
// and rotates it.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
}

// RegisterProvider registers the provider-scoped backend API under
// /v1/provider.  Every route requires a PROVIDER token; when rdb is non-nil
// the Redis token bucket is applied after authentication so buckets are
// keyed per provider.
func RegisterProvider(e *echo.Echo, p *handler.ProviderHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group(
		"/v1/provider",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleProvider),
	)
	if rdb != nil {
		g.Use(middleware.NewTokenBucket(rl, rdb))
	}

	// ---- Slots ----
	g.GET("/slots", p.ListSlots)
	g.PUT("/slots/:id", p.UpsertSlot)

	// ---- Reservations ----
	g.GET("/reservations", p.ListReservations)
	g.PATCH("/reservations/:id/status", p.UpdateStatus)
	g.PUT("/reservations/:id/memo", p.SaveMemo)
	g.PUT("/reservations/:id/contact", p.SaveContact)
	g.PUT("/reservations/:id/feedback", p.SaveFeedback)
}
