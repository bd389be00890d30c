package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/provider-sync/internal/handler"
)

// RegisterAgent registers the agent's local API.  It is served on the
// loopback interface for the UI and carries no authentication.
func RegisterAgent(e *echo.Echo, h *handler.AgentHandler) {
	e.GET("/healthz", handler.Health)

	g := e.Group("/v1")

	// ---- Connectivity and queue ----
	g.GET("/state", h.State)
	g.GET("/queue", h.Queue)
	g.POST("/online", h.SetOnline)
	g.POST("/fetch", h.Fetch)
	g.POST("/drain", h.Drain)

	// ---- Reservations ----
	g.PATCH("/reservations/:id/status", h.UpdateStatus)
	g.PUT("/reservations/:id/memo", h.SaveMemo)
	g.PUT("/reservations/:id/contact", h.SaveContact)
	g.PUT("/reservations/:id/feedback", h.SaveFeedback)

	// ---- Slots ----
	g.POST("/slots", h.AddSlot)
	g.PUT("/slots/:id", h.UpdateSlot)
	g.POST("/slots/:id/toggle-publish", h.TogglePublish)
	g.POST("/slots/:id/close", h.CloseSlot)
}
