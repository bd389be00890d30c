package handler

// This file holds the backend endpoints the offline agent syncs against.
// Every route runs behind JWTAuth + RequireRole(PROVIDER); the provider id
// from the token scopes every read and write.  Writes publish an event
// after they commit, best effort.

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/provider-sync/internal/clock"
    "github.com/iliyamo/provider-sync/internal/middleware"
    "github.com/iliyamo/provider-sync/internal/model"
    "github.com/iliyamo/provider-sync/internal/queue"
    "github.com/iliyamo/provider-sync/internal/repository"
    "github.com/iliyamo/provider-sync/internal/service"
)

// SlotStore is the slot persistence the handler needs.
type SlotStore interface {
    ListByProvider(ctx context.Context, providerID uint64) ([]model.Slot, error)
    Upsert(ctx context.Context, providerID uint64, s model.Slot) error
}

// ReservationStore is the reservation persistence the handler needs.
type ReservationStore interface {
    ListByProvider(ctx context.Context, providerID uint64) ([]model.Reservation, error)
    UpdateStatus(ctx context.Context, providerID uint64, id string, status model.ReservationStatus) error
    SaveMemo(ctx context.Context, providerID uint64, id string, memo *string) error
    SaveContact(ctx context.Context, providerID uint64, id string, c model.Contact) error
    SaveFeedback(ctx context.Context, providerID uint64, id string, fb model.Feedback, date string) error
}

// ProviderHandler serves /v1/provider.
type ProviderHandler struct {
    Slots        SlotStore
    Reservations ReservationStore
    Events       service.Publisher
    Clock        clock.Clock
}

// NewProviderHandler panics on a nil store; events and clock have defaults.
func NewProviderHandler(slots SlotStore, reservations ReservationStore, events service.Publisher, clk clock.Clock) *ProviderHandler {
    if slots == nil || reservations == nil {
        panic("nil repository passed to NewProviderHandler")
    }
    if events == nil {
        events = service.Discard{}
    }
    if clk == nil {
        clk = clock.NewSystem()
    }
    return &ProviderHandler{Slots: slots, Reservations: reservations, Events: events, Clock: clk}
}

// ListSlots handles GET /v1/provider/slots.
func (h *ProviderHandler) ListSlots(c echo.Context) error {
    slots, err := h.Slots.ListByProvider(c.Request().Context(), middleware.ProviderID(c))
    if err != nil {
        c.Logger().Errorf("list slots: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load slots"})
    }
    return c.JSON(http.StatusOK, echo.Map{"slots": slots, "count": len(slots)})
}

// UpsertSlot handles PUT /v1/provider/slots/:id.  The stored slot is the
// normalized one; the response echoes it back.
func (h *ProviderHandler) UpsertSlot(c echo.Context) error {
    var s model.Slot
    if err := c.Bind(&s); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    id := strings.TrimSpace(c.Param("id"))
    if s.ID == "" {
        s.ID = id
    }
    if s.ID != id {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot id does not match path"})
    }
    s = model.NormalizeSlot(s)
    if err := s.Validate(); err != nil {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
    }
    if s.UpdatedAt.IsZero() {
        s.UpdatedAt = h.Clock.Now()
    }

    providerID := middleware.ProviderID(c)
    if err := h.Slots.Upsert(c.Request().Context(), providerID, s); err != nil {
        return repoError(c, err, "slot")
    }
    remaining := s.Remaining
    h.publish(c, queue.ProviderEvent{
        Type: queue.EventSlotUpserted, ProviderID: providerID, EntityID: s.ID,
        Status: string(s.State), Remaining: &remaining,
    })
    return c.JSON(http.StatusOK, s)
}

// ListReservations handles GET /v1/provider/reservations.
func (h *ProviderHandler) ListReservations(c echo.Context) error {
    list, err := h.Reservations.ListByProvider(c.Request().Context(), middleware.ProviderID(c))
    if err != nil {
        c.Logger().Errorf("list reservations: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": list, "count": len(list)})
}

type statusReq struct {
    Status model.ReservationStatus `json:"status"`
}

// UpdateStatus handles PATCH /v1/provider/reservations/:id/status.
func (h *ProviderHandler) UpdateStatus(c echo.Context) error {
    var req statusReq
    if err := c.Bind(&req); err != nil || !req.Status.Valid() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid status required"})
    }
    id, providerID := c.Param("id"), middleware.ProviderID(c)
    if err := h.Reservations.UpdateStatus(c.Request().Context(), providerID, id, req.Status); err != nil {
        return repoError(c, err, "reservation")
    }
    h.publish(c, queue.ProviderEvent{Type: queue.EventStatusChanged, ProviderID: providerID, EntityID: id, Status: string(req.Status)})
    return c.NoContent(http.StatusNoContent)
}

type memoReq struct {
    Memo *string `json:"memo"`
}

// SaveMemo handles PUT /v1/provider/reservations/:id/memo.  A null memo
// clears it.
func (h *ProviderHandler) SaveMemo(c echo.Context) error {
    var req memoReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    id, providerID := c.Param("id"), middleware.ProviderID(c)
    if err := h.Reservations.SaveMemo(c.Request().Context(), providerID, id, req.Memo); err != nil {
        return repoError(c, err, "reservation")
    }
    h.publish(c, queue.ProviderEvent{Type: queue.EventMemoSaved, ProviderID: providerID, EntityID: id})
    return c.NoContent(http.StatusNoContent)
}

// SaveContact handles PUT /v1/provider/reservations/:id/contact.
func (h *ProviderHandler) SaveContact(c echo.Context) error {
    var req model.Contact
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    id, providerID := c.Param("id"), middleware.ProviderID(c)
    if err := h.Reservations.SaveContact(c.Request().Context(), providerID, id, req); err != nil {
        return repoError(c, err, "reservation")
    }
    h.publish(c, queue.ProviderEvent{Type: queue.EventContactSaved, ProviderID: providerID, EntityID: id})
    return c.NoContent(http.StatusNoContent)
}

type feedbackReq struct {
    Feedback *model.Feedback `json:"feedback"`
}

// SaveFeedback handles PUT /v1/provider/reservations/:id/feedback.  The
// history row is dated with the server's current day.
func (h *ProviderHandler) SaveFeedback(c echo.Context) error {
    var req feedbackReq
    if err := c.Bind(&req); err != nil || req.Feedback == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "feedback required"})
    }
    if err := req.Feedback.Validate(); err != nil {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
    }
    now := h.Clock.Now()
    if req.Feedback.UpdatedAt.IsZero() {
        req.Feedback.UpdatedAt = now
    }
    id, providerID := c.Param("id"), middleware.ProviderID(c)
    if err := h.Reservations.SaveFeedback(c.Request().Context(), providerID, id, *req.Feedback, now.Format(time.DateOnly)); err != nil {
        return repoError(c, err, "reservation")
    }
    h.publish(c, queue.ProviderEvent{Type: queue.EventFeedbackSaved, ProviderID: providerID, EntityID: id})
    return c.NoContent(http.StatusNoContent)
}

func (h *ProviderHandler) publish(c echo.Context, ev queue.ProviderEvent) {
    ev.CorrelationID = c.Request().Header.Get("X-Correlation-Id")
    ev.OccurredAt = h.Clock.Now().Format(time.RFC3339)
    // the write is committed; a broker failure must not fail the request
    _ = h.Events.Publish(context.WithoutCancel(c.Request().Context()), ev)
}

// repoError maps repository sentinels to HTTP answers.
func repoError(c echo.Context, err error, what string) error {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": what + " not found"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
    }
    c.Logger().Errorf("%s write: %v", what, err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save " + what})
}
