package handler

// The agent's local API.  UI callers mutate through it while the agent
// decides whether the change reaches the backend now or waits in the queue.
// Mutations never fail for backend reasons: they answer 202 with the state
// after the local apply.  Only malformed input is a 400.

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/provider-sync/internal/model"
    "github.com/iliyamo/provider-sync/internal/provider"
)

// AgentHandler wraps a provider.Store.
type AgentHandler struct {
    Store *provider.Store
    // BreakerState reports the backend circuit, when there is one.
    BreakerState func() string
}

func NewAgentHandler(store *provider.Store, breakerState func() string) *AgentHandler {
    if store == nil {
        panic("nil store passed to NewAgentHandler")
    }
    return &AgentHandler{Store: store, BreakerState: breakerState}
}

type queuedOp struct {
    ID       string `json:"id"`
    Type     string `json:"type"`
    EntityID string `json:"entity_id"`
}

type stateResp struct {
    Online       bool                `json:"online"`
    QueueLength  int                 `json:"queue_length"`
    KPI          provider.KPI        `json:"kpi"`
    Breaker      string              `json:"breaker,omitempty"`
    Reservations []model.Reservation `json:"reservations"`
    Slots        []model.Slot        `json:"slots"`
}

func (h *AgentHandler) state() stateResp {
    snap := h.Store.Snapshot()
    resp := stateResp{
        Online:       snap.Online,
        QueueLength:  snap.Queue.Len(),
        KPI:          snap.KPI,
        Reservations: snap.Reservations,
        Slots:        snap.Slots,
    }
    if h.BreakerState != nil {
        resp.Breaker = h.BreakerState()
    }
    return resp
}

// State handles GET /v1/state.
func (h *AgentHandler) State(c echo.Context) error {
    return c.JSON(http.StatusOK, h.state())
}

// Queue handles GET /v1/queue: the pending operations in replay order.
func (h *AgentHandler) Queue(c echo.Context) error {
    ops := h.Store.Queue()
    out := make([]queuedOp, len(ops))
    for i, op := range ops {
        out[i] = queuedOp{ID: op.OpID(), Type: op.Kind(), EntityID: op.EntityID()}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

type onlineReq struct {
    Online *bool `json:"online"`
}

// SetOnline handles POST /v1/online.  Going online drains the queue before
// the response is written.
func (h *AgentHandler) SetOnline(c echo.Context) error {
    var req onlineReq
    if err := c.Bind(&req); err != nil || req.Online == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "online (bool) required"})
    }
    h.Store.SetOnline(c.Request().Context(), *req.Online)
    return c.JSON(http.StatusOK, h.state())
}

// Fetch handles POST /v1/fetch.  A backend failure is a 502; the local
// lists stay as they were.
func (h *AgentHandler) Fetch(c echo.Context) error {
    if err := h.Store.FetchData(c.Request().Context()); err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusOK, h.state())
}

// Drain handles POST /v1/drain, a manual retry of the queue.
func (h *AgentHandler) Drain(c echo.Context) error {
    if err := h.Store.DrainIfOnline(c.Request().Context()); err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error(), "queue_length": h.Store.QueueLen()})
    }
    return c.JSON(http.StatusOK, h.state())
}

func (h *AgentHandler) accepted(c echo.Context) error {
    return c.JSON(http.StatusAccepted, h.state())
}

// UpdateStatus handles PATCH /v1/reservations/:id/status.
func (h *AgentHandler) UpdateStatus(c echo.Context) error {
    var req statusReq
    if err := c.Bind(&req); err != nil || !req.Status.Valid() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid status required"})
    }
    h.Store.UpdateReservationStatus(c.Request().Context(), c.Param("id"), req.Status)
    return h.accepted(c)
}

// SaveMemo handles PUT /v1/reservations/:id/memo.
func (h *AgentHandler) SaveMemo(c echo.Context) error {
    var req memoReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    h.Store.SaveReservationMemo(c.Request().Context(), c.Param("id"), req.Memo)
    return h.accepted(c)
}

// SaveContact handles PUT /v1/reservations/:id/contact.
func (h *AgentHandler) SaveContact(c echo.Context) error {
    var req model.Contact
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    h.Store.SaveReservationContact(c.Request().Context(), c.Param("id"), req)
    return h.accepted(c)
}

// SaveFeedback handles PUT /v1/reservations/:id/feedback.  Scores outside
// 1..5 are rejected here so they never reach the queue.
func (h *AgentHandler) SaveFeedback(c echo.Context) error {
    var req feedbackReq
    if err := c.Bind(&req); err != nil || req.Feedback == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "feedback required"})
    }
    if err := req.Feedback.Validate(); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    h.Store.SaveFeedback(c.Request().Context(), c.Param("id"), *req.Feedback)
    return h.accepted(c)
}

func (h *AgentHandler) bindSlot(c echo.Context) (model.Slot, bool) {
    var s model.Slot
    if err := c.Bind(&s); err != nil {
        return s, false
    }
    if id := c.Param("id"); id != "" {
        if s.ID != "" && s.ID != id {
            return s, false
        }
        s.ID = id
    }
    return s, model.NormalizeSlot(s).Validate() == nil
}

// AddSlot handles POST /v1/slots.  An id already in use is ignored.
func (h *AgentHandler) AddSlot(c echo.Context) error {
    s, ok := h.bindSlot(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot"})
    }
    h.Store.AddSlot(c.Request().Context(), s)
    return h.accepted(c)
}

// UpdateSlot handles PUT /v1/slots/:id.  Unknown ids are ignored.
func (h *AgentHandler) UpdateSlot(c echo.Context) error {
    s, ok := h.bindSlot(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot"})
    }
    h.Store.UpdateSlot(c.Request().Context(), s)
    return h.accepted(c)
}

// TogglePublish handles POST /v1/slots/:id/toggle-publish.
func (h *AgentHandler) TogglePublish(c echo.Context) error {
    h.Store.ToggleSlotPublish(c.Request().Context(), c.Param("id"))
    return h.accepted(c)
}

// CloseSlot handles POST /v1/slots/:id/close.
func (h *AgentHandler) CloseSlot(c echo.Context) error {
    h.Store.CloseSlot(c.Request().Context(), c.Param("id"))
    return h.accepted(c)
}
