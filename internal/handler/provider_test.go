package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/provider-sync/internal/clock"
    "github.com/iliyamo/provider-sync/internal/middleware"
    "github.com/iliyamo/provider-sync/internal/model"
    "github.com/iliyamo/provider-sync/internal/queue"
    "github.com/iliyamo/provider-sync/internal/repository"
    "github.com/iliyamo/provider-sync/internal/utils"
)

const testSecret = "test-secret"

// memSlots / memReservations mimic the repositories' provider scoping.
type memSlots struct {
    owner map[string]uint64
    rows  map[string]model.Slot
}

func (m *memSlots) ListByProvider(_ context.Context, providerID uint64) ([]model.Slot, error) {
    out := []model.Slot{}
    for id, s := range m.rows {
        if m.owner[id] == providerID {
            out = append(out, s)
        }
    }
    return out, nil
}

func (m *memSlots) Upsert(_ context.Context, providerID uint64, s model.Slot) error {
    if owner, ok := m.owner[s.ID]; ok && owner != providerID {
        return repository.ErrForbidden
    }
    m.owner[s.ID] = providerID
    m.rows[s.ID] = s
    return nil
}

type memReservations struct {
    rows         map[string]model.Reservation
    feedbackDate string
}

func (m *memReservations) get(id string) (model.Reservation, error) {
    r, ok := m.rows[id]
    if !ok {
        return r, repository.ErrNotFound
    }
    return r, nil
}

func (m *memReservations) ListByProvider(context.Context, uint64) ([]model.Reservation, error) {
    out := []model.Reservation{}
    for _, r := range m.rows {
        out = append(out, r)
    }
    return out, nil
}

func (m *memReservations) UpdateStatus(_ context.Context, _ uint64, id string, st model.ReservationStatus) error {
    r, err := m.get(id)
    if err != nil {
        return err
    }
    r.Status = st
    m.rows[id] = r
    return nil
}

func (m *memReservations) SaveMemo(_ context.Context, _ uint64, id string, memo *string) error {
    r, err := m.get(id)
    if err != nil {
        return err
    }
    r.Memo = memo
    m.rows[id] = r
    return nil
}

func (m *memReservations) SaveContact(_ context.Context, _ uint64, id string, c model.Contact) error {
    r, err := m.get(id)
    if err != nil {
        return err
    }
    if c.Phone != nil {
        r.Guardian.Phone = c.Phone
    }
    if c.Email != nil {
        r.Guardian.Email = c.Email
    }
    m.rows[id] = r
    return nil
}

func (m *memReservations) SaveFeedback(_ context.Context, _ uint64, id string, fb model.Feedback, date string) error {
    r, err := m.get(id)
    if err != nil {
        return err
    }
    r.Feedback = &fb
    m.feedbackDate = date
    m.rows[id] = r
    return nil
}

type recordingPublisher struct {
    mu     sync.Mutex
    events []queue.ProviderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ProviderEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
    return nil
}

type backendFixture struct {
    e      *echo.Echo
    slots  *memSlots
    res    *memReservations
    events *recordingPublisher
}

func newBackend(t *testing.T) backendFixture {
    t.Helper()
    f := backendFixture{
        slots:  &memSlots{owner: map[string]uint64{}, rows: map[string]model.Slot{}},
        res:    &memReservations{rows: map[string]model.Reservation{"RSV-001": {ID: "RSV-001", Status: model.StatusBooked}}},
        events: &recordingPublisher{},
    }
    h := NewProviderHandler(f.slots, f.res, f.events, clock.NewFixed(time.Date(2025, 10, 2, 8, 0, 0, 0, time.UTC)))
    f.e = echo.New()
    g := f.e.Group("/v1/provider", middleware.JWTAuth(testSecret), middleware.RequireRole(model.RoleProvider))
    g.GET("/slots", h.ListSlots)
    g.PUT("/slots/:id", h.UpsertSlot)
    g.GET("/reservations", h.ListReservations)
    g.PATCH("/reservations/:id/status", h.UpdateStatus)
    g.PUT("/reservations/:id/memo", h.SaveMemo)
    g.PUT("/reservations/:id/contact", h.SaveContact)
    g.PUT("/reservations/:id/feedback", h.SaveFeedback)
    return f
}

func (f backendFixture) as(t *testing.T, providerID uint64, method, path, body string) *httptest.ResponseRecorder {
    t.Helper()
    tok, err := utils.NewAccessToken(testSecret, providerID, model.RoleProvider, time.Minute)
    require.NoError(t, err)
    var req *http.Request
    if body == "" {
        req = httptest.NewRequest(method, path, nil)
    } else {
        req = httptest.NewRequest(method, path, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    req.Header.Set("Authorization", "Bearer "+tok.Token)
    req.Header.Set("X-Correlation-Id", "corr-1")
    rec := httptest.NewRecorder()
    f.e.ServeHTTP(rec, req)
    return rec
}

func TestBackendUpsertSlotNormalizesAndPublishes(t *testing.T) {
    f := newBackend(t)
    rec := f.as(t, 1, http.MethodPut, "/v1/provider/slots/SLOT-1", `{"capacity":6,"remaining":0,"state":"published"}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

    var got model.Slot
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
    assert.Equal(t, "SLOT-1", got.ID)
    assert.Equal(t, model.SlotFull, got.State)
    assert.Equal(t, model.SlotFull, f.slots.rows["SLOT-1"].State)

    require.Len(t, f.events.events, 1)
    ev := f.events.events[0]
    assert.Equal(t, queue.EventSlotUpserted, ev.Type)
    assert.Equal(t, "corr-1", ev.CorrelationID)
    require.NotNil(t, ev.Remaining)
    assert.Equal(t, 0, *ev.Remaining)
}

func TestBackendUpsertSlotValidation(t *testing.T) {
    f := newBackend(t)
    assert.Equal(t, http.StatusBadRequest, f.as(t, 1, http.MethodPut, "/v1/provider/slots/SLOT-1", `{"id":"SLOT-2","capacity":1,"remaining":1,"state":"draft"}`).Code)
    assert.Equal(t, http.StatusUnprocessableEntity, f.as(t, 1, http.MethodPut, "/v1/provider/slots/SLOT-1", `{"capacity":1,"remaining":1,"state":"archived"}`).Code)
    assert.Empty(t, f.events.events)
}

func TestBackendSlotOwnedByOtherProviderIsForbidden(t *testing.T) {
    f := newBackend(t)
    require.Equal(t, http.StatusOK, f.as(t, 1, http.MethodPut, "/v1/provider/slots/SLOT-1", `{"capacity":1,"remaining":1,"state":"draft"}`).Code)
    assert.Equal(t, http.StatusForbidden, f.as(t, 2, http.MethodPut, "/v1/provider/slots/SLOT-1", `{"capacity":1,"remaining":1,"state":"draft"}`).Code)

    rec := f.as(t, 2, http.MethodGet, "/v1/provider/slots", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"slots":[],"count":0}`, rec.Body.String())
}

func TestBackendReservationWrites(t *testing.T) {
    f := newBackend(t)

    assert.Equal(t, http.StatusNoContent, f.as(t, 1, http.MethodPatch, "/v1/provider/reservations/RSV-001/status", `{"status":"arrived"}`).Code)
    assert.Equal(t, model.StatusArrived, f.res.rows["RSV-001"].Status)

    assert.Equal(t, http.StatusNoContent, f.as(t, 1, http.MethodPut, "/v1/provider/reservations/RSV-001/memo", `{"memo":"quiet today"}`).Code)
    assert.Equal(t, "quiet today", *f.res.rows["RSV-001"].Memo)
    assert.Equal(t, http.StatusNoContent, f.as(t, 1, http.MethodPut, "/v1/provider/reservations/RSV-001/memo", `{"memo":null}`).Code)
    assert.Nil(t, f.res.rows["RSV-001"].Memo)

    assert.Equal(t, http.StatusNoContent, f.as(t, 1, http.MethodPut, "/v1/provider/reservations/RSV-001/contact", `{"phone":"03-1234-5678"}`).Code)
    assert.Equal(t, "03-1234-5678", *f.res.rows["RSV-001"].Guardian.Phone)

    rec := f.as(t, 1, http.MethodPut, "/v1/provider/reservations/RSV-001/feedback",
        `{"feedback":{"focus":4,"collaboration":5,"challenge":3,"creativity":4,"stamina":5,"note":"great"}}`)
    assert.Equal(t, http.StatusNoContent, rec.Code)
    assert.Equal(t, "2025-10-02", f.res.feedbackDate)

    var types []queue.EventType
    for _, ev := range f.events.events {
        types = append(types, ev.Type)
    }
    assert.Equal(t, []queue.EventType{
        queue.EventStatusChanged, queue.EventMemoSaved, queue.EventMemoSaved,
        queue.EventContactSaved, queue.EventFeedbackSaved,
    }, types)
}

func TestBackendReservationErrors(t *testing.T) {
    f := newBackend(t)
    assert.Equal(t, http.StatusNotFound, f.as(t, 1, http.MethodPatch, "/v1/provider/reservations/RSV-404/status", `{"status":"arrived"}`).Code)
    assert.Equal(t, http.StatusBadRequest, f.as(t, 1, http.MethodPatch, "/v1/provider/reservations/RSV-001/status", `{"status":""}`).Code)
    assert.Equal(t, http.StatusUnprocessableEntity, f.as(t, 1, http.MethodPut, "/v1/provider/reservations/RSV-001/feedback",
        `{"feedback":{"focus":0,"collaboration":5,"challenge":3,"creativity":4,"stamina":5}}`).Code)
    assert.Empty(t, f.events.events)
}

func TestBackendRequiresToken(t *testing.T) {
    f := newBackend(t)
    rec := httptest.NewRecorder()
    f.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/provider/reservations", nil))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
