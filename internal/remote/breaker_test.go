package remote

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/provider-sync/internal/model"
)

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// stubRemote answers every write with err and counts calls.
type stubRemote struct {
	calls int32
	err   error
	slots []model.Slot
}

func (s *stubRemote) hit() error {
	atomic.AddInt32(&s.calls, 1)
	return s.err
}

func (s *stubRemote) FetchSlots(context.Context) ([]model.Slot, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return s.slots, nil
}

func (s *stubRemote) FetchReservations(context.Context) ([]model.Reservation, error) {
	return nil, s.hit()
}

func (s *stubRemote) UpsertSlot(context.Context, model.Slot) error { return s.hit() }

func (s *stubRemote) UpdateReservationStatus(context.Context, string, model.ReservationStatus) error {
	return s.hit()
}

func (s *stubRemote) SaveReservationMemo(context.Context, string, *string) error { return s.hit() }

func (s *stubRemote) SaveReservationContact(context.Context, string, model.Contact) error {
	return s.hit()
}

func (s *stubRemote) SaveFeedback(context.Context, string, model.Feedback) error { return s.hit() }

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	next := &stubRemote{err: errors.New("connection refused")}
	b := NewBreakerClient(next, BreakerConfig{FailureThreshold: 2, Timeout: time.Minute}, nopLogger{})

	assert.Error(t, b.UpsertSlot(ctx, model.Slot{}))
	assert.Error(t, b.UpsertSlot(ctx, model.Slot{}))
	assert.Equal(t, "open", b.State())

	err := b.SaveFeedback(ctx, "RSV-1", model.Feedback{})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&next.calls), "open circuit short-circuits")
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	ctx := context.Background()
	next := &stubRemote{err: &HTTPError{StatusCode: http.StatusUnprocessableEntity}}
	b := NewBreakerClient(next, BreakerConfig{FailureThreshold: 1, Timeout: time.Minute}, nopLogger{})

	for i := 0; i < 3; i++ {
		var httpErr *HTTPError
		require.True(t, errors.As(b.SaveReservationMemo(ctx, "RSV-1", nil), &httpErr))
	}
	assert.Equal(t, "closed", b.State())
	assert.Equal(t, int32(3), atomic.LoadInt32(&next.calls))
}

func TestBreakerPassesResultsThrough(t *testing.T) {
	next := &stubRemote{slots: []model.Slot{{ID: "SLOT-1"}}}
	b := NewBreakerClient(next, BreakerConfig{}, nopLogger{})

	slots, err := b.FetchSlots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Slot{{ID: "SLOT-1"}}, slots)

	reservations, err := b.FetchReservations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reservations)
}
