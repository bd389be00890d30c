package remote

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/iliyamo/provider-sync/internal/model"
	"github.com/iliyamo/provider-sync/internal/provider"
)

// ErrBackendUnavailable is returned without calling the backend while the
// breaker is open.
var ErrBackendUnavailable = errors.New("backend unavailable: circuit open")

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	// Consecutive failures that open the circuit.
	FailureThreshold uint32
	// How long the circuit stays open before a probe is let through.
	Timeout time.Duration
}

// BreakerClient guards a provider.Remote with a circuit breaker so a dead
// backend fails fast and operations go straight to the queue.
type BreakerClient struct {
	next provider.Remote
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerClient(next provider.Remote, cfg BreakerConfig, logger provider.Logger) *BreakerClient {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	settings := gobreaker.Settings{
		Name:        "provider-backend",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// 4xx answers mean the backend is up
		IsSuccessful: func(err error) bool {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				return !httpErr.Retryable()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("breaker: %s %s -> %s", name, from, to)
		},
	}
	return &BreakerClient{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State exposes the breaker state for status reporting.
func (b *BreakerClient) State() string {
	return b.cb.State().String()
}

func (b *BreakerClient) call(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return v, err
}

func (b *BreakerClient) exec(fn func() error) error {
	_, err := b.call(func() (any, error) { return nil, fn() })
	return err
}

func (b *BreakerClient) FetchSlots(ctx context.Context) ([]model.Slot, error) {
	v, err := b.call(func() (any, error) { return b.next.FetchSlots(ctx) })
	if err != nil {
		return nil, err
	}
	slots, _ := v.([]model.Slot)
	return slots, nil
}

func (b *BreakerClient) FetchReservations(ctx context.Context) ([]model.Reservation, error) {
	v, err := b.call(func() (any, error) { return b.next.FetchReservations(ctx) })
	if err != nil {
		return nil, err
	}
	reservations, _ := v.([]model.Reservation)
	return reservations, nil
}

func (b *BreakerClient) UpsertSlot(ctx context.Context, slot model.Slot) error {
	return b.exec(func() error { return b.next.UpsertSlot(ctx, slot) })
}

func (b *BreakerClient) UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) error {
	return b.exec(func() error { return b.next.UpdateReservationStatus(ctx, id, status) })
}

func (b *BreakerClient) SaveReservationMemo(ctx context.Context, id string, memo *string) error {
	return b.exec(func() error { return b.next.SaveReservationMemo(ctx, id, memo) })
}

func (b *BreakerClient) SaveReservationContact(ctx context.Context, id string, contact model.Contact) error {
	return b.exec(func() error { return b.next.SaveReservationContact(ctx, id, contact) })
}

func (b *BreakerClient) SaveFeedback(ctx context.Context, id string, feedback model.Feedback) error {
	return b.exec(func() error { return b.next.SaveFeedback(ctx, id, feedback) })
}

var _ provider.Remote = (*BreakerClient)(nil)
var _ provider.Remote = (*HTTPClient)(nil)
