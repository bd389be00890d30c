// Package provider holds the provider-side state store: the reservation and
// slot lists, the offline operation log, and the online/offline protocol that
// applies mutations optimistically and reconciles them with the backend.
package provider

import (
	"context"
	"log"

	"github.com/iliyamo/provider-sync/internal/model"
)

// Remote is the backend the store reconciles with.  Every call either
// succeeds or fails as a whole.
type Remote interface {
	FetchSlots(ctx context.Context) ([]model.Slot, error)
	FetchReservations(ctx context.Context) ([]model.Reservation, error)
	UpsertSlot(ctx context.Context, slot model.Slot) error
	UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) error
	SaveReservationMemo(ctx context.Context, id string, memo *string) error
	SaveReservationContact(ctx context.Context, id string, contact model.Contact) error
	SaveFeedback(ctx context.Context, id string, feedback model.Feedback) error
}

// Storage persists the serialized store under a single key.  Load returns
// nil data and a nil error when nothing has been saved yet.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Logger is the subset of *log.Logger the store writes to.
type Logger interface {
	Printf(format string, args ...any)
}

var defaultLogger Logger = log.Default()
