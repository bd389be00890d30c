package provider

import (
	"context"

	"github.com/iliyamo/provider-sync/internal/model"
)

// replay sends the backend the equivalent of a local mutation.  Slot toggles
// and closes have no dedicated remote call; the current local slot is sent
// through UpsertSlot instead, and skipped when it no longer exists.

func (o *UpdateStatusOp) replay(ctx context.Context, r Remote, _ slotLookup) error {
	return r.UpdateReservationStatus(ctx, o.ID, o.Status)
}

func (o *SaveMemoOp) replay(ctx context.Context, r Remote, _ slotLookup) error {
	return r.SaveReservationMemo(ctx, o.ID, o.Memo)
}

func (o *SaveContactOp) replay(ctx context.Context, r Remote, _ slotLookup) error {
	return r.SaveReservationContact(ctx, o.ID, contactOf(o))
}

func (o *SaveFeedbackOp) replay(ctx context.Context, r Remote, _ slotLookup) error {
	return r.SaveFeedback(ctx, o.ID, o.Feedback)
}

func (o *UpsertSlotOp) replay(ctx context.Context, r Remote, _ slotLookup) error {
	return r.UpsertSlot(ctx, o.Slot)
}

func (o *TogglePublishOp) replay(ctx context.Context, r Remote, lookup slotLookup) error {
	return upsertCurrent(ctx, r, lookup, o.ID)
}

func (o *CloseSlotOp) replay(ctx context.Context, r Remote, lookup slotLookup) error {
	return upsertCurrent(ctx, r, lookup, o.ID)
}

func upsertCurrent(ctx context.Context, r Remote, lookup slotLookup, id string) error {
	slot, ok := lookup(id)
	if !ok {
		return nil
	}
	return r.UpsertSlot(ctx, slot)
}

func contactOf(o *SaveContactOp) model.Contact {
	return model.Contact{Phone: o.Phone, Email: o.Email}
}
