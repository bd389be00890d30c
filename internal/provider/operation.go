package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/provider-sync/internal/model"
)

// Operation kinds as they appear in the persisted queue.
const (
	KindUpdateStatus  = "updateStatus"
	KindSaveMemo      = "saveMemo"
	KindSaveContact   = "saveContact"
	KindSaveFeedback  = "saveFeedback"
	KindUpsertSlot    = "upsertSlot"
	KindTogglePublish = "togglePublish"
	KindCloseSlot     = "closeSlot"
)

// Operation is one mutation intent.  The set of implementations is closed:
// every kind must provide both its local apply and its remote replay, so
// the two sides cannot drift apart.
type Operation interface {
	// OpID identifies this queued intent in logs.
	OpID() string
	Kind() string
	// EntityID is the reservation or slot the operation targets.
	EntityID() string

	apply(st *State, mode applyMode, now time.Time) bool
	replay(ctx context.Context, r Remote, lookup slotLookup) error
	setOpID(id string)
}

// slotLookup resolves the slot a toggle or close operation sends upstream.
type slotLookup func(id string) (model.Slot, bool)

type opMeta struct {
	id string
}

func (m *opMeta) OpID() string      { return m.id }
func (m *opMeta) setOpID(id string) { m.id = id }

func newMeta() opMeta { return opMeta{id: uuid.NewString()} }

// UpdateStatusOp sets a reservation's status.
type UpdateStatusOp struct {
	opMeta
	ID     string                  `json:"id"`
	Status model.ReservationStatus `json:"status"`
}

// SaveMemoOp replaces a reservation's memo; a nil memo clears it.
type SaveMemoOp struct {
	opMeta
	ID   string  `json:"id"`
	Memo *string `json:"memo,omitempty"`
}

// SaveContactOp merges phone/email into the guardian record.
type SaveContactOp struct {
	opMeta
	ID    string  `json:"id"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

// SaveFeedbackOp stores the mentor feedback for a reservation.
type SaveFeedbackOp struct {
	opMeta
	ID       string         `json:"id"`
	Feedback model.Feedback `json:"feedback"`
}

// UpsertSlotOp inserts or replaces a slot.
type UpsertSlotOp struct {
	opMeta
	Slot model.Slot `json:"slot"`
}

// TogglePublishOp flips a slot between published and draft.
type TogglePublishOp struct {
	opMeta
	ID string `json:"id"`
}

// CloseSlotOp closes a slot for good.
type CloseSlotOp struct {
	opMeta
	ID string `json:"id"`
}

func NewUpdateStatus(id string, status model.ReservationStatus) *UpdateStatusOp {
	return &UpdateStatusOp{opMeta: newMeta(), ID: id, Status: status}
}

func NewSaveMemo(id string, memo *string) *SaveMemoOp {
	return &SaveMemoOp{opMeta: newMeta(), ID: id, Memo: memo}
}

func NewSaveContact(id string, c model.Contact) *SaveContactOp {
	return &SaveContactOp{opMeta: newMeta(), ID: id, Phone: c.Phone, Email: c.Email}
}

func NewSaveFeedback(id string, fb model.Feedback) *SaveFeedbackOp {
	return &SaveFeedbackOp{opMeta: newMeta(), ID: id, Feedback: fb}
}

func NewUpsertSlot(slot model.Slot) *UpsertSlotOp {
	return &UpsertSlotOp{opMeta: newMeta(), Slot: model.NormalizeSlot(slot.Clone())}
}

func NewTogglePublish(id string) *TogglePublishOp {
	return &TogglePublishOp{opMeta: newMeta(), ID: id}
}

func NewCloseSlot(id string) *CloseSlotOp {
	return &CloseSlotOp{opMeta: newMeta(), ID: id}
}

func (*UpdateStatusOp) Kind() string  { return KindUpdateStatus }
func (*SaveMemoOp) Kind() string      { return KindSaveMemo }
func (*SaveContactOp) Kind() string   { return KindSaveContact }
func (*SaveFeedbackOp) Kind() string  { return KindSaveFeedback }
func (*UpsertSlotOp) Kind() string    { return KindUpsertSlot }
func (*TogglePublishOp) Kind() string { return KindTogglePublish }
func (*CloseSlotOp) Kind() string     { return KindCloseSlot }

func (o *UpdateStatusOp) EntityID() string  { return o.ID }
func (o *SaveMemoOp) EntityID() string      { return o.ID }
func (o *SaveContactOp) EntityID() string   { return o.ID }
func (o *SaveFeedbackOp) EntityID() string  { return o.ID }
func (o *UpsertSlotOp) EntityID() string    { return o.Slot.ID }
func (o *TogglePublishOp) EntityID() string { return o.ID }
func (o *CloseSlotOp) EntityID() string     { return o.ID }

// newOperation returns an empty operation of the given kind, or nil.
func newOperation(kind string) Operation {
	switch kind {
	case KindUpdateStatus:
		return &UpdateStatusOp{}
	case KindSaveMemo:
		return &SaveMemoOp{}
	case KindSaveContact:
		return &SaveContactOp{}
	case KindSaveFeedback:
		return &SaveFeedbackOp{}
	case KindUpsertSlot:
		return &UpsertSlotOp{}
	case KindTogglePublish:
		return &TogglePublishOp{}
	case KindCloseSlot:
		return &CloseSlotOp{}
	}
	return nil
}

// envelope is the persisted form of an operation.
type envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeOperation(op Operation) (envelope, error) {
	payload, err := json.Marshal(op)
	if err != nil {
		return envelope{}, fmt.Errorf("encode %s: %w", op.Kind(), err)
	}
	return envelope{ID: op.OpID(), Type: op.Kind(), Payload: payload}, nil
}

func decodeOperation(env envelope) (Operation, error) {
	op := newOperation(env.Type)
	if op == nil {
		return nil, fmt.Errorf("unknown operation type %q", env.Type)
	}
	if err := json.Unmarshal(env.Payload, op); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	id := env.ID
	if id == "" {
		id = uuid.NewString()
	}
	op.setOpID(id)
	return op, nil
}
