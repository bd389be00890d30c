package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/iliyamo/provider-sync/internal/clock"
	"github.com/iliyamo/provider-sync/internal/model"
)

// DefaultStorageKey namespaces the persisted store blob.
const DefaultStorageKey = "provider-sync:provider-store"

// Store is the provider-side state store.  Mutations are applied to memory
// immediately.  Online, the matching backend call runs in the background
// and a failure queues the operation; offline, the operation is queued and
// the entity marked pending.  No mutation method reports an error.
type Store struct {
	mu    sync.Mutex
	state State

	remote  Remote
	storage Storage
	key     string
	clock   clock.Clock
	logger  Logger

	// online-branch calls, sent one at a time in submit order
	outbox   []outboundCall
	sending  bool
	inflight sync.WaitGroup
	draining sync.Mutex
}

type outboundCall struct {
	ctx    context.Context
	op     Operation
	lookup slotLookup
}

// Option configures a Store.
type Option func(*Store)

// WithStorage persists the store through st after every change.
func WithStorage(st Storage) Option { return func(s *Store) { s.storage = st } }

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) Option { return func(s *Store) { s.key = key } }

// WithClock injects the time source used for UpdatedAt and history dates.
func WithClock(c clock.Clock) Option { return func(s *Store) { s.clock = c } }

// WithLogger replaces the default logger.
func WithLogger(l Logger) Option { return func(s *Store) { s.logger = l } }

// WithOnline sets the initial connectivity mode of a fresh store.
func WithOnline(online bool) Option { return func(s *Store) { s.state.Online = online } }

// WithSeed sets the lists a fresh store starts with.  A persisted snapshot
// loaded by Open replaces them.
func WithSeed(reservations []model.Reservation, slots []model.Slot) Option {
	return func(s *Store) {
		s.state.Reservations = cloneReservations(reservations)
		s.state.Slots = make([]model.Slot, len(slots))
		for i, sl := range slots {
			s.state.Slots[i] = model.NormalizeSlot(sl.Clone())
		}
	}
}

// New builds a store bound to remote.  It starts online with empty lists
// unless options say otherwise.
func New(remote Remote, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		key:    DefaultStorageKey,
		clock:  clock.NewSystem(),
		logger: defaultLogger,
		state:  State{Online: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open rehydrates the persisted snapshot, if any, verbatim.  Without one the
// current (seed) state is written so the next start finds it.
func (s *Store) Open(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	data, err := s.storage.Load(ctx, s.key)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if data == nil {
		s.persistLocked(ctx)
		return nil
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	s.state = st
	return nil
}

// SetOnline switches the connectivity mode.  Going from offline to online
// drains the queue before returning.
func (s *Store) SetOnline(ctx context.Context, online bool) {
	s.mu.Lock()
	was := s.state.Online
	s.state.Online = online
	s.persistLocked(ctx)
	s.mu.Unlock()

	if online && !was {
		_ = s.DrainIfOnline(ctx)
	}
}

// FetchData replaces the in-memory lists with the backend's.  It does
// nothing while offline.
func (s *Store) FetchData(ctx context.Context) error {
	if !s.Online() {
		return nil
	}
	slots, err := s.remote.FetchSlots(ctx)
	if err != nil {
		s.logger.Printf("provider-store: fetch slots failed: %v", err)
		return fmt.Errorf("fetch slots: %w", err)
	}
	reservations, err := s.remote.FetchReservations(ctx)
	if err != nil {
		s.logger.Printf("provider-store: fetch reservations failed: %v", err)
		return fmt.Errorf("fetch reservations: %w", err)
	}
	for i := range slots {
		slots[i] = model.NormalizeSlot(slots[i])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Slots = slots
	s.state.Reservations = reservations
	s.persistLocked(ctx)
	return nil
}

// UpdateReservationStatus sets the status of reservation id.
func (s *Store) UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) {
	s.submit(ctx, NewUpdateStatus(id, status), nil)
}

// SaveReservationMemo replaces the memo of reservation id.
func (s *Store) SaveReservationMemo(ctx context.Context, id string, memo *string) {
	s.submit(ctx, NewSaveMemo(id, memo), nil)
}

// SaveReservationContact merges phone/email into the guardian of reservation id.
func (s *Store) SaveReservationContact(ctx context.Context, id string, contact model.Contact) {
	s.submit(ctx, NewSaveContact(id, contact), nil)
}

// SaveFeedback records mentor feedback for reservation id.
func (s *Store) SaveFeedback(ctx context.Context, id string, feedback model.Feedback) {
	s.submit(ctx, NewSaveFeedback(id, feedback), nil)
}

// AddSlot creates a new slot.  An id that is already in use is ignored.
func (s *Store) AddSlot(ctx context.Context, slot model.Slot) {
	slot.UpdatedAt = s.clock.Now()
	s.submit(ctx, NewUpsertSlot(slot), func(st *State) bool { return st.slotIndex(slot.ID) < 0 })
}

// UpdateSlot replaces an existing slot.  Unknown ids are ignored.
func (s *Store) UpdateSlot(ctx context.Context, slot model.Slot) {
	slot.UpdatedAt = s.clock.Now()
	s.submit(ctx, NewUpsertSlot(slot), func(st *State) bool { return st.slotIndex(slot.ID) >= 0 })
}

// ToggleSlotPublish flips slot id between published and draft.
func (s *Store) ToggleSlotPublish(ctx context.Context, id string) {
	s.submit(ctx, NewTogglePublish(id), nil)
}

// CloseSlot closes slot id.
func (s *Store) CloseSlot(ctx context.Context, id string) {
	s.submit(ctx, NewCloseSlot(id), nil)
}

// submit runs the two-branch protocol for op.  guard, when set, is an
// extra precondition checked under the lock.
func (s *Store) submit(ctx context.Context, op Operation, guard func(*State) bool) {
	s.mu.Lock()
	if guard != nil && !guard(&s.state) {
		s.mu.Unlock()
		s.logger.Printf("provider-store: %s %s rejected by precondition, ignored", op.Kind(), op.EntityID())
		return
	}
	online := s.state.Online
	mode := modeOnline
	if !online {
		mode = modeOffline
	}
	if !op.apply(&s.state, mode, s.clock.Now()) {
		s.mu.Unlock()
		s.logger.Printf("provider-store: %s %s: unknown id, ignored", op.Kind(), op.EntityID())
		return
	}
	if online {
		s.sendLocked(ctx, op, s.captureSlotLocked(op.EntityID()))
	} else {
		s.state.Queue.Append(op)
	}
	s.persistLocked(ctx)
	s.mu.Unlock()
}

// sendLocked hands an online mutation's backend call to the sender without
// blocking the caller.  Calls leave in the order they were submitted.
func (s *Store) sendLocked(ctx context.Context, op Operation, lookup slotLookup) {
	s.inflight.Add(1)
	s.outbox = append(s.outbox, outboundCall{ctx: context.WithoutCancel(ctx), op: op, lookup: lookup})
	if !s.sending {
		s.sending = true
		go s.sendLoop()
	}
}

// sendLoop empties the outbox one call at a time and exits when it is
// empty.  A failure puts the op on the queue; the optimistic change stays.
func (s *Store) sendLoop() {
	for {
		s.mu.Lock()
		if len(s.outbox) == 0 {
			s.sending = false
			s.mu.Unlock()
			return
		}
		call := s.outbox[0]
		s.outbox[0] = outboundCall{}
		s.outbox = s.outbox[1:]
		s.mu.Unlock()

		if err := call.op.replay(call.ctx, s.remote, call.lookup); err != nil {
			s.logger.Printf("provider-store: %s %s failed, queued (op=%s): %v", call.op.Kind(), call.op.EntityID(), call.op.OpID(), err)
			s.enqueue(call.ctx, call.op)
		}
		s.inflight.Done()
	}
}

func (s *Store) enqueue(ctx context.Context, op Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Queue.Append(op)
	s.persistLocked(ctx)
}

// captureSlotLocked freezes the slot an online toggle/close sends upstream,
// so the background call sees the state right after the local apply.
func (s *Store) captureSlotLocked(id string) slotLookup {
	i := s.state.slotIndex(id)
	if i < 0 {
		return func(string) (model.Slot, bool) { return model.Slot{}, false }
	}
	captured := s.state.Slots[i].Clone()
	return func(want string) (model.Slot, bool) {
		if want != captured.ID {
			return model.Slot{}, false
		}
		return captured, true
	}
}

// lookupSlot reads the live slot list; used while draining.
func (s *Store) lookupSlot(id string) (model.Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.slotIndex(id)
	if i < 0 {
		return model.Slot{}, false
	}
	return s.state.Slots[i].Clone(), true
}

// Wait blocks until every background call started by an online mutation
// has finished.
func (s *Store) Wait() {
	s.inflight.Wait()
}

// Reservations returns a copy of the reservation list.
func (s *Store) Reservations() []model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneReservations(s.state.Reservations)
}

// Reservation returns a copy of one reservation.
func (s *Store) Reservation(id string) (model.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.reservationIndex(id)
	if i < 0 {
		return model.Reservation{}, false
	}
	return s.state.Reservations[i].Clone(), true
}

// Slots returns a copy of the slot list.
func (s *Store) Slots() []model.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSlots(s.state.Slots)
}

// Slot returns a copy of one slot.
func (s *Store) Slot(id string) (model.Slot, bool) {
	return s.lookupSlot(id)
}

// QueueLen returns the number of operations waiting for the backend.
func (s *Store) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Queue.Len()
}

// Queue returns the queued operations in replay order.
func (s *Store) Queue() []Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Queue.PeekAll()
}

// Online reports the connectivity mode.
func (s *Store) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Online
}

// KPI returns the counters.
func (s *Store) KPI() KPI {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.KPI
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.storage == nil {
		return
	}
	data, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Printf("provider-store: encode snapshot failed: %v", err)
		return
	}
	if err := s.storage.Save(context.WithoutCancel(ctx), s.key, data); err != nil {
		s.logger.Printf("provider-store: save snapshot failed: %v", err)
	}
}
