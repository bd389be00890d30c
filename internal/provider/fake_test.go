package provider

import (
	"context"
	"errors"
	"sync"

	"github.com/iliyamo/provider-sync/internal/model"
)

var errBackendDown = errors.New("backend down")

// fakeRemote records every call and fails the ones named in failOn.
type fakeRemote struct {
	mu           sync.Mutex
	calls        []string
	upserted     []model.Slot
	failOn       map[string]bool
	failAfter    int // fail every call once this many calls succeeded; 0 disables
	slots        []model.Slot
	reservations []model.Reservation
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		failOn:       map[string]bool{},
		slots:        DemoSlots(),
		reservations: DemoReservations(),
	}
}

func (f *fakeRemote) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter > 0 && len(f.calls) >= f.failAfter {
		f.calls = append(f.calls, name+"!")
		return errBackendDown
	}
	if f.failOn[name] {
		f.calls = append(f.calls, name+"!")
		return errBackendDown
	}
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeRemote) setFail(name string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[name] = fail
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.upserted = nil
}

func (f *fakeRemote) FetchSlots(ctx context.Context) ([]model.Slot, error) {
	if err := f.record("FetchSlots"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneSlots(f.slots), nil
}

func (f *fakeRemote) FetchReservations(ctx context.Context) ([]model.Reservation, error) {
	if err := f.record("FetchReservations"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneReservations(f.reservations), nil
}

func (f *fakeRemote) UpsertSlot(ctx context.Context, slot model.Slot) error {
	if err := f.record("UpsertSlot"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, slot)
	return nil
}

func (f *fakeRemote) UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) error {
	return f.record("UpdateReservationStatus")
}

func (f *fakeRemote) SaveReservationMemo(ctx context.Context, id string, memo *string) error {
	return f.record("SaveReservationMemo")
}

func (f *fakeRemote) SaveReservationContact(ctx context.Context, id string, contact model.Contact) error {
	return f.record("SaveReservationContact")
}

func (f *fakeRemote) SaveFeedback(ctx context.Context, id string, feedback model.Feedback) error {
	return f.record("SaveFeedback")
}

// memStorage keeps snapshots in a map.
type memStorage struct {
	mu    sync.Mutex
	data  map[string][]byte
	saves int
}

func newMemStorage() *memStorage { return &memStorage{data: map[string][]byte{}} }

func (m *memStorage) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memStorage) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	m.saves++
	return nil
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...any) {}
