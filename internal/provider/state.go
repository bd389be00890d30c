package provider

import "github.com/iliyamo/provider-sync/internal/model"

// KPI counts provider actions confirmed on the online path.
type KPI struct {
	CheckIns       int `json:"check_ins"`
	FeedbackSaved  int `json:"feedback_saved"`
	SlotsPublished int `json:"slots_published"`
}

// State is everything the store owns.  It is also the persisted layout:
// the whole value is written as one JSON blob.
type State struct {
	Reservations []model.Reservation `json:"reservations"`
	Slots        []model.Slot        `json:"slots"`
	Queue        OperationLog        `json:"queue"`
	Online       bool                `json:"online"`
	KPI          KPI                 `json:"kpi"`
}

func (st *State) reservationIndex(id string) int {
	for i := range st.Reservations {
		if st.Reservations[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *State) slotIndex(id string) int {
	for i := range st.Slots {
		if st.Slots[i].ID == id {
			return i
		}
	}
	return -1
}

// clearSettledPending drops the pending flag from reservations that no
// longer have a queued operation.  It never sets the flag.
func (st *State) clearSettledPending() {
	for i := range st.Reservations {
		r := &st.Reservations[i]
		if r.PendingSync && !st.Queue.References(r.ID) {
			r.PendingSync = false
		}
	}
}

func (st State) clone() State {
	out := State{
		Reservations: cloneReservations(st.Reservations),
		Slots:        cloneSlots(st.Slots),
		Queue:        OperationLog{ops: st.Queue.PeekAll()},
		Online:       st.Online,
		KPI:          st.KPI,
	}
	return out
}

func cloneReservations(in []model.Reservation) []model.Reservation {
	out := make([]model.Reservation, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

func cloneSlots(in []model.Slot) []model.Slot {
	out := make([]model.Slot, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
