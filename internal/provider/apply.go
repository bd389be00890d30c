package provider

import (
	"time"

	"github.com/iliyamo/provider-sync/internal/model"
)

// applyMode tells apply which branch of the protocol is running.  Only the
// online path moves the KPI counters; offline applies mark the entity as
// waiting for sync instead.
type applyMode int

const (
	modeOnline applyMode = iota
	modeOffline
)

func (m applyMode) pending() bool { return m == modeOffline }

// apply methods return false when the target entity does not exist, in
// which case the state is left untouched.

func (o *UpdateStatusOp) apply(st *State, mode applyMode, now time.Time) bool {
	i := st.reservationIndex(o.ID)
	if i < 0 {
		return false
	}
	r := &st.Reservations[i]
	r.Status = o.Status
	r.PendingSync = mode.pending()
	r.UpdatedAt = now
	if mode == modeOnline && o.Status == model.StatusArrived {
		st.KPI.CheckIns++
	}
	return true
}

func (o *SaveMemoOp) apply(st *State, mode applyMode, now time.Time) bool {
	i := st.reservationIndex(o.ID)
	if i < 0 {
		return false
	}
	r := &st.Reservations[i]
	r.Memo = copyString(o.Memo)
	r.PendingSync = mode.pending()
	r.UpdatedAt = now
	return true
}

func (o *SaveContactOp) apply(st *State, mode applyMode, now time.Time) bool {
	i := st.reservationIndex(o.ID)
	if i < 0 {
		return false
	}
	r := &st.Reservations[i]
	if o.Phone != nil {
		r.Guardian.Phone = copyString(o.Phone)
	}
	if o.Email != nil {
		r.Guardian.Email = copyString(o.Email)
	}
	r.PendingSync = mode.pending()
	r.UpdatedAt = now
	return true
}

func (o *SaveFeedbackOp) apply(st *State, mode applyMode, now time.Time) bool {
	i := st.reservationIndex(o.ID)
	if i < 0 {
		return false
	}
	r := &st.Reservations[i]
	fb := o.Feedback
	fb.Note = copyString(o.Feedback.Note)
	fb.ChildSummary = copyString(o.Feedback.ChildSummary)
	r.Feedback = &fb
	r.PendingSync = mode.pending()
	r.UpdatedAt = now

	entry := model.HistoryEntry{
		Date:       now.Format("2006-01-02"),
		Experience: r.Experience,
		Memo:       o.Feedback.NoteOrEmpty(),
	}
	history := append([]model.HistoryEntry{entry}, r.History...)
	if len(history) > model.MaxHistory {
		history = history[:model.MaxHistory]
	}
	r.History = history

	if mode == modeOnline {
		st.KPI.FeedbackSaved++
	}
	return true
}

func (o *UpsertSlotOp) apply(st *State, mode applyMode, now time.Time) bool {
	slot := model.NormalizeSlot(o.Slot.Clone())
	slot.UpdatedAt = now
	if i := st.slotIndex(slot.ID); i >= 0 {
		st.Slots[i] = slot
		return true
	}
	st.Slots = append(st.Slots, slot)
	if mode == modeOnline && slot.State == model.SlotPublished {
		st.KPI.SlotsPublished++
	}
	return true
}

func (o *TogglePublishOp) apply(st *State, _ applyMode, now time.Time) bool {
	i := st.slotIndex(o.ID)
	if i < 0 {
		return false
	}
	s := st.Slots[i]
	switch s.State {
	case model.SlotPublished:
		s.State = model.SlotDraft
	case model.SlotDraft:
		s.State = model.SlotPublished
	default:
		// full and closed do not toggle
		return true
	}
	s.UpdatedAt = now
	st.Slots[i] = model.NormalizeSlot(s)
	return true
}

func (o *CloseSlotOp) apply(st *State, _ applyMode, now time.Time) bool {
	i := st.slotIndex(o.ID)
	if i < 0 {
		return false
	}
	st.Slots[i].State = model.SlotClosed
	st.Slots[i].UpdatedAt = now
	return true
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
