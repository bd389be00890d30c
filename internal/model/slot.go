package model

import (
    "errors"
    "time"
)

// SlotState is the publish state of a bookable slot.
type SlotState string

const (
    SlotPublished SlotState = "published"
    SlotDraft     SlotState = "draft"
    SlotFull      SlotState = "full"
    SlotClosed    SlotState = "closed"
)

// Valid reports whether s is a known slot state.
func (s SlotState) Valid() bool {
    switch s {
    case SlotPublished, SlotDraft, SlotFull, SlotClosed:
        return true
    }
    return false
}

// RepeatType describes how a slot recurs.
type RepeatType string

const (
    RepeatNone     RepeatType = "none"
    RepeatWeekly   RepeatType = "weekly"
    RepeatBiweekly RepeatType = "biweekly"
    RepeatMonthly  RepeatType = "monthly"
)

// Valid reports whether t is a known repeat type.
func (t RepeatType) Valid() bool {
    switch t {
    case RepeatNone, RepeatWeekly, RepeatBiweekly, RepeatMonthly:
        return true
    }
    return false
}

// Repeat is the optional recurrence descriptor of a slot.
type Repeat struct {
    Type  RepeatType `json:"type"`
    Until *string    `json:"until,omitempty"`
    Count *int       `json:"count,omitempty"`
}

var (
    ErrInvalidCapacity = errors.New("capacity must be >= 0 and remaining within [0, capacity]")
    ErrInvalidState    = errors.New("unknown slot state")
    ErrInvalidRepeat   = errors.New("unknown repeat type")
    ErrInvalidScore    = errors.New("feedback scores must be between 1 and 5")
    ErrMissingID       = errors.New("id is required")
)

// Slot is a bookable time window for an experience.
//
// Fields:
//  ID            – slot identifier (e.g. SLOT-001).
//  Experience    – experience label.
//  Date          – YYYY-MM-DD.
//  Start, End    – HH:MM window.
//  Venue, Mentor – where and with whom.
//  Capacity      – total seats (>= 0).
//  Remaining     – free seats, 0 <= Remaining <= Capacity.
//  AgeRange      – free text age band.
//  State         – SlotState, kept consistent with Remaining by NormalizeSlot.
//  Price, Category, Tags, Note – optional presentation data.
//  DeadlineHours – booking deadline before start, in hours.
//  Repeat        – optional recurrence.
//  CreatedBy     – provider account that created the slot.
//  UpdatedAt     – last modification time.
type Slot struct {
    ID            string    `json:"id"`
    Experience    string    `json:"experience"`
    Date          string    `json:"date"`
    Start         string    `json:"start"`
    End           string    `json:"end"`
    Venue         string    `json:"venue"`
    Capacity      int       `json:"capacity"`
    Remaining     int       `json:"remaining"`
    AgeRange      string    `json:"age_range"`
    Mentor        string    `json:"mentor"`
    State         SlotState `json:"state"`
    Price         *string   `json:"price,omitempty"`
    Category      *string   `json:"category,omitempty"`
    Tags          []string  `json:"tags,omitempty"`
    Note          *string   `json:"note,omitempty"`
    DeadlineHours int       `json:"deadline_hours"`
    Repeat        *Repeat   `json:"repeat,omitempty"`
    CreatedBy     string    `json:"created_by"`
    UpdatedAt     time.Time `json:"updated_at"`
}

// NormalizeSlot keeps State consistent with Remaining: a published slot
// with no seats left becomes full and a full slot with seats left is
// published again.  Draft and closed are never touched.
func NormalizeSlot(s Slot) Slot {
    if s.Remaining <= 0 && s.State == SlotPublished {
        s.State = SlotFull
        return s
    }
    if s.Remaining > 0 && s.State == SlotFull {
        s.State = SlotPublished
    }
    return s
}

// Validate checks the structural invariants of a slot before it is
// accepted from an API caller.
func (s Slot) Validate() error {
    if s.ID == "" {
        return ErrMissingID
    }
    if s.Capacity < 0 || s.Remaining < 0 || s.Remaining > s.Capacity {
        return ErrInvalidCapacity
    }
    if !s.State.Valid() {
        return ErrInvalidState
    }
    if s.Repeat != nil && !s.Repeat.Type.Valid() {
        return ErrInvalidRepeat
    }
    return nil
}

// Clone returns a deep copy of the slot.
func (s Slot) Clone() Slot {
    out := s
    out.Price = cloneString(s.Price)
    out.Category = cloneString(s.Category)
    out.Note = cloneString(s.Note)
    out.Tags = append([]string(nil), s.Tags...)
    if s.Repeat != nil {
        r := *s.Repeat
        r.Until = cloneString(s.Repeat.Until)
        if s.Repeat.Count != nil {
            c := *s.Repeat.Count
            r.Count = &c
        }
        out.Repeat = &r
    }
    return out
}
