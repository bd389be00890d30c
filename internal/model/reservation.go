package model

import "time"

// ReservationStatus is the lifecycle state of a booked session as seen by
// the provider.  The set is closed; Valid reports membership.
type ReservationStatus string

const (
    StatusBooked    ReservationStatus = "booked"
    StatusArrived   ReservationStatus = "arrived"
    StatusInSession ReservationStatus = "in_session"
    StatusCompleted ReservationStatus = "completed"
    StatusAbsent    ReservationStatus = "absent"
    StatusCancelled ReservationStatus = "cancelled"
)

// Valid reports whether s is one of the known reservation statuses.
func (s ReservationStatus) Valid() bool {
    switch s {
    case StatusBooked, StatusArrived, StatusInSession, StatusCompleted, StatusAbsent, StatusCancelled:
        return true
    }
    return false
}

// MaxHistory bounds the per-reservation history list.
const MaxHistory = 10

// Reservation records a child's booking for one experience session.  It is
// fetched from the backend and then mutated only through the provider
// store's reservation operations; it is never deleted locally.
//
// Fields:
//  ID          – reservation identifier (e.g. RSV-001).
//  Date        – session date, YYYY-MM-DD.
//  Start, End  – session window, HH:MM.
//  Experience  – experience label shown to the provider.
//  Venue       – venue label.
//  Mentor      – mentor in charge.
//  Child       – the participating child.
//  Guardian    – the guardian and their contact details.
//  Profile     – strengths/weak points noted by previous mentors.
//  History     – most recent sessions, newest first, at most MaxHistory.
//  Status      – current ReservationStatus.
//  Memo        – free text provider memo (nullable).
//  Feedback    – latest feedback record (nullable).
//  PendingSync – true while an offline operation for this reservation is queued.
//  UpdatedAt   – last local or remote modification time.
type Reservation struct {
    ID          string            `json:"id"`
    Date        string            `json:"date"`
    Start       string            `json:"start"`
    End         string            `json:"end"`
    Experience  string            `json:"experience"`
    Venue       string            `json:"venue"`
    Mentor      string            `json:"mentor"`
    Child       Child             `json:"child"`
    Guardian    Guardian          `json:"guardian"`
    Profile     Profile           `json:"profile"`
    History     []HistoryEntry    `json:"history"`
    Status      ReservationStatus `json:"status"`
    Memo        *string           `json:"memo,omitempty"`
    Feedback    *Feedback         `json:"feedback,omitempty"`
    PendingSync bool              `json:"pending_sync"`
    UpdatedAt   time.Time         `json:"updated_at"`
}

// Child is the participant of a reservation.
type Child struct {
    Name string `json:"name"`
    Kana string `json:"kana,omitempty"`
    Age  string `json:"age"`
}

// Guardian holds the contact person for a reservation.  Phone and Email
// are optional; a contact update overwrites only the fields it carries.
type Guardian struct {
    Name  string  `json:"name"`
    Phone *string `json:"phone,omitempty"`
    Email *string `json:"email,omitempty"`
}

// Profile summarises what mentors observed about the child.
type Profile struct {
    Strengths  []string `json:"strengths"`
    WeakPoints []string `json:"weak_points"`
    Recent     string   `json:"recent"`
}

// HistoryEntry is one past session line.
type HistoryEntry struct {
    Date       string `json:"date"`
    Experience string `json:"experience"`
    Memo       string `json:"memo"`
}

// Feedback is the mentor's evaluation of a session.  Scores range 1..5.
type Feedback struct {
    Focus             int       `json:"focus"`
    Collaboration     int       `json:"collaboration"`
    Challenge         int       `json:"challenge"`
    Creativity        int       `json:"creativity"`
    Stamina           int       `json:"stamina"`
    Note              *string   `json:"note,omitempty"`
    ChildSummary      *string   `json:"child_summary,omitempty"`
    ShareWithGuardian bool      `json:"share_with_guardian"`
    UpdatedAt         time.Time `json:"updated_at"`
}

// Validate checks the score ranges of a feedback record.
func (f Feedback) Validate() error {
    for _, s := range []int{f.Focus, f.Collaboration, f.Challenge, f.Creativity, f.Stamina} {
        if s < 1 || s > 5 {
            return ErrInvalidScore
        }
    }
    return nil
}

// NoteOrEmpty returns the feedback note, or "" when none was written.
func (f Feedback) NoteOrEmpty() string {
    if f.Note == nil {
        return ""
    }
    return *f.Note
}

// Contact is the optional phone/email pair sent by a contact update.
type Contact struct {
    Phone *string `json:"phone,omitempty"`
    Email *string `json:"email,omitempty"`
}

// Clone returns a deep copy so callers can hand reservations out without
// sharing slices or pointers with the store.
func (r Reservation) Clone() Reservation {
    out := r
    out.Guardian.Phone = cloneString(r.Guardian.Phone)
    out.Guardian.Email = cloneString(r.Guardian.Email)
    out.Profile.Strengths = append([]string(nil), r.Profile.Strengths...)
    out.Profile.WeakPoints = append([]string(nil), r.Profile.WeakPoints...)
    out.History = append([]HistoryEntry(nil), r.History...)
    out.Memo = cloneString(r.Memo)
    if r.Feedback != nil {
        fb := *r.Feedback
        fb.Note = cloneString(r.Feedback.Note)
        fb.ChildSummary = cloneString(r.Feedback.ChildSummary)
        out.Feedback = &fb
    }
    return out
}

func cloneString(s *string) *string {
    if s == nil {
        return nil
    }
    v := *s
    return &v
}
