package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNormalizeSlot(t *testing.T) {
    tests := []struct {
        name      string
        state     SlotState
        remaining int
        want      SlotState
    }{
        {"published with no seats becomes full", SlotPublished, 0, SlotFull},
        {"published with negative remaining becomes full", SlotPublished, -1, SlotFull},
        {"full with seats becomes published", SlotFull, 3, SlotPublished},
        {"full with no seats stays full", SlotFull, 0, SlotFull},
        {"published with seats stays published", SlotPublished, 2, SlotPublished},
        {"draft is never coerced when empty", SlotDraft, 0, SlotDraft},
        {"draft is never coerced with seats", SlotDraft, 4, SlotDraft},
        {"closed is never coerced when empty", SlotClosed, 0, SlotClosed},
        {"closed is never coerced with seats", SlotClosed, 4, SlotClosed},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            s := Slot{ID: "SLOT-X", Capacity: 8, Remaining: tt.remaining, State: tt.state}
            got := NormalizeSlot(s)
            assert.Equal(t, tt.want, got.State)
            assert.Equal(t, got, NormalizeSlot(got), "normalize must be idempotent")
            if got.Remaining <= 0 {
                assert.NotEqual(t, SlotPublished, got.State)
            }
        })
    }
}

func TestNormalizeSlotFullScenario(t *testing.T) {
    s := Slot{ID: "SLOT-003", Capacity: 8, Remaining: 0, State: SlotPublished}
    assert.Equal(t, SlotFull, NormalizeSlot(s).State)
    assert.Equal(t, SlotPublished, s.State, "input must not be mutated")
}

func TestSlotValidate(t *testing.T) {
    valid := Slot{ID: "SLOT-1", Capacity: 5, Remaining: 5, State: SlotDraft, Repeat: &Repeat{Type: RepeatWeekly}}
    require.NoError(t, valid.Validate())

    missing := valid
    missing.ID = ""
    assert.ErrorIs(t, missing.Validate(), ErrMissingID)

    over := valid
    over.Remaining = 6
    assert.ErrorIs(t, over.Validate(), ErrInvalidCapacity)

    badState := valid
    badState.State = "archived"
    assert.ErrorIs(t, badState.Validate(), ErrInvalidState)

    badRepeat := valid
    badRepeat.Repeat = &Repeat{Type: "daily"}
    assert.ErrorIs(t, badRepeat.Validate(), ErrInvalidRepeat)
}

func TestSlotCloneIsDeep(t *testing.T) {
    price := "¥6,600"
    count := 4
    s := Slot{ID: "SLOT-1", Price: &price, Tags: []string{"popular"}, Repeat: &Repeat{Type: RepeatWeekly, Count: &count}}
    c := s.Clone()
    *c.Price = "free"
    c.Tags[0] = "changed"
    *c.Repeat.Count = 9

    assert.Equal(t, "¥6,600", *s.Price)
    assert.Equal(t, "popular", s.Tags[0])
    assert.Equal(t, 4, *s.Repeat.Count)
}

func TestReservationStatusValid(t *testing.T) {
    assert.True(t, StatusArrived.Valid())
    assert.True(t, StatusInSession.Valid())
    assert.False(t, ReservationStatus("lost").Valid())
}

func TestFeedbackValidate(t *testing.T) {
    fb := Feedback{Focus: 5, Collaboration: 4, Challenge: 3, Creativity: 2, Stamina: 1}
    require.NoError(t, fb.Validate())
    fb.Stamina = 0
    assert.ErrorIs(t, fb.Validate(), ErrInvalidScore)
    assert.Equal(t, "", fb.NoteOrEmpty())
}
