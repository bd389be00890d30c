package queue

import (
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestFormatEvent(t *testing.T) {
    var b strings.Builder
    remaining := 0
    require.NoError(t, FormatEvent(&b, ProviderEvent{
        Type: EventSlotUpserted, ProviderID: 3, EntityID: "SLOT-001",
        Status: "full", Remaining: &remaining, OccurredAt: "2025-10-02T08:00:00Z",
    }))
    assert.Equal(t, "[2025-10-02T08:00:00Z] slot.upserted | provider_id=3 | entity=SLOT-001 | status=full | remaining=0\n", b.String())
}

func TestAppendEventCreatesFileAndAppends(t *testing.T) {
    path := filepath.Join(t.TempDir(), "logs", "provider.log")
    require.NoError(t, appendEvent(path, []byte(`{"type":"reservation.memo_saved","provider_id":1,"entity_id":"RSV-001","occurred_at":"t1"}`)))
    require.NoError(t, appendEvent(path, []byte(`{"type":"reservation.feedback_saved","provider_id":1,"entity_id":"RSV-001","occurred_at":"t2"}`)))

    raw, err := os.ReadFile(path)
    require.NoError(t, err)
    lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
    require.Len(t, lines, 2)
    assert.Contains(t, lines[1], "reservation.feedback_saved")
}

func TestAppendEventRejectsGarbage(t *testing.T) {
    assert.Error(t, appendEvent(filepath.Join(t.TempDir(), "x.log"), []byte("not json")))
}
