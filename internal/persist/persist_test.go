package persist

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/provider-sync/internal/clock"
	"github.com/iliyamo/provider-sync/internal/model"
	"github.com/iliyamo/provider-sync/internal/provider"
)

type backend interface {
	provider.Storage
	Close() error
}

func backends(t *testing.T) map[string]backend {
	t.Helper()
	lite, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "agent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { lite.Close() })
	return map[string]backend{
		"sqlite": lite,
		"memory": NewMemory(),
	}
}

func TestLoadMissingKeyReturnsNil(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := b.Load(context.Background(), "nope")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Save(ctx, "k", []byte(`{"v":1}`)))
			require.NoError(t, b.Save(ctx, "k", []byte(`{"v":2}`)))
			require.NoError(t, b.Save(ctx, "other", []byte(`x`)))

			v, err := b.Load(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, `{"v":2}`, string(v))
		})
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "agent.db")

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "snap", []byte("payload")))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()
	v, err := second.Load(ctx, "snap")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(v))
}

func TestStoreRoundTripThroughSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "agent.db")
	lite, err := OpenSQLite(path)
	require.NoError(t, err)
	defer lite.Close()

	now := clock.NewFixed(time.Date(2025, 10, 2, 8, 0, 0, 0, time.UTC))
	s := provider.New(nil,
		provider.WithStorage(lite),
		provider.WithClock(now),
		provider.WithOnline(false),
		provider.WithSeed(provider.DemoReservations(), provider.DemoSlots()),
	)
	require.NoError(t, s.Open(ctx))
	s.CloseSlot(ctx, "SLOT-002")
	s.SaveReservationMemo(ctx, "RSV-002", nil)

	again := provider.New(nil, provider.WithStorage(lite))
	require.NoError(t, again.Open(ctx))
	assert.Equal(t, 2, again.QueueLen())
	assert.False(t, again.Online())
	sl, ok := again.Slot("SLOT-002")
	require.True(t, ok)
	assert.Equal(t, model.SlotClosed, sl.State)
}
