package provider

import (
	"context"
	"fmt"
)

// DrainIfOnline replays the queue against the backend, oldest first, one
// call at a time.  It is a no-op while offline, when the queue is empty, or
// while another drain is running.  The first failure stops the drain and
// leaves the queue and local state as they were.  After a complete drain the
// replayed entries are removed and the lists are re-fetched; the backend's
// copy replaces any local edit.  A failed re-fetch keeps the local lists and
// is returned, the replayed entries stay removed.
func (s *Store) DrainIfOnline(ctx context.Context) error {
	if !s.draining.TryLock() {
		return nil
	}
	defer s.draining.Unlock()

	s.mu.Lock()
	if !s.state.Online || s.state.Queue.Len() == 0 {
		s.mu.Unlock()
		return nil
	}
	pending := s.state.Queue.PeekAll()
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	s.logger.Printf("provider-store: draining %d queued operations", len(pending))
	err := replayInOrder(ctx, pending, func(ctx context.Context, op Operation) error {
		return op.replay(ctx, s.remote, s.lookupSlot)
	})
	if err != nil {
		s.logger.Printf("provider-store: drain aborted, queue kept: %v", err)
		return err
	}

	s.mu.Lock()
	s.state.Queue.Discard(pending)
	s.state.clearSettledPending()
	s.persistLocked(ctx)
	s.mu.Unlock()

	if err := s.FetchData(ctx); err != nil {
		return fmt.Errorf("refresh after drain: %w", err)
	}
	return nil
}
