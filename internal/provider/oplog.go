package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

// ReplayFunc sends one queued operation upstream.
type ReplayFunc func(ctx context.Context, op Operation) error

// ReplayError reports which queued operation stopped a drain.
type ReplayError struct {
	Index int
	Op    Operation
	Err   error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay %s %s (position %d): %v", e.Op.Kind(), e.Op.EntityID(), e.Index, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// OperationLog is the FIFO of mutation intents waiting for the backend.
// It is not safe for concurrent use; the Store serializes access.
type OperationLog struct {
	ops []Operation
}

// Append adds op at the tail.
func (l *OperationLog) Append(op Operation) {
	l.ops = append(l.ops, op)
}

// Len returns the number of queued operations.
func (l *OperationLog) Len() int { return len(l.ops) }

// PeekAll returns the queued operations in replay order.
func (l *OperationLog) PeekAll() []Operation {
	return append([]Operation(nil), l.ops...)
}

// References reports whether any queued operation targets entityID.
func (l *OperationLog) References(entityID string) bool {
	for _, op := range l.ops {
		if op.EntityID() == entityID {
			return true
		}
	}
	return false
}

// Drain replays every queued operation in order.  The first failure aborts
// the drain and leaves the log exactly as it was, including entries that
// were already replayed successfully; they will be sent again next time.
func (l *OperationLog) Drain(ctx context.Context, replay ReplayFunc) error {
	pending := l.PeekAll()
	if err := replayInOrder(ctx, pending, replay); err != nil {
		return err
	}
	l.Discard(pending)
	return nil
}

// Discard removes drained from the head of the log.  Entries appended
// after drained was taken stay queued.  It returns how many were removed.
func (l *OperationLog) Discard(drained []Operation) int {
	n := 0
	for n < len(drained) && n < len(l.ops) && l.ops[n] == drained[n] {
		n++
	}
	l.ops = append([]Operation(nil), l.ops[n:]...)
	return n
}

func replayInOrder(ctx context.Context, ops []Operation, replay ReplayFunc) error {
	for i, op := range ops {
		if err := replay(ctx, op); err != nil {
			return &ReplayError{Index: i, Op: op, Err: err}
		}
	}
	return nil
}

// MarshalJSON writes the log as an array of {id, type, payload} envelopes.
func (l OperationLog) MarshalJSON() ([]byte, error) {
	envs := make([]envelope, 0, len(l.ops))
	for _, op := range l.ops {
		env, err := encodeOperation(op)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return json.Marshal(envs)
}

// UnmarshalJSON restores a log written by MarshalJSON.
func (l *OperationLog) UnmarshalJSON(data []byte) error {
	var envs []envelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return err
	}
	ops := make([]Operation, 0, len(envs))
	for _, env := range envs {
		op, err := decodeOperation(env)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}
	l.ops = ops
	return nil
}
