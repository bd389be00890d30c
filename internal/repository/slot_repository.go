package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/provider-sync/internal/model"
)

// SlotRepo stores the provider's bookable slots.  Rows are keyed by the
// client-chosen slot id; provider_id scopes every read and write.
type SlotRepo struct {
	db *sql.DB
}

func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const slotCols = `id, experience, slot_date, start_time, end_time, venue, capacity, remaining,
    age_range, mentor, state, price, category, tags, note, deadline_hours,
    repeat_type, repeat_until, repeat_count, created_by, updated_at`

// ListByProvider returns the provider's slots ordered by date and start time.
func (r *SlotRepo) ListByProvider(ctx context.Context, providerID uint64) ([]model.Slot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+slotCols+` FROM slots WHERE provider_id = ? ORDER BY slot_date, start_time, id`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := []model.Slot{}
	for rows.Next() {
		var (
			s           model.Slot
			price, cat  sql.NullString
			tags, note  sql.NullString
			repeatType  sql.NullString
			repeatUntil sql.NullString
			repeatCount sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.Experience, &s.Date, &s.Start, &s.End, &s.Venue, &s.Capacity, &s.Remaining,
			&s.AgeRange, &s.Mentor, &s.State, &price, &cat, &tags, &note, &s.DeadlineHours,
			&repeatType, &repeatUntil, &repeatCount, &s.CreatedBy, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Price, s.Category, s.Note = stringPtr(price), stringPtr(cat), stringPtr(note)
		if s.Tags, err = stringList(tags); err != nil {
			return nil, fmt.Errorf("slot %s tags: %w", s.ID, err)
		}
		if repeatType.Valid {
			s.Repeat = &model.Repeat{Type: model.RepeatType(repeatType.String), Until: stringPtr(repeatUntil)}
			if repeatCount.Valid {
				n := int(repeatCount.Int64)
				s.Repeat.Count = &n
			}
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// Upsert inserts or replaces a slot.  The caller normalizes and validates;
// a slot id owned by another provider is ErrForbidden.
func (r *SlotRepo) Upsert(ctx context.Context, providerID uint64, s model.Slot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var owner uint64
	err = tx.QueryRowContext(ctx, `SELECT provider_id FROM slots WHERE id = ? FOR UPDATE`, s.ID).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	case owner != providerID:
		return ErrForbidden
	}

	tags, err := jsonText(nilIfEmpty(s.Tags))
	if err != nil {
		return err
	}
	var repeatType, repeatUntil sql.NullString
	var repeatCount sql.NullInt64
	if s.Repeat != nil {
		repeatType = sql.NullString{String: string(s.Repeat.Type), Valid: true}
		repeatUntil = nullString(s.Repeat.Until)
		if s.Repeat.Count != nil {
			repeatCount = sql.NullInt64{Int64: int64(*s.Repeat.Count), Valid: true}
		}
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO slots (id, provider_id, experience, slot_date, start_time, end_time, venue, capacity, remaining,
            age_range, mentor, state, price, category, tags, note, deadline_hours,
            repeat_type, repeat_until, repeat_count, created_by, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
        ON DUPLICATE KEY UPDATE
            experience=VALUES(experience), slot_date=VALUES(slot_date), start_time=VALUES(start_time),
            end_time=VALUES(end_time), venue=VALUES(venue), capacity=VALUES(capacity), remaining=VALUES(remaining),
            age_range=VALUES(age_range), mentor=VALUES(mentor), state=VALUES(state), price=VALUES(price),
            category=VALUES(category), tags=VALUES(tags), note=VALUES(note), deadline_hours=VALUES(deadline_hours),
            repeat_type=VALUES(repeat_type), repeat_until=VALUES(repeat_until), repeat_count=VALUES(repeat_count),
            created_by=VALUES(created_by), updated_at=VALUES(updated_at)`,
		s.ID, providerID, s.Experience, s.Date, s.Start, s.End, s.Venue, s.Capacity, s.Remaining,
		s.AgeRange, s.Mentor, s.State, nullString(s.Price), nullString(s.Category), tags, nullString(s.Note), s.DeadlineHours,
		repeatType, repeatUntil, repeatCount, s.CreatedBy, s.UpdatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func nilIfEmpty(xs []string) any {
	if len(xs) == 0 {
		return nil
	}
	return xs
}
