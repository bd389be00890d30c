package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"

    "github.com/iliyamo/provider-sync/internal/model"
)

// ReservationRepo provides the reservation operations the provider app
// needs.  Every statement is scoped to the calling provider; an id that
// exists under another provider is ErrForbidden, an unknown id ErrNotFound.
// Timestamps are written with UTC_TIMESTAMP(3).
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationCols = `id, slot_date, start_time, end_time, experience, venue, mentor,
    child_name, child_kana, child_age, guardian_name, guardian_phone, guardian_email,
    strengths, weak_points, recent, status, memo, feedback, updated_at`

// ListByProvider returns the provider's reservations ordered by date and
// start time, each with its newest model.MaxHistory history entries.
func (r *ReservationRepo) ListByProvider(ctx context.Context, providerID uint64) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+reservationCols+` FROM reservations WHERE provider_id = ? ORDER BY slot_date, start_time, id`, providerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    out := []model.Reservation{}
    index := map[string]int{}
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        index[res.ID] = len(out)
        out = append(out, res)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(out) == 0 {
        return out, nil
    }

    // One query for all history rows; newest first, trimmed per reservation.
    hrows, err := r.db.QueryContext(ctx, `
        SELECT h.reservation_id, h.entry_date, h.experience, h.memo
        FROM reservation_history h
        JOIN reservations r ON r.id = h.reservation_id
        WHERE r.provider_id = ?
        ORDER BY h.reservation_id, h.entry_date DESC, h.created_at DESC, h.id DESC`, providerID)
    if err != nil {
        return nil, err
    }
    defer hrows.Close()
    for hrows.Next() {
        var id string
        var e model.HistoryEntry
        if err := hrows.Scan(&id, &e.Date, &e.Experience, &e.Memo); err != nil {
            return nil, err
        }
        i, ok := index[id]
        if !ok || len(out[i].History) >= model.MaxHistory {
            continue
        }
        out[i].History = append(out[i].History, e)
    }
    for i := range out {
        if out[i].History == nil {
            out[i].History = []model.HistoryEntry{}
        }
    }
    return out, hrows.Err()
}

type rowScanner interface {
    Scan(dest ...any) error
}

func scanReservation(row rowScanner) (model.Reservation, error) {
    var (
        res                    model.Reservation
        phone, email           sql.NullString
        strengths, weakPoints  sql.NullString
        recent, memo, feedback sql.NullString
    )
    err := row.Scan(&res.ID, &res.Date, &res.Start, &res.End, &res.Experience, &res.Venue, &res.Mentor,
        &res.Child.Name, &res.Child.Kana, &res.Child.Age, &res.Guardian.Name, &phone, &email,
        &strengths, &weakPoints, &recent, &res.Status, &memo, &feedback, &res.UpdatedAt)
    if err != nil {
        return res, err
    }
    res.Guardian.Phone = stringPtr(phone)
    res.Guardian.Email = stringPtr(email)
    res.Profile.Recent = recent.String
    res.Memo = stringPtr(memo)
    if res.Profile.Strengths, err = stringList(strengths); err != nil {
        return res, fmt.Errorf("reservation %s strengths: %w", res.ID, err)
    }
    if res.Profile.WeakPoints, err = stringList(weakPoints); err != nil {
        return res, fmt.Errorf("reservation %s weak points: %w", res.ID, err)
    }
    if feedback.Valid && feedback.String != "" {
        var fb model.Feedback
        if err := json.Unmarshal([]byte(feedback.String), &fb); err != nil {
            return res, fmt.Errorf("reservation %s feedback: %w", res.ID, err)
        }
        res.Feedback = &fb
    }
    return res, nil
}

// Insert stores a reservation with its history.  It exists for seeding and
// tests; bookings themselves are created outside this service.
func (r *ReservationRepo) Insert(ctx context.Context, providerID uint64, res model.Reservation) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    strengths, err := jsonText(res.Profile.Strengths)
    if err != nil {
        return err
    }
    weakPoints, err := jsonText(res.Profile.WeakPoints)
    if err != nil {
        return err
    }
    var fb sql.NullString
    if res.Feedback != nil {
        if fb, err = jsonText(res.Feedback); err != nil {
            return err
        }
    }
    _, err = tx.ExecContext(ctx, `
        INSERT INTO reservations (id, provider_id, slot_date, start_time, end_time, experience, venue, mentor,
            child_name, child_kana, child_age, guardian_name, guardian_phone, guardian_email,
            strengths, weak_points, recent, status, memo, feedback, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,UTC_TIMESTAMP(3))`,
        res.ID, providerID, res.Date, res.Start, res.End, res.Experience, res.Venue, res.Mentor,
        res.Child.Name, res.Child.Kana, res.Child.Age, res.Guardian.Name,
        nullString(res.Guardian.Phone), nullString(res.Guardian.Email),
        strengths, weakPoints, res.Profile.Recent, res.Status, nullString(res.Memo), fb)
    if err != nil {
        return err
    }
    // stored oldest first so the newest entry gets the latest created_at
    for i := len(res.History) - 1; i >= 0; i-- {
        h := res.History[i]
        if _, err := tx.ExecContext(ctx,
            `INSERT INTO reservation_history (reservation_id, entry_date, experience, memo) VALUES (?,?,?,?)`,
            res.ID, h.Date, h.Experience, h.Memo); err != nil {
            return err
        }
    }
    return tx.Commit()
}

// UpdateStatus sets the reservation status.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, providerID uint64, id string, status model.ReservationStatus) error {
    return r.update(ctx, r.db, providerID, id,
        `UPDATE reservations SET status = ?, updated_at = UTC_TIMESTAMP(3) WHERE id = ? AND provider_id = ?`,
        status, id, providerID)
}

// SaveMemo replaces the memo; nil clears it.
func (r *ReservationRepo) SaveMemo(ctx context.Context, providerID uint64, id string, memo *string) error {
    return r.update(ctx, r.db, providerID, id,
        `UPDATE reservations SET memo = ?, updated_at = UTC_TIMESTAMP(3) WHERE id = ? AND provider_id = ?`,
        nullString(memo), id, providerID)
}

// SaveContact merges phone/email into the guardian; absent fields keep
// their stored value.
func (r *ReservationRepo) SaveContact(ctx context.Context, providerID uint64, id string, c model.Contact) error {
    return r.update(ctx, r.db, providerID, id,
        `UPDATE reservations
         SET guardian_phone = COALESCE(?, guardian_phone),
             guardian_email = COALESCE(?, guardian_email),
             updated_at = UTC_TIMESTAMP(3)
         WHERE id = ? AND provider_id = ?`,
        nullString(c.Phone), nullString(c.Email), id, providerID)
}

// SaveFeedback stores the feedback and appends a history row dated date in
// the same transaction.
func (r *ReservationRepo) SaveFeedback(ctx context.Context, providerID uint64, id string, fb model.Feedback, date string) error {
    payload, err := jsonText(fb)
    if err != nil {
        return err
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    if err := r.update(ctx, tx, providerID, id,
        `UPDATE reservations SET feedback = ?, updated_at = UTC_TIMESTAMP(3) WHERE id = ? AND provider_id = ?`,
        payload, id, providerID); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, `
        INSERT INTO reservation_history (reservation_id, entry_date, experience, memo)
        SELECT id, ?, experience, ? FROM reservations WHERE id = ?`,
        date, fb.NoteOrEmpty(), id); err != nil {
        return err
    }
    return tx.Commit()
}

type execQuerier interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// update runs a provider-scoped UPDATE and turns "no row matched" into
// ErrNotFound or ErrForbidden.
func (r *ReservationRepo) update(ctx context.Context, q execQuerier, providerID uint64, id, stmt string, args ...any) error {
    res, err := q.ExecContext(ctx, stmt, args...)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n > 0 {
        return nil
    }
    var owner uint64
    err = q.QueryRowContext(ctx, `SELECT provider_id FROM reservations WHERE id = ?`, id).Scan(&owner)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrNotFound
    }
    if err != nil {
        return err
    }
    if owner != providerID {
        return ErrForbidden
    }
    return nil
}
