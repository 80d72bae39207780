package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// GuestListRepo provides access to guest_list_entries.
type GuestListRepo struct {
	db *sql.DB
}

// NewGuestListRepo returns a new GuestListRepo bound to the given database.
func NewGuestListRepo(db *sql.DB) *GuestListRepo { return &GuestListRepo{db: db} }

const guestColumns = `id, name, email, phone, entry_date, invited_count, companions,
	confirmation_code, checked_in, checked_in_at, created_at, updated_at`

func scanGuest(s rowScanner) (model.GuestListEntry, error) {
	var e model.GuestListEntry
	var companions []byte
	var checkedAt sql.NullTime
	err := s.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.Date, &e.InvitedCount, &companions,
		&e.ConfirmationCode, &e.CheckedIn, &checkedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.Date = e.Date.UTC()
	e.Companions = []string{}
	if len(companions) > 0 {
		if err := json.Unmarshal(companions, &e.Companions); err != nil {
			return e, err
		}
	}
	if checkedAt.Valid {
		t := checkedAt.Time.UTC()
		e.CheckedInAt = &t
	}
	return e, nil
}

// Create inserts an entry.  A confirmation code collision yields
// ErrConflict so the caller can retry with a fresh code.
func (r *GuestListRepo) Create(ctx context.Context, e *model.GuestListEntry) error {
	if e.Companions == nil {
		e.Companions = []string{}
	}
	companions, err := json.Marshal(e.Companions)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO guest_list_entries (name, email, phone, entry_date, invited_count, companions, confirmation_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Email, e.Phone, model.FormatDate(e.Date), e.InvitedCount, string(companions), e.ConfirmationCode)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return r.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM guest_list_entries WHERE id = ?`, e.ID).
		Scan(&e.CreatedAt, &e.UpdatedAt)
}

// CodeExists reports whether a confirmation code is already taken.
func (r *GuestListRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM guest_list_entries WHERE confirmation_code = ? LIMIT 1`, code).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// SumInvitedOnDate returns the total invited_count registered for a night.
func (r *GuestListRepo) SumInvitedOnDate(ctx context.Context, date time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(invited_count), 0) FROM guest_list_entries WHERE entry_date = ?`,
		model.FormatDate(date)).Scan(&n)
	return n, err
}

// ListByDate returns the entries of one night in registration order.
func (r *GuestListRepo) ListByDate(ctx context.Context, date time.Time) ([]model.GuestListEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+guestColumns+` FROM guest_list_entries WHERE entry_date = ? ORDER BY id`, model.FormatDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.GuestListEntry{}
	for rows.Next() {
		e, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetByID returns one entry or ErrNotFound.
func (r *GuestListRepo) GetByID(ctx context.Context, id uint64) (*model.GuestListEntry, error) {
	e, err := scanGuest(r.db.QueryRowContext(ctx, `SELECT `+guestColumns+` FROM guest_list_entries WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// CheckIn marks an entry as arrived.  Checking in twice keeps the first
// timestamp.
func (r *GuestListRepo) CheckIn(ctx context.Context, id uint64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE guest_list_entries SET checked_in = TRUE, checked_in_at = COALESCE(checked_in_at, ?) WHERE id = ?`,
		at.UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(ctx, r.db, res, `SELECT 1 FROM guest_list_entries WHERE id = ?`, id)
}

// Delete removes an entry.
func (r *GuestListRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM guest_list_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
