package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// VipCodeRepo provides access to the vip_codes table.  Codes are always
// stored and looked up upper-cased.
type VipCodeRepo struct {
	db *sql.DB
}

// NewVipCodeRepo returns a new VipCodeRepo bound to the given database.
func NewVipCodeRepo(db *sql.DB) *VipCodeRepo { return &VipCodeRepo{db: db} }

const vipColumns = `id, code, description, active, expires_at, max_uses, uses_current, created_at, updated_at`

func scanVipCode(s rowScanner) (model.VipCode, error) {
	var v model.VipCode
	var expires sql.NullTime
	var maxUses sql.NullInt64
	if err := s.Scan(&v.ID, &v.Code, &v.Description, &v.Active, &expires, &maxUses,
		&v.UsesCurrent, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return v, err
	}
	if expires.Valid {
		t := expires.Time.UTC()
		v.ExpiresAt = &t
	}
	if maxUses.Valid {
		m := uint32(maxUses.Int64)
		v.MaxUses = &m
	}
	return v, nil
}

// List returns all codes, newest first.
func (r *VipCodeRepo) List(ctx context.Context) ([]model.VipCode, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+vipColumns+` FROM vip_codes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.VipCode{}
	for rows.Next() {
		v, err := scanVipCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetByCode looks a code up case-insensitively.  It returns ErrNotFound
// when no such code exists.
func (r *VipCodeRepo) GetByCode(ctx context.Context, code string) (*model.VipCode, error) {
	v, err := scanVipCode(r.db.QueryRowContext(ctx,
		`SELECT `+vipColumns+` FROM vip_codes WHERE code = ?`, model.NormalizeVipCode(code)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// GetByID returns a code by primary key.
func (r *VipCodeRepo) GetByID(ctx context.Context, id uint64) (*model.VipCode, error) {
	v, err := scanVipCode(r.db.QueryRowContext(ctx, `SELECT `+vipColumns+` FROM vip_codes WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Create inserts a code.  The code is upper-cased before insert; a
// duplicate yields ErrConflict.
func (r *VipCodeRepo) Create(ctx context.Context, v *model.VipCode) error {
	v.Code = model.NormalizeVipCode(v.Code)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO vip_codes (code, description, active, expires_at, max_uses) VALUES (?, ?, ?, ?, ?)`,
		v.Code, v.Description, v.Active, nullableTime(v.ExpiresAt), v.MaxUses)
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
	v.ID = uint64(id)
	return nil
}

// Update changes the admin-editable fields.  uses_current is never written
// here; only ConsumeOne moves it.
func (r *VipCodeRepo) Update(ctx context.Context, v *model.VipCode) error {
	v.Code = model.NormalizeVipCode(v.Code)
	res, err := r.db.ExecContext(ctx,
		`UPDATE vip_codes SET code = ?, description = ?, active = ?, expires_at = ?, max_uses = ? WHERE id = ?`,
		v.Code, v.Description, v.Active, nullableTime(v.ExpiresAt), v.MaxUses, v.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return requireAffected(ctx, r.db, res, `SELECT 1 FROM vip_codes WHERE id = ?`, v.ID)
}

// Delete removes a code.  Reservations keep the code string they used.
func (r *VipCodeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vip_codes WHERE id = ?`, id)
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

// ConsumeOne increments uses_current by exactly one if, and only if, the
// code is still usable at now.  The condition is evaluated by MySQL inside
// the UPDATE, so concurrent callers can never push uses_current past
// max_uses.  It reports whether a row was updated; false means the code is
// missing, inactive, expired or exhausted and the caller should look it up
// to learn which.
func (r *VipCodeRepo) ConsumeOne(ctx context.Context, code string, now time.Time) (bool, error) {
	const q = `UPDATE vip_codes SET uses_current = uses_current + 1
		WHERE code = ? AND active = TRUE
		  AND (expires_at IS NULL OR expires_at >= ?)
		  AND (max_uses IS NULL OR uses_current < max_uses)`
	res, err := r.db.ExecContext(ctx, q, model.NormalizeVipCode(code), now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
