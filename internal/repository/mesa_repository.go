package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// MesaRepo provides CRUD operations for the mesas table.
type MesaRepo struct {
	db *sql.DB
}

// NewMesaRepo returns a new MesaRepo bound to the given database.
func NewMesaRepo(db *sql.DB) *MesaRepo { return &MesaRepo{db: db} }

const mesaColumns = `id, name, category, capacity, location, min_spend_cents, available,
	COALESCE(description, ''), pos_x, pos_y, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMesa(s rowScanner) (model.Mesa, error) {
	var m model.Mesa
	var category string
	var posX, posY sql.NullFloat64
	err := s.Scan(&m.ID, &m.Name, &category, &m.Capacity, &m.Location, &m.MinSpendCents,
		&m.Available, &m.Description, &posX, &posY, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return m, err
	}
	m.Category = model.Category(category)
	if posX.Valid {
		x := posX.Float64
		m.PosX = &x
	}
	if posY.Valid {
		y := posY.Float64
		m.PosY = &y
	}
	return m, nil
}

// List returns every table ordered by tier and then by name.
func (r *MesaRepo) List(ctx context.Context) ([]model.Mesa, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+mesaColumns+` FROM mesas
		ORDER BY FIELD(category, 'gold','silver','bronze','purple','red'), name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Mesa{}
	for rows.Next() {
		m, err := scanMesa(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetByID returns a single table or ErrNotFound.
func (r *MesaRepo) GetByID(ctx context.Context, id uint64) (*model.Mesa, error) {
	m, err := scanMesa(r.db.QueryRowContext(ctx, `SELECT `+mesaColumns+` FROM mesas WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create inserts a table and populates its generated ID.  A duplicate name
// yields ErrConflict.
func (r *MesaRepo) Create(ctx context.Context, m *model.Mesa) error {
	const q = `INSERT INTO mesas (name, category, capacity, location, min_spend_cents, available, description, pos_x, pos_y)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Name, string(m.Category), m.Capacity, m.Location,
		m.MinSpendCents, m.Available, m.Description, m.PosX, m.PosY)
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
	m.ID = uint64(id)
	return nil
}

// Update overwrites every editable column of the table.
func (r *MesaRepo) Update(ctx context.Context, m *model.Mesa) error {
	const q = `UPDATE mesas SET name = ?, category = ?, capacity = ?, location = ?, min_spend_cents = ?,
		available = ?, description = ?, pos_x = ?, pos_y = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Name, string(m.Category), m.Capacity, m.Location,
		m.MinSpendCents, m.Available, m.Description, m.PosX, m.PosY, m.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return requireAffected(ctx, r.db, res, `SELECT 1 FROM mesas WHERE id = ?`, m.ID)
}

// Delete removes a table.  Tables referenced by reservations cannot be
// deleted and yield ErrConflict; disable them instead.
func (r *MesaRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mesas WHERE id = ?`, id)
	if err != nil {
		if isReferenced(err) {
			return ErrConflict
		}
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

// requireAffected turns a zero-row UPDATE into ErrNotFound.  MySQL reports
// zero affected rows when the new values equal the old ones, so existence
// is confirmed with a probe query before giving up.
func requireAffected(ctx context.Context, db *sql.DB, res sql.Result, probe string, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	if err := db.QueryRowContext(ctx, probe, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
