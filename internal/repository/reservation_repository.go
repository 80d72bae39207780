package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and their
// line items.  Items are stored in reservation_items with the unit price
// captured at booking time.  Dates are civil dates stored in DATE columns.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// CreateWithItems inserts the reservation and all of its items in a single
// transaction.  Either both land or neither does.  On success the
// generated IDs and timestamps are populated on res and its items.  A
// live booking already holding the same table and date makes the insert
// fail with ErrConflict.
func (r *ReservationRepo) CreateWithItems(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := r.CreateTx(ctx, tx, res); err != nil {
		return err
	}
	for i := range res.Items {
		res.Items[i].ReservationID = res.ID
	}
	if err := r.CreateItemsBulkTx(ctx, tx, res.Items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated ID and timestamps.  The caller
// must commit or rollback the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	if res.Status == "" {
		res.Status = model.StatusPending
	}
	if res.PaymentStatus == "" {
		res.PaymentStatus = model.PaymentUnpaid
	}
	const q = `INSERT INTO reservations
		(mesa_id, contact_name, contact_phone, contact_email, reservation_date, time_slot,
		 party_size, total_cents, vip_code, status, payment_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.MesaID, res.ContactName, res.ContactPhone, res.ContactEmail,
		model.FormatDate(res.Date), res.TimeSlot, res.PartySize, res.TotalCents, res.VipCode,
		string(res.Status), string(res.PaymentStatus))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM reservations WHERE id = ?`, res.ID).
		Scan(&res.CreatedAt, &res.UpdatedAt)
}

// CreateItemsBulkTx inserts multiple reservation_items rows in a single
// statement.  Passing an empty slice has no effect and returns nil.
func (r *ReservationRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.ReservationItem) error {
	if len(items) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO reservation_items (reservation_id, product_id, product_name, quantity, unit_price_cents) VALUES `)
	args := make([]any, 0, len(items)*5)
	for i, it := range items {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, it.ReservationID, it.ProductID, it.ProductName, it.Quantity, it.UnitPriceCents)
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// CountActiveForMesaOnDate counts pending or confirmed reservations holding
// the table on the given night.
func (r *ReservationRepo) CountActiveForMesaOnDate(ctx context.Context, mesaID uint64, date time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE mesa_id = ? AND reservation_date = ? AND status IN ('pending','confirmed')`,
		mesaID, model.FormatDate(date)).Scan(&n)
	return n, err
}

// ActiveMesaIDsOnDate returns the IDs of tables that already hold a
// pending or confirmed reservation on the given night.
func (r *ReservationRepo) ActiveMesaIDsOnDate(ctx context.Context, date time.Time) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT mesa_id FROM reservations WHERE reservation_date = ? AND status IN ('pending','confirmed')`,
		model.FormatDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const reservationSelect = `SELECT r.id, r.mesa_id, m.name, r.contact_name, r.contact_phone, r.contact_email,
	r.reservation_date, r.time_slot, r.party_size, r.total_cents, r.vip_code, r.status,
	r.payment_session_id, r.payment_status, r.payer_email, r.created_at, r.updated_at
	FROM reservations r JOIN mesas m ON m.id = r.mesa_id`

func scanReservation(s rowScanner) (model.Reservation, error) {
	var res model.Reservation
	var vip, session, payer sql.NullString
	var status, payStatus string
	err := s.Scan(&res.ID, &res.MesaID, &res.MesaName, &res.ContactName, &res.ContactPhone, &res.ContactEmail,
		&res.Date, &res.TimeSlot, &res.PartySize, &res.TotalCents, &vip, &status,
		&session, &payStatus, &payer, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return res, err
	}
	res.Date = res.Date.UTC()
	res.Status = model.ReservationStatus(status)
	res.PaymentStatus = model.PaymentStatus(payStatus)
	if vip.Valid {
		v := vip.String
		res.VipCode = &v
	}
	if session.Valid {
		v := session.String
		res.PaymentSessionID = &v
	}
	if payer.Valid {
		v := payer.String
		res.PayerEmail = &v
	}
	return res, nil
}

// GetByID loads a reservation together with its line items.  It returns
// ErrNotFound when no reservation has that ID.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, reservationSelect+` WHERE r.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if res.Items, err = r.itemsFor(ctx, res.ID); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByPaymentSession loads the reservation a checkout session was opened for.
func (r *ReservationRepo) GetByPaymentSession(ctx context.Context, sessionID string) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, reservationSelect+` WHERE r.payment_session_id = ?`, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if res.Items, err = r.itemsFor(ctx, res.ID); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepo) itemsFor(ctx context.Context, reservationID uint64) ([]model.ReservationItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reservation_id, product_id, product_name, quantity, unit_price_cents
		 FROM reservation_items WHERE reservation_id = ? ORDER BY id`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []model.ReservationItem{}
	for rows.Next() {
		var it model.ReservationItem
		if err := rows.Scan(&it.ID, &it.ReservationID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListByDate returns every reservation of a night, without items, ordered
// by time slot.  A zero date lists everything, newest first.
func (r *ReservationRepo) ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
	var rows *sql.Rows
	var err error
	if date.IsZero() {
		rows, err = r.db.QueryContext(ctx, reservationSelect+` ORDER BY r.reservation_date DESC, r.id DESC`)
	} else {
		rows, err = r.db.QueryContext(ctx, reservationSelect+` WHERE r.reservation_date = ? ORDER BY r.time_slot, r.id`,
			model.FormatDate(date))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// SetPaymentSession records the checkout session opened for a reservation.
// Opening a new session replaces the previous reference and resets the
// payment status to unpaid.
func (r *ReservationRepo) SetPaymentSession(ctx context.Context, id uint64, sessionID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET payment_session_id = ?, payment_status = 'unpaid' WHERE id = ?`, sessionID, id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return requireAffected(ctx, r.db, res, `SELECT 1 FROM reservations WHERE id = ?`, id)
}

// UpdatePayment stores the payment outcome and the resulting reservation
// status in one statement.
func (r *ReservationRepo) UpdatePayment(ctx context.Context, id uint64, payment model.PaymentStatus, status model.ReservationStatus, payerEmail *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET payment_status = ?, status = ?, payer_email = COALESCE(?, payer_email) WHERE id = ?`,
		string(payment), string(status), payerEmail, id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return requireAffected(ctx, r.db, res, `SELECT 1 FROM reservations WHERE id = ?`, id)
}

// UpdateStatus changes the lifecycle status.  Re-activating a cancelled
// booking whose table has since been taken yields ErrConflict.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return requireAffected(ctx, r.db, res, `SELECT 1 FROM reservations WHERE id = ?`, id)
}

// Delete removes a reservation; its items cascade.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
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
