package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// ProductRepo provides CRUD operations for the products table.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `id, name, price_cents, category, image_url, description, created_at, updated_at`

func scanProduct(s rowScanner) (model.Product, error) {
	var p model.Product
	var image, desc sql.NullString
	if err := s.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Category, &image, &desc, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, err
	}
	if image.Valid {
		v := image.String
		p.ImageURL = &v
	}
	if desc.Valid {
		v := desc.String
		p.Description = &v
	}
	return p, nil
}

// List returns the whole catalog ordered by category then price.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY category, price_cents, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID returns a single product or ErrNotFound.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a product and populates its generated ID.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (name, price_cents, category, image_url, description) VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.PriceCents, p.Category, p.ImageURL, p.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update overwrites the editable columns.  Existing reservations keep
// their price snapshots.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, price_cents = ?, category = ?, image_url = ?, description = ? WHERE id = ?`,
		p.Name, p.PriceCents, p.Category, p.ImageURL, p.Description, p.ID)
	if err != nil {
		return err
	}
	return requireAffected(ctx, r.db, res, `SELECT 1 FROM products WHERE id = ?`, p.ID)
}

// Delete removes a product.  Reservation items keep the name and price
// they were booked with.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
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
