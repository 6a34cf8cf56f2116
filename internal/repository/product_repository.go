package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gtarallo/assistenza-tecnica/internal/model"
)

const productColumns = "id, name, model, category, assigned_staff_id, is_active, created_at, updated_at"

// ProductRepo reads and writes the `products` table, including the
// assigned_staff_id foreign key the assignment directory operates on.
type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

// Create inserts a catalog entry and returns its ID.  The model code is
// unique across the catalog.
func (r *ProductRepo) Create(ctx context.Context, name, modelCode, category string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (name, model, category) VALUES (?,?,?)",
		strings.TrimSpace(name), strings.TrimSpace(modelCode), strings.TrimSpace(category))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrModelExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a product by primary key.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrNotFound
	}
	return p, err
}

// List returns active catalog entries ordered by name.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	return r.query(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_active=1 ORDER BY name")
}

// Unassigned returns active products with no responsible staff member.
func (r *ProductRepo) Unassigned(ctx context.Context) ([]model.Product, error) {
	return r.query(ctx,
		"SELECT "+productColumns+" FROM products WHERE assigned_staff_id IS NULL AND is_active=1 ORDER BY name")
}

// ByStaff returns the active products assigned to a staff member.
func (r *ProductRepo) ByStaff(ctx context.Context, staffID uint64) ([]model.Product, error) {
	return r.query(ctx,
		"SELECT "+productColumns+" FROM products WHERE assigned_staff_id=? AND is_active=1 ORDER BY name", staffID)
}

// Update changes name and category of a product.
func (r *ProductRepo) Update(ctx context.Context, id uint64, name, category string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE products SET name=?, category=? WHERE id=?",
		strings.TrimSpace(name), strings.TrimSpace(category), id)
	return err
}

// SetAssignee points the product at a staff member, or clears the
// assignment when staffID is nil.  Returns the number of rows actually
// changed: MySQL reports 0 when the row was already at the target value,
// which is exactly the idempotence the directory wants to surface.
func (r *ProductRepo) SetAssignee(ctx context.Context, id uint64, staffID *uint64) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if staffID == nil {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE products SET assigned_staff_id=NULL WHERE id=? AND assigned_staff_id IS NOT NULL", id)
	} else {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE products SET assigned_staff_id=? WHERE id=?", *staffID, id)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetAssigneeBulk applies the same target to every id in the set and
// reports how many rows changed.  The write is a single statement, so each
// product either gets the validated target or is untouched.
func (r *ProductRepo) SetAssigneeBulk(ctx context.Context, ids []uint64, staffID *uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	var query string
	if staffID == nil {
		query = "UPDATE products SET assigned_staff_id=NULL WHERE id IN (" + placeholders + ")"
	} else {
		query = "UPDATE products SET assigned_staff_id=? WHERE id IN (" + placeholders + ")"
		args = append(args, *staffID)
	}
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ProductRepo) query(ctx context.Context, q string, args ...any) ([]model.Product, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(row rowScanner) (model.Product, error) {
	var (
		p     model.Product
		staff sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Model, &p.Category, &staff,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Product{}, err
	}
	if staff.Valid {
		v := uint64(staff.Int64)
		p.AssignedStaffID = &v
	}
	return p, nil
}
