package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gtarallo/assistenza-tecnica/internal/model"
)

const malfunctionColumns = "id, product_id, title, description, severity, difficulty, report_count, estimated_minutes, first_seen, last_seen, created_by, last_edited_by, created_at, updated_at"

// MalfunctionRepo reads and writes the `malfunctions` table.
type MalfunctionRepo struct{ DB *sql.DB }

func NewMalfunctionRepo(db *sql.DB) *MalfunctionRepo { return &MalfunctionRepo{DB: db} }

// Create inserts a new malfunction report and returns its ID.  The caller
// has already validated the record against the scoring invariants.
func (r *MalfunctionRepo) Create(ctx context.Context, m model.Malfunction) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO malfunctions
		 (product_id, title, description, severity, difficulty, report_count, estimated_minutes, first_seen, last_seen, created_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		m.ProductID, m.Title, m.Description, string(m.Severity), string(m.Difficulty),
		m.ReportCount, m.EstimatedMinutes, m.FirstSeen, m.LastSeen, m.CreatedBy)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a malfunction by primary key.
func (r *MalfunctionRepo) GetByID(ctx context.Context, id uint64) (model.Malfunction, error) {
	m, err := scanMalfunction(r.DB.QueryRowContext(ctx,
		"SELECT "+malfunctionColumns+" FROM malfunctions WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Malfunction{}, ErrNotFound
	}
	return m, err
}

// List returns the most recently seen malfunctions, newest first.
func (r *MalfunctionRepo) List(ctx context.Context, limit int) ([]model.Malfunction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return r.query(ctx,
		"SELECT "+malfunctionColumns+" FROM malfunctions ORDER BY last_seen DESC LIMIT ?", limit)
}

// ByProduct returns the malfunctions reported for one product.
func (r *MalfunctionRepo) ByProduct(ctx context.Context, productID uint64) ([]model.Malfunction, error) {
	return r.query(ctx,
		"SELECT "+malfunctionColumns+" FROM malfunctions WHERE product_id=? ORDER BY last_seen DESC", productID)
}

// ByAssignedStaff returns malfunctions on products assigned to a staff
// member, the working queue behind the staff dashboard.
func (r *MalfunctionRepo) ByAssignedStaff(ctx context.Context, staffID uint64) ([]model.Malfunction, error) {
	return r.query(ctx,
		`SELECT m.id, m.product_id, m.title, m.description, m.severity, m.difficulty,
		        m.report_count, m.estimated_minutes, m.first_seen, m.last_seen,
		        m.created_by, m.last_edited_by, m.created_at, m.updated_at
		 FROM malfunctions m
		 JOIN products p ON p.id = m.product_id
		 WHERE p.assigned_staff_id=? AND p.is_active=1
		 ORDER BY m.last_seen DESC`, staffID)
}

// IncrementReport records a duplicate report: report_count grows by one and
// last_seen moves forward, never backward.  Both invariants are enforced in
// the statement itself.
func (r *MalfunctionRepo) IncrementReport(ctx context.Context, id uint64, seenAt time.Time, editorID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE malfunctions SET report_count=report_count+1, last_seen=GREATEST(last_seen, ?), last_edited_by=? WHERE id=?",
		seenAt, editorID, id)
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

// UpdateClassification lets staff reclassify severity, difficulty and the
// repair estimate, recording who touched the record last.
func (r *MalfunctionRepo) UpdateClassification(ctx context.Context, id uint64, severity model.Severity, difficulty model.Difficulty, estimatedMinutes int, editorID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE malfunctions SET severity=?, difficulty=?, estimated_minutes=?, last_edited_by=? WHERE id=?",
		string(severity), string(difficulty), estimatedMinutes, editorID, id)
	return err
}

func (r *MalfunctionRepo) query(ctx context.Context, q string, args ...any) ([]model.Malfunction, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Malfunction
	for rows.Next() {
		m, err := scanMalfunction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMalfunction(row rowScanner) (model.Malfunction, error) {
	var (
		m          model.Malfunction
		severity   string
		difficulty string
		editor     sql.NullInt64
	)
	err := row.Scan(&m.ID, &m.ProductID, &m.Title, &m.Description, &severity, &difficulty,
		&m.ReportCount, &m.EstimatedMinutes, &m.FirstSeen, &m.LastSeen,
		&m.CreatedBy, &editor, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return model.Malfunction{}, err
	}
	m.Severity = model.Severity(severity)
	m.Difficulty = model.Difficulty(difficulty)
	if editor.Valid {
		v := uint64(editor.Int64)
		m.LastEditedBy = &v
	}
	return m, nil
}
