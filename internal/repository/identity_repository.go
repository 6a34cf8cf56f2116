package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gtarallo/assistenza-tecnica/internal/model"
	"github.com/gtarallo/assistenza-tecnica/internal/policy"
	"github.com/gtarallo/assistenza-tecnica/internal/utils"
)

const identityColumns = "id, handle, password_hash, first_name, last_name, level, center_id, assigned_at, is_active, created_at, updated_at"

// IdentityRepo reads and writes the `users` table.
type IdentityRepo struct{ DB *sql.DB }

func NewIdentityRepo(db *sql.DB) *IdentityRepo { return &IdentityRepo{DB: db} }

// Create inserts an identity at the given level and returns its ID.  The
// handle is normalized to lower case before the uniqueness check hits the
// database.
func (r *IdentityRepo) Create(ctx context.Context, handle, password, firstName, lastName string, level policy.Level, cost int) (uint64, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (handle, password_hash, first_name, last_name, level) VALUES (?,?,?,?,?)",
		handle, hash, firstName, lastName, int(level))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrHandleExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByHandle fetches an identity by normalized handle.
func (r *IdentityRepo) GetByHandle(ctx context.Context, handle string) (model.Identity, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM users WHERE handle=? LIMIT 1", handle))
}

// GetByID fetches an identity by primary key.
func (r *IdentityRepo) GetByID(ctx context.Context, id uint64) (model.Identity, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// ListByLevel returns the active identities at a level, ordered by handle.
// With policy.LevelStaff this is the staff directory projection the
// assignment endpoints expose.
func (r *IdentityRepo) ListByLevel(ctx context.Context, level policy.Level) ([]model.Identity, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+identityColumns+" FROM users WHERE level=? AND is_active=1 ORDER BY handle", int(level))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// UpdateLevel changes the access level of an identity.  Only privileged
// handlers call this; the level value has been normalized and the identity
// loaded by then, so a no-op update is not an error.
func (r *IdentityRepo) UpdateLevel(ctx context.Context, id uint64, level policy.Level) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET level=? WHERE id=?", int(level), id)
	return err
}

// Deactivate soft-retires an identity.  The row is kept so malfunction
// authorship references remain resolvable.
func (r *IdentityRepo) Deactivate(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=0 WHERE id=?", id)
	return err
}

// AssignCenter attaches an identity to a service center, stamping the
// assignment time.  Passing nil clears the attachment.
func (r *IdentityRepo) AssignCenter(ctx context.Context, id uint64, centerID *uint64) error {
	var err error
	if centerID == nil {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE users SET center_id=NULL, assigned_at=NULL WHERE id=?", id)
	} else {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE users SET center_id=?, assigned_at=? WHERE id=?", *centerID, time.Now().UTC(), id)
	}
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanIdentity(row rowScanner) (model.Identity, error) {
	var (
		i        model.Identity
		level    int
		centerID sql.NullInt64
		assigned sql.NullTime
	)
	err := row.Scan(&i.ID, &i.Handle, &i.PasswordHash, &i.FirstName, &i.LastName,
		&level, &centerID, &assigned, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return model.Identity{}, err
	}
	i.Level = policy.Normalize(level)
	if centerID.Valid {
		v := uint64(centerID.Int64)
		i.CenterID = &v
	}
	if assigned.Valid {
		t := assigned.Time
		i.AssignedAt = &t
	}
	return i, nil
}

func (r *IdentityRepo) scanOne(row *sql.Row) (model.Identity, error) {
	i, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Identity{}, ErrNotFound
	}
	return i, err
}
