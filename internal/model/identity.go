package model

import (
	"strings"
	"time"

	"github.com/gtarallo/assistenza-tecnica/internal/policy"
)

// Identity represents an application user record as stored in the `users`
// table.  Accounts are never deleted: deactivation flips IsActive so that
// malfunction authorship references stay resolvable for audit.
//
// CenterID and AssignedAt are only populated for identities attached to a
// service center; both are optional.
type Identity struct {
	ID           uint64       // users.id
	Handle       string       // users.handle (unique login name)
	PasswordHash string       // users.password_hash (bcrypt)
	FirstName    string       // users.first_name
	LastName     string       // users.last_name
	Level        policy.Level // users.level (1..4)
	CenterID     *uint64      // users.center_id, nullable
	AssignedAt   *time.Time   // users.assigned_at, nullable
	IsActive     bool         // users.is_active
	CreatedAt    time.Time    // users.created_at
	UpdatedAt    time.Time    // users.updated_at
}

// DisplayName joins the name parts, falling back to the handle when both
// are empty.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Handle
	}
	return name
}

// IsStaff reports whether the identity can be the target of a product
// assignment: active and exactly at the staff tier.
func (i Identity) IsStaff() bool {
	return i.IsActive && i.Level == policy.LevelStaff
}
