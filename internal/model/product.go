package model

import "time"

// Product mirrors the `products` table.  AssignedStaffID is nullable:
// "unassigned" is a first-class state the dashboard and the assignment
// endpoints query for, not an error condition.
type Product struct {
	ID              uint64     // products.id
	Name            string     // products.name
	Model           string     // products.model (unique)
	Category        string     // products.category (key into the category map)
	AssignedStaffID *uint64    // products.assigned_staff_id, nullable
	IsActive        bool       // products.is_active
	CreatedAt       time.Time  // products.created_at
	UpdatedAt       time.Time  // products.updated_at
}

// CategoryLabel resolves the display label for the product's category key.
func (p Product) CategoryLabel() string { return CategoryLabel(p.Category) }

// Assigned reports whether the product currently has a responsible staff
// member.
func (p Product) Assigned() bool { return p.AssignedStaffID != nil }
