// Package assignment implements the product-to-staff assignment directory.
// Products reference at most one responsible staff member; the directory
// validates assignees before any write so a product can never point at an
// identity that is not active staff.
package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/gtarallo/assistenza-tecnica/internal/model"
	"github.com/gtarallo/assistenza-tecnica/internal/repository"
)

var (
	// ErrInvalidAssignee is returned when the target identity does not
	// exist or is not an active staff member.
	ErrInvalidAssignee = errors.New("assignment: invalid assignee")
	// ErrProductNotFound is returned when the product being assigned does
	// not exist.
	ErrProductNotFound = errors.New("assignment: product not found")
)

// ProductStore is the slice of the product repository the directory needs.
type ProductStore interface {
	GetByID(ctx context.Context, id uint64) (model.Product, error)
	SetAssignee(ctx context.Context, id uint64, staffID *uint64) (int64, error)
	SetAssigneeBulk(ctx context.Context, ids []uint64, staffID *uint64) (int64, error)
	Unassigned(ctx context.Context) ([]model.Product, error)
	ByStaff(ctx context.Context, staffID uint64) ([]model.Product, error)
}

// StaffDirectory resolves identities for assignee validation.
type StaffDirectory interface {
	GetByID(ctx context.Context, id uint64) (model.Identity, error)
}

// Directory coordinates assignment reads and writes.
type Directory struct {
	products ProductStore
	staff    StaffDirectory
}

func NewDirectory(products ProductStore, staff StaffDirectory) *Directory {
	return &Directory{products: products, staff: staff}
}

// Assign points a product at a staff member (or clears the assignment when
// staffID is nil) and returns the previous assignee.  Assigning the current
// assignee again is a no-op; clearing is always legal.
func (d *Directory) Assign(ctx context.Context, productID uint64, staffID *uint64) (*uint64, error) {
	p, err := d.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, productID)
		}
		return nil, err
	}
	if err := d.validateAssignee(ctx, staffID); err != nil {
		return nil, err
	}

	previous := p.AssignedStaffID
	if _, err := d.products.SetAssignee(ctx, productID, staffID); err != nil {
		return nil, err
	}
	return previous, nil
}

// BulkAssign applies the same target to every product in the set and
// reports how many rows changed.  Products already at the target do not
// count, so running the same bulk assignment twice reports 0 the second
// time.  The assignee is validated once, before any write.
func (d *Directory) BulkAssign(ctx context.Context, productIDs []uint64, staffID *uint64) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	if err := d.validateAssignee(ctx, staffID); err != nil {
		return 0, err
	}
	return d.products.SetAssigneeBulk(ctx, productIDs, staffID)
}

// Unassigned returns the products with no responsible staff member.
func (d *Directory) Unassigned(ctx context.Context) ([]model.Product, error) {
	return d.products.Unassigned(ctx)
}

// ForStaff returns the products assigned to a staff member.
func (d *Directory) ForStaff(ctx context.Context, staffID uint64) ([]model.Product, error) {
	return d.products.ByStaff(ctx, staffID)
}

// validateAssignee accepts nil (clearing) and active staff-level identities,
// rejecting everything else before a write can happen.
func (d *Directory) validateAssignee(ctx context.Context, staffID *uint64) error {
	if staffID == nil {
		return nil
	}
	ident, err := d.staff.GetByID(ctx, *staffID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: identity %d not found", ErrInvalidAssignee, *staffID)
		}
		return err
	}
	if !ident.IsStaff() {
		return fmt.Errorf("%w: identity %d (%s) is not active staff", ErrInvalidAssignee, ident.ID, ident.Handle)
	}
	return nil
}
