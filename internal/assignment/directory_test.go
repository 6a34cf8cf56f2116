package assignment

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/gtarallo/assistenza-tecnica/internal/model"
	"github.com/gtarallo/assistenza-tecnica/internal/policy"
	"github.com/gtarallo/assistenza-tecnica/internal/repository"
)

// fakeProductStore mimics the rows-changed semantics of the SQL store:
// a write that leaves the row at its current value does not count.
type fakeProductStore struct {
	products map[uint64]*model.Product
}

func newFakeProductStore(ids ...uint64) *fakeProductStore {
	s := &fakeProductStore{products: map[uint64]*model.Product{}}
	for _, id := range ids {
		s.products[id] = &model.Product{ID: id, IsActive: true}
	}
	return s
}

func (s *fakeProductStore) GetByID(_ context.Context, id uint64) (model.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return *p, nil
}

func (s *fakeProductStore) SetAssignee(_ context.Context, id uint64, staffID *uint64) (int64, error) {
	p, ok := s.products[id]
	if !ok {
		return 0, nil
	}
	if equalID(p.AssignedStaffID, staffID) {
		return 0, nil
	}
	p.AssignedStaffID = copyID(staffID)
	return 1, nil
}

func (s *fakeProductStore) SetAssigneeBulk(ctx context.Context, ids []uint64, staffID *uint64) (int64, error) {
	var changed int64
	for _, id := range ids {
		n, _ := s.SetAssignee(ctx, id, staffID)
		changed += n
	}
	return changed, nil
}

func (s *fakeProductStore) Unassigned(context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range s.products {
		if p.AssignedStaffID == nil {
			out = append(out, *p)
		}
	}
	sortProducts(out)
	return out, nil
}

func (s *fakeProductStore) ByStaff(_ context.Context, staffID uint64) ([]model.Product, error) {
	var out []model.Product
	for _, p := range s.products {
		if p.AssignedStaffID != nil && *p.AssignedStaffID == staffID {
			out = append(out, *p)
		}
	}
	sortProducts(out)
	return out, nil
}

type fakeStaffDirectory struct {
	identities map[uint64]model.Identity
}

func (s *fakeStaffDirectory) GetByID(_ context.Context, id uint64) (model.Identity, error) {
	i, ok := s.identities[id]
	if !ok {
		return model.Identity{}, repository.ErrNotFound
	}
	return i, nil
}

func equalID(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyID(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func sortProducts(ps []model.Product) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}

func ptr(v uint64) *uint64 { return &v }

func newTestDirectory() (*Directory, *fakeProductStore) {
	products := newFakeProductStore(1, 2, 3)
	staff := &fakeStaffDirectory{identities: map[uint64]model.Identity{
		10: {ID: 10, Handle: "carla.staff", Level: policy.LevelStaff, IsActive: true},
		11: {ID: 11, Handle: "marco.tech", Level: policy.LevelTechnician, IsActive: true},
		12: {ID: 12, Handle: "ex.staff", Level: policy.LevelStaff, IsActive: false},
	}}
	return NewDirectory(products, staff), products
}

func TestAssignAndForStaff(t *testing.T) {
	d, _ := newTestDirectory()
	ctx := context.Background()

	prev, err := d.Assign(ctx, 1, ptr(10))
	if err != nil {
		t.Fatalf("assign: unexpected error: %v", err)
	}
	if prev != nil {
		t.Fatalf("assign: expected no previous assignee, got %d", *prev)
	}

	mine, err := d.ForStaff(ctx, 10)
	if err != nil {
		t.Fatalf("forStaff: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != 1 {
		t.Fatalf("forStaff: expected product 1, got %+v", mine)
	}

	// Re-assigning the same staff is a no-op reporting the same previous value.
	prev, err = d.Assign(ctx, 1, ptr(10))
	if err != nil {
		t.Fatalf("idempotent assign: %v", err)
	}
	if prev == nil || *prev != 10 {
		t.Fatalf("idempotent assign: expected previous 10, got %v", prev)
	}
}

func TestClearingRemovesFromEveryStaffSet(t *testing.T) {
	d, _ := newTestDirectory()
	ctx := context.Background()

	before, err := d.Unassigned(ctx)
	if err != nil {
		t.Fatalf("unassigned: %v", err)
	}

	if _, err := d.Assign(ctx, 2, ptr(10)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	prev, err := d.Assign(ctx, 2, nil)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if prev == nil || *prev != 10 {
		t.Fatalf("clear: expected previous 10, got %v", prev)
	}

	mine, _ := d.ForStaff(ctx, 10)
	if len(mine) != 0 {
		t.Fatalf("expected product removed from staff set, got %+v", mine)
	}

	// Round-trip: unassigned membership is back to the original state.
	after, err := d.Unassigned(ctx)
	if err != nil {
		t.Fatalf("unassigned: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("round-trip changed unassigned set: before=%d after=%d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID {
			t.Fatalf("round-trip changed unassigned membership at %d: %d vs %d", i, before[i].ID, after[i].ID)
		}
	}
}

func TestBulkAssignIsIdempotent(t *testing.T) {
	d, _ := newTestDirectory()
	ctx := context.Background()

	ids := []uint64{1, 2, 3}
	changed, err := d.BulkAssign(ctx, ids, ptr(10))
	if err != nil {
		t.Fatalf("bulk assign: %v", err)
	}
	if changed != 3 {
		t.Fatalf("bulk assign: expected 3 changed, got %d", changed)
	}

	changed, err = d.BulkAssign(ctx, ids, ptr(10))
	if err != nil {
		t.Fatalf("second bulk assign: %v", err)
	}
	if changed != 0 {
		t.Fatalf("second bulk assign: expected 0 changed, got %d", changed)
	}
}

func TestBulkAssignEmptySet(t *testing.T) {
	d, _ := newTestDirectory()
	changed, err := d.BulkAssign(context.Background(), nil, ptr(10))
	if err != nil {
		t.Fatalf("empty bulk assign: %v", err)
	}
	if changed != 0 {
		t.Fatalf("empty bulk assign: expected 0 changed, got %d", changed)
	}
}

func TestAssignRejectsInvalidAssignees(t *testing.T) {
	d, store := newTestDirectory()
	ctx := context.Background()

	cases := []struct {
		name    string
		staffID uint64
	}{
		{"technician is not staff", 11},
		{"deactivated staff", 12},
		{"unknown identity", 999},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := d.Assign(ctx, 1, ptr(tc.staffID)); !errors.Is(err, ErrInvalidAssignee) {
				t.Fatalf("expected ErrInvalidAssignee, got %v", err)
			}
			// Validation failed before any write.
			if store.products[1].AssignedStaffID != nil {
				t.Fatal("product must remain unassigned after rejected validation")
			}
		})
	}

	if _, err := d.BulkAssign(ctx, []uint64{1, 2}, ptr(11)); !errors.Is(err, ErrInvalidAssignee) {
		t.Fatalf("bulk: expected ErrInvalidAssignee, got %v", err)
	}
}

func TestAssignUnknownProduct(t *testing.T) {
	d, _ := newTestDirectory()
	if _, err := d.Assign(context.Background(), 999, ptr(10)); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
