package testutil

import (
	"context"

	"github.com/samber/lo"

	"github.com/meterbill/meterbill/internal/domain/charge"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/types"
)

// InMemoryChargeStore implements charge.Repository
type InMemoryChargeStore struct {
	*InMemoryStore[*charge.Charge]
}

// NewInMemoryChargeStore creates a new in-memory charge store
func NewInMemoryChargeStore() *InMemoryChargeStore {
	return &InMemoryChargeStore{
		InMemoryStore: NewInMemoryStore[*charge.Charge](),
	}
}

func copyCharge(c *charge.Charge) *charge.Charge {
	if c == nil {
		return nil
	}

	copied := &charge.Charge{
		ID:           c.ID,
		PlanID:       c.PlanID,
		MeterID:      c.MeterID,
		Model:        c.Model,
		Currency:     c.Currency,
		Properties:   c.Properties,
		GroupingKeys: append([]string(nil), c.GroupingKeys...),
		Version:      c.Version,
		BaseModel: types.BaseModel{
			TenantID:  c.TenantID,
			Status:    c.Status,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			CreatedBy: c.CreatedBy,
			UpdatedBy: c.UpdatedBy,
		},
	}

	return copied
}

func (s *InMemoryChargeStore) Create(ctx context.Context, c *charge.Charge) error {
	if c == nil {
		return ierr.NewError("charge cannot be nil").
			WithHint("Charge cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Create(ctx, c.ID, copyCharge(c))
}

func (s *InMemoryChargeStore) Get(ctx context.Context, id string) (*charge.Charge, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("charge not found").
			WithHint("Charge not found").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyCharge(c), nil
}

func (s *InMemoryChargeStore) Update(ctx context.Context, c *charge.Charge) error {
	if c == nil {
		return ierr.NewError("charge cannot be nil").
			WithHint("Charge cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Update(ctx, c.ID, copyCharge(c))
}

func (s *InMemoryChargeStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}

func (s *InMemoryChargeStore) ListByPlan(ctx context.Context, planID string) ([]*charge.Charge, error) {
	items, err := s.InMemoryStore.List(ctx, planID, chargePlanFilterFn, chargeSortFn)
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(c *charge.Charge, _ int) *charge.Charge {
		return copyCharge(c)
	}), nil
}

func chargePlanFilterFn(ctx context.Context, c *charge.Charge, filter interface{}) bool {
	planID, ok := filter.(string)
	if !ok {
		return false
	}
	return c.PlanID == planID && c.Status == types.StatusActive
}

func chargeSortFn(i, j *charge.Charge) bool {
	return i.CreatedAt.After(j.CreatedAt)
}
