package testutil

import (
	"context"

	"github.com/samber/lo"

	"github.com/meterbill/meterbill/internal/domain/appliedcoupon"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/types"
)

// InMemoryAppliedCouponStore implements appliedcoupon.Repository
type InMemoryAppliedCouponStore struct {
	*InMemoryStore[*appliedcoupon.AppliedCoupon]
}

// NewInMemoryAppliedCouponStore creates a new in-memory applied coupon store
func NewInMemoryAppliedCouponStore() *InMemoryAppliedCouponStore {
	return &InMemoryAppliedCouponStore{
		InMemoryStore: NewInMemoryStore[*appliedcoupon.AppliedCoupon](),
	}
}

func copyAppliedCoupon(ac *appliedcoupon.AppliedCoupon) *appliedcoupon.AppliedCoupon {
	if ac == nil {
		return nil
	}

	copied := &appliedcoupon.AppliedCoupon{
		ID:          ac.ID,
		CouponID:    ac.CouponID,
		CustomerID:  ac.CustomerID,
		AmountCents: ac.AmountCents,
		Currency:    ac.Currency,
		BaseModel: types.BaseModel{
			TenantID:  ac.TenantID,
			Status:    ac.Status,
			CreatedAt: ac.CreatedAt,
			UpdatedAt: ac.UpdatedAt,
			CreatedBy: ac.CreatedBy,
			UpdatedBy: ac.UpdatedBy,
		},
	}

	return copied
}

func (s *InMemoryAppliedCouponStore) Create(ctx context.Context, ac *appliedcoupon.AppliedCoupon) error {
	if ac == nil {
		return ierr.NewError("applied coupon cannot be nil").
			WithHint("Applied coupon cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Create(ctx, ac.ID, copyAppliedCoupon(ac))
}

func (s *InMemoryAppliedCouponStore) Get(ctx context.Context, id string) (*appliedcoupon.AppliedCoupon, error) {
	ac, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("applied coupon not found").
			WithHint("Applied coupon not found").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyAppliedCoupon(ac), nil
}

func (s *InMemoryAppliedCouponStore) GetActiveByCustomerAndCoupon(ctx context.Context, customerID, couponID string) (*appliedcoupon.AppliedCoupon, error) {
	items, err := s.InMemoryStore.List(ctx, customerID, activeAppliedCouponFilterFn, nil)
	if err != nil {
		return nil, err
	}

	for _, ac := range items {
		if ac.CouponID == couponID {
			return copyAppliedCoupon(ac), nil
		}
	}

	return nil, ierr.NewError("applied coupon not found").
		WithHint("Applied coupon not found").
		WithReportableDetails(map[string]interface{}{
			"customer_id": customerID,
			"coupon_id":   couponID,
		}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryAppliedCouponStore) ListActiveByCustomer(ctx context.Context, customerID string) ([]*appliedcoupon.AppliedCoupon, error) {
	items, err := s.InMemoryStore.List(ctx, customerID, activeAppliedCouponFilterFn, nil)
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(ac *appliedcoupon.AppliedCoupon, _ int) *appliedcoupon.AppliedCoupon {
		return copyAppliedCoupon(ac)
	}), nil
}

func activeAppliedCouponFilterFn(ctx context.Context, ac *appliedcoupon.AppliedCoupon, filter interface{}) bool {
	customerID, ok := filter.(string)
	if !ok {
		return false
	}
	return ac.CustomerID == customerID && ac.Status == types.StatusActive
}
