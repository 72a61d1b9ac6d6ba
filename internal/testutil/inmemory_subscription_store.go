package testutil

import (
	"context"

	"github.com/samber/lo"

	"github.com/meterbill/meterbill/internal/domain/subscription"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func copySubscription(s *subscription.Subscription) *subscription.Subscription {
	if s == nil {
		return nil
	}

	copied := &subscription.Subscription{
		ID:                 s.ID,
		CustomerID:         s.CustomerID,
		PlanID:             s.PlanID,
		Currency:           s.Currency,
		SubscriptionStatus: s.SubscriptionStatus,
		StartedAt:          s.StartedAt,
		TerminatedAt:       s.TerminatedAt,
		BaseModel: types.BaseModel{
			TenantID:  s.TenantID,
			Status:    s.Status,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
			CreatedBy: s.CreatedBy,
			UpdatedBy: s.UpdatedBy,
		},
	}

	return copied
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").
			WithHint("Subscription cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("subscription not found").
			WithHint("Subscription not found").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").
			WithHint("Subscription cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Update(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) ListActiveByCustomer(ctx context.Context, customerID string) ([]*subscription.Subscription, error) {
	items, err := s.InMemoryStore.List(ctx, customerID, activeSubscriptionFilterFn, nil)
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(sub *subscription.Subscription, _ int) *subscription.Subscription {
		return copySubscription(sub)
	}), nil
}

func activeSubscriptionFilterFn(ctx context.Context, sub *subscription.Subscription, filter interface{}) bool {
	customerID, ok := filter.(string)
	if !ok {
		return false
	}
	return sub.CustomerID == customerID && sub.IsActive()
}
