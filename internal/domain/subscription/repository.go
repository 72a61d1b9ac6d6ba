package subscription

import "context"

// Repository is the persistence boundary for subscriptions
type Repository interface {
	Create(ctx context.Context, subscription *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error
	ListActiveByCustomer(ctx context.Context, customerID string) ([]*Subscription, error)
}
