package charge

import "context"

// Repository is the persistence boundary for charges. Implementations live
// outside the rating core.
type Repository interface {
	Create(ctx context.Context, charge *Charge) error
	Get(ctx context.Context, id string) (*Charge, error)
	Update(ctx context.Context, charge *Charge) error
	Delete(ctx context.Context, id string) error
	ListByPlan(ctx context.Context, planID string) ([]*Charge, error)
}
