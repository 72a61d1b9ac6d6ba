package meter

import "context"

// Repository is the persistence boundary for meters
type Repository interface {
	Create(ctx context.Context, meter *Meter) error
	Get(ctx context.Context, id string) (*Meter, error)
	GetByCode(ctx context.Context, code string) (*Meter, error)
}
