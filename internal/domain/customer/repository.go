package customer

import "context"

// Repository is the persistence boundary for customers
type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	Get(ctx context.Context, id string) (*Customer, error)
}
