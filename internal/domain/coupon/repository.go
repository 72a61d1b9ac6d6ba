package coupon

import "context"

// Repository is the persistence boundary for coupons
type Repository interface {
	Create(ctx context.Context, coupon *Coupon) error
	Get(ctx context.Context, id string) (*Coupon, error)
	Update(ctx context.Context, coupon *Coupon) error
}
